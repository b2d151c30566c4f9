package security

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllow_FirstHitSetsWindow(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client)

	mock.ExpectIncr("ratelimit:search:ip:10.0.0.1").SetVal(1)
	mock.ExpectExpire("ratelimit:search:ip:10.0.0.1", time.Minute).SetVal(true)

	ok, err := limiter.allow(context.Background(), "ratelimit:search:ip:10.0.0.1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_OverLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client)

	mock.ExpectIncr("ratelimit:search:user:u1").SetVal(3)
	mock.ExpectIncr("ratelimit:search:user:u1").SetVal(4)

	ok, err := limiter.allow(context.Background(), "ratelimit:search:user:u1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.allow(context.Background(), "ratelimit:search:user:u1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllow_RedisError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(client)

	mock.ExpectIncr("k").SetErr(errors.New("connection refused"))

	_, err := limiter.allow(context.Background(), "k", 3, time.Minute)
	assert.Error(t, err)
}

func TestIsSuspiciousUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want bool
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", false},
		{"Googlebot/2.1", true},
		{"python-scraper/0.1", true},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isSuspiciousUserAgent(tt.ua), tt.ua)
	}
}
