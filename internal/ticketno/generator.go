package ticketno

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"booking-engine/internal/status"
	"booking-engine/utils"

	"github.com/redis/go-redis/v9"
)

const (
	Prefix = "MJ"

	// suffixRange bounds the random part of a ticket number: [0, 999].
	suffixRange = 1000

	reservationPrefix = "ticketno:"
	reservationTTL    = 24 * time.Hour
)

type Generator struct {
	redis      *redis.Client
	qrTemplate string
	retries    int

	now  func() time.Time
	intn func(n int) (int, error)
}

type Option func(*Generator)

// WithRedis enables cross-instance reservation of generated numbers.
func WithRedis(client *redis.Client) Option {
	return func(g *Generator) { g.redis = client }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithRand(intn func(n int) (int, error)) Option {
	return func(g *Generator) { g.intn = intn }
}

func WithRetries(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.retries = n
		}
	}
}

func NewGenerator(qrTemplate string, opts ...Option) *Generator {
	g := &Generator{
		qrTemplate: qrTemplate,
		retries:    5,
		now:        time.Now,
		intn:       utils.RandomIntn,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns a candidate ticket number "MJ-<unix millis>-<0..999>". It is
// not guaranteed unique; see Reserve.
func (g *Generator) Next() (string, error) {
	suffix, err := g.intn(suffixRange)
	if err != nil {
		return "", fmt.Errorf("ticket number suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%d", Prefix, g.now().UnixMilli(), suffix), nil
}

// Reserve returns a number nobody else has claimed through Redis in the last
// 24h. Without Redis it is the same as Next and the storage unique index is
// the only guard.
func (g *Generator) Reserve(ctx context.Context) (string, error) {
	if g.redis == nil {
		return g.Next()
	}

	for attempt := 1; attempt <= g.retries; attempt++ {
		number, err := g.Next()
		if err != nil {
			return "", err
		}

		ok, err := g.redis.SetNX(ctx, reservationPrefix+number, "1", reservationTTL).Result()
		if err != nil {
			// reservation is best effort, the unique index still holds
			slog.Warn("Ticket number reservation unavailable", "ticket_number", number, "error", err)
			return number, nil
		}
		if ok {
			return number, nil
		}
		slog.Debug("Ticket number collision", "ticket_number", number, "attempt", attempt)
	}

	return "", status.ErrTicketNumberExhausted
}

// QRPayload renders the verification URL for a ticket number.
func (g *Generator) QRPayload(ticketNumber string) string {
	escaped := url.QueryEscape(ticketNumber)
	if strings.Contains(g.qrTemplate, "%s") {
		return fmt.Sprintf(g.qrTemplate, escaped)
	}
	return g.qrTemplate + escaped
}

// Parse splits a ticket number into its issue time and suffix. Anything that
// Next could not have produced is rejected.
func Parse(number string) (time.Time, int, error) {
	rest, ok := strings.CutPrefix(number, Prefix+"-")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("parse ticket number %q: missing %s prefix", number, Prefix)
	}
	millisPart, suffixPart, ok := strings.Cut(rest, "-")
	if !ok || !isDigits(millisPart) || !isDigits(suffixPart) {
		return time.Time{}, 0, fmt.Errorf("parse ticket number %q: malformed", number)
	}

	millis, err := strconv.ParseInt(millisPart, 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parse ticket number %q: %w", number, err)
	}
	suffix, err := strconv.Atoi(suffixPart)
	if err != nil || suffix >= suffixRange {
		return time.Time{}, 0, fmt.Errorf("parse ticket number %q: suffix out of range", number)
	}
	return time.UnixMilli(millis), suffix, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
