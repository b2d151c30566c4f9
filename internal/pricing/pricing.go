package pricing

import (
	"strings"

	"booking-engine/internal/status"
	"booking-engine/models"

	"github.com/shopspring/decimal"
)

const (
	MinTickets = 1
	MaxTickets = 15
)

var couponRate = decimal.NewFromFloat(0.10)

type Quote struct {
	TicketCount int             `json:"ticket_count"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Original    decimal.Decimal `json:"original_total"`
	Discount    decimal.Decimal `json:"discount"`
	Final       decimal.Decimal `json:"final_total"`
	CouponCode  string          `json:"coupon_code,omitempty"`
}

// Calculator prices a cart. It is stateless and safe to call on every change
// of the quantity field.
type Calculator struct {
	couponCode string
}

func NewCalculator(couponCode string) *Calculator {
	return &Calculator{couponCode: normalizeCode(couponCode)}
}

// ClampTickets keeps a requested quantity inside [MinTickets, MaxTickets].
func ClampTickets(n int) int {
	if n < MinTickets {
		return MinTickets
	}
	if n > MaxTickets {
		return MaxTickets
	}
	return n
}

// Price computes the totals for ticketCount seats. An unknown coupon returns
// status.ErrInvalidCoupon together with the undiscounted quote.
func (c *Calculator) Price(event models.Event, ticketCount int, coupon string) (Quote, error) {
	count := ClampTickets(ticketCount)
	unit := decimal.NewFromFloat(event.UnitPrice()).Round(2)
	original := unit.Mul(decimal.NewFromInt(int64(count))).Round(2)

	q := Quote{
		TicketCount: count,
		UnitPrice:   unit,
		Original:    original,
		Discount:    decimal.Zero,
		Final:       original,
	}

	code := normalizeCode(coupon)
	if code == "" {
		return q, nil
	}
	if !c.IsValidCoupon(code) {
		return q, status.ErrInvalidCoupon
	}

	q.CouponCode = code
	q.Discount = original.Mul(couponRate).Round(2)
	q.Final = original.Sub(q.Discount)
	if q.Final.IsNegative() {
		q.Final = decimal.Zero
	}
	return q, nil
}

func (c *Calculator) IsValidCoupon(code string) bool {
	return c.couponCode != "" && normalizeCode(code) == c.couponCode
}

// CouponSession holds the coupon state of one booking session. A coupon can be
// applied once; further Apply calls never stack discounts.
type CouponSession struct {
	calc    *Calculator
	applied string
}

func (c *Calculator) NewSession() *CouponSession {
	return &CouponSession{calc: c}
}

// Apply accepts the well-known code once. Re-applying, or applying anything
// after a coupon was accepted, is a no-op returning ErrCouponAlreadyApplied.
func (s *CouponSession) Apply(code string) error {
	if s.applied != "" {
		return status.ErrCouponAlreadyApplied
	}
	if !s.calc.IsValidCoupon(code) {
		return status.ErrInvalidCoupon
	}
	s.applied = normalizeCode(code)
	return nil
}

func (s *CouponSession) Applied() string {
	return s.applied
}

func (s *CouponSession) Quote(event models.Event, ticketCount int) Quote {
	q, _ := s.calc.Price(event, ticketCount, s.applied)
	return q
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
