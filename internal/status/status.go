package status

import "errors"

var (
	ErrValidation   = errors.New("booking: validation failed")
	ErrPersistence  = errors.New("store: persistence failed")
	ErrForbidden    = errors.New("auth: operation not permitted")
	ErrUnauthorized = errors.New("auth: session required")

	ErrInvalidCoupon        = errors.New("coupon: invalid coupon code")
	ErrCouponAlreadyApplied = errors.New("coupon: coupon already applied")

	ErrEventNotFound   = errors.New("event: event not found")
	ErrBookingNotFound = errors.New("booking: booking not found")
	ErrTicketNotFound  = errors.New("ticket: ticket not found")

	ErrDuplicateTicketNumber = errors.New("ticket: ticket number already taken")
	ErrSeatAlreadyIssued     = errors.New("ticket: seat already issued")
	ErrTicketNumberExhausted = errors.New("ticket: could not allocate a unique ticket number")

	ErrNotificationDispatch = errors.New("notify: dispatch failed")
	ErrCircuitOpen          = errors.New("notify: circuit breaker is open")
	ErrLockNotAcquired      = errors.New("lock: lock held by another worker")
)
