package protocol

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/tx"
)

// Interval is a transaction validity interval in POSIX ms: valid from From
// up to, but excluding, To.
type Interval struct {
	From int64
	To   int64
}

// Apply sets the interval on b.
func (iv Interval) Apply(b *tx.Builder) *tx.Builder {
	return b.ValidFrom(iv.From).ValidTo(iv.To)
}

// Open returns the default interval starting at now.
func (p Params) Open(now int64) Interval {
	return Interval{From: now, To: now + p.validity()}
}

// Until returns the default interval starting at now with its upper end
// clamped below bound, so the whole interval lies before bound. It fails if
// now is not at least one slot before bound.
func (p Params) Until(now, bound int64) (Interval, error) {
	iv := p.Open(now)
	if iv.To > bound-1 {
		iv.To = bound - 1
	}
	if p.Slots.Slot(iv.To) <= p.Slots.Slot(iv.From) {
		return Interval{}, fmt.Errorf("%w: %d is less than a slot before %d", ErrOutsideWindow, now, bound)
	}
	return iv, nil
}

// BeforeDeadline returns an interval that ends before the deadline.
func (p Params) BeforeDeadline(now int64) (Interval, error) {
	if p.Deadline.IsZero() {
		return Interval{}, fmt.Errorf("%w: no deadline configured", ErrInvalidParams)
	}
	return p.Until(now, p.DeadlineMillis())
}

// AfterDeadline returns an interval starting at now, which must be at or
// past the deadline.
func (p Params) AfterDeadline(now int64) (Interval, error) {
	if p.Deadline.IsZero() {
		return Interval{}, fmt.Errorf("%w: no deadline configured", ErrInvalidParams)
	}
	if now < p.DeadlineMillis() {
		return Interval{}, fmt.Errorf("%w: deadline %s not reached", ErrOutsideWindow, p.Deadline)
	}
	return p.Open(now), nil
}
