package setnode

import (
	"fmt"

	"github.com/bitfsorg/linkedlist-go/protocol"
)

// Phase is the removal policy in force at a point in time.
type Phase int

const (
	// BeforePenalty is more than the penalty window before the deadline:
	// full refund.
	BeforePenalty Phase = iota
	// InPenalty is within the penalty window: a penalty is deducted.
	InPenalty
	// AfterDeadline allows unconditional removal with a full refund.
	AfterDeadline
)

func (p Phase) String() string {
	switch p {
	case BeforePenalty:
		return "before-penalty"
	case InPenalty:
		return "in-penalty"
	default:
		return "after-deadline"
	}
}

// PhaseAt returns the phase containing now.
func PhaseAt(now int64, p protocol.Params) Phase {
	switch {
	case now >= p.DeadlineMillis():
		return AfterDeadline
	case now >= p.PenaltyStartMillis():
		return InPenalty
	default:
		return BeforePenalty
	}
}

// Interval returns a validity interval lying entirely inside the phase of
// now, so the validator sees the same phase.
func (ph Phase) Interval(now int64, p protocol.Params) (protocol.Interval, error) {
	switch ph {
	case BeforePenalty:
		return p.Until(now, p.PenaltyStartMillis())
	case InPenalty:
		return p.Until(now, p.DeadlineMillis())
	case AfterDeadline:
		return p.AfterDeadline(now)
	default:
		return protocol.Interval{}, fmt.Errorf("%w: phase %d", protocol.ErrInvalidParams, ph)
	}
}

// Penalty returns max(ceil(commitment/4), MinUTXO).
func Penalty(commitment int64, p protocol.Params) int64 {
	quarter := (commitment + 3) / 4
	if commitment <= 0 {
		quarter = 0
	}
	if quarter < p.MinUTXO {
		return p.MinUTXO
	}
	return quarter
}
