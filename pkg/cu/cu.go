package cu

import (
	"errors"

	"go.firedancer.io/roprobe/pkg/safemath"
)

// DefaultComputeUnitLimit is the per-instruction budget used when a
// transaction does not request one.
const DefaultComputeUnitLimit = 200_000

var ErrComputeExceeded = errors.New("Compute exceeded")

type ComputeMeter struct {
	remaining       uint64
	startingBalance uint64
	exceeded        bool
}

func NewComputeMeter(budget uint64) ComputeMeter {
	return ComputeMeter{remaining: budget, startingBalance: budget}
}

func NewComputeMeterDefault() ComputeMeter {
	return NewComputeMeter(DefaultComputeUnitLimit)
}

// Consume deducts cost from the meter. The meter drains to zero even when
// the cost cannot be fully paid.
func (cm *ComputeMeter) Consume(cost uint64) error {
	if cm.remaining < cost {
		cm.exceeded = true
	}
	cm.remaining = safemath.SaturatingSubU64(cm.remaining, cost)
	if cm.exceeded {
		return ErrComputeExceeded
	}
	return nil
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.startingBalance - cm.remaining
}

func (cm *ComputeMeter) Exceeded() bool {
	return cm.exceeded
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.remaining
}
