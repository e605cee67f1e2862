// Package cu meters the work a derivation is allowed to do.
package cu

import (
	"errors"
)

var ErrComputeExceeded = errors.New("Compute exceeded")

// CUCreateProgramAddressUnits is charged for every bump probed while
// searching for a program address.
const CUCreateProgramAddressUnits = 1500

type ComputeMeter struct {
	computeMeter    uint64
	startingBalance uint64
	exceeded        bool
}

func NewComputeMeter(budget uint64) ComputeMeter {
	return ComputeMeter{computeMeter: budget, startingBalance: budget}
}

// NewProbeMeter returns a meter that allows exactly n program address probes.
func NewProbeMeter(n uint64) ComputeMeter {
	return NewComputeMeter(n * CUCreateProgramAddressUnits)
}

func (cm *ComputeMeter) Consume(cost uint64) error {
	cm.exceeded = cm.computeMeter < cost
	if cm.exceeded {
		cm.computeMeter = 0
		return ErrComputeExceeded
	}
	cm.computeMeter -= cost
	return nil
}

func (cm *ComputeMeter) Used() uint64 {
	return cm.startingBalance - cm.computeMeter
}

func (cm *ComputeMeter) Exceeded() bool {
	return cm.exceeded
}

func (cm *ComputeMeter) Remaining() uint64 {
	return cm.computeMeter
}
