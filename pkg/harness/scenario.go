// Package harness drives the ro_account_modify probe through the sealevel
// runtime and checks each step's outcome and the subject's final state.
package harness

import (
	"fmt"

	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/romodify"
)

type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeWriteProtection Outcome = "write-protection"
	OutcomeInvariant       Outcome = "invariant"
	OutcomeRuntime         Outcome = "runtime"
)

func OutcomeOf(err error) Outcome {
	switch romodify.Classify(err) {
	case romodify.FailureNone:
		return OutcomeSuccess
	case romodify.FailureWriteProtection:
		return OutcomeWriteProtection
	case romodify.FailureInvariant:
		return OutcomeInvariant
	}
	return OutcomeRuntime
}

// Subject describes the account passed as instruction account 0.
type Subject struct {
	Writable bool
	Data     []byte
	// ForeignOwner assigns the subject to a program other than the probe.
	ForeignOwner bool
}

// Step is one top-level instruction, executed as its own transaction.
type Step struct {
	Data   []byte
	Expect Outcome
}

func (s Step) Opcode() (romodify.Opcode, bool) {
	if len(s.Data) == 0 {
		return 0, false
	}
	return romodify.Opcode(s.Data[0]), true
}

func (s Step) String() string {
	op, ok := s.Opcode()
	if !ok {
		return "<empty>"
	}
	return op.String()
}

// OpStep returns a step sending the single-byte instruction op.
func OpStep(op romodify.Opcode, expect Outcome) Step {
	return Step{Data: []byte{byte(op)}, Expect: expect}
}

type Scenario struct {
	Name        string
	Description string
	Subject     Subject
	// Disable lists the runtime enforcement gates switched off for every
	// step, emulating a faulty host.
	Disable []features.FeatureGate
	// OmitProgramAccount leaves the probe program out of the instruction
	// accounts, so self-invocations cannot resolve it.
	OmitProgramAccount bool
	Steps              []Step
	FinalByte          *byte
}

func (sc *Scenario) features() *features.Features {
	f := features.NewFeaturesDefault()
	for _, gate := range sc.Disable {
		f.DisableFeature(gate)
	}
	return f
}

func (sc *Scenario) Validate() error {
	if sc.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", sc.Name)
	}
	for i, step := range sc.Steps {
		switch step.Expect {
		case OutcomeSuccess, OutcomeWriteProtection, OutcomeInvariant, OutcomeRuntime:
		default:
			return fmt.Errorf("scenario %s step %d: unknown expected outcome %q", sc.Name, i, step.Expect)
		}
	}
	return nil
}

func byteRef(b byte) *byte {
	return &b
}
