package romodify

import (
	"errors"
	"fmt"

	"go.firedancer.io/roprobe/pkg/sealevel"
)

type ViolationKind int

const (
	MissingSubjectAccount ViolationKind = iota
	SubjectWritable
	EmptyInstruction
	ByteMismatch
	UnknownInstruction
)

func (k ViolationKind) String() string {
	switch k {
	case MissingSubjectAccount:
		return "missing subject account"
	case SubjectWritable:
		return "subject account is writable"
	case EmptyInstruction:
		return "empty instruction data"
	case ByteMismatch:
		return "subject byte mismatch"
	case UnknownInstruction:
		return "unknown instruction"
	}
	return fmt.Sprintf("ViolationKind(%d)", int(k))
}

// InvariantViolation is a fatal failure raised by the processor's own
// checks. It means the test setup or a prior step is broken, not that the
// runtime rejected an operation.
type InvariantViolation struct {
	Kind     ViolationKind
	Op       Opcode
	Expected byte
	Actual   byte
}

func (v *InvariantViolation) Error() string {
	switch v.Kind {
	case ByteMismatch:
		return fmt.Sprintf("invariant violation: %s in %s: expected %d, got %d", v.Kind, v.Op, v.Expected, v.Actual)
	case UnknownInstruction:
		return fmt.Sprintf("invariant violation: %s %d", v.Kind, uint8(v.Op))
	}
	return "invariant violation: " + v.Kind.String()
}

type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureWriteProtection
	FailureInvariant
	FailureRuntime
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "success"
	case FailureWriteProtection:
		return "write-protection"
	case FailureInvariant:
		return "invariant"
	case FailureRuntime:
		return "runtime"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

// Classify sorts the result of a ro_account_modify call into the failure
// taxonomy the harness reports on.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var violation *InvariantViolation
	if errors.As(err, &violation) {
		return FailureInvariant
	}
	if errors.Is(err, sealevel.InstrErrReadonlyDataModified) {
		return FailureWriteProtection
	}
	return FailureRuntime
}

// AsInvariantViolation unwraps err to an *InvariantViolation, if it is one.
func AsInvariantViolation(err error) (*InvariantViolation, bool) {
	var violation *InvariantViolation
	ok := errors.As(err, &violation)
	return violation, ok
}
