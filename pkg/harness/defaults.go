package harness

import (
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/romodify"
)

var readonlyChecksOff = []features.FeatureGate{features.ReadonlyWriteGate, features.ReadonlyPostVerify}

// DefaultScenarios returns the built-in suite. Scenarios against a correct
// host expect every read-only write to be rejected; scenarios against a
// faulty host expect the probe to observe the mutation.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			Name:        "modify",
			Description: "direct write to a read-only account is rejected",
			Subject:     Subject{Data: []byte{0}},
			Steps:       []Step{OpStep(romodify.Modify, OutcomeWriteProtection)},
			FinalByte:   byteRef(0),
		},
		{
			Name:        "invoke-modify",
			Description: "write one invocation level deeper is rejected the same way",
			Subject:     Subject{Data: []byte{0}},
			Steps:       []Step{OpStep(romodify.InvokeModify, OutcomeWriteProtection)},
			FinalByte:   byteRef(0),
		},
		{
			Name:        "modify-invoke",
			Description: "outer write is rejected before the nested verify runs",
			Subject:     Subject{Data: []byte{0}},
			Steps:       []Step{OpStep(romodify.ModifyInvoke, OutcomeWriteProtection)},
			FinalByte:   byteRef(0),
		},
		{
			Name:        "modify-then-verify",
			Description: "a rejected write leaves nothing for verify to observe",
			Subject:     Subject{Data: []byte{0}},
			Steps: []Step{
				OpStep(romodify.Modify, OutcomeWriteProtection),
				OpStep(romodify.VerifyModified, OutcomeInvariant),
			},
			FinalByte: byteRef(0),
		},
		{
			Name:        "verify-unmodified",
			Description: "verify on an untouched account fails its check",
			Subject:     Subject{Data: []byte{0}},
			Steps:       []Step{OpStep(romodify.VerifyModified, OutcomeInvariant)},
			FinalByte:   byteRef(0),
		},
		{
			Name:        "verify-idempotent",
			Description: "verify twice on a modified account succeeds without side effects",
			Subject:     Subject{Data: []byte{1}},
			Steps: []Step{
				OpStep(romodify.VerifyModified, OutcomeSuccess),
				OpStep(romodify.VerifyModified, OutcomeSuccess),
			},
			FinalByte: byteRef(1),
		},
		{
			Name:        "writable-subject",
			Description: "every opcode refuses a writable subject",
			Subject:     Subject{Writable: true, Data: []byte{0}},
			Steps: []Step{
				OpStep(romodify.Modify, OutcomeInvariant),
				OpStep(romodify.InvokeModify, OutcomeInvariant),
				OpStep(romodify.ModifyInvoke, OutcomeInvariant),
				OpStep(romodify.VerifyModified, OutcomeInvariant),
			},
			FinalByte: byteRef(0),
		},
		{
			Name:        "unknown-instruction",
			Description: "opcodes outside the known set always abort",
			Subject:     Subject{Data: []byte{0}},
			Steps: []Step{
				OpStep(romodify.Opcode(4), OutcomeInvariant),
				OpStep(romodify.Opcode(0xff), OutcomeInvariant),
				OpStep(romodify.Opcode(4), OutcomeInvariant),
			},
			FinalByte: byteRef(0),
		},
		{
			Name:        "empty-instruction",
			Description: "an instruction without an opcode aborts",
			Subject:     Subject{Data: []byte{0}},
			Steps:       []Step{{Data: []byte{}, Expect: OutcomeInvariant}},
			FinalByte:   byteRef(0),
		},
		{
			Name:        "foreign-owner",
			Description: "write protection is reported even when the subject belongs to another program",
			Subject:     Subject{Data: []byte{0}, ForeignOwner: true},
			Steps: []Step{
				OpStep(romodify.Modify, OutcomeWriteProtection),
				OpStep(romodify.InvokeModify, OutcomeWriteProtection),
			},
			FinalByte: byteRef(0),
		},
		{
			Name:        "write-gate-off",
			Description: "without the borrow-time gate the post-instruction check still rejects and rolls back",
			Subject:     Subject{Data: []byte{0}},
			Disable:     []features.FeatureGate{features.ReadonlyWriteGate},
			Steps: []Step{
				OpStep(romodify.Modify, OutcomeWriteProtection),
				OpStep(romodify.InvokeModify, OutcomeWriteProtection),
				OpStep(romodify.ModifyInvoke, OutcomeWriteProtection),
			},
			FinalByte: byteRef(0),
		},
		{
			Name:        "faulty-host-modify",
			Description: "a host without read-only checks lets the write land",
			Subject:     Subject{Data: []byte{0}},
			Disable:     readonlyChecksOff,
			Steps: []Step{
				OpStep(romodify.Modify, OutcomeSuccess),
				OpStep(romodify.VerifyModified, OutcomeSuccess),
				OpStep(romodify.VerifyModified, OutcomeSuccess),
			},
			FinalByte: byteRef(1),
		},
		{
			Name:        "faulty-host-invoke-modify",
			Description: "the nested write lands the same way as the direct one",
			Subject:     Subject{Data: []byte{0}},
			Disable:     readonlyChecksOff,
			Steps:       []Step{OpStep(romodify.InvokeModify, OutcomeSuccess)},
			FinalByte:   byteRef(1),
		},
		{
			Name:        "faulty-host-modify-invoke",
			Description: "the nested verify observes the outer frame's write",
			Subject:     Subject{Data: []byte{0}},
			Disable:     readonlyChecksOff,
			Steps: []Step{
				OpStep(romodify.ModifyInvoke, OutcomeSuccess),
				OpStep(romodify.VerifyModified, OutcomeSuccess),
				OpStep(romodify.VerifyModified, OutcomeSuccess),
			},
			FinalByte: byteRef(1),
		},
		{
			Name:        "cpi-privileges-off",
			Description: "a host that marks callee accounts writable trips the subject precondition",
			Subject:     Subject{Data: []byte{0}},
			Disable:     []features.FeatureGate{features.CpiPrivilegeChecks},
			Steps:       []Step{OpStep(romodify.InvokeModify, OutcomeInvariant)},
			FinalByte:   byteRef(0),
		},
		{
			Name:               "missing-program-account",
			Description:        "self-invocation needs the program among the caller's accounts",
			Subject:            Subject{Data: []byte{0}},
			OmitProgramAccount: true,
			Steps: []Step{
				OpStep(romodify.InvokeModify, OutcomeRuntime),
				OpStep(romodify.Modify, OutcomeWriteProtection),
			},
			FinalByte: byteRef(0),
		},
	}
}
