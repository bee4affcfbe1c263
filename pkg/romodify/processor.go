// Package romodify implements ro_account_modify, a probe program that
// checks a host refuses writes to read-only accounts, including when the
// account is passed on through a self-invocation.
package romodify

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/sealevel"
)

const subjectIndex = 0

// Account is the processor's view of an instruction account. Each data
// access borrows the underlying buffer for the duration of the call only.
type Account interface {
	Key() solana.PublicKey
	IsSigner() bool
	IsWritable() bool
	DataByte(offset uint64) (byte, error)
	SetDataByte(offset uint64, value byte) error
}

// Invoker issues a nested instruction on behalf of the running program.
// *sealevel.ExecutionCtx implements it.
type Invoker interface {
	NativeInvoke(instruction sealevel.Instruction, signers []solana.PublicKey) error
}

type Processor struct {
	Invoker Invoker
	Log     sealevel.Logger
}

func (p *Processor) msg(s string) {
	if p.Log != nil {
		p.Log.Log("Program log: " + s)
	}
}

// Process executes one ro_account_modify instruction. Write rejections
// from the host are returned unchanged; failed checks of the processor's
// own are returned as *InvariantViolation.
func (p *Processor) Process(programId solana.PublicKey, accts []Account, data []byte) error {
	if len(accts) == 0 {
		return &InvariantViolation{Kind: MissingSubjectAccount}
	}
	subject := accts[subjectIndex]
	if subject.IsWritable() {
		return &InvariantViolation{Kind: SubjectWritable}
	}
	if len(data) == 0 {
		return &InvariantViolation{Kind: EmptyInstruction}
	}

	op := Opcode(data[0])
	switch op {
	case Modify:
		p.msg("modify ro account")
		if err := expectSubjectByte(op, subject, 0); err != nil {
			return err
		}
		return subject.SetDataByte(0, 1)

	case InvokeModify:
		p.msg("invoke and modify ro account")
		if err := expectSubjectByte(op, subject, 0); err != nil {
			return err
		}
		return p.invokeSelf(programId, subject, Modify)

	case ModifyInvoke:
		p.msg("modify and invoke ro account")
		if err := expectSubjectByte(op, subject, 0); err != nil {
			return err
		}
		if err := subject.SetDataByte(0, 1); err != nil {
			return err
		}
		return p.invokeSelf(programId, subject, VerifyModified)

	case VerifyModified:
		p.msg("verify modified")
		return expectSubjectByte(op, subject, 1)
	}

	return &InvariantViolation{Kind: UnknownInstruction, Op: op}
}

func expectSubjectByte(op Opcode, subject Account, expected byte) error {
	actual, err := subject.DataByte(0)
	if err != nil {
		return err
	}
	if actual != expected {
		return &InvariantViolation{Kind: ByteMismatch, Op: op, Expected: expected, Actual: actual}
	}
	return nil
}

// invokeSelf passes the subject on read-only. The program account is
// listed too, since the callee program must be among the caller's
// accounts.
func (p *Processor) invokeSelf(programId solana.PublicKey, subject Account, op Opcode) error {
	instruction := sealevel.Instruction{
		ProgramId: programId,
		Accounts: []sealevel.AccountMeta{
			{Pubkey: subject.Key(), IsSigner: false, IsWritable: false},
			{Pubkey: programId, IsSigner: false, IsWritable: false},
		},
		Data: []byte{byte(op)},
	}
	return p.Invoker.NativeInvoke(instruction, nil)
}
