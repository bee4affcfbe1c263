package romodify

import (
	"crypto/sha256"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/sealevel"
	"k8s.io/klog/v2"
)

// ProgramAddr is the address the native ro_account_modify program is
// registered at.
var ProgramAddr = programAddr("ro_account_modify")

func programAddr(name string) solana.PublicKey {
	h := sha256.Sum256([]byte(name))
	return solana.PublicKeyFromBytes(h[:])
}

func init() {
	sealevel.RegisterNativeProgram(ProgramAddr, Execute)
}

// Execute runs the processor as a native program on the current
// instruction frame of execCtx.
func Execute(execCtx *sealevel.ExecutionCtx) error {
	err := execCtx.ComputeMeter.Consume(sealevel.CURoModifyDefaultComputeUnits)
	if err != nil {
		return sealevel.InstrErrComputationalBudgetExceeded
	}

	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return err
	}

	accts := make([]Account, 0, instrCtx.NumberOfInstructionAccounts())
	for idx := uint64(0); idx < instrCtx.NumberOfInstructionAccounts(); idx++ {
		idxInTx, err := instrCtx.IndexOfInstructionAccountInTransaction(idx)
		if err != nil {
			return err
		}
		key, err := txCtx.KeyOfAccountAtIndex(idxInTx)
		if err != nil {
			return err
		}
		accts = append(accts, &instructionAccount{execCtx: execCtx, instrCtx: instrCtx, index: idx, key: key})
	}

	klog.V(3).Infof("ro_account_modify: %d accounts, data %x, height %d", len(accts), instrCtx.Data, execCtx.StackHeight())

	processor := Processor{Invoker: execCtx, Log: execCtx.Log}
	return processor.Process(programId, accts, instrCtx.Data)
}

// instructionAccount is an Account backed by an instruction account of the
// current frame. Every data access takes and drops its own borrow, so no
// borrow is held across a nested invocation.
type instructionAccount struct {
	execCtx  *sealevel.ExecutionCtx
	instrCtx *sealevel.InstructionCtx
	index    uint64
	key      solana.PublicKey
}

func (a *instructionAccount) Key() solana.PublicKey {
	return a.key
}

func (a *instructionAccount) IsSigner() bool {
	isSigner, err := a.instrCtx.IsInstructionAccountSigner(a.index)
	return err == nil && isSigner
}

func (a *instructionAccount) IsWritable() bool {
	isWritable, err := a.instrCtx.IsInstructionAccountWritable(a.index)
	return err == nil && isWritable
}

func (a *instructionAccount) DataByte(offset uint64) (byte, error) {
	acct, err := a.instrCtx.BorrowInstructionAccount(a.execCtx.TransactionContext, a.index)
	if err != nil {
		return 0, err
	}
	defer acct.Drop()

	data := acct.Data()
	if offset >= uint64(len(data)) {
		return 0, sealevel.InstrErrAccountDataTooSmall
	}
	return data[offset], nil
}

func (a *instructionAccount) SetDataByte(offset uint64, value byte) error {
	acct, err := a.instrCtx.BorrowInstructionAccount(a.execCtx.TransactionContext, a.index)
	if err != nil {
		return err
	}
	defer acct.Drop()

	return acct.SetDataByte(a.execCtx.Features(), offset, value)
}
