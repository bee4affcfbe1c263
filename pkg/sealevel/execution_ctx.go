package sealevel

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/cu"
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/global"
	"k8s.io/klog/v2"
)

type ExecutionCtx struct {
	Log                Logger
	TransactionContext *TransactionCtx
	GlobalCtx          global.GlobalCtx
	ComputeMeter       cu.ComputeMeter
}

func (execCtx *ExecutionCtx) Features() features.Features {
	return execCtx.GlobalCtx.Features
}

func (execCtx *ExecutionCtx) log(msg string) {
	if execCtx.Log != nil {
		execCtx.Log.Log(msg)
	}
}

func (execCtx *ExecutionCtx) PrepareInstruction(ix Instruction, signers []solana.PublicKey) ([]InstructionAccount, []uint64, error) {
	txCtx := execCtx.TransactionContext

	ixCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, nil, err
	}

	dedupInstructionAccounts := make([]InstructionAccount, 0)
	duplicateIndices := make([]uint64, 0)

	for instructionAcctIndex, accountMeta := range ix.Accounts {
		indexInTx, err := txCtx.IndexOfAccount(accountMeta.Pubkey)
		if err != nil {
			klog.Errorf("instruction references unknown account %s", accountMeta.Pubkey)
			return nil, nil, err
		}

		duplicateIndex := -1
		for index, instrAcct := range dedupInstructionAccounts {
			if instrAcct.IndexInTransaction == indexInTx {
				duplicateIndex = index
				break
			}
		}

		if duplicateIndex != -1 {
			duplicateIndices = append(duplicateIndices, uint64(duplicateIndex))
			dedupInstructionAccounts[duplicateIndex].IsSigner = dedupInstructionAccounts[duplicateIndex].IsSigner || accountMeta.IsSigner
			dedupInstructionAccounts[duplicateIndex].IsWritable = dedupInstructionAccounts[duplicateIndex].IsWritable || accountMeta.IsWritable
		} else {
			indexInCaller, err := ixCtx.IndexOfInstructionAccount(txCtx, accountMeta.Pubkey)
			if err != nil {
				klog.Errorf("instruction account %s missing from caller", accountMeta.Pubkey)
				return nil, nil, err
			}
			duplicateIndices = append(duplicateIndices, uint64(len(dedupInstructionAccounts)))

			dedupInstructionAccounts = append(dedupInstructionAccounts, InstructionAccount{
				IndexInTransaction: indexInTx,
				IndexInCaller:      indexInCaller,
				IndexInCallee:      uint64(instructionAcctIndex),
				IsSigner:           accountMeta.IsSigner,
				IsWritable:         accountMeta.IsWritable,
			})
		}
	}

	privilegeChecks := execCtx.GlobalCtx.Features.IsActive(features.CpiPrivilegeChecks)

	for i := range dedupInstructionAccounts {
		instructionAcct := &dedupInstructionAccounts[i]

		borrowedAcct, err := ixCtx.BorrowInstructionAccount(txCtx, instructionAcct.IndexInCaller)
		if err != nil {
			return nil, nil, err
		}

		if !privilegeChecks {
			// emulated host fault: callee privileges are not derived from the caller
			klog.V(2).Infof("granting write access to %s in callee", borrowedAcct.Key())
			instructionAcct.IsWritable = true
			borrowedAcct.Drop()
			continue
		}

		// "Read-only in caller cannot become writable in callee"
		if instructionAcct.IsWritable && !borrowedAcct.IsWritable() {
			klog.Errorf("%s: writable privilege escalated", borrowedAcct.Key())
			borrowedAcct.Drop()
			return nil, nil, InstrErrPrivilegeEscalation
		}

		// "To be signed in the callee,
		// it must be either signed in the caller or by the program"
		presentInSigners := false
		for _, addr := range signers {
			if addr == borrowedAcct.Key() {
				presentInSigners = true
				break
			}
		}
		if instructionAcct.IsSigner && !(borrowedAcct.IsSigner() || presentInSigners) {
			klog.Errorf("%s: signer privilege escalated", borrowedAcct.Key())
			borrowedAcct.Drop()
			return nil, nil, InstrErrPrivilegeEscalation
		}
		borrowedAcct.Drop()
	}

	instructionAccounts := make([]InstructionAccount, 0, len(duplicateIndices))
	for _, duplicateIndex := range duplicateIndices {
		instructionAccounts = append(instructionAccounts, dedupInstructionAccounts[duplicateIndex])
	}

	// "Find and validate executables / program accounts"
	calleeProgramId := ix.ProgramId
	programAcctIdx, err := ixCtx.IndexOfInstructionAccount(txCtx, calleeProgramId)
	if err != nil {
		klog.Errorf("unknown program %s", calleeProgramId)
		return nil, nil, err
	}

	borrowedProgramAcct, err := ixCtx.BorrowInstructionAccount(txCtx, programAcctIdx)
	if err != nil {
		return nil, nil, err
	}
	defer borrowedProgramAcct.Drop()

	if !borrowedProgramAcct.IsExecutable() {
		klog.Errorf("account %s is not executable", calleeProgramId)
		return nil, nil, InstrErrAccountNotExecutable
	}

	return instructionAccounts, []uint64{borrowedProgramAcct.IndexInTransaction}, nil
}

func (execCtx *ExecutionCtx) ProcessInstruction(instrData []byte, instructionAccts []InstructionAccount, programIndices []uint64) error {
	nextInstrCtx, err := execCtx.TransactionContext.NextInstructionCtx()
	if err != nil {
		return err
	}

	nextInstrCtx.Configure(programIndices, instructionAccts, instrData)

	var snapshots map[uint64][]byte
	if execCtx.GlobalCtx.Features.IsActive(features.ReadonlyPostVerify) {
		snapshots = execCtx.snapshotReadonlyAccounts(instructionAccts)
	}

	err = execCtx.Push()
	if err != nil {
		return err
	}

	err1 := execCtx.ExecuteInstruction()
	if err1 == nil {
		err1 = execCtx.verifyReadonlyAccounts(snapshots)
	}

	err2 := execCtx.Pop()

	if err1 != nil {
		return err1
	} else if err2 != nil {
		return err2
	}

	return nil
}

// snapshotReadonlyAccounts copies the data of every account that is
// read-only in all of its positions in the instruction.
func (execCtx *ExecutionCtx) snapshotReadonlyAccounts(instructionAccts []InstructionAccount) map[uint64][]byte {
	writable := make(map[uint64]bool)
	for _, instrAcct := range instructionAccts {
		writable[instrAcct.IndexInTransaction] = writable[instrAcct.IndexInTransaction] || instrAcct.IsWritable
	}

	snapshots := make(map[uint64][]byte)
	for idx, isWritable := range writable {
		if isWritable {
			continue
		}
		acct, err := execCtx.TransactionContext.Accounts.GetAccount(idx)
		if err != nil {
			continue
		}
		snapshots[idx] = bytes.Clone(acct.Data)
	}
	return snapshots
}

func (execCtx *ExecutionCtx) verifyReadonlyAccounts(snapshots map[uint64][]byte) error {
	for idx, pre := range snapshots {
		acct, err := execCtx.TransactionContext.Accounts.GetAccount(idx)
		if err != nil {
			return err
		}
		if !bytes.Equal(pre, acct.Data) {
			klog.Errorf("read-only account %s modified", acct.Key)
			return InstrErrReadonlyDataModified
		}
	}
	return nil
}

func (execCtx *ExecutionCtx) ExecuteInstruction() error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}

	programAcct, err := instrCtx.BorrowLastProgramAccount(txCtx)
	if err != nil {
		klog.Infof("BorrowLastProgramAccount failed: %s", err)
		return InstrErrUnsupportedProgramId
	}
	programId := programAcct.Key()
	ownerId := programAcct.Owner()
	programAcct.Drop()

	var builtinId solana.PublicKey
	if ownerId == NativeLoaderAddr {
		builtinId = programId
	} else {
		builtinId = ownerId
	}

	klog.V(2).Infof("resolving native program (%s)", builtinId)
	nativeProgramFn, err := resolveNativeProgramById(builtinId)
	if err != nil {
		return err
	}

	execCtx.log(fmt.Sprintf("Program %s invoke [%d]", programId, execCtx.StackHeight()))
	err = nativeProgramFn(execCtx)
	if err != nil {
		execCtx.log(fmt.Sprintf("Program %s failed: %s", programId, err))
	} else {
		execCtx.log(fmt.Sprintf("Program %s success", programId))
	}

	return err
}

// Push activates the next frame. A program already on the stack may only
// be re-entered by itself, directly.
func (execCtx *ExecutionCtx) Push() error {
	txCtx := execCtx.TransactionContext

	instrCtx, err := txCtx.InstructionCtxAtIndexInTrace(txCtx.InstructionTraceLength())
	if err != nil {
		return err
	}

	programId, err := instrCtx.LastProgramKey(txCtx)
	if err != nil {
		return InstrErrUnsupportedProgramId
	}

	if txCtx.InstructionCtxStackHeight() != 0 {
		var contains bool
		for level := uint64(0); level < txCtx.InstructionCtxStackHeight(); level++ {
			ic, err := txCtx.InstructionCtxAtNestingLevel(level)
			if err != nil {
				continue
			}
			key, err := ic.LastProgramKey(txCtx)
			if err == nil && key == programId {
				contains = true
				break
			}
		}

		current, err := txCtx.CurrentInstructionCtx()
		if err != nil {
			return err
		}
		currentKey, err := current.LastProgramKey(txCtx)
		isLast := err == nil && currentKey == programId

		if contains && !isLast {
			return InstrErrReentrancyNotAllowed
		}
	}

	return txCtx.Push()
}

func (execCtx *ExecutionCtx) Pop() error {
	return execCtx.TransactionContext.Pop()
}

func (execCtx *ExecutionCtx) StackHeight() uint64 {
	return execCtx.TransactionContext.InstructionCtxStackHeight()
}

// NativeInvoke executes instruction as a cross-program invocation from the
// current frame.
func (execCtx *ExecutionCtx) NativeInvoke(instruction Instruction, signers []solana.PublicKey) error {
	klog.V(2).Infof("NativeInvoke %s at height %d", instruction.ProgramId, execCtx.StackHeight())

	err := execCtx.ComputeMeter.Consume(CUInvokeUnits)
	if err != nil {
		return InstrErrComputationalBudgetExceeded
	}

	instrAccts, programIndices, err := execCtx.PrepareInstruction(instruction, signers)
	if err != nil {
		return err
	}

	return execCtx.ProcessInstruction(instruction.Data, instrAccts, programIndices)
}
