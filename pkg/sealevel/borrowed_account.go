package sealevel

import (
	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/accounts"
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/safemath"
)

// BorrowedAccount is an exclusive borrow of a transaction account, taken
// on behalf of one instruction frame. It must be dropped before the frame
// invokes another program or returns.
type BorrowedAccount struct {
	TxCtx              *TransactionCtx
	InstrCtx           *InstructionCtx
	IndexInTransaction uint64
	IndexInInstruction uint64
	Account            *accounts.Account
	dropped            bool
}

func (acct *BorrowedAccount) Key() solana.PublicKey {
	return acct.Account.Key
}

func (acct *BorrowedAccount) Owner() solana.PublicKey {
	return acct.Account.Owner
}

func (acct *BorrowedAccount) Data() []byte {
	return acct.Account.Data
}

func (acct *BorrowedAccount) Touch() error {
	return acct.TxCtx.Accounts.Touch(acct.IndexInTransaction)
}

// DataMutable returns the account data for in-place modification, after
// checking that this frame may change it.
func (acct *BorrowedAccount) DataMutable(f features.Features) ([]byte, error) {
	if acct.dropped {
		return nil, InstrErrAccountBorrowFailed
	}
	err := acct.DataCanBeChanged(f)
	if err != nil {
		return nil, err
	}
	err = acct.Touch()
	if err != nil {
		return nil, err
	}
	return acct.Account.Data, nil
}

func (acct *BorrowedAccount) SetDataByte(f features.Features, offset uint64, value byte) error {
	data, err := acct.DataMutable(f)
	if err != nil {
		return err
	}
	if offset >= uint64(len(data)) {
		return InstrErrAccountDataTooSmall
	}
	data[offset] = value
	return nil
}

func (acct *BorrowedAccount) IsSigner() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	isSigner, err := instrCtx.IsInstructionAccountSigner(instrAcctIdx)
	if err != nil {
		return false
	}
	return isSigner
}

func (acct *BorrowedAccount) IsWritable() bool {
	instrCtx := acct.InstrCtx
	if acct.IndexInInstruction < instrCtx.NumberOfProgramAccounts() {
		return false
	}

	instrAcctIdx := safemath.SaturatingSubU64(acct.IndexInInstruction, instrCtx.NumberOfProgramAccounts())
	writable, err := instrCtx.IsInstructionAccountWritable(instrAcctIdx)
	if err != nil {
		return false
	}
	return writable
}

func (acct *BorrowedAccount) IsExecutable() bool {
	return acct.Account.Executable
}

func (acct *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	lastProgramKey, err := acct.InstrCtx.LastProgramKey(acct.TxCtx)
	if err != nil {
		return false
	}
	return lastProgramKey == acct.Owner()
}

// DataCanBeChanged applies the runtime's write rules in a fixed order. The
// writable check precedes the ownership check so that a write through a
// read-only handle always reports InstrErrReadonlyDataModified.
func (acct *BorrowedAccount) DataCanBeChanged(f features.Features) error {
	if acct.IsExecutable() {
		return InstrErrExecutableDataModified
	}
	if !acct.IsWritable() && f.IsActive(features.ReadonlyWriteGate) {
		return InstrErrReadonlyDataModified
	}
	if !acct.IsOwnedByCurrentProgram() {
		return InstrErrExternalAccountDataModified
	}
	return nil
}

// Drop releases the borrow. Dropping twice is a no-op.
func (acct *BorrowedAccount) Drop() {
	if acct.dropped {
		return
	}
	acct.dropped = true
	acct.TxCtx.Accounts.release(acct.IndexInTransaction)
}
