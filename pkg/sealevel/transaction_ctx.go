package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

const (
	MaxInstructionStackDepth  = 5
	MaxInstructionTraceLength = 64
)

// TransactionCtx tracks the instruction frames of a single transaction.
// The trace always ends with one unconfigured frame, which the next
// Push activates.
type TransactionCtx struct {
	Accounts                 TransactionAccounts
	InstructionStackCapacity uint64
	InstructionTraceCapacity uint64
	instructionStack         []uint64
	instructionTrace         []InstructionCtx
}

func NewTransactionCtx(txAccts TransactionAccounts, instrStackCapacity uint64, instrTraceCapacity uint64) *TransactionCtx {
	// frames are handed out by pointer, so the trace must never reallocate
	trace := make([]InstructionCtx, 1, max(instrTraceCapacity, 1))
	return &TransactionCtx{
		Accounts:                 txAccts,
		InstructionStackCapacity: instrStackCapacity,
		InstructionTraceCapacity: instrTraceCapacity,
		instructionTrace:         trace,
	}
}

func NewTransactionCtxDefault(txAccts TransactionAccounts) *TransactionCtx {
	return NewTransactionCtx(txAccts, MaxInstructionStackDepth, MaxInstructionTraceLength)
}

func (txCtx *TransactionCtx) IndexOfAccount(pubkey solana.PublicKey) (uint64, error) {
	for idx, acct := range txCtx.Accounts.Accounts {
		if acct.Key == pubkey {
			return uint64(idx), nil
		}
	}
	return 0, InstrErrMissingAccount
}

func (txCtx *TransactionCtx) KeyOfAccountAtIndex(index uint64) (solana.PublicKey, error) {
	acct, err := txCtx.Accounts.GetAccount(index)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return acct.Key, nil
}

func (txCtx *TransactionCtx) InstructionTraceLength() uint64 {
	return uint64(len(txCtx.instructionTrace) - 1)
}

func (txCtx *TransactionCtx) InstructionCtxAtIndexInTrace(idxInTrace uint64) (*InstructionCtx, error) {
	if idxInTrace >= uint64(len(txCtx.instructionTrace)) {
		return nil, InstrErrCallDepth
	}
	return &txCtx.instructionTrace[idxInTrace], nil
}

func (txCtx *TransactionCtx) InstructionCtxStackHeight() uint64 {
	return uint64(len(txCtx.instructionStack))
}

func (txCtx *TransactionCtx) InstructionCtxAtNestingLevel(nestingLevel uint64) (*InstructionCtx, error) {
	if nestingLevel >= uint64(len(txCtx.instructionStack)) {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtIndexInTrace(txCtx.instructionStack[nestingLevel])
}

func (txCtx *TransactionCtx) CurrentInstructionCtx() (*InstructionCtx, error) {
	if len(txCtx.instructionStack) == 0 {
		return nil, InstrErrCallDepth
	}
	return txCtx.InstructionCtxAtNestingLevel(uint64(len(txCtx.instructionStack) - 1))
}

func (txCtx *TransactionCtx) NextInstructionCtx() (*InstructionCtx, error) {
	return &txCtx.instructionTrace[len(txCtx.instructionTrace)-1], nil
}

// Push activates the frame returned by NextInstructionCtx.
func (txCtx *TransactionCtx) Push() error {
	nestingLevel := txCtx.InstructionCtxStackHeight()
	indexInTrace := txCtx.InstructionTraceLength()

	if uint64(len(txCtx.instructionTrace)) >= txCtx.InstructionTraceCapacity {
		return InstrErrMaxInstructionTraceLengthExceeded
	}
	if nestingLevel >= txCtx.InstructionStackCapacity {
		return InstrErrCallDepth
	}

	txCtx.instructionTrace[indexInTrace].NestingLevel = nestingLevel
	txCtx.instructionTrace = append(txCtx.instructionTrace, InstructionCtx{})
	txCtx.instructionStack = append(txCtx.instructionStack, indexInTrace)
	return nil
}

// Pop deactivates the current frame. A frame may not return while any
// account is still borrowed.
func (txCtx *TransactionCtx) Pop() error {
	if len(txCtx.instructionStack) == 0 {
		return InstrErrCallDepth
	}
	txCtx.instructionStack = txCtx.instructionStack[:len(txCtx.instructionStack)-1]
	if txCtx.Accounts.anyBorrowed() {
		return InstrErrAccountBorrowOutstanding
	}
	return nil
}
