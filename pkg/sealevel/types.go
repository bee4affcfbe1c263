package sealevel

import (
	"github.com/gagliardetto/solana-go"
)

type Instruction struct {
	Accounts  []AccountMeta
	Data      []byte
	ProgramId solana.PublicKey
}

type AccountMeta struct {
	Pubkey     solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

type InstructionAccount struct {
	IndexInTransaction uint64
	IndexInCaller      uint64
	IndexInCallee      uint64
	IsSigner           bool
	IsWritable         bool
}

// InstructionAcctsFromAccountMetas resolves top-level account metas against
// the transaction's accounts. Metas naming an account outside the
// transaction resolve to an out-of-range index and fail on first borrow.
func InstructionAcctsFromAccountMetas(instrAcctMetas []AccountMeta, txAccounts TransactionAccounts) []InstructionAccount {
	instrAccts := make([]InstructionAccount, 0, len(instrAcctMetas))

	for instrAcctIdx, accountMeta := range instrAcctMetas {
		idxInTx := uint64(len(txAccounts.Accounts))
		for pos, acct := range txAccounts.Accounts {
			if acct.Key == accountMeta.Pubkey {
				idxInTx = uint64(pos)
				break
			}
		}

		idxInCallee := uint64(instrAcctIdx)
		for pos, instrAcct := range instrAccts {
			if instrAcct.IndexInTransaction == idxInTx {
				idxInCallee = uint64(pos)
				break
			}
		}

		instrAccts = append(instrAccts, InstructionAccount{
			IndexInTransaction: idxInTx,
			IndexInCaller:      idxInTx,
			IndexInCallee:      idxInCallee,
			IsSigner:           accountMeta.IsSigner,
			IsWritable:         accountMeta.IsWritable,
		})
	}

	return instrAccts
}
