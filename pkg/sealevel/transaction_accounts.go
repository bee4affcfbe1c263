package sealevel

import (
	"go.firedancer.io/roprobe/pkg/accounts"
)

// TransactionAccounts holds the working copies of every account a
// transaction loads. Each account can be borrowed by at most one
// BorrowedAccount at a time.
type TransactionAccounts struct {
	Accounts []*accounts.Account
	Touched  []bool
	borrowed []bool
}

func NewTransactionAccounts(accts []accounts.Account) *TransactionAccounts {
	txAccounts := &TransactionAccounts{
		Accounts: make([]*accounts.Account, 0, len(accts)),
		Touched:  make([]bool, len(accts)),
		borrowed: make([]bool, len(accts)),
	}
	for i := range accts {
		txAccounts.Accounts = append(txAccounts.Accounts, accts[i].Clone())
	}
	return txAccounts
}

func (txAccounts *TransactionAccounts) GetAccount(idx uint64) (*accounts.Account, error) {
	if idx >= uint64(len(txAccounts.Accounts)) {
		return nil, InstrErrNotEnoughAccountKeys
	}
	return txAccounts.Accounts[idx], nil
}

func (txAccounts *TransactionAccounts) Touch(idx uint64) error {
	if idx >= uint64(len(txAccounts.Touched)) {
		return InstrErrNotEnoughAccountKeys
	}
	txAccounts.Touched[idx] = true
	return nil
}

// TouchedAccounts returns the accounts modified through a BorrowedAccount.
func (txAccounts *TransactionAccounts) TouchedAccounts() []*accounts.Account {
	var touched []*accounts.Account
	for idx, t := range txAccounts.Touched {
		if t {
			touched = append(touched, txAccounts.Accounts[idx])
		}
	}
	return touched
}

func (txAccounts *TransactionAccounts) borrow(idx uint64) (*accounts.Account, error) {
	acct, err := txAccounts.GetAccount(idx)
	if err != nil {
		return nil, err
	}
	if txAccounts.borrowed[idx] {
		return nil, InstrErrAccountBorrowFailed
	}
	txAccounts.borrowed[idx] = true
	return acct, nil
}

func (txAccounts *TransactionAccounts) release(idx uint64) {
	if idx < uint64(len(txAccounts.borrowed)) {
		txAccounts.borrowed[idx] = false
	}
}

func (txAccounts *TransactionAccounts) IsBorrowed(idx uint64) bool {
	return idx < uint64(len(txAccounts.borrowed)) && txAccounts.borrowed[idx]
}

func (txAccounts *TransactionAccounts) anyBorrowed() bool {
	for _, b := range txAccounts.borrowed {
		if b {
			return true
		}
	}
	return false
}
