package accounts

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/lotusdblabs/lotusdb/v2"
	"go.firedancer.io/roprobe/pkg/base58"
)

// PersistentAccountsDb keeps account state on disk so that a run can be
// inspected after the process exits.
type PersistentAccountsDb struct {
	db *lotusdb.DB
}

func OpenAccountsDb(dir string) (*PersistentAccountsDb, error) {
	options := lotusdb.DefaultOptions
	options.DirPath = dir

	db, err := lotusdb.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening accounts db at %s: %w", dir, err)
	}

	return &PersistentAccountsDb{db: db}, nil
}

func (m *PersistentAccountsDb) Close() error {
	return m.db.Close()
}

func (m *PersistentAccountsDb) GetAccount(pubkey *[32]byte) (*Account, error) {
	acctBytes, err := m.db.Get(pubkey[:])
	if errors.Is(err, lotusdb.ErrKeyNotFound) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error whilst retrieving account %s: %w", base58.Encode(pubkey[:]), err)
	}

	decoder := bin.NewBinDecoder(acctBytes)
	acct := &Account{Key: *pubkey}

	err = acct.UnmarshalWithDecoder(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize account %s: %w", base58.Encode(pubkey[:]), err)
	}

	return acct, nil
}

func (m *PersistentAccountsDb) SetAccount(pubkey *[32]byte, acct *Account) error {
	writer := new(bytes.Buffer)
	encoder := bin.NewBinEncoder(writer)

	err := acct.MarshalWithEncoder(encoder)
	if err != nil {
		return fmt.Errorf("failed to serialize account %s: %w", base58.Encode(pubkey[:]), err)
	}

	err = m.db.Put(pubkey[:], writer.Bytes())
	if err != nil {
		return fmt.Errorf("error setting account for %s: %w", base58.Encode(pubkey[:]), err)
	}

	return nil
}
