package accounts

import (
	"github.com/cespare/xxhash/v2"
	cmap "github.com/orcaman/concurrent-map/v2"
)

type MemAccounts struct {
	Map cmap.ConcurrentMap[[32]byte, *Account]
}

func shardPubkey(pubkey [32]byte) uint32 {
	return uint32(xxhash.Sum64(pubkey[:]))
}

func NewMemAccounts() MemAccounts {
	return MemAccounts{
		Map: cmap.NewWithCustomShardingFunction[[32]byte, *Account](shardPubkey),
	}
}

// GetAccount returns a copy of the stored account.
func (m MemAccounts) GetAccount(pubkey *[32]byte) (*Account, error) {
	acct, ok := m.Map.Get(*pubkey)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acct.Clone(), nil
}

func (m MemAccounts) SetAccount(pubkey *[32]byte, acc *Account) error {
	m.Map.Set(*pubkey, acc.Clone())
	return nil
}
