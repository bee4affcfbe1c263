package accounts

import (
	"bytes"
	"sync"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandomAccount(t *testing.T) *Account {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	owner, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return &Account{Key: key.PublicKey(), Lamports: 1000, Data: []byte{0, 1, 2}, Owner: owner.PublicKey(), RentEpoch: 3}
}

func TestAccount_Codec(t *testing.T) {
	acct := newRandomAccount(t)
	acct.Executable = true

	buf := new(bytes.Buffer)
	require.NoError(t, acct.MarshalWithEncoder(bin.NewBinEncoder(buf)))

	decoded := Account{Key: acct.Key}
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes())))
	assert.Equal(t, *acct, decoded)
}

func TestAccount_DecodeTruncatedData(t *testing.T) {
	acct := newRandomAccount(t)
	buf := new(bytes.Buffer)
	require.NoError(t, acct.MarshalWithEncoder(bin.NewBinEncoder(buf)))

	// lamports, data length, then one of three data bytes
	var decoded Account
	err := decoded.UnmarshalWithDecoder(bin.NewBinDecoder(buf.Bytes()[:17]))
	assert.Error(t, err)
}

func TestAccount_Clone(t *testing.T) {
	acct := newRandomAccount(t)
	c := acct.Clone()
	c.Data[0] = 0xff
	assert.Equal(t, byte(0), acct.Data[0])
}

func TestMemAccounts_GetSet(t *testing.T) {
	store := NewMemAccounts()
	acct := newRandomAccount(t)
	pk := [32]byte(acct.Key)

	_, err := store.GetAccount(&pk)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	require.NoError(t, store.SetAccount(&pk, acct))
	acct.Data[0] = 9 // store holds its own copy

	got, err := store.GetAccount(&pk)
	require.NoError(t, err)
	assert.Equal(t, byte(0), got.Data[0])

	got.Data[1] = 9 // and hands out copies
	again, err := store.GetAccount(&pk)
	require.NoError(t, err)
	assert.Equal(t, byte(1), again.Data[1])
}

func TestMemAccounts_Concurrent(t *testing.T) {
	store := NewMemAccounts()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key, err := solana.NewRandomPrivateKey()
			if !assert.NoError(t, err) {
				return
			}
			acct := &Account{Key: key.PublicKey(), Data: []byte{0}}
			pk := [32]byte(acct.Key)
			assert.NoError(t, store.SetAccount(&pk, acct))
			_, err = store.GetAccount(&pk)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, store.Map.Count())
}

func TestPersistentAccountsDb_GetSet(t *testing.T) {
	db, err := OpenAccountsDb(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	acct := newRandomAccount(t)
	pk := [32]byte(acct.Key)
	require.NoError(t, db.SetAccount(&pk, acct))

	got, err := db.GetAccount(&pk)
	require.NoError(t, err)
	assert.Equal(t, acct, got)

	missing := [32]byte(newRandomAccount(t).Key)
	got, err = db.GetAccount(&missing)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Nil(t, got)
}
