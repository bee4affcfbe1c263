package sealevel

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.firedancer.io/roprobe/pkg/accounts"
	"go.firedancer.io/roprobe/pkg/cu"
	"go.firedancer.io/roprobe/pkg/features"
)

func testProgramAddr(name string) solana.PublicKey {
	h := sha256.Sum256([]byte("sealevel-test/" + name))
	return solana.PublicKeyFromBytes(h[:])
}

var (
	testWriterAddr       = testProgramAddr("writer")
	testRawWriterAddr    = testProgramAddr("raw-writer")
	testLeakyAddr        = testProgramAddr("leaky")
	testDoubleBorrowAddr = testProgramAddr("double-borrow")
	testInvokerAddr      = testProgramAddr("invoker")
	testBouncerAddr      = testProgramAddr("bouncer")
)

// invoker modes, selected by the first instruction data byte
const (
	invokeReadonly byte = iota
	invokeWritable
	invokeHoldingBorrow
	invokeUnlisted
	invokeSelf
	invokeBouncer
)

func init() {
	RegisterNativeProgram(testWriterAddr, testWriterProgram)
	RegisterNativeProgram(testRawWriterAddr, testRawWriterProgram)
	RegisterNativeProgram(testLeakyAddr, testLeakyProgram)
	RegisterNativeProgram(testDoubleBorrowAddr, testDoubleBorrowProgram)
	RegisterNativeProgram(testInvokerAddr, testInvokerProgram)
	RegisterNativeProgram(testBouncerAddr, testBouncerProgram)
}

// testWriterProgram stores the first instruction data byte into the first
// byte of instruction account 0.
func testWriterProgram(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer acct.Drop()
	return acct.SetDataByte(execCtx.Features(), 0, instrCtx.Data[0])
}

// testRawWriterProgram writes past the runtime's write gate.
func testRawWriterProgram(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer acct.Drop()
	acct.Account.Data[0] = instrCtx.Data[0]
	return nil
}

func testLeakyProgram(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	_, err = instrCtx.BorrowInstructionAccount(txCtx, 0)
	return err
}

func testDoubleBorrowProgram(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	first, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	defer first.Drop()
	second, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
	if err != nil {
		return err
	}
	second.Drop()
	return nil
}

func callerMetas(execCtx *ExecutionCtx) ([]AccountMeta, error) {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return nil, err
	}
	var metas []AccountMeta
	for _, instrAcct := range instrCtx.InstructionAccounts {
		key, err := txCtx.KeyOfAccountAtIndex(instrAcct.IndexInTransaction)
		if err != nil {
			return nil, err
		}
		metas = append(metas, AccountMeta{Pubkey: key, IsSigner: instrAcct.IsSigner, IsWritable: instrAcct.IsWritable})
	}
	return metas, nil
}

func testInvokerProgram(execCtx *ExecutionCtx) error {
	txCtx := execCtx.TransactionContext
	instrCtx, err := txCtx.CurrentInstructionCtx()
	if err != nil {
		return err
	}
	idx, err := instrCtx.IndexOfInstructionAccountInTransaction(0)
	if err != nil {
		return err
	}
	subject, err := txCtx.KeyOfAccountAtIndex(idx)
	if err != nil {
		return err
	}

	writeOne := Instruction{
		ProgramId: testWriterAddr,
		Accounts:  []AccountMeta{{Pubkey: subject}, {Pubkey: testWriterAddr}},
		Data:      []byte{1},
	}

	switch instrCtx.Data[0] {
	case invokeReadonly:
		return execCtx.NativeInvoke(writeOne, nil)
	case invokeWritable:
		writeOne.Accounts[0].IsWritable = true
		return execCtx.NativeInvoke(writeOne, nil)
	case invokeHoldingBorrow:
		acct, err := instrCtx.BorrowInstructionAccount(txCtx, 0)
		if err != nil {
			return err
		}
		defer acct.Drop()
		return execCtx.NativeInvoke(writeOne, nil)
	case invokeUnlisted:
		writeOne.ProgramId = testRawWriterAddr
		writeOne.Accounts = writeOne.Accounts[:1]
		return execCtx.NativeInvoke(writeOne, nil)
	case invokeSelf, invokeBouncer:
		metas, err := callerMetas(execCtx)
		if err != nil {
			return err
		}
		programId := testInvokerAddr
		if instrCtx.Data[0] == invokeBouncer {
			programId = testBouncerAddr
		}
		return execCtx.NativeInvoke(Instruction{ProgramId: programId, Accounts: metas, Data: []byte{invokeSelf}}, nil)
	}
	return InstrErrInvalidInstructionData
}

// testBouncerProgram calls back into the invoker that called it.
func testBouncerProgram(execCtx *ExecutionCtx) error {
	metas, err := callerMetas(execCtx)
	if err != nil {
		return err
	}
	return execCtx.NativeInvoke(Instruction{ProgramId: testInvokerAddr, Accounts: metas, Data: []byte{invokeReadonly}}, nil)
}

func programAccount(addr solana.PublicKey) accounts.Account {
	return accounts.Account{Key: addr, Owner: NativeLoaderAddr, Executable: true, Lamports: 1}
}

func newSubjectAccount(t *testing.T, owner solana.PublicKey, data ...byte) accounts.Account {
	privKey, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return accounts.Account{Key: privKey.PublicKey(), Owner: owner, Data: data, Lamports: 1}
}

func newTestExecCtx(f *features.Features, accts ...accounts.Account) (*ExecutionCtx, *LogRecorder) {
	log := new(LogRecorder)
	txAccts := NewTransactionAccounts(accts)
	execCtx := &ExecutionCtx{
		Log:                log,
		TransactionContext: NewTransactionCtxDefault(*txAccts),
		ComputeMeter:       cu.NewComputeMeterDefault(),
	}
	execCtx.GlobalCtx.Features = *f
	return execCtx, log
}

func runTopLevel(execCtx *ExecutionCtx, programId solana.PublicKey, metas []AccountMeta, data []byte) error {
	txCtx := execCtx.TransactionContext
	instrAccts := InstructionAcctsFromAccountMetas(metas, txCtx.Accounts)
	programIdx, err := txCtx.IndexOfAccount(programId)
	if err != nil {
		return err
	}
	return execCtx.ProcessInstruction(data, instrAccts, []uint64{programIdx})
}

func featuresWithout(gates ...features.FeatureGate) *features.Features {
	f := features.NewFeaturesDefault()
	for _, gate := range gates {
		f.DisableFeature(gate)
	}
	return f
}

func subjectByte(t *testing.T, execCtx *ExecutionCtx, key solana.PublicKey) byte {
	idx, err := execCtx.TransactionContext.IndexOfAccount(key)
	require.NoError(t, err)
	acct, err := execCtx.TransactionContext.Accounts.GetAccount(idx)
	require.NoError(t, err)
	return acct.Data[0]
}
