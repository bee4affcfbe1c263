package sealevel

import (
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.firedancer.io/roprobe/pkg/base58"
)

const NativeLoaderAddrStr = "NativeLoader1111111111111111111111111111111"

var NativeLoaderAddr = solana.PublicKey(base58.MustDecodeFromString(NativeLoaderAddrStr))

type NativeProgramFn func(execCtx *ExecutionCtx) error

var (
	nativeProgramsMu sync.RWMutex
	nativePrograms   = make(map[solana.PublicKey]NativeProgramFn)
)

// RegisterNativeProgram makes fn executable as the program at programId.
// Accounts owned by the native loader with that key dispatch to it.
func RegisterNativeProgram(programId solana.PublicKey, fn NativeProgramFn) {
	nativeProgramsMu.Lock()
	defer nativeProgramsMu.Unlock()
	nativePrograms[programId] = fn
}

func resolveNativeProgramById(programId solana.PublicKey) (NativeProgramFn, error) {
	nativeProgramsMu.RLock()
	defer nativeProgramsMu.RUnlock()

	fn, ok := nativePrograms[programId]
	if !ok {
		return nil, InstrErrUnsupportedProgramId
	}
	return fn, nil
}
