package sealevel

import "errors"

// instruction errors
var (
	InstrErrInvalidInstructionData            = errors.New("InstrErrInvalidInstructionData")
	InstrErrAccountDataTooSmall               = errors.New("InstrErrAccountDataTooSmall")
	InstrErrExternalAccountDataModified       = errors.New("InstrErrExternalAccountDataModified")
	InstrErrReadonlyDataModified              = errors.New("InstrErrReadonlyDataModified")
	InstrErrNotEnoughAccountKeys              = errors.New("InstrErrNotEnoughAccountKeys")
	InstrErrAccountNotExecutable              = errors.New("InstrErrAccountNotExecutable")
	InstrErrAccountBorrowFailed               = errors.New("InstrErrAccountBorrowFailed")
	InstrErrAccountBorrowOutstanding          = errors.New("InstrErrAccountBorrowOutstanding")
	InstrErrExecutableDataModified            = errors.New("InstrErrExecutableDataModified")
	InstrErrUnsupportedProgramId              = errors.New("InstrErrUnsupportedProgramId")
	InstrErrCallDepth                         = errors.New("InstrErrCallDepth")
	InstrErrMissingAccount                    = errors.New("InstrErrMissingAccount")
	InstrErrReentrancyNotAllowed              = errors.New("InstrErrReentrancyNotAllowed")
	InstrErrComputationalBudgetExceeded       = errors.New("InstrErrComputationalBudgetExceeded")
	InstrErrPrivilegeEscalation               = errors.New("InstrErrPrivilegeEscalation")
	InstrErrMaxInstructionTraceLengthExceeded = errors.New("InstrErrMaxInstructionTraceLengthExceeded")
)

// instruction errors - Solana numerical error codes, offset by one so that
// zero means success
const (
	InstrErrCodeSuccess                           = 0
	InstrErrCodeInvalidInstructionData            = 3
	InstrErrCodeAccountDataTooSmall               = 5
	InstrErrCodeExternalAccountDataModified       = 14
	InstrErrCodeReadonlyDataModified              = 16
	InstrErrCodeNotEnoughAccountKeys              = 20
	InstrErrCodeAccountNotExecutable              = 22
	InstrErrCodeAccountBorrowFailed               = 23
	InstrErrCodeAccountBorrowOutstanding          = 24
	InstrErrCodeExecutableDataModified            = 28
	InstrErrCodeUnsupportedProgramId              = 31
	InstrErrCodeCallDepth                         = 32
	InstrErrCodeMissingAccount                    = 33
	InstrErrCodeReentrancyNotAllowed              = 34
	InstrErrCodeComputationalBudgetExceeded       = 38
	InstrErrCodePrivilegeEscalation               = 39
	InstrErrCodeProgramFailedToComplete           = 41
	InstrErrCodeMaxInstructionTraceLengthExceeded = 52
)

var instrErrCodes = []struct {
	err  error
	code int
}{
	{InstrErrInvalidInstructionData, InstrErrCodeInvalidInstructionData},
	{InstrErrAccountDataTooSmall, InstrErrCodeAccountDataTooSmall},
	{InstrErrExternalAccountDataModified, InstrErrCodeExternalAccountDataModified},
	{InstrErrReadonlyDataModified, InstrErrCodeReadonlyDataModified},
	{InstrErrNotEnoughAccountKeys, InstrErrCodeNotEnoughAccountKeys},
	{InstrErrAccountNotExecutable, InstrErrCodeAccountNotExecutable},
	{InstrErrAccountBorrowFailed, InstrErrCodeAccountBorrowFailed},
	{InstrErrAccountBorrowOutstanding, InstrErrCodeAccountBorrowOutstanding},
	{InstrErrExecutableDataModified, InstrErrCodeExecutableDataModified},
	{InstrErrUnsupportedProgramId, InstrErrCodeUnsupportedProgramId},
	{InstrErrCallDepth, InstrErrCodeCallDepth},
	{InstrErrMissingAccount, InstrErrCodeMissingAccount},
	{InstrErrReentrancyNotAllowed, InstrErrCodeReentrancyNotAllowed},
	{InstrErrComputationalBudgetExceeded, InstrErrCodeComputationalBudgetExceeded},
	{InstrErrPrivilegeEscalation, InstrErrCodePrivilegeEscalation},
	{InstrErrMaxInstructionTraceLengthExceeded, InstrErrCodeMaxInstructionTraceLengthExceeded},
}

// InstrErrCode translates an instruction result into its numerical code.
// Errors raised by a program itself rather than by the runtime are
// reported as a program that failed to complete.
func InstrErrCode(err error) int {
	if err == nil {
		return InstrErrCodeSuccess
	}
	for _, e := range instrErrCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return InstrErrCodeProgramFailedToComplete
}
