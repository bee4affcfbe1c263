package features

import (
	"crypto/sha256"
)

type FeatureGate struct {
	Name    string
	Address [32]byte
}

func newGate(name string) FeatureGate {
	return FeatureGate{Name: name, Address: sha256.Sum256([]byte("roprobe/feature/" + name))}
}

// Runtime enforcement switches. All are active on a correct host; the
// harness deactivates them to emulate a host with a broken read-only check.
var (
	// ReadonlyWriteGate rejects mutable data access through a handle
	// whose writable flag is clear.
	ReadonlyWriteGate = newGate("ReadonlyWriteGate")

	// ReadonlyPostVerify compares read-only instruction accounts before
	// and after an instruction and rejects any data change.
	ReadonlyPostVerify = newGate("ReadonlyPostVerify")

	// CpiPrivilegeChecks carries caller privileges into a cross-program
	// invocation instead of granting write access to every callee account.
	CpiPrivilegeChecks = newGate("CpiPrivilegeChecks")
)

var AllGates = []FeatureGate{ReadonlyWriteGate, ReadonlyPostVerify, CpiPrivilegeChecks}

func GateByName(name string) (FeatureGate, bool) {
	for _, gate := range AllGates {
		if gate.Name == name {
			return gate, true
		}
	}
	return FeatureGate{}, false
}
