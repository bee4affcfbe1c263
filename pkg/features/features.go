// Package features tracks which runtime behaviours are switched on.
package features

import (
	"fmt"
	"sort"

	"go.firedancer.io/roprobe/pkg/base58"
)

type Features struct {
	enabled map[[32]byte]uint64
	names   map[[32]byte]string
}

func NewFeatures() *Features {
	return &Features{
		enabled: make(map[[32]byte]uint64),
		names:   make(map[[32]byte]string),
	}
}

// NewFeaturesDefault returns the feature set of a correct host, with every
// enforcement gate active from slot 0.
func NewFeaturesDefault() *Features {
	f := NewFeatures()
	for _, gate := range AllGates {
		f.EnableFeature(gate, 0)
	}
	return f
}

func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	if f.enabled == nil {
		f.enabled = make(map[[32]byte]uint64)
		f.names = make(map[[32]byte]string)
	}
	f.enabled[gate.Address] = slot
	f.names[gate.Address] = gate.Name
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.enabled, gate.Address)
	delete(f.names, gate.Address)
}

func (f *Features) IsActive(gate FeatureGate) bool {
	_, ok := f.enabled[gate.Address]
	return ok
}

// ActivationSlot returns the slot a gate was activated at.
func (f *Features) ActivationSlot(gate FeatureGate) (uint64, bool) {
	slot, ok := f.enabled[gate.Address]
	return slot, ok
}

// Clone returns an independent copy of the feature set.
func (f *Features) Clone() *Features {
	c := NewFeatures()
	for addr, slot := range f.enabled {
		c.enabled[addr] = slot
		c.names[addr] = f.names[addr]
	}
	return c
}

func (f *Features) AllEnabled() []string {
	var out []string
	for addr := range f.enabled {
		out = append(out, fmt.Sprintf("feature %s (%s) enabled", f.names[addr], base58.Encode(addr[:])))
	}
	sort.Strings(out)
	return out
}
