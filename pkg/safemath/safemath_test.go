package safemath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaturatingSubU64(t *testing.T) {
	assert.Equal(t, uint64(3), SaturatingSubU64(5, 2))
	assert.Equal(t, uint64(0), SaturatingSubU64(2, 5))
	assert.Equal(t, uint64(0), SaturatingSubU64(0, 0))
}

func TestSaturatingAddU64(t *testing.T) {
	assert.Equal(t, uint64(7), SaturatingAddU64(5, 2))
	assert.Equal(t, uint64(math.MaxUint64), SaturatingAddU64(math.MaxUint64, 1))
}
