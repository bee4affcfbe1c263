package cu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMeter_Consume(t *testing.T) {
	cm := NewComputeMeter(1000)
	require.NoError(t, cm.Consume(400))
	assert.Equal(t, uint64(600), cm.Remaining())
	assert.Equal(t, uint64(400), cm.Used())
	assert.False(t, cm.Exceeded())
}

func TestComputeMeter_Exceeded(t *testing.T) {
	cm := NewComputeMeter(100)
	err := cm.Consume(150)
	assert.ErrorIs(t, err, ErrComputeExceeded)
	assert.True(t, cm.Exceeded())
	assert.Equal(t, uint64(0), cm.Remaining())
	assert.Equal(t, uint64(100), cm.Used())

	// once exceeded, stays exceeded
	assert.ErrorIs(t, cm.Consume(0), ErrComputeExceeded)
}

func TestComputeMeter_Default(t *testing.T) {
	cm := NewComputeMeterDefault()
	assert.Equal(t, uint64(DefaultComputeUnitLimit), cm.Remaining())
}
