package platform

import (
	"encoding/base64"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulDiv(t *testing.T) {
	assert.Equal(t, uint64(6), MulDiv(4, 3, 2))
	assert.Equal(t, uint64(3), MulDiv(7, 1, 2))
	assert.Zero(t, MulDiv(1, 1, 0))
	// a*b overflows 64 bits but the quotient fits
	assert.Equal(t, uint64(math.MaxUint64/2), MulDiv(math.MaxUint64, 1<<32, 1<<33))
	assert.Equal(t, uint64(math.MaxUint64), MulDiv(math.MaxUint64, 4, 2))
}

func TestConstantProductOut(t *testing.T) {
	assert.Equal(t, uint64(50), ConstantProductOut(100, 100, 100))
	assert.Zero(t, ConstantProductOut(100, 100, 0))
	assert.Zero(t, ConstantProductOut(100, 0, 10))
	assert.Zero(t, ConstantProductOut(math.MaxUint64, 100, 1))
	assert.Less(t, ConstantProductOut(1_000, 1_000, 1_000_000), uint64(1_000))
}

func TestFeeOf(t *testing.T) {
	assert.Equal(t, uint64(100), FeeOf(10_000, 100))
	assert.Equal(t, uint64(1), FeeOf(199, 100))
}

func TestCurveStateStatus(t *testing.T) {
	s := CurveState{TotalSupply: 1_000, AvailableBase: 250}
	assert.Equal(t, PreGraduation, s.Status())
	assert.InDelta(t, 75.0, s.CompletionPercent(), 1e-9)

	s.Complete = true
	assert.Equal(t, PostGraduation, s.Status())

	assert.Zero(t, CurveState{}.CompletionPercent())
}

func TestProgramData(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Create",
		"Program data: " + base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
		"Program data: !!!",
		"Program data: " + base64.StdEncoding.EncodeToString([]byte{4}),
	}
	assert.Equal(t, [][]byte{{1, 2, 3}, {4}}, ProgramData(logs))
	assert.True(t, ContainsLog(logs, "Instruction: Create"))
	assert.False(t, ContainsLog(logs, "Instruction: Buy"))
}
