package fee

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSampler struct {
	samples []Sample
	err     error
	calls   int
}

func (f *fakeSampler) RecentPrioritizationFees(context.Context, []solana.PublicKey) ([]Sample, error) {
	f.calls++
	return append([]Sample(nil), f.samples...), f.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestFixed(t *testing.T) {
	v, ok := Fixed{Price: 5_000}.Fee(context.Background())
	assert.True(t, ok)
	assert.Equal(t, uint64(5_000), v)

	_, ok = Fixed{}.Fee(context.Background())
	assert.False(t, ok)
}

func TestDynamic_MedianOfRecentWindow(t *testing.T) {
	sampler := &fakeSampler{samples: []Sample{
		{Slot: 1, Fee: 1_000_000}, // outside the window
		{Slot: 5, Fee: 300},
		{Slot: 4, Fee: 100},
		{Slot: 3, Fee: 200},
	}}
	d := NewDynamic(sampler, DynamicConfig{Window: 3}, quietLogger())

	v, ok := d.Fee(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(200), v)
}

func TestDynamic_PercentileMultiplierCap(t *testing.T) {
	sampler := &fakeSampler{samples: []Sample{
		{Slot: 1, Fee: 100}, {Slot: 2, Fee: 200}, {Slot: 3, Fee: 300}, {Slot: 4, Fee: 400},
	}}

	d := NewDynamic(sampler, DynamicConfig{Percentile: 75, Multiplier: decimal.RequireFromString("1.5")}, quietLogger())
	v, ok := d.Fee(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(450), v)

	d = NewDynamic(sampler, DynamicConfig{Percentile: 100, Multiplier: decimal.NewFromInt(10), Cap: 1_000}, quietLogger())
	v, ok = d.Fee(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(1_000), v)
}

func TestDynamic_DegradesToNone(t *testing.T) {
	cases := map[string]*fakeSampler{
		"query error": {err: errors.New("rpc down")},
		"no samples":  {},
		"all zero":    {samples: []Sample{{Slot: 1}, {Slot: 2}}},
	}
	for name, sampler := range cases {
		t.Run(name, func(t *testing.T) {
			v, ok := NewDynamic(sampler, DynamicConfig{}, quietLogger()).Fee(context.Background())
			assert.False(t, ok)
			assert.Zero(t, v)
		})
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	v, ok := NewManager(Fixed{Price: 1_000}, 500, 0, quietLogger()).Fee(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint64(1_500), v)

	v, ok = NewManager(Fixed{Price: 1_000}, 500, 1_200, quietLogger()).Fee(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint64(1_200), v)

	v, ok = NewManager(Fixed{}, 700, 0, quietLogger()).Fee(ctx)
	assert.True(t, ok, "extra alone still applies")
	assert.Equal(t, uint64(700), v)

	_, ok = NewManager(NewDynamic(&fakeSampler{err: errors.New("x")}, DynamicConfig{}, quietLogger()), 0, 0, quietLogger()).Fee(ctx)
	assert.False(t, ok)

	_, ok = NewManager(nil, 0, 0, nil).Fee(ctx)
	assert.False(t, ok)
}

func TestBudgetInstructions(t *testing.T) {
	assert.Empty(t, BudgetInstructions(200_000, 0, false))
	assert.Empty(t, BudgetInstructions(200_000, 0, true))

	ixs := BudgetInstructions(200_000, 12_345, true)
	require.Len(t, ixs, 2)
	assert.Equal(t, ComputeBudgetProgramID, ixs[0].ProgramID())

	limit, err := ixs[0].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 0x40, 0x0d, 0x03, 0x00}, limit)

	price, err := ixs[1].Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0x39, 0x30, 0, 0, 0, 0, 0, 0}, price)

	assert.Len(t, BudgetInstructions(0, 1, true), 1)
}
