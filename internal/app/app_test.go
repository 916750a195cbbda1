package app

import (
	"context"
	"testing"

	"launch-sniper-go/internal/config"
	"launch-sniper-go/internal/fee"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSampler struct {
	accounts []solana.PublicKey
	samples  []fee.Sample
}

func (s *stubSampler) RecentPrioritizationFees(_ context.Context, accounts []solana.PublicKey) ([]fee.Sample, error) {
	s.accounts = accounts
	return s.samples, nil
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry([]string{"pump.fun", "letsbonk"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []platform.Platform{platform.PumpFun, platform.LetsBonk}, r.Platforms())

	_, err = NewRegistry([]string{"moonshot"}, nil)
	assert.ErrorIs(t, err, platform.ErrUnknownPlatform)

	_, err = NewRegistry(nil, nil)
	assert.Error(t, err)
}

func TestNewFeeManager(t *testing.T) {
	log, _ := test.NewNullLogger()
	r, err := NewRegistry([]string{"pump_fun"}, nil)
	require.NoError(t, err)

	fixed := NewFeeManager(config.FeeConfig{Mode: config.FeeModeFixed, FixedMicroLamports: 7_000}, nil, r, log)
	got, ok := fixed.Fee(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(7_000), got)

	sampler := &stubSampler{samples: []fee.Sample{{Slot: 1, Fee: 100}, {Slot: 2, Fee: 300}, {Slot: 3, Fee: 200}}}
	dynamic := NewFeeManager(config.FeeConfig{Mode: config.FeeModeDynamic, Percentile: 50, Multiplier: 2, Cap: 1_000}, sampler, r, log)
	got, ok = dynamic.Fee(context.Background())
	require.True(t, ok)
	assert.Equal(t, uint64(400), got)
	require.Len(t, sampler.accounts, 1)
	assert.Equal(t, r.Adapters()[0].ProgramID, sampler.accounts[0])
}

func TestNewSigner(t *testing.T) {
	log, _ := test.NewNullLogger()

	s, err := NewSigner(&config.Config{Trading: config.TradingConfig{DryRun: true}}, log)
	require.NoError(t, err)
	assert.Error(t, s.SignTransaction(&solana.Transaction{}))

	_, err = NewSigner(&config.Config{}, log)
	assert.Error(t, err)

	key := solana.NewWallet().PrivateKey
	s, err = NewSigner(&config.Config{Wallet: config.WalletConfig{PrivateKey: key.String()}}, log)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey(), s.PublicKey())
}
