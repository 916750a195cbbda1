package platform_test

import (
	"context"
	"errors"
	"testing"

	"launch-sniper-go/internal/platform"
	"launch-sniper-go/internal/platform/letsbonk"
	"launch-sniper-go/internal/platform/pumpfun"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type accounts map[solana.PublicKey]*platform.AccountInfo

func (a accounts) GetAccount(_ context.Context, key solana.PublicKey) (*platform.AccountInfo, error) {
	if acc, ok := a[key]; ok {
		return acc, nil
	}
	return nil, platform.ErrAccountNotFound
}

type failingReader struct{}

func (failingReader) GetAccount(context.Context, solana.PublicKey) (*platform.AccountInfo, error) {
	return nil, errors.New("rpc down")
}

func newRegistry(reader platform.AccountReader) *platform.Registry {
	return platform.NewRegistry(reader, pumpfun.New(reader), letsbonk.New(reader))
}

func TestRegistry_Get(t *testing.T) {
	r := newRegistry(accounts{})

	a, err := r.Get(platform.PumpFun)
	require.NoError(t, err)
	assert.Equal(t, pumpfun.ProgramID, a.ProgramID)

	a, err = r.Get(platform.LetsBonk)
	require.NoError(t, err)
	assert.Equal(t, letsbonk.ProgramID, a.ProgramID)

	_, err = r.Get("moonshot")
	assert.ErrorIs(t, err, platform.ErrUnknownPlatform)

	assert.Equal(t, []platform.Platform{platform.PumpFun, platform.LetsBonk}, r.Platforms())
	assert.Len(t, r.Adapters(), 2)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := newRegistry(accounts{})
	replacement := pumpfun.New(accounts{})
	r.Register(replacement)

	a, err := r.Get(platform.PumpFun)
	require.NoError(t, err)
	assert.Same(t, replacement, a)
	assert.Len(t, r.Platforms(), 2)
}

func TestRegistry_ForProgram(t *testing.T) {
	r := newRegistry(accounts{})

	a, ok := r.ForProgram(letsbonk.ProgramID)
	require.True(t, ok)
	assert.Equal(t, platform.LetsBonk, a.Platform)

	_, ok = r.ForProgram(solana.SystemProgramID)
	assert.False(t, ok)
}

func TestRegistry_Resolve(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	bonkPool, err := letsbonk.Addresses{}.Curve(mint)
	require.NoError(t, err)
	pumpCurve, err := pumpfun.Addresses{}.Curve(mint)
	require.NoError(t, err)

	t.Run("owning program", func(t *testing.T) {
		r := newRegistry(accounts{bonkPool: {Owner: letsbonk.ProgramID}})
		a, err := r.Resolve(context.Background(), mint)
		require.NoError(t, err)
		assert.Equal(t, platform.LetsBonk, a.Platform)
	})

	t.Run("first match wins", func(t *testing.T) {
		r := newRegistry(accounts{
			pumpCurve: {Owner: pumpfun.ProgramID},
			bonkPool:  {Owner: letsbonk.ProgramID},
		})
		a, err := r.Resolve(context.Background(), mint)
		require.NoError(t, err)
		assert.Equal(t, platform.PumpFun, a.Platform)
	})

	t.Run("wrong owner", func(t *testing.T) {
		r := newRegistry(accounts{pumpCurve: {Owner: solana.SystemProgramID}})
		_, err := r.Resolve(context.Background(), mint)
		assert.ErrorIs(t, err, platform.ErrUnknownPlatform)
	})

	t.Run("unknown mint", func(t *testing.T) {
		_, err := newRegistry(accounts{}).Resolve(context.Background(), mint)
		assert.ErrorIs(t, err, platform.ErrUnknownPlatform)
	})

	t.Run("read error", func(t *testing.T) {
		_, err := newRegistry(failingReader{}).Resolve(context.Background(), mint)
		assert.ErrorContains(t, err, "rpc down")
	})

	t.Run("no reader", func(t *testing.T) {
		r := platform.NewRegistry(nil, pumpfun.New(nil))
		_, err := r.Resolve(context.Background(), mint)
		assert.Error(t, err)
	})
}

func TestParsePlatform(t *testing.T) {
	cases := map[string]platform.Platform{
		"pump_fun":          platform.PumpFun,
		"pump.fun":          platform.PumpFun,
		"PumpFun":           platform.PumpFun,
		"letsbonk":          platform.LetsBonk,
		"lets-bonk":         platform.LetsBonk,
		"raydium_launchpad": platform.LetsBonk,
	}
	for in, want := range cases {
		got, err := platform.ParsePlatform(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := platform.ParsePlatform("moonshot")
	assert.ErrorIs(t, err, platform.ErrUnknownPlatform)
}
