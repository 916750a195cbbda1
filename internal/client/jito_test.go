package client

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tipAccounts = `["96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5","HFqU5x63VTqvQss8hp11i4wVV8bD44PvwucfZ2bU7gRe"]`

func TestJito_TipInstructionCachesAccounts(t *testing.T) {
	s, srv := newRPCServer(t, map[string]string{"getTipAccounts": tipAccounts})
	jc := NewJitoClient(JitoConfig{Endpoint: srv.URL, TipLamports: 10_000}, quietLogger())
	payer := solana.NewWallet().PublicKey()

	for i := 0; i < 3; i++ {
		ix, err := jc.TipInstruction(context.Background(), payer)
		require.NoError(t, err)
		require.NotNil(t, ix)
		assert.Equal(t, solana.SystemProgramID, ix.ProgramID())
		assert.Equal(t, payer, ix.Accounts()[0].PublicKey)
	}
	assert.Equal(t, 1, s.callCount("getTipAccounts"))
}

func TestJito_NoTipConfigured(t *testing.T) {
	jc := NewJitoClient(JitoConfig{Endpoint: "http://127.0.0.1:1"}, quietLogger())
	ix, err := jc.TipInstruction(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Nil(t, ix)
}

func TestJito_Send(t *testing.T) {
	s, srv := newRPCServer(t, map[string]string{"sendTransaction": `"sig"`})
	jc := NewJitoClient(JitoConfig{Endpoint: srv.URL}, quietLogger())

	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer.PublicKey(), solana.NewWallet().PublicKey()).Build()},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(payer.PublicKey()) {
			return &payer.PrivateKey
		}
		return nil
	})
	require.NoError(t, err)

	sig, err := jc.Send(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures[0], sig)
	assert.Equal(t, 1, s.callCount("sendTransaction"))
}
