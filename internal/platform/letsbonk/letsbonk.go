// Package letsbonk implements the platform adapter for LetsBonk tokens, which
// launch on the Raydium Launchpad program with WSOL as the quote mint.
package letsbonk

import (
	_ "embed"

	"launch-sniper-go/internal/platform"
	"launch-sniper-go/pkg/anchor"

	"github.com/gagliardetto/solana-go"
)

//go:embed idl/raydium_launchpad.json
var idlJSON []byte

// IDL is the Raydium Launchpad program schema
var IDL = anchor.MustParseIDL(idlJSON)

// Launchpad program addresses
var (
	ProgramID      = solana.MustPublicKeyFromBase58("LanMV9sAd7wArD4vJFi2qDdfnVhFxYSUg6eADduJ3uj")
	GlobalConfig   = solana.MustPublicKeyFromBase58("6s1xP3hpbAfFoNtUNF8mfHsjr2Bd97JxFJRWLbL6aHuX")
	PlatformConfig = solana.MustPublicKeyFromBase58("FfYek5vEz23cMkWsdJwG2oa6EphsvXSHrGpdALN4g6W1")
	QuoteMint      = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	TokenDecimals = 6
	// ProtocolFeeBps goes to the launchpad, PlatformFeeBps to LetsBonk.
	ProtocolFeeBps = 25
	PlatformFeeBps = 100
)

// New creates the LetsBonk adapter. reader backs FetchState.
func New(reader platform.AccountReader) *platform.Adapter {
	addrs := Addresses{}
	return &platform.Adapter{
		Platform:  platform.LetsBonk,
		ProgramID: ProgramID,
		Addresses: addrs,
		Curves:    &Curves{reader: reader, addrs: addrs, feeBps: ProtocolFeeBps + PlatformFeeBps},
		Events:    &Parser{addrs: addrs},
		Builder:   &Builder{addrs: addrs},
	}
}
