// Package pumpfun implements the platform adapter for the pump.fun bonding curve program.
package pumpfun

import (
	_ "embed"

	"launch-sniper-go/internal/platform"
	"launch-sniper-go/pkg/anchor"

	"github.com/gagliardetto/solana-go"
)

//go:embed idl/pump_fun.json
var idlJSON []byte

// IDL is the pump.fun program schema
var IDL = anchor.MustParseIDL(idlJSON)

// pump.fun program addresses
var (
	ProgramID      = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
	GlobalAccount  = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")
	FeeRecipient   = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")
	EventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxXp9F1")
)

// Curve parameters of a freshly created token
const (
	TokenDecimals               = 6
	FeeBasisPoints              = 100
	InitialVirtualTokenReserves = 1_073_000_000_000_000
	InitialVirtualSolReserves   = 30_000_000_000
	InitialRealTokenReserves    = 793_100_000_000_000
	TokenTotalSupply            = 1_000_000_000_000_000
)

// New creates the pump.fun adapter. reader backs FetchState.
func New(reader platform.AccountReader) *platform.Adapter {
	addrs := Addresses{}
	return &platform.Adapter{
		Platform:  platform.PumpFun,
		ProgramID: ProgramID,
		Addresses: addrs,
		Curves:    &Curves{reader: reader, addrs: addrs, feeBps: FeeBasisPoints},
		Events:    &Parser{addrs: addrs},
		Builder:   &Builder{addrs: addrs},
	}
}
