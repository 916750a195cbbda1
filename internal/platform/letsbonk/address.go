package letsbonk

import (
	"github.com/gagliardetto/solana-go"
)

// Addresses derives Raydium Launchpad program addresses
type Addresses struct{}

func (Addresses) find(seeds ...[]byte) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(seeds, ProgramID)
	return addr, err
}

// Curve returns the pool state PDA: ["pool", mint, WSOL]
func (a Addresses) Curve(mint solana.PublicKey) (solana.PublicKey, error) {
	return a.find([]byte("pool"), mint[:], QuoteMint[:])
}

// Vault returns the pool's base token vault
func (a Addresses) Vault(mint solana.PublicKey) (solana.PublicKey, error) {
	pool, err := a.Curve(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return a.vaultOf(pool, mint)
}

// QuoteVault returns the pool's WSOL vault
func (a Addresses) QuoteVault(mint solana.PublicKey) (solana.PublicKey, error) {
	pool, err := a.Curve(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return a.vaultOf(pool, QuoteMint)
}

func (a Addresses) vaultOf(pool, mint solana.PublicKey) (solana.PublicKey, error) {
	return a.find([]byte("pool_vault"), pool[:], mint[:])
}

// UserTokenAccount returns the owner's associated token account
func (Addresses) UserTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return addr, err
}

// Authority returns the vault authority PDA
func (a Addresses) Authority() (solana.PublicKey, error) {
	return a.find([]byte("vault_auth_seed"))
}

// EventAuthority returns the anchor event CPI authority
func (a Addresses) EventAuthority() (solana.PublicKey, error) {
	return a.find([]byte("__event_authority"))
}
