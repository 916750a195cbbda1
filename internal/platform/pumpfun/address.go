package pumpfun

import (
	"github.com/gagliardetto/solana-go"
)

// Addresses derives pump.fun program addresses
type Addresses struct{}

// Curve returns the bonding curve PDA: ["bonding-curve", mint]
func (Addresses) Curve(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), mint[:]}, ProgramID)
	return addr, err
}

// Vault returns the curve's token account (associated bonding curve)
func (a Addresses) Vault(mint solana.PublicKey) (solana.PublicKey, error) {
	curve, err := a.Curve(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return a.vaultOf(curve, mint)
}

func (Addresses) vaultOf(curve, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(curve, mint)
	return addr, err
}

// UserTokenAccount returns the owner's associated token account
func (Addresses) UserTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return addr, err
}

// CreatorVault returns the creator fee vault: ["creator-vault", creator]
func (Addresses) CreatorVault(creator solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("creator-vault"), creator[:]}, ProgramID)
	return addr, err
}

// GlobalVolumeAccumulator returns ["global_volume_accumulator"]
func (Addresses) GlobalVolumeAccumulator() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("global_volume_accumulator")}, ProgramID)
	return addr, err
}

// UserVolumeAccumulator returns ["user_volume_accumulator", user]
func (Addresses) UserVolumeAccumulator(user solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte("user_volume_accumulator"), user[:]}, ProgramID)
	return addr, err
}
