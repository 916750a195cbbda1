// Package wallet holds the trading keypair.
package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Wallet signs messages and transactions with a single keypair
type Wallet struct {
	account types.Account
	public  solana.PublicKey
	private solana.PrivateKey
}

// Config selects the key source. PrivateKey wins when both are set.
type Config struct {
	PrivateKey string
	Mnemonic   string
	Passphrase string
}

// New loads the wallet from a base58 secret key or a BIP39 mnemonic. The
// mnemonic's seed is used the way solana-keygen does without a derivation
// path: the first 32 bytes of the BIP39 seed become the ed25519 seed.
func New(cfg Config, logger *logrus.Logger) (*Wallet, error) {
	var (
		account types.Account
		err     error
		source  string
	)

	switch {
	case cfg.PrivateKey != "":
		source = "private_key"
		account, err = types.AccountFromBase58(strings.TrimSpace(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	case cfg.Mnemonic != "":
		source = "mnemonic"
		mnemonic := strings.Join(strings.Fields(cfg.Mnemonic), " ")
		if !bip39.IsMnemonicValid(mnemonic) {
			return nil, errors.New("invalid mnemonic")
		}
		seed := bip39.NewSeed(mnemonic, cfg.Passphrase)
		account, err = types.AccountFromSeed(seed[:32])
		if err != nil {
			return nil, fmt.Errorf("failed to derive account from mnemonic: %w", err)
		}
	default:
		return nil, errors.New("private key or mnemonic is required")
	}

	w := &Wallet{
		account: account,
		public:  solana.PublicKeyFromBytes(account.PublicKey.Bytes()),
		private: solana.PrivateKey(account.PrivateKey),
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"public_key": w.public.String(),
			"source":     source,
		}).Info("🔑 Wallet initialized")
	}
	return w, nil
}

// PublicKey returns the wallet's public key
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.public
}

// Sign signs an arbitrary message
func (w *Wallet) Sign(message []byte) (solana.Signature, error) {
	sig := w.account.Sign(message)
	if len(sig) != solana.SignatureLength {
		return solana.Signature{}, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	return solana.SignatureFromBytes(sig), nil
}

// SignTransaction adds the wallet's signature to tx. The wallet must be the
// only required signer.
func (w *Wallet) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.public) {
			return &w.private
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
