package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// JitoClient submits transactions through a Jito block engine
type JitoClient struct {
	rpc       *rpc.Client
	tip       uint64
	timeout   time.Duration
	logger    *logrus.Logger
	mu        sync.Mutex
	tipCache  []solana.PublicKey
	cacheTime time.Time
}

// JitoConfig contains configuration for the Jito client
type JitoConfig struct {
	Endpoint    string
	APIKey      string
	TipLamports uint64
	Timeout     time.Duration
}

// JitoBundleStatus represents bundle status
type JitoBundleStatus struct {
	BundleID           string   `json:"bundle_id"`
	Transactions       []string `json:"transactions"`
	Slot               uint64   `json:"slot"`
	ConfirmationStatus string   `json:"confirmation_status"`
	Err                struct {
		Ok interface{} `json:"Ok"`
	} `json:"err"`
}

const tipAccountsTTL = 10 * time.Minute

// NewJitoClient creates a new Jito client
func NewJitoClient(config JitoConfig, logger *logrus.Logger) *JitoClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if config.APIKey != "" {
		headers["x-jito-auth"] = config.APIKey
	}

	return &JitoClient{
		rpc:     rpc.NewWithHeaders(config.Endpoint, headers),
		tip:     config.TipLamports,
		timeout: config.Timeout,
		logger:  logger,
	}
}

// TipAccounts returns the block engine tip accounts, cached for ten minutes
func (jc *JitoClient) TipAccounts(ctx context.Context) ([]solana.PublicKey, error) {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	if len(jc.tipCache) > 0 && time.Since(jc.cacheTime) < tipAccountsTTL {
		return jc.tipCache, nil
	}

	ctx, cancel := context.WithTimeout(ctx, jc.timeout)
	defer cancel()

	var raw []string
	if err := jc.rpc.RPCCallForInto(ctx, &raw, "getTipAccounts", []interface{}{}); err != nil {
		return nil, fmt.Errorf("getTipAccounts failed: %w", err)
	}

	accounts := make([]solana.PublicKey, 0, len(raw))
	for _, s := range raw {
		key, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("invalid tip account %q: %w", s, err)
		}
		accounts = append(accounts, key)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no tip accounts available")
	}

	jc.tipCache = accounts
	jc.cacheTime = time.Now()
	jc.logger.WithField("tip_accounts_count", len(accounts)).Debug("Retrieved JITO tip accounts")
	return accounts, nil
}

// TipInstruction transfers the configured tip from payer to a random tip
// account. It returns nil when no tip is configured.
func (jc *JitoClient) TipInstruction(ctx context.Context, payer solana.PublicKey) (solana.Instruction, error) {
	if jc.tip == 0 {
		return nil, nil
	}
	accounts, err := jc.TipAccounts(ctx)
	if err != nil {
		return nil, err
	}
	to := accounts[rand.Intn(len(accounts))]
	return system.NewTransferInstruction(jc.tip, payer, to).Build(), nil
}

// Send submits a single signed transaction through the block engine
func (jc *JitoClient) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}, fmt.Errorf("transaction is not signed")
	}
	encoded, err := encodeTransaction(tx)
	if err != nil {
		return solana.Signature{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, jc.timeout)
	defer cancel()

	var sig string
	params := []interface{}{encoded, map[string]interface{}{"encoding": "base64"}}
	if err := jc.rpc.RPCCallForInto(ctx, &sig, "sendTransaction", params); err != nil {
		return solana.Signature{}, fmt.Errorf("jito sendTransaction failed: %w", err)
	}

	jc.logger.WithField("signature", sig).Debug("📦 Transaction sent via JITO")
	return tx.Signatures[0], nil
}

// SendBundle sends up to five signed transactions as one atomic bundle
func (jc *JitoClient) SendBundle(ctx context.Context, txs []*solana.Transaction) (string, error) {
	encoded := make([]string, len(txs))
	for i, tx := range txs {
		e, err := encodeTransaction(tx)
		if err != nil {
			return "", err
		}
		encoded[i] = e
	}

	ctx, cancel := context.WithTimeout(ctx, jc.timeout)
	defer cancel()

	var bundleID string
	params := []interface{}{encoded, map[string]interface{}{"encoding": "base64"}}
	if err := jc.rpc.RPCCallForInto(ctx, &bundleID, "sendBundle", params); err != nil {
		return "", fmt.Errorf("sendBundle failed: %w", err)
	}

	jc.logger.WithFields(logrus.Fields{
		"bundle_id":    bundleID,
		"transactions": len(txs),
	}).Info("📦 JITO bundle sent")
	return bundleID, nil
}

// BundleStatus gets the status of a landed bundle. A nil status means the
// bundle is not known yet.
func (jc *JitoClient) BundleStatus(ctx context.Context, bundleID string) (*JitoBundleStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, jc.timeout)
	defer cancel()

	var out struct {
		Value []*JitoBundleStatus `json:"value"`
	}
	if err := jc.rpc.RPCCallForInto(ctx, &out, "getBundleStatuses", []interface{}{[]string{bundleID}}); err != nil {
		return nil, fmt.Errorf("getBundleStatuses failed: %w", err)
	}
	if len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

func encodeTransaction(tx *solana.Transaction) (string, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
