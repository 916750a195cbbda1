// Package client wraps the Solana JSON-RPC and websocket endpoints used by the bot.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"launch-sniper-go/internal/fee"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// Client is a Solana RPC client with a per-call timeout
type Client struct {
	rpc           *rpc.Client
	timeout       time.Duration
	commitment    rpc.CommitmentType
	skipPreflight bool
	logger        *logrus.Logger
}

// Config contains configuration for the RPC client
type Config struct {
	RPCEndpoint   string
	APIKey        string
	Timeout       time.Duration
	Commitment    string
	SkipPreflight bool
}

// TxStatus is the network's view of a submitted signature
type TxStatus struct {
	Found        bool
	Slot         uint64
	Confirmation rpc.ConfirmationStatusType
	Err          interface{}
}

// Landed reports whether the transaction reached at least confirmed commitment
func (s TxStatus) Landed() bool {
	return s.Found && (s.Confirmation == rpc.ConfirmationStatusConfirmed ||
		s.Confirmation == rpc.ConfirmationStatusFinalized)
}

// Failed reports whether the transaction executed with an error
func (s TxStatus) Failed() bool {
	return s.Found && s.Err != nil
}

// New creates a new Solana RPC client
func New(config Config, logger *logrus.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Commitment == "" {
		config.Commitment = string(rpc.CommitmentConfirmed)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if config.APIKey != "" {
		headers["Authorization"] = "Bearer " + config.APIKey
	}

	return &Client{
		rpc:           rpc.NewWithHeaders(config.RPCEndpoint, headers),
		timeout:       config.Timeout,
		commitment:    rpc.CommitmentType(config.Commitment),
		skipPreflight: config.SkipPreflight,
		logger:        logger,
	}
}

func (c *Client) call(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// GetAccount fetches an account's owner and raw data
func (c *Client) GetAccount(ctx context.Context, account solana.PublicKey) (*platform.AccountInfo, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	result, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", platform.ErrAccountNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo failed: %w", err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("%w: %s", platform.ErrAccountNotFound, account)
	}

	return &platform.AccountInfo{
		Owner: result.Value.Owner,
		Data:  result.Value.Data.GetBinary(),
	}, nil
}

// LatestBlockhash returns a fresh reference blockhash
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}
	return result.Value.Blockhash, nil
}

// Send submits a signed transaction without waiting for confirmation
func (c *Client) Send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       c.skipPreflight,
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sendTransaction failed: %w", err)
	}
	return sig, nil
}

// SignatureStatus looks up one signature. searchHistory asks the node to look
// beyond its recent status cache.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature, searchHistory bool) (TxStatus, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	result, err := c.rpc.GetSignatureStatuses(ctx, searchHistory, sig)
	if err != nil {
		return TxStatus{}, fmt.Errorf("getSignatureStatuses failed: %w", err)
	}
	if result == nil || len(result.Value) == 0 || result.Value[0] == nil {
		return TxStatus{}, nil
	}

	st := result.Value[0]
	return TxStatus{
		Found:        true,
		Slot:         st.Slot,
		Confirmation: st.ConfirmationStatus,
		Err:          st.Err,
	}, nil
}

// TokenBalance returns owner's raw token balance for mint. A missing token
// account is reported as ErrAccountNotFound.
func (c *Client) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to derive token account: %w", err)
	}

	ctx, cancel := c.call(ctx)
	defer cancel()

	result, err := c.rpc.GetTokenAccountBalance(ctx, ata, c.commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) || strings.Contains(err.Error(), "could not find account") {
			return 0, fmt.Errorf("%w: token account %s", platform.ErrAccountNotFound, ata)
		}
		return 0, fmt.Errorf("getTokenAccountBalance failed: %w", err)
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%w: token account %s", platform.ErrAccountNotFound, ata)
	}

	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token amount %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// Balance returns the lamport balance of an account
func (c *Client) Balance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	result, err := c.rpc.GetBalance(ctx, owner, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}
	return result.Value, nil
}

type prioritizationFee struct {
	Slot              uint64 `json:"slot"`
	PrioritizationFee uint64 `json:"prioritizationFee"`
}

// RecentPrioritizationFees returns the fees paid in recent slots by
// transactions that locked any of accounts
func (c *Client) RecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]fee.Sample, error) {
	ctx, cancel := c.call(ctx)
	defer cancel()

	keys := make([]string, len(accounts))
	for i, a := range accounts {
		keys[i] = a.String()
	}

	var out []prioritizationFee
	if err := c.rpc.RPCCallForInto(ctx, &out, "getRecentPrioritizationFees", []interface{}{keys}); err != nil {
		return nil, fmt.Errorf("getRecentPrioritizationFees failed: %w", err)
	}

	samples := make([]fee.Sample, len(out))
	for i, f := range out {
		samples[i] = fee.Sample{Slot: f.Slot, Fee: f.PrioritizationFee}
	}
	return samples, nil
}
