package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Platform identifies a launch platform
type Platform string

const (
	PumpFun  Platform = "pump_fun"
	LetsBonk Platform = "lets_bonk"
)

// ParsePlatform accepts the config spellings ("pump_fun", "pump.fun", "letsbonk", ...)
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.NewReplacer(".", "_", "-", "_").Replace(strings.TrimSpace(s))) {
	case "pump_fun", "pumpfun", "pump":
		return PumpFun, nil
	case "lets_bonk", "letsbonk", "bonk", "raydium_launchpad":
		return LetsBonk, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Source tags the transport that detected a token
type Source string

const (
	SourceLogs   Source = "logs"
	SourceBlocks Source = "block_subscribe"
	SourceGeyser Source = "geyser"
	SourcePortal Source = "pump_portal"
)

// TokenStatus tells whether a token still trades on its bonding curve
type TokenStatus string

const (
	PreGraduation  TokenStatus = "pre_graduation"
	PostGraduation TokenStatus = "post_graduation"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrAccountNotFound = errors.New("account not found")
)

// TokenInfo is a detected token creation. Values are never mutated after emission.
type TokenInfo struct {
	Mint      solana.PublicKey `json:"mint"`
	Name      string           `json:"name"`
	Symbol    string           `json:"symbol"`
	URI       string           `json:"uri"`
	Creator   solana.PublicKey `json:"creator"`
	Platform  Platform         `json:"platform"`
	Curve     solana.PublicKey `json:"curve"`
	Vault     solana.PublicKey `json:"vault"`
	CreatedAt time.Time        `json:"created_at"`
	Source    Source           `json:"source"`
	Signature string           `json:"signature,omitempty"`
}

// CurveState is a reserve snapshot of a bonding curve or launchpad pool.
type CurveState struct {
	VirtualBase  uint64
	VirtualQuote uint64
	RealBase     uint64
	RealQuote    uint64
	TotalSupply  uint64
	Complete     bool
	Creator      solana.PublicKey
	BaseDecimals uint8

	// AvailableBase is what buys can still take out of the curve;
	// AvailableQuote is what sells can withdraw.
	AvailableBase  uint64
	AvailableQuote uint64
}

// Status maps the completion flag onto a graduation status
func (s CurveState) Status() TokenStatus {
	if s.Complete {
		return PostGraduation
	}
	return PreGraduation
}

// CompletionPercent is the share of supply no longer held by the curve
func (s CurveState) CompletionPercent() float64 {
	if s.TotalSupply == 0 {
		return 0
	}
	held := s.AvailableBase
	if held > s.TotalSupply {
		held = s.TotalSupply
	}
	return float64(s.TotalSupply-held) / float64(s.TotalSupply) * 100
}

// AccountInfo is the raw content of an on-chain account
type AccountInfo struct {
	Owner solana.PublicKey
	Data  []byte
}

// AccountReader fetches raw accounts. Missing accounts return ErrAccountNotFound.
type AccountReader interface {
	GetAccount(ctx context.Context, account solana.PublicKey) (*AccountInfo, error)
}

// AddressProvider derives program addresses. Pure, no network access.
type AddressProvider interface {
	Curve(mint solana.PublicKey) (solana.PublicKey, error)
	Vault(mint solana.PublicKey) (solana.PublicKey, error)
	UserTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error)
}

// CurveManager reads and prices curve state. Pricing uses integer math only.
type CurveManager interface {
	FetchState(ctx context.Context, mint solana.PublicKey) (CurveState, error)
	DecodeState(data []byte) (CurveState, error)
	Price(state CurveState) float64
	BuyOut(state CurveState, quoteIn uint64) uint64
	SellOut(state CurveState, baseIn uint64) uint64
}

// EventParser recognizes token creations. Unrelated input yields false, never an error.
type EventParser interface {
	ParseLogs(logs []string, signature string) (TokenInfo, bool)
	ParseInstruction(data []byte, accounts []solana.PublicKey, signature string) (TokenInfo, bool)
}

// TradeParams describe one buy or sell. Curve is the state the amounts were computed from.
type TradeParams struct {
	Mint     solana.PublicKey
	Trader   solana.PublicKey
	AmountIn uint64
	MinOut   uint64
	Curve    CurveState
}

// TradeInstructions is the platform instruction plus the token-account setup
// and cleanup it needs.
type TradeInstructions struct {
	Pre   []solana.Instruction
	Trade *solana.GenericInstruction
	Post  []solana.Instruction
}

// All returns the instructions in execution order
func (t TradeInstructions) All() []solana.Instruction {
	out := make([]solana.Instruction, 0, len(t.Pre)+len(t.Post)+1)
	out = append(out, t.Pre...)
	out = append(out, t.Trade)
	return append(out, t.Post...)
}

// InstructionBuilder builds buy/sell instructions from IDL account roles.
type InstructionBuilder interface {
	BuildBuy(p TradeParams) (TradeInstructions, error)
	BuildSell(p TradeParams) (TradeInstructions, error)
}

// Adapter bundles the four capabilities of one platform.
type Adapter struct {
	Platform  Platform
	ProgramID solana.PublicKey
	Addresses AddressProvider
	Curves    CurveManager
	Events    EventParser
	Builder   InstructionBuilder
}
