package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// PortalTransport reads the PumpPortal aggregator feed (subscribeNewToken)
type PortalTransport struct {
	stream   client.StreamConfig
	registry Registry
	logger   *logrus.Logger
	dial     streamDialer
	now      func() time.Time
}

// Registry looks adapters up by platform tag. platform.Registry implements it.
type Registry interface {
	Get(p platform.Platform) (*platform.Adapter, error)
}

// NewPortalTransport creates a transport for a PumpPortal-style feed
func NewPortalTransport(stream client.StreamConfig, registry Registry, logger *logrus.Logger) *PortalTransport {
	return &PortalTransport{stream: stream, registry: registry, logger: logger, dial: client.Dial, now: time.Now}
}

func (t *PortalTransport) Source() platform.Source { return platform.SourcePortal }

// portalToken is a new token message of the feed
type portalToken struct {
	Signature       string `json:"signature"`
	Mint            string `json:"mint"`
	TraderPublicKey string `json:"traderPublicKey"`
	TxType          string `json:"txType"`
	BondingCurveKey string `json:"bondingCurveKey"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	URI             string `json:"uri"`
	Pool            string `json:"pool"`
}

func (t *PortalTransport) Run(ctx context.Context, sink Sink) error {
	stream, err := defaultDialer(t.dial)(ctx, t.stream, t.logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := stream.Send(map[string]string{"method": "subscribeNewToken"}); err != nil {
		return fmt.Errorf("failed to subscribe to new tokens: %w", err)
	}
	sink.SetState(Subscribed)
	t.logger.WithField("transport", platform.SourcePortal).Info("🌐 Listening to portal feed")

	return stream.Run(ctx, func(data []byte) error {
		var msg portalToken
		if err := json.Unmarshal(data, &msg); err != nil || msg.TxType != "create" {
			return nil
		}
		sink.SetState(Processing)
		defer sink.SetState(Subscribed)

		info, err := t.tokenInfo(msg)
		if err != nil {
			t.logger.WithError(err).WithField("mint", msg.Mint).Debug("⚠️ Skipping portal message")
			return nil
		}
		emitParsed(sink, platform.SourcePortal, info)
		return nil
	})
}

func (t *PortalTransport) tokenInfo(msg portalToken) (platform.TokenInfo, error) {
	tag := platform.PumpFun
	switch msg.Pool {
	case "", "pump":
	case "bonk":
		tag = platform.LetsBonk
	default:
		return platform.TokenInfo{}, fmt.Errorf("unsupported pool %q", msg.Pool)
	}
	adapter, err := t.registry.Get(tag)
	if err != nil {
		return platform.TokenInfo{}, err
	}

	mint, err := solana.PublicKeyFromBase58(msg.Mint)
	if err != nil {
		return platform.TokenInfo{}, fmt.Errorf("bad mint: %w", err)
	}
	creator, err := solana.PublicKeyFromBase58(msg.TraderPublicKey)
	if err != nil {
		return platform.TokenInfo{}, fmt.Errorf("bad creator: %w", err)
	}

	var curve solana.PublicKey
	if msg.BondingCurveKey != "" {
		curve, err = solana.PublicKeyFromBase58(msg.BondingCurveKey)
	} else {
		curve, err = adapter.Addresses.Curve(mint)
	}
	if err != nil {
		return platform.TokenInfo{}, fmt.Errorf("bad curve: %w", err)
	}
	vault, err := adapter.Addresses.Vault(mint)
	if err != nil {
		return platform.TokenInfo{}, fmt.Errorf("failed to derive vault: %w", err)
	}

	return platform.TokenInfo{
		Mint:      mint,
		Name:      msg.Name,
		Symbol:    msg.Symbol,
		URI:       msg.URI,
		Creator:   creator,
		Platform:  tag,
		Curve:     curve,
		Vault:     vault,
		CreatedAt: t.now(),
		Signature: msg.Signature,
	}, nil
}
