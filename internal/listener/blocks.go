package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"

	"github.com/sirupsen/logrus"
)

// BlocksTransport detects creations in full blocks from blockSubscribe
type BlocksTransport struct {
	stream   client.StreamConfig
	programs Programs
	logger   *logrus.Logger
	dial     streamDialer
}

// NewBlocksTransport subscribes to blocks mentioning each adapter program
func NewBlocksTransport(stream client.StreamConfig, programs Programs, logger *logrus.Logger) *BlocksTransport {
	return &BlocksTransport{stream: stream, programs: programs, logger: logger, dial: client.Dial}
}

func (t *BlocksTransport) Source() platform.Source { return platform.SourceBlocks }

type blockValue struct {
	Slot  uint64 `json:"slot"`
	Block *struct {
		Transactions []encodedTransaction `json:"transactions"`
	} `json:"block"`
}

func (t *BlocksTransport) Run(ctx context.Context, sink Sink) error {
	stream, err := defaultDialer(t.dial)(ctx, t.stream, t.logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	for _, a := range t.programs.Adapters() {
		_, err := stream.Subscribe(ctx, "blockSubscribe", []interface{}{
			map[string]interface{}{"mentionsAccountOrProgram": a.ProgramID.String()},
			map[string]interface{}{
				"commitment":                     "confirmed",
				"encoding":                       "base64",
				"showRewards":                    false,
				"transactionDetails":             "full",
				"maxSupportedTransactionVersion": 0,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s blocks: %w", a.Platform, err)
		}
	}
	sink.SetState(Subscribed)
	t.logger.WithField("transport", platform.SourceBlocks).Info("🧱 Listening for blocks")

	return stream.Run(ctx, func(data []byte) error {
		method, n, ok := client.ParseNotification(data)
		if !ok || method != "blockNotification" {
			return nil
		}
		sink.SetState(Processing)
		defer sink.SetState(Subscribed)

		var res notificationResult
		var value blockValue
		if err := json.Unmarshal(n.Result, &res); err != nil {
			return nil
		}
		if err := json.Unmarshal(res.Value, &value); err != nil || value.Block == nil {
			return nil
		}

		for _, et := range value.Block.Transactions {
			if et.Meta.failed() {
				continue
			}
			tx, err := decodeTransaction(et)
			if err != nil {
				t.logger.WithError(err).WithField("slot", value.Slot).Debug("⚠️ Skipping undecodable transaction")
				continue
			}
			if info, ok := tx.scan(t.programs); ok {
				emitParsed(sink, platform.SourceBlocks, info)
			}
		}
		return nil
	})
}
