package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"

	"github.com/sirupsen/logrus"
)

// GeyserTransport reads a geyser-backed transactionSubscribe push feed.
// The token is sent in the x-token header.
type GeyserTransport struct {
	stream   client.StreamConfig
	programs Programs
	logger   *logrus.Logger
	dial     streamDialer
}

// NewGeyserTransport creates a transport for a geyser websocket endpoint
func NewGeyserTransport(stream client.StreamConfig, token string, programs Programs, logger *logrus.Logger) *GeyserTransport {
	if token != "" {
		header := http.Header{}
		for k, v := range stream.Header {
			header[k] = v
		}
		header.Set("x-token", token)
		stream.Header = header
	}
	return &GeyserTransport{stream: stream, programs: programs, logger: logger, dial: client.Dial}
}

func (t *GeyserTransport) Source() platform.Source { return platform.SourceGeyser }

type geyserValue struct {
	Signature   string             `json:"signature"`
	Slot        uint64             `json:"slot"`
	Transaction encodedTransaction `json:"transaction"`
}

func (t *GeyserTransport) Run(ctx context.Context, sink Sink) error {
	stream, err := defaultDialer(t.dial)(ctx, t.stream, t.logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	var programs []string
	for _, a := range t.programs.Adapters() {
		programs = append(programs, a.ProgramID.String())
	}
	_, err = stream.Subscribe(ctx, "transactionSubscribe", []interface{}{
		map[string]interface{}{"accountInclude": programs, "failed": false, "vote": false},
		map[string]interface{}{
			"commitment":                     "processed",
			"encoding":                       "base64",
			"transactionDetails":             "full",
			"maxSupportedTransactionVersion": 0,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to transactions: %w", err)
	}
	sink.SetState(Subscribed)
	t.logger.WithField("transport", platform.SourceGeyser).Info("🛰️ Listening for geyser transactions")

	return stream.Run(ctx, func(data []byte) error {
		method, n, ok := client.ParseNotification(data)
		if !ok || method != "transactionNotification" {
			return nil
		}
		sink.SetState(Processing)
		defer sink.SetState(Subscribed)

		// some providers wrap the value in {context, value}
		var value geyserValue
		var res notificationResult
		if err := json.Unmarshal(n.Result, &res); err == nil && len(res.Value) > 0 {
			if err := json.Unmarshal(res.Value, &value); err != nil {
				return nil
			}
		} else if err := json.Unmarshal(n.Result, &value); err != nil {
			return nil
		}

		if value.Transaction.Meta.failed() {
			return nil
		}
		tx, err := decodeTransaction(value.Transaction)
		if err != nil {
			t.logger.WithError(err).WithField("signature", value.Signature).Debug("⚠️ Skipping undecodable transaction")
			return nil
		}
		if info, ok := tx.scan(t.programs); ok {
			emitParsed(sink, platform.SourceGeyser, info)
		}
		return nil
	})
}
