package listener

import (
	"context"
	"encoding/json"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Sink receives what a transport observes during one connection
type Sink interface {
	// Emit hands a detected token to the hub
	Emit(info platform.TokenInfo)
	// SetState records a connection state change
	SetState(s State)
}

// Transport is one detection source. Run covers a single connection
// lifetime (connect, subscribe, read) and returns when the connection ends
// or ctx is done. The hub reconnects.
type Transport interface {
	Source() platform.Source
	Run(ctx context.Context, sink Sink) error
}

// Programs resolves the adapter owning a program. platform.Registry implements it.
type Programs interface {
	Adapters() []*platform.Adapter
	ForProgram(programID solana.PublicKey) (*platform.Adapter, bool)
}

// streamDialer opens a websocket stream; replaced in tests
type streamDialer func(ctx context.Context, cfg client.StreamConfig, logger *logrus.Logger) (*client.Stream, error)

func defaultDialer(d streamDialer) streamDialer {
	if d == nil {
		return client.Dial
	}
	return d
}

// notificationResult unwraps the common {context, value} envelope
type notificationResult struct {
	Context struct {
		Slot uint64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

// emitParsed tags info with src and hands it to sink
func emitParsed(sink Sink, src platform.Source, info platform.TokenInfo) {
	info.Source = src
	sink.Emit(info)
}
