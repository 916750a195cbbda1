package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"launch-sniper-go/internal/client"
	"launch-sniper-go/internal/platform"

	"github.com/sirupsen/logrus"
)

// LogsTransport detects creations from logsSubscribe notifications
type LogsTransport struct {
	stream   client.StreamConfig
	programs Programs
	logger   *logrus.Logger
	dial     streamDialer
}

// NewLogsTransport subscribes to the logs of every adapter program in programs
func NewLogsTransport(stream client.StreamConfig, programs Programs, logger *logrus.Logger) *LogsTransport {
	return &LogsTransport{stream: stream, programs: programs, logger: logger, dial: client.Dial}
}

func (t *LogsTransport) Source() platform.Source { return platform.SourceLogs }

type logsValue struct {
	Signature string          `json:"signature"`
	Err       json.RawMessage `json:"err"`
	Logs      []string        `json:"logs"`
}

// Run subscribes once per program and parses each notification with the
// owning adapter's event parser
func (t *LogsTransport) Run(ctx context.Context, sink Sink) error {
	stream, err := defaultDialer(t.dial)(ctx, t.stream, t.logger)
	if err != nil {
		return err
	}
	defer stream.Close()

	subs := make(map[int]*platform.Adapter)
	for _, a := range t.programs.Adapters() {
		id, err := stream.Subscribe(ctx, "logsSubscribe", []interface{}{
			map[string]interface{}{"mentions": []string{a.ProgramID.String()}},
			map[string]interface{}{"commitment": "processed"},
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s logs: %w", a.Platform, err)
		}
		subs[id] = a
	}
	sink.SetState(Subscribed)

	t.logger.WithFields(logrus.Fields{
		"transport": platform.SourceLogs,
		"programs":  len(subs),
	}).Info("👂 Listening for program logs")

	return stream.Run(ctx, func(data []byte) error {
		method, n, ok := client.ParseNotification(data)
		if !ok || method != "logsNotification" {
			return nil
		}
		sink.SetState(Processing)
		defer sink.SetState(Subscribed)

		var res notificationResult
		var value logsValue
		if err := json.Unmarshal(n.Result, &res); err != nil {
			return nil
		}
		if err := json.Unmarshal(res.Value, &value); err != nil {
			return nil
		}
		if len(value.Err) > 0 && string(value.Err) != "null" {
			return nil
		}

		adapters := t.programs.Adapters()
		if a, ok := subs[n.Subscription]; ok {
			adapters = []*platform.Adapter{a}
		}
		for _, a := range adapters {
			if info, ok := a.Events.ParseLogs(value.Logs, value.Signature); ok {
				emitParsed(sink, platform.SourceLogs, info)
				return nil
			}
		}
		return nil
	})
}
