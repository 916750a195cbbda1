package listener

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"launch-sniper-go/internal/logger"
	"launch-sniper-go/internal/platform"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	return log
}

type fakeTransport struct {
	source platform.Source
	runs   atomic.Int32
	run    func(ctx context.Context, sink Sink, n int) error
}

func (f *fakeTransport) Source() platform.Source { return f.source }

func (f *fakeTransport) Run(ctx context.Context, sink Sink) error {
	n := int(f.runs.Add(1))
	return f.run(ctx, sink, n)
}

func token(mint solana.PublicKey, p platform.Platform) platform.TokenInfo {
	return platform.TokenInfo{Mint: mint, Name: "Token", Symbol: "TKN", Platform: p, Creator: solana.NewWallet().PublicKey()}
}

type collector struct {
	mu  sync.Mutex
	got []platform.TokenInfo
	ch  chan platform.TokenInfo
}

func newCollector() *collector { return &collector{ch: make(chan platform.TokenInfo, 16)} }

func (c *collector) handle(_ context.Context, info platform.TokenInfo) {
	c.mu.Lock()
	c.got = append(c.got, info)
	c.mu.Unlock()
	c.ch <- info
}

func (c *collector) wait(t *testing.T) platform.TokenInfo {
	t.Helper()
	select {
	case info := <-c.ch:
		return info
	case <-time.After(2 * time.Second):
		t.Fatal("no token delivered")
		return platform.TokenInfo{}
	}
}

func TestHub_FirstDetectionWins(t *testing.T) {
	mint1 := solana.NewWallet().PublicKey()
	mint2 := solana.NewWallet().PublicKey()
	firstDone := make(chan struct{})

	fast := &fakeTransport{source: platform.SourceGeyser, run: func(ctx context.Context, sink Sink, _ int) error {
		sink.SetState(Subscribed)
		sink.Emit(token(mint1, platform.PumpFun))
		close(firstDone)
		<-ctx.Done()
		return ctx.Err()
	}}
	slow := &fakeTransport{source: platform.SourceLogs, run: func(ctx context.Context, sink Sink, _ int) error {
		sink.SetState(Subscribed)
		<-firstDone
		time.Sleep(5 * time.Millisecond)
		sink.Emit(token(mint1, platform.PumpFun))
		sink.Emit(token(mint2, platform.LetsBonk))
		<-ctx.Done()
		return ctx.Err()
	}}

	hub := NewHub(Config{}, quietLogger(), fast, slow)
	c := newCollector()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, c.handle) }()

	assert.Equal(t, mint1, c.wait(t).Mint)
	second := c.wait(t)
	assert.Equal(t, mint2, second.Mint)

	select {
	case extra := <-c.ch:
		t.Fatalf("duplicate delivery of %s", extra.Mint)
	case <-time.After(50 * time.Millisecond):
	}

	detections := hub.Detections()
	require.Len(t, detections, 2)
	assert.Equal(t, platform.SourceGeyser, detections[0].Winner)
	require.Len(t, detections[0].Later, 1)
	assert.Equal(t, platform.SourceLogs, detections[0].Later[0].Source)
	assert.GreaterOrEqual(t, detections[0].Later[0].Delay, 5*time.Millisecond)

	report := hub.LatencyReport()
	assert.Equal(t, 1, report[platform.SourceGeyser].Wins)
	assert.Equal(t, 1, report[platform.SourceLogs].Wins)
	assert.Equal(t, 2, report[platform.SourceLogs].Seen)
	assert.Equal(t, detections[0].Later[0].Delay, report[platform.SourceLogs].AvgDelay)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, Closed, hub.States()[platform.SourceGeyser])
	assert.Equal(t, Closed, hub.States()[platform.SourceLogs])
}

func TestHub_FilterRejects(t *testing.T) {
	denied := token(solana.NewWallet().PublicKey(), platform.PumpFun)
	allowed := token(solana.NewWallet().PublicKey(), platform.PumpFun)

	filter, err := NewFilter(nil, []string{denied.Creator.String()}, nil, "")
	require.NoError(t, err)

	tr := &fakeTransport{source: platform.SourceLogs, run: func(ctx context.Context, sink Sink, _ int) error {
		sink.Emit(denied)
		sink.Emit(allowed)
		<-ctx.Done()
		return ctx.Err()
	}}

	dir := t.TempDir()
	journal, err := logger.NewTokenLogger(dir, quietLogger())
	require.NoError(t, err)

	hub := NewHub(Config{Filter: filter, Journal: journal}, quietLogger(), tr)
	c := newCollector()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx, c.handle)

	assert.Equal(t, allowed.Mint, c.wait(t).Mint)

	detections := hub.Detections()
	require.Len(t, detections, 2)
	assert.False(t, detections[0].Accepted)
	assert.Equal(t, "creator denied", detections[0].Reason)
	assert.True(t, detections[1].Accepted)
}

func TestHub_ReconnectsWithBackoff(t *testing.T) {
	subscribed := make(chan struct{})
	tr := &fakeTransport{source: platform.SourceBlocks, run: func(ctx context.Context, sink Sink, n int) error {
		if n < 3 {
			return errors.New("connection refused")
		}
		sink.SetState(Subscribed)
		close(subscribed)
		<-ctx.Done()
		return ctx.Err()
	}}

	hub := NewHub(Config{InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}, quietLogger(), tr)
	assert.Equal(t, Disconnected, hub.States()[platform.SourceBlocks])

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, func(context.Context, platform.TokenInfo) {}) }()

	select {
	case <-subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("transport never reconnected")
	}
	assert.Equal(t, int32(3), tr.runs.Load())
	assert.Equal(t, Subscribed, hub.States()[platform.SourceBlocks])

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, Closed, hub.States()[platform.SourceBlocks])
}

func TestHub_ConcurrentDuplicates(t *testing.T) {
	const mints = 200
	keys := make([]solana.PublicKey, mints)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
	}

	sources := []platform.Source{platform.SourceLogs, platform.SourceBlocks, platform.SourceGeyser, platform.SourcePortal}
	var emitted sync.WaitGroup
	emitted.Add(len(sources))
	transports := make([]Transport, len(sources))
	for i, src := range sources {
		transports[i] = &fakeTransport{source: src, run: func(ctx context.Context, sink Sink, _ int) error {
			for _, k := range keys {
				sink.Emit(token(k, platform.PumpFun))
			}
			emitted.Done()
			<-ctx.Done()
			return ctx.Err()
		}}
	}

	var delivered atomic.Int32
	hub := NewHub(Config{}, quietLogger(), transports...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- hub.Run(ctx, func(context.Context, platform.TokenInfo) { delivered.Add(1) })
	}()

	// read records while they are being written
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for i := 0; i < 50; i++ {
			for _, d := range hub.Detections() {
				_ = len(d.Later)
			}
			hub.LatencyReport()
		}
	}()

	emitted.Wait()
	<-readerDone
	require.Eventually(t, func() bool { return delivered.Load() == mints }, 2*time.Second, 5*time.Millisecond)

	detections := hub.Detections()
	require.Len(t, detections, mints)
	for _, d := range detections {
		assert.True(t, d.Accepted)
		assert.Len(t, d.Later, len(sources)-1, d.Info.Mint.String())
		for _, a := range d.Later {
			assert.NotEqual(t, d.Winner, a.Source)
		}
	}

	total := 0
	for _, l := range hub.LatencyReport() {
		total += l.Seen
	}
	assert.Equal(t, mints*len(sources), total)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(mints), delivered.Load())
}

func TestHub_ReconnectWaitsStayWithinMaxBackoff(t *testing.T) {
	const (
		maxBackoff = 100 * time.Millisecond
		failures   = 5
	)
	fresh := solana.NewWallet().PublicKey()

	var mu sync.Mutex
	var starts []time.Time
	tr := &fakeTransport{source: platform.SourceGeyser, run: func(ctx context.Context, sink Sink, n int) error {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		if n <= failures {
			return errors.New("stream reset")
		}
		sink.SetState(Subscribed)
		sink.Emit(token(fresh, platform.LetsBonk))
		<-ctx.Done()
		return ctx.Err()
	}}

	hub := NewHub(Config{InitialBackoff: 60 * time.Millisecond, MaxBackoff: maxBackoff}, quietLogger(), tr)
	c := newCollector()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Run(ctx, c.handle) }()

	assert.Equal(t, fresh, c.wait(t).Mint)

	mu.Lock()
	require.Len(t, starts, failures+1)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.LessOrEqual(t, gap, maxBackoff+30*time.Millisecond, "reconnect %d", i)
	}
	mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

func TestHub_RunsOnce(t *testing.T) {
	tr := &fakeTransport{source: platform.SourceLogs, run: func(ctx context.Context, _ Sink, _ int) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	hub := NewHub(Config{}, quietLogger(), tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, hub.Run(ctx, func(context.Context, platform.TokenInfo) {}))
	assert.ErrorIs(t, hub.Run(context.Background(), func(context.Context, platform.TokenInfo) {}), ErrHubStopped)
}

func TestFilter(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	info := platform.TokenInfo{Name: "Moon Cat", Symbol: "MCAT", Creator: creator, Platform: platform.LetsBonk}

	f, err := NewFilter([]string{creator.String()}, nil, []string{"letsbonk"}, "cat")
	require.NoError(t, err)
	ok, _ := f.Check(info)
	assert.True(t, ok)

	ok, reason := Filter{}.Check(info)
	assert.True(t, ok)
	assert.Empty(t, reason)

	f, _ = NewFilter([]string{solana.NewWallet().PublicKey().String()}, nil, nil, "")
	_, reason = f.Check(info)
	assert.Equal(t, "creator not allowed", reason)

	f, _ = NewFilter(nil, nil, []string{"pump.fun"}, "")
	_, reason = f.Check(info)
	assert.Equal(t, "platform not allowed", reason)

	f, _ = NewFilter(nil, nil, nil, "dog")
	_, reason = f.Check(info)
	assert.Equal(t, "name does not match", reason)

	_, err = NewFilter([]string{"not-a-key"}, nil, nil, "")
	assert.Error(t, err)
	_, err = NewFilter(nil, nil, []string{"moonshot"}, "")
	assert.ErrorIs(t, err, platform.ErrUnknownPlatform)
}
