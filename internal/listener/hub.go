package listener

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"launch-sniper-go/internal/logger"
	"launch-sniper-go/internal/platform"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrHubStopped is returned by Run on a hub that has already run
var ErrHubStopped = errors.New("listener hub stopped")

// Handler receives each unique accepted token once, in first-detected order
type Handler func(ctx context.Context, info platform.TokenInfo)

// Journal records every first detection, accepted or filtered
type Journal interface {
	LogDetection(d logger.TokenDetection) error
}

// Config contains hub settings
type Config struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BufferSize     int
	Filter         Filter
	Journal        Journal
}

// Arrival is a later detection of an already seen mint
type Arrival struct {
	Source platform.Source
	Delay  time.Duration
}

// Detection is the dedup record of one mint
type Detection struct {
	Info      platform.TokenInfo
	FirstSeen time.Time
	Winner    platform.Source
	Accepted  bool
	Reason    string
	Later     []Arrival
}

// SourceLatency summarizes how a transport compares to the others
type SourceLatency struct {
	Wins     int
	Seen     int
	AvgDelay time.Duration
	MaxDelay time.Duration
}

type record struct {
	mu sync.Mutex
	d  Detection
}

func (r *record) arrive(src platform.Source, at time.Time) {
	r.mu.Lock()
	r.d.Later = append(r.d.Later, Arrival{Source: src, Delay: at.Sub(r.d.FirstSeen)})
	r.mu.Unlock()
}

func (r *record) snapshot() Detection {
	r.mu.Lock()
	defer r.mu.Unlock()
	d := r.d
	d.Later = append([]Arrival(nil), r.d.Later...)
	return d
}

// Hub fans in transports, keeps the first detection of each mint and hands
// accepted tokens to a single handler goroutine
type Hub struct {
	cfg        Config
	transports []Transport
	logger     *logrus.Entry
	states     *stateTable
	now        func() time.Time

	seen  sync.Map // solana.PublicKey -> *record
	order sync.Mutex
	out   chan platform.TokenInfo

	ctx     context.Context
	started atomic.Bool
}

// NewHub creates a hub over transports
func NewHub(cfg Config, logger *logrus.Logger, transports ...Transport) *Hub {
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}

	h := &Hub{
		cfg:        cfg,
		transports: transports,
		logger:     logger.WithField("component", "listener_hub"),
		states:     newStateTable(),
		now:        time.Now,
		out:        make(chan platform.TokenInfo, cfg.BufferSize),
	}
	for _, t := range transports {
		h.states.set(t.Source(), Disconnected)
	}
	return h
}

// Run starts every transport and blocks until ctx is done. A hub runs once;
// later calls return ErrHubStopped.
func (h *Hub) Run(ctx context.Context, handler Handler) error {
	if !h.started.CompareAndSwap(false, true) {
		return ErrHubStopped
	}
	if len(h.transports) == 0 {
		return errors.New("no transports configured")
	}

	g, gctx := errgroup.WithContext(ctx)
	h.ctx = gctx

	h.logger.WithField("transports", len(h.transports)).Info("🎧 Listener hub starting")

	for _, t := range h.transports {
		t := t
		g.Go(func() error {
			h.runTransport(gctx, t)
			return nil
		})
	}
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case info := <-h.out:
				handler(gctx, info)
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		h.logger.Info("🛑 Listener hub stopped")
		return nil
	}
	return err
}

func (h *Hub) runTransport(ctx context.Context, t Transport) {
	src := t.Source()
	log := h.logger.WithField("transport", src)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.cfg.InitialBackoff
	b.MaxInterval = h.cfg.MaxBackoff
	b.MaxElapsedTime = 0
	// no jitter: waits never exceed MaxBackoff
	b.RandomizationFactor = 0
	b.Reset()

	sink := &transportSink{hub: h, source: src}
	for {
		h.states.set(src, Connecting)
		sink.subscribed.Store(false)

		err := t.Run(ctx, sink)
		if ctx.Err() != nil {
			h.states.set(src, Closed)
			return
		}
		if sink.subscribed.Load() {
			b.Reset()
		}

		h.states.set(src, Reconnecting)
		wait := b.NextBackOff()
		if wait > h.cfg.MaxBackoff {
			wait = h.cfg.MaxBackoff
		}
		log.WithError(err).WithField("retry_in", wait).Warn("🔄 Transport disconnected, reconnecting")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			h.states.set(src, Closed)
			return
		case <-timer.C:
		}
	}
}

type transportSink struct {
	hub        *Hub
	source     platform.Source
	subscribed atomic.Bool
}

func (s *transportSink) Emit(info platform.TokenInfo) { s.hub.emit(s.source, info) }

func (s *transportSink) SetState(st State) {
	if st == Subscribed {
		s.subscribed.Store(true)
	}
	s.hub.states.set(s.source, st)
}

func (h *Hub) emit(src platform.Source, info platform.TokenInfo) {
	at := h.now()
	if v, ok := h.seen.Load(info.Mint); ok {
		v.(*record).arrive(src, at)
		return
	}

	h.order.Lock()
	defer h.order.Unlock()

	// the record is complete before LoadOrStore publishes it; after that it
	// is only touched under rec.mu
	accepted, reason := h.cfg.Filter.Check(info)
	rec := &record{d: Detection{Info: info, FirstSeen: at, Winner: src, Accepted: accepted, Reason: reason}}
	if v, loaded := h.seen.LoadOrStore(info.Mint, rec); loaded {
		v.(*record).arrive(src, at)
		return
	}

	h.journal(rec.snapshot())
	if !accepted {
		return
	}

	select {
	case h.out <- info:
	case <-h.ctx.Done():
	}
}

func (h *Hub) journal(d Detection) {
	if h.cfg.Journal == nil {
		if d.Accepted {
			h.logger.WithFields(logrus.Fields{
				"mint":     d.Info.Mint,
				"symbol":   d.Info.Symbol,
				"platform": d.Info.Platform,
				"source":   d.Winner,
			}).Info("🆕 New token detected")
		}
		return
	}

	err := h.cfg.Journal.LogDetection(logger.TokenDetection{
		Mint:       d.Info.Mint.String(),
		Name:       d.Info.Name,
		Symbol:     d.Info.Symbol,
		URI:        d.Info.URI,
		Creator:    d.Info.Creator.String(),
		Platform:   string(d.Info.Platform),
		Source:     string(d.Winner),
		Signature:  d.Info.Signature,
		CreatedAt:  d.Info.CreatedAt,
		DetectedAt: d.FirstSeen,
		Accepted:   d.Accepted,
		Reason:     d.Reason,
	})
	if err != nil {
		h.logger.WithError(err).Warn("⚠️ Failed to journal detection")
	}
}

// States returns the current state of every transport
func (h *Hub) States() map[platform.Source]State {
	return h.states.snapshot()
}

// Detections returns every dedup record ordered by first detection
func (h *Hub) Detections() []Detection {
	var out []Detection
	h.seen.Range(func(_, v interface{}) bool {
		out = append(out, v.(*record).snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FirstSeen.Before(out[j].FirstSeen) })
	return out
}

// LatencyReport compares transports: wins, total sightings and how far
// behind the winner their later arrivals were
func (h *Hub) LatencyReport() map[platform.Source]SourceLatency {
	report := make(map[platform.Source]SourceLatency)
	delays := make(map[platform.Source]time.Duration)
	late := make(map[platform.Source]int)

	for _, d := range h.Detections() {
		w := report[d.Winner]
		w.Wins++
		w.Seen++
		report[d.Winner] = w

		for _, a := range d.Later {
			s := report[a.Source]
			s.Seen++
			if a.Delay > s.MaxDelay {
				s.MaxDelay = a.Delay
			}
			report[a.Source] = s
			delays[a.Source] += a.Delay
			late[a.Source]++
		}
	}
	for src, n := range late {
		s := report[src]
		s.AvgDelay = delays[src] / time.Duration(n)
		report[src] = s
	}
	return report
}
