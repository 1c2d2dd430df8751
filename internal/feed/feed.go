// Package feed runs the producer goroutines and funnels their
// snapshots into the single bounded channel the dashboard consumes.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/nodetop/nodetop/internal/config"
	"github.com/nodetop/nodetop/internal/logger"
	"github.com/nodetop/nodetop/internal/metrics"
	"github.com/nodetop/nodetop/internal/rpc"
	"github.com/nodetop/nodetop/internal/system"
)

// updateBuffer bounds the channel between producers and the dashboard.
// A full buffer applies backpressure to producers; the UI only ever
// needs the freshest data, so a small buffer is enough.
const updateBuffer = 10

// Source names which producer an update came from.
type Source string

const (
	SourceMetrics Source = "metrics"
	SourceRPC     Source = "rpc"
	SourceSystem  Source = "system"
)

// Update is one producer result. Exactly one of the snapshot fields or
// Err is set.
type Update struct {
	Source  Source
	Metrics *metrics.Snapshot
	RPC     *rpc.Snapshot
	System  *system.Snapshot
	Err     error
}

// Dispatcher owns the three producers and their shared output channel.
type Dispatcher struct {
	cfg      *config.Config
	metrics  *metrics.Client
	rpc      *rpc.Client
	system   *system.Collector
	log      logger.Logger
	updates  chan Update
	pokeFast chan struct{}
	pokeSlow chan struct{}
}

// New wires clients from config. A nil log falls back to logger.Default.
func New(cfg *config.Config, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Default()
	}
	return &Dispatcher{
		cfg:      cfg,
		metrics:  metrics.NewClient(cfg.MetricsURL, cfg.RequestTimeout),
		rpc:      rpc.NewClient(cfg.RPCURL, cfg.RequestTimeout, log),
		system:   system.NewCollector(cfg, log),
		log:      log,
		updates:  make(chan Update, updateBuffer),
		pokeFast: make(chan struct{}, 1),
		pokeSlow: make(chan struct{}, 1),
	}
}

// Updates is the channel the dashboard drains. Updates arrive in send
// order per producer; there is no ordering across producers.
func (d *Dispatcher) Updates() <-chan Update {
	return d.updates
}

// Start launches the producers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.runMetrics(ctx)
	go d.runSystem(ctx)

	if d.rpc.SubscribeMode() {
		go d.runSubscription(ctx)
	} else {
		go d.runRPCPolling(ctx)
	}
}

// Refresh asks both cadence loops to fetch now instead of on their
// next tick. Non-blocking; a refresh already pending is enough.
func (d *Dispatcher) Refresh() {
	select {
	case d.pokeFast <- struct{}{}:
	default:
	}
	select {
	case d.pokeSlow <- struct{}{}:
	default:
	}
}

// runMetrics polls the exposition endpoint on the fast cadence.
func (d *Dispatcher) runMetrics(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		snap, err := d.metrics.Fetch(ctx)
		if err != nil {
			d.log.Debug("feed: metrics poll failed: %v", err)
			d.send(ctx, Update{Source: SourceMetrics, Err: fmt.Errorf("metrics: %w", err)})
		} else {
			d.send(ctx, Update{Source: SourceMetrics, Metrics: snap})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.pokeFast:
		}
	}
}

// runRPCPolling drives the HTTP strategy on the fast cadence. In
// subscription mode this loop never runs; the websocket pushes instead.
func (d *Dispatcher) runRPCPolling(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		snap, err := d.rpc.Fetch(ctx)
		if err != nil {
			d.log.Debug("feed: rpc poll failed: %v", err)
			d.send(ctx, Update{Source: SourceRPC, Err: fmt.Errorf("rpc: %w", err)})
		} else {
			d.send(ctx, Update{Source: SourceRPC, RPC: snap})
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runSubscription forwards websocket snapshots into the shared channel.
func (d *Dispatcher) runSubscription(ctx context.Context) {
	sink := make(chan *rpc.Snapshot, updateBuffer)
	go d.rpc.Subscribe(ctx, sink)

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-sink:
			d.send(ctx, Update{Source: SourceRPC, RPC: snap})
		}
	}
}

// runSystem runs the slow probes.
func (d *Dispatcher) runSystem(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SystemInterval)
	defer ticker.Stop()

	for {
		snap := d.system.Fetch(ctx)
		d.send(ctx, Update{Source: SourceSystem, System: snap})

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-d.pokeSlow:
		}
	}
}

// send delivers an update unless the consumer is gone.
func (d *Dispatcher) send(ctx context.Context, u Update) {
	select {
	case d.updates <- u:
	case <-ctx.Done():
	}
}
