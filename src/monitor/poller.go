package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lounge-monitor/src/logger"
)

// -----------------------------------------------------------------------------
// Poll Scheduler
// -----------------------------------------------------------------------------

// Poller drives the periodic stock pass. One goroutine runs all passes, so a
// slow pass can never overlap the next; the ticker simply drops the ticks
// that fire while a pass is still running.
type Poller struct {
	Engine *Engine
	Logger *logger.Logger

	interval time.Duration
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewPoller(engine *Engine, log *logger.Logger, interval time.Duration) *Poller {
	return &Poller{
		Engine:   engine,
		Logger:   log,
		interval: interval,
	}
}

// -----------------------------------------------------------------------------

// Start launches the poll loop. The first pass runs after one full interval;
// AddWatch already alerted on anything in stock at submission time.
func (p *Poller) Start(ctx context.Context) {
	if !p.running.CompareAndSwap(false, true) {
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Logger.Info("Poll loop started (every %s)", p.interval)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.Logger.Info("Poll loop stopped")
				return
			case <-ticker.C:
				p.runPass(ctx)
			}
		}
	}()
}

// -----------------------------------------------------------------------------

// Stop cancels the loop and waits for an in-flight pass to finish.
func (p *Poller) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	p.wg.Wait()
}

// -----------------------------------------------------------------------------

func (p *Poller) Running() bool {
	return p.running.Load()
}

// -----------------------------------------------------------------------------

// runPass checks every watched product sequentially. Errors are per-product:
// a failed check skips that product's diff and the pass moves on. A panic in
// one pass is contained so the loop survives a malformed response that slips
// through the decode layer.
func (p *Poller) runPass(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("Poll pass panicked: %v", r)
		}
	}()

	engine := p.Engine
	targets := engine.Registry.Targets()
	if len(targets) == 0 {
		return
	}
	engine.Metrics.PollPasses.Inc()
	p.Logger.Debug("Poll pass over %d products", len(targets))

	for _, target := range targets {
		if ctx.Err() != nil {
			return
		}

		engine.Metrics.StockChecks.Inc()
		snapshot, err := engine.Catalog.CheckStock(ctx, target.ConfigSku, target.SimpleSkus, target.CampaignID)
		if err != nil {
			engine.reportCheckError(target.Key, err)
			continue
		}

		events, err := engine.Registry.EvaluateSnapshot(target.Key, snapshot)
		if err != nil {
			// Watch removed mid-pass; the result is stale, drop it.
			p.Logger.Debug("Dropping stale snapshot for %s", target.Key)
			continue
		}

		snap, ok := engine.Registry.Snapshot(target.Key)
		if !ok {
			continue
		}
		for _, event := range events {
			engine.HandleTransition(ctx, snap.ProductInfo, event)
		}
	}
}
