package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
)

// -----------------------------------------------------------------------------
// Cart Lifecycle Manager
// -----------------------------------------------------------------------------

// CartManager keeps a reserved cart alive by prolonging it on a fixed
// interval. It runs only while there is something to keep: a successful
// reservation starts it, an empty cart stops it from the inside.
type CartManager struct {
	Catalog interfaces.ICatalogClient
	Events  interfaces.IEventSink
	Metrics *Metrics
	Logger  *logger.Logger

	interval time.Duration
	base     context.Context
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// -----------------------------------------------------------------------------

func NewCartManager(
	catalog interfaces.ICatalogClient,
	events interfaces.IEventSink,
	metrics *Metrics,
	log *logger.Logger,
	interval time.Duration,
) *CartManager {
	return &CartManager{
		Catalog:  catalog,
		Events:   events,
		Metrics:  metrics,
		Logger:   log,
		interval: interval,
	}
}

// -----------------------------------------------------------------------------

// Bind sets the parent context every extension loop derives from. Must be
// called once at startup, before any reservation can succeed.
func (c *CartManager) Bind(ctx context.Context) {
	c.base = ctx
}

// -----------------------------------------------------------------------------

// EnsureRunning starts the extension loop if it is not already running.
// Called after every successful reservation; a second reservation while the
// loop runs is a no-op.
func (c *CartManager) EnsureRunning() {
	if c.base == nil {
		c.Logger.Error("Cart manager not bound, extension loop unavailable")
		return
	}
	if !c.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.Logger.Info("Cart extension loop started (every %s)", c.interval)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				c.Logger.Info("Cart extension loop stopped")
				return
			case <-ticker.C:
				if !c.extendOnce(ctx) {
					c.running.Store(false)
					cancel()
					return
				}
			}
		}
	}()
}

// -----------------------------------------------------------------------------

// Stop halts the loop from the outside (shutdown path).
func (c *CartManager) Stop() {
	if !c.running.CompareAndSwap(true, false) {
		return
	}
	c.cancel()
	c.wg.Wait()
}

// -----------------------------------------------------------------------------

func (c *CartManager) Running() bool {
	return c.running.Load()
}

// -----------------------------------------------------------------------------

// extendOnce runs one keep-alive tick. Returns false when the loop should
// stop because the cart emptied out (bought or expired). Transient errors
// keep the loop alive; the reservation may still be salvageable next tick.
func (c *CartManager) extendOnce(ctx context.Context) bool {
	state, err := c.Catalog.GetCart(ctx)
	if err != nil {
		c.Logger.Error("Cart check failed: %v", err)
		return true
	}

	if state.IsEmpty {
		c.Logger.Info("Cart is empty, stopping extension loop")
		c.publish(models.MMonitorEvent{Type: models.EventCartEmpty})
		return false
	}

	extended, err := c.Catalog.ExtendCart(ctx)
	if err != nil {
		c.Logger.Error("Cart extension failed: %v", err)
		return true
	}

	c.Metrics.CartExtensions.Inc()
	c.Logger.Info("Cart extended, %ds remaining (prolong #%d)", extended.RemainingSeconds, extended.ProlongCounter)
	c.publish(models.MMonitorEvent{
		Type:    models.EventCartExtended,
		Message: fmt.Sprintf("%ds remaining", extended.RemainingSeconds),
	})
	return true
}

// -----------------------------------------------------------------------------

func (c *CartManager) publish(event models.MMonitorEvent) {
	if c.Events == nil {
		return
	}
	event.Timestamp = time.Now()
	c.Events.Publish(event)
}
