package monitor

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"lounge-monitor/src/helpers"
	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
	"lounge-monitor/src/session"
	"lounge-monitor/src/watch"
)

// -----------------------------------------------------------------------------
// Monitor Engine
// -----------------------------------------------------------------------------

// Engine ties the watch registry, catalog client, notifier and audit log
// together. It owns the watch lifecycle and the transition handling shared by
// the poll loop and the add-watch path.
type Engine struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Registry *watch.Registry
	Session  *session.Store
	Catalog  interfaces.ICatalogClient
	Notifier interfaces.INotifier
	History  interfaces.IHistoryStore
	Events   interfaces.IEventSink
	Metrics  *Metrics

	// Cart is assigned after construction, before any loop starts.
	Cart *CartManager

	autoReserve atomic.Bool
}

// -----------------------------------------------------------------------------

func NewEngine(
	cfg *models.MConfig,
	log *logger.Logger,
	registry *watch.Registry,
	sess *session.Store,
	catalog interfaces.ICatalogClient,
	notifier interfaces.INotifier,
	history interfaces.IHistoryStore,
	events interfaces.IEventSink,
	metrics *Metrics,
) *Engine {
	e := &Engine{
		Config:   cfg,
		Logger:   log,
		Registry: registry,
		Session:  sess,
		Catalog:  catalog,
		Notifier: notifier,
		History:  history,
		Events:   events,
		Metrics:  metrics,
	}
	e.autoReserve.Store(cfg.Monitor.AutoReserve)
	return e
}

// -----------------------------------------------------------------------------
// Auto-Reserve Toggle
// -----------------------------------------------------------------------------

func (e *Engine) AutoReserve() bool {
	return e.autoReserve.Load()
}

func (e *Engine) SetAutoReserve(enabled bool) {
	e.autoReserve.Store(enabled)
	e.Logger.Info("Auto reserve set to %t", enabled)
}

// -----------------------------------------------------------------------------
// Watch Lifecycle
// -----------------------------------------------------------------------------

// FetchPreview loads a product's details and live stock so a caller can pick
// which variants to watch before committing. Details come from the LRU cache
// when the article was previewed before; stock is always fetched live.
func (e *Engine) FetchPreview(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, []models.MSizeAvailability, error) {
	info, sizeMapping, simpleSkus, err := e.Catalog.FetchProductDetailsCached(ctx, campaignID, articleID)
	if err != nil {
		return nil, nil, err
	}

	stock, err := e.Catalog.CheckStock(ctx, info.ConfigSku, simpleSkus, campaignID)
	if err != nil {
		e.reportCheckError(watch.Key(campaignID, articleID), err)
		return nil, nil, err
	}

	sizes := make([]models.MSizeAvailability, 0, len(simpleSkus))
	for _, sku := range simpleSkus {
		entry := stock[sku]
		sizes = append(sizes, models.MSizeAvailability{
			SimpleSku: sku,
			Size:      sizeMapping[sku].Size,
			InStock:   entry.InStock,
			Quantity:  entry.Quantity,
		})
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i].SimpleSku < sizes[j].SimpleSku })
	return info, sizes, nil
}

// -----------------------------------------------------------------------------

// AddWatch fetches a product, records the initial stock snapshot and starts
// watching it. Variants already in stock at add time alert (and reserve)
// immediately and enter the dedup set, so the first poll pass stays quiet
// until something actually flips. An empty watchedSizes watches every
// variant.
func (e *Engine) AddWatch(ctx context.Context, campaignID, articleID string, watchedSizes []string) (*models.MWatchSnapshot, error) {
	info, sizeMapping, simpleSkus, err := e.Catalog.FetchProductDetails(ctx, campaignID, articleID)
	if err != nil {
		return nil, err
	}

	stock, err := e.Catalog.CheckStock(ctx, info.ConfigSku, simpleSkus, campaignID)
	if err != nil {
		// The add fails as a whole; stale credentials additionally raise
		// the deduplicated expiry alert.
		e.reportCheckError(watch.Key(campaignID, articleID), err)
		return nil, err
	}

	if len(watchedSizes) == 0 {
		watchedSizes = simpleSkus
	}
	watchedSet := make(map[string]struct{}, len(watchedSizes))
	for _, sku := range watchedSizes {
		watchedSet[sku] = struct{}{}
	}

	key := watch.Key(campaignID, articleID)
	var notified []string
	for _, sku := range simpleSkus {
		entry, seen := stock[sku]
		if _, watched := watchedSet[sku]; !watched || !seen || !entry.InStock {
			continue
		}
		event := models.MTransitionEvent{
			ProductKey:     key,
			CampaignID:     campaignID,
			ArticleID:      articleID,
			ConfigSku:      info.ConfigSku,
			SimpleSku:      sku,
			Size:           sizeMapping[sku].Size,
			Quantity:       entry.Quantity,
			CurrentInStock: true,
		}
		e.HandleTransition(ctx, *info, event)
		notified = append(notified, sku)
	}

	w := watch.NewWatchedProduct(campaignID, articleID, *info, sizeMapping, simpleSkus, watchedSizes, stock, notified)
	e.Registry.Insert(w)
	e.Metrics.WatchedCount.Set(float64(e.Registry.Len()))

	if err := e.History.RecordWatchAdded(w); err != nil {
		e.Logger.Error("Failed to record watch history for %s: %v", key, err)
	}
	e.publish(models.MMonitorEvent{
		Type:       models.EventWatchAdded,
		ProductKey: key,
		Message:    info.Brand + " - " + info.Title,
	})

	snap, _ := e.Registry.Snapshot(key)
	return snap, nil
}

// -----------------------------------------------------------------------------

// RemoveWatch stops watching a product.
func (e *Engine) RemoveWatch(key string) bool {
	if !e.Registry.Remove(key) {
		return false
	}
	e.Metrics.WatchedCount.Set(float64(e.Registry.Len()))
	if err := e.History.RecordWatchRemoved(key); err != nil {
		e.Logger.Error("Failed to record watch removal for %s: %v", key, err)
	}
	e.publish(models.MMonitorEvent{Type: models.EventWatchRemoved, ProductKey: key})
	return true
}

// -----------------------------------------------------------------------------
// Transition Handling
// -----------------------------------------------------------------------------

// HandleTransition processes one restock: optional reservation attempt, then
// exactly one alert carrying the reservation outcome, then the audit row.
// Called from the poll loop and from AddWatch for variants already in stock.
func (e *Engine) HandleTransition(ctx context.Context, info models.MProductInfo, event models.MTransitionEvent) {
	e.Metrics.Transitions.Inc()
	e.Logger.Info("Restock: %s size %s (%d available)", event.ProductKey, event.Size, event.Quantity)

	var reservation *models.MReservationResult
	if e.AutoReserve() {
		reservation = e.attemptReservation(ctx, event)
	}
	reserved := reservation != nil && reservation.Success

	if err := e.Notifier.NotifyStock(info, event, reservation); err != nil {
		e.Logger.Error("Failed to send stock alert for %s: %v", event.SimpleSku, err)
	} else {
		e.Metrics.AlertsSent.Inc()
	}

	if err := e.History.RecordAlert(event, reserved); err != nil {
		e.Logger.Error("Failed to record alert history for %s: %v", event.SimpleSku, err)
	}

	eventType := models.EventStockAlert
	if reserved {
		eventType = models.EventReservation
	}
	e.publish(models.MMonitorEvent{
		Type:       eventType,
		ProductKey: event.ProductKey,
		SimpleSku:  event.SimpleSku,
		Size:       event.Size,
		Quantity:   event.Quantity,
		Reserved:   reserved,
	})
}

// -----------------------------------------------------------------------------

// attemptReservation makes exactly one cart insertion attempt. No retry: by
// the time a retry would land the stock is gone anyway. A success hands the
// cart over to the extension loop.
func (e *Engine) attemptReservation(ctx context.Context, event models.MTransitionEvent) *models.MReservationResult {
	flags := e.Session.Flags()
	withSecurity := flags.HasCookies || flags.HasSensorData

	result, err := e.Catalog.AddToCart(ctx, event.ConfigSku, event.SimpleSku, event.CampaignID, withSecurity)
	if err != nil {
		e.Metrics.Reservations.WithLabelValues("error").Inc()
		e.Logger.Error("Reservation failed for %s: %v", event.SimpleSku, err)
		return &models.MReservationResult{Success: false, Error: err.Error()}
	}

	if result.Success {
		e.Metrics.Reservations.WithLabelValues("success").Inc()
		e.Logger.Info("Reserved %s for %ds", event.SimpleSku, result.RemainingSeconds)
		if e.Cart != nil {
			e.Cart.EnsureRunning()
		}
	} else {
		e.Metrics.Reservations.WithLabelValues("rejected").Inc()
		e.Logger.Warning("Reservation rejected for %s: %s", event.SimpleSku, result.Error)
	}
	return result
}

// -----------------------------------------------------------------------------

// TestReservation runs a single manual cart insertion, bypassing the
// auto-reserve toggle. Used to validate a freshly captured security session,
// with or without replaying it.
func (e *Engine) TestReservation(ctx context.Context, configSku, simpleSku, campaignID string, withSecurity bool) (*models.MReservationResult, error) {
	result, err := e.Catalog.AddToCart(ctx, configSku, simpleSku, campaignID, withSecurity)
	if err != nil {
		return nil, err
	}
	if result.Success && e.Cart != nil {
		e.Cart.EnsureRunning()
	}
	return result, nil
}

// -----------------------------------------------------------------------------
// Credential Failure Handling
// -----------------------------------------------------------------------------

// reportCheckError routes one failed stock check. Stale credentials raise the
// deduplicated expiry alert; everything else is logged and counted. The loop
// never stops for either.
func (e *Engine) reportCheckError(key string, err error) {
	label := helpers.ErrorTypeLabel(err)
	e.Metrics.CheckErrors.WithLabelValues(label).Inc()

	if helpers.IsUnauthorized(err) {
		if e.Notifier.NotifyTokenExpired(err.Error()) {
			e.publish(models.MMonitorEvent{Type: models.EventTokenExpired, Message: err.Error()})
		}
		e.Logger.Warning("Stock check for %s rejected, credentials stale", key)
		return
	}
	e.Logger.Error("Stock check failed for %s (%s): %v", key, label, err)
}

// -----------------------------------------------------------------------------

func (e *Engine) publish(event models.MMonitorEvent) {
	if e.Events == nil {
		return
	}
	event.Timestamp = time.Now()
	e.Events.Publish(event)
}
