package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
	"lounge-monitor/src/session"
)

// -----------------------------------------------------------------------------
// Token Lifecycle Manager
// -----------------------------------------------------------------------------

// TokenManager keeps the access token fresh by exchanging the refresh
// credential on a fixed interval. A failed exchange never clears the current
// token; a stale token that still works is worth more than no token.
type TokenManager struct {
	Session  *session.Store
	Catalog  interfaces.ICatalogClient
	Notifier interfaces.INotifier
	Events   interfaces.IEventSink
	Metrics  *Metrics
	Logger   *logger.Logger

	interval time.Duration
	running  atomic.Bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu          sync.Mutex
	lastRefresh time.Time
}

// -----------------------------------------------------------------------------

func NewTokenManager(
	sess *session.Store,
	catalog interfaces.ICatalogClient,
	notifier interfaces.INotifier,
	events interfaces.IEventSink,
	metrics *Metrics,
	log *logger.Logger,
	interval time.Duration,
) *TokenManager {
	return &TokenManager{
		Session:  sess,
		Catalog:  catalog,
		Notifier: notifier,
		Events:   events,
		Metrics:  metrics,
		Logger:   log,
		interval: interval,
	}
}

// -----------------------------------------------------------------------------

// EnsureStarted launches the refresh loop when a refresh token is available.
// Safe to call again after a credential update; a running loop is left alone.
// The first exchange runs immediately so a freshly supplied refresh token is
// validated right away.
func (t *TokenManager) EnsureStarted(ctx context.Context) {
	if !t.Session.HasRefreshToken() {
		t.Logger.Warning("No refresh token configured, automatic refresh disabled")
		return
	}
	if !t.running.CompareAndSwap(false, true) {
		return
	}
	ctx, t.cancel = context.WithCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.Logger.Info("Token refresh loop started (every %s)", t.interval)

		t.refreshOnce(ctx)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				t.Logger.Info("Token refresh loop stopped")
				return
			case <-ticker.C:
				t.refreshOnce(ctx)
			}
		}
	}()
}

// -----------------------------------------------------------------------------

func (t *TokenManager) Stop() {
	if !t.running.CompareAndSwap(true, false) {
		return
	}
	t.cancel()
	t.wg.Wait()
}

// -----------------------------------------------------------------------------

func (t *TokenManager) Active() bool {
	return t.running.Load()
}

// LastRefresh returns when the last successful exchange happened; zero when
// none has succeeded yet.
func (t *TokenManager) LastRefresh() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRefresh
}

// -----------------------------------------------------------------------------

func (t *TokenManager) refreshOnce(ctx context.Context) {
	refreshToken := t.Session.RefreshToken()
	if refreshToken == "" {
		return
	}

	pair, err := t.Catalog.RefreshToken(ctx, refreshToken)
	if err != nil {
		t.Metrics.TokenRefreshes.WithLabelValues("failure").Inc()
		t.Logger.Error("Token refresh failed, keeping current token: %v", err)
		if nerr := t.Notifier.NotifyTokenRefreshFailed(err.Error()); nerr != nil {
			t.Logger.Error("Failed to send refresh-failure notification: %v", nerr)
		}
		t.publish(models.MMonitorEvent{Type: models.EventTokenFailed, Message: err.Error()})
		return
	}

	t.Session.ApplyRefresh(pair)
	t.Notifier.ResetTokenExpired()
	t.mu.Lock()
	t.lastRefresh = time.Now()
	t.mu.Unlock()

	t.Metrics.TokenRefreshes.WithLabelValues("success").Inc()
	t.Logger.Info("Token refreshed (expires in %ds)", pair.ExpiresIn)
	if nerr := t.Notifier.NotifyTokenRefreshed(); nerr != nil {
		t.Logger.Error("Failed to send refresh notification: %v", nerr)
	}
	t.publish(models.MMonitorEvent{Type: models.EventTokenRefreshed})
}

// -----------------------------------------------------------------------------

func (t *TokenManager) publish(event models.MMonitorEvent) {
	if t.Events == nil {
		return
	}
	event.Timestamp = time.Now()
	t.Events.Publish(event)
}
