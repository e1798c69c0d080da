package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"lounge-monitor/src/helpers"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
	"lounge-monitor/src/session"
	"lounge-monitor/src/watch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeCatalog struct {
	mu sync.Mutex

	details      *models.MProductInfo
	sizeMapping  map[string]models.MSizeInfo
	simpleSkus   []string
	detailsErr   error
	detailsCalls int
	cachedCalls  int

	stock    map[string]models.MStockEntry
	stockErr error

	addResult *models.MReservationResult
	addErr    error
	addCalls  int

	cart      *models.MCartState
	cartErr   error
	extended  *models.MCartState
	extendErr error

	refreshPair *models.MTokenPair
	refreshErr  error
}

func (f *fakeCatalog) FetchProductDetails(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error) {
	f.mu.Lock()
	f.detailsCalls++
	f.mu.Unlock()
	if f.detailsErr != nil {
		return nil, nil, nil, f.detailsErr
	}
	return f.details, f.sizeMapping, f.simpleSkus, nil
}

func (f *fakeCatalog) FetchProductDetailsCached(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error) {
	f.mu.Lock()
	f.cachedCalls++
	f.mu.Unlock()
	if f.detailsErr != nil {
		return nil, nil, nil, f.detailsErr
	}
	return f.details, f.sizeMapping, f.simpleSkus, nil
}

func (f *fakeCatalog) CheckStock(ctx context.Context, configSku string, simpleSkus []string, campaignID string) (map[string]models.MStockEntry, error) {
	if f.stockErr != nil {
		return nil, f.stockErr
	}
	return f.stock, nil
}

func (f *fakeCatalog) AddToCart(ctx context.Context, configSku, simpleSku, campaignID string, withSecuritySession bool) (*models.MReservationResult, error) {
	f.mu.Lock()
	f.addCalls++
	f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	return f.addResult, nil
}

func (f *fakeCatalog) GetCart(ctx context.Context) (*models.MCartState, error) {
	if f.cartErr != nil {
		return nil, f.cartErr
	}
	return f.cart, nil
}

func (f *fakeCatalog) ExtendCart(ctx context.Context) (*models.MCartState, error) {
	if f.extendErr != nil {
		return nil, f.extendErr
	}
	return f.extended, nil
}

func (f *fakeCatalog) RefreshToken(ctx context.Context, refreshToken string) (*models.MTokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshPair, nil
}

// -----------------------------------------------------------------------------

type fakeNotifier struct {
	mu sync.Mutex

	stockAlerts  []models.MTransitionEvent
	reservations []*models.MReservationResult

	expiredSent      bool
	expiredDelivered int
	resets           int
	refreshed        int
	refreshFailed    int
}

func (f *fakeNotifier) NotifyStock(info models.MProductInfo, event models.MTransitionEvent, reservation *models.MReservationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockAlerts = append(f.stockAlerts, event)
	f.reservations = append(f.reservations, reservation)
	return nil
}

func (f *fakeNotifier) NotifyTokenExpired(errMsg string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expiredSent {
		return false
	}
	f.expiredSent = true
	f.expiredDelivered++
	return true
}

func (f *fakeNotifier) ResetTokenExpired() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expiredSent = false
	f.resets++
}

func (f *fakeNotifier) NotifyTokenRefreshed() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed++
	return nil
}

func (f *fakeNotifier) NotifyTokenRefreshFailed(errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshFailed++
	return nil
}

// -----------------------------------------------------------------------------

type fakeHistory struct {
	mu      sync.Mutex
	added   []string
	removed []string
	alerts  []models.MAlertHistoryEntry
}

func (f *fakeHistory) Initialize() error { return nil }

func (f *fakeHistory) RecordWatchAdded(w *models.MWatchedProduct) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, w.Key)
	return nil
}

func (f *fakeHistory) RecordWatchRemoved(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	return nil
}

func (f *fakeHistory) RecordAlert(event models.MTransitionEvent, reserved bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, models.MAlertHistoryEntry{
		ProductKey: event.ProductKey,
		SimpleSku:  event.SimpleSku,
		Size:       event.Size,
		Quantity:   event.Quantity,
		Reserved:   reserved,
	})
	return nil
}

func (f *fakeHistory) ListWatchHistory(limit int) ([]models.MWatchHistoryEntry, error) { return nil, nil }
func (f *fakeHistory) ListAlertHistory(limit int) ([]models.MAlertHistoryEntry, error) { return nil, nil }
func (f *fakeHistory) Close() error                                                    { return nil }

// -----------------------------------------------------------------------------

func testEngine(t *testing.T, catalog *fakeCatalog) (*Engine, *fakeNotifier, *fakeHistory) {
	t.Helper()

	cfg := &models.MConfig{
		Monitor: models.MMonitorConfig{
			CheckIntervalSeconds:      60,
			TokenRefreshMinutes:       50,
			CartExtendIntervalSeconds: 300,
		},
	}
	log := logger.NewLogger("ERROR", "test")
	notifier := &fakeNotifier{}
	history := &fakeHistory{}
	engine := NewEngine(
		cfg, log,
		watch.NewRegistry(log),
		session.NewStore("", ""),
		catalog, notifier, history, nil,
		NewMetrics(prometheus.NewRegistry()),
	)
	return engine, notifier, history
}

func restockedCatalog() *fakeCatalog {
	return &fakeCatalog{
		details: &models.MProductInfo{Title: "Runner", Brand: "Acme", ConfigSku: "CFG"},
		sizeMapping: map[string]models.MSizeInfo{
			"S-40": {Size: "40"},
			"S-41": {Size: "41"},
		},
		simpleSkus: []string{"S-40", "S-41"},
		stock: map[string]models.MStockEntry{
			"S-40": {Quantity: 2, StockStatus: "AVAILABLE", InStock: true},
			"S-41": {Quantity: 0, StockStatus: "OUT_OF_STOCK", InStock: false},
		},
	}
}

// -----------------------------------------------------------------------------
// AddWatch
// -----------------------------------------------------------------------------

func TestAddWatchAlertsOnVariantsAlreadyInStock(t *testing.T) {
	engine, notifier, history := testEngine(t, restockedCatalog())

	snap, err := engine.AddWatch(context.Background(), "CAMP", "ART", nil)
	require.NoError(t, err)
	require.Equal(t, "CAMP-ART", snap.Key)

	// S-40 was in stock at add time: one synchronous alert, dedup seeded.
	require.Len(t, notifier.stockAlerts, 1)
	require.Equal(t, "S-40", notifier.stockAlerts[0].SimpleSku)
	require.Equal(t, []string{"S-40"}, snap.Notified)

	// Empty watch list means every variant is watched.
	require.Equal(t, []string{"S-40", "S-41"}, snap.WatchedSizes)

	require.Equal(t, []string{"CAMP-ART"}, history.added)
	require.Len(t, history.alerts, 1)
}

// -----------------------------------------------------------------------------

func TestAddWatchOnlyAlertsWatchedVariants(t *testing.T) {
	engine, notifier, _ := testEngine(t, restockedCatalog())

	snap, err := engine.AddWatch(context.Background(), "CAMP", "ART", []string{"S-41"})
	require.NoError(t, err)

	// S-40 is in stock but unwatched: silence.
	require.Empty(t, notifier.stockAlerts)
	require.Empty(t, snap.Notified)
}

// -----------------------------------------------------------------------------

func TestAddWatchFailsWhenStockCheckFails(t *testing.T) {
	catalog := restockedCatalog()
	catalog.stockErr = helpers.NewRemote(500, "boom")
	engine, notifier, history := testEngine(t, catalog)

	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", nil)
	require.Error(t, err)

	// No half-added watch, no alert, no audit row.
	require.Zero(t, engine.Registry.Len())
	require.Empty(t, notifier.stockAlerts)
	require.Empty(t, history.added)
	require.Zero(t, notifier.expiredDelivered)
}

// -----------------------------------------------------------------------------

func TestAddWatchRejectedStockCheckRaisesExpiredAlert(t *testing.T) {
	catalog := restockedCatalog()
	catalog.stockErr = helpers.NewUnauthorized(403)
	engine, notifier, _ := testEngine(t, catalog)

	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", nil)
	require.Error(t, err)
	require.True(t, helpers.IsUnauthorized(err))
	require.Zero(t, engine.Registry.Len())

	// Stale credentials surface through the deduplicated expiry alert too.
	require.Equal(t, 1, notifier.expiredDelivered)
}

// -----------------------------------------------------------------------------

func TestAddWatchPropagatesDetailsFailure(t *testing.T) {
	catalog := restockedCatalog()
	catalog.detailsErr = helpers.NewUnauthorized(401)
	engine, _, _ := testEngine(t, catalog)

	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", nil)
	require.Error(t, err)
	require.True(t, helpers.IsUnauthorized(err))
	require.Zero(t, engine.Registry.Len())
}

// -----------------------------------------------------------------------------
// FetchPreview
// -----------------------------------------------------------------------------

func TestFetchPreviewReadsDetailsThroughCache(t *testing.T) {
	catalog := restockedCatalog()
	engine, _, _ := testEngine(t, catalog)

	info, sizes, err := engine.FetchPreview(context.Background(), "CAMP", "ART")
	require.NoError(t, err)
	require.Equal(t, "Runner", info.Title)
	require.Len(t, sizes, 2)
	require.True(t, sizes[0].InStock)

	// The preview path is the cached one; the uncached fetch stays untouched.
	require.Equal(t, 1, catalog.cachedCalls)
	require.Zero(t, catalog.detailsCalls)
}

// -----------------------------------------------------------------------------

func TestFetchPreviewSurfacesStockCheckError(t *testing.T) {
	catalog := restockedCatalog()
	catalog.stockErr = helpers.NewUnauthorized(401)
	engine, notifier, _ := testEngine(t, catalog)

	_, _, err := engine.FetchPreview(context.Background(), "CAMP", "ART")
	require.Error(t, err)
	require.True(t, helpers.IsUnauthorized(err))
	require.Equal(t, 1, notifier.expiredDelivered)
}

// -----------------------------------------------------------------------------

func TestRemoveWatch(t *testing.T) {
	engine, _, history := testEngine(t, restockedCatalog())
	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", []string{"S-41"})
	require.NoError(t, err)

	require.True(t, engine.RemoveWatch("CAMP-ART"))
	require.False(t, engine.RemoveWatch("CAMP-ART"))
	require.Equal(t, []string{"CAMP-ART"}, history.removed)
}

// -----------------------------------------------------------------------------
// HandleTransition
// -----------------------------------------------------------------------------

func transitionEvent() models.MTransitionEvent {
	return models.MTransitionEvent{
		ProductKey:     "CAMP-ART",
		CampaignID:     "CAMP",
		ArticleID:      "ART",
		ConfigSku:      "CFG",
		SimpleSku:      "S-40",
		Size:           "40",
		Quantity:       2,
		CurrentInStock: true,
	}
}

func TestHandleTransitionWithoutAutoReserve(t *testing.T) {
	catalog := restockedCatalog()
	engine, notifier, history := testEngine(t, catalog)

	engine.HandleTransition(context.Background(), models.MProductInfo{}, transitionEvent())

	require.Zero(t, catalog.addCalls)
	require.Len(t, notifier.stockAlerts, 1)
	require.Nil(t, notifier.reservations[0])
	require.False(t, history.alerts[0].Reserved)
}

// -----------------------------------------------------------------------------

func TestHandleTransitionAutoReserveSuccess(t *testing.T) {
	catalog := restockedCatalog()
	catalog.addResult = &models.MReservationResult{Success: true, RemainingSeconds: 1200}
	engine, notifier, history := testEngine(t, catalog)
	engine.SetAutoReserve(true)

	engine.HandleTransition(context.Background(), models.MProductInfo{}, transitionEvent())

	require.Equal(t, 1, catalog.addCalls)
	require.Len(t, notifier.stockAlerts, 1)
	require.True(t, notifier.reservations[0].Success)
	require.True(t, history.alerts[0].Reserved)
}

// -----------------------------------------------------------------------------

func TestAutoReserveSuccessStartsCartExtension(t *testing.T) {
	catalog := restockedCatalog()
	catalog.addResult = &models.MReservationResult{Success: true, RemainingSeconds: 1200}
	catalog.cart = &models.MCartState{
		Items:            []models.MCartItem{{SimpleSku: "S-40", Quantity: 1}},
		RemainingSeconds: 1200,
	}
	engine, _, _ := testEngine(t, catalog)
	engine.SetAutoReserve(true)

	cart := NewCartManager(catalog, nil, engine.Metrics, logger.NewLogger("ERROR", "test"), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cart.Bind(ctx)
	engine.Cart = cart
	require.False(t, cart.Running())

	// A successful reservation hands the cart to the extension loop.
	engine.HandleTransition(ctx, models.MProductInfo{}, transitionEvent())
	require.True(t, cart.Running())

	cart.Stop()
	require.False(t, cart.Running())
}

// -----------------------------------------------------------------------------

func TestHandleTransitionReservationFailureStillAlerts(t *testing.T) {
	catalog := restockedCatalog()
	catalog.addErr = helpers.NewRemote(500, "cart down")
	engine, notifier, history := testEngine(t, catalog)
	engine.SetAutoReserve(true)

	engine.HandleTransition(context.Background(), models.MProductInfo{}, transitionEvent())

	// The alert always goes out, carrying the failed reservation outcome.
	require.Len(t, notifier.stockAlerts, 1)
	require.NotNil(t, notifier.reservations[0])
	require.False(t, notifier.reservations[0].Success)
	require.NotEmpty(t, notifier.reservations[0].Error)
	require.False(t, history.alerts[0].Reserved)
}

// -----------------------------------------------------------------------------
// Credential Failure Routing
// -----------------------------------------------------------------------------

func TestReportCheckErrorDedupsExpiredAlert(t *testing.T) {
	engine, notifier, _ := testEngine(t, restockedCatalog())

	err := helpers.NewUnauthorized(401)
	engine.reportCheckError("CAMP-ART", err)
	engine.reportCheckError("CAMP-ART", err)
	engine.reportCheckError("CAMP-OTHER", err)

	// One delivered alert for the whole expiry episode.
	require.Equal(t, 1, notifier.expiredDelivered)

	// A credential update re-arms it.
	notifier.ResetTokenExpired()
	engine.reportCheckError("CAMP-ART", err)
	require.Equal(t, 2, notifier.expiredDelivered)
}

// -----------------------------------------------------------------------------

func TestReportCheckErrorIgnoresNonAuthFailures(t *testing.T) {
	engine, notifier, _ := testEngine(t, restockedCatalog())

	engine.reportCheckError("CAMP-ART", helpers.NewTransport(context.DeadlineExceeded))
	engine.reportCheckError("CAMP-ART", helpers.NewRemote(503, "unavailable"))

	require.Zero(t, notifier.expiredDelivered)
}

// -----------------------------------------------------------------------------
// Poller Pass
// -----------------------------------------------------------------------------

func TestPollerPassDetectsTransition(t *testing.T) {
	catalog := restockedCatalog()
	// Nothing in stock at add time.
	catalog.stock = map[string]models.MStockEntry{
		"S-40": {Quantity: 0, StockStatus: "OUT_OF_STOCK"},
		"S-41": {Quantity: 0, StockStatus: "OUT_OF_STOCK"},
	}
	engine, notifier, _ := testEngine(t, catalog)
	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", nil)
	require.NoError(t, err)
	require.Empty(t, notifier.stockAlerts)

	// Restock before the next pass.
	catalog.stock = map[string]models.MStockEntry{
		"S-40": {Quantity: 3, StockStatus: "AVAILABLE", InStock: true},
		"S-41": {Quantity: 0, StockStatus: "OUT_OF_STOCK"},
	}

	poller := NewPoller(engine, logger.NewLogger("ERROR", "test"), time.Minute)
	poller.runPass(context.Background())

	require.Len(t, notifier.stockAlerts, 1)
	require.Equal(t, "S-40", notifier.stockAlerts[0].SimpleSku)

	// Second pass with unchanged stock: dedup holds.
	poller.runPass(context.Background())
	require.Len(t, notifier.stockAlerts, 1)
}

// -----------------------------------------------------------------------------

func TestPollerPassContinuesAfterCheckFailure(t *testing.T) {
	catalog := restockedCatalog()
	engine, notifier, _ := testEngine(t, catalog)
	_, err := engine.AddWatch(context.Background(), "CAMP", "ART", []string{"S-41"})
	require.NoError(t, err)

	catalog.stockErr = helpers.NewUnauthorized(401)
	poller := NewPoller(engine, logger.NewLogger("ERROR", "test"), time.Minute)
	poller.runPass(context.Background())

	require.Equal(t, 1, notifier.expiredDelivered)
	// The watch is untouched and the loop keeps going.
	require.Equal(t, 1, engine.Registry.Len())
}
