package watch

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
)

// -----------------------------------------------------------------------------
// Watch Registry
// -----------------------------------------------------------------------------

// Key builds the registry key for a campaign/article pair.
func Key(campaignID, articleID string) string {
	return campaignID + "-" + articleID
}

// Registry owns every watched product. All mutation of a record's
// previousStock and notified sets happens under the registry lock, so poll
// passes and configuration calls never race on a record.
type Registry struct {
	Logger *logger.Logger

	mu       sync.RWMutex
	products map[string]*models.MWatchedProduct
}

// -----------------------------------------------------------------------------

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		Logger:   log,
		products: make(map[string]*models.MWatchedProduct),
	}
}

// -----------------------------------------------------------------------------

// NewWatchedProduct assembles a registry record from a catalog fetch and the
// initial stock snapshot. notified seeds the dedup set with variants already
// alerted synchronously during the add call.
func NewWatchedProduct(
	campaignID, articleID string,
	info models.MProductInfo,
	sizeMapping map[string]models.MSizeInfo,
	simpleSkus []string,
	watchedSizes []string,
	initialStock map[string]models.MStockEntry,
	notified []string,
) *models.MWatchedProduct {
	w := &models.MWatchedProduct{
		Key:           Key(campaignID, articleID),
		CampaignID:    campaignID,
		ArticleID:     articleID,
		ProductInfo:   info,
		SizeMapping:   sizeMapping,
		SimpleSkus:    simpleSkus,
		WatchedSizes:  make(map[string]struct{}, len(watchedSizes)),
		PreviousStock: initialStock,
		Notified:      make(map[string]struct{}, len(notified)),
		AddedAt:       time.Now(),
	}
	for _, sku := range watchedSizes {
		w.WatchedSizes[sku] = struct{}{}
	}
	for _, sku := range notified {
		if _, watched := w.WatchedSizes[sku]; watched {
			w.Notified[sku] = struct{}{}
		}
	}
	return w
}

// -----------------------------------------------------------------------------
// Mutation
// -----------------------------------------------------------------------------

// Insert adds or replaces a watch.
func (r *Registry) Insert(w *models.MWatchedProduct) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[w.Key] = w
	r.Logger.Info("Watching %s - %s (%d sizes)", w.ProductInfo.Brand, w.ProductInfo.Title, len(w.WatchedSizes))
}

// -----------------------------------------------------------------------------

// Remove deletes a watch. A poll pass that already resolved the key simply
// discards its in-flight result when it finds the record gone.
func (r *Registry) Remove(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[key]; !exists {
		return false
	}
	delete(r.products, key)
	r.Logger.Info("Removed watch %s", key)
	return true
}

// -----------------------------------------------------------------------------

// UpdateWatchedSizes replaces a watch's variant set. The notified dedup set
// is pruned so it stays a subset of the watched set.
func (r *Registry) UpdateWatchedSizes(key string, watchedSizes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, exists := r.products[key]
	if !exists {
		return fmt.Errorf("product %s not found", key)
	}

	w.WatchedSizes = make(map[string]struct{}, len(watchedSizes))
	for _, sku := range watchedSizes {
		w.WatchedSizes[sku] = struct{}{}
	}
	for sku := range w.Notified {
		if _, watched := w.WatchedSizes[sku]; !watched {
			delete(w.Notified, sku)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// ResetNotified clears a watch's dedup set, re-arming every watched variant.
func (r *Registry) ResetNotified(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, exists := r.products[key]
	if !exists {
		return fmt.Errorf("product %s not found", key)
	}
	w.Notified = make(map[string]struct{})
	return nil
}

// -----------------------------------------------------------------------------
// Read Access
// -----------------------------------------------------------------------------

// CheckTarget is what a poll pass needs to fetch one product's stock without
// holding any registry pointer across the network call.
type CheckTarget struct {
	Key        string
	ConfigSku  string
	CampaignID string
	SimpleSkus []string
}

// Targets returns the check targets for every watch, sorted by key so a pass
// visits products in a stable order.
func (r *Registry) Targets() []CheckTarget {
	r.mu.RLock()
	defer r.mu.RUnlock()
	targets := make([]CheckTarget, 0, len(r.products))
	for _, w := range r.products {
		skus := make([]string, len(w.SimpleSkus))
		copy(skus, w.SimpleSkus)
		targets = append(targets, CheckTarget{
			Key:        w.Key,
			ConfigSku:  w.ProductInfo.ConfigSku,
			CampaignID: w.CampaignID,
			SimpleSkus: skus,
		})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Key < targets[j].Key })
	return targets
}

// -----------------------------------------------------------------------------

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

// -----------------------------------------------------------------------------

// Snapshot returns the JSON view of one watch.
func (r *Registry) Snapshot(key string) (*models.MWatchSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, exists := r.products[key]
	if !exists {
		return nil, false
	}
	snap := snapshotLocked(w)
	return &snap, true
}

// Snapshots returns the JSON view of every watch, sorted by key.
func (r *Registry) Snapshots() []models.MWatchSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := make([]models.MWatchSnapshot, 0, len(r.products))
	for _, w := range r.products {
		snaps = append(snaps, snapshotLocked(w))
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Key < snaps[j].Key })
	return snaps
}

// -----------------------------------------------------------------------------

func snapshotLocked(w *models.MWatchedProduct) models.MWatchSnapshot {
	stock := make(map[string]models.MStockEntry, len(w.PreviousStock))
	for k, v := range w.PreviousStock {
		stock[k] = v
	}
	return models.MWatchSnapshot{
		Key:          w.Key,
		CampaignID:   w.CampaignID,
		ArticleID:    w.ArticleID,
		ProductInfo:  w.ProductInfo,
		SizeMapping:  w.SizeMapping,
		WatchedSizes: sortedSet(w.WatchedSizes),
		CurrentStock: stock,
		Notified:     sortedSet(w.Notified),
		AddedAt:      w.AddedAt,
	}
}

// -----------------------------------------------------------------------------

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
