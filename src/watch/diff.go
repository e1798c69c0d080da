package watch

import (
	"fmt"

	"lounge-monitor/src/models"
)

// -----------------------------------------------------------------------------
// Stock-Diff Engine
// -----------------------------------------------------------------------------

// EvaluateSnapshot compares a fresh stock snapshot against the stored
// previous one for a single watch and returns the transitions to alert on.
//
// Per variant present in the snapshot:
//   - a transition fires when the variant is watched, was out of stock (or
//     unseen), is now in stock, and has not alerted during the current
//     in-stock streak;
//   - a fired transition joins the notified set;
//   - a notified variant observed out of stock leaves the notified set,
//     re-arming the alert for its next streak.
//
// The dedup state is keyed to the in-stock streak, not to wall time, so a
// flapping variant alerts exactly once per streak. The previous snapshot is
// replaced wholesale at the end.
func (r *Registry) EvaluateSnapshot(key string, snapshot map[string]models.MStockEntry) ([]models.MTransitionEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, exists := r.products[key]
	if !exists {
		// Watch removed while the stock check was in flight; drop the result.
		return nil, fmt.Errorf("product %s not found", key)
	}

	var events []models.MTransitionEvent
	for sku, entry := range snapshot {
		prev, seen := w.PreviousStock[sku]
		wasOut := !seen || !prev.InStock
		nowIn := entry.InStock

		_, watched := w.WatchedSizes[sku]
		_, alerted := w.Notified[sku]

		if watched && wasOut && nowIn && !alerted {
			w.Notified[sku] = struct{}{}
			events = append(events, models.MTransitionEvent{
				ProductKey:      w.Key,
				CampaignID:      w.CampaignID,
				ArticleID:       w.ArticleID,
				ConfigSku:       w.ProductInfo.ConfigSku,
				SimpleSku:       sku,
				Size:            sizeOf(w, sku),
				Quantity:        entry.Quantity,
				PreviousInStock: !wasOut,
				CurrentInStock:  nowIn,
			})
		}

		if alerted && !nowIn {
			delete(w.Notified, sku)
		}
	}

	w.PreviousStock = snapshot
	return events, nil
}

// -----------------------------------------------------------------------------

func sizeOf(w *models.MWatchedProduct, sku string) string {
	if info, ok := w.SizeMapping[sku]; ok && info.Size != "" {
		return info.Size
	}
	return sku
}
