package watch

import (
	"testing"

	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(logger.NewLogger("ERROR", "test"))
}

func entry(quantity int, inStock bool) models.MStockEntry {
	status := "OUT_OF_STOCK"
	if inStock {
		status = "AVAILABLE"
	}
	return models.MStockEntry{Quantity: quantity, StockStatus: status, InStock: inStock}
}

func insertWatch(r *Registry, watched []string, initial map[string]models.MStockEntry, notified []string) *models.MWatchedProduct {
	info := models.MProductInfo{Title: "Runner", Brand: "Acme", ConfigSku: "CFG-1", CampaignID: "CAMP"}
	mapping := map[string]models.MSizeInfo{
		"SKU-40": {Size: "40"},
		"SKU-41": {Size: "41"},
		"SKU-42": {Size: "42"},
	}
	w := NewWatchedProduct("CAMP", "ART", info, mapping, []string{"SKU-40", "SKU-41", "SKU-42"}, watched, initial, notified)
	r.Insert(w)
	return w
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotAlertsOnRestock(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40", "SKU-41"}, map[string]models.MStockEntry{
		"SKU-40": entry(0, false),
		"SKU-41": entry(0, false),
	}, nil)

	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(3, true),
		"SKU-41": entry(0, false),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "SKU-40", events[0].SimpleSku)
	require.Equal(t, "40", events[0].Size)
	require.Equal(t, 3, events[0].Quantity)
	require.True(t, events[0].CurrentInStock)
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotIgnoresUnwatchedVariant(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{
		"SKU-42": entry(0, false),
	}, nil)

	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-42": entry(5, true),
	})
	require.NoError(t, err)
	require.Empty(t, events)
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotDedupsWhileStreakLasts(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{
		"SKU-40": entry(0, false),
	}, nil)

	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)

	// Still in stock on the next pass: no second alert.
	events, err = r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(1, true),
	})
	require.NoError(t, err)
	require.Empty(t, events)
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotRearmsAfterStreakEnds(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{
		"SKU-40": entry(0, false),
	}, nil)

	passes := []struct {
		stock  models.MStockEntry
		alerts int
	}{
		{entry(2, true), 1},  // restock, alert
		{entry(1, true), 0},  // same streak
		{entry(0, false), 0}, // streak ends, re-arm
		{entry(4, true), 1},  // new streak, alert again
	}
	for i, pass := range passes {
		events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{"SKU-40": pass.stock})
		require.NoError(t, err)
		require.Len(t, events, pass.alerts, "pass %d", i)
	}
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotUnseenVariantCountsAsOut(t *testing.T) {
	r := testRegistry(t)
	// Empty baseline: first sighting in stock must alert.
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{}, nil)

	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(1, true),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotSeededNotifiedStaysQuiet(t *testing.T) {
	r := testRegistry(t)
	// Variant was in stock at add time and alerted synchronously.
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
	}, []string{"SKU-40"})

	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
	})
	require.NoError(t, err)
	require.Empty(t, events)
}

// -----------------------------------------------------------------------------

func TestEvaluateSnapshotMissingWatchReturnsError(t *testing.T) {
	r := testRegistry(t)
	_, err := r.EvaluateSnapshot("CAMP-GONE", map[string]models.MStockEntry{})
	require.Error(t, err)
}

// -----------------------------------------------------------------------------

func TestUpdateWatchedSizesPrunesNotified(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40", "SKU-41"}, map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
		"SKU-41": entry(2, true),
	}, []string{"SKU-40", "SKU-41"})

	require.NoError(t, r.UpdateWatchedSizes("CAMP-ART", []string{"SKU-41"}))

	snap, ok := r.Snapshot("CAMP-ART")
	require.True(t, ok)
	require.Equal(t, []string{"SKU-41"}, snap.WatchedSizes)
	// Notified stays a subset of the watched set.
	require.Equal(t, []string{"SKU-41"}, snap.Notified)
}

// -----------------------------------------------------------------------------

func TestNewWatchedProductNotifiedSeedsIntersectWatched(t *testing.T) {
	r := testRegistry(t)
	w := insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{}, []string{"SKU-40", "SKU-42"})

	_, has40 := w.Notified["SKU-40"]
	_, has42 := w.Notified["SKU-42"]
	require.True(t, has40)
	require.False(t, has42)
}

// -----------------------------------------------------------------------------

func TestResetNotifiedClearsDedupState(t *testing.T) {
	r := testRegistry(t)
	insertWatch(r, []string{"SKU-40"}, map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
	}, []string{"SKU-40"})

	require.NoError(t, r.ResetNotified("CAMP-ART"))

	// In-stock variant alerts again right away after a reset.
	events, err := r.EvaluateSnapshot("CAMP-ART", map[string]models.MStockEntry{
		"SKU-40": entry(2, true),
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

// -----------------------------------------------------------------------------

func TestTargetsSortedAndDetached(t *testing.T) {
	r := testRegistry(t)
	info := models.MProductInfo{ConfigSku: "CFG"}
	r.Insert(NewWatchedProduct("B", "2", info, nil, []string{"S1"}, nil, nil, nil))
	r.Insert(NewWatchedProduct("A", "1", info, nil, []string{"S1"}, nil, nil, nil))

	targets := r.Targets()
	require.Len(t, targets, 2)
	require.Equal(t, "A-1", targets[0].Key)
	require.Equal(t, "B-2", targets[1].Key)
}
