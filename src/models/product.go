package models

import "time"

// -----------------------------------------------------------------------------
// Watched Product Structures
// -----------------------------------------------------------------------------

// MProductInfo is the catalog-level description of a watched article.
type MProductInfo struct {
	Title         string `json:"title"`
	Brand         string `json:"brand"`
	Color         string `json:"color"`
	Price         string `json:"price"`
	OriginalPrice string `json:"originalPrice"`
	Discount      string `json:"discount"`
	ConfigSku     string `json:"configSku"`
	CampaignID    string `json:"campaignId"`
	Image         string `json:"image,omitempty"`
}

// MSizeInfo maps a variant (simple) SKU to its display size and the status
// seen when the product was fetched.
type MSizeInfo struct {
	Size        string `json:"size"`
	StockStatus string `json:"stockStatus"`
	InStock     bool   `json:"inStock"`
}

// MStockEntry is one variant's slice of a stock snapshot. InStock is derived,
// never reported by the backend directly.
type MStockEntry struct {
	Quantity    int    `json:"quantity"`
	StockStatus string `json:"stockStatus"`
	InStock     bool   `json:"inStock"`
}

// MWatchedProduct is the registry record for one watch. WatchedSizes and
// Notified are sets keyed by simple SKU; Notified is always a subset of
// WatchedSizes (the per-streak alert dedup state).
type MWatchedProduct struct {
	Key           string
	CampaignID    string
	ArticleID     string
	ProductInfo   MProductInfo
	SizeMapping   map[string]MSizeInfo
	SimpleSkus    []string
	WatchedSizes  map[string]struct{}
	PreviousStock map[string]MStockEntry
	Notified      map[string]struct{}
	AddedAt       time.Time
}

// MWatchSnapshot is the JSON view of a registry record returned by the API.
// Sets are rendered as sorted slices so responses are stable.
type MWatchSnapshot struct {
	Key          string                 `json:"key"`
	CampaignID   string                 `json:"campaignId"`
	ArticleID    string                 `json:"articleId"`
	ProductInfo  MProductInfo           `json:"productInfo"`
	SizeMapping  map[string]MSizeInfo   `json:"sizeMapping"`
	WatchedSizes []string               `json:"watchedSizes"`
	CurrentStock map[string]MStockEntry `json:"currentStock"`
	Notified     []string               `json:"notified"`
	AddedAt      time.Time              `json:"addedAt"`
}

// MSizeAvailability is one row of the fetch-preview response.
type MSizeAvailability struct {
	SimpleSku string `json:"simpleSku"`
	Size      string `json:"size"`
	InStock   bool   `json:"inStock"`
	Quantity  int    `json:"quantity"`
}
