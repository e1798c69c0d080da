package models

import "time"

// -----------------------------------------------------------------------------
// History Store Rows (audit log only; never engine state)
// -----------------------------------------------------------------------------

type MWatchHistoryEntry struct {
	Key          string     `json:"key"`
	CampaignID   string     `json:"campaignId"`
	ArticleID    string     `json:"articleId"`
	Title        string     `json:"title"`
	Brand        string     `json:"brand"`
	WatchedSizes []string   `json:"watchedSizes"`
	AddedAt      time.Time  `json:"addedAt"`
	RemovedAt    *time.Time `json:"removedAt,omitempty"`
}

type MAlertHistoryEntry struct {
	ProductKey string    `json:"productKey"`
	SimpleSku  string    `json:"simpleSku"`
	Size       string    `json:"size"`
	Quantity   int       `json:"quantity"`
	Reserved   bool      `json:"reserved"`
	CreatedAt  time.Time `json:"createdAt"`
}
