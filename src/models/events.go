package models

import "time"

// -----------------------------------------------------------------------------
// Monitor Events
// -----------------------------------------------------------------------------

// MTransitionEvent records one variant flipping from out-of-stock to in-stock
// between two consecutive checks. Produced and consumed within a single poll
// pass; never stored.
type MTransitionEvent struct {
	ProductKey      string `json:"productKey"`
	CampaignID      string `json:"campaignId"`
	ArticleID       string `json:"articleId"`
	ConfigSku       string `json:"configSku"`
	SimpleSku       string `json:"simpleSku"`
	Size            string `json:"size"`
	Quantity        int    `json:"quantity"`
	PreviousInStock bool   `json:"previousInStock"`
	CurrentInStock  bool   `json:"currentInStock"`
}

// Event types pushed over the websocket hub.
const (
	EventStockAlert     = "STOCK_ALERT"
	EventReservation    = "RESERVATION"
	EventTokenRefreshed = "TOKEN_REFRESHED"
	EventTokenFailed    = "TOKEN_REFRESH_FAILED"
	EventTokenExpired   = "TOKEN_EXPIRED"
	EventWatchAdded     = "WATCH_ADDED"
	EventWatchRemoved   = "WATCH_REMOVED"
	EventCartExtended   = "CART_EXTENDED"
	EventCartEmpty      = "CART_EMPTY"
)

// MMonitorEvent is the envelope broadcast to websocket dashboard clients.
type MMonitorEvent struct {
	Type       string    `json:"type"`
	ProductKey string    `json:"productKey,omitempty"`
	SimpleSku  string    `json:"simpleSku,omitempty"`
	Size       string    `json:"size,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Reserved   bool      `json:"reserved,omitempty"`
	Message    string    `json:"message,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
