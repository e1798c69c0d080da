package models

// -----------------------------------------------------------------------------
// Cart Structures
// -----------------------------------------------------------------------------

// MCartItem is one reserved position in the remote cart.
type MCartItem struct {
	ConfigSku string `json:"configSku"`
	SimpleSku string `json:"simpleSku"`
	Quantity  int    `json:"quantity"`
}

// MCartState is always fetched fresh from the cart endpoint, never cached.
type MCartState struct {
	Items            []MCartItem `json:"items"`
	RemainingSeconds int         `json:"remainingSeconds"`
	ProlongCounter   int         `json:"prolongCounter"`
	IsEmpty          bool        `json:"isEmpty"`
}

// MReservationResult reports a single cart-insertion attempt. There is no
// retry; Error carries the classified failure when Success is false.
type MReservationResult struct {
	Success          bool   `json:"success"`
	RemainingSeconds int    `json:"remainingSeconds,omitempty"`
	Error            string `json:"error,omitempty"`
}
