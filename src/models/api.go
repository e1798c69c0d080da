package models

// -----------------------------------------------------------------------------
// API Request Bodies (configuration surface)
// -----------------------------------------------------------------------------

// MFetchProductRequest previews an article. Either the campaign/article pair
// or a shop URL must be supplied; the URL form is parsed server side.
type MFetchProductRequest struct {
	CampaignID string `json:"campaignId"`
	ArticleID  string `json:"articleId"`
	URL        string `json:"url"`
}

type MAddProductRequest struct {
	CampaignID   string   `json:"campaignId"`
	ArticleID    string   `json:"articleId"`
	URL          string   `json:"url"`
	WatchedSizes []string `json:"watchedSizes"`
}

type MUpdateSizesRequest struct {
	WatchedSizes []string `json:"watchedSizes"`
}

// MTokenUpdateRequest replaces the access and/or refresh token. The access
// token is accepted with or without the "Bearer " prefix.
type MTokenUpdateRequest struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// MSessionUpdateRequest replaces the anti-bot material. Clear drops both the
// cookie set and the sensor blob.
type MSessionUpdateRequest struct {
	Cookies    map[string]string `json:"cookies"`
	SensorData string            `json:"sensorData"`
	Clear      bool              `json:"clear"`
}

type MAutoReserveRequest struct {
	Enabled bool `json:"enabled"`
}

// MTestAddToCartRequest drives the manual reservation probe endpoint.
type MTestAddToCartRequest struct {
	ConfigSku          string `json:"configSku"`
	SimpleSku          string `json:"simpleSku"`
	CampaignID         string `json:"campaignId"`
	UseSecuritySession bool   `json:"useSecuritySession"`
}
