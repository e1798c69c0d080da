package models

import "time"

// -----------------------------------------------------------------------------
// Access Credentials + Anti-Bot Session
// -----------------------------------------------------------------------------

// MSession holds everything the catalog attaches to outbound requests: the
// bearer token pair plus the replayed anti-bot material (cookie set and the
// opaque sensor blob captured from real app traffic). Absent fields simply
// mean the corresponding request part is not sent.
type MSession struct {
	AccessToken   string            `json:"accessToken"`
	RefreshToken  string            `json:"refreshToken"`
	Cookies       map[string]string `json:"cookies"`
	SensorData    string            `json:"sensorData"`
	LastUpdatedAt time.Time         `json:"lastUpdatedAt"`
}

// MSessionFlags is the health-endpoint view of the session: presence only,
// never the secret values themselves.
type MSessionFlags struct {
	HasAccessToken  bool      `json:"hasAccessToken"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	HasCookies      bool      `json:"hasCookies"`
	HasSensorData   bool      `json:"hasSensorData"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
}
