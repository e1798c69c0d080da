package session

import (
	"strings"
	"sync"
	"time"

	"lounge-monitor/src/models"
)

// -----------------------------------------------------------------------------
// Session Store
// -----------------------------------------------------------------------------

// Store owns the mutable credential state: bearer token pair plus the
// replayed anti-bot cookie set and sensor blob. Every accessor reads under
// the lock so a mid-poll credential update is observed per request, not per
// tick.
type Store struct {
	mu      sync.RWMutex
	session models.MSession
}

// -----------------------------------------------------------------------------

// NewStore creates a Store seeded with whatever the environment supplied.
// Empty values are a valid, unauthenticated starting state.
func NewStore(accessToken, refreshToken string) *Store {
	s := &Store{}
	s.session.AccessToken = normalizeToken(accessToken)
	s.session.RefreshToken = refreshToken
	s.session.Cookies = make(map[string]string)
	if accessToken != "" || refreshToken != "" {
		s.session.LastUpdatedAt = time.Now()
	}
	return s
}

// -----------------------------------------------------------------------------

// normalizeToken strips an optional "Bearer " prefix so the store always
// holds the raw token.
func normalizeToken(token string) string {
	return strings.TrimPrefix(strings.TrimSpace(token), "Bearer ")
}

// -----------------------------------------------------------------------------
// Bearer Token Pair
// -----------------------------------------------------------------------------

// Authorization returns the value for the Authorization header, or "" when
// no access token is configured.
func (s *Store) Authorization() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.AccessToken == "" {
		return ""
	}
	return "Bearer " + s.session.AccessToken
}

// -----------------------------------------------------------------------------

// RefreshToken returns the current refresh credential.
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.RefreshToken
}

// HasRefreshToken reports whether automatic refresh can run at all.
func (s *Store) HasRefreshToken() bool {
	return s.RefreshToken() != ""
}

// -----------------------------------------------------------------------------

// SetTokens replaces the access and/or refresh token from the configuration
// surface. Empty arguments leave the corresponding field untouched.
func (s *Store) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if accessToken != "" {
		s.session.AccessToken = normalizeToken(accessToken)
	}
	if refreshToken != "" {
		s.session.RefreshToken = refreshToken
	}
	s.session.LastUpdatedAt = time.Now()
}

// -----------------------------------------------------------------------------

// ApplyRefresh installs the result of a successful token exchange. Only the
// token pair changes; the anti-bot material is left alone.
func (s *Store) ApplyRefresh(pair *models.MTokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.AccessToken = normalizeToken(pair.AccessToken)
	if pair.RefreshToken != "" {
		s.session.RefreshToken = pair.RefreshToken
	}
	s.session.LastUpdatedAt = time.Now()
}

// -----------------------------------------------------------------------------
// Anti-Bot Security Session
// -----------------------------------------------------------------------------

// SecuritySession returns a copy of the cookie set and the sensor blob.
func (s *Store) SecuritySession() (map[string]string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cookies := make(map[string]string, len(s.session.Cookies))
	for k, v := range s.session.Cookies {
		cookies[k] = v
	}
	return cookies, s.session.SensorData
}

// -----------------------------------------------------------------------------

// ReplaceSecurity swaps in newly captured anti-bot material. Nil cookies or
// an empty sensor blob leave the corresponding part untouched, so cookies and
// sensor can be updated independently.
func (s *Store) ReplaceSecurity(cookies map[string]string, sensorData string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cookies != nil {
		replaced := make(map[string]string, len(cookies))
		for k, v := range cookies {
			replaced[k] = v
		}
		s.session.Cookies = replaced
	}
	if sensorData != "" {
		s.session.SensorData = sensorData
	}
	s.session.LastUpdatedAt = time.Now()
}

// -----------------------------------------------------------------------------

// ClearSecurity drops the anti-bot material entirely; cart mutations fall
// back to unprotected requests.
func (s *Store) ClearSecurity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Cookies = make(map[string]string)
	s.session.SensorData = ""
	s.session.LastUpdatedAt = time.Now()
}

// -----------------------------------------------------------------------------
// Introspection
// -----------------------------------------------------------------------------

// Flags returns the presence-only view exposed by the health endpoint.
func (s *Store) Flags() models.MSessionFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.MSessionFlags{
		HasAccessToken:  s.session.AccessToken != "",
		HasRefreshToken: s.session.RefreshToken != "",
		HasCookies:      len(s.session.Cookies) > 0,
		HasSensorData:   s.session.SensorData != "",
		LastUpdatedAt:   s.session.LastUpdatedAt,
	}
}
