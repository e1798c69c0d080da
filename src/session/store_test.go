package session

import (
	"testing"

	"lounge-monitor/src/models"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestNewStoreStripsBearerPrefix(t *testing.T) {
	s := NewStore("Bearer abc123", "ref456")
	require.Equal(t, "Bearer abc123", s.Authorization())
	require.Equal(t, "ref456", s.RefreshToken())
}

func TestAuthorizationEmptyWithoutToken(t *testing.T) {
	s := NewStore("", "")
	require.Equal(t, "", s.Authorization())
	require.False(t, s.HasRefreshToken())
}

// -----------------------------------------------------------------------------

func TestSetTokensPartialUpdate(t *testing.T) {
	s := NewStore("old-access", "old-refresh")

	// Only the access token changes; refresh stays.
	s.SetTokens("new-access", "")
	require.Equal(t, "Bearer new-access", s.Authorization())
	require.Equal(t, "old-refresh", s.RefreshToken())

	// Only the refresh token changes; access stays.
	s.SetTokens("", "new-refresh")
	require.Equal(t, "Bearer new-access", s.Authorization())
	require.Equal(t, "new-refresh", s.RefreshToken())
}

// -----------------------------------------------------------------------------

func TestApplyRefreshKeepsOldRefreshWhenAbsent(t *testing.T) {
	s := NewStore("acc", "ref")

	s.ApplyRefresh(&models.MTokenPair{AccessToken: "acc2", RefreshToken: ""})
	require.Equal(t, "Bearer acc2", s.Authorization())
	require.Equal(t, "ref", s.RefreshToken())

	s.ApplyRefresh(&models.MTokenPair{AccessToken: "acc3", RefreshToken: "ref3"})
	require.Equal(t, "ref3", s.RefreshToken())
}

// -----------------------------------------------------------------------------

func TestReplaceSecurityIndependentParts(t *testing.T) {
	s := NewStore("", "")

	s.ReplaceSecurity(map[string]string{"bm_sz": "v1"}, "sensor-blob")
	cookies, sensor := s.SecuritySession()
	require.Equal(t, "v1", cookies["bm_sz"])
	require.Equal(t, "sensor-blob", sensor)

	// Nil cookies leave the cookie set untouched.
	s.ReplaceSecurity(nil, "sensor-v2")
	cookies, sensor = s.SecuritySession()
	require.Equal(t, "v1", cookies["bm_sz"])
	require.Equal(t, "sensor-v2", sensor)

	// Empty sensor leaves the blob untouched.
	s.ReplaceSecurity(map[string]string{"_abck": "v2"}, "")
	cookies, sensor = s.SecuritySession()
	require.Equal(t, "v2", cookies["_abck"])
	require.Equal(t, "sensor-v2", sensor)
	// Cookie replacement is wholesale.
	_, stillThere := cookies["bm_sz"]
	require.False(t, stillThere)
}

// -----------------------------------------------------------------------------

func TestSecuritySessionReturnsCopy(t *testing.T) {
	s := NewStore("", "")
	s.ReplaceSecurity(map[string]string{"bm_sz": "v1"}, "blob")

	cookies, _ := s.SecuritySession()
	cookies["bm_sz"] = "mutated"

	fresh, _ := s.SecuritySession()
	require.Equal(t, "v1", fresh["bm_sz"])
}

// -----------------------------------------------------------------------------

func TestClearSecurity(t *testing.T) {
	s := NewStore("acc", "ref")
	s.ReplaceSecurity(map[string]string{"bm_sz": "v1"}, "blob")

	s.ClearSecurity()

	cookies, sensor := s.SecuritySession()
	require.Empty(t, cookies)
	require.Equal(t, "", sensor)

	// Tokens are unaffected.
	require.Equal(t, "Bearer acc", s.Authorization())
	require.Equal(t, "ref", s.RefreshToken())
}

// -----------------------------------------------------------------------------

func TestFlagsPresenceOnly(t *testing.T) {
	s := NewStore("acc", "")
	s.ReplaceSecurity(map[string]string{"bm_sz": "v1"}, "")

	flags := s.Flags()
	require.True(t, flags.HasAccessToken)
	require.False(t, flags.HasRefreshToken)
	require.True(t, flags.HasCookies)
	require.False(t, flags.HasSensorData)
}
