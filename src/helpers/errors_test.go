package helpers

import (
	"fmt"
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		label  string
	}{
		{http.StatusOK, ""},
		{http.StatusNoContent, ""},
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusForbidden, "unauthorized"},
		{http.StatusNotFound, "remote"},
		{http.StatusTooManyRequests, "remote"},
		{http.StatusInternalServerError, "remote"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			err := ClassifyStatus(tt.status, "body")
			if tt.label == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.label, ErrorTypeLabel(err))
		})
	}
}

// -----------------------------------------------------------------------------

func TestIsUnauthorizedThroughWrapping(t *testing.T) {
	err := NewUnauthorized(401)
	require.True(t, IsUnauthorized(err))
	require.True(t, IsUnauthorized(fmt.Errorf("check failed: %w", err)))
	require.False(t, IsUnauthorized(NewRemote(500, "boom")))
	require.False(t, IsUnauthorized(nil))
}

// -----------------------------------------------------------------------------

func TestErrorTypeLabels(t *testing.T) {
	require.Equal(t, "transport", ErrorTypeLabel(NewTransport(fmt.Errorf("refused"))))
	require.Equal(t, "decode", ErrorTypeLabel(NewDecode(fmt.Errorf("bad json"))))
	require.Equal(t, "other", ErrorTypeLabel(fmt.Errorf("plain")))
}

// -----------------------------------------------------------------------------

func TestHTTPStatusMapping(t *testing.T) {
	require.Equal(t, http.StatusUnauthorized, HTTPStatus(NewUnauthorized(403)))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(NewRemote(500, "x")))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(NewTransport(fmt.Errorf("dial"))))
	require.Equal(t, http.StatusBadGateway, HTTPStatus(NewDecode(fmt.Errorf("eof"))))
	require.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}

// -----------------------------------------------------------------------------

func TestCatalogErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewTransport(cause)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.ErrorIs(t, err, cause)
}

// -----------------------------------------------------------------------------

func TestNewFlowIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^I[0-9A-F]+-[0-9a-f]{4}$`)
	seen := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		id := NewFlowID()
		require.Regexp(t, pattern, id)
		seen[id] = struct{}{}
	}
	require.Greater(t, len(seen), 1, "flow ids should vary")
}

// -----------------------------------------------------------------------------

func TestParseSensorData(t *testing.T) {
	blob := "2,a,SomeFP1,SomeFP2$payloadpayload$12,7,112$$extra$AUTHSUFFIX"

	info, err := ParseSensorData(blob)
	require.NoError(t, err)
	require.Equal(t, "2", info.Version)
	require.Equal(t, "a", info.Type)
	require.Equal(t, "SomeFP1", info.DeviceFP1)
	require.Equal(t, "SomeFP2", info.DeviceFP2)
	require.Equal(t, len("payloadpayload"), info.PayloadLength)
	require.Equal(t, []int{12, 7, 112}, info.Counters)
	require.Equal(t, "AUTHSUFFIX", info.AuthSuffix)
}

func TestParseSensorDataRejectsMalformed(t *testing.T) {
	for _, blob := range []string{"", "no-dollar-signs", "a$b", "1$payload$notanumber"} {
		_, err := ParseSensorData(blob)
		require.Error(t, err, "blob %q", blob)
	}
}
