package helpers

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------

// NewFlowID builds a request-scoped X-Flow-Id the way the mobile app does:
// an uppercase hex timestamp plus a short random suffix.
func NewFlowID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("I%X-%s", time.Now().UnixMilli(), suffix)
}
