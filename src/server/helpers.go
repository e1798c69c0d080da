package server

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Request Helpers
// -----------------------------------------------------------------------------

// Shop URLs look like .../campaigns/<campaign>/articles/<article> with an
// optional categories segment in between.
var productURLPattern = regexp.MustCompile(`campaigns/([^/]+)/(?:categories/[^/]+/)?articles/([^/?]+)`)

// -----------------------------------------------------------------------------

// resolveArticle returns the campaign/article pair from an explicit pair or
// from a pasted shop URL.
func resolveArticle(campaignID, articleID, url string) (string, string, error) {
	if campaignID != "" && articleID != "" {
		return campaignID, articleID, nil
	}
	if url != "" {
		m := productURLPattern.FindStringSubmatch(url)
		if m == nil {
			return "", "", fmt.Errorf("unrecognized product url: %s", url)
		}
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("campaignId/articleId or url required")
}

// -----------------------------------------------------------------------------

// parseLimit reads the ?limit query parameter with bounds.
func parseLimit(c *gin.Context, fallback, max int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}
