package interfaces

import (
	"context"

	"lounge-monitor/src/models"
)

// -----------------------------------------------------------------------------
// ICatalogClient defines the contract for the external catalog/stock/cart API.
// Implementations are stateless request layers: they read credentials per
// request and never mutate the session or the watch registry.
// -----------------------------------------------------------------------------

type ICatalogClient interface {

	// -----------------------------------------------------------------------------

	// FetchProductDetails loads the catalog description of an article:
	// product info, the size mapping and the ordered simple SKU list.
	FetchProductDetails(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error)

	// FetchProductDetailsCached serves the same description from the details
	// cache when the article was fetched before. Preview calls go through
	// here; the description of an article does not change over a campaign.
	FetchProductDetailsCached(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error)

	// -----------------------------------------------------------------------------

	// CheckStock fetches a fresh stock snapshot for the given variants.
	CheckStock(ctx context.Context, configSku string, simpleSkus []string, campaignID string) (map[string]models.MStockEntry, error)

	// -----------------------------------------------------------------------------

	// AddToCart attempts one cart insertion. With withSecuritySession the
	// current anti-bot cookies and sensor blob are replayed on the request.
	AddToCart(ctx context.Context, configSku, simpleSku, campaignID string, withSecuritySession bool) (*models.MReservationResult, error)

	// -----------------------------------------------------------------------------

	// GetCart fetches the live cart state.
	GetCart(ctx context.Context) (*models.MCartState, error)

	// -----------------------------------------------------------------------------

	// ExtendCart prolongs the cart reservation window.
	ExtendCart(ctx context.Context) (*models.MCartState, error)

	// -----------------------------------------------------------------------------

	// RefreshToken exchanges the refresh credential for a new token pair.
	RefreshToken(ctx context.Context, refreshToken string) (*models.MTokenPair, error)
}
