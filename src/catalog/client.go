package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lounge-monitor/src/helpers"
	"lounge-monitor/src/interfaces"
	"lounge-monitor/src/logger"
	"lounge-monitor/src/models"
	"lounge-monitor/src/session"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// -----------------------------------------------------------------------------
// Catalog Client
// -----------------------------------------------------------------------------

// stockStatusAvailable is the only status the backend reports for a
// purchasable variant.
const stockStatusAvailable = "AVAILABLE"

type detailsEntry struct {
	info        models.MProductInfo
	sizeMapping map[string]models.MSizeInfo
	simpleSkus  []string
}

// Client is the stateless request layer against the private mobile-app API.
// Credentials are read from the session store per request; the client never
// writes back to it.
type Client struct {
	Config  *models.MCatalogConfig
	Session *session.Store
	Logger  *logger.Logger

	http *resty.Client
	auth *resty.Client

	// details caches immutable catalog descriptions for the preview
	// endpoint; stock is never cached.
	details *lru.Cache[string, detailsEntry]
}

var _ interfaces.ICatalogClient = (*Client)(nil)

// -----------------------------------------------------------------------------

func NewClient(cfg *models.MCatalogConfig, sess *session.Store, log *logger.Logger) (*Client, error) {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("X-Device-Type", "smartphone").
		SetHeader("X-Zalando-Client-Id", cfg.ClientID).
		SetHeader("X-Device-OS", "iOS").
		SetHeader("X-Sales-Channel", cfg.SalesChannel).
		SetHeader("X-App-Version", cfg.AppVersion).
		SetHeader("zmobile-os", "ios").
		SetHeader("Accept-Language", "fr-FR").
		SetHeader("X-APPDOMAINID", cfg.AppDomainID).
		SetHeader("CLIENT_TYPE", "ios-app").
		SetHeader("Accept", "application/json,application/problem+json").
		SetHeader("Content-Type", "application/json").
		SetHeader("X-IOS-VERSION", cfg.AppVersion).
		SetHeader("X-API-VERSION", "v1")

	authClient := resty.New().
		SetBaseURL(cfg.AuthBaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.AuthUserAgent).
		SetHeader("Accept", "*/*").
		SetHeader("Accept-Language", "fr-FR,fr;q=0.9")

	cache, err := lru.New[string, detailsEntry](cfg.DetailsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("details cache: %w", err)
	}

	return &Client{
		Config:  cfg,
		Session: sess,
		Logger:  log,
		http:    httpClient,
		auth:    authClient,
		details: cache,
	}, nil
}

// -----------------------------------------------------------------------------
// Request Plumbing
// -----------------------------------------------------------------------------

// newRequest stamps the per-request headers: a fresh flow id plus the current
// bearer token, read from the session store at call time.
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx)
	req.SetHeader("X-Flow-Id", helpers.NewFlowID())
	if auth := c.Session.Authorization(); auth != "" {
		req.SetHeader("Authorization", auth)
	}
	return req
}

// -----------------------------------------------------------------------------

// attachSecuritySession replays the captured anti-bot material verbatim. The
// sensor blob is forwarded untouched; the client never regenerates or mutates
// it.
func (c *Client) attachSecuritySession(req *resty.Request) {
	cookies, sensor := c.Session.SecuritySession()
	for name, value := range cookies {
		req.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	if sensor != "" {
		req.SetHeader("X-acf-sensor-data", sensor)
	}
}

// -----------------------------------------------------------------------------

// execute runs a request and applies the error taxonomy: transport failures,
// 401/403, other >=400, then a JSON decode into out (skipped when out is
// nil).
func (c *Client) execute(req *resty.Request, method, path string, out interface{}) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return helpers.NewTransport(err)
	}
	if clsErr := helpers.ClassifyStatus(resp.StatusCode(), string(resp.Body())); clsErr != nil {
		return clsErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return helpers.NewDecode(err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Product Details
// -----------------------------------------------------------------------------

func (c *Client) FetchProductDetails(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error) {
	var details productDetailsResponse
	path := fmt.Sprintf("/phoenix-api/catalog/events/%s/articles/%s", campaignID, articleID)
	if err := c.execute(c.newRequest(ctx), http.MethodGet, path, &details); err != nil {
		return nil, nil, nil, err
	}

	if details.Sku == "" {
		return nil, nil, nil, helpers.NewDecode(fmt.Errorf("product %s/%s has no config sku", campaignID, articleID))
	}

	title := details.NameShop
	if title == "" {
		title = details.NameCategoryTag
	}

	info := &models.MProductInfo{
		Title:         title,
		Brand:         details.Brand,
		Color:         details.NameColor,
		Price:         formatCents(details.SpecialPrice),
		OriginalPrice: formatCents(details.Price),
		Discount:      fmt.Sprintf("-%d%%", details.Savings),
		ConfigSku:     details.Sku,
		CampaignID:    campaignID,
	}
	if len(details.Images) > 0 {
		info.Image = details.Images[0]
	}

	sizeMapping := make(map[string]models.MSizeInfo, len(details.Simples))
	simpleSkus := make([]string, 0, len(details.Simples))
	for _, simple := range details.Simples {
		size := simple.SupplierSize
		if size == "" {
			size = simple.FilterValue
		}
		if size == "" {
			size = "N/A"
		}
		sizeMapping[simple.Sku] = models.MSizeInfo{
			Size:        size,
			StockStatus: simple.StockStatus,
			InStock:     simple.StockStatus == stockStatusAvailable,
		}
		simpleSkus = append(simpleSkus, simple.Sku)
	}

	c.details.Add(campaignID+"-"+articleID, detailsEntry{
		info:        *info,
		sizeMapping: sizeMapping,
		simpleSkus:  simpleSkus,
	})

	return info, sizeMapping, simpleSkus, nil
}

// -----------------------------------------------------------------------------

// FetchProductDetailsCached serves the preview endpoint from the LRU cache
// when possible; the catalog description of an article does not change over
// a campaign's lifetime.
func (c *Client) FetchProductDetailsCached(ctx context.Context, campaignID, articleID string) (*models.MProductInfo, map[string]models.MSizeInfo, []string, error) {
	if entry, ok := c.details.Get(campaignID + "-" + articleID); ok {
		info := entry.info
		return &info, entry.sizeMapping, entry.simpleSkus, nil
	}
	return c.FetchProductDetails(ctx, campaignID, articleID)
}

// -----------------------------------------------------------------------------

func formatCents(cents int) string {
	return fmt.Sprintf("€%.2f", float64(cents)/100)
}

// -----------------------------------------------------------------------------
// Stock Check
// -----------------------------------------------------------------------------

func (c *Client) CheckStock(ctx context.Context, configSku string, simpleSkus []string, campaignID string) (map[string]models.MStockEntry, error) {
	req := c.newRequest(ctx).SetBody(stockCheckRequest{
		ConfigSku:          configSku,
		SimpleSkus:         simpleSkus,
		CampaignIdentifier: campaignID,
	})

	var items []stockItem
	if err := c.execute(req, http.MethodPost, "/stockcart/articles", &items); err != nil {
		return nil, err
	}

	snapshot := make(map[string]models.MStockEntry, len(items))
	for _, item := range items {
		snapshot[item.SimpleSku] = models.MStockEntry{
			Quantity:    item.Quantity,
			StockStatus: item.StockStatus,
			InStock:     item.StockStatus == stockStatusAvailable && item.Quantity > 0,
		}
	}
	return snapshot, nil
}

// -----------------------------------------------------------------------------
// Cart Operations
// -----------------------------------------------------------------------------

func (c *Client) AddToCart(ctx context.Context, configSku, simpleSku, campaignID string, withSecuritySession bool) (*models.MReservationResult, error) {
	req := c.newRequest(ctx).
		SetHeader("x-enable-unreserved-cart", "true").
		SetBody(cartInsertRequest{
			ConfigSku:          configSku,
			Quantity:           "1",
			CampaignIdentifier: campaignID,
			SimpleSku:          simpleSku,
		})
	if withSecuritySession {
		c.attachSecuritySession(req)
	}

	var cart cartResponse
	if err := c.execute(req, http.MethodPost, "/stockcart/cart/items", &cart); err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return &models.MReservationResult{Success: false}, nil
	}

	remaining := cart.RemainingLifetimeSeconds
	if remaining == 0 {
		remaining = 1200
	}
	return &models.MReservationResult{Success: true, RemainingSeconds: remaining}, nil
}

// -----------------------------------------------------------------------------

func (c *Client) GetCart(ctx context.Context) (*models.MCartState, error) {
	req := c.newRequest(ctx).SetHeader("x-enable-unreserved-cart", "true")

	var cart cartResponse
	if err := c.execute(req, http.MethodGet, "/stockcart/cart", &cart); err != nil {
		return nil, err
	}
	return cartState(&cart), nil
}

// -----------------------------------------------------------------------------

func (c *Client) ExtendCart(ctx context.Context) (*models.MCartState, error) {
	req := c.newRequest(ctx).SetHeader("x-enable-unreserved-cart", "true")

	var cart cartResponse
	if err := c.execute(req, http.MethodPost, "/stockcart/cart/prolong", &cart); err != nil {
		return nil, err
	}
	return cartState(&cart), nil
}

// -----------------------------------------------------------------------------

func cartState(cart *cartResponse) *models.MCartState {
	state := &models.MCartState{
		RemainingSeconds: cart.RemainingLifetimeSeconds,
		ProlongCounter:   cart.ProlongCounter,
		IsEmpty:          len(cart.Items) == 0,
	}
	for _, item := range cart.Items {
		state.Items = append(state.Items, models.MCartItem{
			ConfigSku: item.ConfigSku,
			SimpleSku: item.SimpleSku,
			Quantity:  item.Quantity,
		})
	}
	return state
}

// -----------------------------------------------------------------------------
// Token Exchange
// -----------------------------------------------------------------------------

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*models.MTokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token configured")
	}

	resp, err := c.auth.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8").
		SetFormData(map[string]string{
			"refresh_token": refreshToken,
			"client_id":     "lounge",
			"grant_type":    "refresh_token",
		}).
		Post("/token")
	if err != nil {
		return nil, helpers.NewTransport(err)
	}
	if clsErr := helpers.ClassifyStatus(resp.StatusCode(), string(resp.Body())); clsErr != nil {
		return nil, clsErr
	}

	var token tokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return nil, helpers.NewDecode(err)
	}
	if token.AccessToken == "" || token.RefreshToken == "" {
		return nil, helpers.NewDecode(fmt.Errorf("token exchange response missing tokens"))
	}

	return &models.MTokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
	}, nil
}

// -----------------------------------------------------------------------------

// HTTPClient exposes the underlying transport for test instrumentation.
func (c *Client) HTTPClient() *http.Client {
	return c.http.GetClient()
}

// AuthHTTPClient exposes the token-exchange transport for test
// instrumentation.
func (c *Client) AuthHTTPClient() *http.Client {
	return c.auth.GetClient()
}
