package catalog

// -----------------------------------------------------------------------------
// Wire Schemas
//
// Explicit decode targets for the catalog responses. Anything that does not
// fit these shapes is a decode failure at this boundary, never a panic in the
// poll loop.
// -----------------------------------------------------------------------------

type productDetailsResponse struct {
	Sku             string   `json:"sku"`
	NameShop        string   `json:"nameShop"`
	NameCategoryTag string   `json:"nameCategoryTag"`
	Brand           string   `json:"brand"`
	NameColor       string   `json:"nameColor"`
	Price           int      `json:"price"`
	SpecialPrice    int      `json:"specialPrice"`
	Savings         int      `json:"savings"`
	Images          []string `json:"images"`
	Simples         []simpleVariant `json:"simples"`
}

type simpleVariant struct {
	Sku          string `json:"sku"`
	SupplierSize string `json:"supplier_size"`
	FilterValue  string `json:"filterValue"`
	StockStatus  string `json:"stockStatus"`
}

// -----------------------------------------------------------------------------

type stockCheckRequest struct {
	ConfigSku          string   `json:"configSku"`
	SimpleSkus         []string `json:"simpleSkus"`
	CampaignIdentifier string   `json:"campaignIdentifier"`
}

type stockItem struct {
	SimpleSku   string `json:"simpleSku"`
	Quantity    int    `json:"quantity"`
	StockStatus string `json:"stockStatus"`
}

// -----------------------------------------------------------------------------

type cartInsertRequest struct {
	ConfigSku          string `json:"configSku"`
	Quantity           string `json:"quantity"`
	CampaignIdentifier string `json:"campaignIdentifier"`
	SimpleSku          string `json:"simpleSku"`
}

type cartResponse struct {
	Items                    []cartItem `json:"items"`
	RemainingLifetimeSeconds int        `json:"remainingLifetimeSeconds"`
	ProlongCounter           int        `json:"prolongCounter"`
}

type cartItem struct {
	ConfigSku string `json:"configSku"`
	SimpleSku string `json:"simpleSku"`
	Quantity  int    `json:"quantity"`
}

// -----------------------------------------------------------------------------

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}
