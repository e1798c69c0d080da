package models

// MConfig Structure
type MConfig struct {
	Name     string         `yaml:"name"`
	Host     string         `yaml:"host"`
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Storage  MStorageConfig `yaml:"storage"`
	Catalog  MCatalogConfig `yaml:"catalog"`
	Monitor  MMonitorConfig `yaml:"monitor"`
	Notify   MNotifyConfig  `yaml:"notify"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MCatalogConfig struct {
	BaseURL          string `yaml:"base_url"`
	AuthBaseURL      string `yaml:"auth_base_url"`
	SalesChannel     string `yaml:"sales_channel"`
	AppDomainID      string `yaml:"app_domain_id"`
	ClientID         string `yaml:"client_id"`
	AppVersion       string `yaml:"app_version"`
	UserAgent        string `yaml:"user_agent"`
	AuthUserAgent    string `yaml:"auth_user_agent"`
	RequestTimeout   int    `yaml:"timeout"`
	DetailsCacheSize int    `yaml:"details_cache_size"`
}

type MMonitorConfig struct {
	CheckIntervalSeconds      int  `yaml:"check_interval_seconds"`
	TokenRefreshMinutes       int  `yaml:"token_refresh_minutes"`
	CartExtendIntervalSeconds int  `yaml:"cart_extend_interval_seconds"`
	AutoReserve               bool `yaml:"auto_reserve"`
}

type MNotifyConfig struct {
	DiscordWebhook string `yaml:"discord_webhook"`
	ProductURLBase string `yaml:"product_url_base"`
	CheckoutURL    string `yaml:"checkout_url"`
}
