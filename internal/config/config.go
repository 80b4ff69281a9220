package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// Config 全局配置
// 加载顺序：默认值 -> YAML 文件 -> 环境变量
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Ebay      EbayConfig      `yaml:"ebay"`
	Listing   ListingConfig   `yaml:"listing"`
	Profit    ProfitConfig    `yaml:"profit"`
	Fees      FeesConfig      `yaml:"fees"`
	Sync      SyncConfig      `yaml:"sync"`
	AI        AIConfig        `yaml:"ai"`
	Images    ImagesConfig    `yaml:"images"`
	Inventory InventoryConfig `yaml:"inventory"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	Debug     bool   `yaml:"debug"`
}

// StorageConfig 键值缓存后端：file / gorm / redis
type StorageConfig struct {
	Driver        string `yaml:"driver"`
	Dir           string `yaml:"dir"`
	DSN           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type EbayConfig struct {
	Sandbox       bool     `yaml:"sandbox"`
	TradingURL    string   `yaml:"trading_url"`
	TaxonomyURL   string   `yaml:"taxonomy_url"`
	AuthURL       string   `yaml:"auth_url"`
	TokenURL      string   `yaml:"token_url"`
	ClientID      string   `yaml:"client_id"`
	ClientSecret  string   `yaml:"client_secret"`
	RuName        string   `yaml:"ru_name"`
	Scopes        []string `yaml:"scopes"`
	RefreshToken  string   `yaml:"refresh_token"`
	AuthToken     string   `yaml:"auth_token"`
	DevID         string   `yaml:"dev_id"`
	SiteID        int      `yaml:"site_id"`
	CompatLevel   int      `yaml:"compat_level"`
	MarketplaceID string   `yaml:"marketplace_id"`
	Currency      string   `yaml:"currency"`
	TimeoutSec    int      `yaml:"timeout_sec"`
	UploadSec     int      `yaml:"upload_timeout_sec"`
	ProxyURL      string   `yaml:"proxy_url"`
}

type ListingConfig struct {
	Country        string `yaml:"country"`
	Location       string `yaml:"location"`
	PostalCode     string `yaml:"postal_code"`
	Duration       string `yaml:"duration"`
	ListingType    string `yaml:"listing_type"`
	BestOffer      bool   `yaml:"best_offer"`
	ScheduleDays   int    `yaml:"schedule_days"`
	ShippingPolicy string `yaml:"shipping_policy"`
	ReturnPolicy   string `yaml:"return_policy"`
	PaymentPolicy  string `yaml:"payment_policy"`
	Quantity       int    `yaml:"quantity"`
	DispatchDays   int    `yaml:"dispatch_days"`
	MaxImages      int    `yaml:"max_images"`
}

type ProfitConfig struct {
	HomeMarketplace      string             `yaml:"home_marketplace"`
	NonDomesticSurcharge float64            `yaml:"non_domestic_surcharge"`
	HomeShipping         float64            `yaml:"home_shipping"`
	DefaultShipping      float64            `yaml:"default_shipping"`
	VATRates             map[string]float64 `yaml:"vat_rates"`
}

type FeesConfig struct {
	Default    model.FeeInfo            `yaml:"default"`
	Categories map[string]model.FeeInfo `yaml:"categories"`
}

type SyncConfig struct {
	CacheTTLHours  int     `yaml:"cache_ttl_hours"`
	EntriesPerPage int     `yaml:"entries_per_page"`
	PagesPerSecond float64 `yaml:"pages_per_second"`
	CronSpec       string  `yaml:"cron_spec"`
}

type AIConfig struct {
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	MaxAllowedValues int    `yaml:"max_allowed_values"`
	MaxImages        int    `yaml:"max_images"`
}

// ImagesConfig 图片来源：local 目录或 s3
type ImagesConfig struct {
	Provider  string `yaml:"provider"`
	Dir       string `yaml:"dir"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

type InventoryConfig struct {
	DSN string `yaml:"dsn"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: "8080"},
		Storage: StorageConfig{Driver: "file", Dir: "data/cache"},
		Ebay: EbayConfig{
			SiteID:        77,
			CompatLevel:   1193,
			MarketplaceID: "EBAY_DE",
			Currency:      "EUR",
			TimeoutSec:    30,
			UploadSec:     60,
			Scopes:        []string{"https://api.ebay.com/oauth/api_scope", "https://api.ebay.com/oauth/api_scope/sell.inventory"},
		},
		Listing: ListingConfig{
			Country:     "DE",
			Location:    "Berlin",
			Duration:    "GTC",
			ListingType: "FixedPriceItem",
			BestOffer:   true,
			Quantity:    1,
			MaxImages:   24,
		},
		Profit: ProfitConfig{
			HomeMarketplace:      "EBAY_DE",
			NonDomesticSurcharge: 1.00,
			HomeShipping:         9.40,
			DefaultShipping:      16.90,
			VATRates: map[string]float64{
				"DE": 0.19, "AT": 0.20, "FR": 0.20, "IT": 0.22, "ES": 0.21,
				"NL": 0.21, "BE": 0.21, "GB": 0.20, "PL": 0.23, "IE": 0.23,
			},
		},
		Fees: FeesConfig{
			Default: model.FeeInfo{PaymentFee: 0.35, CommissionPct: 0.10},
		},
		Sync: SyncConfig{CacheTTLHours: 6, EntriesPerPage: 200, PagesPerSecond: 2, CronSpec: "0 0 */6 * * *"},
		AI:   AIConfig{Model: "gemini-2.0-flash", MaxAllowedValues: 25, MaxImages: 4},
		Images: ImagesConfig{
			Provider: "local",
			Dir:      "data/images",
		},
		Inventory: InventoryConfig{DSN: "data/inventory.db"},
	}
}

// Load 读取配置；path 为空或文件不存在时只用默认值 + 环境变量
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case err == nil:
			defer f.Close()
			if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
				return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("打开配置文件失败: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Ebay.Sandbox {
		cfg.applySandboxURLs()
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("SERVER_PORT", c.Server.Port)
	c.Server.JWTSecret = getEnv("JWT_SECRET", c.Server.JWTSecret)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Dir = getEnv("CACHE_DIR", c.Storage.Dir)
	c.Storage.DSN = getEnv("DB_DSN", c.Storage.DSN)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)

	c.Ebay.Sandbox = getEnvBool("EBAY_SANDBOX", c.Ebay.Sandbox)
	c.Ebay.ClientID = getEnv("EBAY_CLIENT_ID", c.Ebay.ClientID)
	c.Ebay.ClientSecret = getEnv("EBAY_CLIENT_SECRET", c.Ebay.ClientSecret)
	c.Ebay.RuName = getEnv("EBAY_RU_NAME", c.Ebay.RuName)
	c.Ebay.RefreshToken = getEnv("EBAY_REFRESH_TOKEN", c.Ebay.RefreshToken)
	c.Ebay.AuthToken = getEnv("EBAY_AUTH_TOKEN", c.Ebay.AuthToken)
	c.Ebay.DevID = getEnv("EBAY_DEV_ID", c.Ebay.DevID)
	c.Ebay.SiteID = getEnvInt("EBAY_SITE_ID", c.Ebay.SiteID)
	c.Ebay.MarketplaceID = getEnv("EBAY_MARKETPLACE_ID", c.Ebay.MarketplaceID)
	c.Ebay.ProxyURL = getEnv("EBAY_PROXY_URL", c.Ebay.ProxyURL)

	c.Sync.CacheTTLHours = getEnvInt("LISTINGS_CACHE_TTL_HOURS", c.Sync.CacheTTLHours)

	c.AI.APIKey = getEnv("GEMINI_API_KEY", c.AI.APIKey)
	c.AI.Model = getEnv("GEMINI_MODEL", c.AI.Model)

	c.Images.Provider = getEnv("IMAGE_PROVIDER", c.Images.Provider)
	c.Images.Dir = getEnv("IMAGE_DIR", c.Images.Dir)
	c.Images.Bucket = getEnv("AWS_BUCKET", c.Images.Bucket)
	c.Images.Region = getEnv("AWS_REGION", c.Images.Region)
	c.Images.AccessKey = getEnv("AWS_ACCESS_KEY_ID", c.Images.AccessKey)
	c.Images.SecretKey = getEnv("AWS_SECRET_ACCESS_KEY", c.Images.SecretKey)
	c.Images.Endpoint = getEnv("S3_ENDPOINT", c.Images.Endpoint)

	c.Inventory.DSN = getEnv("INVENTORY_DSN", c.Inventory.DSN)
}

func (c *Config) applySandboxURLs() {
	if c.Ebay.TradingURL == "" {
		c.Ebay.TradingURL = "https://api.sandbox.ebay.com/ws/api.dll"
	}
	if c.Ebay.TaxonomyURL == "" {
		c.Ebay.TaxonomyURL = "https://api.sandbox.ebay.com/commerce/taxonomy/v1"
	}
	if c.Ebay.AuthURL == "" {
		c.Ebay.AuthURL = "https://auth.sandbox.ebay.com/oauth2/authorize"
	}
	if c.Ebay.TokenURL == "" {
		c.Ebay.TokenURL = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	}
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return defaultValue
}
