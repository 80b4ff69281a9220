package model

import "time"

// NameValue 商品属性键值对
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ListingDraft 待提交的刊登
type ListingDraft struct {
	SKU             string            `json:"sku"`
	Title           string            `json:"title"`
	DescriptionHTML string            `json:"description_html"`
	CategoryID      string            `json:"category_id"`
	CategoryName    string            `json:"category_name"`
	ConditionID     int               `json:"condition_id"`
	Price           float64           `json:"price"`
	Quantity        int               `json:"quantity"`
	ImageURLs       []string          `json:"image_urls"`
	ItemSpecifics   []NameValue       `json:"item_specifics"`
	Manufacturer    *ManufacturerInfo `json:"manufacturer,omitempty"`
	ScheduleTime    *time.Time        `json:"schedule_time,omitempty"`
}

// ListingMessage 平台返回的错误/警告
type ListingMessage struct {
	Code         string `json:"code"`
	ShortMessage string `json:"short_message"`
	LongMessage  string `json:"long_message"`
	Severity     string `json:"severity,omitempty"`
}

// ListingResult 提交结果
type ListingResult struct {
	SKU      string           `json:"sku"`
	Success  bool             `json:"success"`
	ItemID   string           `json:"item_id,omitempty"`
	Warnings []ListingMessage `json:"warnings,omitempty"`
	Errors   []ListingMessage `json:"errors,omitempty"`
}

// ActiveListing 平台在售刊登
// SKU 可能是单个、逗号拼接或区间 (JAL00246-JAL00248)
type ActiveListing struct {
	ItemID            string          `json:"item_id"`
	SKU               string          `json:"sku"`
	Title             string          `json:"title"`
	Marketplace       string          `json:"marketplace"`
	Price             float64         `json:"price"`
	Currency          string          `json:"currency"`
	Quantity          int             `json:"quantity"`
	QuantitySold      int             `json:"quantity_sold"`
	QuantityAvailable int             `json:"quantity_available"`
	Condition         string          `json:"condition,omitempty"`
	CategoryID        string          `json:"category_id,omitempty"`
	CategoryName      string          `json:"category_name,omitempty"`
	ImageURLs         []string        `json:"image_urls,omitempty"`
	ListingURL        string          `json:"listing_url,omitempty"`
	Profit            *ProfitAnalysis `json:"profit,omitempty"`
}

// DedupKey 去重键 (item_id, sku)
func (l ActiveListing) DedupKey() string {
	return l.ItemID + "|" + l.SKU
}

// ListingsCache 当前格式的刊登缓存
type ListingsCache struct {
	Timestamp time.Time       `json:"timestamp"`
	Listings  []ActiveListing `json:"listings"`
}

// LegacyListingsCache 旧格式缓存：按 item_id 索引，时间为 unix 秒
type LegacyListingsCache struct {
	UpdatedAt int64                    `json:"updated_at"`
	Items     map[string]LegacyListing `json:"items"`
}

// LegacyListing 旧格式单条刊登
type LegacyListing struct {
	SKU      string   `json:"sku"`
	Title    string   `json:"title"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Quantity int      `json:"qty"`
	Sold     int      `json:"sold"`
	Site     string   `json:"site"`
	Pictures []string `json:"pictures,omitempty"`
}
