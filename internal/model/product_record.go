package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ProductRecord 单个 SKU 的商品记录
// 未识别的历史字段保存在 Extra 中，读写一轮后不会丢失
type ProductRecord struct {
	SKU         string             `json:"sku"`
	Category    CategorySection    `json:"category"`
	Images      ImageSection       `json:"images"`
	Internal    InternalAttributes `json:"internal_attributes"`
	Generated   GeneratedSection   `json:"generated_attributes"`
	Marketplace MarketplaceSection `json:"marketplace_fields"`
	SEO         SEOSection         `json:"seo"`
	Condition   string             `json:"condition"`

	Extra map[string]json.RawMessage `json:"-"`
}

// CategorySection 分类信息
type CategorySection struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Marketplace string `json:"marketplace,omitempty"`
}

// EbayImage 上架图片（按 Order 排序，CachedURL 为已托管地址）
type EbayImage struct {
	Filename  string `json:"filename"`
	Order     int    `json:"order"`
	CachedURL string `json:"cached_url,omitempty"`
}

// ImageSection 图片信息
type ImageSection struct {
	Main []string    `json:"main"`
	Ebay []EbayImage `json:"ebay"`
}

// InternalAttributes 内部录入的属性
type InternalAttributes struct {
	Brand    string            `json:"brand"`
	Color    string            `json:"color"`
	Size     string            `json:"size"`
	Material string            `json:"material"`
	Notes    string            `json:"notes"`
	Gender   string            `json:"gender,omitempty"`
	Other    map[string]string `json:"other,omitempty"`
}

// GeneratedSection AI 补全的分类属性
type GeneratedSection struct {
	Required map[string]string `json:"required"`
	Optional map[string]string `json:"optional"`
}

// MarketplaceSection 平台侧字段
type MarketplaceSection struct {
	ItemID   string    `json:"item_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Price    float64   `json:"price,omitempty"`
	ListedAt time.Time `json:"listed_at,omitempty"`
}

// SEOSection SEO 字段
type SEOSection struct {
	ProductType  string `json:"product_type"`
	ProductModel string `json:"product_model"`
	Keyword1     string `json:"keyword_1"`
	Keyword2     string `json:"keyword_2"`
	Keyword3     string `json:"keyword_3"`
}

// SEOFieldNames SEO 字段固定顺序
var SEOFieldNames = []string{"product_type", "product_model", "keyword_1", "keyword_2", "keyword_3"}

// ToMap 转成 字段名 -> 值
func (s SEOSection) ToMap() map[string]string {
	return map[string]string{
		"product_type":  s.ProductType,
		"product_model": s.ProductModel,
		"keyword_1":     s.Keyword1,
		"keyword_2":     s.Keyword2,
		"keyword_3":     s.Keyword3,
	}
}

// SEOFromMap 由 map 还原
func SEOFromMap(m map[string]string) SEOSection {
	return SEOSection{
		ProductType:  m["product_type"],
		ProductModel: m["product_model"],
		Keyword1:     m["keyword_1"],
		Keyword2:     m["keyword_2"],
		Keyword3:     m["keyword_3"],
	}
}

// Keywords 标题关键词：型号 + 关键词，没有时退回商品类型
func (s SEOSection) Keywords() string {
	parts := make([]string, 0, 4)
	for _, v := range []string{s.ProductModel, s.Keyword1, s.Keyword2, s.Keyword3} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(s.ProductType)
	}
	return strings.Join(parts, " ")
}

// CurrentValues 必填+选填合并成一个扁平 map
// 同名时必填优先，但空的必填值不覆盖选填里的值
func (r *ProductRecord) CurrentValues() map[string]string {
	out := make(map[string]string, len(r.Generated.Required)+len(r.Generated.Optional))
	for k, v := range r.Generated.Optional {
		out[k] = v
	}
	for k, v := range r.Generated.Required {
		if strings.TrimSpace(v) != "" || strings.TrimSpace(out[k]) == "" {
			out[k] = v
		}
	}
	return out
}

// recordSections 已知字段名，其余字段进 Extra
var recordSections = map[string]bool{
	"sku": true, "category": true, "images": true, "internal_attributes": true,
	"generated_attributes": true, "marketplace_fields": true, "seo": true, "condition": true,
}

type productRecordAlias ProductRecord

// UnmarshalJSON 解析已知分段，保留未知字段
func (r *ProductRecord) UnmarshalJSON(data []byte) error {
	var alias productRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = ProductRecord(alias)
	for k, v := range raw {
		if recordSections[k] {
			continue
		}
		if r.Extra == nil {
			r.Extra = make(map[string]json.RawMessage)
		}
		r.Extra[k] = v
	}
	return nil
}

// MarshalJSON 输出已知分段 + Extra
func (r ProductRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(productRecordAlias(r))
	if err != nil || len(r.Extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, known := merged[k]; !known {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
