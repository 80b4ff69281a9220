package model

// EnrichmentResult 属性补全结果
type EnrichmentResult struct {
	SKU             string            `json:"sku"`
	Required        map[string]string `json:"required"`
	Optional        map[string]string `json:"optional"`
	MissingRequired []string          `json:"missing_required"`
	UpdatedFields   int               `json:"updated_fields"`
	Skipped         bool              `json:"skipped"`
	SEO             *SEOResult        `json:"seo,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
}

// SEOResult SEO 补全结果
type SEOResult struct {
	Fields        map[string]string `json:"fields"`
	UpdatedFields int               `json:"updated_fields"`
	Source        string            `json:"source"` // vision / text / skipped
}

// ImageUploadResult 图片上传结果
type ImageUploadResult struct {
	SKU      string   `json:"sku"`
	Uploaded int      `json:"uploaded"`
	Cached   int      `json:"cached"`
	Failed   int      `json:"failed"`
	Total    int      `json:"total"`
	URLs     []string `json:"urls"`
	Errors   []string `json:"errors,omitempty"`
}

// ImageFile 图片文件
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}
