package model

import "time"

// AttributeSpec 分类属性定义
type AttributeSpec struct {
	Name          string   `json:"name"`
	AllowedValues []string `json:"allowed_values,omitempty"`
}

// FeeInfo 分类费用信息
type FeeInfo struct {
	PaymentFee    float64 `json:"payment_fee" yaml:"payment_fee"`
	CommissionPct float64 `json:"commission_pct" yaml:"commission_pct"`
}

// CategorySchema 平台分类模板（必填/选填属性 + 费用）
type CategorySchema struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Marketplace  string          `json:"marketplace"`
	Required     []AttributeSpec `json:"required"`
	Optional     []AttributeSpec `json:"optional"`
	Fees         FeeInfo         `json:"fees"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AttributeNames 返回全部属性名（必填在前）
func (s *CategorySchema) AttributeNames() []string {
	names := make([]string, 0, len(s.Required)+len(s.Optional))
	for _, a := range s.Required {
		names = append(names, a.Name)
	}
	for _, a := range s.Optional {
		names = append(names, a.Name)
	}
	return names
}

// RefreshReport 批量刷新分类模板结果
type RefreshReport struct {
	Marketplace string      `json:"marketplace"`
	BatchResult BatchResult `json:"result"`
}
