package model

import "time"

// ManufacturerInfo 制造商信息（GPSR）
type ManufacturerInfo struct {
	Brand       string    `json:"brand"`
	CompanyName string    `json:"company_name"`
	Street      string    `json:"street"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	Country     string    `json:"country"`
	Phone       string    `json:"phone,omitempty"`
	Email       string    `json:"email,omitempty"`
	URL         string    `json:"url,omitempty"`
	CachedAt    time.Time `json:"cached_at"`
}

// Complete 街道、城市、邮编、国家齐全才可输出
func (m *ManufacturerInfo) Complete() bool {
	return m != nil && m.Street != "" && m.City != "" && m.PostalCode != "" && m.Country != ""
}
