package model

// ProfitAnalysis 单条刊登利润拆解
type ProfitAnalysis struct {
	Brutto          float64 `json:"brutto"`
	Surcharge       float64 `json:"surcharge"`
	VATRate         float64 `json:"vat_rate"`
	Netto           float64 `json:"netto"`
	PaymentFee      float64 `json:"payment_fee"`
	Commission      float64 `json:"commission"`
	CommissionPct   float64 `json:"commission_pct"`
	ShippingCostNet float64 `json:"shipping_cost_net"`
	TotalCostNet    float64 `json:"total_cost_net"`
	NetProfit       float64 `json:"net_profit"`
	MarginPct       float64 `json:"margin_pct"`
}

// ProfitInput 利润计算输入
// 覆盖字段为 nil 时走分类模板/默认配置
type ProfitInput struct {
	SKU         string   `json:"sku"`
	Brutto      float64  `json:"brutto"`
	Marketplace string   `json:"marketplace"`
	CategoryID  string   `json:"category_id"`
	CostNet     *float64 `json:"cost_net,omitempty"`
	PaymentFee  *float64 `json:"payment_fee,omitempty"`
	Commission  *float64 `json:"commission_pct,omitempty"`
	Shipping    *float64 `json:"shipping,omitempty"`
}
