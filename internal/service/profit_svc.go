package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/utils"
)

// ProfitConfig 利润计算参数
type ProfitConfig struct {
	HomeMarketplace      string
	NonDomesticSurcharge float64
	HomeShipping         float64
	DefaultShipping      float64
	VATRates             map[string]float64 // 国家代码 -> 税率
}

// CachedSchemaReader 只读本地分类模板
type CachedSchemaReader interface {
	Cached(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error)
}

// CostEntry 成本缓存项；Found=false 表示库存中没有该 SKU
type CostEntry struct {
	Value float64
	Found bool
}

// ProfitService 利润计算
type ProfitService struct {
	cfg       *ProfitConfig
	fees      *FeeResolver
	schemas   CachedSchemaReader
	inventory repository.InventoryLookup
	costs     *utils.TTLCache[string, CostEntry]
}

// NewProfitService 创建利润服务；costs 在进程内只构造一次
func NewProfitService(cfg *ProfitConfig, fees *FeeResolver, schemas CachedSchemaReader, inventory repository.InventoryLookup, costs *utils.TTLCache[string, CostEntry]) *ProfitService {
	if cfg == nil {
		cfg = &ProfitConfig{}
	}
	if cfg.HomeMarketplace == "" {
		cfg.HomeMarketplace = "EBAY_DE"
	}
	if cfg.VATRates == nil {
		cfg.VATRates = map[string]float64{"DE": 0.19}
	}
	if costs == nil {
		costs = NewCostCache()
	}
	return &ProfitService{cfg: cfg, fees: fees, schemas: schemas, inventory: inventory, costs: costs}
}

// NewCostCache 进程级成本缓存（不过期）
func NewCostCache() *utils.TTLCache[string, CostEntry] {
	return utils.NewTTLCache[string, CostEntry](0)
}

// ==================== 计算 ====================

// ProfitParams 已解析好的计算参数
type ProfitParams struct {
	Brutto        float64
	Surcharge     float64
	VATRate       float64
	PaymentFee    float64
	CommissionPct float64
	Shipping      float64
	TotalCostNet  float64
}

// CalculateProfit 每一步先取整再参与后续计算
// 佣金基数为含附加费的毛价
func CalculateProfit(p ProfitParams) *model.ProfitAnalysis {
	brutto := utils.Round2(p.Brutto + p.Surcharge)
	netto := utils.Round2(brutto / (1 + p.VATRate))
	pct := utils.Round4(p.CommissionPct)
	commission := utils.Round2(brutto * pct)
	payment := utils.Round2(p.PaymentFee)
	shipping := utils.Round2(p.Shipping)
	cost := utils.Round2(p.TotalCostNet)

	net := utils.Round2(netto - commission - payment - shipping - cost)
	margin := 0.0
	if cost > 0 {
		margin = utils.Round4(net / cost * 100)
	}

	return &model.ProfitAnalysis{
		Brutto:          brutto,
		Surcharge:       utils.Round2(p.Surcharge),
		VATRate:         utils.Round4(p.VATRate),
		Netto:           netto,
		PaymentFee:      payment,
		Commission:      commission,
		CommissionPct:   pct,
		ShippingCostNet: shipping,
		TotalCostNet:    cost,
		NetProfit:       net,
		MarginPct:       margin,
	}
}

// Calculate 解析费用/税率/运费/成本后计算
func (s *ProfitService) Calculate(ctx context.Context, in *model.ProfitInput) (*model.ProfitAnalysis, error) {
	if in.Brutto <= 0 {
		return nil, fmt.Errorf("%w: 价格必须大于 0", model.ErrValidation)
	}
	marketplace := in.Marketplace
	if marketplace == "" {
		marketplace = s.cfg.HomeMarketplace
	}
	home := s.IsHome(marketplace)

	params := ProfitParams{
		Brutto:  in.Brutto,
		VATRate: s.VATRate(marketplace),
	}
	if !home {
		params.Surcharge = s.cfg.NonDomesticSurcharge
	}

	fee := s.resolveFees(ctx, in.CategoryID, marketplace)
	params.PaymentFee = fee.PaymentFee
	params.CommissionPct = fee.CommissionPct
	if in.PaymentFee != nil {
		params.PaymentFee = *in.PaymentFee
	}
	if in.Commission != nil {
		params.CommissionPct = *in.Commission
	}

	params.Shipping = s.cfg.DefaultShipping
	if home {
		params.Shipping = s.cfg.HomeShipping
	}
	if in.Shipping != nil {
		params.Shipping = *in.Shipping
	}

	if in.CostNet != nil {
		params.TotalCostNet = *in.CostNet
	} else if in.SKU != "" {
		cost, _, err := s.CostForSKU(ctx, in.SKU)
		if err != nil {
			return nil, err
		}
		params.TotalCostNet = cost
	}

	return CalculateProfit(params), nil
}

// resolveFees 本地分类模板 > 费用配置
func (s *ProfitService) resolveFees(ctx context.Context, categoryID, marketplace string) model.FeeInfo {
	if categoryID != "" && s.schemas != nil {
		if schema, err := s.schemas.Cached(ctx, categoryID, marketplace); err == nil {
			return schema.Fees
		}
	}
	if s.fees == nil {
		return model.FeeInfo{}
	}
	if categoryID != "" {
		return s.fees.Resolve(categoryID, marketplace)
	}
	return s.fees.Defaults()
}

// ==================== 成本 ====================

// CostForSKU 组合/区间 SKU 返回各单品成本之和；found=false 表示全部缺失
func (s *ProfitService) CostForSKU(ctx context.Context, listingSKU string) (float64, bool, error) {
	total := 0.0
	found := false
	for _, sku := range ExpandSKUs(listingSKU) {
		entry, err := s.lookupCost(ctx, sku)
		if err != nil {
			return 0, false, err
		}
		if entry.Found {
			total += entry.Value
			found = true
		}
	}
	return utils.Round2(total), found, nil
}

func (s *ProfitService) lookupCost(ctx context.Context, sku string) (CostEntry, error) {
	if entry, ok := s.costs.Get(sku); ok {
		metrics.RecordCacheLookup("inventory_cost", true)
		return entry, nil
	}
	metrics.RecordCacheLookup("inventory_cost", false)

	if s.inventory == nil {
		return CostEntry{}, nil
	}
	cost, err := s.inventory.NetCost(ctx, sku)
	if errors.Is(err, model.ErrNotFound) {
		s.costs.Set(sku, CostEntry{})
		return CostEntry{}, nil
	}
	if err != nil {
		return CostEntry{}, fmt.Errorf("查询 SKU %s 成本失败: %w", sku, err)
	}
	entry := CostEntry{Value: cost, Found: true}
	s.costs.Set(sku, entry)
	return entry, nil
}

// InvalidateCosts 清空成本缓存
func (s *ProfitService) InvalidateCosts() {
	s.costs.Clear()
}

// Annotate 为在售刊登附加利润；单条失败只记日志
func (s *ProfitService) Annotate(ctx context.Context, listings []model.ActiveListing) {
	for i := range listings {
		l := &listings[i]
		if l.Price <= 0 {
			continue
		}
		analysis, err := s.Calculate(ctx, &model.ProfitInput{
			SKU:         l.SKU,
			Brutto:      l.Price,
			Marketplace: l.Marketplace,
			CategoryID:  l.CategoryID,
		})
		if err != nil {
			log.Printf("[ProfitService] 刊登 %s (%s) 利润计算失败: %v", l.ItemID, l.SKU, err)
			continue
		}
		l.Profit = analysis
	}
}

// ==================== 站点 ====================

var siteCountries = map[string]string{
	"germany": "DE", "austria": "AT", "france": "FR", "italy": "IT", "spain": "ES",
	"netherlands": "NL", "belgium_dutch": "BE", "belgium_french": "BE", "belgium": "BE",
	"uk": "GB", "unitedkingdom": "GB", "poland": "PL", "ireland": "IE",
}

// CountryOf 站点 -> 国家代码，支持 EBAY_DE 与 Germany 两种写法
func CountryOf(marketplace string) string {
	m := strings.TrimSpace(marketplace)
	if upper := strings.ToUpper(m); strings.HasPrefix(upper, "EBAY_") {
		code := strings.TrimPrefix(upper, "EBAY_")
		if code == "UK" {
			return "GB"
		}
		return code
	}
	if c, ok := siteCountries[strings.ToLower(strings.ReplaceAll(m, " ", ""))]; ok {
		return c
	}
	return strings.ToUpper(m)
}

// IsHome 是否本国站点
func (s *ProfitService) IsHome(marketplace string) bool {
	return CountryOf(marketplace) == CountryOf(s.cfg.HomeMarketplace)
}

// VATRate 未知国家按本国税率
func (s *ProfitService) VATRate(marketplace string) float64 {
	if rate, ok := s.cfg.VATRates[CountryOf(marketplace)]; ok {
		return rate
	}
	return s.cfg.VATRates[CountryOf(s.cfg.HomeMarketplace)]
}
