package service

import (
	"time"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/utils"
)

// FeeCacheDuration 费用缓存的预期有效期；读取时不检查
const FeeCacheDuration = 30 * 24 * time.Hour

// FeeResolver 分类费用：站点+分类覆盖 > 分类覆盖 > 默认
type FeeResolver struct {
	defaults   model.FeeInfo
	categories map[string]model.FeeInfo
	cache      *utils.TTLCache[string, model.FeeInfo]
}

// NewFeeResolver 创建费用解析器
// categories 的键可以是 "15709" 或 "EBAY_DE:15709"
func NewFeeResolver(defaults model.FeeInfo, categories map[string]model.FeeInfo) *FeeResolver {
	if categories == nil {
		categories = map[string]model.FeeInfo{}
	}
	return &FeeResolver{
		defaults:   defaults,
		categories: categories,
		cache:      utils.NewTTLCache[string, model.FeeInfo](0),
	}
}

// Resolve 查询费用
func (r *FeeResolver) Resolve(categoryID, marketplace string) model.FeeInfo {
	key := marketplace + ":" + categoryID
	if fee, ok := r.cache.Get(key); ok {
		return fee
	}

	fee := r.defaults
	if f, ok := r.categories[key]; ok {
		fee = f
	} else if f, ok := r.categories[categoryID]; ok {
		fee = f
	}

	r.cache.Set(key, fee)
	return fee
}

// Defaults 默认费用
func (r *FeeResolver) Defaults() model.FeeInfo {
	return r.defaults
}

// Invalidate 清空缓存
func (r *FeeResolver) Invalidate() {
	r.cache.Clear()
}
