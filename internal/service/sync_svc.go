package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
)

var (
	listingsKey       = kvstore.Key("listings", "current")
	legacyListingsKey = kvstore.Key("listings", "legacy")
)

// SyncConfig 在售列表同步配置
type SyncConfig struct {
	CacheTTL       time.Duration
	EntriesPerPage int
	Marketplace    string
	Currency       string
}

// ProfitAnnotator 为刊登附加利润
type ProfitAnnotator interface {
	Annotate(ctx context.Context, listings []model.ActiveListing)
}

// SyncService 在售列表同步与缓存
type SyncService struct {
	cfg     *SyncConfig
	store   kvstore.Store
	fetcher ActiveListingFetcher
	profit  ProfitAnnotator
	now     func() time.Time
}

// NewSyncService 创建同步服务
func NewSyncService(cfg *SyncConfig, store kvstore.Store, fetcher ActiveListingFetcher, profit ProfitAnnotator) *SyncService {
	if cfg == nil {
		cfg = &SyncConfig{}
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.EntriesPerPage == 0 {
		cfg.EntriesPerPage = ebay.MaxEntriesPerPage
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = "EBAY_DE"
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	return &SyncService{cfg: cfg, store: store, fetcher: fetcher, profit: profit, now: time.Now}
}

// ListingsOptions 查询选项
type ListingsOptions struct {
	UseCache     bool `form:"use_cache" json:"use_cache"`
	ForceRefresh bool `form:"force_refresh" json:"force_refresh"`
	WithProfit   bool `form:"with_profit" json:"with_profit"`
}

// ListingsView 查询结果
type ListingsView struct {
	Listings  []model.ActiveListing `json:"listings"`
	Source    string                `json:"source"` // cache / live
	Timestamp time.Time             `json:"timestamp"`
	Count     int                   `json:"count"`
}

// ==================== 同步 ====================

// Sync 分页拉取全部在售刊登并写入缓存
// 进度通过 onEvent 同步回调，最后一个事件为 completed 或 failed
func (s *SyncService) Sync(ctx context.Context, onEvent model.ProgressFunc) ([]model.ActiveListing, error) {
	start := time.Now()
	items, err := s.fetcher.FetchActiveListings(ctx, s.cfg.EntriesPerPage, func(p ebay.PageProgress) {
		onEvent.Emit(model.ProgressEvent{
			Status:  model.ProgressRunning,
			Current: p.Page,
			Total:   p.TotalPages,
			Count:   p.Count,
			Message: fmt.Sprintf("第 %d/%d 页", p.Page, p.TotalPages),
		})
	})
	if err != nil {
		log.Printf("[SyncService] 拉取在售列表失败: %v", err)
		onEvent.Emit(model.ProgressEvent{Status: model.ProgressFailed, Error: err.Error()})
		return nil, fmt.Errorf("同步在售列表失败: %w", err)
	}

	listings := ToActiveListings(items, s.cfg.Marketplace, s.cfg.Currency)
	cache := model.ListingsCache{Timestamp: s.now().UTC(), Listings: listings}
	if err := s.store.Put(ctx, listingsKey, cache); err != nil {
		log.Printf("[SyncService] 写入在售列表缓存失败: %v", err)
	}

	log.Printf("[SyncService] 同步完成 共 %d 条 耗时 %v", len(listings), time.Since(start))
	onEvent.Emit(model.ProgressEvent{
		Status: model.ProgressCompleted, Count: len(listings), Total: len(listings), Current: len(listings),
		Result: listings,
	})
	return listings, nil
}

// ==================== 查询 ====================

// GetActiveListings 缓存优先；两份缓存都过期/缺失或强制刷新时实时拉取
func (s *SyncService) GetActiveListings(ctx context.Context, opts ListingsOptions, onEvent model.ProgressFunc) (*ListingsView, error) {
	var view *ListingsView

	if opts.UseCache && !opts.ForceRefresh {
		view = s.fromCache(ctx)
	}
	metrics.RecordCacheLookup("listings", view != nil)

	if view == nil {
		listings, err := s.Sync(ctx, onEvent)
		if err != nil {
			return nil, err
		}
		view = &ListingsView{Listings: listings, Source: "live", Timestamp: s.now().UTC()}
	} else {
		onEvent.Emit(model.ProgressEvent{
			Status: model.ProgressCompleted, Count: len(view.Listings), Total: len(view.Listings),
			Current: len(view.Listings), Message: "cache", Result: view.Listings,
		})
	}

	if opts.WithProfit && s.profit != nil {
		s.profit.Annotate(ctx, view.Listings)
	}
	view.Count = len(view.Listings)
	return view, nil
}

// fromCache 合并未过期的当前缓存与旧格式缓存，都不可用时返回 nil
func (s *SyncService) fromCache(ctx context.Context) *ListingsView {
	now := s.now()
	var sources [][]model.ActiveListing
	var newest time.Time

	var current model.ListingsCache
	if err := s.store.Get(ctx, listingsKey, &current); err == nil {
		if now.Sub(current.Timestamp) < s.cfg.CacheTTL {
			sources = append(sources, current.Listings)
			newest = current.Timestamp
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		log.Printf("[SyncService] 读取在售列表缓存失败: %v", err)
	}

	var legacy model.LegacyListingsCache
	if err := s.store.Get(ctx, legacyListingsKey, &legacy); err == nil {
		ts := time.Unix(legacy.UpdatedAt, 0)
		if now.Sub(ts) < s.cfg.CacheTTL {
			sources = append(sources, s.legacyListings(legacy))
			if ts.After(newest) {
				newest = ts
			}
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		log.Printf("[SyncService] 读取旧格式缓存失败: %v", err)
	}

	if len(sources) == 0 {
		return nil
	}
	return &ListingsView{Listings: MergeListings(sources...), Source: "cache", Timestamp: newest.UTC()}
}

func (s *SyncService) legacyListings(c model.LegacyListingsCache) []model.ActiveListing {
	ids := make([]string, 0, len(c.Items))
	for id := range c.Items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.ActiveListing, 0, len(ids))
	for _, id := range ids {
		out = append(out, FromLegacyListing(id, c.Items[id], s.cfg.Marketplace, s.cfg.Currency))
	}
	return out
}

// MergeListings 按 (item_id, sku) 去重，先出现的保留
func MergeListings(sources ...[]model.ActiveListing) []model.ActiveListing {
	seen := make(map[string]bool)
	var out []model.ActiveListing
	for _, src := range sources {
		for _, l := range src {
			key := l.DedupKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, l)
		}
	}
	return out
}

// FindBySKU 查找包含该 SKU 的在售刊登（含逗号列表与区间）
func (s *SyncService) FindBySKU(ctx context.Context, sku string, withProfit bool) ([]model.ActiveListing, error) {
	if sku == "" {
		return nil, fmt.Errorf("%w: SKU 为空", model.ErrValidation)
	}
	view, err := s.GetActiveListings(ctx, ListingsOptions{UseCache: true, WithProfit: withProfit}, nil)
	if err != nil {
		return nil, err
	}
	var matches []model.ActiveListing
	for _, l := range view.Listings {
		if MatchesSKU(l.SKU, sku) {
			matches = append(matches, l)
		}
	}
	return matches, nil
}

// CacheInfo 当前缓存时间与条数，没有缓存返回 ErrNotFound
func (s *SyncService) CacheInfo(ctx context.Context) (*model.ListingsCache, error) {
	var current model.ListingsCache
	err := s.store.Get(ctx, listingsKey, &current)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: 在售列表缓存", model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &current, nil
}
