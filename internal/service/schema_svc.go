package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/utils"
)

// SchemaService 分类模板缓存
// 持久化按 (category_id, marketplace) 存储，刷新时整体替换
type SchemaService struct {
	store              kvstore.Store
	taxonomy           TaxonomyAPI
	fees               *FeeResolver
	treeIDs            *utils.TTLCache[string, string]
	defaultMarketplace string
}

// NewSchemaService 创建分类模板服务
// treeIDs 由调用方构造并在进程内共享
func NewSchemaService(store kvstore.Store, taxonomy TaxonomyAPI, fees *FeeResolver, treeIDs *utils.TTLCache[string, string], defaultMarketplace string) *SchemaService {
	if treeIDs == nil {
		treeIDs = utils.NewTTLCache[string, string](24 * time.Hour)
	}
	if defaultMarketplace == "" {
		defaultMarketplace = "EBAY_DE"
	}
	return &SchemaService{
		store:              store,
		taxonomy:           taxonomy,
		fees:               fees,
		treeIDs:            treeIDs,
		defaultMarketplace: defaultMarketplace,
	}
}

func schemaKey(marketplace, categoryID string) string {
	return kvstore.Key("schema", marketplace, categoryID)
}

func (s *SchemaService) marketplace(mp string) string {
	if mp = strings.TrimSpace(mp); mp != "" {
		return mp
	}
	return s.defaultMarketplace
}

// ==================== 查询方法 ====================

// Get 读取分类模板，本地没有时远程拉取并持久化
func (s *SchemaService) Get(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error) {
	categoryID = strings.TrimSpace(categoryID)
	if categoryID == "" {
		return nil, fmt.Errorf("%w: 分类 ID 为空", model.ErrValidation)
	}
	marketplace = s.marketplace(marketplace)

	schema, err := s.Cached(ctx, categoryID, marketplace)
	if err == nil {
		return schema, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	return s.fetch(ctx, categoryID, marketplace)
}

// Cached 只读本地存储，不发起远程请求
func (s *SchemaService) Cached(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error) {
	marketplace = s.marketplace(marketplace)
	var schema model.CategorySchema
	err := s.store.Get(ctx, schemaKey(marketplace, categoryID), &schema)
	metrics.RecordCacheLookup("schema", err == nil)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: 分类 %s/%s 的模板", model.ErrNotFound, marketplace, categoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("读取分类模板失败: %w", err)
	}
	return &schema, nil
}

// CachedIDs 本地已有模板的分类 ID
func (s *SchemaService) CachedIDs(ctx context.Context, marketplace string) ([]string, error) {
	marketplace = s.marketplace(marketplace)
	prefix := schemaKey(marketplace, "")
	keys, err := s.store.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, prefix))
	}
	return ids, nil
}

// ==================== 刷新 ====================

// Refresh 批量刷新；单个分类失败只记录，不中断
// categoryIDs 为空时刷新该站点全部已缓存分类；force=false 时只拉取缺失的
func (s *SchemaService) Refresh(ctx context.Context, categoryIDs []string, marketplace string, force bool) (*model.RefreshReport, error) {
	marketplace = s.marketplace(marketplace)
	if len(categoryIDs) == 0 {
		ids, err := s.CachedIDs(ctx, marketplace)
		if err != nil {
			return nil, fmt.Errorf("列出已缓存分类失败: %w", err)
		}
		categoryIDs = ids
	}

	report := &model.RefreshReport{Marketplace: marketplace}
	for _, id := range categoryIDs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !force {
			if schema, err := s.Cached(ctx, id, marketplace); err == nil {
				report.BatchResult.Add(id, schema, nil)
				continue
			}
		}

		schema, err := s.fetch(ctx, id, marketplace)
		if err != nil {
			log.Printf("[SchemaService] 分类 %s/%s 刷新失败: %v", marketplace, id, err)
		}
		report.BatchResult.Add(id, schema, err)
	}

	log.Printf("[SchemaService] 刷新完成 站点=%s 成功=%d 失败=%d",
		marketplace, report.BatchResult.Succeeded, report.BatchResult.Failed)
	return report, nil
}

// ==================== 远程拉取 ====================

func (s *SchemaService) treeID(ctx context.Context, marketplace string) (string, error) {
	if id, ok := s.treeIDs.Get(marketplace); ok {
		metrics.RecordCacheLookup("category_tree", true)
		return id, nil
	}
	metrics.RecordCacheLookup("category_tree", false)

	id, err := s.taxonomy.GetDefaultCategoryTreeID(ctx, marketplace)
	if err != nil {
		return "", fmt.Errorf("获取站点 %s 分类树失败: %w", marketplace, err)
	}
	s.treeIDs.Set(marketplace, id)
	return id, nil
}

func (s *SchemaService) fetch(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error) {
	treeID, err := s.treeID(ctx, marketplace)
	if err != nil {
		return nil, err
	}

	resp, err := s.taxonomy.GetItemAspectsForCategory(ctx, treeID, categoryID)
	if errors.Is(err, ebay.ErrNotFound) {
		return nil, fmt.Errorf("%w: 分类 %s 在站点 %s 不存在", model.ErrNotFound, categoryID, marketplace)
	}
	if err != nil {
		return nil, fmt.Errorf("获取分类 %s 属性失败: %w", categoryID, err)
	}
	if len(resp.Aspects) == 0 {
		return nil, fmt.Errorf("%w: 分类 %s 没有属性定义", model.ErrNotFound, categoryID)
	}

	name, err := s.taxonomy.GetCategoryName(ctx, treeID, categoryID)
	if err != nil {
		log.Printf("[SchemaService] 分类 %s 名称获取失败，继续: %v", categoryID, err)
	}

	schema := &model.CategorySchema{
		CategoryID:   categoryID,
		CategoryName: name,
		Marketplace:  marketplace,
		Fees:         s.fees.Resolve(categoryID, marketplace),
		UpdatedAt:    time.Now().UTC(),
	}
	schema.Required, schema.Optional = partitionAspects(resp.Aspects)

	if err := s.store.Put(ctx, schemaKey(marketplace, categoryID), schema); err != nil {
		return nil, fmt.Errorf("保存分类模板失败: %w", err)
	}

	log.Printf("[SchemaService] 分类 %s/%s 已缓存 必填=%d 选填=%d",
		marketplace, categoryID, len(schema.Required), len(schema.Optional))
	return schema, nil
}

// partitionAspects 按 aspectRequired 拆分，重名只保留第一次出现
func partitionAspects(aspects []ebay.Aspect) (required, optional []model.AttributeSpec) {
	seen := make(map[string]bool, len(aspects))
	for _, a := range aspects {
		name := strings.TrimSpace(a.LocalizedAspectName)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		spec := model.AttributeSpec{Name: name}
		for _, v := range a.AspectValues {
			if v.LocalizedValue != "" {
				spec.AllowedValues = append(spec.AllowedValues, v.LocalizedValue)
			}
		}

		if a.AspectConstraint.AspectRequired {
			required = append(required, spec)
		} else {
			optional = append(optional, spec)
		}
	}
	return required, optional
}
