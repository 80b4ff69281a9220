package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
)

// EnrichConfig 属性补全配置
type EnrichConfig struct {
	MaxAllowedValues int // 提示词中每个属性最多列出的可选值
	MaxImages        int // 每次最多发送的主图数量
}

// EnrichService 属性补全：AI 建议值只填入空字段
type EnrichService struct {
	cfg     *EnrichConfig
	records repository.ProductRecordStore
	schemas SchemaProvider
	vision  VisionCompleter
	images  ImageSource
}

// NewEnrichService 创建属性补全服务
func NewEnrichService(cfg *EnrichConfig, records repository.ProductRecordStore, schemas SchemaProvider, vision VisionCompleter, images ImageSource) *EnrichService {
	if cfg == nil {
		cfg = &EnrichConfig{}
	}
	if cfg.MaxAllowedValues == 0 {
		cfg.MaxAllowedValues = 25
	}
	if cfg.MaxImages == 0 {
		cfg.MaxImages = 4
	}
	return &EnrichService{cfg: cfg, records: records, schemas: schemas, vision: vision, images: images}
}

// ==================== 单个 SKU ====================

// Enrich 补全单个 SKU 的分类属性和 SEO 字段
func (s *EnrichService) Enrich(ctx context.Context, sku string, force bool) (*model.EnrichmentResult, error) {
	rec, err := s.records.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	if rec.Category.ID == "" {
		return nil, fmt.Errorf("%w: SKU %s 没有分类", model.ErrValidation, sku)
	}

	schema, err := s.schemas.Get(ctx, rec.Category.ID, rec.Category.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("SKU %s 无法补全: %w", sku, err)
	}

	result, images, err := s.enrichAttributes(ctx, rec, schema, force)
	if err != nil {
		return nil, err
	}

	seo, err := s.enrichSEO(ctx, rec, images, force)
	if err != nil {
		log.Printf("[EnrichService] SKU %s SEO 补全失败: %v", sku, err)
		result.Warnings = append(result.Warnings, "SEO: "+err.Error())
	}
	result.SEO = seo

	if result.UpdatedFields > 0 || (seo != nil && seo.UpdatedFields > 0) {
		if err := s.records.Save(ctx, rec); err != nil {
			return nil, fmt.Errorf("保存 SKU %s 失败: %w", sku, err)
		}
	}

	log.Printf("[EnrichService] SKU %s 完成 属性更新=%d 缺失必填=%d", sku, result.UpdatedFields, len(result.MissingRequired))
	return result, nil
}

// enrichAttributes 返回结果以及已加载的主图（供 SEO 复用）
func (s *EnrichService) enrichAttributes(ctx context.Context, rec *model.ProductRecord, schema *model.CategorySchema, force bool) (*model.EnrichmentResult, []model.ImageFile, error) {
	current := rec.CurrentValues()
	result := &model.EnrichmentResult{SKU: rec.SKU}

	if !force && allFilled(current, schema.AttributeNames()) {
		result.Required = copyMap(rec.Generated.Required)
		result.Optional = copyMap(rec.Generated.Optional)
		result.MissingRequired = missingRequired(schema, current)
		result.Skipped = true
		return result, nil, nil
	}

	if len(rec.Images.Main) == 0 {
		return nil, nil, fmt.Errorf("SKU %s: %w", rec.SKU, model.ErrNoMainImages)
	}
	images, err := s.loadMainImages(ctx, rec)
	if err != nil {
		return nil, nil, err
	}

	proposed, err := s.vision.CompleteJSON(ctx, &CompletionRequest{
		SKU:     rec.SKU,
		Purpose: model.AIPurposeAttributes,
		Prompt:  buildAttributePrompt(schema, nonEmpty(current), s.cfg.MaxAllowedValues),
		Images:  images,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("SKU %s 属性识别失败: %w", rec.SKU, err)
	}
	values := normalizeProposal(proposed)

	// 已有值以扁平 map 为准，不管它当前在哪个分段
	reqValues, changedReq := mergeFillEmpty(current, specNames(schema.Required), values, force)
	optValues, changedOpt := mergeFillEmpty(current, specNames(schema.Optional), values, force)

	rec.Generated.Required = placeSection(rec.Generated.Required, reqValues, optValues)
	rec.Generated.Optional = placeSection(rec.Generated.Optional, optValues, reqValues)

	result.Required = copyMap(rec.Generated.Required)
	result.Optional = copyMap(rec.Generated.Optional)
	result.MissingRequired = missingRequired(schema, rec.CurrentValues())
	result.UpdatedFields = changedReq + changedOpt
	return result, images, nil
}

// enrichSEO 有主图走图片识别，否则按推导出的标题做纯文本补全
func (s *EnrichService) enrichSEO(ctx context.Context, rec *model.ProductRecord, images []model.ImageFile, force bool) (*model.SEOResult, error) {
	current := rec.SEO.ToMap()
	if !force && allFilled(current, model.SEOFieldNames) {
		return &model.SEOResult{Fields: current, Source: "skipped"}, nil
	}

	title := deriveProductTitle(rec)
	source := "text"
	if len(rec.Images.Main) > 0 {
		if images == nil {
			loaded, err := s.loadMainImages(ctx, rec)
			if err != nil {
				log.Printf("[EnrichService] SKU %s 主图读取失败，SEO 改用文本: %v", rec.SKU, err)
			}
			images = loaded
		}
		if len(images) > 0 {
			source = "vision"
		}
	}
	if source == "text" {
		images = nil
		if title == "" {
			return nil, fmt.Errorf("%w: SKU %s 没有主图也没有可用标题", model.ErrValidation, rec.SKU)
		}
	}

	proposed, err := s.vision.CompleteJSON(ctx, &CompletionRequest{
		SKU:     rec.SKU,
		Purpose: model.AIPurposeSEO,
		Prompt:  buildSEOPrompt(rec, title, source == "vision"),
		Images:  images,
	})
	if err != nil {
		return nil, err
	}

	merged, changed := mergeFillEmpty(current, model.SEOFieldNames, normalizeProposal(proposed), force)
	rec.SEO = model.SEOFromMap(merged)
	return &model.SEOResult{Fields: merged, UpdatedFields: changed, Source: source}, nil
}

func (s *EnrichService) loadMainImages(ctx context.Context, rec *model.ProductRecord) ([]model.ImageFile, error) {
	var images []model.ImageFile
	for _, name := range rec.Images.Main {
		if len(images) >= s.cfg.MaxImages {
			break
		}
		img, err := s.images.Load(ctx, rec.SKU, name)
		if err != nil {
			log.Printf("[EnrichService] SKU %s 主图 %s 读取失败: %v", rec.SKU, name, err)
			continue
		}
		images = append(images, *img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("SKU %s: %w", rec.SKU, model.ErrNoMainImages)
	}
	return images, nil
}

// ==================== 批量 ====================

// EnrichBatch 逐个补全，单个失败不影响其他 SKU
func (s *EnrichService) EnrichBatch(ctx context.Context, skus []string, force bool, onEvent model.ProgressFunc) *model.BatchResult {
	batch := &model.BatchResult{}
	total := len(skus)

	for i, sku := range skus {
		if err := ctx.Err(); err != nil {
			onEvent.Emit(model.ProgressEvent{
				Status: model.ProgressFailed, Current: i, Total: total, Count: batch.Succeeded,
				Error: err.Error(), Result: batch,
			})
			return batch
		}

		res, err := s.Enrich(ctx, sku, force)
		if err != nil {
			log.Printf("[EnrichService] 批量补全 SKU %s 失败: %v", sku, err)
			batch.Add(sku, nil, err)
		} else {
			batch.Add(sku, res, nil)
		}

		onEvent.Emit(model.ProgressEvent{
			Status: model.ProgressRunning, Current: i + 1, Total: total, Count: batch.Succeeded, Message: sku,
		})
	}

	onEvent.Emit(model.ProgressEvent{
		Status: model.ProgressCompleted, Current: total, Total: total, Count: batch.Succeeded, Result: batch,
	})
	return batch
}

// ==================== 合并规则 ====================

// mergeFillEmpty 返回 names 对应的新值：
// 已有非空值保留（force 时可被非空建议值覆盖），否则采用建议值；建议值为空时永远保留原值
func mergeFillEmpty(current map[string]string, names []string, proposed map[string]string, force bool) (map[string]string, int) {
	out := make(map[string]string, len(names))
	changed := 0

	for _, name := range names {
		existing := current[name]
		after := existing

		value := lookupFold(proposed, name)
		if value != "" && (strings.TrimSpace(existing) == "" || force) {
			after = value
		}
		if after != existing {
			changed++
		}
		out[name] = after
	}
	return out, changed
}

// placeSection 写入本分段的值，并移走被分类模板划到另一分段的字段
func placeSection(section, own, other map[string]string) map[string]string {
	merged := copyMap(section)
	for name := range other {
		delete(merged, name)
	}
	for name, v := range own {
		merged[name] = v
	}
	return merged
}

// normalizeProposal 将 AI 返回的任意 JSON 转为 属性 -> 字符串
// 兼容 {"attributes": {...}} 一层包裹
func normalizeProposal(raw map[string]interface{}) map[string]string {
	if len(raw) == 1 {
		for key, v := range raw {
			inner, ok := v.(map[string]interface{})
			if ok && wrapperKeys[strings.ToLower(key)] {
				raw = inner
			}
		}
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s := stringify(v); s != "" {
			out[strings.TrimSpace(k)] = s
		}
	}
	return out
}

var wrapperKeys = map[string]bool{"attributes": true, "fields": true, "aspects": true, "merkmale": true, "seo": true}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "Ja"
		}
		return "Nein"
	case []interface{}:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringify(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func lookupFold(m map[string]string, name string) string {
	if v, ok := m[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func missingRequired(schema *model.CategorySchema, values map[string]string) []string {
	missing := []string{}
	for _, a := range schema.Required {
		if strings.TrimSpace(values[a.Name]) == "" {
			missing = append(missing, a.Name)
		}
	}
	return missing
}

func allFilled(values map[string]string, names []string) bool {
	for _, n := range names {
		if strings.TrimSpace(values[n]) == "" {
			return false
		}
	}
	return true
}

func specNames(specs []model.AttributeSpec) []string {
	names := make([]string, len(specs))
	for i, a := range specs {
		names[i] = a.Name
	}
	return names
}

func nonEmpty(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
