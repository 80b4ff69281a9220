package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
)

// ManufacturerCacheDuration 制造商缓存的预期有效期；读取时不检查
const ManufacturerCacheDuration = 90 * 24 * time.Hour

// ManufacturerService 品牌 -> 制造商地址
// 先查缓存再查 AI；同一品牌并发查询时后写入者覆盖
type ManufacturerService struct {
	store     kvstore.Store
	completer VisionCompleter
}

// NewManufacturerService 创建制造商服务
func NewManufacturerService(store kvstore.Store, completer VisionCompleter) *ManufacturerService {
	return &ManufacturerService{store: store, completer: completer}
}

func manufacturerKey(brand string) string {
	return kvstore.Key("manufacturer", cases.Lower(language.German).String(strings.TrimSpace(brand)))
}

// Lookup 没有可信数据时返回 nil, nil
func (s *ManufacturerService) Lookup(ctx context.Context, brand string) (*model.ManufacturerInfo, error) {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		return nil, nil
	}
	key := manufacturerKey(brand)

	var cached model.ManufacturerInfo
	err := s.store.Get(ctx, key, &cached)
	if err == nil {
		metrics.RecordCacheLookup("manufacturer", true)
		return &cached, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		log.Printf("[ManufacturerService] 读取缓存 %s 失败: %v", key, err)
	}
	metrics.RecordCacheLookup("manufacturer", false)

	if s.completer == nil {
		return nil, nil
	}
	raw, err := s.completer.CompleteJSON(ctx, &CompletionRequest{
		Purpose: model.AIPurposeManufacturer,
		Prompt:  buildManufacturerPrompt(brand),
	})
	if err != nil {
		return nil, fmt.Errorf("查询品牌 %s 制造商失败: %w", brand, err)
	}

	info := manufacturerFromMap(brand, normalizeProposal(raw))
	if reason := placeholderReason(info); reason != "" {
		log.Printf("[ManufacturerService] 品牌 %s 的结果疑似示例数据（%s），忽略", brand, reason)
		return nil, nil
	}
	if !info.Complete() {
		log.Printf("[ManufacturerService] 品牌 %s 地址不完整，忽略", brand)
		return nil, nil
	}

	info.CachedAt = time.Now().UTC()
	if err := s.store.Put(ctx, key, info); err != nil {
		log.Printf("[ManufacturerService] 写入缓存 %s 失败: %v", key, err)
	}
	return info, nil
}

func manufacturerFromMap(brand string, m map[string]string) *model.ManufacturerInfo {
	return &model.ManufacturerInfo{
		Brand:       brand,
		CompanyName: m["company_name"],
		Street:      m["street"],
		City:        m["city"],
		PostalCode:  m["postal_code"],
		Country:     m["country"],
		Phone:       m["phone"],
		Email:       m["email"],
		URL:         m["url"],
	}
}

var placeholderMarkers = []string{
	"example", "beispiel", "muster", "placeholder", "lorem", "n/a", "unknown", "unbekannt", "xxx",
}

var placeholderPostalCodes = map[string]bool{"12345": true, "00000": true, "99999": true}

// placeholderReason 返回命中的示例特征，空串表示正常
func placeholderReason(info *model.ManufacturerInfo) string {
	if placeholderPostalCodes[strings.TrimSpace(info.PostalCode)] {
		return "邮编 " + info.PostalCode
	}
	fields := []string{info.CompanyName, info.Street, info.City, info.Email, info.URL}
	for _, f := range fields {
		lower := strings.ToLower(f)
		for _, marker := range placeholderMarkers {
			if strings.Contains(lower, marker) {
				return marker
			}
		}
		if strings.EqualFold(strings.TrimSpace(f), "test") {
			return "test"
		}
	}
	return ""
}
