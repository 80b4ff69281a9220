package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
)

// ==================== 仓储接口 ====================

// ProductRecordStore 按 SKU 读写商品记录
type ProductRecordStore interface {
	Get(ctx context.Context, sku string) (*model.ProductRecord, error)
	Save(ctx context.Context, rec *model.ProductRecord) error
	List(ctx context.Context) ([]string, error)
}

// ==================== 仓储实现 ====================

type productRecordRepo struct {
	store kvstore.Store
}

// NewProductRecordRepository 创建商品记录仓储（记录以 JSON 存在 kv 中）
func NewProductRecordRepository(store kvstore.Store) ProductRecordStore {
	return &productRecordRepo{store: store}
}

func recordKey(sku string) string {
	return kvstore.Key("record", sku)
}

func (r *productRecordRepo) Get(ctx context.Context, sku string) (*model.ProductRecord, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, fmt.Errorf("%w: SKU 为空", model.ErrValidation)
	}
	var rec model.ProductRecord
	if err := r.store.Get(ctx, recordKey(sku), &rec); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: 商品记录 %s 不存在", model.ErrNotFound, sku)
		}
		return nil, fmt.Errorf("读取商品记录 %s 失败: %w", sku, err)
	}
	if rec.SKU == "" {
		rec.SKU = sku
	}
	return &rec, nil
}

func (r *productRecordRepo) Save(ctx context.Context, rec *model.ProductRecord) error {
	if rec == nil || strings.TrimSpace(rec.SKU) == "" {
		return fmt.Errorf("%w: SKU 为空", model.ErrValidation)
	}
	return r.store.Put(ctx, recordKey(rec.SKU), rec)
}

func (r *productRecordRepo) List(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, "record:")
	if err != nil {
		return nil, err
	}
	skus := make([]string, 0, len(keys))
	for _, k := range keys {
		skus = append(skus, strings.TrimPrefix(k, "record:"))
	}
	return skus, nil
}
