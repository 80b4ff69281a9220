package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// InventoryLookup SKU -> 净成本
type InventoryLookup interface {
	NetCost(ctx context.Context, sku string) (float64, error)
}

// InventoryRepository 库存成本仓储
type InventoryRepository interface {
	InventoryLookup
	Upsert(ctx context.Context, item *model.InventoryItem) error
	FindBySKUs(ctx context.Context, skus []string) ([]model.InventoryItem, error)
}

type inventoryRepo struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓储
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) NetCost(ctx context.Context, sku string) (float64, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).Select("net_cost").Where("sku = ?", sku).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: 库存中没有 SKU %s", model.ErrNotFound, sku)
	}
	if err != nil {
		return 0, err
	}
	return item.NetCost, nil
}

func (r *inventoryRepo) Upsert(ctx context.Context, item *model.InventoryItem) error {
	var existing model.InventoryItem
	err := r.db.WithContext(ctx).Where("sku = ?", item.SKU).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(item).Error
	}
	if err != nil {
		return err
	}
	item.ID = existing.ID
	return r.db.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
		"title":    item.Title,
		"net_cost": item.NetCost,
		"supplier": item.Supplier,
	}).Error
}

func (r *inventoryRepo) FindBySKUs(ctx context.Context, skus []string) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if len(skus) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Where("sku IN ?", skus).Order("sku ASC").Find(&items).Error
	return items, err
}
