package model

// InventoryItem 库存成本（由库存导入维护，这里只读）
type InventoryItem struct {
	BaseModel

	SKU      string  `gorm:"size:64;uniqueIndex;not null;comment:SKU"`
	Title    string  `gorm:"size:255;comment:名称"`
	NetCost  float64 `gorm:"type:decimal(10,2);default:0;comment:净成本"`
	Supplier string  `gorm:"size:128;comment:供应商"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}
