package service

import (
	"context"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

// ==================== 外部协作方 ====================

// CompletionRequest 补全请求；Images 为空时为纯文本补全
type CompletionRequest struct {
	SKU     string
	Purpose string
	Prompt  string
	Images  []model.ImageFile
}

// VisionCompleter 图片 + 提示词 -> 任意 JSON 对象
type VisionCompleter interface {
	CompleteJSON(ctx context.Context, req *CompletionRequest) (map[string]interface{}, error)
}

// ImageSource 按 SKU 读取本地/对象存储里的商品图片
type ImageSource interface {
	List(ctx context.Context, sku string) ([]string, error)
	Load(ctx context.Context, sku, filename string) (*model.ImageFile, error)
}

// ==================== 平台接口 ====================

// TaxonomyAPI 分类树与属性
type TaxonomyAPI interface {
	GetDefaultCategoryTreeID(ctx context.Context, marketplaceID string) (string, error)
	GetItemAspectsForCategory(ctx context.Context, treeID, categoryID string) (*ebay.AspectsResp, error)
	GetCategoryName(ctx context.Context, treeID, categoryID string) (string, error)
}

// PictureUploader 图片托管
type PictureUploader interface {
	UploadPicture(ctx context.Context, name string, data []byte) (string, error)
}

// ItemSubmitter 刊登提交
type ItemSubmitter interface {
	AddFixedPriceItem(ctx context.Context, item *ebay.Item) (*ebay.AddItemResult, error)
}

// ActiveListingFetcher 在售列表分页拉取
type ActiveListingFetcher interface {
	FetchActiveListings(ctx context.Context, perPage int, onPage func(ebay.PageProgress)) ([]ebay.ActiveItem, error)
}

// ==================== 内部依赖 ====================

// SchemaProvider 分类模板（缺失时远程拉取）
type SchemaProvider interface {
	Get(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error)
}

// ManufacturerLookup 品牌 -> 制造商信息；没有数据时返回 nil, nil
type ManufacturerLookup interface {
	Lookup(ctx context.Context, brand string) (*model.ManufacturerInfo, error)
}
