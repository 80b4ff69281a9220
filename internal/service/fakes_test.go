package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
)

// ==================== 测试辅助 ====================

func newTestStore(t *testing.T) kvstore.Store {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	return store
}

func saveRecord(t *testing.T, records repository.ProductRecordStore, rec *model.ProductRecord) {
	t.Helper()
	if err := records.Save(context.Background(), rec); err != nil {
		t.Fatalf("保存记录失败: %v", err)
	}
}

// ==================== 分类接口 ====================

type fakeTaxonomy struct {
	mu        sync.Mutex
	treeCalls int
	aspects   map[string][]ebay.Aspect
	names     map[string]string
	failures  map[string]error
}

func (f *fakeTaxonomy) GetDefaultCategoryTreeID(ctx context.Context, marketplaceID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls++
	return "tree-" + marketplaceID, nil
}

func (f *fakeTaxonomy) GetItemAspectsForCategory(ctx context.Context, treeID, categoryID string) (*ebay.AspectsResp, error) {
	if err, ok := f.failures[categoryID]; ok {
		return nil, err
	}
	aspects, ok := f.aspects[categoryID]
	if !ok {
		return nil, ebay.ErrNotFound
	}
	return &ebay.AspectsResp{CategoryID: categoryID, Aspects: aspects}, nil
}

func (f *fakeTaxonomy) GetCategoryName(ctx context.Context, treeID, categoryID string) (string, error) {
	return f.names[categoryID], nil
}

func aspect(name string, required bool, values ...string) ebay.Aspect {
	a := ebay.Aspect{LocalizedAspectName: name}
	a.AspectConstraint.AspectRequired = required
	for _, v := range values {
		a.AspectValues = append(a.AspectValues, ebay.AspectValue{LocalizedValue: v})
	}
	return a
}

// ==================== 模板 ====================

type fakeSchemas struct {
	schemas map[string]*model.CategorySchema
}

func (f *fakeSchemas) Get(ctx context.Context, categoryID, marketplace string) (*model.CategorySchema, error) {
	if s, ok := f.schemas[categoryID]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: 分类 %s", model.ErrNotFound, categoryID)
}

func sneakerSchema() *model.CategorySchema {
	return &model.CategorySchema{
		CategoryID:   "15709",
		CategoryName: "Sneaker",
		Marketplace:  "EBAY_DE",
		Required: []model.AttributeSpec{
			{Name: "Marke"},
			{Name: "Schuhgröße", AllowedValues: []string{"41", "42", "43"}},
			{Name: "Farbe"},
		},
		Optional: []model.AttributeSpec{
			{Name: "Obermaterial"},
			{Name: "Stil"},
		},
		Fees: model.FeeInfo{PaymentFee: 0.35, CommissionPct: 0.10},
	}
}

// ==================== AI ====================

type fakeVision struct {
	mu      sync.Mutex
	calls   []*CompletionRequest
	respond func(req *CompletionRequest) (map[string]interface{}, error)
}

func (f *fakeVision) CompleteJSON(ctx context.Context, req *CompletionRequest) (map[string]interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return map[string]interface{}{}, nil
	}
	return f.respond(req)
}

func (f *fakeVision) callsFor(purpose string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Purpose == purpose {
			n++
		}
	}
	return n
}

// ==================== 图片 ====================

type fakeImages struct {
	files map[string][]byte // "sku/filename" -> data
}

func (f *fakeImages) List(ctx context.Context, sku string) ([]string, error) {
	var names []string
	for k := range f.files {
		if strings.HasPrefix(k, sku+"/") {
			names = append(names, strings.TrimPrefix(k, sku+"/"))
		}
	}
	return names, nil
}

func (f *fakeImages) Load(ctx context.Context, sku, filename string) (*model.ImageFile, error) {
	data, ok := f.files[sku+"/"+filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", model.ErrNotFound, sku, filename)
	}
	return &model.ImageFile{Filename: filename, ContentType: "image/jpeg", Data: data}, nil
}

type fakeUploader struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeUploader) UploadPicture(ctx context.Context, name string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.fail[name] {
		return "", fmt.Errorf("上传 %s 失败: %w", name, ebay.ErrNetwork)
	}
	return "https://i.ebayimg.com/" + name, nil
}

// ==================== 刊登 ====================

type fakeSubmitter struct {
	items  []*ebay.Item
	result *ebay.AddItemResult
	err    error
}

func (f *fakeSubmitter) AddFixedPriceItem(ctx context.Context, item *ebay.Item) (*ebay.AddItemResult, error) {
	f.items = append(f.items, item)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ebay.AddItemResult{ItemID: "110000000001", Ack: ebay.AckSuccess}, nil
}

type fakeManufacturers struct {
	info *model.ManufacturerInfo
	err  error
}

func (f *fakeManufacturers) Lookup(ctx context.Context, brand string) (*model.ManufacturerInfo, error) {
	return f.info, f.err
}

// ==================== 在售列表 ====================

type fakeFetcher struct {
	calls int
	items []ebay.ActiveItem
	err   error
}

func (f *fakeFetcher) FetchActiveListings(ctx context.Context, perPage int, onPage func(ebay.PageProgress)) ([]ebay.ActiveItem, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if onPage != nil {
		onPage(ebay.PageProgress{Page: 1, TotalPages: 1, Count: len(f.items)})
	}
	return f.items, nil
}

// ==================== 库存 ====================

type fakeInventory struct {
	costs   map[string]float64
	queries int
}

func (f *fakeInventory) NetCost(ctx context.Context, sku string) (float64, error) {
	f.queries++
	c, ok := f.costs[sku]
	if !ok {
		return 0, fmt.Errorf("%w: %s", model.ErrNotFound, sku)
	}
	return c, nil
}
