package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
)

// ListingConfig 刊登默认参数
type ListingConfig struct {
	Marketplace    string
	Currency       string
	Country        string
	Location       string
	PostalCode     string
	Duration       string
	ListingType    string
	BestOffer      bool
	ScheduleDays   int // >0 时定时上架：当前时间 + N 天
	ShippingPolicy string
	ReturnPolicy   string
	PaymentPolicy  string
	Quantity       int
	DispatchDays   int
}

// ImageUploader 上架图片托管
type ImageUploader interface {
	UploadImages(ctx context.Context, sku string, force bool) (*model.ImageUploadResult, error)
}

// ListingService 组装并提交刊登
type ListingService struct {
	cfg           *ListingConfig
	records       repository.ProductRecordStore
	schemas       SchemaProvider
	images        ImageUploader
	submitter     ItemSubmitter
	manufacturers ManufacturerLookup
	store         kvstore.Store
	now           func() time.Time
}

// NewListingService 创建刊登服务
func NewListingService(cfg *ListingConfig, records repository.ProductRecordStore, schemas SchemaProvider,
	images ImageUploader, submitter ItemSubmitter, manufacturers ManufacturerLookup, store kvstore.Store) *ListingService {
	if cfg == nil {
		cfg = &ListingConfig{}
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = "EBAY_DE"
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if cfg.Country == "" {
		cfg.Country = "DE"
	}
	if cfg.Duration == "" {
		cfg.Duration = "GTC"
	}
	if cfg.ListingType == "" {
		cfg.ListingType = "FixedPriceItem"
	}
	if cfg.Quantity == 0 {
		cfg.Quantity = 1
	}
	return &ListingService{
		cfg:           cfg,
		records:       records,
		schemas:       schemas,
		images:        images,
		submitter:     submitter,
		manufacturers: manufacturers,
		store:         store,
		now:           time.Now,
	}
}

// SubmitRequest 提交参数
type SubmitRequest struct {
	SKU                   string  `json:"sku"`
	Price                 float64 `json:"price"`
	Quantity              int     `json:"quantity,omitempty"`
	ForceReupload         bool    `json:"force_reupload,omitempty"`
	RegenerateDescription bool    `json:"regenerate_description,omitempty"`
}

// ==================== 标题 ====================

// BuildTitle "{brand} {keywords}, {color}, Größe {size}"，空段省略
// 超长时先去掉 "Größe" 字样，仍超长则报错，不截断
func BuildTitle(brand, keywords, color, size string) (string, error) {
	head := joinNonEmpty([]string{brand, keywords}, " ")
	size = strings.TrimSpace(size)

	sizePart := ""
	if size != "" {
		sizePart = "Größe " + size
	}
	title := joinNonEmpty([]string{head, color, sizePart}, ", ")
	if utf8.RuneCountInString(title) <= model.MaxTitleLength {
		return title, nil
	}

	if size != "" {
		title = joinNonEmpty([]string{head, color, size}, ", ")
		if utf8.RuneCountInString(title) <= model.MaxTitleLength {
			return title, nil
		}
	}
	return "", fmt.Errorf("%w (%d): %s", model.ErrTitleTooLong, utf8.RuneCountInString(title), title)
}

// RecordTitle 由商品记录生成标题
func RecordTitle(rec *model.ProductRecord) (string, error) {
	return BuildTitle(rec.Internal.Brand, rec.SEO.Keywords(), rec.Internal.Color, rec.Internal.Size)
}

// ==================== 商品状态 ====================

var conditionCodes = map[string]int{
	"neu":              1000,
	"neu mit karton":   1000,
	"neu mit etikett":  1000,
	"neu ohne karton":  1500,
	"neu ohne etikett": 1500,
	"neu mit fehlern":  1750,
	"gebraucht":        3000,
	"sehr gut":         4000,
	"gut":              5000,
	"akzeptabel":       6000,
	"defekt":           7000,
	"als ersatzteil":   7000,
}

// ConditionNew 未识别状态的默认值
const ConditionNew = 1000

// MapCondition 状态文本 -> 平台状态码，不区分大小写
func MapCondition(label string) int {
	key := strings.ToLower(strings.TrimSpace(label))
	if code, ok := conditionCodes[key]; ok {
		return code
	}
	log.Printf("[ListingService] 未识别的商品状态 %q，按全新处理", label)
	return ConditionNew
}

// ==================== 描述缓存 ====================

func descriptionKey(sku string) string {
	return kvstore.Key("description", sku)
}

// Description 读取描述缓存，regenerate 或缓存缺失时重新生成
func (s *ListingService) Description(ctx context.Context, rec *model.ProductRecord, title string, regenerate bool) (string, error) {
	key := descriptionKey(rec.SKU)
	if !regenerate {
		var cached string
		err := s.store.Get(ctx, key, &cached)
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
			log.Printf("[ListingService] 读取描述缓存 %s 失败: %v", rec.SKU, err)
		}
	}

	html, err := BuildDescription(rec, title)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, key, html); err != nil {
		log.Printf("[ListingService] 写入描述缓存 %s 失败: %v", rec.SKU, err)
	}
	return html, nil
}

// ==================== 组装 ====================

// BuildDraft 组装刊登草稿（会上传未缓存的图片）
func (s *ListingService) BuildDraft(ctx context.Context, req *SubmitRequest) (*model.ListingDraft, error) {
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: 价格必须大于 0", model.ErrValidation)
	}
	rec, err := s.records.Get(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if rec.Category.ID == "" {
		return nil, fmt.Errorf("%w: SKU %s 没有分类", model.ErrValidation, req.SKU)
	}

	title, err := RecordTitle(rec)
	if err != nil {
		return nil, err
	}

	schema, err := s.schemas.Get(ctx, rec.Category.ID, rec.Category.Marketplace)
	if err != nil {
		return nil, fmt.Errorf("SKU %s 分类模板不可用: %w", req.SKU, err)
	}

	desc, err := s.Description(ctx, rec, title, req.RegenerateDescription)
	if err != nil {
		return nil, err
	}

	upload, err := s.images.UploadImages(ctx, req.SKU, req.ForceReupload)
	if err != nil {
		return nil, err
	}
	if len(upload.URLs) == 0 {
		return nil, fmt.Errorf("%w: SKU %s 没有可用的托管图片", model.ErrNotFound, req.SKU)
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = s.cfg.Quantity
	}

	categoryName := schema.CategoryName
	if categoryName == "" {
		categoryName = rec.Category.Name
	}

	draft := &model.ListingDraft{
		SKU:             rec.SKU,
		Title:           title,
		DescriptionHTML: desc,
		CategoryID:      rec.Category.ID,
		CategoryName:    categoryName,
		ConditionID:     MapCondition(rec.Condition),
		Price:           req.Price,
		Quantity:        quantity,
		ImageURLs:       upload.URLs,
		ItemSpecifics:   itemSpecifics(schema, rec),
	}

	if s.cfg.ScheduleDays > 0 {
		at := s.now().UTC().AddDate(0, 0, s.cfg.ScheduleDays)
		draft.ScheduleTime = &at
	}

	if s.manufacturers != nil && rec.Internal.Brand != "" {
		info, err := s.manufacturers.Lookup(ctx, rec.Internal.Brand)
		if err != nil {
			log.Printf("[ListingService] SKU %s 制造商查询失败，跳过: %v", req.SKU, err)
		} else if info.Complete() {
			draft.Manufacturer = info
		}
	}
	return draft, nil
}

// itemSpecifics 按模板顺序输出非空属性，模板外的属性按名称排序追加
func itemSpecifics(schema *model.CategorySchema, rec *model.ProductRecord) []model.NameValue {
	values := rec.CurrentValues()
	var out []model.NameValue
	seen := make(map[string]bool)

	for _, name := range schema.AttributeNames() {
		seen[name] = true
		if v := strings.TrimSpace(values[name]); v != "" {
			out = append(out, model.NameValue{Name: name, Value: v})
		}
	}
	for _, name := range sortedKeys(values) {
		if seen[name] {
			continue
		}
		if v := strings.TrimSpace(values[name]); v != "" {
			out = append(out, model.NameValue{Name: name, Value: v})
		}
	}
	return out
}

func (s *ListingService) toItem(d *model.ListingDraft) *ebay.Item {
	item := &ebay.Item{
		SKU:             d.SKU,
		Title:           d.Title,
		Description:     ebay.CData{Text: d.DescriptionHTML},
		PrimaryCategory: ebay.CategoryRef{CategoryID: d.CategoryID},
		StartPrice:      ebay.NewAmount(d.Price, s.cfg.Currency),
		ConditionID:     d.ConditionID,
		Country:         s.cfg.Country,
		Currency:        s.cfg.Currency,
		Location:        s.cfg.Location,
		PostalCode:      s.cfg.PostalCode,
		DispatchTimeMax: s.cfg.DispatchDays,
		ListingDuration: s.cfg.Duration,
		ListingType:     s.cfg.ListingType,
		Quantity:        d.Quantity,
		PictureDetails:  &ebay.PictureDetails{PictureURL: d.ImageURLs},
	}
	if s.cfg.BestOffer {
		item.BestOfferDetails = &ebay.BestOfferDetails{BestOfferEnabled: true}
	}
	if d.ScheduleTime != nil {
		item.ScheduleTime = d.ScheduleTime.UTC().Format("2006-01-02T15:04:05.000Z")
	}

	if len(d.ItemSpecifics) > 0 {
		specifics := &ebay.ItemSpecifics{}
		for _, nv := range d.ItemSpecifics {
			specifics.NameValueList = append(specifics.NameValueList, ebay.NameValueList{Name: nv.Name, Value: []string{nv.Value}})
		}
		item.ItemSpecifics = specifics
	}

	if s.cfg.ShippingPolicy != "" || s.cfg.ReturnPolicy != "" || s.cfg.PaymentPolicy != "" {
		profiles := &ebay.SellerProfiles{}
		if s.cfg.ShippingPolicy != "" {
			profiles.SellerShippingProfile = &ebay.ShippingProfile{ShippingProfileName: s.cfg.ShippingPolicy}
		}
		if s.cfg.ReturnPolicy != "" {
			profiles.SellerReturnProfile = &ebay.ReturnProfile{ReturnProfileName: s.cfg.ReturnPolicy}
		}
		if s.cfg.PaymentPolicy != "" {
			profiles.SellerPaymentProfile = &ebay.PaymentProfile{PaymentProfileName: s.cfg.PaymentPolicy}
		}
		item.SellerProfiles = profiles
	}

	if m := d.Manufacturer; m.Complete() {
		item.Regulatory = &ebay.Regulatory{Manufacturer: &ebay.Manufacturer{
			CompanyName: m.CompanyName,
			Street1:     m.Street,
			CityName:    m.City,
			PostalCode:  m.PostalCode,
			Country:     m.Country,
			Phone:       m.Phone,
			Email:       m.Email,
			ContactURL:  m.URL,
		}}
	}
	return item
}

// ==================== 提交 ====================

// Submit 组装并提交单个刊登
// 平台拒绝时同时返回带错误列表的结果和 error
func (s *ListingService) Submit(ctx context.Context, req *SubmitRequest) (*model.ListingResult, error) {
	draft, err := s.BuildDraft(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := s.submitter.AddFixedPriceItem(ctx, s.toItem(draft))
	if err != nil {
		var pe *ebay.ProtocolError
		if errors.As(err, &pe) {
			result := &model.ListingResult{SKU: req.SKU, Errors: listingMessages(pe.Errors)}
			log.Printf("[ListingService] SKU %s 刊登被拒绝: %s", req.SKU, pe.FirstMessage())
			return result, err
		}
		return nil, fmt.Errorf("SKU %s 提交失败: %w", req.SKU, err)
	}

	result := &model.ListingResult{
		SKU:      req.SKU,
		Success:  true,
		ItemID:   res.ItemID,
		Warnings: listingMessages(res.Warnings),
	}
	log.Printf("[ListingService] SKU %s 刊登成功 ItemID=%s 警告=%d", req.SKU, res.ItemID, len(result.Warnings))

	if err := s.writeBack(ctx, draft, res.ItemID); err != nil {
		log.Printf("[ListingService] SKU %s 回写刊登信息失败: %v", req.SKU, err)
		result.Warnings = append(result.Warnings, model.ListingMessage{ShortMessage: "回写商品记录失败", LongMessage: err.Error()})
	}
	return result, nil
}

func (s *ListingService) writeBack(ctx context.Context, draft *model.ListingDraft, itemID string) error {
	rec, err := s.records.Get(ctx, draft.SKU)
	if err != nil {
		return err
	}
	rec.Marketplace.ItemID = itemID
	rec.Marketplace.Title = draft.Title
	rec.Marketplace.Price = draft.Price
	rec.Marketplace.ListedAt = s.now().UTC()
	return s.records.Save(ctx, rec)
}

// SubmitBatch 逐个提交，单个失败不影响其他
func (s *ListingService) SubmitBatch(ctx context.Context, reqs []*SubmitRequest, onEvent model.ProgressFunc) *model.BatchResult {
	batch := &model.BatchResult{}
	total := len(reqs)

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			onEvent.Emit(model.ProgressEvent{Status: model.ProgressFailed, Current: i, Total: total,
				Count: batch.Succeeded, Error: err.Error(), Result: batch})
			return batch
		}

		res, err := s.Submit(ctx, req)
		if res != nil {
			batch.Add(req.SKU, res, err)
		} else {
			batch.Add(req.SKU, nil, err)
		}
		onEvent.Emit(model.ProgressEvent{Status: model.ProgressRunning, Current: i + 1, Total: total,
			Count: batch.Succeeded, Message: req.SKU})
	}

	onEvent.Emit(model.ProgressEvent{Status: model.ProgressCompleted, Current: total, Total: total,
		Count: batch.Succeeded, Result: batch})
	return batch
}

func listingMessages(details []ebay.ErrorDetail) []model.ListingMessage {
	if len(details) == 0 {
		return nil
	}
	out := make([]model.ListingMessage, 0, len(details))
	for _, d := range details {
		out = append(out, model.ListingMessage{
			Code:         d.ErrorCode,
			ShortMessage: d.ShortMessage,
			LongMessage:  d.LongMessage,
			Severity:     d.SeverityCode,
		})
	}
	return out
}
