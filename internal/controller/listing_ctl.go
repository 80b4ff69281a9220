package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

// ListingController 属性补全、图片上传与刊登
type ListingController struct {
	records       repository.ProductRecordStore
	enrich        *service.EnrichService
	images        *service.ImageService
	listings      *service.ListingService
	manufacturers *service.ManufacturerService
}

// ListingControllerDeps 依赖
type ListingControllerDeps struct {
	Records       repository.ProductRecordStore
	Enrich        *service.EnrichService
	Images        *service.ImageService
	Listings      *service.ListingService
	Manufacturers *service.ManufacturerService
}

func NewListingController(deps *ListingControllerDeps) *ListingController {
	return &ListingController{
		records:       deps.Records,
		enrich:        deps.Enrich,
		images:        deps.Images,
		listings:      deps.Listings,
		manufacturers: deps.Manufacturers,
	}
}

// ==================== 属性补全 ====================

// Enrich 单个 SKU 属性与 SEO 补全
// POST /api/v1/products/:sku/enrich?force=true
func (ctl *ListingController) Enrich(c *gin.Context) {
	res, err := ctl.enrich.Enrich(c.Request.Context(), c.Param("sku"), c.Query("force") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "补全完成", res)
}

type batchEnrichReq struct {
	SKUs  []string `json:"skus" binding:"required,min=1"`
	Force bool     `json:"force"`
}

// EnrichBatch 批量补全；?stream=true 时以 SSE 推送进度
func (ctl *ListingController) EnrichBatch(c *gin.Context) {
	var req batchEnrichReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	if wantsStream(c) {
		streamProgress(c, func(ctx context.Context, onEvent model.ProgressFunc) {
			ctl.enrich.EnrichBatch(ctx, req.SKUs, req.Force, onEvent)
		})
		return
	}
	ok(c, "批量补全完成", ctl.enrich.EnrichBatch(c.Request.Context(), req.SKUs, req.Force, nil))
}

// ==================== 图片 ====================

// UploadImages 上传主图到图片托管
// POST /api/v1/products/:sku/images/upload?force=true
func (ctl *ListingController) UploadImages(c *gin.Context) {
	res, err := ctl.images.UploadImages(c.Request.Context(), c.Param("sku"), c.Query("force") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "上传完成", res)
}

// ==================== 标题与预览 ====================

// PreviewTitle 按当前记录生成标题
func (ctl *ListingController) PreviewTitle(c *gin.Context) {
	rec, err := ctl.records.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	title, err := service.RecordTitle(rec)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", gin.H{"title": title, "length": len([]rune(title))})
}

// PreviewDraft 组装刊登内容但不提交
func (ctl *ListingController) PreviewDraft(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	draft, err := ctl.listings.BuildDraft(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", draft)
}

// ==================== 刊登 ====================

// Submit 提交单个刊登；平台拒绝时返回 422 与错误明细
func (ctl *ListingController) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	res, err := ctl.listings.Submit(c.Request.Context(), &req)
	if err != nil {
		var pe *ebay.ProtocolError
		if res != nil && errors.As(err, &pe) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"code":    422,
				"message": pe.FirstMessage(),
				"data":    res,
			})
			return
		}
		respondError(c, err)
		return
	}
	ok(c, "刊登成功", res)
}

type batchSubmitReq struct {
	Items []*service.SubmitRequest `json:"items" binding:"required,min=1"`
}

// SubmitBatch 批量刊登；?stream=true 时以 SSE 推送进度
func (ctl *ListingController) SubmitBatch(c *gin.Context) {
	var req batchSubmitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	if wantsStream(c) {
		streamProgress(c, func(ctx context.Context, onEvent model.ProgressFunc) {
			ctl.listings.SubmitBatch(ctx, req.Items, onEvent)
		})
		return
	}
	ok(c, "批量刊登完成", ctl.listings.SubmitBatch(c.Request.Context(), req.Items, nil))
}

// ==================== 制造商 ====================

// LookupManufacturer GET /api/v1/manufacturers?brand=Nike
func (ctl *ListingController) LookupManufacturer(c *gin.Context) {
	brand := c.Query("brand")
	if brand == "" {
		badRequest(c, "brand 不能为空")
		return
	}

	info, err := ctl.manufacturers.Lookup(c.Request.Context(), brand)
	if err != nil {
		respondError(c, err)
		return
	}
	if info == nil || !info.Complete() {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "未找到可用的制造商信息", "data": info})
		return
	}
	ok(c, "获取成功", info)
}
