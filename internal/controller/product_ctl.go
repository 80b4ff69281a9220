package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
)

// ProductController 商品记录与 AI 用量
type ProductController struct {
	records repository.ProductRecordStore
	aiLogs  repository.AICallLogRepository
}

func NewProductController(records repository.ProductRecordStore, aiLogs repository.AICallLogRepository) *ProductController {
	return &ProductController{records: records, aiLogs: aiLogs}
}

// ListSKUs 所有商品 SKU
func (ctl *ProductController) ListSKUs(c *gin.Context) {
	skus, err := ctl.records.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", gin.H{"list": skus, "total": len(skus)})
}

// GetRecord 单个商品记录
func (ctl *ProductController) GetRecord(c *gin.Context) {
	rec, err := ctl.records.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", rec)
}

// AIUsage 单个 SKU 的 AI 调用统计
func (ctl *ProductController) AIUsage(c *gin.Context) {
	stats, err := ctl.aiLogs.GetUsageBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", stats)
}

// DailyAIUsage 最近 N 天（默认 7）每日调用量
// GET /api/v1/ai/usage/daily?days=7
func (ctl *ProductController) DailyAIUsage(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 || days > 365 {
		badRequest(c, "days 必须是 1-365 的整数")
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -days)
	stats, err := ctl.aiLogs.GetDailyUsage(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", stats)
}
