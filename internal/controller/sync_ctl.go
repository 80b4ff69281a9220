package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/task"
)

// SyncController 在售列表与利润
type SyncController struct {
	sync        *service.SyncService
	profit      *service.ProfitService
	taskManager *task.TaskManager
}

func NewSyncController(sync *service.SyncService, profit *service.ProfitService, taskManager *task.TaskManager) *SyncController {
	return &SyncController{sync: sync, profit: profit, taskManager: taskManager}
}

// ==================== 在售列表 ====================

// ActiveListings 在售列表
// GET /api/v1/listings/active?use_cache=true&force_refresh=false&with_profit=true
// 实时拉取时可加 stream=true 以 SSE 推送分页进度
func (ctl *SyncController) ActiveListings(c *gin.Context) {
	var opts service.ListingsOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	if wantsStream(c) {
		streamProgress(c, func(ctx context.Context, onEvent model.ProgressFunc) {
			if _, err := ctl.sync.GetActiveListings(ctx, opts, onEvent); err != nil {
				onEvent.Emit(model.ProgressEvent{Status: model.ProgressFailed, Error: err.Error()})
			}
		})
		return
	}

	view, err := ctl.sync.GetActiveListings(c.Request.Context(), opts, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", view)
}

// FindBySKU 按 SKU 查找在售商品（支持区间/逗号 SKU）
func (ctl *SyncController) FindBySKU(c *gin.Context) {
	listings, err := ctl.sync.FindBySKU(c.Request.Context(), c.Param("sku"), c.Query("with_profit") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	if len(listings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "该 SKU 没有在售商品"})
		return
	}
	ok(c, "获取成功", gin.H{"list": listings, "total": len(listings)})
}

// CacheInfo 缓存状态
func (ctl *SyncController) CacheInfo(c *gin.Context) {
	info, err := ctl.sync.CacheInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", gin.H{
		"timestamp": info.Timestamp,
		"count":     len(info.Listings),
	})
}

// TriggerSync 后台全量同步，立即返回
// POST /api/v1/sync/listings
func (ctl *SyncController) TriggerSync(c *gin.Context) {
	if err := ctl.taskManager.TriggerListingSync(); err != nil {
		if errors.Is(err, task.ErrTaskDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "message": "同步任务未启用"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"code": 202, "message": "在售列表同步已触发"})
}

// TaskStatus 定时任务状态
func (ctl *SyncController) TaskStatus(c *gin.Context) {
	ok(c, "获取成功", ctl.taskManager.Status())
}

// ==================== 利润 ====================

// CalculateProfit POST /api/v1/profit/calculate
func (ctl *SyncController) CalculateProfit(c *gin.Context) {
	var in model.ProfitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	res, err := ctl.profit.Calculate(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "计算完成", res)
}

// InvalidateCosts 库存成本变动后清空成本缓存
func (ctl *SyncController) InvalidateCosts(c *gin.Context) {
	ctl.profit.InvalidateCosts()
	ok(c, "成本缓存已清空", nil)
}
