package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
)

// SchemaController 分类模板
type SchemaController struct {
	schemas *service.SchemaService
}

func NewSchemaController(schemas *service.SchemaService) *SchemaController {
	return &SchemaController{schemas: schemas}
}

// GetSchema 读取分类模板，缓存缺失时远程拉取
// GET /api/v1/schemas/:category_id?marketplace=EBAY_DE
func (ctl *SchemaController) GetSchema(c *gin.Context) {
	schema, err := ctl.schemas.Get(c.Request.Context(), c.Param("category_id"), c.Query("marketplace"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", schema)
}

// ListCached 已缓存的分类 ID
// GET /api/v1/schemas?marketplace=EBAY_DE
func (ctl *SchemaController) ListCached(c *gin.Context) {
	ids, err := ctl.schemas.CachedIDs(c.Request.Context(), c.Query("marketplace"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", gin.H{"list": ids, "total": len(ids)})
}

type refreshSchemasReq struct {
	CategoryIDs []string `json:"category_ids"`
	Marketplace string   `json:"marketplace"`
	Force       bool     `json:"force"`
}

// Refresh 批量刷新；category_ids 为空时刷新全部已缓存分类
// POST /api/v1/schemas/refresh
func (ctl *SchemaController) Refresh(c *gin.Context) {
	var req refreshSchemasReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "参数错误: "+err.Error())
		return
	}

	report, err := ctl.schemas.Refresh(c.Request.Context(), req.CategoryIDs, req.Marketplace, req.Force)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "刷新完成", report)
}
