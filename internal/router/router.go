package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/controller"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/middleware"
)

// Controllers 路由依赖
type Controllers struct {
	Auth    *controller.AuthController
	Schema  *controller.SchemaController
	Product *controller.ProductController
	Listing *controller.ListingController
	Sync    *controller.SyncController
}

// Options 路由选项
type Options struct {
	JWT          *middleware.JWTConfig
	SyncCooldown time.Duration
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctl *Controllers, opts *Options) {
	r.Use(middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	// Prometheus 抓取
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// eBay 授权回调由浏览器跳转，不带认证
	r.GET("/api/v1/oauth/callback", ctl.Auth.Callback)

	cooldown := middleware.NewCooldown()
	if opts.SyncCooldown == 0 {
		opts.SyncCooldown = 5 * time.Minute
	}

	api := r.Group("/api/v1", middleware.JWTAuth(opts.JWT))
	{
		oauth := api.Group("/oauth")
		{
			oauth.GET("/consent", ctl.Auth.Consent)
			oauth.POST("/refresh", ctl.Auth.Refresh)
			oauth.GET("/status", ctl.Auth.Status)
		}

		schemas := api.Group("/schemas")
		{
			schemas.GET("", ctl.Schema.ListCached)
			schemas.GET("/:category_id", ctl.Schema.GetSchema)
			schemas.POST("/refresh", ctl.Schema.Refresh)
		}

		products := api.Group("/products")
		{
			products.GET("", ctl.Product.ListSKUs)
			products.GET("/:sku", ctl.Product.GetRecord)
			products.GET("/:sku/ai-usage", ctl.Product.AIUsage)
			products.GET("/:sku/title", ctl.Listing.PreviewTitle)
			products.POST("/:sku/enrich", ctl.Listing.Enrich)
			products.POST("/:sku/images/upload", ctl.Listing.UploadImages)
		}

		listings := api.Group("/listings")
		{
			listings.POST("/preview", ctl.Listing.PreviewDraft)
			listings.POST("", ctl.Listing.Submit)
			listings.POST("/batch", ctl.Listing.SubmitBatch)

			listings.GET("/active", ctl.Sync.ActiveListings)
			listings.GET("/active/sku/:sku", ctl.Sync.FindBySKU)
			listings.GET("/cache", ctl.Sync.CacheInfo)
		}

		sync := api.Group("/sync")
		{
			sync.POST("/listings", middleware.CooldownLimit(cooldown, "listings_sync", opts.SyncCooldown), ctl.Sync.TriggerSync)
			sync.GET("/status", ctl.Sync.TaskStatus)
		}

		profit := api.Group("/profit")
		{
			profit.POST("/calculate", ctl.Sync.CalculateProfit)
			profit.POST("/costs/invalidate", ctl.Sync.InvalidateCosts)
		}

		api.POST("/enrich/batch", ctl.Listing.EnrichBatch)
		api.GET("/manufacturers", ctl.Listing.LookupManufacturer)
		api.GET("/ai/usage/daily", ctl.Product.DailyAIUsage)
	}
}
