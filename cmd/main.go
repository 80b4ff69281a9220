package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/config"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/controller"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/middleware"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/router"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/task"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/database"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/utils"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_FILE", "config.yaml"), "配置文件路径")
	issueToken := flag.String("issue-token", "", "为指定操作员签发接口访问令牌后退出")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	jwtCfg := middleware.NewJWTConfig(cfg.Server.JWTSecret)
	if *issueToken != "" {
		token, err := jwtCfg.GenerateToken(*issueToken)
		if err != nil {
			log.Fatalf("签发令牌失败: %v", err)
		}
		fmt.Println(token)
		return
	}

	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 2. 初始化依赖
	ctx := context.Background()
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		log.Fatalf("初始化依赖失败: %v", err)
	}
	defer deps.Close()

	// 3. 启动定时任务
	if err := deps.Tasks.Start(); err != nil {
		log.Fatalf("启动定时任务失败: %v", err)
	}

	// 4. 初始化路由
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	router.InitRoutes(r, deps.Controllers, &router.Options{JWT: jwtCfg})

	// 5. 启动服务
	startServer(r, cfg.Server.Port, deps.Tasks)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	Store       kvstore.Store
	DB          *gorm.DB
	Services    *Services
	Tasks       *task.TaskManager
	Controllers *router.Controllers
}

// Services 服务集合
type Services struct {
	Auth          *service.AuthService
	AI            *service.AIService
	Schema        *service.SchemaService
	Enrich        *service.EnrichService
	Images        *service.ImageService
	Manufacturers *service.ManufacturerService
	Listing       *service.ListingService
	Profit        *service.ProfitService
	Sync          *service.SyncService
}

// Close 释放外部连接
func (d *Dependencies) Close() {
	if d.Services.AI != nil {
		_ = d.Services.AI.Close()
	}
	if closer, ok := d.Store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.Printf("关闭缓存存储失败: %v", err)
		}
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// ==================== 初始化函数 ====================

// initStore 按驱动创建键值缓存
func initStore(ctx context.Context, cfg *config.StorageConfig) (kvstore.Store, error) {
	switch cfg.Driver {
	case "", "file":
		return kvstore.NewFileStore(cfg.Dir)
	case "gorm":
		db, err := database.InitDB(cfg.DSN, false)
		if err != nil {
			return nil, err
		}
		return kvstore.NewGormStore(db)
	case "redis":
		store := kvstore.NewRedisStore(&kvstore.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("连接 Redis 失败: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("不支持的缓存驱动: %s", cfg.Driver)
	}
}

// initDependencies 初始化所有依赖
func initDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// -------- 存储层 --------
	store, err := initStore(ctx, &cfg.Storage)
	if err != nil {
		return nil, err
	}
	db, err := database.InitDB(cfg.Inventory.DSN, cfg.Server.Debug, &model.InventoryItem{}, &model.AICallLog{})
	if err != nil {
		return nil, err
	}

	records := repository.NewProductRecordRepository(store)
	inventory := repository.NewInventoryRepository(db)
	aiLogs := repository.NewAICallLogRepository(db)

	imageSource, err := service.NewImageSource(ctx, &service.ImageSourceConfig{
		Provider:  cfg.Images.Provider,
		Dir:       cfg.Images.Dir,
		Bucket:    cfg.Images.Bucket,
		Region:    cfg.Images.Region,
		Prefix:    cfg.Images.Prefix,
		AccessKey: cfg.Images.AccessKey,
		SecretKey: cfg.Images.SecretKey,
		Endpoint:  cfg.Images.Endpoint,
	})
	if err != nil {
		return nil, err
	}

	// -------- 平台接口 --------
	auth := service.NewAuthService(&service.AuthConfig{
		ClientID:     cfg.Ebay.ClientID,
		ClientSecret: cfg.Ebay.ClientSecret,
		RuName:       cfg.Ebay.RuName,
		AuthURL:      cfg.Ebay.AuthURL,
		TokenURL:     cfg.Ebay.TokenURL,
		Scopes:       cfg.Ebay.Scopes,
		RefreshToken: cfg.Ebay.RefreshToken,
	}, store)

	trading := ebay.NewTradingClient(&ebay.TradingConfig{
		Endpoint:       cfg.Ebay.TradingURL,
		SiteID:         cfg.Ebay.SiteID,
		CompatLevel:    cfg.Ebay.CompatLevel,
		Currency:       cfg.Ebay.Currency,
		AuthToken:      cfg.Ebay.AuthToken,
		DevID:          cfg.Ebay.DevID,
		AppID:          cfg.Ebay.ClientID,
		CertID:         cfg.Ebay.ClientSecret,
		Timeout:        time.Duration(cfg.Ebay.TimeoutSec) * time.Second,
		UploadTimeout:  time.Duration(cfg.Ebay.UploadSec) * time.Second,
		PagesPerSecond: cfg.Sync.PagesPerSecond,
		ProxyURL:       cfg.Ebay.ProxyURL,
		Debug:          cfg.Server.Debug,
	}, auth)
	taxonomy := ebay.NewTaxonomyClient(&ebay.TaxonomyConfig{
		BaseURL:  cfg.Ebay.TaxonomyURL,
		Timeout:  time.Duration(cfg.Ebay.TimeoutSec) * time.Second,
		ProxyURL: cfg.Ebay.ProxyURL,
	}, auth)

	// -------- 业务服务 --------
	ai, err := service.NewAIService(ctx, &service.AIConfig{APIKey: cfg.AI.APIKey, Model: cfg.AI.Model}, aiLogs)
	if err != nil {
		return nil, err
	}

	fees := service.NewFeeResolver(cfg.Fees.Default, cfg.Fees.Categories)
	schemas := service.NewSchemaService(store, taxonomy, fees, utils.NewTTLCache[string, string](24*time.Hour), cfg.Ebay.MarketplaceID)
	manufacturers := service.NewManufacturerService(store, ai)
	images := service.NewImageService(records, imageSource, trading, cfg.Listing.MaxImages)

	svc := &Services{
		Auth:          auth,
		AI:            ai,
		Schema:        schemas,
		Images:        images,
		Manufacturers: manufacturers,
	}
	svc.Enrich = service.NewEnrichService(&service.EnrichConfig{
		MaxAllowedValues: cfg.AI.MaxAllowedValues,
		MaxImages:        cfg.AI.MaxImages,
	}, records, schemas, ai, imageSource)
	svc.Listing = service.NewListingService(&service.ListingConfig{
		Marketplace:    cfg.Ebay.MarketplaceID,
		Currency:       cfg.Ebay.Currency,
		Country:        cfg.Listing.Country,
		Location:       cfg.Listing.Location,
		PostalCode:     cfg.Listing.PostalCode,
		Duration:       cfg.Listing.Duration,
		ListingType:    cfg.Listing.ListingType,
		BestOffer:      cfg.Listing.BestOffer,
		ScheduleDays:   cfg.Listing.ScheduleDays,
		ShippingPolicy: cfg.Listing.ShippingPolicy,
		ReturnPolicy:   cfg.Listing.ReturnPolicy,
		PaymentPolicy:  cfg.Listing.PaymentPolicy,
		Quantity:       cfg.Listing.Quantity,
		DispatchDays:   cfg.Listing.DispatchDays,
	}, records, schemas, images, trading, manufacturers, store)
	svc.Profit = service.NewProfitService(&service.ProfitConfig{
		HomeMarketplace:      cfg.Profit.HomeMarketplace,
		NonDomesticSurcharge: cfg.Profit.NonDomesticSurcharge,
		HomeShipping:         cfg.Profit.HomeShipping,
		DefaultShipping:      cfg.Profit.DefaultShipping,
		VATRates:             cfg.Profit.VATRates,
	}, fees, schemas, inventory, service.NewCostCache())
	svc.Sync = service.NewSyncService(&service.SyncConfig{
		CacheTTL:       time.Duration(cfg.Sync.CacheTTLHours) * time.Hour,
		EntriesPerPage: cfg.Sync.EntriesPerPage,
		Marketplace:    cfg.Ebay.MarketplaceID,
		Currency:       cfg.Ebay.Currency,
	}, store, trading, svc.Profit)

	// -------- 定时任务 --------
	tasks := task.NewTaskManager(&task.TaskManagerDeps{
		Tokens: auth,
		Syncer: svc.Sync,
	}, &task.TaskManagerConfig{
		TokenEnabled: cfg.Ebay.ClientID != "",
		SyncEnabled:  cfg.Sync.CronSpec != "",
		SyncCronSpec: cfg.Sync.CronSpec,
	})

	// -------- Controller 层 --------
	controllers := &router.Controllers{
		Auth:    controller.NewAuthController(auth),
		Schema:  controller.NewSchemaController(schemas),
		Product: controller.NewProductController(records, aiLogs),
		Listing: controller.NewListingController(&controller.ListingControllerDeps{
			Records:       records,
			Enrich:        svc.Enrich,
			Images:        images,
			Listings:      svc.Listing,
			Manufacturers: manufacturers,
		}),
		Sync: controller.NewSyncController(svc.Sync, svc.Profit, tasks),
	}

	return &Dependencies{
		Store:       store,
		DB:          db,
		Services:    svc,
		Tasks:       tasks,
		Controllers: controllers,
	}, nil
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到退出信号后先停任务再关 HTTP
func startServer(r *gin.Engine, port string, tasks *task.TaskManager) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")
	tasks.Stop()

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
