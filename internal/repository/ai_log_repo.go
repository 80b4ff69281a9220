package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// ==================== 仓储接口 ====================

// AICallLogRepository AI调用日志仓储接口
type AICallLogRepository interface {
	Create(ctx context.Context, log *model.AICallLog) error
	GetByID(ctx context.Context, id int64) (*model.AICallLog, error)

	// 统计查询
	GetUsageBySKU(ctx context.Context, sku string) (*AIUsageStats, error)
	GetUsageByPurpose(ctx context.Context, purpose string, startTime, endTime time.Time) (*AIUsageStats, error)
	GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyUsageStats, error)
}

// ==================== 统计结构 ====================

// AIUsageStats AI用量统计
type AIUsageStats struct {
	TotalCalls          int64   `json:"total_calls"`
	VisionCalls         int64   `json:"vision_calls"`
	TextCalls           int64   `json:"text_calls"`
	TotalImages         int64   `json:"total_images"`
	TotalProposedFields int64   `json:"total_proposed_fields"`
	AvgDurationMs       float64 `json:"avg_duration_ms"`
	SuccessCount        int64   `json:"success_count"`
	FailedCount         int64   `json:"failed_count"`
}

// DailyUsageStats 每日用量统计
type DailyUsageStats struct {
	Date        string `json:"date"`
	TotalCalls  int64  `json:"total_calls"`
	VisionCalls int64  `json:"vision_calls"`
	FailedCount int64  `json:"failed_count"`
}

const usageSelect = `
	COUNT(*) as total_calls,
	SUM(CASE WHEN call_type = 'vision' THEN 1 ELSE 0 END) as vision_calls,
	SUM(CASE WHEN call_type = 'text' THEN 1 ELSE 0 END) as text_calls,
	COALESCE(SUM(image_count), 0) as total_images,
	COALESCE(SUM(proposed_fields), 0) as total_proposed_fields,
	COALESCE(AVG(duration_ms), 0) as avg_duration_ms,
	SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END) as success_count,
	SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_count
`

// ==================== 仓储实现 ====================

type aiCallLogRepo struct {
	db *gorm.DB
}

// NewAICallLogRepository 创建AI调用日志仓储
func NewAICallLogRepository(db *gorm.DB) AICallLogRepository {
	return &aiCallLogRepo{db: db}
}

func (r *aiCallLogRepo) Create(ctx context.Context, log *model.AICallLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *aiCallLogRepo) GetByID(ctx context.Context, id int64) (*model.AICallLog, error) {
	var log model.AICallLog
	if err := r.db.WithContext(ctx).First(&log, id).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *aiCallLogRepo) GetUsageBySKU(ctx context.Context, sku string) (*AIUsageStats, error) {
	var stats AIUsageStats
	err := r.db.WithContext(ctx).Model(&model.AICallLog{}).
		Where("sku = ?", sku).
		Select(usageSelect).
		Scan(&stats).Error
	return &stats, err
}

func (r *aiCallLogRepo) GetUsageByPurpose(ctx context.Context, purpose string, startTime, endTime time.Time) (*AIUsageStats, error) {
	var stats AIUsageStats

	query := r.db.WithContext(ctx).Model(&model.AICallLog{}).Where("purpose = ?", purpose)
	if !startTime.IsZero() {
		query = query.Where("created_at >= ?", startTime)
	}
	if !endTime.IsZero() {
		query = query.Where("created_at <= ?", endTime)
	}

	err := query.Select(usageSelect).Scan(&stats).Error
	return &stats, err
}

func (r *aiCallLogRepo) GetDailyUsage(ctx context.Context, startDate, endDate time.Time) ([]DailyUsageStats, error) {
	var stats []DailyUsageStats

	err := r.db.WithContext(ctx).Model(&model.AICallLog{}).
		Where("created_at >= ? AND created_at <= ?", startDate, endDate).
		Select(`
			DATE(created_at) as date,
			COUNT(*) as total_calls,
			SUM(CASE WHEN call_type = 'vision' THEN 1 ELSE 0 END) as vision_calls,
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END) as failed_count
		`).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&stats).Error

	return stats, err
}
