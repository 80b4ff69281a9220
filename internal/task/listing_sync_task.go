package task

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// ListingSyncer 在售列表同步
type ListingSyncer interface {
	Sync(ctx context.Context, onEvent model.ProgressFunc) ([]model.ActiveListing, error)
}

// ==================== ListingSyncTask 在售列表同步任务 ====================

// ListingSyncTask 定时刷新在售列表缓存
// 上一轮未结束时跳过本轮
type ListingSyncTask struct {
	syncer   ListingSyncer
	cron     *cron.Cron
	cronSpec string
	timeout  time.Duration
	running  atomic.Bool
}

// NewListingSyncTask 创建同步任务
func NewListingSyncTask(syncer ListingSyncer, cronSpec string) *ListingSyncTask {
	if cronSpec == "" {
		cronSpec = "0 0 */6 * * *"
	}
	return &ListingSyncTask{
		syncer:   syncer,
		cron:     cron.New(cron.WithSeconds()),
		cronSpec: cronSpec,
		timeout:  30 * time.Minute,
	}
}

// Start 启动定时任务
func (t *ListingSyncTask) Start() error {
	_, err := t.cron.AddFunc(t.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.syncJob(ctx)
	})
	if err != nil {
		return err
	}
	t.cron.Start()
	log.Printf("[ListingSyncTask] 在售列表同步任务已启动 (%s)", t.cronSpec)
	return nil
}

// Stop 停止任务
func (t *ListingSyncTask) Stop() {
	<-t.cron.Stop().Done()
}

// SyncNow 后台立即执行一次
func (t *ListingSyncTask) SyncNow() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		t.syncJob(ctx)
	}()
}

// syncJob 返回本轮是否实际执行
func (t *ListingSyncTask) syncJob(ctx context.Context) bool {
	if !t.running.CompareAndSwap(false, true) {
		log.Println("[ListingSyncTask] 上一轮同步尚未结束，跳过")
		return false
	}
	defer t.running.Store(false)

	start := time.Now()
	listings, err := t.syncer.Sync(ctx, func(ev model.ProgressEvent) {
		if ev.Status == model.ProgressRunning {
			log.Printf("[ListingSyncTask] 进度 %d/%d 页，累计 %d 条", ev.Current, ev.Total, ev.Count)
		}
	})
	if err != nil {
		log.Printf("[ListingSyncTask] 同步失败: %v", err)
		return true
	}
	log.Printf("[ListingSyncTask] 同步完成 %d 条，耗时 %v", len(listings), time.Since(start))
	return true
}
