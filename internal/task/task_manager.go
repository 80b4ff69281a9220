package task

import (
	"log"
)

// ==================== TaskManager 定时任务管理器 ====================

// TaskManager 统一管理 Token 保活与在售列表同步
type TaskManager struct {
	tokenTask *TokenTask
	syncTask  *ListingSyncTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Tokens TokenSource
	Syncer ListingSyncer
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	TokenEnabled  bool
	TokenCronSpec string

	SyncEnabled  bool
	SyncCronSpec string
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		TokenEnabled:  true,
		TokenCronSpec: "0 0/40 * * * *",
		SyncEnabled:   true,
		SyncCronSpec:  "0 0 */6 * * *",
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}
	if cfg.TokenEnabled && deps.Tokens != nil {
		tm.tokenTask = NewTokenTask(deps.Tokens, cfg.TokenCronSpec)
	}
	if cfg.SyncEnabled && deps.Syncer != nil {
		tm.syncTask = NewListingSyncTask(deps.Syncer, cfg.SyncCronSpec)
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	log.Println("[TaskManager] 正在启动定时任务...")

	if tm.tokenTask != nil {
		if err := tm.tokenTask.Start(); err != nil {
			return err
		}
	}
	if tm.syncTask != nil {
		if err := tm.syncTask.Start(); err != nil {
			return err
		}
	}

	log.Println("[TaskManager] 定时任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	log.Println("[TaskManager] 正在停止定时任务...")

	if tm.tokenTask != nil {
		tm.tokenTask.Stop()
	}
	if tm.syncTask != nil {
		tm.syncTask.Stop()
	}

	log.Println("[TaskManager] 定时任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerListingSync 后台触发在售列表同步
func (tm *TaskManager) TriggerListingSync() error {
	if tm.syncTask == nil {
		return ErrTaskDisabled
	}
	tm.syncTask.SyncNow()
	return nil
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"token":        tm.tokenTask != nil,
		"listing_sync": tm.syncTask != nil,
		"sync_running": tm.syncTask != nil && tm.syncTask.running.Load(),
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
