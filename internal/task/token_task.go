package task

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// TokenSource 取 token；过期时内部负责刷新
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// TokenTask 定时检查 OAuth token，临近过期时刷新
type TokenTask struct {
	tokens   TokenSource
	cron     *cron.Cron
	cronSpec string
}

func NewTokenTask(tokens TokenSource, cronSpec string) *TokenTask {
	if cronSpec == "" {
		cronSpec = "0 0/40 * * * *"
	}
	return &TokenTask{
		tokens:   tokens,
		cron:     cron.New(cron.WithSeconds()), // 支持秒级控制
		cronSpec: cronSpec,
	}
}

// Start 启动定时任务
func (t *TokenTask) Start() error {
	// 首次执行
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		log.Println("[TokenTask] 服务启动，正在执行首次 Token 检查...")
		t.refreshJob(ctx)
	}()

	_, err := t.cron.AddFunc(t.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.refreshJob(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	log.Printf("[TokenTask] Token 保活任务已启动 (%s)", t.cronSpec)
	return nil
}

// Stop 等待正在执行的任务结束
func (t *TokenTask) Stop() {
	<-t.cron.Stop().Done()
}

func (t *TokenTask) refreshJob(ctx context.Context) {
	_, err := t.tokens.AccessToken(ctx)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrValidation):
		log.Printf("[TokenTask] 尚未授权，跳过: %v", err)
	default:
		log.Printf("[TokenTask] Token 刷新失败: %v", err)
	}
}
