package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

// ==================== 统一响应 ====================

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": message,
		"data":    data,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": message})
}

// respondError 按领域错误映射 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var protoErr *ebay.ProtocolError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation):
		status = http.StatusBadRequest
	case errors.As(err, &protoErr):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error()})
}

// ==================== SSE 进度推送 ====================

// streamProgress 在后台执行 run，把进度事件以 SSE 推给客户端
// 客户端断开时取消 run 的 ctx
func streamProgress(c *gin.Context, run func(ctx context.Context, onEvent model.ProgressFunc)) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan model.ProgressEvent, 16)
	go func() {
		defer close(events)
		run(ctx, func(ev model.ProgressEvent) {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		})
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	for ev := range events {
		c.SSEvent(ev.Status, ev)
		c.Writer.Flush()
		if ev.Terminal() {
			break
		}
	}
	cancel()
	// 等待后台任务退出
	for range events {
	}
}

func wantsStream(c *gin.Context) bool {
	return c.Query("stream") == "true" || c.GetHeader("Accept") == "text/event-stream"
}
