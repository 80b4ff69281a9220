package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== Cooldown 手动触发冷却 ====================

// Cooldown 记录各类手动操作的上次执行时间
// 防止频繁触发全量同步把 Trading API 配额打满
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{last: make(map[string]time.Time), now: time.Now}
}

// Allow 不在冷却期时记录本次并放行；否则返回剩余时间
func (cd *Cooldown) Allow(key string, interval time.Duration) (bool, time.Duration) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	now := cd.now()
	if last, ok := cd.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < interval {
			return false, interval - elapsed
		}
	}
	cd.last[key] = now
	return true, 0
}

// Reset 清除冷却
func (cd *Cooldown) Reset(key string) {
	cd.mu.Lock()
	delete(cd.last, key)
	cd.mu.Unlock()
}

// CooldownLimit 按 key 全局冷却的中间件
func CooldownLimit(cd *Cooldown, key string, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := cd.Allow(key, interval)
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(retryAfter),
				"data": gin.H{
					"retry_after": int(retryAfter.Seconds()),
					"operation":   key,
				},
			})
			return
		}
		c.Next()
	}
}

func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("操作冷却中，请 %d 秒后重试", seconds)
	}
	minutes, rest := seconds/60, seconds%60
	if rest == 0 {
		return fmt.Sprintf("操作冷却中，请 %d 分钟后重试", minutes)
	}
	return fmt.Sprintf("操作冷却中，请 %d 分 %d 秒后重试", minutes, rest)
}
