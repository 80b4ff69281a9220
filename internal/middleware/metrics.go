package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
)

// Metrics 记录请求计数；路由取注册时的模板路径，避免 SKU 撑爆标签
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(route, c.Request.Method, strconv.Itoa(c.Writer.Status()))
	}
}
