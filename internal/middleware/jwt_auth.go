package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig 接口访问令牌配置
// SecretKey 为空时不做认证（本机单人使用）
type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	Issuer    string
}

// NewJWTConfig 填充默认值
func NewJWTConfig(secret string) *JWTConfig {
	return &JWTConfig{
		SecretKey: secret,
		TokenTTL:  30 * 24 * time.Hour,
		Issuer:    "listing-engine",
	}
}

// Enabled 是否启用认证
func (c *JWTConfig) Enabled() bool {
	return c != nil && c.SecretKey != ""
}

// ==================== Claims 定义 ====================

// OperatorClaims 操作员声明
type OperatorClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}

// GenerateToken 签发访问令牌
func (c *JWTConfig) GenerateToken(operator string) (string, error) {
	if !c.Enabled() {
		return "", errors.New("未配置 JWT 密钥")
	}
	now := time.Now()
	claims := &OperatorClaims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.Issuer,
			Subject:   "access",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.SecretKey))
}

// ParseToken 解析并校验令牌
func (c *JWTConfig) ParseToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(c.SecretKey), nil
	}, jwt.WithIssuer(c.Issuer))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*OperatorClaims); ok && token.Valid && claims.Subject == "access" {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// ==================== Gin 中间件 ====================

const ContextKeyOperator = "operator"

// JWTAuth 认证中间件；支持 Authorization: Bearer 与 ?token=（EventSource 无法带 Header）
func JWTAuth(cfg *JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}

		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				abortUnauthorized(c, "认证格式错误，应为 Bearer {token}")
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			abortUnauthorized(c, "未提供认证信息")
			return
		}

		claims, err := cfg.ParseToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		c.Set(ContextKeyOperator, claims.Operator)
		c.Next()
	}
}

// GetOperator 从 Context 获取操作员
func GetOperator(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyOperator); exists {
		return name.(string)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": msg,
	})
}
