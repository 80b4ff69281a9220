package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(s *service.AuthService) *AuthController {
	return &AuthController{authService: s}
}

// Consent 生成 eBay 授权链接
// 前端只展示链接，由用户手动在浏览器中打开
// GET /api/v1/oauth/consent
func (ctrl *AuthController) Consent(c *gin.Context) {
	url, state, err := ctrl.authService.GenerateConsentURL()
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "获取成功", gin.H{"auth_url": url, "state": state})
}

// Callback 接收 code 与 state，换取 Token
// GET /api/v1/oauth/callback
func (ctrl *AuthController) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "用户拒绝了授权", "data": gin.H{"ebay_msg": errParam}})
		return
	}

	code, state := c.Query("code"), c.Query("state")
	if code == "" || state == "" {
		badRequest(c, "缺少必要参数 code 或 state")
		return
	}

	tok, err := ctrl.authService.ExchangeCode(c.Request.Context(), code, state)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "授权成功", gin.H{"expire_at": tok.ExpiresAt})
}

// Refresh 强制刷新 Token
// POST /api/v1/oauth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	tok, err := ctrl.authService.Refresh(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, "Token 刷新成功", gin.H{"new_expiry": tok.ExpiresAt.Format("2006-01-02 15:04:05")})
}

// Status 授权状态
func (ctrl *AuthController) Status(c *gin.Context) {
	authorized, expiresAt, err := ctrl.authService.Status(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data := gin.H{"authorized": authorized}
	if !expiresAt.IsZero() {
		data["expire_at"] = expiresAt
	}
	ok(c, "获取成功", data)
}
