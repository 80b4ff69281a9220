package net

import (
	"strconv"
)

// AuthScheme Trading 调用的鉴权方式
type AuthScheme string

const (
	// AuthSchemeToken 旧版 Auth'n'Auth token，写在 XML 的 RequesterCredentials 里
	AuthSchemeToken AuthScheme = "token"
	// AuthSchemeIAF OAuth 用户 token，放在 X-EBAY-API-IAF-TOKEN 头
	AuthSchemeIAF AuthScheme = "iaf"
)

// TradingHeaderOptions Trading 请求头参数
type TradingHeaderOptions struct {
	CallName    string
	SiteID      int
	CompatLevel int
	Scheme      AuthScheme
	IAFToken    string

	// 应用凭证（可选）
	DevID  string
	AppID  string
	CertID string

	// Multipart 为 true 时不设置 Content-Type，由传输层生成 boundary
	Multipart bool
}

// BuildTradingHeaders 通用 Trading 请求头构建器
// 适用方：图片上传、刊登创建、在售列表拉取
func BuildTradingHeaders(opts TradingHeaderOptions) map[string]string {
	headers := map[string]string{
		"X-EBAY-API-CALL-NAME":           opts.CallName,
		"X-EBAY-API-SITEID":              strconv.Itoa(opts.SiteID),
		"X-EBAY-API-COMPATIBILITY-LEVEL": strconv.Itoa(opts.CompatLevel),
	}

	if !opts.Multipart {
		headers["Content-Type"] = "text/xml; charset=utf-8"
	}

	if opts.Scheme == AuthSchemeIAF && opts.IAFToken != "" {
		headers["X-EBAY-API-IAF-TOKEN"] = opts.IAFToken
	}

	if opts.DevID != "" {
		headers["X-EBAY-API-DEV-NAME"] = opts.DevID
	}
	if opts.AppID != "" {
		headers["X-EBAY-API-APP-NAME"] = opts.AppID
	}
	if opts.CertID != "" {
		headers["X-EBAY-API-CERT-NAME"] = opts.CertID
	}

	return headers
}

// BuildBearerHeaders REST (JSON) 请求头
func BuildBearerHeaders(accessToken, marketplaceID string) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
		"Accept":        "application/json",
		"Content-Type":  "application/json",
	}
	if marketplaceID != "" {
		headers["X-EBAY-C-MARKETPLACE-ID"] = marketplaceID
	}
	return headers
}
