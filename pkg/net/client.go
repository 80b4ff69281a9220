package net

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientConfig HTTP 客户端配置
type ClientConfig struct {
	Timeout   time.Duration
	ProxyURL  string
	Debug     bool
	UserAgent string
}

// NewClient 创建一个配置好代理、超时和调试模式的 Resty 客户端
// 不做自动重试：刊登创建不是幂等的
func NewClient(cfg ClientConfig) *resty.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Listing-Engine-Go/1.0"
	}

	client := resty.New().
		SetDebug(cfg.Debug).
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	if cfg.ProxyURL != "" {
		client.SetProxy(cfg.ProxyURL)
	}

	return client
}
