package ebay

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/net"
)

const (
	ProductionTradingURL = "https://api.ebay.com/ws/api.dll"
	SandboxTradingURL    = "https://api.sandbox.ebay.com/ws/api.dll"

	// MaxEntriesPerPage GetMyeBaySelling 单页上限
	MaxEntriesPerPage = 200
)

// TokenProvider OAuth 用户 token 来源
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// TradingConfig Trading 客户端配置
type TradingConfig struct {
	Endpoint    string
	SiteID      int
	CompatLevel int
	Currency    string

	// AuthToken 旧版 token，为空时所有调用走 IAF
	AuthToken string
	DevID     string
	AppID     string
	CertID    string

	// CallSchemes 每个调用的鉴权方式，未配置的默认旧版 token
	CallSchemes map[string]net.AuthScheme

	Timeout        time.Duration
	UploadTimeout  time.Duration
	PagesPerSecond float64
	ProxyURL       string
	Debug          bool
}

// TradingClient 旧版 XML Trading 协议客户端
type TradingClient struct {
	cfg     *TradingConfig
	http    *resty.Client
	upload  *resty.Client
	tokens  TokenProvider
	limiter *rate.Limiter
}

// NewTradingClient 创建 Trading 客户端
func NewTradingClient(cfg *TradingConfig, tokens TokenProvider) *TradingClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = ProductionTradingURL
	}
	if cfg.SiteID == 0 {
		cfg.SiteID = 77 // eBay.de
	}
	if cfg.CompatLevel == 0 {
		cfg.CompatLevel = 1193
	}
	if cfg.Currency == "" {
		cfg.Currency = "EUR"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UploadTimeout == 0 {
		cfg.UploadTimeout = 60 * time.Second
	}
	if cfg.PagesPerSecond == 0 {
		cfg.PagesPerSecond = 2
	}
	if cfg.CallSchemes == nil {
		cfg.CallSchemes = map[string]net.AuthScheme{
			CallUploadSiteHostedPictures: net.AuthSchemeToken,
			CallAddFixedPriceItem:        net.AuthSchemeToken,
			CallGetMyeBaySelling:         net.AuthSchemeIAF,
		}
	}

	return &TradingClient{
		cfg:     cfg,
		http:    net.NewClient(net.ClientConfig{Timeout: cfg.Timeout, ProxyURL: cfg.ProxyURL, Debug: cfg.Debug}),
		upload:  net.NewClient(net.ClientConfig{Timeout: cfg.UploadTimeout, ProxyURL: cfg.ProxyURL, Debug: cfg.Debug}),
		tokens:  tokens,
		limiter: rate.NewLimiter(rate.Limit(cfg.PagesPerSecond), 1),
	}
}

// Currency 站点币种
func (c *TradingClient) Currency() string {
	return c.cfg.Currency
}

// ==================== 核心调用 ====================

// scheme 决定调用的鉴权方式；没有旧版 token 时退回 IAF
func (c *TradingClient) scheme(callName string) net.AuthScheme {
	s, ok := c.cfg.CallSchemes[callName]
	if !ok {
		s = net.AuthSchemeToken
	}
	if s == net.AuthSchemeToken && c.cfg.AuthToken == "" {
		return net.AuthSchemeIAF
	}
	return s
}

// prepare 填充鉴权信息并生成请求头
func (c *TradingClient) prepare(ctx context.Context, callName string, req Request, multipart bool) ([]byte, map[string]string, error) {
	scheme := c.scheme(callName)
	opts := net.TradingHeaderOptions{
		CallName:    callName,
		SiteID:      c.cfg.SiteID,
		CompatLevel: c.cfg.CompatLevel,
		Scheme:      scheme,
		DevID:       c.cfg.DevID,
		AppID:       c.cfg.AppID,
		CertID:      c.cfg.CertID,
		Multipart:   multipart,
	}

	base := req.base()
	base.MessageID = uuid.NewString()
	if base.ErrorLanguage == "" {
		base.ErrorLanguage = "de_DE"
	}
	if base.WarningLevel == "" {
		base.WarningLevel = "High"
	}

	switch scheme {
	case net.AuthSchemeToken:
		base.RequesterCredentials = &RequesterCredentials{EBayAuthToken: c.cfg.AuthToken}
	default:
		if c.tokens == nil {
			return nil, nil, fmt.Errorf("%s 需要 OAuth token，但未配置 token 来源", callName)
		}
		token, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("获取 access token 失败: %w", err)
		}
		opts.IAFToken = token
		base.RequesterCredentials = nil
	}

	payload, err := xml.Marshal(req)
	if err != nil {
		return nil, nil, fmt.Errorf("构建 %s 请求失败: %w", callName, err)
	}
	return append([]byte(xml.Header), payload...), net.BuildTradingHeaders(opts), nil
}

// parse 解析 Ack / Errors；Success、Warning 之外返回 ProtocolError
func parse(callName string, status int, body []byte) (*ResponseBase, error) {
	var envelope ResponseBase
	if err := xml.Unmarshal(body, &envelope); err != nil || envelope.Ack == "" {
		if status >= http.StatusBadRequest || status == 0 {
			return nil, &ProtocolError{
				CallName:   callName,
				HTTPStatus: status,
				Errors:     []ErrorDetail{{ShortMessage: http.StatusText(status), LongMessage: truncate(string(body), 300)}},
			}
		}
		if err == nil {
			err = fmt.Errorf("响应缺少 Ack")
		}
		return nil, fmt.Errorf("解析 %s 响应失败: %w", callName, err)
	}
	if !envelope.Succeeded() {
		return &envelope, &ProtocolError{
			CallName:   callName,
			Ack:        envelope.Ack,
			HTTPStatus: status,
			Errors:     envelope.Errors,
		}
	}
	return &envelope, nil
}

// Call 发送 XML 请求，返回原始响应体和解析后的公共部分
func (c *TradingClient) Call(ctx context.Context, callName string, req Request) ([]byte, *ResponseBase, error) {
	payload, headers, err := c.prepare(ctx, callName, req, false)
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(payload).
		Post(c.cfg.Endpoint)
	if err != nil {
		metrics.RecordTradingCall(callName, "", time.Since(start))
		return nil, nil, wrapTransportError(callName, err)
	}

	body := resp.Body()
	envelope, err := parse(callName, resp.StatusCode(), body)
	ack := ""
	if envelope != nil {
		ack = envelope.Ack
	}
	metrics.RecordTradingCall(callName, ack, time.Since(start))
	return body, envelope, err
}

// ==================== 图片上传 ====================

// UploadPicture multipart 上传图片，返回托管地址
func (c *TradingClient) UploadPicture(ctx context.Context, name string, data []byte) (string, error) {
	req := &UploadPictureRequest{PictureName: name, PictureSet: "Supersize"}
	payload, headers, err := c.prepare(ctx, CallUploadSiteHostedPictures, req, true)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := c.upload.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetMultipartFields(
			&resty.MultipartField{
				Param:       "XML Payload",
				ContentType: "text/xml",
				Reader:      bytes.NewReader(payload),
			},
			&resty.MultipartField{
				Param:       "image",
				FileName:    name,
				ContentType: http.DetectContentType(data),
				Reader:      bytes.NewReader(data),
			},
		).
		Post(c.cfg.Endpoint)
	if err != nil {
		metrics.RecordTradingCall(CallUploadSiteHostedPictures, "", time.Since(start))
		return "", wrapTransportError(CallUploadSiteHostedPictures, err)
	}

	body := resp.Body()
	envelope, err := parse(CallUploadSiteHostedPictures, resp.StatusCode(), body)
	if envelope != nil {
		metrics.RecordTradingCall(CallUploadSiteHostedPictures, envelope.Ack, time.Since(start))
	}
	if err != nil {
		return "", err
	}

	url := ExtractValue(body, "SiteHostedPictureDetails", "FullURL")
	if url == "" {
		return "", fmt.Errorf("图片 %s 上传成功但响应中没有 FullURL", name)
	}
	return url, nil
}

// ==================== 刊登 ====================

// AddFixedPriceItem 创建一口价刊登
func (c *TradingClient) AddFixedPriceItem(ctx context.Context, item *Item) (*AddItemResult, error) {
	req := &AddFixedPriceItemRequest{Item: *item}
	body, envelope, err := c.Call(ctx, CallAddFixedPriceItem, req)
	if err != nil {
		return nil, err
	}

	result := &AddItemResult{
		ItemID:   ExtractValue(body, "ItemID"),
		Ack:      envelope.Ack,
		Warnings: envelope.Warnings(),
	}
	if result.Ack == AckWarning {
		log.Printf("[TradingClient] SKU %s 刊登成功但有 %d 条警告", item.SKU, len(result.Warnings))
	}
	return result, nil
}

// ==================== 在售列表 ====================

// GetActiveListingsPage 拉取单页在售列表
func (c *TradingClient) GetActiveListingsPage(ctx context.Context, page, perPage int) (*ActivePage, error) {
	if perPage <= 0 || perPage > MaxEntriesPerPage {
		perPage = MaxEntriesPerPage
	}
	req := &GetMyeBaySellingRequest{
		ActiveList: &ItemListCustomization{
			Include:    true,
			Pagination: Pagination{EntriesPerPage: perPage, PageNumber: page},
		},
	}

	body, _, err := c.Call(ctx, CallGetMyeBaySelling, req)
	if err != nil {
		return nil, err
	}

	var resp GetMyeBaySellingResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析在售列表第 %d 页失败: %w", page, err)
	}

	return &ActivePage{
		Items:        resp.ActiveList.ItemArray.Items,
		PageNumber:   page,
		TotalPages:   resp.ActiveList.PaginationResult.TotalNumberOfPages,
		TotalEntries: resp.ActiveList.PaginationResult.TotalNumberOfEntries,
	}, nil
}

// FetchActiveListings 逐页拉取全部在售列表，每页回调一次进度
func (c *TradingClient) FetchActiveListings(ctx context.Context, perPage int, onPage func(PageProgress)) ([]ActiveItem, error) {
	var all []ActiveItem

	for page := 1; ; page++ {
		if page > 1 {
			// 防止触发 QPS 限制
			if err := c.limiter.Wait(ctx); err != nil {
				return all, wrapTransportError(CallGetMyeBaySelling, err)
			}
		}

		result, err := c.GetActiveListingsPage(ctx, page, perPage)
		if err != nil {
			return all, fmt.Errorf("拉取第 %d 页失败: %w", page, err)
		}
		all = append(all, result.Items...)

		totalPages := result.TotalPages
		if totalPages < page {
			totalPages = page
		}
		if onPage != nil {
			onPage(PageProgress{Page: page, TotalPages: totalPages, Count: len(all)})
		}

		if page >= totalPages {
			break
		}
	}

	return all, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
