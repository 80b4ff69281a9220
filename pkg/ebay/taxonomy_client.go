package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/stamat12/ecom-platform-v2-sub000/pkg/net"
)

const (
	ProductionTaxonomyURL = "https://api.ebay.com/commerce/taxonomy/v1"
	SandboxTaxonomyURL    = "https://api.sandbox.ebay.com/commerce/taxonomy/v1"
)

// TaxonomyConfig 分类接口配置
type TaxonomyConfig struct {
	BaseURL  string
	Timeout  time.Duration
	ProxyURL string
}

// TaxonomyClient 分类树 / 属性 REST 客户端（Bearer 鉴权）
type TaxonomyClient struct {
	cfg    *TaxonomyConfig
	http   *resty.Client
	tokens TokenProvider
}

// NewTaxonomyClient 创建分类客户端
func NewTaxonomyClient(cfg *TaxonomyConfig, tokens TokenProvider) *TaxonomyClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ProductionTaxonomyURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &TaxonomyClient{
		cfg:    cfg,
		http:   net.NewClient(net.ClientConfig{Timeout: cfg.Timeout, ProxyURL: cfg.ProxyURL}),
		tokens: tokens,
	}
}

func (c *TaxonomyClient) get(ctx context.Context, path string, query url.Values, marketplaceID string, out interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("获取 access token 失败: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(net.BuildBearerHeaders(token, marketplaceID)).
		SetQueryParamsFromValues(query).
		Get(c.cfg.BaseURL + path)
	if err != nil {
		return wrapTransportError("taxonomy"+path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusNoContent:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.IsError():
		var apiErr restErrorResp
		msg := resp.String()
		if json.Unmarshal(resp.Body(), &apiErr) == nil && len(apiErr.Errors) > 0 {
			msg = apiErr.Errors[0].Message
		}
		return fmt.Errorf("请求分类接口失败 (HTTP %d): %s", resp.StatusCode(), msg)
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("解析分类接口响应失败: %w", err)
	}
	return nil
}

// GetDefaultCategoryTreeID 站点对应的分类树 ID
func (c *TaxonomyClient) GetDefaultCategoryTreeID(ctx context.Context, marketplaceID string) (string, error) {
	var out CategoryTreeResp
	q := url.Values{"marketplace_id": {marketplaceID}}
	if err := c.get(ctx, "/get_default_category_tree_id", q, marketplaceID, &out); err != nil {
		return "", err
	}
	if out.CategoryTreeID == "" {
		return "", fmt.Errorf("%w: 站点 %s 没有分类树", ErrNotFound, marketplaceID)
	}
	return out.CategoryTreeID, nil
}

// GetItemAspectsForCategory 分类属性定义
func (c *TaxonomyClient) GetItemAspectsForCategory(ctx context.Context, treeID, categoryID string) (*AspectsResp, error) {
	var out AspectsResp
	path := "/category_tree/" + url.PathEscape(treeID) + "/get_item_aspects_for_category"
	if err := c.get(ctx, path, url.Values{"category_id": {categoryID}}, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCategoryName 分类名称
func (c *TaxonomyClient) GetCategoryName(ctx context.Context, treeID, categoryID string) (string, error) {
	var out CategorySubtreeResp
	path := "/category_tree/" + url.PathEscape(treeID) + "/get_category_subtree"
	if err := c.get(ctx, path, url.Values{"category_id": {categoryID}}, "", &out); err != nil {
		return "", err
	}
	return out.CategorySubtreeNode.Category.CategoryName, nil
}
