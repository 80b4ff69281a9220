package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/utils"
)

// 业务常量
const (
	ProductionAuthURL  = "https://auth.ebay.com/oauth2/authorize"
	ProductionTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"

	// tokenExpiryMargin 提前刷新的余量
	tokenExpiryMargin = 5 * time.Minute
	// tokenMemoryTTL 内存缓存最长保留时间
	tokenMemoryTTL = 10 * time.Minute
	stateTTL       = 10 * time.Minute
)

var oauthTokenKey = kvstore.Key("oauth", "token")

// AuthConfig OAuth 应用配置
type AuthConfig struct {
	ClientID     string
	ClientSecret string
	RuName       string // eBay 的 redirect_uri
	AuthURL      string
	TokenURL     string
	Scopes       []string
	RefreshToken string // 初始 refresh token，授权后以持久化的为准
	HTTPClient   *http.Client
}

// AuthService 用户 token 管理
// 内存短缓存 -> 持久化 token -> refresh；并发过期时可能重复刷新
type AuthService struct {
	cfg    *AuthConfig
	oauth  *oauth2.Config
	store  kvstore.Store
	memory *utils.TTLCache[string, *model.OAuthToken]
	states *utils.TTLCache[string, bool]
	now    func() time.Time
}

// NewAuthService 工厂方法
func NewAuthService(cfg *AuthConfig, store kvstore.Store) *AuthService {
	if cfg.AuthURL == "" {
		cfg.AuthURL = ProductionAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = ProductionTokenURL
	}
	return &AuthService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RuName,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		store:  store,
		memory: utils.NewTTLCache[string, *model.OAuthToken](tokenMemoryTTL),
		states: utils.NewTTLCache[string, bool](stateTTL),
		now:    time.Now,
	}
}

func (s *AuthService) oauthContext(ctx context.Context) context.Context {
	if s.cfg.HTTPClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, s.cfg.HTTPClient)
	}
	return ctx
}

// ==================== 授权流程 ====================

// GenerateConsentURL 生成授权链接，state 短期缓存
func (s *AuthService) GenerateConsentURL() (string, string, error) {
	state, err := utils.GenerateRandomString(16)
	if err != nil {
		return "", "", fmt.Errorf("生成 state 失败: %w", err)
	}
	s.states.Set(state, true)
	return s.oauth.AuthCodeURL(state), state, nil
}

// ExchangeCode 处理回调：校验 state 后用 code 换 token
func (s *AuthService) ExchangeCode(ctx context.Context, code, state string) (*model.OAuthToken, error) {
	if _, ok := s.states.Get(state); !ok {
		return nil, fmt.Errorf("%w: 授权超时或 state 无效，请重新发起", model.ErrValidation)
	}
	s.states.Delete(state)

	tok, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("换取 token 失败: %w", err)
	}

	saved := s.toModel(tok, "")
	if err := s.save(ctx, saved); err != nil {
		return nil, err
	}
	log.Printf("[AuthService] 授权成功，token 有效期至 %s", saved.ExpiresAt.Format(time.RFC3339))
	return saved, nil
}

// ==================== Token ====================

// AccessToken 实现 ebay.TokenProvider
func (s *AuthService) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := s.memory.Get("access"); ok && tok.ValidAt(s.now(), tokenExpiryMargin) {
		return tok.AccessToken, nil
	}

	persisted, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if persisted.ValidAt(s.now(), tokenExpiryMargin) {
		s.remember(persisted)
		return persisted.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, persisted)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh 强制刷新
func (s *AuthService) Refresh(ctx context.Context) (*model.OAuthToken, error) {
	persisted, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, persisted)
}

// Status 当前持久化 token（不含敏感值）
func (s *AuthService) Status(ctx context.Context) (authorized bool, expiresAt time.Time, err error) {
	tok, err := s.load(ctx)
	if err != nil {
		return false, time.Time{}, err
	}
	if tok == nil {
		return s.cfg.RefreshToken != "", time.Time{}, nil
	}
	return tok.RefreshToken != "" || tok.ValidAt(s.now(), 0), tok.ExpiresAt, nil
}

func (s *AuthService) refresh(ctx context.Context, persisted *model.OAuthToken) (*model.OAuthToken, error) {
	refreshToken := s.cfg.RefreshToken
	if persisted != nil && persisted.RefreshToken != "" {
		refreshToken = persisted.RefreshToken
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: 没有 refresh token，请先完成授权", model.ErrValidation)
	}

	src := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		log.Printf("[AuthService] 刷新 token 失败: %v", err)
		return nil, fmt.Errorf("刷新 token 失败: %w", err)
	}

	saved := s.toModel(tok, refreshToken)
	if err := s.save(ctx, saved); err != nil {
		return nil, err
	}
	log.Printf("[AuthService] token 已刷新，有效期至 %s", saved.ExpiresAt.Format(time.RFC3339))
	return saved, nil
}

// ==================== 存取 ====================

func (s *AuthService) toModel(tok *oauth2.Token, fallbackRefresh string) *model.OAuthToken {
	out := &model.OAuthToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    tok.Expiry,
	}
	if out.RefreshToken == "" {
		out.RefreshToken = fallbackRefresh
	}
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = s.now().Add(2 * time.Hour)
	}
	return out
}

// load 没有持久化 token 时返回 nil, nil
func (s *AuthService) load(ctx context.Context) (*model.OAuthToken, error) {
	var tok model.OAuthToken
	err := s.store.Get(ctx, oauthTokenKey, &tok)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取 token 缓存失败: %w", err)
	}
	return &tok, nil
}

func (s *AuthService) save(ctx context.Context, tok *model.OAuthToken) error {
	if err := s.store.Put(ctx, oauthTokenKey, tok); err != nil {
		return fmt.Errorf("保存 token 失败: %w", err)
	}
	s.remember(tok)
	return nil
}

func (s *AuthService) remember(tok *model.OAuthToken) {
	ttl := tok.ExpiresAt.Sub(s.now()) - tokenExpiryMargin
	if ttl > tokenMemoryTTL {
		ttl = tokenMemoryTTL
	}
	if ttl > 0 {
		s.memory.SetWithTTL("access", tok, ttl)
	}
}
