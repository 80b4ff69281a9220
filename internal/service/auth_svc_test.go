package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
)

// ==================== 测试辅助 ====================

type tokenServer struct {
	*httptest.Server
	calls     int32
	lastGrant atomic.Value
}

func newTokenServer(t *testing.T) *tokenServer {
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&ts.calls, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = r.ParseForm()
		ts.lastGrant.Store(r.PostForm.Get("grant_type"))

		resp := map[string]interface{}{
			"access_token": "access-" + r.PostForm.Get("grant_type"),
			"token_type":   "User Access Token",
			"expires_in":   7200,
		}
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			if r.PostForm.Get("code") != "good-code" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			resp["refresh_token"] = "refresh-1"
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "revoked" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newAuthTestService(t *testing.T, ts *tokenServer, store kvstore.Store, refreshToken string) *AuthService {
	return NewAuthService(&AuthConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RuName:       "My_App-RuName",
		AuthURL:      ts.URL + "/authorize",
		TokenURL:     ts.URL + "/token",
		Scopes:       []string{"https://api.ebay.com/oauth/api_scope"},
		RefreshToken: refreshToken,
		HTTPClient:   ts.Client(),
	}, store)
}

// ==================== 单元测试 ====================

func TestAuthService_ConsentURLAndExchange(t *testing.T) {
	ts := newTokenServer(t)
	store := newTestStore(t)
	svc := newAuthTestService(t, ts, store, "")
	ctx := context.Background()

	consent, state, err := svc.GenerateConsentURL()
	require.NoError(t, err)
	u, err := url.Parse(consent)
	require.NoError(t, err)
	assert.Equal(t, state, u.Query().Get("state"))
	assert.Equal(t, "My_App-RuName", u.Query().Get("redirect_uri"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))

	_, err = svc.ExchangeCode(ctx, "good-code", "wrong-state")
	assert.True(t, errors.Is(err, model.ErrValidation))

	tok, err := svc.ExchangeCode(ctx, "good-code", state)
	require.NoError(t, err)
	assert.Equal(t, "access-authorization_code", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)

	// state 只能用一次
	_, err = svc.ExchangeCode(ctx, "good-code", state)
	assert.Error(t, err)

	var persisted model.OAuthToken
	require.NoError(t, store.Get(ctx, oauthTokenKey, &persisted))
	assert.Equal(t, "refresh-1", persisted.RefreshToken)
}

func TestAuthService_AccessTokenRefreshesOnceThenCaches(t *testing.T) {
	ts := newTokenServer(t)
	svc := newAuthTestService(t, ts, newTestStore(t), "initial-refresh")
	ctx := context.Background()

	tok, err := svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-refresh_token", tok)
	assert.Equal(t, "refresh_token", ts.lastGrant.Load())

	tok, err = svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-refresh_token", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ts.calls))

	// 刷新响应里没有 refresh_token 时保留原值
	persisted, err := svc.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "initial-refresh", persisted.RefreshToken)
}

func TestAuthService_PersistedTokenSurvivesRestart(t *testing.T) {
	ts := newTokenServer(t)
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, oauthTokenKey, &model.OAuthToken{
		AccessToken: "persisted", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour),
	}))

	svc := newAuthTestService(t, ts, store, "")
	tok, err := svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ts.calls))
}

func TestAuthService_ExpiredTokenIsRefreshed(t *testing.T) {
	ts := newTokenServer(t)
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, oauthTokenKey, &model.OAuthToken{
		AccessToken: "old", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Minute),
	}))

	svc := newAuthTestService(t, ts, store, "")
	tok, err := svc.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-refresh_token", tok)
}

func TestAuthService_NoRefreshToken(t *testing.T) {
	ts := newTokenServer(t)
	svc := newAuthTestService(t, ts, newTestStore(t), "")

	_, err := svc.AccessToken(context.Background())
	assert.True(t, errors.Is(err, model.ErrValidation))

	svc = newAuthTestService(t, ts, newTestStore(t), "revoked")
	_, err = svc.AccessToken(context.Background())
	assert.Error(t, err)
}
