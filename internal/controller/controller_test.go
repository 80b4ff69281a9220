package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/service"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/task"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/kvstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试辅助 ====================

type apiResp struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestStore(t *testing.T) kvstore.Store {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func perform(r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) apiResp {
	t.Helper()
	var resp apiResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func seedListingsCache(t *testing.T, store kvstore.Store, listings ...model.ActiveListing) {
	t.Helper()
	err := store.Put(context.Background(), kvstore.Key("listings", "current"), model.ListingsCache{
		Timestamp: time.Now().UTC(),
		Listings:  listings,
	})
	require.NoError(t, err)
}

func newSyncRouter(t *testing.T, store kvstore.Store) *gin.Engine {
	t.Helper()
	profit := service.NewProfitService(nil, service.NewFeeResolver(model.FeeInfo{PaymentFee: 0.35, CommissionPct: 0.10}, nil), nil, nil, nil)
	syncSvc := service.NewSyncService(&service.SyncConfig{CacheTTL: time.Hour}, store, nil, profit)
	ctl := NewSyncController(syncSvc, profit, task.NewTaskManager(&task.TaskManagerDeps{}, nil))

	r := gin.New()
	r.GET("/listings/active", ctl.ActiveListings)
	r.GET("/listings/active/sku/:sku", ctl.FindBySKU)
	r.GET("/listings/cache", ctl.CacheInfo)
	r.POST("/sync/listings", ctl.TriggerSync)
	r.POST("/profit/calculate", ctl.CalculateProfit)
	return r
}

// ==================== 错误映射 ====================

func TestRespondError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: SKU X", model.ErrNotFound), http.StatusNotFound},
		{model.ErrTitleTooLong, http.StatusBadRequest},
		{&ebay.ProtocolError{CallName: "AddFixedPriceItem", Ack: "Failure"}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}

// ==================== 在售列表 ====================

func TestSyncController_FindBySKU(t *testing.T) {
	store := newTestStore(t)
	seedListingsCache(t, store,
		model.ActiveListing{ItemID: "1", SKU: "JAL00246-JAL00248", Price: 49.99, Marketplace: "EBAY_DE"},
		model.ActiveListing{ItemID: "2", SKU: "JAL00300", Price: 19.99, Marketplace: "EBAY_DE"},
	)
	r := newSyncRouter(t, store)

	w := perform(r, http.MethodGet, "/listings/active/sku/JAL00247", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		List  []model.ActiveListing `json:"list"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	assert.Equal(t, 1, data.Total)
	assert.Equal(t, "1", data.List[0].ItemID)

	w = perform(r, http.MethodGet, "/listings/active/sku/JAL09999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncController_ActiveListingsFromCache(t *testing.T) {
	store := newTestStore(t)
	seedListingsCache(t, store, model.ActiveListing{ItemID: "1", SKU: "A1", Price: 10})
	r := newSyncRouter(t, store)

	w := perform(r, http.MethodGet, "/listings/active?use_cache=true", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view service.ListingsView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	assert.Equal(t, "cache", view.Source)
	assert.Equal(t, 1, view.Count)
}

func TestSyncController_ActiveListingsStream(t *testing.T) {
	store := newTestStore(t)
	seedListingsCache(t, store, model.ActiveListing{ItemID: "1", SKU: "A1", Price: 10})
	r := newSyncRouter(t, store)

	w := perform(r, http.MethodGet, "/listings/active?use_cache=true&stream=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "event:completed")
}

func TestSyncController_CacheInfoMissing(t *testing.T) {
	r := newSyncRouter(t, newTestStore(t))
	w := perform(r, http.MethodGet, "/listings/cache", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncController_TriggerSyncDisabled(t *testing.T) {
	r := newSyncRouter(t, newTestStore(t))
	w := perform(r, http.MethodPost, "/sync/listings", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSyncController_CalculateProfit(t *testing.T) {
	r := newSyncRouter(t, newTestStore(t))
	cost, shipping := 10.0, 9.40

	w := perform(r, http.MethodPost, "/profit/calculate", model.ProfitInput{
		Brutto: 29.99, Marketplace: "EBAY_DE", CostNet: &cost, Shipping: &shipping,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p model.ProfitAnalysis
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &p))
	assert.Equal(t, 2.45, p.NetProfit)

	w = perform(r, http.MethodPost, "/profit/calculate", model.ProfitInput{Brutto: 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==================== 商品记录 ====================

type stubAILogs struct {
	repository.AICallLogRepository
	usage *repository.AIUsageStats
}

func (s *stubAILogs) GetUsageBySKU(ctx context.Context, sku string) (*repository.AIUsageStats, error) {
	return s.usage, nil
}

func TestProductController(t *testing.T) {
	records := repository.NewProductRecordRepository(newTestStore(t))
	require.NoError(t, records.Save(context.Background(), &model.ProductRecord{SKU: "JAL00247"}))
	ctl := NewProductController(records, &stubAILogs{usage: &repository.AIUsageStats{TotalCalls: 3}})

	r := gin.New()
	r.GET("/products", ctl.ListSKUs)
	r.GET("/products/:sku", ctl.GetRecord)
	r.GET("/products/:sku/ai-usage", ctl.AIUsage)
	r.GET("/ai/usage/daily", ctl.DailyAIUsage)

	w := perform(r, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), "JAL00247")

	assert.Equal(t, http.StatusOK, perform(r, http.MethodGet, "/products/JAL00247", nil).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/products/NOPE", nil).Code)

	w = perform(r, http.MethodGet, "/products/JAL00247/ai-usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"total_calls":3`)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodGet, "/ai/usage/daily?days=abc", nil).Code)
}

// ==================== SSE ====================

func TestStreamProgress_StopsAtTerminalEvent(t *testing.T) {
	r := gin.New()
	r.GET("/stream", func(c *gin.Context) {
		streamProgress(c, func(ctx context.Context, onEvent model.ProgressFunc) {
			for i := 1; i <= 3; i++ {
				onEvent.Emit(model.ProgressEvent{Status: model.ProgressRunning, Current: i, Total: 3})
			}
			onEvent.Emit(model.ProgressEvent{Status: model.ProgressCompleted, Current: 3, Total: 3})
			// 终止事件之后的事件不会推送
			onEvent.Emit(model.ProgressEvent{Status: model.ProgressRunning, Message: "late"})
		})
	})

	w := perform(r, http.MethodGet, "/stream", nil)
	body := w.Body.String()
	assert.Equal(t, 3, strings.Count(body, "event:progress"))
	assert.Equal(t, 1, strings.Count(body, "event:completed"))
	assert.NotContains(t, body, "late")
}
