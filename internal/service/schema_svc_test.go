package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

func newSchemaTestService(t *testing.T, tax *fakeTaxonomy) *SchemaService {
	fees := NewFeeResolver(model.FeeInfo{PaymentFee: 0.35, CommissionPct: 0.10},
		map[string]model.FeeInfo{"EBAY_DE:11450": {PaymentFee: 0.35, CommissionPct: 0.12}})
	return NewSchemaService(newTestStore(t), tax, fees, nil, "EBAY_DE")
}

func TestSchemaService_GetFetchesAndPartitions(t *testing.T) {
	tax := &fakeTaxonomy{
		aspects: map[string][]ebay.Aspect{
			"15709": {
				aspect("Marke", true),
				aspect("Schuhgröße", true, "41", "42"),
				aspect("Stil", false, "Sneaker", "Laufschuh"),
				aspect("Marke", false), // 重名
			},
		},
		names: map[string]string{"15709": "Sneaker"},
	}
	svc := newSchemaTestService(t, tax)
	ctx := context.Background()

	schema, err := svc.Get(ctx, "15709", "")
	require.NoError(t, err)
	assert.Equal(t, "Sneaker", schema.CategoryName)
	assert.Equal(t, "EBAY_DE", schema.Marketplace)
	assert.Equal(t, []string{"Marke", "Schuhgröße"}, specNames(schema.Required))
	assert.Equal(t, []string{"Stil"}, specNames(schema.Optional))
	assert.Equal(t, []string{"41", "42"}, schema.Required[1].AllowedValues)
	assert.Equal(t, 0.10, schema.Fees.CommissionPct)

	// 第二次读取走本地缓存
	_, err = svc.Get(ctx, "15709", "EBAY_DE")
	require.NoError(t, err)
	assert.Equal(t, 1, tax.treeCalls)

	cached, err := svc.Cached(ctx, "15709", "EBAY_DE")
	require.NoError(t, err)
	assert.Equal(t, schema.Required, cached.Required)
}

func TestSchemaService_CategoryFeeOverride(t *testing.T) {
	tax := &fakeTaxonomy{aspects: map[string][]ebay.Aspect{"11450": {aspect("Marke", true)}}}
	svc := newSchemaTestService(t, tax)

	schema, err := svc.Get(context.Background(), "11450", "EBAY_DE")
	require.NoError(t, err)
	assert.Equal(t, 0.12, schema.Fees.CommissionPct)
}

func TestSchemaService_GetUnknownCategory(t *testing.T) {
	svc := newSchemaTestService(t, &fakeTaxonomy{})

	_, err := svc.Get(context.Background(), "999999", "EBAY_DE")
	assert.True(t, errors.Is(err, model.ErrNotFound), "err = %v", err)

	_, err = svc.Get(context.Background(), "  ", "EBAY_DE")
	assert.True(t, errors.Is(err, model.ErrValidation))
}

func TestSchemaService_RefreshContinuesAfterFailure(t *testing.T) {
	tax := &fakeTaxonomy{
		aspects: map[string][]ebay.Aspect{
			"1": {aspect("Marke", true)},
			"3": {aspect("Farbe", true)},
		},
		failures: map[string]error{"2": ebay.ErrTimeout},
	}
	svc := newSchemaTestService(t, tax)
	ctx := context.Background()

	report, err := svc.Refresh(ctx, []string{"1", "2", "3"}, "EBAY_DE", true)
	require.NoError(t, err)
	assert.Equal(t, 3, report.BatchResult.Total)
	assert.Equal(t, 2, report.BatchResult.Succeeded)
	assert.Equal(t, 1, report.BatchResult.Failed)
	assert.True(t, report.BatchResult.PartialFailure())
	assert.Equal(t, 1, tax.treeCalls, "分类树 ID 每个站点只取一次")

	ids, err := svc.CachedIDs(ctx, "EBAY_DE")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "3"}, ids)

	// 不强制时已缓存的分类不再请求
	tax.aspects["1"] = []ebay.Aspect{aspect("Neu", true)}
	report, err = svc.Refresh(ctx, nil, "EBAY_DE", false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.BatchResult.Succeeded)
	s1, _ := svc.Cached(ctx, "1", "EBAY_DE")
	assert.Equal(t, "Marke", s1.Required[0].Name)

	// 强制刷新整体替换
	_, err = svc.Refresh(ctx, []string{"1"}, "EBAY_DE", true)
	require.NoError(t, err)
	s1, _ = svc.Cached(ctx, "1", "EBAY_DE")
	assert.Equal(t, []string{"Neu"}, specNames(s1.Required))
}
