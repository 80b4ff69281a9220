package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
)

type enrichFixture struct {
	svc     *EnrichService
	records repository.ProductRecordStore
	vision  *fakeVision
}

func newEnrichFixture(t *testing.T, respond func(req *CompletionRequest) (map[string]interface{}, error)) *enrichFixture {
	records := repository.NewProductRecordRepository(newTestStore(t))
	vision := &fakeVision{respond: respond}
	images := &fakeImages{files: map[string][]byte{
		"JAL00247/front.jpg": []byte("jpeg-front"),
		"JAL00247/side.jpg":  []byte("jpeg-side"),
	}}
	schemas := &fakeSchemas{schemas: map[string]*model.CategorySchema{"15709": sneakerSchema()}}
	svc := NewEnrichService(&EnrichConfig{}, records, schemas, vision, images)
	return &enrichFixture{svc: svc, records: records, vision: vision}
}

func sneakerRecord() *model.ProductRecord {
	return &model.ProductRecord{
		SKU:      "JAL00247",
		Category: model.CategorySection{ID: "15709", Name: "Sneaker", Marketplace: "EBAY_DE"},
		Images:   model.ImageSection{Main: []string{"front.jpg", "side.jpg"}},
		Internal: model.InternalAttributes{Brand: "Nike", Color: "Schwarz", Size: "42"},
		Generated: model.GeneratedSection{
			Required: map[string]string{"Marke": "Nike"},
		},
	}
}

func attributeAnswer(req *CompletionRequest) (map[string]interface{}, error) {
	if req.Purpose == model.AIPurposeSEO {
		return map[string]interface{}{
			"product_type": "Sneaker", "product_model": "Air Max 90",
			"keyword_1": "Laufschuh", "keyword_2": "Retro", "keyword_3": "",
		}, nil
	}
	return map[string]interface{}{
		"attributes": map[string]interface{}{
			"Marke":        "Adidas", // 已有值，不应覆盖
			"schuhgröße":   42.0,
			"Farbe":        "Schwarz",
			"Obermaterial": []interface{}{"Leder", "Textil"},
			"Unbekannt":    "x",
		},
	}, nil
}

func TestEnrichService_FillsOnlyEmptyFields(t *testing.T) {
	f := newEnrichFixture(t, attributeAnswer)
	saveRecord(t, f.records, sneakerRecord())
	ctx := context.Background()

	res, err := f.svc.Enrich(ctx, "JAL00247", false)
	require.NoError(t, err)

	assert.Equal(t, "Nike", res.Required["Marke"])
	assert.Equal(t, "42", res.Required["Schuhgröße"])
	assert.Equal(t, "Schwarz", res.Required["Farbe"])
	assert.Equal(t, "Leder, Textil", res.Optional["Obermaterial"])
	assert.Equal(t, "", res.Optional["Stil"])
	assert.NotContains(t, res.Optional, "Unbekannt")
	assert.Empty(t, res.MissingRequired)
	assert.Equal(t, 3, res.UpdatedFields)

	require.NotNil(t, res.SEO)
	assert.Equal(t, "vision", res.SEO.Source)
	assert.Equal(t, 4, res.SEO.UpdatedFields)

	saved, err := f.records.Get(ctx, "JAL00247")
	require.NoError(t, err)
	assert.Equal(t, "42", saved.Generated.Required["Schuhgröße"])
	assert.Equal(t, "Air Max 90", saved.SEO.ProductModel)

	call := f.vision.calls[0]
	assert.Len(t, call.Images, 2)
	assert.Contains(t, call.Prompt, "Schuhgröße (erlaubt: 41, 42, 43)")
}

func TestEnrichService_SecondRunIsNoop(t *testing.T) {
	f := newEnrichFixture(t, func(req *CompletionRequest) (map[string]interface{}, error) {
		if req.Purpose == model.AIPurposeSEO {
			return map[string]interface{}{
				"product_type": "Sneaker", "product_model": "Air Max",
				"keyword_1": "a", "keyword_2": "b", "keyword_3": "c",
			}, nil
		}
		return map[string]interface{}{
			"Schuhgröße": "42", "Farbe": "Schwarz", "Obermaterial": "Leder", "Stil": "Sneaker",
		}, nil
	})
	saveRecord(t, f.records, sneakerRecord())
	ctx := context.Background()

	_, err := f.svc.Enrich(ctx, "JAL00247", false)
	require.NoError(t, err)
	first, _ := f.records.Get(ctx, "JAL00247")

	res, err := f.svc.Enrich(ctx, "JAL00247", false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Equal(t, 0, res.UpdatedFields)
	assert.Equal(t, "skipped", res.SEO.Source)
	assert.Equal(t, 1, f.vision.callsFor(model.AIPurposeAttributes), "全部填满后不再调用 AI")

	second, _ := f.records.Get(ctx, "JAL00247")
	assert.Equal(t, first.Generated, second.Generated)
	assert.Equal(t, first.SEO, second.SEO)
}

func TestEnrichService_ForceOverwritesOnlyWithNonEmpty(t *testing.T) {
	f := newEnrichFixture(t, func(req *CompletionRequest) (map[string]interface{}, error) {
		return map[string]interface{}{"Marke": "Adidas", "Farbe": ""}, nil
	})
	rec := sneakerRecord()
	rec.Generated.Required["Farbe"] = "Weiß"
	saveRecord(t, f.records, rec)

	res, err := f.svc.Enrich(context.Background(), "JAL00247", true)
	require.NoError(t, err)
	assert.Equal(t, "Adidas", res.Required["Marke"])
	assert.Equal(t, "Weiß", res.Required["Farbe"])
	assert.Contains(t, res.MissingRequired, "Schuhgröße")
}

func TestEnrichService_NoMainImages(t *testing.T) {
	f := newEnrichFixture(t, attributeAnswer)
	rec := sneakerRecord()
	rec.Images.Main = nil
	saveRecord(t, f.records, rec)

	_, err := f.svc.Enrich(context.Background(), "JAL00247", false)
	assert.True(t, errors.Is(err, model.ErrNoMainImages), "err = %v", err)
	assert.Empty(t, f.vision.calls)
}

func TestEnrichService_SEOTextFallbackOnNoopPath(t *testing.T) {
	f := newEnrichFixture(t, func(req *CompletionRequest) (map[string]interface{}, error) {
		return map[string]interface{}{"product_type": "Sneaker", "keyword_1": "Retro"}, nil
	})
	rec := sneakerRecord()
	rec.Images.Main = nil
	rec.Generated.Required = map[string]string{"Marke": "Nike", "Schuhgröße": "42", "Farbe": "Schwarz"}
	rec.Generated.Optional = map[string]string{"Obermaterial": "Leder", "Stil": "Sneaker"}
	saveRecord(t, f.records, rec)

	res, err := f.svc.Enrich(context.Background(), "JAL00247", false)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	require.NotNil(t, res.SEO)
	assert.Equal(t, "text", res.SEO.Source)
	assert.Equal(t, 2, res.SEO.UpdatedFields)

	call := f.vision.calls[0]
	assert.Empty(t, call.Images)
	assert.True(t, strings.Contains(call.Prompt, "Nike Sneaker Schwarz Größe 42"), call.Prompt)
}

func TestEnrichService_SEOFailureIsWarning(t *testing.T) {
	f := newEnrichFixture(t, func(req *CompletionRequest) (map[string]interface{}, error) {
		if req.Purpose == model.AIPurposeSEO {
			return nil, errors.New("quota exceeded")
		}
		return map[string]interface{}{"Farbe": "Schwarz"}, nil
	})
	saveRecord(t, f.records, sneakerRecord())

	res, err := f.svc.Enrich(context.Background(), "JAL00247", false)
	require.NoError(t, err)
	assert.Nil(t, res.SEO)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "quota exceeded")

	saved, _ := f.records.Get(context.Background(), "JAL00247")
	assert.Equal(t, "Schwarz", saved.Generated.Required["Farbe"])
}

func TestEnrichService_BatchReportsPerItem(t *testing.T) {
	f := newEnrichFixture(t, attributeAnswer)
	saveRecord(t, f.records, sneakerRecord())

	var events []model.ProgressEvent
	batch := f.svc.EnrichBatch(context.Background(), []string{"JAL00247", "MISSING"}, false,
		func(ev model.ProgressEvent) { events = append(events, ev) })

	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.False(t, batch.Items[1].Success)

	require.Len(t, events, 3)
	assert.Equal(t, model.ProgressRunning, events[0].Status)
	assert.True(t, events[2].Terminal())
	assert.Equal(t, model.ProgressCompleted, events[2].Status)
}

func TestMergeFillEmpty(t *testing.T) {
	current := map[string]string{"A": "1", "B": "", "Keep": "x"}
	proposed := map[string]string{"a": "9", "b": "2", "C": "3"}

	merged, changed := mergeFillEmpty(current, []string{"A", "B", "C", "D"}, proposed, false)
	assert.Equal(t, map[string]string{"A": "1", "B": "2", "C": "3", "D": ""}, merged)
	assert.Equal(t, 2, changed)
	assert.Equal(t, "", current["B"], "原 map 不应被修改")
}

func TestPlaceSection(t *testing.T) {
	section := map[string]string{"Farbe": "", "Extra": "x"}
	own := map[string]string{"Marke": "Nike"}
	other := map[string]string{"Farbe": "Rot"}

	assert.Equal(t, map[string]string{"Marke": "Nike", "Extra": "x"}, placeSection(section, own, other))
}

// 分类模板把选填属性改成必填后，选填分段里的已有值仍然算已填
func TestEnrichService_ExistingValueInOtherSection(t *testing.T) {
	answer := func(req *CompletionRequest) (map[string]interface{}, error) {
		if req.Purpose == model.AIPurposeSEO {
			return map[string]interface{}{}, nil
		}
		return map[string]interface{}{"Farbe": "Schwarz", "Schuhgröße": "42"}, nil
	}
	f := newEnrichFixture(t, answer)
	rec := sneakerRecord()
	rec.Generated.Optional = map[string]string{"Farbe": "Rot"}
	saveRecord(t, f.records, rec)
	ctx := context.Background()

	res, err := f.svc.Enrich(ctx, "JAL00247", false)
	require.NoError(t, err)
	assert.Equal(t, "Rot", res.Required["Farbe"])
	assert.NotContains(t, res.Optional, "Farbe")
	assert.Equal(t, 1, res.UpdatedFields, "只有 Schuhgröße 是新填的")
	assert.Empty(t, res.MissingRequired)

	saved, err := f.records.Get(ctx, "JAL00247")
	require.NoError(t, err)
	assert.Equal(t, "Rot", saved.CurrentValues()["Farbe"])
	assert.Equal(t, "Rot", saved.Generated.Required["Farbe"])
}

func TestEnrichService_MissingRequiredUsesFlatValues(t *testing.T) {
	f := newEnrichFixture(t, func(req *CompletionRequest) (map[string]interface{}, error) {
		return map[string]interface{}{}, nil
	})
	rec := sneakerRecord()
	rec.Generated.Optional = map[string]string{"Farbe": "Rot"}
	saveRecord(t, f.records, rec)

	res, err := f.svc.Enrich(context.Background(), "JAL00247", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"Schuhgröße"}, res.MissingRequired)
	assert.Equal(t, 0, res.UpdatedFields)
}
