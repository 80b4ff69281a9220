package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/ebay"
)

func TestBuildTitle(t *testing.T) {
	long := strings.Repeat("x", 60)

	tests := []struct {
		name                         string
		brand, keywords, color, size string
		want                         string
		wantErr                      bool
	}{
		{"完整", "Nike", "Air Max 90", "Schwarz", "42", "Nike Air Max 90, Schwarz, Größe 42", false},
		{"无颜色", "Nike", "Air Max 90", "", "42", "Nike Air Max 90, Größe 42", false},
		{"无尺码", "Nike", "Air Max 90", "Schwarz", "", "Nike Air Max 90, Schwarz", false},
		{"去掉 Größe", "Nike", long, "Schwarz", "42", "Nike " + long + ", Schwarz, 42", false},
		{"仍然超长", "Nike", long + " Extra Lang", "Dunkelblau", "42", "", true},
		{"无尺码超长", "Nike", long + long, "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildTitle(tt.brand, tt.keywords, tt.color, tt.size)
			if tt.wantErr {
				assert.True(t, errors.Is(err, model.ErrTitleTooLong), "err = %v", err)
				assert.True(t, errors.Is(err, model.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, utf8.RuneCountInString(got), model.MaxTitleLength)
		})
	}
}

func TestMapCondition(t *testing.T) {
	assert.Equal(t, 1000, MapCondition("Neu mit Karton"))
	assert.Equal(t, 3000, MapCondition("Gebraucht"))
	assert.Equal(t, 3000, MapCondition("  GEBRAUCHT "))
	assert.Equal(t, 1500, MapCondition("neu ohne Etikett"))
	assert.Equal(t, 1000, MapCondition("unknown-label"))
	assert.Equal(t, 1000, MapCondition(""))
}

func TestBuildDescription_EscapesAndOmitsEmpty(t *testing.T) {
	rec := &model.ProductRecord{
		Condition: "Neu mit Karton",
		Internal: model.InternalAttributes{
			Brand: "Nike", Size: "42", Notes: "<b>kaum getragen</b>",
		},
	}
	html, err := BuildDescription(rec, "Nike Air Max 90")
	require.NoError(t, err)

	assert.Contains(t, html, "Zustand: Neu mit Karton")
	assert.Contains(t, html, "Größe: 42")
	assert.Contains(t, html, "&lt;b&gt;kaum getragen&lt;/b&gt;")
	assert.NotContains(t, html, "Farbe:")
	assert.NotContains(t, html, "Material:")
	assert.Less(t, strings.Index(html, "Zustand"), strings.Index(html, "Marke"))
}

type listingFixture struct {
	svc       *ListingService
	records   repository.ProductRecordStore
	submitter *fakeSubmitter
	uploader  *fakeUploader
}

func newListingFixture(t *testing.T, manufacturer *model.ManufacturerInfo) *listingFixture {
	store := newTestStore(t)
	records := repository.NewProductRecordRepository(store)
	images := &fakeImages{files: map[string][]byte{"JAL00247/1.jpg": []byte("a")}}
	uploader := &fakeUploader{fail: map[string]bool{}}
	schemas := &fakeSchemas{schemas: map[string]*model.CategorySchema{"15709": sneakerSchema()}}
	submitter := &fakeSubmitter{}

	svc := NewListingService(&ListingConfig{
		Location:       "Berlin",
		BestOffer:      true,
		ScheduleDays:   3,
		ShippingPolicy: "DHL Paket",
	}, records, schemas, NewImageService(records, images, uploader, 24), submitter,
		&fakeManufacturers{info: manufacturer}, store)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }

	rec := sneakerRecord()
	rec.Condition = "Gebraucht"
	rec.Images.Ebay = []model.EbayImage{{Filename: "1.jpg", Order: 1}}
	rec.SEO = model.SEOSection{ProductModel: "Air Max 90"}
	rec.Generated.Required["Farbe"] = "Schwarz"
	rec.Generated.Optional = map[string]string{"Stil": "Sneaker", "Extra": "Wert"}
	saveRecord(t, records, rec)

	return &listingFixture{svc: svc, records: records, submitter: submitter, uploader: uploader}
}

func TestListingService_SubmitSuccess(t *testing.T) {
	f := newListingFixture(t, &model.ManufacturerInfo{
		CompanyName: "Nike Europe", Street: "Colosseum 1", City: "Hilversum", PostalCode: "1213 NL", Country: "NL",
	})
	f.submitter.result = &ebay.AddItemResult{
		ItemID: "123456789", Ack: ebay.AckWarning,
		Warnings: []ebay.ErrorDetail{{ErrorCode: "21917091", ShortMessage: "Requested StartPrice is low"}},
	}
	ctx := context.Background()

	res, err := f.svc.Submit(ctx, &SubmitRequest{SKU: "JAL00247", Price: 49.9})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "123456789", res.ItemID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "21917091", res.Warnings[0].Code)

	require.Len(t, f.submitter.items, 1)
	item := f.submitter.items[0]
	assert.Equal(t, "Nike Air Max 90, Schwarz, Größe 42", item.Title)
	assert.Equal(t, 3000, item.ConditionID)
	assert.Equal(t, "49.90", item.StartPrice.Value)
	assert.Equal(t, "2026-03-04T10:00:00.000Z", item.ScheduleTime)
	assert.Equal(t, []string{"https://i.ebayimg.com/JAL00247_1.jpg"}, item.PictureDetails.PictureURL)
	assert.True(t, item.BestOfferDetails.BestOfferEnabled)
	assert.Equal(t, "DHL Paket", item.SellerProfiles.SellerShippingProfile.ShippingProfileName)
	assert.Nil(t, item.SellerProfiles.SellerReturnProfile)
	require.NotNil(t, item.Regulatory)
	assert.Equal(t, "Hilversum", item.Regulatory.Manufacturer.CityName)

	var names []string
	for _, nv := range item.ItemSpecifics.NameValueList {
		names = append(names, nv.Name)
	}
	assert.Equal(t, []string{"Marke", "Farbe", "Stil", "Extra"}, names, "空值不输出，模板外属性排在最后")

	rec, err := f.records.Get(ctx, "JAL00247")
	require.NoError(t, err)
	assert.Equal(t, "123456789", rec.Marketplace.ItemID)
	assert.Equal(t, 49.9, rec.Marketplace.Price)
}

func TestListingService_IncompleteManufacturerOmitted(t *testing.T) {
	f := newListingFixture(t, &model.ManufacturerInfo{CompanyName: "Nike", City: "Hilversum"})

	_, err := f.svc.Submit(context.Background(), &SubmitRequest{SKU: "JAL00247", Price: 20})
	require.NoError(t, err)
	assert.Nil(t, f.submitter.items[0].Regulatory)
}

func TestListingService_ProtocolFailure(t *testing.T) {
	f := newListingFixture(t, nil)
	f.submitter.err = &ebay.ProtocolError{
		CallName: ebay.CallAddFixedPriceItem, Ack: ebay.AckFailure,
		Errors: []ebay.ErrorDetail{{ErrorCode: "240", ShortMessage: "Invalid category", SeverityCode: "Error"}},
	}

	res, err := f.svc.Submit(context.Background(), &SubmitRequest{SKU: "JAL00247", Price: 20})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Equal(t, "240", res.Errors[0].Code)

	rec, _ := f.records.Get(context.Background(), "JAL00247")
	assert.Empty(t, rec.Marketplace.ItemID)
}

func TestListingService_DescriptionCache(t *testing.T) {
	f := newListingFixture(t, nil)
	ctx := context.Background()
	rec, _ := f.records.Get(ctx, "JAL00247")

	first, err := f.svc.Description(ctx, rec, "Titel", false)
	require.NoError(t, err)

	rec.Internal.Notes = "neue Notiz"
	cached, err := f.svc.Description(ctx, rec, "Titel", false)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	fresh, err := f.svc.Description(ctx, rec, "Titel", true)
	require.NoError(t, err)
	assert.Contains(t, fresh, "neue Notiz")
}

func TestListingService_SubmitBatch(t *testing.T) {
	f := newListingFixture(t, nil)

	var last model.ProgressEvent
	batch := f.svc.SubmitBatch(context.Background(), []*SubmitRequest{
		{SKU: "JAL00247", Price: 20},
		{SKU: "JAL00247", Price: 0},
	}, func(ev model.ProgressEvent) { last = ev })

	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, model.ProgressCompleted, last.Status)
	// 价格为 0 在上传图片之前就被拒绝
	assert.Len(t, f.uploader.calls, 1)
}
