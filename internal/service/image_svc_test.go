package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
)

func newImageFixture(t *testing.T, maxImages int) (*ImageService, repository.ProductRecordStore, *fakeUploader) {
	records := repository.NewProductRecordRepository(newTestStore(t))
	images := &fakeImages{files: map[string][]byte{
		"JAL00247/1.jpg": []byte("a"),
		"JAL00247/2.jpg": []byte("b"),
		"JAL00247/3.jpg": []byte("c"),
	}}
	uploader := &fakeUploader{fail: map[string]bool{}}
	return NewImageService(records, images, uploader, maxImages), records, uploader
}

func TestImageService_CachedImagesAreNotUploaded(t *testing.T) {
	svc, records, uploader := newImageFixture(t, 0)
	saveRecord(t, records, &model.ProductRecord{
		SKU: "JAL00247",
		Images: model.ImageSection{Ebay: []model.EbayImage{
			{Filename: "1.jpg", Order: 1, CachedURL: "https://cdn/1"},
			{Filename: "2.jpg", Order: 2, CachedURL: "https://cdn/2"},
		}},
	})

	res, err := svc.UploadImages(context.Background(), "JAL00247", false)
	require.NoError(t, err)
	assert.Empty(t, uploader.calls)
	assert.Equal(t, 2, res.Cached)
	assert.Equal(t, 0, res.Uploaded)
	assert.Equal(t, []string{"https://cdn/1", "https://cdn/2"}, res.URLs)
}

func TestImageService_OrderCapAndWriteBack(t *testing.T) {
	svc, records, uploader := newImageFixture(t, 2)
	saveRecord(t, records, &model.ProductRecord{
		SKU: "JAL00247",
		Images: model.ImageSection{Ebay: []model.EbayImage{
			{Filename: "3.jpg", Order: 3},
			{Filename: "2.jpg", Order: 2},
			{Filename: "1.jpg", Order: 1, CachedURL: "https://cdn/1"},
		}},
	})
	ctx := context.Background()

	res, err := svc.UploadImages(ctx, "JAL00247", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, []string{"JAL00247_2.jpg"}, uploader.calls)
	assert.Equal(t, []string{"https://cdn/1", "https://i.ebayimg.com/JAL00247_2.jpg"}, res.URLs)

	rec, err := records.Get(ctx, "JAL00247")
	require.NoError(t, err)
	assert.Equal(t, "https://i.ebayimg.com/JAL00247_2.jpg", rec.Images.Ebay[1].CachedURL)
	assert.Empty(t, rec.Images.Ebay[0].CachedURL)

	// 强制重新上传
	uploader.calls = nil
	res, err = svc.UploadImages(ctx, "JAL00247", true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Uploaded)
	assert.Len(t, uploader.calls, 2)
}

func TestImageService_FailureShiftsPositions(t *testing.T) {
	svc, records, uploader := newImageFixture(t, 0)
	uploader.fail["JAL00247_1.jpg"] = true
	saveRecord(t, records, &model.ProductRecord{
		SKU: "JAL00247",
		Images: model.ImageSection{Ebay: []model.EbayImage{
			{Filename: "1.jpg", Order: 1},
			{Filename: "2.jpg", Order: 2},
			{Filename: "missing.jpg", Order: 3},
		}},
	})

	res, err := svc.UploadImages(context.Background(), "JAL00247", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Uploaded)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, res.Errors, 2)
	assert.Equal(t, []string{"https://i.ebayimg.com/JAL00247_2.jpg"}, res.URLs)
}

func TestImageService_NoImages(t *testing.T) {
	svc, records, _ := newImageFixture(t, 0)
	saveRecord(t, records, &model.ProductRecord{SKU: "JAL00247"})

	_, err := svc.UploadImages(context.Background(), "JAL00247", false)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
