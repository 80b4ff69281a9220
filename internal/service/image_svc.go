package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
)

// ImageService 上架图片托管：已上传的图片复用缓存地址
type ImageService struct {
	records   repository.ProductRecordStore
	images    ImageSource
	uploader  PictureUploader
	maxImages int
}

// NewImageService 创建图片上传服务
func NewImageService(records repository.ProductRecordStore, images ImageSource, uploader PictureUploader, maxImages int) *ImageService {
	if maxImages <= 0 {
		maxImages = 24
	}
	return &ImageService{records: records, images: images, uploader: uploader, maxImages: maxImages}
}

// UploadImages 上传 SKU 的上架图片，返回按顺序排列的托管地址
// 单张失败只记录并跳过，后续图片在 URLs 中的位置会前移
func (s *ImageService) UploadImages(ctx context.Context, sku string, force bool) (*model.ImageUploadResult, error) {
	rec, err := s.records.Get(ctx, sku)
	if err != nil {
		return nil, err
	}
	if len(rec.Images.Ebay) == 0 {
		return nil, fmt.Errorf("%w: SKU %s 没有上架图片", model.ErrNotFound, sku)
	}

	entries := make([]model.EbayImage, len(rec.Images.Ebay))
	copy(entries, rec.Images.Ebay)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Order < entries[j].Order })
	if len(entries) > s.maxImages {
		log.Printf("[ImageService] SKU %s 图片 %d 张，只取前 %d 张", sku, len(entries), s.maxImages)
		entries = entries[:s.maxImages]
	}

	result := &model.ImageUploadResult{SKU: sku, Total: len(entries)}
	uploaded := make(map[string]string)

	for _, entry := range entries {
		if entry.CachedURL != "" && !force {
			metrics.RecordCacheLookup("picture", true)
			result.Cached++
			result.URLs = append(result.URLs, entry.CachedURL)
			continue
		}
		metrics.RecordCacheLookup("picture", false)

		url, err := s.uploadOne(ctx, sku, entry.Filename)
		if err != nil {
			log.Printf("[ImageService] SKU %s 图片 %s 上传失败: %v", sku, entry.Filename, err)
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Filename, err))
			continue
		}
		uploaded[entry.Filename] = url
		result.Uploaded++
		result.URLs = append(result.URLs, url)
	}

	if result.Uploaded > 0 {
		for i := range rec.Images.Ebay {
			if url, ok := uploaded[rec.Images.Ebay[i].Filename]; ok {
				rec.Images.Ebay[i].CachedURL = url
			}
		}
		if err := s.records.Save(ctx, rec); err != nil {
			return result, fmt.Errorf("保存 SKU %s 图片地址失败: %w", sku, err)
		}
	}

	log.Printf("[ImageService] SKU %s 图片完成 上传=%d 缓存=%d 失败=%d",
		sku, result.Uploaded, result.Cached, result.Failed)
	return result, nil
}

func (s *ImageService) uploadOne(ctx context.Context, sku, filename string) (string, error) {
	img, err := s.images.Load(ctx, sku, filename)
	if err != nil {
		return "", err
	}
	return s.uploader.UploadPicture(ctx, sku+"_"+filename, img.Data)
}
