package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// ==================== 配置 ====================

// ImageSourceConfig 商品图片来源
type ImageSourceConfig struct {
	Provider  string // "local" | "s3"
	Dir       string // local: 根目录，图片位于 <Dir>/<sku>/<filename>
	Bucket    string
	Region    string
	Prefix    string // s3: 对象键前缀，图片位于 <Prefix>/<sku>/<filename>
	AccessKey string
	SecretKey string
	Endpoint  string // 兼容 S3 协议的自定义端点（MinIO、COS 等）
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// ==================== 工厂方法 ====================

// NewImageSource 按配置创建图片来源
func NewImageSource(ctx context.Context, cfg *ImageSourceConfig) (ImageSource, error) {
	switch cfg.Provider {
	case "", "local":
		return NewLocalImageSource(cfg.Dir), nil
	case "s3":
		return NewS3ImageSource(ctx, cfg)
	default:
		return nil, fmt.Errorf("不支持的图片来源: %s", cfg.Provider)
	}
}

// ==================== 本地目录 ====================

type LocalImageSource struct {
	dir string
}

func NewLocalImageSource(dir string) *LocalImageSource {
	return &LocalImageSource{dir: dir}
}

func (s *LocalImageSource) List(_ context.Context, sku string) ([]string, error) {
	dir, err := s.resolve(sku, "")
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: SKU %s 的图片目录", model.ErrNotFound, sku)
	}
	if err != nil {
		return nil, fmt.Errorf("读取图片目录失败: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalImageSource) Load(_ context.Context, sku, filename string) (*model.ImageFile, error) {
	p, err := s.resolve(sku, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: 图片 %s/%s", model.ErrNotFound, sku, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("读取图片失败: %w", err)
	}
	return &model.ImageFile{Filename: filename, ContentType: detectContentType(filename, data), Data: data}, nil
}

// resolve 拒绝跳出根目录的路径
func (s *LocalImageSource) resolve(sku, filename string) (string, error) {
	for _, part := range []string{sku, filename} {
		if strings.Contains(part, "..") || strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("%w: 非法路径 %q", model.ErrValidation, part)
		}
	}
	if sku == "" {
		return "", fmt.Errorf("%w: SKU 为空", model.ErrValidation)
	}
	return filepath.Join(s.dir, sku, filename), nil
}

// ==================== S3 实现 ====================

type S3ImageSource struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3ImageSource(ctx context.Context, cfg *ImageSourceConfig) (*S3ImageSource, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("加载AWS配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3ImageSource{client: client, bucket: cfg.Bucket, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *S3ImageSource) key(sku, filename string) string {
	if s.prefix == "" {
		return path.Join(sku, filename)
	}
	return path.Join(s.prefix, sku, filename)
}

func (s *S3ImageSource) List(ctx context.Context, sku string) ([]string, error) {
	prefix := s.key(sku, "") + "/"
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("列出 S3 图片失败: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name != "" && !strings.Contains(name, "/") && imageExts[strings.ToLower(path.Ext(name))] {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *S3ImageSource) Load(ctx context.Context, sku, filename string) (*model.ImageFile, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(sku, filename)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: 图片 %s/%s", model.ErrNotFound, sku, filename)
		}
		return nil, fmt.Errorf("下载 S3 图片失败: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("读取 S3 图片失败: %w", err)
	}
	contentType := aws.ToString(out.ContentType)
	if contentType == "" || contentType == "binary/octet-stream" {
		contentType = detectContentType(filename, data)
	}
	return &model.ImageFile{Filename: filename, ContentType: contentType, Data: data}, nil
}

// ==================== 工具函数 ====================

func detectContentType(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	}
	return http.DetectContentType(data)
}
