package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
	"github.com/stamat12/ecom-platform-v2-sub000/internal/repository"
	"github.com/stamat12/ecom-platform-v2-sub000/pkg/metrics"
)

// ==================== 配置 ====================

// AIConfig AI 服务配置
type AIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// ErrAINotConfigured 未配置 API Key
var ErrAINotConfigured = errors.New("Gemini API Key 未配置")

// ==================== 服务 ====================

// AIService Gemini 图片/文本补全，返回 JSON 对象
type AIService struct {
	Config      *AIConfig
	client      *genai.Client
	callLogRepo repository.AICallLogRepository
}

// NewAIService 创建 AI 服务；没有 API Key 时调用会返回 ErrAINotConfigured
func NewAIService(ctx context.Context, cfg *AIConfig, callLogRepo repository.AICallLogRepository) (*AIService, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	svc := &AIService{Config: cfg, callLogRepo: callLogRepo}
	if cfg.APIKey == "" {
		log.Printf("[AIService] 未配置 GEMINI_API_KEY，AI 补全不可用")
		return svc, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	svc.client = client
	return svc, nil
}

// Close 释放客户端
func (s *AIService) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// CompleteJSON 实现 VisionCompleter
func (s *AIService) CompleteJSON(ctx context.Context, req *CompletionRequest) (map[string]interface{}, error) {
	if s.client == nil {
		return nil, ErrAINotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.Timeout)
	defer cancel()

	gm := s.client.GenerativeModel(s.Config.Model)
	gm.ResponseMIMEType = "application/json"
	gm.SetTemperature(s.Config.Temperature)

	parts := make([]genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.ImageData(imageFormat(img.ContentType), img.Data))
	}
	parts = append(parts, genai.Text(req.Prompt))

	callLog := &model.AICallLog{
		SKU:        req.SKU,
		Purpose:    req.Purpose,
		CallType:   model.AICallTypeText,
		ModelName:  s.Config.Model,
		ImageCount: len(req.Images),
		Status:     model.AICallStatusSuccess,
	}
	if len(req.Images) > 0 {
		callLog.CallType = model.AICallTypeVision
	}

	start := time.Now()
	resp, err := gm.GenerateContent(ctx, parts...)
	callLog.DurationMs = time.Since(start).Milliseconds()

	var result map[string]interface{}
	if err == nil {
		if resp.UsageMetadata != nil {
			callLog.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			callLog.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		result, err = parseJSONObject(responseText(resp))
	}

	if err != nil {
		callLog.Status = model.AICallStatusFailed
		callLog.ErrorMsg = truncate(err.Error(), 1000)
	} else {
		callLog.ProposedFields = len(result)
	}
	s.saveCallLog(ctx, callLog)
	metrics.RecordAICall(req.Purpose, callLog.Status)

	if err != nil {
		return nil, fmt.Errorf("Gemini 调用失败: %w", err)
	}
	return result, nil
}

func (s *AIService) saveCallLog(ctx context.Context, callLog *model.AICallLog) {
	if s.callLogRepo == nil {
		return
	}
	// 请求可能已超时，日志写入不跟随请求 ctx
	if err := s.callLogRepo.Create(context.WithoutCancel(ctx), callLog); err != nil {
		log.Printf("[AIService] 写入调用日志失败: %v", err)
	}
}

// ==================== 工具函数 ====================

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

// parseJSONObject 去掉 markdown 代码块后解析；单元素数组取第一个对象
func parseJSONObject(text string) (map[string]interface{}, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("无生成结果")
	}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, nil
	}

	var arr []map[string]interface{}
	if err := json.Unmarshal([]byte(text), &arr); err == nil && len(arr) > 0 {
		return arr[0], nil
	}
	return nil, fmt.Errorf("解析 JSON 失败: %s", truncate(text, 200))
}

func imageFormat(contentType string) string {
	format := strings.TrimPrefix(strings.ToLower(contentType), "image/")
	switch format {
	case "", "jpg":
		return "jpeg"
	default:
		return format
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
