package model

import (
	"errors"
	"fmt"
)

// ==================== 领域错误 ====================

var (
	// ErrNotFound 记录、分类模板或图片不存在
	ErrNotFound = errors.New("not found")
	// ErrValidation 数据校验失败
	ErrValidation = errors.New("validation failed")

	ErrTitleTooLong = fmt.Errorf("%w: 标题超过 %d 字符", ErrValidation, MaxTitleLength)
	ErrNoMainImages = fmt.Errorf("%w: 没有主图", ErrNotFound)
)

// MaxTitleLength 标题最大长度（字符数）
const MaxTitleLength = 80

// ==================== 批量结果 ====================

// BatchItemResult 批量操作单项结果
type BatchItemResult struct {
	Key     string      `json:"key"`
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BatchResult 批量操作汇总，单项失败不会中断整批
type BatchResult struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Items     []BatchItemResult `json:"items"`
}

// Add 追加一项结果
func (r *BatchResult) Add(key string, data interface{}, err error) {
	item := BatchItemResult{Key: key, Success: err == nil, Data: data}
	if err != nil {
		item.Error = err.Error()
		r.Failed++
	} else {
		r.Succeeded++
	}
	r.Total++
	r.Items = append(r.Items, item)
}

// PartialFailure 是否部分失败
func (r *BatchResult) PartialFailure() bool {
	return r.Failed > 0 && r.Succeeded > 0
}
