package ebay

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork 网络层失败（连接、读取）
	ErrNetwork = errors.New("ebay: network error")
	// ErrTimeout 请求超时
	ErrTimeout = errors.New("ebay: request timeout")
	// ErrNotFound 资源不存在（分类、模板）
	ErrNotFound = errors.New("ebay: not found")
)

// ProtocolError Ack 不是 Success/Warning，或无法解析的非 2xx 响应
type ProtocolError struct {
	CallName   string
	Ack        string
	HTTPStatus int
	Errors     []ErrorDetail
}

func (e *ProtocolError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s 调用失败 (ack=%s", e.CallName, e.Ack)
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&sb, ", http=%d", e.HTTPStatus)
	}
	sb.WriteString(")")
	for _, d := range e.Errors {
		if strings.EqualFold(d.SeverityCode, "Warning") {
			continue
		}
		msg := d.LongMessage
		if msg == "" {
			msg = d.ShortMessage
		}
		fmt.Fprintf(&sb, ": [%s] %s", d.ErrorCode, msg)
		break
	}
	return sb.String()
}

// FirstMessage 第一条可读错误
func (e *ProtocolError) FirstMessage() string {
	for _, d := range e.Errors {
		if d.LongMessage != "" {
			return d.LongMessage
		}
		if d.ShortMessage != "" {
			return d.ShortMessage
		}
	}
	return e.Error()
}

// wrapTransportError 区分超时与其他网络错误
func wrapTransportError(call string, err error) error {
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, call, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrNetwork, call, err)
}
