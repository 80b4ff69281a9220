package model

// 进度事件状态
const (
	ProgressRunning   = "progress"
	ProgressCompleted = "completed"
	ProgressFailed    = "failed"
)

// ProgressEvent 长任务进度事件
// 最后一定会有一个 completed 或 failed 事件
type ProgressEvent struct {
	Status  string      `json:"status"`
	Current int         `json:"current"`
	Total   int         `json:"total"`
	Count   int         `json:"count"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Terminal 是否终止事件
func (e ProgressEvent) Terminal() bool {
	return e.Status == ProgressCompleted || e.Status == ProgressFailed
}

// ProgressFunc 进度回调，由调用方同步消费
type ProgressFunc func(ProgressEvent)

// Emit 回调为空时忽略
func (f ProgressFunc) Emit(ev ProgressEvent) {
	if f != nil {
		f(ev)
	}
}
