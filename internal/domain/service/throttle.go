package service

import (
	"math"
	"sync"
)

// ThrottlePolicy 通知节流参数（全局配置）
type ThrottlePolicy struct {
	MinChange float64 // 与上次发送价差相比的最小变化（百分点）
	MinValue  float64 // 全局最小价差
}

// Throttle 单个跟踪任务的节流状态
// baseline 始终是最近一次“已发送”的价差，而不是累加值：
// 缓慢单调漂移如果每一步都达不到 MinChange，就永远不会触发通知
type Throttle struct {
	mu       sync.Mutex
	policy   ThrottlePolicy
	baseline *float64
}

func NewThrottle(policy ThrottlePolicy) *Throttle {
	return &Throttle{policy: policy}
}

// Evaluate 判断当前价差是否值得通知，不修改 baseline
// 还没有发送过时总是批准；minSpread 为任务自身的最小价差
func (t *Throttle) Evaluate(current, minSpread float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.baseline == nil {
		return true
	}

	change := math.Abs(current - *t.baseline)
	floor := math.Max(t.policy.MinValue, minSpread)
	return change >= t.policy.MinChange && current >= floor
}

// Commit 通知发送成功后记录 baseline
func (t *Throttle) Commit(sent float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := sent
	t.baseline = &v
}

// Baseline 返回最近一次发送的价差，未发送过时 ok=false
func (t *Throttle) Baseline() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.baseline == nil {
		return 0, false
	}
	return *t.baseline, true
}
