package tracking

import (
	"errors"
	"fmt"
)

// ErrTrackerStopped Start 在 Stop 之后被调用
var ErrTrackerStopped = errors.New("tracker stopped")

// CycleError 一轮更新失败，调度继续
type CycleError struct {
	Key string
	Err error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("tracking %s: %v", e.Key, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }
