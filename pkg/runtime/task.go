package runtime

import (
	"context"
	"sync"
)

// TaskStatus represents the lifecycle state of a spawned task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskResolved
	TaskFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskResolved:
		return "resolved"
	case TaskFailed:
		return "failed"
	default:
		return "pending"
	}
}

// TaskHandle is a once-written result cell plus a completion signal. It is the
// Task value scripts hold.
type TaskHandle struct {
	id uint64

	mu     sync.Mutex
	status TaskStatus
	result Value
	err    error
	done   chan struct{}
}

func NewTaskHandle(id uint64) *TaskHandle {
	return &TaskHandle{id: id, done: make(chan struct{})}
}

func (*TaskHandle) Kind() Kind { return KindTask }
func (*TaskHandle) value()     {}

func (h *TaskHandle) ID() uint64 { return h.id }

func (h *TaskHandle) Status() TaskStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Done is closed once the task resolves or fails.
func (h *TaskHandle) Done() <-chan struct{} { return h.done }

// Resolve stores the result. Only the first completion is recorded.
func (h *TaskHandle) Resolve(val Value) bool {
	if val == nil {
		val = None
	}
	return h.complete(TaskResolved, val, nil)
}

// Fail records a failure. Only the first completion is recorded.
func (h *TaskHandle) Fail(err error) bool {
	return h.complete(TaskFailed, nil, err)
}

func (h *TaskHandle) complete(status TaskStatus, val Value, err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status != TaskPending {
		return false
	}
	h.status = status
	h.result = val
	h.err = err
	close(h.done)
	return true
}

// Await blocks until the task completes or ctx is done. Once completed it
// returns the same outcome on every call.
func (h *TaskHandle) Await(ctx context.Context) (Value, error) {
	select {
	case <-h.done:
	default:
		select {
		case <-h.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Outcome returns the recorded result without blocking.
func (h *TaskHandle) Outcome() (Value, error, TaskStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err, h.status
}
