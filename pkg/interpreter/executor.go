package interpreter

import (
	"context"
	"sync"
	"sync/atomic"

	"nikl/interpreter-go/pkg/runtime"
)

// TaskFunc is one unit of script work run by an Executor.
type TaskFunc func(ctx context.Context) (runtime.Value, error)

// Executor abstracts the scheduling strategy behind spawn and wait.
type Executor interface {
	// Spawn schedules task and returns its handle without waiting.
	Spawn(ctx context.Context, task TaskFunc) *runtime.TaskHandle
	// Await blocks until handle completes or ctx is done.
	Await(ctx context.Context, handle *runtime.TaskHandle) (runtime.Value, error)
	// Drain blocks until no task is pending.
	Drain(ctx context.Context) error
	Pending() int
}

type executorBase struct {
	ids atomic.Uint64
}

func (b *executorBase) newHandle() *runtime.TaskHandle {
	return runtime.NewTaskHandle(b.ids.Add(1))
}

type currentTaskKey struct{}

// CurrentTask returns the handle of the task running under ctx, if any.
func CurrentTask(ctx context.Context) (*runtime.TaskHandle, bool) {
	handle, ok := ctx.Value(currentTaskKey{}).(*runtime.TaskHandle)
	return handle, ok
}

func (b *executorBase) safeInvoke(ctx context.Context, handle *runtime.TaskHandle, task TaskFunc) (result runtime.Value, err error) {
	ctx = context.WithValue(ctx, currentTaskKey{}, handle)
	defer func() {
		if r := recover(); r != nil {
			err = runtime.RuntimeErrorf("task panicked: %v", r)
		}
	}()
	return task(ctx)
}

func (b *executorBase) applyOutcome(handle *runtime.TaskHandle, result runtime.Value, err error) {
	if err != nil {
		handle.Fail(err)
		return
	}
	handle.Resolve(result)
}

// GoroutineExecutor runs every task on its own goroutine.
type GoroutineExecutor struct {
	executorBase
	wg      sync.WaitGroup
	pending atomic.Int64
}

func NewGoroutineExecutor() *GoroutineExecutor {
	return &GoroutineExecutor{}
}

func (e *GoroutineExecutor) Spawn(ctx context.Context, task TaskFunc) *runtime.TaskHandle {
	handle := e.newHandle()
	e.pending.Add(1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.pending.Add(-1)
		result, err := e.safeInvoke(ctx, handle, task)
		e.applyOutcome(handle, result, err)
	}()
	return handle
}

func (e *GoroutineExecutor) Await(ctx context.Context, handle *runtime.TaskHandle) (runtime.Value, error) {
	return handle.Await(ctx)
}

func (e *GoroutineExecutor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *GoroutineExecutor) Pending() int {
	if n := e.pending.Load(); n > 0 {
		return int(n)
	}
	return 0
}

type serialTask struct {
	handle *runtime.TaskHandle
	ctx    context.Context
	task   TaskFunc
}

type serialKey struct{}

// SerialExecutor runs tasks one at a time on a single worker goroutine, in
// spawn order. Waiting on a queued task from inside another task runs it
// inline, so a program never deadlocks on its own children.
type SerialExecutor struct {
	executorBase

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []serialTask
	running int
	closed  bool
}

func NewSerialExecutor() *SerialExecutor {
	exec := &SerialExecutor{}
	exec.cond = sync.NewCond(&exec.mu)
	go exec.loop()
	return exec
}

func (e *SerialExecutor) Spawn(ctx context.Context, task TaskFunc) *runtime.TaskHandle {
	handle := e.newHandle()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		handle.Fail(runtime.RuntimeErrorf("executor closed"))
		return handle
	}
	e.queue = append(e.queue, serialTask{handle: handle, ctx: ctx, task: task})
	e.cond.Broadcast()
	return handle
}

func (e *SerialExecutor) Await(ctx context.Context, handle *runtime.TaskHandle) (runtime.Value, error) {
	if ctx.Value(serialKey{}) == e {
		if task, ok := e.steal(handle); ok {
			e.execute(task)
		}
	}
	return handle.Await(ctx)
}

func (e *SerialExecutor) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.mu.Lock()
		for (len(e.queue) > 0 || e.running > 0) && !e.closed {
			e.cond.Wait()
		}
		e.mu.Unlock()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *SerialExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue) + e.running
}

// Close stops the worker. Queued tasks fail with a RuntimeError.
func (e *SerialExecutor) Close() {
	e.mu.Lock()
	e.closed = true
	queued := e.queue
	e.queue = nil
	e.cond.Broadcast()
	e.mu.Unlock()
	for _, task := range queued {
		task.handle.Fail(runtime.RuntimeErrorf("executor closed"))
	}
}

func (e *SerialExecutor) loop() {
	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		task := e.queue[0]
		e.queue = e.queue[1:]
		e.running++
		e.mu.Unlock()

		e.execute(task)
	}
}

func (e *SerialExecutor) steal(handle *runtime.TaskHandle) (serialTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for idx, task := range e.queue {
		if task.handle == handle {
			e.queue = append(e.queue[:idx], e.queue[idx+1:]...)
			e.running++
			return task, true
		}
	}
	return serialTask{}, false
}

func (e *SerialExecutor) execute(task serialTask) {
	ctx := context.WithValue(task.ctx, serialKey{}, e)
	result, err := e.safeInvoke(ctx, task.handle, task.task)
	e.applyOutcome(task.handle, result, err)
	e.mu.Lock()
	e.running--
	e.cond.Broadcast()
	e.mu.Unlock()
}
