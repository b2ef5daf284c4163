package interpreter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nikl/interpreter-go/pkg/runtime"
)

func TestGoroutineExecutorResolvesTask(t *testing.T) {
	exec := NewGoroutineExecutor()
	handle := exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		return runtime.IntValue{Val: 9}, nil
	})
	val, err := exec.Await(testContext(t), handle)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if iv, ok := val.(runtime.IntValue); !ok || iv.Val != 9 {
		t.Fatalf("unexpected value %#v", val)
	}
	if err := exec.Drain(testContext(t)); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if exec.Pending() != 0 {
		t.Fatalf("expected no pending tasks, got %d", exec.Pending())
	}
}

func TestGoroutineExecutorRecoversPanics(t *testing.T) {
	exec := NewGoroutineExecutor()
	handle := exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		panic("boom")
	})
	_, err := exec.Await(testContext(t), handle)
	if !runtime.IsKind(err, runtime.RuntimeError) || !strings.Contains(err.Error(), "task panicked: boom") {
		t.Fatalf("expected recovered panic, got %v", err)
	}
	if handle.Status() != runtime.TaskFailed {
		t.Fatalf("expected failed status, got %s", handle.Status())
	}
}

func TestExecutorExposesCurrentTask(t *testing.T) {
	exec := NewGoroutineExecutor()
	seen := make(chan uint64, 1)
	handle := exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		self, ok := CurrentTask(ctx)
		if !ok {
			return nil, errors.New("no current task")
		}
		seen <- self.ID()
		return runtime.None, nil
	})
	if _, err := exec.Await(testContext(t), handle); err != nil {
		t.Fatalf("await: %v", err)
	}
	if id := <-seen; id != handle.ID() {
		t.Fatalf("expected task id %d, got %d", handle.ID(), id)
	}
}

func TestDrainHonoursContext(t *testing.T) {
	exec := NewGoroutineExecutor()
	release := make(chan struct{})
	exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		<-release
		return runtime.None, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := exec.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if exec.Pending() != 1 {
		t.Fatalf("expected one pending task, got %d", exec.Pending())
	}
	close(release)
	if err := exec.Drain(testContext(t)); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func TestSerialExecutorRunsInSpawnOrder(t *testing.T) {
	exec := NewSerialExecutor()
	defer exec.Close()
	var (
		mu    sync.Mutex
		order []int
	)
	for n := 1; n <= 5; n++ {
		n := n
		exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return runtime.None, nil
		})
	}
	if err := exec.Drain(testContext(t)); err != nil {
		t.Fatalf("drain: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	for idx, n := range order {
		if n != idx+1 {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
	if len(order) != 5 {
		t.Fatalf("expected 5 tasks, got %v", order)
	}
}

func TestSerialExecutorAwaitInsideTaskRunsInline(t *testing.T) {
	exec := NewSerialExecutor()
	defer exec.Close()
	outer := exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		inner := exec.Spawn(context.Background(), func(context.Context) (runtime.Value, error) {
			return runtime.StringValue{Val: "inner"}, nil
		})
		return exec.Await(ctx, inner)
	})
	val, err := exec.Await(testContext(t), outer)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	expectInspect(t, val, `"inner"`)
}

func TestSerialExecutorCloseFailsQueuedTasks(t *testing.T) {
	exec := NewSerialExecutor()
	started := make(chan struct{})
	release := make(chan struct{})
	exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		close(started)
		<-release
		return runtime.None, nil
	})
	<-started
	queued := exec.Spawn(context.Background(), func(ctx context.Context) (runtime.Value, error) {
		return runtime.IntValue{Val: 1}, nil
	})
	exec.Close()
	close(release)
	_, err := queued.Await(testContext(t))
	if err == nil || !strings.Contains(err.Error(), "executor closed") {
		t.Fatalf("expected executor closed failure, got %v", err)
	}
}
