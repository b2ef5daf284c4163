package interpreter

import (
	"context"
	"time"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/runtime"
)

// taskState is per unit of work. It is only touched by the goroutine running
// that unit, so it needs no lock.
type taskState struct {
	depth int
}

type taskStateKey struct{}

func withTaskState(ctx context.Context) context.Context {
	return context.WithValue(ctx, taskStateKey{}, &taskState{})
}

func taskStateFrom(ctx context.Context) *taskState {
	state, _ := ctx.Value(taskStateKey{}).(*taskState)
	return state
}

func (i *Interpreter) evaluateSpawn(ctx context.Context, expr *ast.SpawnExpression, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluateExpression(ctx, expr.Call.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evaluateList(ctx, expr.Call.Arguments, env)
	if err != nil {
		return nil, err
	}
	switch callee.(type) {
	case *runtime.FunctionValue, *runtime.NativeFunctionValue:
	default:
		return nil, locate(runtime.TypeErrorf("cannot spawn %s", callee.Kind()), expr.Call.Callee)
	}
	call := expr.Call
	handle := i.executor.Spawn(i.ctx, func(taskCtx context.Context) (runtime.Value, error) {
		var id uint64
		if self, ok := CurrentTask(taskCtx); ok {
			id = self.ID()
		}
		val, err := i.callValue(withTaskState(taskCtx), callee, args, env)
		if err != nil {
			err = locate(err, call)
			i.logger.Debug("task failed", "task", id, "error", err)
			return nil, err
		}
		i.logger.Debug("task resolved", "task", id)
		return val, nil
	})
	i.logger.Debug("task spawned", "task", handle.ID(), "callee", calleeName(callee))
	return handle, nil
}

func calleeName(callee runtime.Value) string {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		if fn.Name != "" {
			return fn.Name
		}
		return "anonymous"
	case *runtime.NativeFunctionValue:
		return fn.Name
	}
	return callee.Kind().String()
}

func (i *Interpreter) evaluateWait(ctx context.Context, expr *ast.WaitExpression, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(ctx, expr.Task, env)
	if err != nil {
		return nil, err
	}
	handle, ok := val.(*runtime.TaskHandle)
	if !ok {
		return nil, locate(runtime.TypeErrorf("cannot wait on %s", val.Kind()), expr.Task)
	}
	result, err := i.executor.Await(ctx, handle)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		if _, isExit := ExitCode(err); isExit {
			return nil, err
		}
		return nil, locate(runtime.WrapRuntime(err, "awaited task %d failed: %s", handle.ID(), err.Error()), expr)
	}
	return result, nil
}

// sleepFor suspends the calling task only. The timer is released when the
// task's context is cancelled at shutdown.
func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
