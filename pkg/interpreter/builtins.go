package interpreter

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"nikl/interpreter-go/pkg/runtime"
)

func native(name string, arity int, impl runtime.NativeFunc) *runtime.NativeFunctionValue {
	return &runtime.NativeFunctionValue{Name: name, Arity: arity, Impl: impl}
}

func variadic(name string, minArity int, impl runtime.NativeFunc) *runtime.NativeFunctionValue {
	return &runtime.NativeFunctionValue{Name: name, Arity: -1, MinArity: minArity, Impl: impl}
}

func (i *Interpreter) installBuiltins(env *runtime.Environment) {
	builtins := []*runtime.NativeFunctionValue{
		variadic("print", 0, i.builtinPrint),
		native("len", 1, builtinLen),
		native("sleep", 1, builtinSleep),
		native("str", 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			return runtime.StringValue{Val: runtime.Stringify(args[0])}, nil
		}),
		native("int", 1, builtinInt),
		native("float", 1, builtinFloat),
		native("bool", 1, builtinBool),
		native("type", 1, builtinType),
		variadic("input", 0, i.builtinInput),
		variadic("exit", 0, builtinExit),
		native("args", 0, i.builtinArgs),
		variadic("range", 1, builtinRange),
		native("push", 2, builtinPush),
		native("pop", 1, builtinPop),
		native("keys", 1, builtinKeys),
		native("values", 1, builtinValues),
		native("contains", 2, builtinContains),
		native("remove", 2, builtinRemove),
	}
	builtins = append(builtins, stringBuiltins()...)
	for _, fn := range builtins {
		env.Define(fn.Name, fn)
	}
}

func argError(fn string, idx int, want string, got runtime.Value) error {
	return runtime.TypeErrorf("%s: argument %d must be %s, got %s", fn, idx+1, want, got.Kind())
}

func maxArgs(fn string, args []runtime.Value, n int) error {
	if len(args) > n {
		return runtime.TypeErrorf("function '%s' expects at most %d arguments, got %d", fn, n, len(args))
	}
	return nil
}

func stringArg(fn string, args []runtime.Value, idx int) (string, error) {
	s, ok := args[idx].(runtime.StringValue)
	if !ok {
		return "", argError(fn, idx, "String", args[idx])
	}
	return s.Val, nil
}

func intArg(fn string, args []runtime.Value, idx int) (int64, error) {
	n, ok := args[idx].(runtime.IntValue)
	if !ok {
		return 0, argError(fn, idx, "Int", args[idx])
	}
	return n.Val, nil
}

func arrayArg(fn string, args []runtime.Value, idx int) (*runtime.ArrayValue, error) {
	arr, ok := args[idx].(*runtime.ArrayValue)
	if !ok {
		return nil, argError(fn, idx, "Array", args[idx])
	}
	return arr, nil
}

func mapArg(fn string, args []runtime.Value, idx int) (*runtime.HashMapValue, error) {
	m, ok := args[idx].(*runtime.HashMapValue)
	if !ok {
		return nil, argError(fn, idx, "HashMap", args[idx])
	}
	return m, nil
}

func (i *Interpreter) builtinPrint(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	parts := make([]string, len(args))
	for idx, arg := range args {
		parts[idx] = runtime.Stringify(arg)
	}
	if _, err := io.WriteString(i.stdout, strings.Join(parts, " ")+"\n"); err != nil {
		return nil, runtime.WrapRuntime(err, "print: %s", err.Error())
	}
	return runtime.None, nil
}

func builtinLen(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case *runtime.ArrayValue:
		return runtime.IntValue{Val: int64(v.Len())}, nil
	case *runtime.HashMapValue:
		return runtime.IntValue{Val: int64(v.Len())}, nil
	case runtime.TupleValue:
		return runtime.IntValue{Val: int64(v.Len())}, nil
	case runtime.StringValue:
		return runtime.IntValue{Val: int64(len([]rune(v.Val)))}, nil
	}
	return nil, runtime.TypeErrorf("len() not supported for %s", args[0].Kind())
}

func builtinSleep(call *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var ms float64
	switch v := args[0].(type) {
	case runtime.IntValue:
		ms = float64(v.Val)
	case runtime.FloatValue:
		ms = v.Val
	default:
		return nil, argError("sleep", 0, "Int or Float", args[0])
	}
	if ms < 0 {
		return nil, runtime.RuntimeErrorf("sleep: negative duration %s", runtime.Stringify(args[0]))
	}
	if err := sleepFor(call.Ctx, time.Duration(ms*float64(time.Millisecond))); err != nil {
		return nil, err
	}
	return runtime.None, nil
}

func builtinInt(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.IntValue:
		return v, nil
	case runtime.FloatValue:
		if math.IsNaN(v.Val) || math.IsInf(v.Val, 0) || v.Val >= math.MaxInt64 || v.Val < math.MinInt64 {
			return nil, runtime.RuntimeErrorf("cannot convert %s to Int", runtime.FormatFloat(v.Val))
		}
		return runtime.IntValue{Val: int64(v.Val)}, nil
	case runtime.BoolValue:
		if v.Val {
			return runtime.IntValue{Val: 1}, nil
		}
		return runtime.IntValue{Val: 0}, nil
	case runtime.StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Val), 10, 64)
		if err != nil {
			return nil, runtime.RuntimeErrorf("cannot convert %q to Int", v.Val)
		}
		return runtime.IntValue{Val: n}, nil
	}
	return nil, runtime.TypeErrorf("cannot convert %s to Int", args[0].Kind())
}

func builtinFloat(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.FloatValue:
		return v, nil
	case runtime.IntValue:
		return runtime.FloatValue{Val: float64(v.Val)}, nil
	case runtime.BoolValue:
		if v.Val {
			return runtime.FloatValue{Val: 1}, nil
		}
		return runtime.FloatValue{Val: 0}, nil
	case runtime.StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Val), 64)
		if err != nil {
			return nil, runtime.RuntimeErrorf("cannot convert %q to Float", v.Val)
		}
		return runtime.FloatValue{Val: f}, nil
	}
	return nil, runtime.TypeErrorf("cannot convert %s to Float", args[0].Kind())
}

func builtinBool(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var b bool
	switch v := args[0].(type) {
	case runtime.BoolValue:
		b = v.Val
	case runtime.IntValue:
		b = v.Val != 0
	case runtime.FloatValue:
		b = v.Val != 0
	case runtime.StringValue:
		b = v.Val != ""
	case runtime.NoneValue:
		b = false
	case *runtime.ArrayValue:
		b = v.Len() > 0
	case *runtime.HashMapValue:
		b = v.Len() > 0
	case runtime.TupleValue:
		b = v.Len() > 0
	default:
		b = true
	}
	return runtime.BoolValue{Val: b}, nil
}

func builtinType(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	kind := args[0].Kind()
	if kind == runtime.KindNativeFunction {
		kind = runtime.KindFunction
	}
	return runtime.StringValue{Val: kind.String()}, nil
}

func (i *Interpreter) builtinInput(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if err := maxArgs("input", args, 1); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		if _, err := io.WriteString(i.stdout, runtime.Stringify(args[0])); err != nil {
			return nil, runtime.WrapRuntime(err, "input: %s", err.Error())
		}
	}
	line, err := i.stdin.ReadLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, runtime.WrapRuntime(err, "input: %s", err.Error())
	}
	if errors.Is(err, io.EOF) && line == "" {
		return runtime.None, nil
	}
	return runtime.StringValue{Val: strings.TrimRight(line, "\r\n")}, nil
}

func builtinExit(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if err := maxArgs("exit", args, 1); err != nil {
		return nil, err
	}
	code := int64(0)
	if len(args) == 1 {
		n, err := intArg("exit", args, 0)
		if err != nil {
			return nil, err
		}
		code = n
	}
	return nil, &exitSignal{code: int(code)}
}

func (i *Interpreter) builtinArgs(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
	vals := make([]runtime.Value, len(i.args))
	for idx, arg := range i.args {
		vals[idx] = runtime.StringValue{Val: arg}
	}
	return runtime.NewArray(vals), nil
}

const maxRangeLength = 1 << 24

func builtinRange(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if err := maxArgs("range", args, 3); err != nil {
		return nil, err
	}
	bounds := make([]int64, len(args))
	for idx := range args {
		n, err := intArg("range", args, idx)
		if err != nil {
			return nil, err
		}
		bounds[idx] = n
	}
	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) >= 2 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		return nil, runtime.RuntimeErrorf("range: step must not be zero")
	}
	var vals []runtime.Value
	for n := start; (step > 0 && n < stop) || (step < 0 && n > stop); n += step {
		if len(vals) >= maxRangeLength {
			return nil, runtime.RuntimeErrorf("range: too many elements")
		}
		vals = append(vals, runtime.IntValue{Val: n})
	}
	return runtime.NewArray(vals), nil
}

func builtinPush(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	arr, err := arrayArg("push", args, 0)
	if err != nil {
		return nil, err
	}
	arr.Append(args[1])
	return runtime.None, nil
}

func builtinPop(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	arr, err := arrayArg("pop", args, 0)
	if err != nil {
		return nil, err
	}
	val, ok := arr.Pop()
	if !ok {
		return nil, runtime.RuntimeErrorf("pop from empty Array")
	}
	return val, nil
}

func builtinKeys(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	m, err := mapArg("keys", args, 0)
	if err != nil {
		return nil, err
	}
	entries := m.Entries()
	vals := make([]runtime.Value, len(entries))
	for idx, entry := range entries {
		vals[idx] = entry.Key
	}
	return runtime.NewArray(vals), nil
}

func builtinValues(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	m, err := mapArg("values", args, 0)
	if err != nil {
		return nil, err
	}
	entries := m.Entries()
	vals := make([]runtime.Value, len(entries))
	for idx, entry := range entries {
		vals[idx] = entry.Value
	}
	return runtime.NewArray(vals), nil
}

func builtinContains(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	needle := args[1]
	switch v := args[0].(type) {
	case *runtime.ArrayValue:
		return runtime.BoolValue{Val: containsValue(v.Snapshot(), needle)}, nil
	case runtime.TupleValue:
		return runtime.BoolValue{Val: containsValue(v.Elements(), needle)}, nil
	case *runtime.HashMapValue:
		_, ok, err := v.Get(needle)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: ok}, nil
	case runtime.StringValue:
		sub, err := stringArg("contains", args, 1)
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: strings.Contains(v.Val, sub)}, nil
	}
	return nil, argError("contains", 0, "a container", args[0])
}

func containsValue(vals []runtime.Value, needle runtime.Value) bool {
	for _, v := range vals {
		if runtime.Equal(v, needle) {
			return true
		}
	}
	return false
}

// builtinRemove deletes a key from a map and returns whether it was present.
func builtinRemove(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	m, err := mapArg("remove", args, 0)
	if err != nil {
		return nil, err
	}
	ok, err := m.Delete(args[1])
	if err != nil {
		return nil, err
	}
	return runtime.BoolValue{Val: ok}, nil
}
