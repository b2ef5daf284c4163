package interpreter

import (
	"math"
	"strings"

	"nikl/interpreter-go/pkg/runtime"
)

func applyBinary(op string, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case "==":
		return runtime.BoolValue{Val: runtime.Equal(left, right)}, nil
	case "!=":
		return runtime.BoolValue{Val: !runtime.Equal(left, right)}, nil
	case "<", "<=", ">", ">=":
		return compareValues(op, left, right)
	case "+", "-", "*", "/", "%":
		return applyArithmetic(op, left, right)
	}
	return nil, runtime.RuntimeErrorf("unknown operator '%s'", op)
}

func operandError(op string, left, right runtime.Value) error {
	return runtime.TypeErrorf("cannot apply '%s' to %s and %s", op, left.Kind(), right.Kind())
}

func applyArithmetic(op string, left, right runtime.Value) (runtime.Value, error) {
	switch l := left.(type) {
	case runtime.IntValue:
		switch r := right.(type) {
		case runtime.IntValue:
			return intArithmetic(op, l.Val, r.Val)
		case runtime.FloatValue:
			return floatArithmetic(op, float64(l.Val), r.Val)
		}
	case runtime.FloatValue:
		switch r := right.(type) {
		case runtime.IntValue:
			return floatArithmetic(op, l.Val, float64(r.Val))
		case runtime.FloatValue:
			return floatArithmetic(op, l.Val, r.Val)
		}
	case runtime.StringValue:
		switch r := right.(type) {
		case runtime.StringValue:
			if op == "+" {
				return runtime.StringValue{Val: l.Val + r.Val}, nil
			}
		case runtime.IntValue:
			if op == "*" {
				return repeatString(l.Val, r.Val)
			}
		}
	case *runtime.ArrayValue:
		if r, ok := right.(*runtime.ArrayValue); ok && op == "+" {
			joined := append(l.Snapshot(), r.Snapshot()...)
			return runtime.NewArray(joined), nil
		}
	}
	return nil, operandError(op, left, right)
}

func intArithmetic(op string, a, b int64) (runtime.Value, error) {
	switch op {
	case "+":
		return runtime.IntValue{Val: a + b}, nil
	case "-":
		return runtime.IntValue{Val: a - b}, nil
	case "*":
		return runtime.IntValue{Val: a * b}, nil
	case "/":
		if b == 0 {
			return nil, runtime.RuntimeErrorf("division by zero")
		}
		return runtime.IntValue{Val: a / b}, nil
	case "%":
		if b == 0 {
			return nil, runtime.RuntimeErrorf("modulo by zero")
		}
		return runtime.IntValue{Val: a % b}, nil
	}
	return nil, runtime.RuntimeErrorf("unknown operator '%s'", op)
}

func floatArithmetic(op string, a, b float64) (runtime.Value, error) {
	switch op {
	case "+":
		return runtime.FloatValue{Val: a + b}, nil
	case "-":
		return runtime.FloatValue{Val: a - b}, nil
	case "*":
		return runtime.FloatValue{Val: a * b}, nil
	case "/":
		if b == 0 {
			return nil, runtime.RuntimeErrorf("division by zero")
		}
		return runtime.FloatValue{Val: a / b}, nil
	case "%":
		if b == 0 {
			return nil, runtime.RuntimeErrorf("modulo by zero")
		}
		return runtime.FloatValue{Val: math.Mod(a, b)}, nil
	}
	return nil, runtime.RuntimeErrorf("unknown operator '%s'", op)
}

const maxStringLength = 1 << 28

func repeatString(s string, n int64) (runtime.Value, error) {
	if n < 0 {
		return nil, runtime.RuntimeErrorf("negative repeat count %d", n)
	}
	if len(s) > 0 && n > maxStringLength/int64(len(s)) {
		return nil, runtime.RuntimeErrorf("repeated string exceeds %d bytes", maxStringLength)
	}
	return runtime.StringValue{Val: strings.Repeat(s, int(n))}, nil
}

func compareValues(op string, left, right runtime.Value) (runtime.Value, error) {
	var cmp int
	switch l := left.(type) {
	case runtime.IntValue:
		switch r := right.(type) {
		case runtime.IntValue:
			cmp = compareInts(l.Val, r.Val)
		case runtime.FloatValue:
			cmp = compareFloats(float64(l.Val), r.Val)
		default:
			return nil, operandError(op, left, right)
		}
	case runtime.FloatValue:
		switch r := right.(type) {
		case runtime.IntValue:
			cmp = compareFloats(l.Val, float64(r.Val))
		case runtime.FloatValue:
			cmp = compareFloats(l.Val, r.Val)
		default:
			return nil, operandError(op, left, right)
		}
	case runtime.StringValue:
		r, ok := right.(runtime.StringValue)
		if !ok {
			return nil, operandError(op, left, right)
		}
		cmp = strings.Compare(l.Val, r.Val)
	default:
		return nil, operandError(op, left, right)
	}
	var result bool
	if cmp == unordered {
		return runtime.BoolValue{Val: false}, nil
	}
	switch op {
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	}
	return runtime.BoolValue{Val: result}, nil
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

const unordered = 2

// compareFloats returns unordered when either side is NaN.
func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	case a == b:
		return 0
	}
	return unordered
}

func indexInt(idx runtime.Value) (int64, error) {
	switch v := idx.(type) {
	case runtime.IntValue:
		return v.Val, nil
	default:
		return 0, runtime.TypeErrorf("index must be Int, got %s", idx.Kind())
	}
}

func indexValue(obj, idx runtime.Value) (runtime.Value, error) {
	switch o := obj.(type) {
	case *runtime.ArrayValue:
		n, err := indexInt(idx)
		if err != nil {
			return nil, err
		}
		return o.Get(n)
	case runtime.TupleValue:
		n, err := indexInt(idx)
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= int64(o.Len()) {
			return nil, runtime.RuntimeErrorf("tuple index %d out of range (length %d)", n, o.Len())
		}
		return o.At(int(n)), nil
	case runtime.StringValue:
		n, err := indexInt(idx)
		if err != nil {
			return nil, err
		}
		runes := []rune(o.Val)
		if n < 0 || n >= int64(len(runes)) {
			return nil, runtime.RuntimeErrorf("string index %d out of range (length %d)", n, len(runes))
		}
		return runtime.StringValue{Val: string(runes[n])}, nil
	case *runtime.HashMapValue:
		val, ok, err := o.Get(idx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, runtime.RuntimeErrorf("key %s not found", runtime.Inspect(idx))
		}
		return val, nil
	}
	return nil, runtime.TypeErrorf("%s is not indexable", obj.Kind())
}

func assignIndex(obj, idx, val runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.ArrayValue:
		n, err := indexInt(idx)
		if err != nil {
			return err
		}
		return o.Set(n, val)
	case *runtime.HashMapValue:
		return o.Set(idx, val)
	case runtime.TupleValue, runtime.StringValue:
		return runtime.TypeErrorf("%s does not support item assignment", obj.Kind())
	}
	return runtime.TypeErrorf("%s is not indexable", obj.Kind())
}

// memberValue resolves obj.name. Only maps, including imported modules,
// expose members.
func memberValue(obj runtime.Value, name string) (runtime.Value, error) {
	m, ok := obj.(*runtime.HashMapValue)
	if !ok {
		return nil, runtime.TypeErrorf("%s has no member '%s'", obj.Kind(), name)
	}
	val, found, err := m.Get(runtime.StringValue{Val: name})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, runtime.NameErrorf("no member '%s'", name)
	}
	return val, nil
}
