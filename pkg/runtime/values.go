package runtime

import (
	"context"

	"nikl/interpreter-go/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindNone
	KindArray
	KindHashMap
	KindTuple
	KindFunction
	KindNativeFunction
	KindTask
)

// String returns the type name scripts see through type() and annotations.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindString:
		return "String"
	case KindNone:
		return "None"
	case KindArray:
		return "Array"
	case KindHashMap:
		return "HashMap"
	case KindTuple:
		return "Tuple"
	case KindFunction:
		return "Function"
	case KindNativeFunction:
		return "NativeFunction"
	case KindTask:
		return "Task"
	default:
		return "Unknown"
	}
}

// Value is the closed set of runtime values. Only types in this package
// implement it.
type Value interface {
	Kind() Kind
	value()
}

type IntValue struct {
	Val int64
}

func (IntValue) Kind() Kind { return KindInt }
func (IntValue) value()     {}

type FloatValue struct {
	Val float64
}

func (FloatValue) Kind() Kind { return KindFloat }
func (FloatValue) value()     {}

type BoolValue struct {
	Val bool
}

func (BoolValue) Kind() Kind { return KindBool }
func (BoolValue) value()     {}

type StringValue struct {
	Val string
}

func (StringValue) Kind() Kind { return KindString }
func (StringValue) value()     {}

type NoneValue struct{}

func (NoneValue) Kind() Kind { return KindNone }
func (NoneValue) value()     {}

// None is the unit value.
var None Value = NoneValue{}

// TupleValue is immutable. Its elements are copied on construction so no
// caller can mutate them afterwards.
type TupleValue struct {
	elements []Value
}

func NewTuple(elements []Value) TupleValue {
	return TupleValue{elements: append([]Value(nil), elements...)}
}

func (TupleValue) Kind() Kind { return KindTuple }
func (TupleValue) value()     {}

func (t TupleValue) Len() int { return len(t.elements) }

func (t TupleValue) At(i int) Value { return t.elements[i] }

// Elements returns a copy of the tuple's elements.
func (t TupleValue) Elements() []Value {
	return append([]Value(nil), t.elements...)
}

// FunctionValue is a script function together with the environment it was
// defined in.
type FunctionValue struct {
	Name       string
	Params     []*ast.FunctionParameter
	ReturnType *ast.TypeAnnotation
	Body       *ast.BlockStatement
	Closure    *Environment
}

func (*FunctionValue) Kind() Kind { return KindFunction }
func (*FunctionValue) value()     {}

// NativeCallContext is handed to host implemented functions.
type NativeCallContext struct {
	Ctx context.Context
	Env *Environment
}

type NativeFunc func(*NativeCallContext, []Value) (Value, error)

// NativeFunctionValue is a built-in. Arity < 0 means variadic; MinArity
// applies to variadic natives.
type NativeFunctionValue struct {
	Name     string
	Arity    int
	MinArity int
	Impl     NativeFunc
}

func (*NativeFunctionValue) Kind() Kind { return KindNativeFunction }
func (*NativeFunctionValue) value()     {}
