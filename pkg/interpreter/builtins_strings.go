package interpreter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nikl/interpreter-go/pkg/runtime"
)

func stringBuiltins() []*runtime.NativeFunctionValue {
	return []*runtime.NativeFunctionValue{
		native("upper", 1, caseMapper("upper", func() cases.Caser { return cases.Upper(language.Und) })),
		native("lower", 1, caseMapper("lower", func() cases.Caser { return cases.Lower(language.Und) })),
		native("title", 1, caseMapper("title", func() cases.Caser { return cases.Title(language.Und) })),
		native("split", 2, builtinSplit),
		native("join", 2, builtinJoin),
	}
}

// caseMapper builds a fresh Caser per call; casers carry state and cannot
// be shared between tasks.
func caseMapper(name string, newCaser func() cases.Caser) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := stringArg(name, args, 0)
		if err != nil {
			return nil, err
		}
		caser := newCaser()
		return runtime.StringValue{Val: caser.String(s)}, nil
	}
}

func builtinSplit(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, err := stringArg("split", args, 0)
	if err != nil {
		return nil, err
	}
	sep, err := stringArg("split", args, 1)
	if err != nil {
		return nil, err
	}
	var parts []string
	if sep == "" {
		parts = strings.Fields(s)
	} else {
		parts = strings.Split(s, sep)
	}
	vals := make([]runtime.Value, len(parts))
	for idx, part := range parts {
		vals[idx] = runtime.StringValue{Val: part}
	}
	return runtime.NewArray(vals), nil
}

func builtinJoin(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var elements []runtime.Value
	switch v := args[0].(type) {
	case *runtime.ArrayValue:
		elements = v.Snapshot()
	case runtime.TupleValue:
		elements = v.Elements()
	default:
		return nil, argError("join", 0, "Array or Tuple", args[0])
	}
	sep, err := stringArg("join", args, 1)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(elements))
	for idx, el := range elements {
		parts[idx] = runtime.Stringify(el)
	}
	return runtime.StringValue{Val: strings.Join(parts, sep)}, nil
}
