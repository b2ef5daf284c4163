package interpreter

import (
	"context"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/runtime"
)

// annotationMatches reports whether val fits the annotated type name. Unknown
// names are treated as matching.
func annotationMatches(name string, val runtime.Value) bool {
	switch name {
	case "Any":
		return true
	case "Int":
		return val.Kind() == runtime.KindInt
	case "Float":
		return val.Kind() == runtime.KindFloat
	case "String":
		return val.Kind() == runtime.KindString
	case "Bool":
		return val.Kind() == runtime.KindBool
	case "None":
		return val.Kind() == runtime.KindNone
	case "Array":
		return val.Kind() == runtime.KindArray
	case "Tuple":
		return val.Kind() == runtime.KindTuple
	case "HashMap":
		return val.Kind() == runtime.KindHashMap
	case "Function":
		return val.Kind() == runtime.KindFunction || val.Kind() == runtime.KindNativeFunction
	case "Task":
		return val.Kind() == runtime.KindTask
	}
	return true
}

// checkAnnotation logs a warning when val does not fit ann. Annotations never
// fail evaluation.
func (i *Interpreter) checkAnnotation(ctx context.Context, ann *ast.TypeAnnotation, val runtime.Value, what string) {
	if ann == nil || annotationMatches(ann.Name, val) {
		return
	}
	span := ann.Span()
	i.logger.WarnContext(ctx, "type annotation mismatch",
		"subject", what,
		"expected", ann.Name,
		"actual", val.Kind().String(),
		"line", span.Start.Line,
		"column", span.Start.Column,
	)
}
