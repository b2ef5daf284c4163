package runtime

import (
	"math"
	"strconv"
	"strings"
)

// Stringify renders v the way print shows it. Strings appear raw at the top
// level and quoted inside containers.
func Stringify(v Value) string {
	if s, ok := v.(StringValue); ok {
		return s.Val
	}
	return Inspect(v)
}

// Inspect renders v with strings quoted.
func Inspect(v Value) string {
	var sb strings.Builder
	inspect(&sb, v, map[Value]bool{})
	return sb.String()
}

// inspect tracks the containers on the current path in active; a container
// that contains itself renders as [...] or {...} at the repeat.
func inspect(sb *strings.Builder, v Value, active map[Value]bool) {
	switch val := v.(type) {
	case nil:
		sb.WriteString("None")
	case IntValue:
		sb.WriteString(strconv.FormatInt(val.Val, 10))
	case FloatValue:
		sb.WriteString(FormatFloat(val.Val))
	case BoolValue:
		if val.Val {
			sb.WriteString("True")
		} else {
			sb.WriteString("False")
		}
	case StringValue:
		sb.WriteString(strconv.Quote(val.Val))
	case NoneValue:
		sb.WriteString("None")
	case *ArrayValue:
		if active[val] {
			sb.WriteString("[...]")
			return
		}
		active[val] = true
		sb.WriteByte('[')
		writeJoined(sb, val.Snapshot(), active)
		sb.WriteByte(']')
		delete(active, val)
	case TupleValue:
		sb.WriteByte('(')
		writeJoined(sb, val.elements, active)
		if len(val.elements) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	case *HashMapValue:
		if active[val] {
			sb.WriteString("{...}")
			return
		}
		active[val] = true
		sb.WriteByte('{')
		for i, entry := range val.Entries() {
			if i > 0 {
				sb.WriteString(", ")
			}
			inspect(sb, entry.Key, active)
			sb.WriteString(": ")
			inspect(sb, entry.Value, active)
		}
		sb.WriteByte('}')
		delete(active, val)
	case *FunctionValue:
		name := val.Name
		if name == "" {
			name = "anonymous"
		}
		sb.WriteString("<function " + name + ">")
	case *NativeFunctionValue:
		sb.WriteString("<native function " + val.Name + ">")
	case *TaskHandle:
		sb.WriteString("<task " + strconv.FormatUint(val.ID(), 10) + " " + val.Status().String() + ">")
	}
}

func writeJoined(sb *strings.Builder, vals []Value, active map[Value]bool) {
	for i, el := range vals {
		if i > 0 {
			sb.WriteString(", ")
		}
		inspect(sb, el, active)
	}
}

// FormatFloat always shows a fractional part so floats stay distinguishable
// from ints.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	format := byte('g')
	if abs := math.Abs(f); abs == 0 || (abs >= 1e-4 && abs < 1e16) {
		format = 'f'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
