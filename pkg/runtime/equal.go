package runtime

// Equal reports structural equality. Ints and floats compare numerically;
// functions and tasks compare by identity. Self-referential containers
// compare equal when their structure matches.
func Equal(a, b Value) bool {
	return equal(a, b, map[containerPair]bool{})
}

// containerPair is a pair of containers already under comparison.
type containerPair struct {
	a, b Value
}

func equal(a, b Value, seen map[containerPair]bool) bool {
	switch av := a.(type) {
	case IntValue:
		switch bv := b.(type) {
		case IntValue:
			return av.Val == bv.Val
		case FloatValue:
			return float64(av.Val) == bv.Val
		}
		return false
	case FloatValue:
		switch bv := b.(type) {
		case FloatValue:
			return av.Val == bv.Val
		case IntValue:
			return av.Val == float64(bv.Val)
		}
		return false
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av.Val == bv.Val
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	case NoneValue:
		_, ok := b.(NoneValue)
		return ok
	case TupleValue:
		bv, ok := b.(TupleValue)
		return ok && equalSlices(av.elements, bv.elements, seen)
	case *ArrayValue:
		bv, ok := b.(*ArrayValue)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		pair := containerPair{av, bv}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		return equalSlices(av.Snapshot(), bv.Snapshot(), seen)
	case *HashMapValue:
		bv, ok := b.(*HashMapValue)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		pair := containerPair{av, bv}
		if seen[pair] {
			return true
		}
		seen[pair] = true
		return equalMaps(av, bv, seen)
	case *FunctionValue:
		bv, ok := b.(*FunctionValue)
		return ok && av == bv
	case *NativeFunctionValue:
		bv, ok := b.(*NativeFunctionValue)
		return ok && av == bv
	case *TaskHandle:
		bv, ok := b.(*TaskHandle)
		return ok && av == bv
	}
	return false
}

func equalSlices(a, b []Value, seen map[containerPair]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i], seen) {
			return false
		}
	}
	return true
}

func equalMaps(a, b *HashMapValue, seen map[containerPair]bool) bool {
	entries := a.Entries()
	if len(entries) != b.Len() {
		return false
	}
	for _, entry := range entries {
		other, ok, err := b.Get(entry.Key)
		if err != nil || !ok || !equal(entry.Value, other, seen) {
			return false
		}
	}
	return true
}
