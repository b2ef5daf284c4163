package runtime

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// ArrayValue is a shared, mutable sequence. Every operation holds the lock
// only for its own duration.
type ArrayValue struct {
	mu       sync.Mutex
	elements []Value
}

// NewArray takes ownership of elements.
func NewArray(elements []Value) *ArrayValue {
	if elements == nil {
		elements = make([]Value, 0)
	}
	return &ArrayValue{elements: elements}
}

func (*ArrayValue) Kind() Kind { return KindArray }
func (*ArrayValue) value()     {}

func (a *ArrayValue) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.elements)
}

func (a *ArrayValue) Get(index int64) (Value, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= int64(len(a.elements)) {
		return nil, RuntimeErrorf("index %d out of bounds for Array of length %d", index, len(a.elements))
	}
	return a.elements[index], nil
}

func (a *ArrayValue) Set(index int64, val Value) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= int64(len(a.elements)) {
		return RuntimeErrorf("index %d out of bounds for Array of length %d", index, len(a.elements))
	}
	a.elements[index] = val
	return nil
}

func (a *ArrayValue) Append(vals ...Value) {
	a.mu.Lock()
	a.elements = append(a.elements, vals...)
	a.mu.Unlock()
}

// Pop removes and returns the last element.
func (a *ArrayValue) Pop() (Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.elements) == 0 {
		return nil, false
	}
	last := a.elements[len(a.elements)-1]
	a.elements = a.elements[:len(a.elements)-1]
	return last, true
}

// Snapshot copies the current elements.
func (a *ArrayValue) Snapshot() []Value {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Value(nil), a.elements...)
}

// MapEntry is one key/value pair of a HashMap.
type MapEntry struct {
	Key   Value
	Value Value
}

// HashMapValue is a shared, mutable map that iterates in insertion order.
type HashMapValue struct {
	mu      sync.Mutex
	order   []string
	entries map[string]MapEntry
}

func NewHashMap() *HashMapValue {
	return &HashMapValue{entries: make(map[string]MapEntry)}
}

func (*HashMapValue) Kind() Kind { return KindHashMap }
func (*HashMapValue) value()     {}

func (m *HashMapValue) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Set inserts or overwrites key. Overwriting keeps the key's position.
func (m *HashMapValue) Set(key, val Value) error {
	hk, err := HashKey(key)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[hk]; !ok {
		m.order = append(m.order, hk)
	}
	m.entries[hk] = MapEntry{Key: key, Value: val}
	return nil
}

func (m *HashMapValue) Get(key Value) (Value, bool, error) {
	hk, err := HashKey(key)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[hk]
	if !ok {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Delete removes key and reports whether it was present.
func (m *HashMapValue) Delete(key Value) (bool, error) {
	hk, err := HashKey(key)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[hk]; !ok {
		return false, nil
	}
	delete(m.entries, hk)
	for i, k := range m.order {
		if k == hk {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Entries copies the entries in insertion order.
func (m *HashMapValue) Entries() []MapEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MapEntry, len(m.order))
	for i, k := range m.order {
		out[i] = m.entries[k]
	}
	return out
}

// HashKey returns the canonical key used to store v in a HashMap. Only
// scalars and tuples of hashable values can be keys.
func HashKey(v Value) (string, error) {
	var sb strings.Builder
	if err := writeHashKey(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeHashKey(sb *strings.Builder, v Value) error {
	switch val := v.(type) {
	case IntValue:
		sb.WriteString("i")
		sb.WriteString(strconv.FormatInt(val.Val, 10))
	case FloatValue:
		// Integral floats share keys with the equal Int.
		if val.Val == math.Trunc(val.Val) && math.Abs(val.Val) < 1<<63 {
			sb.WriteString("i")
			sb.WriteString(strconv.FormatInt(int64(val.Val), 10))
			return nil
		}
		sb.WriteString("f")
		sb.WriteString(strconv.FormatFloat(val.Val, 'g', -1, 64))
	case BoolValue:
		sb.WriteString("b")
		sb.WriteString(strconv.FormatBool(val.Val))
	case StringValue:
		sb.WriteString("s")
		sb.WriteString(strconv.Itoa(len(val.Val)))
		sb.WriteString(":")
		sb.WriteString(val.Val)
	case NoneValue:
		sb.WriteString("n")
	case TupleValue:
		sb.WriteString("t")
		sb.WriteString(strconv.Itoa(len(val.elements)))
		sb.WriteString("(")
		for _, el := range val.elements {
			if err := writeHashKey(sb, el); err != nil {
				return err
			}
			sb.WriteString(",")
		}
		sb.WriteString(")")
	default:
		return TypeErrorf("unhashable key type %s", v.Kind())
	}
	return nil
}
