package runtime

import (
	"sort"
	"sync"
)

type binding struct {
	value    Value
	constant bool
}

// Environment is one frame of the lexical scope chain. Frames are shared
// between tasks through closures, so every access is locked.
type Environment struct {
	mu     sync.RWMutex
	values map[string]binding
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]binding),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define inserts or overwrites a binding in the current frame.
func (e *Environment) Define(name string, value Value) {
	e.mu.Lock()
	e.values[name] = binding{value: value}
	e.mu.Unlock()
}

// DefineConst inserts a binding that Assign refuses to change.
func (e *Environment) DefineConst(name string, value Value) {
	e.mu.Lock()
	e.values[name] = binding{value: value, constant: true}
	e.mu.Unlock()
}

// Assign updates an existing binding in the first frame where it appears.
func (e *Environment) Assign(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		env.mu.Lock()
		b, ok := env.values[name]
		if ok {
			if b.constant {
				env.mu.Unlock()
				return constAssignmentError(name)
			}
			env.values[name] = binding{value: value}
			env.mu.Unlock()
			return nil
		}
		env.mu.Unlock()
	}
	return undefinedError(name)
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		b, ok := env.values[name]
		env.mu.RUnlock()
		if ok {
			return b.value, nil
		}
	}
	return nil, undefinedError(name)
}

// Delete removes a binding from the current frame only.
func (e *Environment) Delete(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.values[name]; !ok {
		return undefinedError(name)
	}
	delete(e.values, name)
	return nil
}

// Has reports whether name resolves anywhere in the chain.
func (e *Environment) Has(name string) bool {
	_, err := e.Get(name)
	return err == nil
}

// HasInCurrentScope reports whether name is bound in this frame.
func (e *Environment) HasInCurrentScope(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.values[name]
	return ok
}

// IsConst reports whether name resolves to a const binding.
func (e *Environment) IsConst(name string) bool {
	for env := e; env != nil; env = env.parent {
		env.mu.RLock()
		b, ok := env.values[name]
		env.mu.RUnlock()
		if ok {
			return b.constant
		}
	}
	return false
}

// Snapshot returns a copy of the current frame's bindings.
func (e *Environment) Snapshot() map[string]Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]Value, len(e.values))
	for k, b := range e.values {
		out[k] = b.value
	}
	return out
}

// Keys returns the current frame's names in sorted order.
func (e *Environment) Keys() []string {
	e.mu.RLock()
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	e.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
