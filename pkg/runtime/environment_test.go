package runtime

import (
	"errors"
	"testing"
)

func TestEnvironmentLookupWalksChain(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", IntValue{Val: 1})
	child := NewEnvironment(global)

	val, err := child.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val.(IntValue).Val != 1 {
		t.Fatalf("unexpected value %#v", val)
	}

	child.Define("x", IntValue{Val: 2})
	val, _ = child.Get("x")
	if val.(IntValue).Val != 2 {
		t.Fatalf("child definition should shadow, got %#v", val)
	}
	val, _ = global.Get("x")
	if val.(IntValue).Val != 1 {
		t.Fatalf("shadowing must not touch the parent, got %#v", val)
	}
}

func TestEnvironmentAssignUpdatesDefiningFrame(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("count", IntValue{Val: 0})
	child := NewEnvironment(global)

	if err := child.Assign("count", IntValue{Val: 5}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if child.HasInCurrentScope("count") {
		t.Fatalf("assign must not create a binding in the child frame")
	}
	val, _ := global.Get("count")
	if val.(IntValue).Val != 5 {
		t.Fatalf("expected 5, got %#v", val)
	}
}

func TestEnvironmentUndefinedNames(t *testing.T) {
	env := NewEnvironment(nil)
	checks := map[string]error{}
	_, checks["get"] = env.Get("missing")
	checks["assign"] = env.Assign("missing", None)
	checks["delete"] = env.Delete("missing")
	for op, err := range checks {
		if !IsKind(err, NameError) {
			t.Fatalf("%s: expected NameError, got %v", op, err)
		}
		if !errors.Is(err, ErrUndefined) {
			t.Fatalf("%s: expected ErrUndefined, got %v", op, err)
		}
	}
}

func TestEnvironmentDeleteCurrentFrameOnly(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", IntValue{Val: 1})
	child := NewEnvironment(global)
	if err := child.Delete("x"); !IsKind(err, NameError) {
		t.Fatalf("deleting a parent binding from the child should fail, got %v", err)
	}
	if err := global.Delete("x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if global.Has("x") {
		t.Fatalf("x should be gone")
	}
}

func TestEnvironmentConstBindings(t *testing.T) {
	env := NewEnvironment(nil)
	env.DefineConst("limit", IntValue{Val: 3})
	err := NewEnvironment(env).Assign("limit", IntValue{Val: 4})
	if !errors.Is(err, ErrConstAssignment) || !IsKind(err, RuntimeError) {
		t.Fatalf("expected const assignment error, got %v", err)
	}
	if !env.IsConst("limit") {
		t.Fatalf("limit should be const")
	}
	env.Define("limit", IntValue{Val: 9})
	if env.IsConst("limit") {
		t.Fatalf("redefinition replaces the binding")
	}
}

func TestEnvironmentKeysSorted(t *testing.T) {
	env := NewEnvironment(nil)
	env.Define("b", None)
	env.Define("a", None)
	keys := env.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
