package interpreter

import (
	"context"
	"fmt"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/runtime"
)

// Control flow unwinds through the Go error path as these signal types.

type returnSignal struct {
	value runtime.Value
}

func (returnSignal) Error() string { return "return outside function" }

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }

func (i *Interpreter) evaluateStatement(ctx context.Context, stmt ast.Statement, env *runtime.Environment) (runtime.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		return i.evaluateVariableDeclaration(ctx, s, env)
	case *ast.AssignmentStatement:
		return i.evaluateAssignment(ctx, s, env)
	case *ast.FunctionDeclaration:
		fn := &runtime.FunctionValue{
			Name:       s.ID.Name,
			Params:     s.Params,
			ReturnType: s.ReturnType,
			Body:       s.Body,
			Closure:    env,
		}
		env.Define(s.ID.Name, fn)
		return runtime.None, nil
	case *ast.BlockStatement:
		return i.evaluateBlock(ctx, s, runtime.NewEnvironment(env))
	case *ast.IfStatement:
		return i.evaluateIf(ctx, s, env)
	case *ast.WhileStatement:
		return i.evaluateWhile(ctx, s, env)
	case *ast.LoopStatement:
		return i.evaluateLoop(ctx, s, env)
	case *ast.ForStatement:
		return i.evaluateFor(ctx, s, env)
	case *ast.BreakStatement:
		return nil, breakSignal{}
	case *ast.ContinueStatement:
		return nil, continueSignal{}
	case *ast.ReturnStatement:
		var val runtime.Value = runtime.None
		if s.Argument != nil {
			v, err := i.evaluateExpression(ctx, s.Argument, env)
			if err != nil {
				return nil, err
			}
			val = v
		}
		return nil, returnSignal{value: val}
	case *ast.DeleteStatement:
		if err := env.Delete(s.Name.Name); err != nil {
			return nil, locate(err, s.Name)
		}
		return runtime.None, nil
	case *ast.ImportStatement:
		return i.evaluateImport(s, env)
	case ast.Expression:
		return i.evaluateExpression(ctx, s, env)
	default:
		return nil, runtime.RuntimeErrorf("unsupported statement %T", stmt)
	}
}

// evaluateBlock runs body in env, which the caller has already scoped.
func (i *Interpreter) evaluateBlock(ctx context.Context, block *ast.BlockStatement, env *runtime.Environment) (runtime.Value, error) {
	var last runtime.Value = runtime.None
	for _, stmt := range block.Body {
		val, err := i.evaluateStatement(ctx, stmt, env)
		if err != nil {
			return nil, err
		}
		last = val
	}
	return last, nil
}

func (i *Interpreter) evaluateVariableDeclaration(ctx context.Context, decl *ast.VariableDeclaration, env *runtime.Environment) (runtime.Value, error) {
	val, err := i.evaluateExpression(ctx, decl.Value, env)
	if err != nil {
		return nil, err
	}
	// Only a function literal evaluated here is named; its value is not yet
	// shared with any other binding or task.
	if _, literal := decl.Value.(*ast.FunctionLiteral); literal {
		if fn, ok := val.(*runtime.FunctionValue); ok && fn.Name == "" {
			fn.Name = decl.Name.Name
		}
	}
	i.checkAnnotation(ctx, decl.Type, val, "variable '"+decl.Name.Name+"'")
	if decl.Constant {
		env.DefineConst(decl.Name.Name, val)
	} else {
		env.Define(decl.Name.Name, val)
	}
	return runtime.None, nil
}

func (i *Interpreter) evaluateAssignment(ctx context.Context, assign *ast.AssignmentStatement, env *runtime.Environment) (runtime.Value, error) {
	switch target := assign.Target.(type) {
	case *ast.Identifier:
		val, err := i.evaluateExpression(ctx, assign.Value, env)
		if err != nil {
			return nil, err
		}
		if err := env.Assign(target.Name, val); err != nil {
			return nil, locate(err, target)
		}
		return runtime.None, nil
	case *ast.IndexExpression:
		obj, err := i.evaluateExpression(ctx, target.Object, env)
		if err != nil {
			return nil, err
		}
		idx, err := i.evaluateExpression(ctx, target.Index, env)
		if err != nil {
			return nil, err
		}
		val, err := i.evaluateExpression(ctx, assign.Value, env)
		if err != nil {
			return nil, err
		}
		if err := assignIndex(obj, idx, val); err != nil {
			return nil, locate(err, target)
		}
		return runtime.None, nil
	default:
		return nil, locate(runtime.TypeErrorf("invalid assignment target"), assign)
	}
}

func (i *Interpreter) evaluateCondition(ctx context.Context, expr ast.Expression, env *runtime.Environment, what string) (bool, error) {
	val, err := i.evaluateExpression(ctx, expr, env)
	if err != nil {
		return false, err
	}
	b, ok := val.(runtime.BoolValue)
	if !ok {
		return false, locate(runtime.TypeErrorf("%s condition must be Bool, got %s", what, val.Kind()), expr)
	}
	return b.Val, nil
}

func (i *Interpreter) evaluateIf(ctx context.Context, stmt *ast.IfStatement, env *runtime.Environment) (runtime.Value, error) {
	ok, err := i.evaluateCondition(ctx, stmt.Condition, env, "if")
	if err != nil {
		return nil, err
	}
	if ok {
		return i.evaluateBlock(ctx, stmt.Then, runtime.NewEnvironment(env))
	}
	for _, clause := range stmt.Elifs {
		ok, err := i.evaluateCondition(ctx, clause.Condition, env, "elif")
		if err != nil {
			return nil, err
		}
		if ok {
			return i.evaluateBlock(ctx, clause.Body, runtime.NewEnvironment(env))
		}
	}
	if stmt.Else != nil {
		return i.evaluateBlock(ctx, stmt.Else, runtime.NewEnvironment(env))
	}
	return runtime.None, nil
}

// runLoopBody reports whether the loop should stop.
func (i *Interpreter) runLoopBody(ctx context.Context, body *ast.BlockStatement, env *runtime.Environment) (bool, error) {
	_, err := i.evaluateBlock(ctx, body, env)
	switch err.(type) {
	case nil, continueSignal:
		return false, nil
	case breakSignal:
		return true, nil
	default:
		return true, err
	}
}

func (i *Interpreter) evaluateWhile(ctx context.Context, stmt *ast.WhileStatement, env *runtime.Environment) (runtime.Value, error) {
	for {
		ok, err := i.evaluateCondition(ctx, stmt.Condition, env, "while")
		if err != nil {
			return nil, err
		}
		if !ok {
			return runtime.None, nil
		}
		stop, err := i.runLoopBody(ctx, stmt.Body, runtime.NewEnvironment(env))
		if err != nil {
			return nil, err
		}
		if stop {
			return runtime.None, nil
		}
	}
}

func (i *Interpreter) evaluateLoop(ctx context.Context, stmt *ast.LoopStatement, env *runtime.Environment) (runtime.Value, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stop, err := i.runLoopBody(ctx, stmt.Body, runtime.NewEnvironment(env))
		if err != nil {
			return nil, err
		}
		if stop {
			return runtime.None, nil
		}
	}
}

func (i *Interpreter) evaluateFor(ctx context.Context, stmt *ast.ForStatement, env *runtime.Environment) (runtime.Value, error) {
	iterable, err := i.evaluateExpression(ctx, stmt.Iterable, env)
	if err != nil {
		return nil, err
	}
	items, err := iterationItems(iterable)
	if err != nil {
		return nil, locate(err, stmt.Iterable)
	}
	for _, item := range items {
		scope := runtime.NewEnvironment(env)
		if err := bindLoopVariables(scope, stmt.Variables, item); err != nil {
			return nil, locate(err, stmt)
		}
		stop, err := i.runLoopBody(ctx, stmt.Body, scope)
		if err != nil {
			return nil, err
		}
		if stop {
			break
		}
	}
	return runtime.None, nil
}

// iterationItems snapshots what a for loop walks over. Arrays are copied up
// front so mutation inside the body does not affect the iteration.
func iterationItems(val runtime.Value) ([]runtime.Value, error) {
	switch v := val.(type) {
	case *runtime.ArrayValue:
		return v.Snapshot(), nil
	case runtime.TupleValue:
		return v.Elements(), nil
	case *runtime.HashMapValue:
		entries := v.Entries()
		items := make([]runtime.Value, len(entries))
		for idx, entry := range entries {
			items[idx] = runtime.NewTuple([]runtime.Value{entry.Key, entry.Value})
		}
		return items, nil
	case runtime.StringValue:
		runes := []rune(v.Val)
		items := make([]runtime.Value, len(runes))
		for idx, r := range runes {
			items[idx] = runtime.StringValue{Val: string(r)}
		}
		return items, nil
	default:
		return nil, runtime.TypeErrorf("%s is not iterable", val.Kind())
	}
}

func bindLoopVariables(env *runtime.Environment, names []*ast.Identifier, item runtime.Value) error {
	if len(names) == 1 {
		env.Define(names[0].Name, item)
		return nil
	}
	var parts []runtime.Value
	switch v := item.(type) {
	case runtime.TupleValue:
		parts = v.Elements()
	case *runtime.ArrayValue:
		parts = v.Snapshot()
	default:
		return runtime.TypeErrorf("cannot unpack %s into %d loop variables", item.Kind(), len(names))
	}
	if len(parts) != len(names) {
		return runtime.TypeErrorf("cannot unpack %d values into %d loop variables", len(parts), len(names))
	}
	for idx, name := range names {
		env.Define(name.Name, parts[idx])
	}
	return nil
}

func (i *Interpreter) evaluateImport(stmt *ast.ImportStatement, env *runtime.Environment) (runtime.Value, error) {
	module, ok := i.module(stmt.Module.Name)
	if !ok {
		return nil, locate(runtime.NameErrorf("unknown module '%s'", stmt.Module.Name), stmt.Module)
	}
	env.Define(stmt.Binding(), module)
	return runtime.None, nil
}

// locate stamps the node's start position onto evaluation errors that do not
// carry one yet.
func locate(err error, node ast.Node) error {
	rerr, ok := err.(*runtime.Error)
	if !ok || node == nil {
		return err
	}
	span := node.Span()
	if span.IsZero() {
		return rerr
	}
	return rerr.At(span.Start.Line, span.Start.Column)
}

func describeCallee(name string) string {
	if name == "" {
		return "anonymous function"
	}
	return fmt.Sprintf("function '%s'", name)
}
