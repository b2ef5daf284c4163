package interpreter

import (
	"context"

	"nikl/interpreter-go/pkg/ast"
	"nikl/interpreter-go/pkg/runtime"
)

func (i *Interpreter) evaluateExpression(ctx context.Context, node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return runtime.IntValue{Val: n.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: n.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BoolValue{Val: n.Value}, nil
	case *ast.NoneLiteral:
		return runtime.None, nil
	case *ast.Identifier:
		val, err := env.Get(n.Name)
		if err != nil {
			return nil, locate(err, n)
		}
		return val, nil
	case *ast.ArrayLiteral:
		vals, err := i.evaluateList(ctx, n.Elements, env)
		if err != nil {
			return nil, err
		}
		return runtime.NewArray(vals), nil
	case *ast.TupleLiteral:
		vals, err := i.evaluateList(ctx, n.Elements, env)
		if err != nil {
			return nil, err
		}
		return runtime.NewTuple(vals), nil
	case *ast.MapLiteral:
		return i.evaluateMapLiteral(ctx, n, env)
	case *ast.UnaryExpression:
		return i.evaluateUnary(ctx, n, env)
	case *ast.BinaryExpression:
		return i.evaluateBinary(ctx, n, env)
	case *ast.FunctionCall:
		return i.evaluateCall(ctx, n, env)
	case *ast.IndexExpression:
		obj, err := i.evaluateExpression(ctx, n.Object, env)
		if err != nil {
			return nil, err
		}
		idx, err := i.evaluateExpression(ctx, n.Index, env)
		if err != nil {
			return nil, err
		}
		val, err := indexValue(obj, idx)
		if err != nil {
			return nil, locate(err, n)
		}
		return val, nil
	case *ast.MemberAccessExpression:
		obj, err := i.evaluateExpression(ctx, n.Object, env)
		if err != nil {
			return nil, err
		}
		val, err := memberValue(obj, n.Member.Name)
		if err != nil {
			return nil, locate(err, n.Member)
		}
		return val, nil
	case *ast.FunctionLiteral:
		return &runtime.FunctionValue{
			Params:     n.Params,
			ReturnType: n.ReturnType,
			Body:       n.Body,
			Closure:    env,
		}, nil
	case *ast.SpawnExpression:
		return i.evaluateSpawn(ctx, n, env)
	case *ast.WaitExpression:
		return i.evaluateWait(ctx, n, env)
	default:
		return nil, locate(runtime.RuntimeErrorf("unsupported expression %T", node), node)
	}
}

func (i *Interpreter) evaluateList(ctx context.Context, exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	vals := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := i.evaluateExpression(ctx, expr, env)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, nil
}

func (i *Interpreter) evaluateMapLiteral(ctx context.Context, lit *ast.MapLiteral, env *runtime.Environment) (runtime.Value, error) {
	m := runtime.NewHashMap()
	for _, entry := range lit.Entries {
		key, err := i.evaluateExpression(ctx, entry.Key, env)
		if err != nil {
			return nil, err
		}
		val, err := i.evaluateExpression(ctx, entry.Value, env)
		if err != nil {
			return nil, err
		}
		if err := m.Set(key, val); err != nil {
			return nil, locate(err, entry.Key)
		}
	}
	return m, nil
}

func (i *Interpreter) evaluateUnary(ctx context.Context, expr *ast.UnaryExpression, env *runtime.Environment) (runtime.Value, error) {
	operand, err := i.evaluateExpression(ctx, expr.Operand, env)
	if err != nil {
		return nil, err
	}
	switch expr.Operator {
	case ast.UnaryOperatorNegate:
		switch v := operand.(type) {
		case runtime.IntValue:
			return runtime.IntValue{Val: -v.Val}, nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -v.Val}, nil
		}
		return nil, locate(runtime.TypeErrorf("cannot apply '-' to %s", operand.Kind()), expr)
	case ast.UnaryOperatorNot:
		b, ok := operand.(runtime.BoolValue)
		if !ok {
			return nil, locate(runtime.TypeErrorf("cannot apply 'not' to %s", operand.Kind()), expr)
		}
		return runtime.BoolValue{Val: !b.Val}, nil
	}
	return nil, locate(runtime.RuntimeErrorf("unknown unary operator %s", expr.Operator), expr)
}

func (i *Interpreter) evaluateBinary(ctx context.Context, expr *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(ctx, expr.Left, env)
	if err != nil {
		return nil, err
	}
	if expr.Operator == "and" || expr.Operator == "or" {
		return i.evaluateLogical(ctx, expr, left, env)
	}
	right, err := i.evaluateExpression(ctx, expr.Right, env)
	if err != nil {
		return nil, err
	}
	val, err := applyBinary(expr.Operator, left, right)
	if err != nil {
		return nil, locate(err, expr)
	}
	return val, nil
}

func (i *Interpreter) evaluateLogical(ctx context.Context, expr *ast.BinaryExpression, left runtime.Value, env *runtime.Environment) (runtime.Value, error) {
	lb, ok := left.(runtime.BoolValue)
	if !ok {
		return nil, locate(runtime.TypeErrorf("'%s' requires Bool operands, got %s", expr.Operator, left.Kind()), expr)
	}
	if (expr.Operator == "and" && !lb.Val) || (expr.Operator == "or" && lb.Val) {
		return lb, nil
	}
	right, err := i.evaluateExpression(ctx, expr.Right, env)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(runtime.BoolValue)
	if !ok {
		return nil, locate(runtime.TypeErrorf("'%s' requires Bool operands, got %s", expr.Operator, right.Kind()), expr)
	}
	return rb, nil
}

func (i *Interpreter) evaluateCall(ctx context.Context, call *ast.FunctionCall, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.evaluateExpression(ctx, call.Callee, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evaluateList(ctx, call.Arguments, env)
	if err != nil {
		return nil, err
	}
	val, err := i.callValue(ctx, callee, args, env)
	if err != nil {
		return nil, locate(err, call)
	}
	return val, nil
}

// callValue invokes an already evaluated callee. Errors raised inside a
// script function body already carry their own position.
func (i *Interpreter) callValue(ctx context.Context, callee runtime.Value, args []runtime.Value, env *runtime.Environment) (runtime.Value, error) {
	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return i.invokeFunction(ctx, fn, args)
	case *runtime.NativeFunctionValue:
		if err := checkNativeArity(fn, len(args)); err != nil {
			return nil, err
		}
		return fn.Impl(&runtime.NativeCallContext{Ctx: ctx, Env: env}, args)
	default:
		return nil, runtime.TypeErrorf("%s is not callable", callee.Kind())
	}
}

func checkNativeArity(fn *runtime.NativeFunctionValue, got int) error {
	if fn.Arity >= 0 {
		if got != fn.Arity {
			return runtime.TypeErrorf("function '%s' expects %d arguments, got %d", fn.Name, fn.Arity, got)
		}
		return nil
	}
	if got < fn.MinArity {
		return runtime.TypeErrorf("function '%s' expects at least %d arguments, got %d", fn.Name, fn.MinArity, got)
	}
	return nil
}

func (i *Interpreter) invokeFunction(ctx context.Context, fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	if len(args) != len(fn.Params) {
		return nil, runtime.TypeErrorf("%s expects %d arguments, got %d", describeCallee(fn.Name), len(fn.Params), len(args))
	}
	state := taskStateFrom(ctx)
	if state != nil {
		if state.depth >= i.maxDepth {
			return nil, runtime.RuntimeErrorf("maximum call depth %d exceeded", i.maxDepth)
		}
		state.depth++
		defer func() { state.depth-- }()
	}
	scope := runtime.NewEnvironment(fn.Closure)
	for idx, param := range fn.Params {
		i.checkAnnotation(ctx, param.Type, args[idx], "parameter '"+param.Name.Name+"' of "+describeCallee(fn.Name))
		scope.Define(param.Name.Name, args[idx])
	}
	val, err := i.evaluateBlock(ctx, fn.Body, scope)
	if err != nil {
		switch sig := err.(type) {
		case returnSignal:
			val = sig.value
		case breakSignal:
			return nil, runtime.RuntimeErrorf("'break' outside loop")
		case continueSignal:
			return nil, runtime.RuntimeErrorf("'continue' outside loop")
		default:
			return nil, err
		}
	} else {
		val = runtime.None
	}
	i.checkAnnotation(ctx, fn.ReturnType, val, "return value of "+describeCallee(fn.Name))
	return val, nil
}
