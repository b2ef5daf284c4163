package ast

// Identifier and literal helpers.

func ID(name string) *Identifier {
	return NewIdentifier(name)
}

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value)
}

func Flt(value float64) *FloatLiteral {
	return NewFloatLiteral(value)
}

func Str(value string) *StringLiteral {
	return NewStringLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func None() *NoneLiteral {
	return NewNoneLiteral()
}

func Arr(elements ...Expression) *ArrayLiteral {
	return NewArrayLiteral(elements)
}

func Tup(elements ...Expression) *TupleLiteral {
	return NewTupleLiteral(elements)
}

// Map builds a map literal from alternating key and value expressions.
func Map(kv ...Expression) *MapLiteral {
	entries := make([]*MapEntry, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		entries = append(entries, NewMapEntry(kv[i], kv[i+1]))
	}
	return NewMapLiteral(entries)
}

func Ty(name string) *TypeAnnotation {
	return NewTypeAnnotation(name)
}

// Expression helpers.

func Un(operator UnaryOperator, operand Expression) *UnaryExpression {
	return NewUnaryExpression(operator, operand)
}

func Bin(operator string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(operator, left, right)
}

func CallExpr(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(callee, args)
}

func Call(name string, args ...Expression) *FunctionCall {
	return CallExpr(ID(name), args...)
}

func Index(object, index Expression) *IndexExpression {
	return NewIndexExpression(object, index)
}

func Member(object Expression, name string) *MemberAccessExpression {
	return NewMemberAccessExpression(object, ID(name))
}

func Spawn(call *FunctionCall) *SpawnExpression {
	return NewSpawnExpression(call)
}

func Wait(task Expression) *WaitExpression {
	return NewWaitExpression(task)
}

func Lam(params []*FunctionParameter, body ...Statement) *FunctionLiteral {
	return NewFunctionLiteral(params, nil, Block(body...))
}

// Statement helpers.

func Block(statements ...Statement) *BlockStatement {
	return NewBlockStatement(statements)
}

func Param(name string) *FunctionParameter {
	return NewFunctionParameter(ID(name), nil)
}

func TypedParam(name, typ string) *FunctionParameter {
	return NewFunctionParameter(ID(name), Ty(typ))
}

func Params(names ...string) []*FunctionParameter {
	out := make([]*FunctionParameter, len(names))
	for i, name := range names {
		out[i] = Param(name)
	}
	return out
}

func Fn(name string, params []*FunctionParameter, body ...Statement) *FunctionDeclaration {
	return NewFunctionDeclaration(ID(name), params, nil, Block(body...))
}

func Let(name string, value Expression) *VariableDeclaration {
	return NewVariableDeclaration(false, ID(name), nil, value)
}

func Const(name string, value Expression) *VariableDeclaration {
	return NewVariableDeclaration(true, ID(name), nil, value)
}

func Assign(target AssignmentTarget, value Expression) *AssignmentStatement {
	return NewAssignmentStatement(target, value)
}

func AssignIndex(object, index, value Expression) *AssignmentStatement {
	return NewAssignmentStatement(NewIndexExpression(object, index), value)
}

func If(condition Expression, then *BlockStatement, elseBody *BlockStatement) *IfStatement {
	return NewIfStatement(condition, then, nil, elseBody)
}

func For(variable string, iterable Expression, body ...Statement) *ForStatement {
	return NewForStatement([]*Identifier{ID(variable)}, iterable, Block(body...))
}

func While(condition Expression, body ...Statement) *WhileStatement {
	return NewWhileStatement(condition, Block(body...))
}

func Loop(body ...Statement) *LoopStatement {
	return NewLoopStatement(Block(body...))
}

func Ret(argument Expression) *ReturnStatement {
	return NewReturnStatement(argument)
}

func Brk() *BreakStatement {
	return NewBreakStatement()
}

func Cont() *ContinueStatement {
	return NewContinueStatement()
}

func Del(name string) *DeleteStatement {
	return NewDeleteStatement(ID(name))
}

func Import(module string) *ImportStatement {
	return NewImportStatement(ID(module), nil)
}

func Prog(statements ...Statement) *Program {
	return NewProgram(statements)
}
