package ast

// TypeAnnotation names a type in a declaration. Annotations are recorded but
// never enforced by the parser.
type TypeAnnotation struct {
	nodeImpl

	Name string `json:"name"`
}

func NewTypeAnnotation(name string) *TypeAnnotation {
	return &TypeAnnotation{nodeImpl: newNodeImpl(NodeTypeAnnotation), Name: name}
}

type FunctionParameter struct {
	nodeImpl

	Name *Identifier     `json:"name"`
	Type *TypeAnnotation `json:"type,omitempty"`
}

func NewFunctionParameter(name *Identifier, typ *TypeAnnotation) *FunctionParameter {
	return &FunctionParameter{nodeImpl: newNodeImpl(NodeFunctionParameter), Name: name, Type: typ}
}

type FunctionDeclaration struct {
	nodeImpl
	statementMarker

	ID         *Identifier          `json:"id"`
	Params     []*FunctionParameter `json:"params"`
	ReturnType *TypeAnnotation      `json:"returnType,omitempty"`
	Body       *BlockStatement      `json:"body"`
}

func NewFunctionDeclaration(id *Identifier, params []*FunctionParameter, returnType *TypeAnnotation, body *BlockStatement) *FunctionDeclaration {
	return &FunctionDeclaration{
		nodeImpl:   newNodeImpl(NodeFunctionDeclaration),
		ID:         id,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
	}
}

// FunctionLiteral is an anonymous `fn (params) { ... }` expression.
type FunctionLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Params     []*FunctionParameter `json:"params"`
	ReturnType *TypeAnnotation      `json:"returnType,omitempty"`
	Body       *BlockStatement      `json:"body"`
}

func NewFunctionLiteral(params []*FunctionParameter, returnType *TypeAnnotation, body *BlockStatement) *FunctionLiteral {
	return &FunctionLiteral{
		nodeImpl:   newNodeImpl(NodeFunctionLiteral),
		Params:     params,
		ReturnType: returnType,
		Body:       body,
	}
}

type VariableDeclaration struct {
	nodeImpl
	statementMarker

	Constant bool            `json:"constant"`
	Name     *Identifier     `json:"name"`
	Type     *TypeAnnotation `json:"type,omitempty"`
	Value    Expression      `json:"value"`
}

func NewVariableDeclaration(constant bool, name *Identifier, typ *TypeAnnotation, value Expression) *VariableDeclaration {
	return &VariableDeclaration{
		nodeImpl: newNodeImpl(NodeVariableDeclaration),
		Constant: constant,
		Name:     name,
		Type:     typ,
		Value:    value,
	}
}

type AssignmentStatement struct {
	nodeImpl
	statementMarker

	Target AssignmentTarget `json:"target"`
	Value  Expression       `json:"value"`
}

func NewAssignmentStatement(target AssignmentTarget, value Expression) *AssignmentStatement {
	return &AssignmentStatement{nodeImpl: newNodeImpl(NodeAssignmentStatement), Target: target, Value: value}
}

type BlockStatement struct {
	nodeImpl
	statementMarker

	Body []Statement `json:"body"`
}

func NewBlockStatement(body []Statement) *BlockStatement {
	return &BlockStatement{nodeImpl: newNodeImpl(NodeBlockStatement), Body: body}
}

type ElifClause struct {
	nodeImpl

	Condition Expression      `json:"condition"`
	Body      *BlockStatement `json:"body"`
}

func NewElifClause(condition Expression, body *BlockStatement) *ElifClause {
	return &ElifClause{nodeImpl: newNodeImpl(NodeElifClause), Condition: condition, Body: body}
}

type IfStatement struct {
	nodeImpl
	statementMarker

	Condition Expression      `json:"condition"`
	Then      *BlockStatement `json:"then"`
	Elifs     []*ElifClause   `json:"elifs,omitempty"`
	Else      *BlockStatement `json:"else,omitempty"`
}

func NewIfStatement(condition Expression, then *BlockStatement, elifs []*ElifClause, elseBody *BlockStatement) *IfStatement {
	return &IfStatement{
		nodeImpl:  newNodeImpl(NodeIfStatement),
		Condition: condition,
		Then:      then,
		Elifs:     elifs,
		Else:      elseBody,
	}
}

// ForStatement binds one variable per element, or destructures each element
// when more than one variable is given.
type ForStatement struct {
	nodeImpl
	statementMarker

	Variables []*Identifier   `json:"variables"`
	Iterable  Expression      `json:"iterable"`
	Body      *BlockStatement `json:"body"`
}

func NewForStatement(variables []*Identifier, iterable Expression, body *BlockStatement) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Variables: variables, Iterable: iterable, Body: body}
}

type WhileStatement struct {
	nodeImpl
	statementMarker

	Condition Expression      `json:"condition"`
	Body      *BlockStatement `json:"body"`
}

func NewWhileStatement(condition Expression, body *BlockStatement) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: condition, Body: body}
}

type LoopStatement struct {
	nodeImpl
	statementMarker

	Body *BlockStatement `json:"body"`
}

func NewLoopStatement(body *BlockStatement) *LoopStatement {
	return &LoopStatement{nodeImpl: newNodeImpl(NodeLoopStatement), Body: body}
}

type BreakStatement struct {
	nodeImpl
	statementMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type ContinueStatement struct {
	nodeImpl
	statementMarker
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

type ReturnStatement struct {
	nodeImpl
	statementMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

type DeleteStatement struct {
	nodeImpl
	statementMarker

	Name *Identifier `json:"name"`
}

func NewDeleteStatement(name *Identifier) *DeleteStatement {
	return &DeleteStatement{nodeImpl: newNodeImpl(NodeDeleteStatement), Name: name}
}

type ImportStatement struct {
	nodeImpl
	statementMarker

	Module *Identifier `json:"module"`
	Alias  *Identifier `json:"alias,omitempty"`
}

func NewImportStatement(module, alias *Identifier) *ImportStatement {
	return &ImportStatement{nodeImpl: newNodeImpl(NodeImportStatement), Module: module, Alias: alias}
}

// Binding returns the name the import is bound to.
func (s *ImportStatement) Binding() string {
	if s.Alias != nil {
		return s.Alias.Name
	}
	return s.Module.Name
}

// Program is the top-level statement sequence of one source text.
type Program struct {
	nodeImpl

	Body []Statement `json:"body"`
}

func NewProgram(body []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Body: body}
}
