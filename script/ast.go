// ast.go — the typed syntax tree produced by the parser.
//
// Every node owns its children exclusively: the tree has no sharing and no
// cycles, and nodes are never mutated after parsing. Each node records the
// position of its leading token for diagnostics.
package script

// Pos is a source position carried by every node (1-based line, 0-based col).
type Pos struct {
	Line int
	Col  int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Pos() Pos
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is an ordered sequence of top-level statements. Unlike Block it
// does not introduce a scope of its own; the lifecycle driver decides which
// environment a program runs against.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Pos() Pos {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return Pos{Line: 1}
}

// Block is an ordered statement sequence that introduces a new lexical scope.
type Block struct {
	At    Pos
	Stmts []Stmt
}

func (b *Block) Pos() Pos  { return b.At }
func (b *Block) stmtNode() {}

// VarDecl is `var name = expr`: always binds in the innermost scope.
type VarDecl struct {
	At   Pos
	Name string
	Init Expr
}

func (d *VarDecl) Pos() Pos  { return d.At }
func (d *VarDecl) stmtNode() {}

// Assign is `target = expr`. Target is an *Identifier or an *IndexExpr.
type Assign struct {
	At     Pos
	Target Expr
	Value  Expr
}

func (a *Assign) Pos() Pos  { return a.At }
func (a *Assign) stmtNode() {}

// ExprStmt wraps a bare call expression used as a statement.
type ExprStmt struct {
	Call *CallExpr
}

func (s *ExprStmt) Pos() Pos  { return s.Call.Pos() }
func (s *ExprStmt) stmtNode() {}

// If executes exactly one branch. Else may be nil. An `elif` chain parses as
// an Else block containing a single nested If.
type If struct {
	At   Pos
	Cond Expr
	Then *Block
	Else *Block
}

func (i *If) Pos() Pos  { return i.At }
func (i *If) stmtNode() {}

// While re-evaluates Cond before each iteration; each iteration's body runs
// in a fresh child scope.
type While struct {
	At   Pos
	Cond Expr
	Body *Block
}

func (w *While) Pos() Pos  { return w.At }
func (w *While) stmtNode() {}

// For iterates Iterable, binding Name in a per-iteration child scope.
type For struct {
	At       Pos
	Name     string
	Iterable Expr
	Body     *Block
}

func (f *For) Pos() Pos  { return f.At }
func (f *For) stmtNode() {}

// ProcDecl declares a named procedure. The closure captures the environment
// active at the point of declaration.
type ProcDecl struct {
	At     Pos
	Name   string
	Params []string
	Body   *Block
}

func (p *ProcDecl) Pos() Pos  { return p.At }
func (p *ProcDecl) stmtNode() {}

// Return unwinds to the nearest enclosing call boundary. Value may be nil.
type Return struct {
	At    Pos
	Value Expr
}

func (r *Return) Pos() Pos  { return r.At }
func (r *Return) stmtNode() {}

// ----- expressions -----

// Identifier is a name reference resolved through the environment chain.
type Identifier struct {
	At   Pos
	Name string
}

func (e *Identifier) Pos() Pos  { return e.At }
func (e *Identifier) exprNode() {}

// Literal holds an already-materialized scalar value (nil, bool, int, float,
// string).
type Literal struct {
	At    Pos
	Value Value
}

func (e *Literal) Pos() Pos  { return e.At }
func (e *Literal) exprNode() {}

// BinaryOp is a binary operator application. Op is the lexeme
// ("+", "-", "*", "/", "mod", "&", "==", "!=", "<", "<=", ">", ">=",
// "and", "or").
type BinaryOp struct {
	At    Pos
	Op    string
	Left  Expr
	Right Expr
}

func (e *BinaryOp) Pos() Pos  { return e.At }
func (e *BinaryOp) exprNode() {}

// UnaryOp is a prefix operator application ("-" or "not").
type UnaryOp struct {
	At      Pos
	Op      string
	Operand Expr
}

func (e *UnaryOp) Pos() Pos  { return e.At }
func (e *UnaryOp) exprNode() {}

// CallExpr applies a callee to evaluated arguments.
type CallExpr struct {
	At     Pos
	Callee Expr
	Args   []Expr
}

func (e *CallExpr) Pos() Pos  { return e.At }
func (e *CallExpr) exprNode() {}

// IndexExpr is `base[index]`. The field sugar `m.key` parses to an IndexExpr
// whose Index is a string Literal.
type IndexExpr struct {
	At    Pos
	Base  Expr
	Index Expr
}

func (e *IndexExpr) Pos() Pos  { return e.At }
func (e *IndexExpr) exprNode() {}

// ListLiteral is `[e1, e2, ...]`.
type ListLiteral struct {
	At       Pos
	Elements []Expr
}

func (e *ListLiteral) Pos() Pos  { return e.At }
func (e *ListLiteral) exprNode() {}

// MapPair is one `key: value` entry of a map literal.
type MapPair struct {
	Key   string
	Value Expr
}

// MapLiteral is `{k1: v1, ...}`; insertion order is preserved.
type MapLiteral struct {
	At    Pos
	Pairs []MapPair
}

func (e *MapLiteral) Pos() Pos  { return e.At }
func (e *MapLiteral) exprNode() {}
