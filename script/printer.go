// printer.go — renders an AST back to canonical source.
//
// The output is deterministic and re-parses to a structurally identical
// tree: FormatProgram(Parse(FormatProgram(ast))) == FormatProgram(ast).
// An else-block holding a single nested If prints as an `elif` chain, which
// is exactly the shape the parser desugars `elif` into.
package script

import (
	"fmt"
	"strings"
)

// FormatProgram renders prog as canonical source text.
func FormatProgram(prog *Program) string {
	var pr printer
	for _, s := range prog.Stmts {
		pr.stmt(s, 0)
	}
	return pr.b.String()
}

// FormatExpr renders a single expression.
func FormatExpr(e Expr) string {
	var pr printer
	pr.expr(e, 0)
	return pr.b.String()
}

type printer struct {
	b strings.Builder
}

func (pr *printer) indent(depth int) {
	pr.b.WriteString(strings.Repeat("  ", depth))
}

func (pr *printer) line(depth int, s string) {
	pr.indent(depth)
	pr.b.WriteString(s)
	pr.b.WriteByte('\n')
}

func (pr *printer) stmt(s Stmt, depth int) {
	switch n := s.(type) {
	case *VarDecl:
		pr.line(depth, "var "+n.Name+" = "+FormatExpr(n.Init))
	case *Assign:
		pr.line(depth, FormatExpr(n.Target)+" = "+FormatExpr(n.Value))
	case *ExprStmt:
		pr.line(depth, FormatExpr(n.Call))
	case *Block:
		pr.line(depth, "do")
		pr.block(n, depth+1)
		pr.line(depth, "end")
	case *If:
		pr.ifChain(n, depth, "if")
	case *While:
		pr.line(depth, "while "+FormatExpr(n.Cond)+" do")
		pr.block(n.Body, depth+1)
		pr.line(depth, "end")
	case *For:
		pr.line(depth, "for "+n.Name+" in "+FormatExpr(n.Iterable)+" do")
		pr.block(n.Body, depth+1)
		pr.line(depth, "end")
	case *ProcDecl:
		pr.line(depth, "proc "+n.Name+"("+strings.Join(n.Params, ", ")+")")
		pr.block(n.Body, depth+1)
		pr.line(depth, "end")
	case *Return:
		if n.Value != nil {
			pr.line(depth, "return "+FormatExpr(n.Value))
		} else {
			pr.line(depth, "return")
		}
	}
}

func (pr *printer) block(blk *Block, depth int) {
	for _, s := range blk.Stmts {
		pr.stmt(s, depth)
	}
}

// ifChain prints if/elif chains without re-nesting the output.
func (pr *printer) ifChain(n *If, depth int, kw string) {
	pr.line(depth, kw+" "+FormatExpr(n.Cond)+" then")
	pr.block(n.Then, depth+1)
	if n.Else != nil {
		if nested, ok := elifTail(n.Else); ok {
			pr.ifChain(nested, depth, "elif")
			return
		}
		pr.line(depth, "else")
		pr.block(n.Else, depth+1)
	}
	pr.line(depth, "end")
}

// elifTail reports whether an else-block is exactly one nested If, the shape
// `elif` desugars into.
func elifTail(blk *Block) (*If, bool) {
	if len(blk.Stmts) == 1 {
		if nested, ok := blk.Stmts[0].(*If); ok {
			return nested, true
		}
	}
	return nil, false
}

// ───────────────────────────── expressions ─────────────────────────────

// opBP mirrors the parser's binding powers so parentheses are emitted only
// where re-parsing would otherwise change the shape.
func opBP(op string) int {
	switch op {
	case "or":
		return 10
	case "and":
		return 20
	case "==", "!=":
		return 30
	case "<", "<=", ">", ">=":
		return 40
	case "+", "-", "&":
		return 50
	case "*", "/", "mod":
		return 60
	}
	return 0
}

const unaryBP = 70

func (pr *printer) expr(e Expr, parentBP int) {
	switch n := e.(type) {
	case *Literal:
		pr.b.WriteString(formatLiteral(n.Value))
	case *Identifier:
		pr.b.WriteString(n.Name)
	case *BinaryOp:
		bp := opBP(n.Op)
		if bp <= parentBP {
			pr.b.WriteByte('(')
		}
		pr.expr(n.Left, bp-1) // left-assoc: equal precedence on the left is fine
		pr.b.WriteString(" " + n.Op + " ")
		pr.expr(n.Right, bp)
		if bp <= parentBP {
			pr.b.WriteByte(')')
		}
	case *UnaryOp:
		if n.Op == "not" {
			pr.b.WriteString("not ")
		} else {
			pr.b.WriteString(n.Op)
		}
		pr.expr(n.Operand, unaryBP-1)
	case *CallExpr:
		pr.postfixBase(n.Callee)
		pr.b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				pr.b.WriteString(", ")
			}
			pr.expr(a, 0)
		}
		pr.b.WriteByte(')')
	case *IndexExpr:
		pr.postfixBase(n.Base)
		pr.b.WriteByte('[')
		pr.expr(n.Index, 0)
		pr.b.WriteByte(']')
	case *ListLiteral:
		pr.b.WriteByte('[')
		for i, el := range n.Elements {
			if i > 0 {
				pr.b.WriteString(", ")
			}
			pr.expr(el, 0)
		}
		pr.b.WriteByte(']')
	case *MapLiteral:
		pr.b.WriteByte('{')
		for i, pair := range n.Pairs {
			if i > 0 {
				pr.b.WriteString(", ")
			}
			pr.b.WriteString(formatMapKey(pair.Key))
			pr.b.WriteString(": ")
			pr.expr(pair.Value, 0)
		}
		pr.b.WriteByte('}')
	}
}

// postfixBase prints the base of a call or index, parenthesizing operators
// so the postfix binds to the whole base on re-parse.
func (pr *printer) postfixBase(e Expr) {
	switch e.(type) {
	case *BinaryOp, *UnaryOp:
		pr.b.WriteByte('(')
		pr.expr(e, 0)
		pr.b.WriteByte(')')
	default:
		pr.expr(e, 0)
	}
}

func formatLiteral(v Value) string {
	switch v.Tag {
	case TagStr:
		return quoteString(v.AsStr())
	case TagFloat:
		// 'f' keeps the digits.digits shape the lexer requires.
		s := fmt.Sprintf("%v", v.AsFloat())
		if strings.ContainsAny(s, "eE") {
			s = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v.AsFloat()), "0"), ".")
		}
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	default:
		return v.Display()
	}
}

// quoteString emits only the escape sequences the lexer understands.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatMapKey(key string) string {
	if key == "" {
		return quoteString(key)
	}
	if _, reserved := keywords[key]; reserved {
		return quoteString(key)
	}
	for i := 0; i < len(key); i++ {
		ch := key[i]
		if i == 0 && !isAlpha(ch) {
			return quoteString(key)
		}
		if !isAlphaNum(ch) {
			return quoteString(key)
		}
	}
	return key
}
