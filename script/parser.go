// parser.go — recursive-descent parser with a precedence-climbing expression
// grammar.
//
// Statement grammar:
//
//	stmt   := 'var' ID '=' expr
//	        | 'proc' ID '(' params? ')' stmt* 'end'
//	        | 'if' expr 'then' stmt* ('elif' expr 'then' stmt*)*
//	          ('else' stmt*)? 'end'
//	        | 'while' expr 'do' stmt* 'end'
//	        | 'for' ID 'in' expr 'do' stmt* 'end'
//	        | 'return' expr?            (expr only when on the same line)
//	        | 'do' stmt* 'end'          (nested scope)
//	        | target '=' expr           (target: name, index, or field)
//	        | call-expression
//
// Expression precedence, low to high:
//
//	or | and | == != | < <= > >= | + - & | * / mod | unary - not | call/index
//
// An 'elif' chain desugars to an else-block holding a single nested If, which
// is what the printer relies on to reproduce 'elif' on output.
//
// Parse failures abort the whole fragment; there is no recovery or resync.
package script

// Parse tokenizes and parses a complete source fragment.
func Parse(src string) (*Program, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses an already-tokenized fragment.
func ParseTokens(toks []Token) (*Program, error) {
	p := &parser{toks: toks}
	return p.program()
}

// ParseExpression parses src as a single expression (the REPL uses this to
// evaluate inputs that are not statements).
func ParseExpression(src string) (Expr, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errExpected("end of input")
	}
	return e, nil
}

type parser struct {
	toks []Token
	i    int
}

// ───────────────────────── token basics & helpers ─────────────────────────

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		if len(p.toks) == 0 {
			return Token{Type: EOF, Line: 1}
		}
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *parser) match(tts ...TokenType) bool {
	for _, tt := range tts {
		if p.peek().Type == tt {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) need(tt TokenType) (Token, error) {
	if p.match(tt) {
		return p.prev(), nil
	}
	return Token{}, p.errExpected(tt.Name())
}

func (p *parser) errExpected(expected string) error {
	g := p.peek()
	found := g.Type.Name()
	if g.Type != EOF && g.Lexeme != "" {
		found = "'" + g.Lexeme + "'"
	}
	return &ParseError{Line: g.Line, Col: g.Col, Expected: expected, Found: found}
}

func pos(t Token) Pos { return Pos{Line: t.Line, Col: t.Col} }

// ─────────────────────────────── statements ───────────────────────────────

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

// stmtList parses statements until one of the terminator token types is seen
// (without consuming it).
func (p *parser) stmtList(at Pos, terminators ...TokenType) (*Block, error) {
	blk := &Block{At: at}
	for {
		if p.atEnd() {
			return nil, p.errExpected("'end'")
		}
		for _, tt := range terminators {
			if p.check(tt) {
				return blk, nil
			}
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, s)
	}
}

func (p *parser) statement() (Stmt, error) {
	switch p.peek().Type {
	case VAR:
		return p.varDecl()
	case PROC:
		return p.procDecl()
	case IF:
		return p.ifStmt()
	case WHILE:
		return p.whileStmt()
	case FOR:
		return p.forStmt()
	case RETURN:
		return p.returnStmt()
	case DO:
		return p.blockStmt()
	default:
		return p.exprOrAssign()
	}
}

func (p *parser) varDecl() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'var'
	name, err := p.need(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(ASSIGN); err != nil {
		return nil, err
	}
	init, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &VarDecl{At: pos(kw), Name: name.Lexeme, Init: init}, nil
}

func (p *parser) procDecl() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'proc'
	name, err := p.need(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(LPAREN); err != nil {
		return nil, err
	}
	var params []string
	if !p.check(RPAREN) {
		for {
			prm, err := p.need(ID)
			if err != nil {
				return nil, err
			}
			params = append(params, prm.Lexeme)
			if !p.match(COMMA) {
				break
			}
		}
	}
	if _, err := p.need(RPAREN); err != nil {
		return nil, err
	}
	body, err := p.stmtList(pos(kw), END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END); err != nil {
		return nil, err
	}
	return &ProcDecl{At: pos(kw), Name: name.Lexeme, Params: params, Body: body}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'if' or 'elif'
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(THEN); err != nil {
		return nil, err
	}
	then, err := p.stmtList(pos(kw), ELIF, ELSE, END)
	if err != nil {
		return nil, err
	}
	node := &If{At: pos(kw), Cond: cond, Then: then}

	switch p.peek().Type {
	case ELIF:
		at := pos(p.peek())
		nested, err := p.ifStmt() // consumes through the shared 'end'
		if err != nil {
			return nil, err
		}
		node.Else = &Block{At: at, Stmts: []Stmt{nested}}
		return node, nil
	case ELSE:
		at := pos(p.peek())
		p.i++
		els, err := p.stmtList(at, END)
		if err != nil {
			return nil, err
		}
		node.Else = els
	}
	if _, err := p.need(END); err != nil {
		return nil, err
	}
	return node, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'while'
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(DO); err != nil {
		return nil, err
	}
	body, err := p.stmtList(pos(kw), END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END); err != nil {
		return nil, err
	}
	return &While{At: pos(kw), Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'for'
	name, err := p.need(ID)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(IN); err != nil {
		return nil, err
	}
	iter, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.need(DO); err != nil {
		return nil, err
	}
	body, err := p.stmtList(pos(kw), END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END); err != nil {
		return nil, err
	}
	return &For{At: pos(kw), Name: name.Lexeme, Iterable: iter, Body: body}, nil
}

func (p *parser) returnStmt() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'return'
	node := &Return{At: pos(kw)}
	// A value is only consumed when it starts on the same line as 'return';
	// otherwise the next line is an independent statement.
	if !p.atEnd() && p.peek().Line == kw.Line && startsExpression(p.peek().Type) {
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		node.Value = v
	}
	return node, nil
}

func startsExpression(tt TokenType) bool {
	switch tt {
	case ID, STRING, INTEGER, FLOAT, BOOLEAN, NIL,
		LPAREN, LBRACKET, LBRACE, MINUS, NOT:
		return true
	}
	return false
}

func (p *parser) blockStmt() (Stmt, error) {
	kw := p.peek()
	p.i++ // 'do'
	blk, err := p.stmtList(pos(kw), END)
	if err != nil {
		return nil, err
	}
	if _, err := p.need(END); err != nil {
		return nil, err
	}
	return blk, nil
}

// exprOrAssign parses an expression; a trailing '=' turns it into an
// assignment (the target must be a name, index, or field expression), and
// otherwise the expression must be a bare call.
func (p *parser) exprOrAssign() (Stmt, error) {
	at := pos(p.peek())
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.match(ASSIGN) {
		switch e.(type) {
		case *Identifier, *IndexExpr:
		default:
			g := p.prev()
			return nil, &ParseError{Line: g.Line, Col: g.Col,
				Expected: "assignable target (name, index, or field)", Found: "'='"}
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		return &Assign{At: at, Target: e, Value: v}, nil
	}
	call, ok := e.(*CallExpr)
	if !ok {
		return nil, &ParseError{Line: at.Line, Col: at.Col,
			Expected: "statement", Found: "expression with no effect"}
	}
	return &ExprStmt{Call: call}, nil
}

// ────────────────────────────── expressions ───────────────────────────────

// binding power per operator token; zero means "not a binary operator".
func lbp(tt TokenType) int {
	switch tt {
	case OR:
		return 10
	case AND:
		return 20
	case EQ, NEQ:
		return 30
	case LESS, LESS_EQ, GREATER, GREATER_EQ:
		return 40
	case PLUS, MINUS, CONCAT:
		return 50
	case STAR, SLASH, MOD:
		return 60
	}
	return 0
}

func (p *parser) expression() (Expr, error) {
	return p.binary(0)
}

func (p *parser) binary(minBP int) (Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek()
		bp := lbp(op.Type)
		if bp == 0 || bp <= minBP {
			return left, nil
		}
		p.i++
		right, err := p.binary(bp)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{At: pos(op), Op: op.Lexeme, Left: left, Right: right}
	}
}

func (p *parser) unary() (Expr, error) {
	if p.check(MINUS) || p.check(NOT) {
		op := p.peek()
		p.i++
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{At: pos(op), Op: op.Lexeme, Operand: operand}, nil
	}
	return p.postfix()
}

// postfix handles call, index, and field-sugar chains on a primary.
func (p *parser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(LPAREN):
			open := p.peek()
			p.i++
			var args []Expr
			if !p.check(RPAREN) {
				for {
					a, err := p.expression()
					if err != nil {
						return nil, err
					}
					args = append(args, a)
					if !p.match(COMMA) {
						break
					}
				}
			}
			if _, err := p.need(RPAREN); err != nil {
				return nil, err
			}
			e = &CallExpr{At: pos(open), Callee: e, Args: args}
		case p.check(LBRACKET):
			open := p.peek()
			p.i++
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.need(RBRACKET); err != nil {
				return nil, err
			}
			e = &IndexExpr{At: pos(open), Base: e, Index: idx}
		case p.check(PERIOD):
			dot := p.peek()
			p.i++
			name, err := p.need(ID)
			if err != nil {
				return nil, err
			}
			// m.key is sugar for m["key"].
			e = &IndexExpr{At: pos(dot), Base: e,
				Index: &Literal{At: pos(name), Value: Str(name.Lexeme)}}
		default:
			return e, nil
		}
	}
}

func (p *parser) primary() (Expr, error) {
	t := p.peek()
	switch t.Type {
	case INTEGER:
		p.i++
		return &Literal{At: pos(t), Value: Int(t.Literal.(int64))}, nil
	case FLOAT:
		p.i++
		return &Literal{At: pos(t), Value: Float(t.Literal.(float64))}, nil
	case STRING:
		p.i++
		return &Literal{At: pos(t), Value: Str(t.Literal.(string))}, nil
	case BOOLEAN:
		p.i++
		return &Literal{At: pos(t), Value: Bool(t.Literal.(bool))}, nil
	case NIL:
		p.i++
		return &Literal{At: pos(t), Value: Nil}, nil
	case ID:
		p.i++
		return &Identifier{At: pos(t), Name: t.Lexeme}, nil
	case LPAREN:
		p.i++
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.need(RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	case LBRACKET:
		return p.listLiteral()
	case LBRACE:
		return p.mapLiteral()
	default:
		return nil, p.errExpected("expression")
	}
}

func (p *parser) listLiteral() (Expr, error) {
	open := p.peek()
	p.i++ // '['
	node := &ListLiteral{At: pos(open)}
	if !p.check(RBRACKET) {
		for {
			e, err := p.expression()
			if err != nil {
				return nil, err
			}
			node.Elements = append(node.Elements, e)
			if !p.match(COMMA) {
				break
			}
			if p.check(RBRACKET) { // trailing comma
				break
			}
		}
	}
	if _, err := p.need(RBRACKET); err != nil {
		return nil, err
	}
	return node, nil
}

// mapLiteral parses `{key: value, ...}`; keys are identifiers or strings.
func (p *parser) mapLiteral() (Expr, error) {
	open := p.peek()
	p.i++ // '{'
	node := &MapLiteral{At: pos(open)}
	if !p.check(RBRACE) {
		for {
			var key string
			switch p.peek().Type {
			case ID:
				key = p.peek().Lexeme
				p.i++
			case STRING:
				key = p.peek().Literal.(string)
				p.i++
			default:
				return nil, p.errExpected("map key (identifier or string)")
			}
			if _, err := p.need(COLON); err != nil {
				return nil, err
			}
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			node.Pairs = append(node.Pairs, MapPair{Key: key, Value: v})
			if !p.match(COMMA) {
				break
			}
			if p.check(RBRACE) { // trailing comma
				break
			}
		}
	}
	if _, err := p.need(RBRACE); err != nil {
		return nil, err
	}
	return node, nil
}
