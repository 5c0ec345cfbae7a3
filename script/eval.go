// eval.go — the tree-walking evaluator.
//
// eval walks the immutable AST against a current environment, producing
// values and side effects: native calls, in-place mutation of shared
// list/map objects, and mutation of environment bindings.
//
// Scoping rules enforced here:
//   - if/while/for bodies and standalone do-blocks run in a fresh Block
//     child of the environment active when the construct began; while and
//     for create the child per iteration, so bindings never leak between
//     iterations or into the enclosing scope.
//   - A proc call runs in a Function child of the environment captured at
//     the proc's definition site, not the caller's environment.
//
// `return` unwinds to the nearest call boundary via the returnControl error;
// at the top level of a hook it stops the body and yields its value.
package script

import "fmt"

// returnControl carries a return value up to the nearest call boundary.
// It is an error only so it can travel the ordinary (Value, error) path.
type returnControl struct {
	value Value
}

func (returnControl) Error() string { return "return outside evaluation" }

// evalProgram runs top-level statements sequentially in env, checking the
// host cancellation flag between statements. The value of the last statement
// (or of an explicit top-level return) is the program's value.
func (rt *Runtime) evalProgram(prog *Program, env *Env) (Value, error) {
	last := Nil
	for _, s := range prog.Stmts {
		if rt.cancelled() {
			p := s.Pos()
			return Nil, &RuntimeError{Kind: ErrCancelled, Line: p.Line, Col: p.Col, Msg: "evaluation cancelled by host"}
		}
		v, err := rt.evalStmt(s, env)
		if err != nil {
			if ret, ok := err.(returnControl); ok {
				return ret.value, nil
			}
			return Nil, err
		}
		last = v
	}
	return last, nil
}

// evalBlockIn runs a block's statements directly in env (no new scope); the
// caller decides which environment the block body owns.
func (rt *Runtime) evalBlockIn(blk *Block, env *Env) (Value, error) {
	last := Nil
	for _, s := range blk.Stmts {
		v, err := rt.evalStmt(s, env)
		if err != nil {
			return Nil, err
		}
		last = v
	}
	return last, nil
}

// evalBlockScoped runs a block in a fresh Block child of env.
func (rt *Runtime) evalBlockScoped(blk *Block, env *Env) (Value, error) {
	return rt.evalBlockIn(blk, NewEnv(BlockEnv, env))
}

func (rt *Runtime) evalStmt(s Stmt, env *Env) (Value, error) {
	switch n := s.(type) {
	case *VarDecl:
		v, err := rt.evalExpr(n.Init, env)
		if err != nil {
			return Nil, err
		}
		env.Declare(n.Name, v)
		return Nil, nil

	case *Assign:
		return Nil, rt.execAssign(n, env)

	case *ExprStmt:
		return rt.evalExpr(n.Call, env)

	case *Block:
		return rt.evalBlockScoped(n, env)

	case *If:
		cond, err := rt.evalExpr(n.Cond, env)
		if err != nil {
			return Nil, err
		}
		if cond.Tag != TagBool {
			p := n.Cond.Pos()
			return Nil, typeErr(p.Line, p.Col, "if condition must be bool, got %s", cond.Tag.TypeName())
		}
		if cond.Data.(bool) {
			return rt.evalBlockScoped(n.Then, env)
		}
		if n.Else != nil {
			return rt.evalBlockScoped(n.Else, env)
		}
		return Nil, nil

	case *While:
		for {
			cond, err := rt.evalExpr(n.Cond, env)
			if err != nil {
				return Nil, err
			}
			if cond.Tag != TagBool {
				p := n.Cond.Pos()
				return Nil, typeErr(p.Line, p.Col, "while condition must be bool, got %s", cond.Tag.TypeName())
			}
			if !cond.Data.(bool) {
				return Nil, nil
			}
			if _, err := rt.evalBlockScoped(n.Body, env); err != nil {
				return Nil, err
			}
		}

	case *For:
		items, err := rt.iterate(n, env)
		if err != nil {
			return Nil, err
		}
		for _, item := range items {
			iter := NewEnv(BlockEnv, env)
			iter.Declare(n.Name, item)
			if _, err := rt.evalBlockIn(n.Body, iter); err != nil {
				return Nil, err
			}
		}
		return Nil, nil

	case *ProcDecl:
		env.Declare(n.Name, ClosureVal(&Proc{
			Name:   n.Name,
			Params: n.Params,
			Body:   n.Body,
			Env:    env,
		}))
		return Nil, nil

	case *Return:
		v := Nil
		if n.Value != nil {
			var err error
			v, err = rt.evalExpr(n.Value, env)
			if err != nil {
				return Nil, err
			}
		}
		return Nil, returnControl{value: v}

	default:
		p := s.Pos()
		return Nil, typeErr(p.Line, p.Col, "unhandled statement")
	}
}

// iterate materializes the iteration sequence for a for-loop: list elements,
// map keys in insertion order, or the characters of a string.
func (rt *Runtime) iterate(n *For, env *Env) ([]Value, error) {
	src, err := rt.evalExpr(n.Iterable, env)
	if err != nil {
		return nil, err
	}
	switch src.Tag {
	case TagList:
		// Snapshot so mutation inside the body cannot skip or repeat elements.
		items := src.AsList().Items
		out := make([]Value, len(items))
		copy(out, items)
		return out, nil
	case TagMap:
		m := src.AsMap()
		out := make([]Value, len(m.Keys))
		for i, k := range m.Keys {
			out[i] = Str(k)
		}
		return out, nil
	case TagStr:
		var out []Value
		for _, r := range src.AsStr() {
			out = append(out, Str(string(r)))
		}
		return out, nil
	default:
		p := n.Iterable.Pos()
		return nil, typeErr(p.Line, p.Col, "cannot iterate %s", src.Tag.TypeName())
	}
}

// execAssign implements the ancestor-walk assignment for names and in-place
// element assignment for lists and maps.
func (rt *Runtime) execAssign(n *Assign, env *Env) error {
	v, err := rt.evalExpr(n.Value, env)
	if err != nil {
		return err
	}
	switch target := n.Target.(type) {
	case *Identifier:
		env.Assign(target.Name, v)
		return nil
	case *IndexExpr:
		base, err := rt.evalExpr(target.Base, env)
		if err != nil {
			return err
		}
		idx, err := rt.evalExpr(target.Index, env)
		if err != nil {
			return err
		}
		p := target.Index.Pos()
		switch base.Tag {
		case TagList:
			if idx.Tag != TagInt {
				return typeErr(p.Line, p.Col, "list index must be int, got %s", idx.Tag.TypeName())
			}
			items := base.AsList().Items
			i := idx.AsInt()
			if i < 0 || i >= int64(len(items)) {
				return &RuntimeError{Kind: ErrIndexOutOfRange, Line: p.Line, Col: p.Col,
					Msg: indexRangeMsg(i, len(items))}
			}
			items[i] = v
			return nil
		case TagMap:
			if idx.Tag != TagStr {
				return typeErr(p.Line, p.Col, "map key must be string, got %s", idx.Tag.TypeName())
			}
			base.AsMap().Set(idx.AsStr(), v)
			return nil
		default:
			bp := target.Base.Pos()
			return typeErr(bp.Line, bp.Col, "cannot index-assign into %s", base.Tag.TypeName())
		}
	default:
		p := n.Pos()
		return typeErr(p.Line, p.Col, "invalid assignment target")
	}
}

func (rt *Runtime) evalExpr(e Expr, env *Env) (Value, error) {
	switch n := e.(type) {
	case *Literal:
		return n.Value, nil

	case *Identifier:
		if v, ok := env.Get(n.Name); ok {
			return v, nil
		}
		return Nil, undefinedErr(n.Name, n.At.Line, n.At.Col)

	case *UnaryOp:
		return rt.evalUnary(n, env)

	case *BinaryOp:
		return rt.evalBinary(n, env)

	case *ListLiteral:
		items := make([]Value, len(n.Elements))
		for i, el := range n.Elements {
			v, err := rt.evalExpr(el, env)
			if err != nil {
				return Nil, err
			}
			items[i] = v
		}
		return List(items...), nil

	case *MapLiteral:
		mv := NewMap()
		m := mv.AsMap()
		for _, pair := range n.Pairs {
			v, err := rt.evalExpr(pair.Value, env)
			if err != nil {
				return Nil, err
			}
			m.Set(pair.Key, v)
		}
		return mv, nil

	case *IndexExpr:
		return rt.evalIndex(n, env)

	case *CallExpr:
		callee, err := rt.evalExpr(n.Callee, env)
		if err != nil {
			return Nil, err
		}
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			v, err := rt.evalExpr(a, env)
			if err != nil {
				return Nil, err
			}
			args[i] = v
		}
		return rt.callValue(callee, args, n.At)

	default:
		p := e.Pos()
		return Nil, typeErr(p.Line, p.Col, "unhandled expression")
	}
}

func (rt *Runtime) evalIndex(n *IndexExpr, env *Env) (Value, error) {
	base, err := rt.evalExpr(n.Base, env)
	if err != nil {
		return Nil, err
	}
	idx, err := rt.evalExpr(n.Index, env)
	if err != nil {
		return Nil, err
	}
	p := n.Index.Pos()
	switch base.Tag {
	case TagList:
		if idx.Tag != TagInt {
			return Nil, typeErr(p.Line, p.Col, "list index must be int, got %s", idx.Tag.TypeName())
		}
		items := base.AsList().Items
		i := idx.AsInt()
		if i < 0 || i >= int64(len(items)) {
			return Nil, &RuntimeError{Kind: ErrIndexOutOfRange, Line: p.Line, Col: p.Col,
				Msg: indexRangeMsg(i, len(items))}
		}
		return items[i], nil
	case TagMap:
		if idx.Tag != TagStr {
			return Nil, typeErr(p.Line, p.Col, "map key must be string, got %s", idx.Tag.TypeName())
		}
		key := idx.AsStr()
		if v, ok := base.AsMap().Get(key); ok {
			return v, nil
		}
		return Nil, &RuntimeError{Kind: ErrKeyNotFound, Line: p.Line, Col: p.Col, Msg: key}
	case TagStr:
		if idx.Tag != TagInt {
			return Nil, typeErr(p.Line, p.Col, "string index must be int, got %s", idx.Tag.TypeName())
		}
		runes := []rune(base.AsStr())
		i := idx.AsInt()
		if i < 0 || i >= int64(len(runes)) {
			return Nil, &RuntimeError{Kind: ErrIndexOutOfRange, Line: p.Line, Col: p.Col,
				Msg: indexRangeMsg(i, len(runes))}
		}
		return Str(string(runes[i])), nil
	default:
		bp := n.Base.Pos()
		return Nil, typeErr(bp.Line, bp.Col, "cannot index %s", base.Tag.TypeName())
	}
}

func indexRangeMsg(i int64, length int) string {
	return fmt.Sprintf("index %d, length %d", i, length)
}

func (rt *Runtime) evalUnary(n *UnaryOp, env *Env) (Value, error) {
	v, err := rt.evalExpr(n.Operand, env)
	if err != nil {
		return Nil, err
	}
	p := n.Operand.Pos()
	switch n.Op {
	case "-":
		switch v.Tag {
		case TagInt:
			return Int(-v.AsInt()), nil
		case TagFloat:
			return Float(-v.AsFloat()), nil
		}
		return Nil, typeErr(p.Line, p.Col, "unary '-' needs a number, got %s", v.Tag.TypeName())
	case "not":
		if v.Tag != TagBool {
			return Nil, typeErr(p.Line, p.Col, "'not' needs a bool, got %s", v.Tag.TypeName())
		}
		return Bool(!v.Data.(bool)), nil
	}
	return Nil, typeErr(n.At.Line, n.At.Col, "unknown unary operator %q", n.Op)
}

func (rt *Runtime) evalBinary(n *BinaryOp, env *Env) (Value, error) {
	// and/or short-circuit; everything else evaluates both sides first.
	if n.Op == "and" || n.Op == "or" {
		return rt.evalLogical(n, env)
	}
	l, err := rt.evalExpr(n.Left, env)
	if err != nil {
		return Nil, err
	}
	r, err := rt.evalExpr(n.Right, env)
	if err != nil {
		return Nil, err
	}
	at := n.At

	switch n.Op {
	case "&":
		// Concatenation stringifies both operands.
		return Str(l.Display() + r.Display()), nil

	case "==":
		return Bool(Equal(l, r)), nil
	case "!=":
		return Bool(!Equal(l, r)), nil

	case "+", "-", "*":
		return arith(n.Op, l, r, at)

	case "/":
		if !l.IsNumeric() || !r.IsNumeric() {
			return Nil, typeErr(at.Line, at.Col, "'/' needs numbers, got %s and %s",
				l.Tag.TypeName(), r.Tag.TypeName())
		}
		// Int / Int truncates toward zero; any float operand promotes.
		if l.Tag == TagInt && r.Tag == TagInt {
			if r.AsInt() == 0 {
				return Nil, typeErr(at.Line, at.Col, "integer division by zero")
			}
			return Int(l.AsInt() / r.AsInt()), nil
		}
		return Float(l.AsFloat() / r.AsFloat()), nil

	case "mod":
		if l.Tag != TagInt || r.Tag != TagInt {
			return Nil, typeErr(at.Line, at.Col, "'mod' needs ints, got %s and %s",
				l.Tag.TypeName(), r.Tag.TypeName())
		}
		if r.AsInt() == 0 {
			return Nil, typeErr(at.Line, at.Col, "mod by zero")
		}
		return Int(l.AsInt() % r.AsInt()), nil

	case "<", "<=", ">", ">=":
		return compare(n.Op, l, r, at)
	}
	return Nil, typeErr(at.Line, at.Col, "unknown operator %q", n.Op)
}

func (rt *Runtime) evalLogical(n *BinaryOp, env *Env) (Value, error) {
	l, err := rt.evalExpr(n.Left, env)
	if err != nil {
		return Nil, err
	}
	if l.Tag != TagBool {
		p := n.Left.Pos()
		return Nil, typeErr(p.Line, p.Col, "'%s' needs bool operands, got %s", n.Op, l.Tag.TypeName())
	}
	if n.Op == "and" && !l.Data.(bool) {
		return Bool(false), nil
	}
	if n.Op == "or" && l.Data.(bool) {
		return Bool(true), nil
	}
	r, err := rt.evalExpr(n.Right, env)
	if err != nil {
		return Nil, err
	}
	if r.Tag != TagBool {
		p := n.Right.Pos()
		return Nil, typeErr(p.Line, p.Col, "'%s' needs bool operands, got %s", n.Op, r.Tag.TypeName())
	}
	return r, nil
}

// arith implements + - * with Int op Int -> Int and float promotion.
func arith(op string, l, r Value, at Pos) (Value, error) {
	if !l.IsNumeric() || !r.IsNumeric() {
		return Nil, typeErr(at.Line, at.Col, "'%s' needs numbers, got %s and %s",
			op, l.Tag.TypeName(), r.Tag.TypeName())
	}
	if l.Tag == TagInt && r.Tag == TagInt {
		a, b := l.AsInt(), r.AsInt()
		switch op {
		case "+":
			return Int(a + b), nil
		case "-":
			return Int(a - b), nil
		case "*":
			return Int(a * b), nil
		}
	}
	a, b := l.AsFloat(), r.AsFloat()
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	}
	return Nil, typeErr(at.Line, at.Col, "unknown operator %q", op)
}

// compare implements relational operators over numbers or two strings.
func compare(op string, l, r Value, at Pos) (Value, error) {
	if l.IsNumeric() && r.IsNumeric() {
		a, b := l.AsFloat(), r.AsFloat()
		switch op {
		case "<":
			return Bool(a < b), nil
		case "<=":
			return Bool(a <= b), nil
		case ">":
			return Bool(a > b), nil
		case ">=":
			return Bool(a >= b), nil
		}
	}
	if l.Tag == TagStr && r.Tag == TagStr {
		a, b := l.AsStr(), r.AsStr()
		switch op {
		case "<":
			return Bool(a < b), nil
		case "<=":
			return Bool(a <= b), nil
		case ">":
			return Bool(a > b), nil
		case ">=":
			return Bool(a >= b), nil
		}
	}
	return Nil, typeErr(at.Line, at.Col, "'%s' needs two numbers or two strings, got %s and %s",
		op, l.Tag.TypeName(), r.Tag.TypeName())
}

// callValue applies a closure or a native handle to evaluated arguments.
func (rt *Runtime) callValue(callee Value, args []Value, at Pos) (Value, error) {
	switch callee.Tag {
	case TagClosure:
		p := callee.Data.(*Proc)
		if len(args) != len(p.Params) {
			return Nil, typeErr(at.Line, at.Col, "%s expects %d argument(s), got %d",
				p.Name, len(p.Params), len(args))
		}
		// The call frame's parent is the proc's defining environment, never
		// the caller's.
		frame := NewEnv(FuncEnv, p.Env)
		for i, prm := range p.Params {
			frame.Declare(prm, args[i])
		}
		_, err := rt.evalBlockIn(p.Body, frame)
		if err != nil {
			if ret, ok := err.(returnControl); ok {
				return ret.value, nil
			}
			return Nil, err
		}
		// Falling off the end of a proc yields nil.
		return Nil, nil

	case TagNative:
		name := callee.Data.(string)
		fn, ok := rt.natives[name]
		if !ok {
			return Nil, &RuntimeError{Kind: ErrNotCallable, Line: at.Line, Col: at.Col,
				Msg: "native " + name + " is not registered"}
		}
		v, err := fn(&NativeCtx{rt: rt}, args)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok {
				if re.Line == 0 {
					re.Line, re.Col = at.Line, at.Col
				}
				return Nil, re
			}
			return Nil, &RuntimeError{Kind: ErrNativeArg, Line: at.Line, Col: at.Col,
				Msg: name + ": " + err.Error()}
		}
		return v, nil

	default:
		return Nil, &RuntimeError{Kind: ErrNotCallable, Line: at.Line, Col: at.Col,
			Msg: "cannot call a " + callee.Tag.TypeName() + " value"}
	}
}
