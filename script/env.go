// env.go — the environment chain, the core resolution engine.
//
// Three operations with a deliberate asymmetry:
//
//   - Declare always binds in the current frame, shadowing any ancestor.
//   - Get walks parent-ward and returns the first binding found.
//   - Assign walks parent-ward looking for an existing binding and mutates it
//     where it lives, so the effect is visible to every holder of that frame
//     (notably the Global environment). If no frame binds the name, a new
//     binding is created in the current frame — never promoted to Global.
//
// A Block or Function frame is released when the evaluation that created it
// returns, unless a closure captured it as its defining environment. The
// single Global frame outlives every hook invocation.
package script

// EnvKind distinguishes the three frame flavors.
type EnvKind int

const (
	GlobalEnv EnvKind = iota
	BlockEnv
	FuncEnv
)

// Env is a lexical environment frame with a parent link.
type Env struct {
	kind   EnvKind
	table  map[string]Value
	parent *Env
}

// NewEnv creates a frame of the given kind under parent (nil for the root).
func NewEnv(kind EnvKind, parent *Env) *Env {
	return &Env{kind: kind, parent: parent, table: make(map[string]Value)}
}

// Kind returns the frame flavor.
func (e *Env) Kind() EnvKind { return e.kind }

// Parent returns the enclosing frame, or nil at the root.
func (e *Env) Parent() *Env { return e.parent }

// Declare binds name to v in this frame, regardless of ancestors.
func (e *Env) Declare(name string, v Value) {
	e.table[name] = v
}

// Get retrieves the nearest visible binding for name.
func (e *Env) Get(name string) (Value, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.table[name]; ok {
			return v, true
		}
	}
	return Value{}, false
}

// Assign overwrites the nearest existing binding of name in place. When the
// chain is exhausted without finding name, a new binding is created in this
// frame. It never creates a binding in an ancestor.
func (e *Env) Assign(name string, v Value) {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.table[name]; ok {
			f.table[name] = v
			return
		}
	}
	e.table[name] = v
}

// Has reports whether this frame itself (not an ancestor) binds name.
func (e *Env) Has(name string) bool {
	_, ok := e.table[name]
	return ok
}

// Names returns every name visible from this frame, innermost first and
// without duplicates. Used by the REPL completer.
func (e *Env) Names() []string {
	seen := map[string]bool{}
	var out []string
	for f := e; f != nil; f = f.parent {
		for k := range f.table {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
