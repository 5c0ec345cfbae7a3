// runtime.go — the lifecycle driver: the single public handle a host uses to
// run script fragments against a long-lived Global environment.
//
// A Runtime owns exactly one Global environment, created once from the
// document's front-matter key/values. The `init` hook executes directly
// against Global, so every `var` there becomes a durable global binding.
// Every other hook executes against a fresh child of Global that is
// discarded when the invocation returns; plain assignment inside a hook still
// reaches Global bindings through the ancestor walk (see env.go).
//
// Execution is single-threaded and synchronous: one hook invocation runs to
// completion before the next begins. Nothing here locks; a host that ever
// parallelizes hook invocations must serialize access to the Runtime itself.
package script

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// InitHook is the lifecycle name whose program runs directly in Global.
const InitHook = "init"

// NativeFunc is a host-provided function exposed to scripts. It receives a
// capability object rather than a raw environment reference; host effects on
// script state go through NativeCtx, never through the scope chain.
type NativeFunc func(ctx *NativeCtx, args []Value) (Value, error)

// NativeCtx is the capability object handed to native functions.
type NativeCtx struct {
	rt *Runtime
}

// Stop raises the runtime's stop flag (scripts reach it via quit()); the
// host polls Stopped after each frame.
func (c *NativeCtx) Stop() { c.rt.stopped = true }

// Global reads a binding from the Global environment.
func (c *NativeCtx) Global(name string) (Value, bool) { return c.rt.Global.Get(name) }

// SetGlobal declares a binding in the Global environment.
func (c *NativeCtx) SetGlobal(name string, v Value) { c.rt.Global.Declare(name, v) }

// Output is the writer print-style natives should write to.
func (c *NativeCtx) Output() io.Writer { return c.rt.Output }

// Hook is a compiled lifecycle fragment: parse once, run every frame.
type Hook struct {
	Name string
	Prog *Program
	Src  string
}

// Runtime is the interpreter handle. There is no process-wide singleton;
// multiple independent runtimes may coexist in one process.
type Runtime struct {
	Global *Env
	Output io.Writer

	natives map[string]NativeFunc
	stopped bool
	cancel  *atomic.Bool // optional, host-supplied
}

// NewRuntime builds a runtime whose Global environment is pre-populated from
// front-matter key/values (each textual value ingested via ParseScalar) and
// registers the core builtin natives.
func NewRuntime(front map[string]string) *Runtime {
	rt := &Runtime{
		Global:  NewEnv(GlobalEnv, nil),
		Output:  os.Stdout,
		natives: map[string]NativeFunc{},
	}
	for k, raw := range front {
		rt.Global.Declare(k, ParseScalar(raw))
	}
	registerCore(rt)
	return rt
}

// RegisterNative installs fn under name and makes it visible to scripts as a
// native-handle value bound in Global.
func (rt *Runtime) RegisterNative(name string, fn NativeFunc) {
	rt.natives[name] = fn
	rt.Global.Declare(name, NativeRef(name))
}

// LoadHook parses a lifecycle fragment. A lex or parse failure means the
// hook is not installed; previously loaded hooks are unaffected.
func (rt *Runtime) LoadHook(name, src string) (*Hook, error) {
	prog, err := Parse(src)
	if err != nil {
		return nil, WrapErrorWithName(err, name, src)
	}
	return &Hook{Name: name, Prog: prog, Src: src}, nil
}

// RunHook executes a compiled hook. The init hook runs directly in Global;
// every other hook runs in a fresh child scope discarded on return. Extra
// host-supplied arguments (for example the key name for the input hook) are
// declared in the invocation scope before the body runs.
//
// Runtime errors are returned to the host; Global mutations made before the
// error already happened and are not rolled back.
func (rt *Runtime) RunHook(h *Hook, extra map[string]Value) (Value, error) {
	env := rt.Global
	if h.Name != InitHook {
		env = NewEnv(BlockEnv, rt.Global)
	}
	for k, v := range extra {
		env.Declare(k, v)
	}
	v, err := rt.evalProgram(h.Prog, env)
	if err != nil {
		return Nil, WrapErrorWithName(err, h.Name, h.Src)
	}
	return v, nil
}

// Eval parses and runs src in a fresh child of Global: the scoping of a
// non-init hook, without compiling a reusable Hook. Used by tests and by
// one-shot host calls.
func (rt *Runtime) Eval(src string) (Value, error) {
	h, err := rt.LoadHook("<eval>", src)
	if err != nil {
		return Nil, err
	}
	return rt.RunHook(h, nil)
}

// EvalPersistent parses and runs src directly in Global (REPL-style):
// declarations persist across calls.
func (rt *Runtime) EvalPersistent(src string) (Value, error) {
	prog, err := Parse(src)
	if err != nil {
		return Nil, WrapErrorWithName(err, "<repl>", src)
	}
	v, err := rt.evalProgram(prog, rt.Global)
	if err != nil {
		return Nil, WrapErrorWithName(err, "<repl>", src)
	}
	return v, nil
}

// EvalExpression parses and evaluates a single expression against Global.
func (rt *Runtime) EvalExpression(src string) (Value, error) {
	e, err := ParseExpression(src)
	if err != nil {
		return Nil, WrapErrorWithName(err, "<repl>", src)
	}
	v, err := rt.evalExpr(e, rt.Global)
	if err != nil {
		return Nil, WrapErrorWithName(err, "<repl>", src)
	}
	return v, nil
}

// Stopped reports whether a script requested the host to stop (quit()).
func (rt *Runtime) Stopped() bool { return rt.stopped }

// SetCancel installs an externally supplied cancellation flag. When set, the
// evaluator fails with a Cancelled error between top-level statements. Pass
// nil to remove the flag.
func (rt *Runtime) SetCancel(flag *atomic.Bool) { rt.cancel = flag }

func (rt *Runtime) cancelled() bool { return rt.cancel != nil && rt.cancel.Load() }

// Natives lists the registered native names (sorted by the caller if needed).
func (rt *Runtime) Natives() []string {
	out := make([]string, 0, len(rt.natives))
	for k := range rt.natives {
		out = append(out, k)
	}
	return out
}

// ParseScalar converts a front-matter textual value into a runtime value:
// integers and floats parse from their textual form, "true"/"false" become
// Bool, everything else stays a String.
func ParseScalar(raw string) Value {
	s := strings.TrimSpace(raw)
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, ".eE") {
		return Float(f)
	}
	return Str(raw)
}
