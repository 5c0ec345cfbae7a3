package script

import (
	"bytes"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func newTestRuntime() *Runtime {
	return NewRuntime(nil)
}

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	rt := newTestRuntime()
	v, err := rt.Eval(src)
	if err != nil {
		t.Fatalf("Eval error: %v\nsource:\n%s", err, src)
	}
	return v
}

func mustEvalPersistent(t *testing.T, rt *Runtime, src string) Value {
	t.Helper()
	v, err := rt.EvalPersistent(src)
	if err != nil {
		t.Fatalf("eval error for %q: %v", src, err)
	}
	return v
}

func wantInt(t *testing.T, v Value, n int64) {
	t.Helper()
	if v.Tag != TagInt || v.AsInt() != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantFloat(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Tag != TagFloat || v.AsFloat() != f {
		t.Fatalf("want float %g, got %#v", f, v)
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Tag != TagStr || v.AsStr() != s {
		t.Fatalf("want str %q, got %#v", s, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Tag != TagBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

func wantNil(t *testing.T, v Value) {
	t.Helper()
	if v.Tag != TagNil {
		t.Fatalf("want nil, got %#v", v)
	}
}

func wantRuntimeErr(t *testing.T, err error, kind ErrKind) {
	t.Helper()
	if err == nil {
		t.Fatal("want runtime error, got nil")
	}
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("want *RuntimeError, got %T: %v", err, err)
	}
	if re.Kind != kind {
		t.Fatalf("want %q error, got %q: %v", errKindNames[kind], errKindNames[re.Kind], err)
	}
}

func globalInt(t *testing.T, rt *Runtime, name string) int64 {
	t.Helper()
	v, ok := rt.Global.Get(name)
	if !ok {
		t.Fatalf("global %q not bound", name)
	}
	if v.Tag != TagInt {
		t.Fatalf("global %q: want int, got %#v", name, v)
	}
	return v.AsInt()
}

// --- arithmetic & operators -------------------------------------------------

func Test_Eval_Arithmetic(t *testing.T) {
	wantInt(t, evalSrc(t, "return 1 + 2 * 3"), 7)
	wantInt(t, evalSrc(t, "return 10 - 3 - 2"), 5)
	wantInt(t, evalSrc(t, "return 7 mod 4"), 3)
	wantFloat(t, evalSrc(t, "return 1.5 + 1"), 2.5)
	wantFloat(t, evalSrc(t, "return 2 * 0.5"), 1.0)
}

func Test_Eval_Integer_Division_Truncates_Toward_Zero(t *testing.T) {
	// Pinned policy: Int / Int stays Int, truncating toward zero.
	wantInt(t, evalSrc(t, "return 7 / 2"), 3)
	wantInt(t, evalSrc(t, "return -7 / 2"), -3)
	wantFloat(t, evalSrc(t, "return 7.0 / 2"), 3.5)
	wantFloat(t, evalSrc(t, "return 7 / 2.0"), 3.5)
}

func Test_Eval_Division_By_Zero(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("return 1 / 0")
	wantRuntimeErr(t, err, ErrType)
}

func Test_Eval_Concat_Stringifies(t *testing.T) {
	wantStr(t, evalSrc(t, `return "score: " & 42`), "score: 42")
	wantStr(t, evalSrc(t, `return 1 & "-" & 2.5`), "1-2.5")
	wantStr(t, evalSrc(t, `return "ok: " & true`), "ok: true")
	wantStr(t, evalSrc(t, `return "v: " & nil`), "v: nil")
}

func Test_Eval_Equality_Policy(t *testing.T) {
	wantBool(t, evalSrc(t, "return 1 == 1"), true)
	wantBool(t, evalSrc(t, "return 1 == 1.0"), true) // numeric cross-compare
	wantBool(t, evalSrc(t, `return "a" == "a"`), true)
	wantBool(t, evalSrc(t, `return "a" != "b"`), true)
	wantBool(t, evalSrc(t, "return nil == nil"), true)
	// Lists compare by reference identity, not structure.
	wantBool(t, evalSrc(t, "var a = [1]\nvar b = [1]\nreturn a == b"), false)
	wantBool(t, evalSrc(t, "var a = [1]\nvar b = a\nreturn a == b"), true)
}

func Test_Eval_Comparisons(t *testing.T) {
	wantBool(t, evalSrc(t, "return 3 < 4"), true)
	wantBool(t, evalSrc(t, "return 3.0 >= 3"), true)
	wantBool(t, evalSrc(t, `return "abc" < "abd"`), true)
}

func Test_Eval_Logical_Short_Circuit(t *testing.T) {
	// The right side would fail with undefined variable if evaluated.
	wantBool(t, evalSrc(t, "return false and missing()"), false)
	wantBool(t, evalSrc(t, "return true or missing()"), true)
	wantBool(t, evalSrc(t, "return not false"), true)
}

func Test_Eval_Condition_Must_Be_Bool(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("if 1 then\n  print(1)\nend")
	wantRuntimeErr(t, err, ErrType)
}

func Test_Eval_Operand_Type_Errors(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval(`return 1 + "a"`)
	wantRuntimeErr(t, err, ErrType)
	_, err = rt.Eval("return 1.5 mod 2")
	wantRuntimeErr(t, err, ErrType)
}

// --- scoping ----------------------------------------------------------------

func Test_Eval_Block_Scope_Discarded(t *testing.T) {
	rt := newTestRuntime()
	mustEvalPersistent(t, rt, "do\n  var hidden = 1\nend")
	_, err := rt.EvalPersistent("return hidden")
	wantRuntimeErr(t, err, ErrUndefinedVariable)
}

func Test_Eval_While_Iteration_Scope_Is_Fresh(t *testing.T) {
	// A var declared in a loop body must not survive into the next iteration;
	// the counter mutation still reaches the outer scope via assign.
	wantInt(t, evalSrc(t, `
var i = 0
while i < 3 do
  var tmp = i * 10
  i = i + 1
end
return i`), 3)
}

func Test_Eval_For_Variable_Does_Not_Leak(t *testing.T) {
	rt := newTestRuntime()
	mustEvalPersistent(t, rt, "for item in [1, 2, 3] do\n  print(item)\nend")
	_, err := rt.EvalPersistent("return item")
	wantRuntimeErr(t, err, ErrUndefinedVariable)
}

func Test_Eval_For_Iterates_Lists_Maps_Strings(t *testing.T) {
	wantInt(t, evalSrc(t, `
var total = 0
for n in [1, 2, 3] do
  total = total + n
end
return total`), 6)

	wantStr(t, evalSrc(t, `
var got = ""
for k in {a: 1, b: 2} do
  got = got & k
end
return got`), "ab")

	wantInt(t, evalSrc(t, `
var count = 0
for ch in "hey" do
  count = count + 1
end
return count`), 3)
}

func Test_Eval_Shadowing_Inside_Block(t *testing.T) {
	wantInt(t, evalSrc(t, `
var x = 1
do
  var x = 99
  x = x + 1
end
return x`), 1)
}

// --- procs & closures ---------------------------------------------------------

func Test_Eval_Proc_Call_And_Return(t *testing.T) {
	wantInt(t, evalSrc(t, `
proc add(a, b)
  return a + b
end
return add(2, 3)`), 5)
}

func Test_Eval_Proc_Without_Return_Yields_Nil(t *testing.T) {
	wantNil(t, evalSrc(t, "proc noop()\nend\nreturn noop()"))
}

func Test_Eval_Proc_Arity_Checked(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("proc f(a)\nend\nf(1, 2)")
	wantRuntimeErr(t, err, ErrType)
}

func Test_Eval_Closure_Captures_Definition_Env(t *testing.T) {
	// The proc resolves n through its captured environment, and assign
	// mutates that same storage, so the call observes the update.
	wantInt(t, evalSrc(t, `
var n = 1
proc read_n()
  return n
end
n = 42
return read_n()`), 42)
}

func Test_Eval_Closure_Ignores_Caller_Scope(t *testing.T) {
	wantInt(t, evalSrc(t, `
var n = 7
proc read_n()
  return n
end
proc caller()
  var n = 1000
  return read_n()
end
return caller()`), 7)
}

func Test_Eval_Closure_Counter_Keeps_Private_State(t *testing.T) {
	wantInt(t, evalSrc(t, `
var count = 0
proc bump()
  count = count + 1
  return count
end
bump()
bump()
return bump()`), 3)
}

func Test_Eval_Recursion(t *testing.T) {
	wantInt(t, evalSrc(t, `
proc fib(n)
  if n < 2 then
    return n
  end
  return fib(n - 1) + fib(n - 2)
end
return fib(10)`), 55)
}

func Test_Eval_Calling_Non_Callable(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("var x = 3\nx(1)")
	wantRuntimeErr(t, err, ErrNotCallable)
}

// --- lists & maps -------------------------------------------------------------

func Test_Eval_List_Index_And_Assign(t *testing.T) {
	wantInt(t, evalSrc(t, "var xs = [10, 20, 30]\nxs[1] = 21\nreturn xs[1]"), 21)
}

func Test_Eval_List_Out_Of_Range(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("var xs = [1]\nreturn xs[5]")
	wantRuntimeErr(t, err, ErrIndexOutOfRange)
	_, err = rt.Eval("var xs = [1]\nreturn xs[-1]")
	wantRuntimeErr(t, err, ErrIndexOutOfRange)
}

func Test_Eval_Map_Access_And_Missing_Key(t *testing.T) {
	wantInt(t, evalSrc(t, `var m = {hp: 10}
return m["hp"]`), 10)
	wantInt(t, evalSrc(t, "var m = {hp: 10}\nreturn m.hp"), 10)

	rt := newTestRuntime()
	_, err := rt.Eval("var m = {hp: 10}\nreturn m.mp")
	wantRuntimeErr(t, err, ErrKeyNotFound)
}

func Test_Eval_Map_Insertion_Order_Preserved(t *testing.T) {
	v := evalSrc(t, `
var m = {z: 1, a: 2}
m["m"] = 3
return keys(m)`)
	items := v.AsList().Items
	got := ""
	for _, it := range items {
		got += it.AsStr()
	}
	if got != "zam" {
		t.Fatalf("want insertion order zam, got %q", got)
	}
}

func Test_Eval_List_Aliasing_Mutation_Visible(t *testing.T) {
	// One list object, two references: push through one, read through the other.
	wantInt(t, evalSrc(t, `
var shared = [1, 2]
var alias = shared
push(alias, 3)
return len(shared)`), 3)
}

func Test_Eval_Nested_Containers(t *testing.T) {
	wantInt(t, evalSrc(t, `
var grid = [[1, 2], [3, 4]]
grid[1][0] = 30
return grid[1][0]`), 30)
}

// --- natives -------------------------------------------------------------------

func Test_Eval_Print_Writes_To_Output(t *testing.T) {
	rt := newTestRuntime()
	var buf bytes.Buffer
	rt.Output = &buf
	if _, err := rt.Eval(`print("hello", 42)`); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if buf.String() != "hello 42\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func Test_Eval_Native_Arg_Error(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("len(1, 2)")
	wantRuntimeErr(t, err, ErrNativeArg)
}

func Test_Eval_Registered_Native_Receives_Args(t *testing.T) {
	rt := newTestRuntime()
	var got []Value
	rt.RegisterNative("probe", func(_ *NativeCtx, args []Value) (Value, error) {
		got = append([]Value(nil), args...)
		return Int(int64(len(args))), nil
	})
	v, err := rt.Eval(`return probe(1, "two", true)`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	wantInt(t, v, 3)
	if len(got) != 3 || got[1].AsStr() != "two" {
		t.Fatalf("native saw %#v", got)
	}
}

func Test_Eval_Native_Capability_Stop(t *testing.T) {
	rt := newTestRuntime()
	if rt.Stopped() {
		t.Fatal("fresh runtime must not be stopped")
	}
	if _, err := rt.Eval("quit()"); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !rt.Stopped() {
		t.Fatal("quit() must raise the stop flag")
	}
}

func Test_Eval_Builtin_Conversions(t *testing.T) {
	wantInt(t, evalSrc(t, `return int("12")`), 12)
	wantInt(t, evalSrc(t, "return int(3.9)"), 3)
	wantFloat(t, evalSrc(t, `return float("2.5")`), 2.5)
	wantStr(t, evalSrc(t, "return str(7)"), "7")
	wantInt(t, evalSrc(t, "return len(range(2, 7))"), 5)
	wantBool(t, evalSrc(t, "return contains([1, 2], 2)"), true)
	wantBool(t, evalSrc(t, `return contains({a: 1}, "a")`), true)
	wantBool(t, evalSrc(t, `return contains("hello", "ell")`), true)
}

// --- errors & cancellation -------------------------------------------------------

func Test_Eval_Undefined_Variable(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("return nope")
	wantRuntimeErr(t, err, ErrUndefinedVariable)
}

func Test_Eval_Error_Reports_Position(t *testing.T) {
	rt := newTestRuntime()
	_, err := rt.Eval("var a = 1\nreturn nope")
	if err == nil || !strings.Contains(err.Error(), "2:") {
		t.Fatalf("want line 2 in error, got: %v", err)
	}
}

func Test_Eval_Cancellation_Between_Statements(t *testing.T) {
	rt := newTestRuntime()
	var flag atomic.Bool
	rt.SetCancel(&flag)
	flag.Store(true)
	_, err := rt.Eval("var a = 1\nvar b = 2")
	wantRuntimeErr(t, err, ErrCancelled)
	flag.Store(false)
	if _, err := rt.Eval("var a = 1"); err != nil {
		t.Fatalf("cleared flag must allow evaluation: %v", err)
	}
}

func Test_Eval_TopLevel_Return_Yields_Value(t *testing.T) {
	wantInt(t, evalSrc(t, "return 5\nprint(1)"), 5)
}
