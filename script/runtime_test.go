package script

import (
	"errors"
	"strings"
	"testing"
)

func loadHook(t *testing.T, rt *Runtime, name, src string) *Hook {
	t.Helper()
	h, err := rt.LoadHook(name, src)
	if err != nil {
		t.Fatalf("LoadHook(%s) error: %v", name, err)
	}
	return h
}

func runHook(t *testing.T, rt *Runtime, h *Hook) Value {
	t.Helper()
	v, err := rt.RunHook(h, nil)
	if err != nil {
		t.Fatalf("RunHook(%s) error: %v", h.Name, err)
	}
	return v
}

func Test_Runtime_FrontMatter_Scalars(t *testing.T) {
	rt := NewRuntime(map[string]string{
		"targetFPS": "60",
		"speed":     "1.5",
		"debug":     "true",
		"title":     "demo deck",
	})
	if v, _ := rt.Global.Get("targetFPS"); v.Tag != TagInt || v.AsInt() != 60 {
		t.Fatalf("targetFPS: %#v", v)
	}
	if v, _ := rt.Global.Get("speed"); v.Tag != TagFloat || v.AsFloat() != 1.5 {
		t.Fatalf("speed: %#v", v)
	}
	if v, _ := rt.Global.Get("debug"); v.Tag != TagBool || !v.Data.(bool) {
		t.Fatalf("debug: %#v", v)
	}
	if v, _ := rt.Global.Get("title"); v.Tag != TagStr || v.AsStr() != "demo deck" {
		t.Fatalf("title: %#v", v)
	}
}

func Test_Runtime_Init_Declares_Durable_Globals(t *testing.T) {
	rt := NewRuntime(map[string]string{"targetFPS": "60"})
	runHook(t, rt, loadHook(t, rt, "init", "var score = 0"))
	if got := globalInt(t, rt, "score"); got != 0 {
		t.Fatalf("want score 0, got %d", got)
	}
}

func Test_Runtime_Update_Assign_Reaches_Global(t *testing.T) {
	// End-to-end scenario: ten update frames each bump the global score.
	rt := NewRuntime(map[string]string{"targetFPS": "60"})
	runHook(t, rt, loadHook(t, rt, "init", "var score = 0"))

	update := loadHook(t, rt, "update", "score = score + 1")
	for i := 0; i < 10; i++ {
		runHook(t, rt, update)
	}
	if got := globalInt(t, rt, "score"); got != 10 {
		t.Fatalf("want score 10 after ten frames, got %d", got)
	}
}

func Test_Runtime_Hook_Locals_Reset_Each_Invocation(t *testing.T) {
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", "var score = 5"))

	// tempValue is re-declared from its initializer every frame and never
	// leaks into Global or the next invocation.
	update := loadHook(t, rt, "update", `
var tempValue = score * 2
tempValue = tempValue + 1
return tempValue`)
	for i := 0; i < 3; i++ {
		wantInt(t, runHook(t, rt, update), 11)
	}
	if _, ok := rt.Global.Get("tempValue"); ok {
		t.Fatal("hook-local var must not persist in Global")
	}
	if got := globalInt(t, rt, "score"); got != 5 {
		t.Fatalf("score must be untouched, got %d", got)
	}
}

func Test_Runtime_Conditional_Global_Mutation(t *testing.T) {
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", `var counter = 0
var message = "quiet"`))

	update := loadHook(t, rt, "update", `
counter = counter + 1
if counter mod 30 == 0 then
  message = "hit"
end`)

	for i := 0; i < 29; i++ {
		runHook(t, rt, update)
	}
	if v, _ := rt.Global.Get("message"); v.AsStr() != "quiet" {
		t.Fatalf("frame 29: message must be unchanged, got %#v", v)
	}
	runHook(t, rt, update) // frame 30
	if v, _ := rt.Global.Get("message"); v.AsStr() != "hit" {
		t.Fatalf("frame 30: want hit, got %#v", v)
	}
}

func Test_Runtime_List_Aliased_Between_Global_And_Hook(t *testing.T) {
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", "var events = []"))

	update := loadHook(t, rt, "update", `
var local = events
push(local, "tick")`)
	runHook(t, rt, update)
	runHook(t, rt, update)

	v, _ := rt.Global.Get("events")
	if v.Tag != TagList || len(v.AsList().Items) != 2 {
		t.Fatalf("want 2 events via aliased list, got %#v", v)
	}
}

func Test_Runtime_Proc_Defined_In_Init_Called_From_Update(t *testing.T) {
	// The proc's free variable resolves through its captured (Global)
	// environment even when called from a later hook's fresh child scope.
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", `
var lives = 3
proc hit()
  lives = lives - 1
end`))

	update := loadHook(t, rt, "update", "hit()")
	runHook(t, rt, update)
	runHook(t, rt, update)
	if got := globalInt(t, rt, "lives"); got != 1 {
		t.Fatalf("want lives 1, got %d", got)
	}
}

func Test_Runtime_Extra_Args_Visible_In_Hook_Scope_Only(t *testing.T) {
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", `var lastKey = ""`))

	input := loadHook(t, rt, "input", "lastKey = key")
	if _, err := rt.RunHook(input, map[string]Value{"key": Str("enter")}); err != nil {
		t.Fatalf("input hook: %v", err)
	}
	if v, _ := rt.Global.Get("lastKey"); v.AsStr() != "enter" {
		t.Fatalf("want enter, got %#v", v)
	}
	if _, ok := rt.Global.Get("key"); ok {
		t.Fatal("extra arg must not leak into Global")
	}
}

func Test_Runtime_Parse_Failure_Leaves_Other_Hooks_Intact(t *testing.T) {
	rt := NewRuntime(nil)
	update := loadHook(t, rt, "update", "print(1)")

	_, err := rt.LoadHook("render", "if then end")
	if err == nil {
		t.Fatal("want parse error")
	}
	if !strings.Contains(err.Error(), "PARSE ERROR in render") {
		t.Fatalf("want labeled parse error, got: %v", err)
	}
	// Previously loaded hook still runs.
	runHook(t, rt, update)
}

func Test_Runtime_Typed_Errors_Survive_The_Hook_Boundary(t *testing.T) {
	// The snippet wrapping added by RunHook/LoadHook must not erase the
	// typed error: the host decides fatal-vs-skip by kind.
	rt := NewRuntime(nil)

	update := loadHook(t, rt, "update", "return boom")
	_, err := rt.RunHook(update, nil)
	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("want *RuntimeError through RunHook, got %T: %v", err, err)
	}
	if re.Kind != ErrUndefinedVariable {
		t.Fatalf("want undefined-variable kind, got %q", errKindNames[re.Kind])
	}
	if !strings.Contains(err.Error(), "RUNTIME ERROR in update") {
		t.Fatalf("snippet header lost: %v", err)
	}

	_, err = rt.LoadHook("render", "if then end")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError through LoadHook, got %T: %v", err, err)
	}

	_, err = rt.LoadHook("input", `var s = "oops`)
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("want *LexError through LoadHook, got %T: %v", err, err)
	}
}

func Test_Runtime_Error_Does_Not_Roll_Back_Globals(t *testing.T) {
	rt := NewRuntime(nil)
	runHook(t, rt, loadHook(t, rt, "init", "var n = 0"))

	update := loadHook(t, rt, "update", "n = 1\nreturn boom")
	_, err := rt.RunHook(update, nil)
	wantRuntimeErr(t, err, ErrUndefinedVariable)
	if got := globalInt(t, rt, "n"); got != 1 {
		t.Fatalf("mutation before the error must persist, got %d", got)
	}
}

func Test_Runtime_Custom_Hook_Names_Run_Sandboxed(t *testing.T) {
	rt := NewRuntime(nil)
	h := loadHook(t, rt, "onSelect", "var picked = true\nreturn picked")
	wantBool(t, runHook(t, rt, h), true)
	if _, ok := rt.Global.Get("picked"); ok {
		t.Fatal("custom hooks must not run in Global")
	}
}

func Test_Runtime_Independent_Instances(t *testing.T) {
	a := NewRuntime(map[string]string{"n": "1"})
	b := NewRuntime(map[string]string{"n": "2"})
	runHook(t, a, loadHook(t, a, "init", "n = n + 10"))
	if got := globalInt(t, a, "n"); got != 11 {
		t.Fatalf("a: %d", got)
	}
	if got := globalInt(t, b, "n"); got != 2 {
		t.Fatalf("b must be isolated: %d", got)
	}
}

func Test_ParseScalar(t *testing.T) {
	cases := []struct {
		raw  string
		want Value
	}{
		{"60", Int(60)},
		{"-3", Int(-3)},
		{"1.5", Float(1.5)},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"hello", Str("hello")},
		{"12abc", Str("12abc")},
	}
	for _, c := range cases {
		got := ParseScalar(c.raw)
		if !Equal(got, c.want) || got.Tag != c.want.Tag {
			t.Fatalf("ParseScalar(%q) = %#v, want %#v", c.raw, got, c.want)
		}
	}
}
