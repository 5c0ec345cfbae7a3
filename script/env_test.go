package script

import "testing"

// The declare/read/assign asymmetry is the core contract of the runtime;
// these tests pin it operation by operation.

func Test_Env_Declare_Shadows_Ancestor(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	g.Declare("x", Int(1))
	c := NewEnv(BlockEnv, g)

	c.Declare("x", Int(2))

	if v, _ := c.Get("x"); v.AsInt() != 2 {
		t.Fatalf("child read: want 2, got %v", v)
	}
	if v, _ := g.Get("x"); v.AsInt() != 1 {
		t.Fatalf("declare must not touch the ancestor: want 1, got %v", v)
	}
}

func Test_Env_Read_Walks_Parents(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	g.Declare("name", Str("global"))
	mid := NewEnv(BlockEnv, g)
	leaf := NewEnv(BlockEnv, mid)

	v, ok := leaf.Get("name")
	if !ok || v.AsStr() != "global" {
		t.Fatalf("want global, got %v %v", v, ok)
	}
	if _, ok := leaf.Get("missing"); ok {
		t.Fatal("missing name must not resolve")
	}
}

func Test_Env_Assign_Found_In_Ancestor_Mutates_In_Place(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	g.Declare("x", Int(1))
	c := NewEnv(BlockEnv, g)

	c.Assign("x", Int(2))

	if v, _ := g.Get("x"); v.AsInt() != 2 {
		t.Fatalf("assign must mutate the ancestor binding: want 2, got %v", v)
	}
	if v, _ := c.Get("x"); v.AsInt() != 2 {
		t.Fatalf("same storage read through child: want 2, got %v", v)
	}
	if c.Has("x") {
		t.Fatal("assign must not create a shadow in the child")
	}
}

func Test_Env_Assign_Not_Found_Creates_Local_Never_Global(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	c := NewEnv(BlockEnv, g)

	c.Assign("y", Int(5))

	if v, _ := c.Get("y"); v.AsInt() != 5 {
		t.Fatalf("want 5 in child, got %v", v)
	}
	if _, ok := g.Get("y"); ok {
		t.Fatal("assign fallback must never promote to the global scope")
	}
}

func Test_Env_Assign_Prefers_Nearest_Binding(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	g.Declare("n", Int(1))
	mid := NewEnv(BlockEnv, g)
	mid.Declare("n", Int(10))
	leaf := NewEnv(BlockEnv, mid)

	leaf.Assign("n", Int(99))

	if v, _ := mid.Get("n"); v.AsInt() != 99 {
		t.Fatalf("nearest binding (mid) must change: got %v", v)
	}
	if v, _ := g.Get("n"); v.AsInt() != 1 {
		t.Fatalf("outer binding must be untouched: got %v", v)
	}
}

func Test_Env_Names_Innermost_First_No_Duplicates(t *testing.T) {
	g := NewEnv(GlobalEnv, nil)
	g.Declare("a", Int(1))
	g.Declare("b", Int(2))
	c := NewEnv(BlockEnv, g)
	c.Declare("a", Int(3))

	names := c.Names()
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	if seen["a"] != 1 || seen["b"] != 1 {
		t.Fatalf("want unique a and b, got %v", names)
	}
}
