// builtin_core.go — the default natives every runtime carries.
//
// These follow the native calling convention of §runtime: each function
// validates its own arity and argument types and signals misuse with a
// NativeArgError, which the evaluator reports like any other runtime error.
package script

import (
	"fmt"
	"strconv"
	"strings"
)

func registerCore(rt *Runtime) {
	rt.RegisterNative("print", nativePrint)
	rt.RegisterNative("len", nativeLen)
	rt.RegisterNative("push", nativePush)
	rt.RegisterNative("keys", nativeKeys)
	rt.RegisterNative("contains", nativeContains)
	rt.RegisterNative("str", nativeStr)
	rt.RegisterNative("int", nativeInt)
	rt.RegisterNative("float", nativeFloat)
	rt.RegisterNative("range", nativeRange)
	rt.RegisterNative("quit", nativeQuit)
}

func nativePrint(ctx *NativeCtx, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Display()
	}
	fmt.Fprintln(ctx.Output(), strings.Join(parts, " "))
	return Nil, nil
}

func nativeLen(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil, NativeArgErrorf("len", "expects 1 argument, got %d", len(args))
	}
	switch args[0].Tag {
	case TagStr:
		return Int(int64(len([]rune(args[0].AsStr())))), nil
	case TagList:
		return Int(int64(len(args[0].AsList().Items))), nil
	case TagMap:
		return Int(int64(len(args[0].AsMap().Keys))), nil
	}
	return Nil, NativeArgErrorf("len", "expects string, list, or map, got %s", args[0].Tag.TypeName())
}

// nativePush appends in place: every reference to the list sees the new
// element. Returns the list for chaining.
func nativePush(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 2 {
		return Nil, NativeArgErrorf("push", "expects 2 arguments, got %d", len(args))
	}
	if args[0].Tag != TagList {
		return Nil, NativeArgErrorf("push", "first argument must be a list, got %s", args[0].Tag.TypeName())
	}
	lst := args[0].AsList()
	lst.Items = append(lst.Items, args[1])
	return args[0], nil
}

func nativeKeys(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 1 || args[0].Tag != TagMap {
		return Nil, NativeArgErrorf("keys", "expects a map")
	}
	m := args[0].AsMap()
	out := make([]Value, len(m.Keys))
	for i, k := range m.Keys {
		out[i] = Str(k)
	}
	return List(out...), nil
}

func nativeContains(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 2 {
		return Nil, NativeArgErrorf("contains", "expects 2 arguments, got %d", len(args))
	}
	switch args[0].Tag {
	case TagList:
		for _, it := range args[0].AsList().Items {
			if Equal(it, args[1]) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case TagMap:
		if args[1].Tag != TagStr {
			return Nil, NativeArgErrorf("contains", "map membership needs a string key")
		}
		_, ok := args[0].AsMap().Get(args[1].AsStr())
		return Bool(ok), nil
	case TagStr:
		if args[1].Tag != TagStr {
			return Nil, NativeArgErrorf("contains", "substring check needs a string")
		}
		return Bool(strings.Contains(args[0].AsStr(), args[1].AsStr())), nil
	}
	return Nil, NativeArgErrorf("contains", "expects list, map, or string, got %s", args[0].Tag.TypeName())
}

func nativeStr(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil, NativeArgErrorf("str", "expects 1 argument, got %d", len(args))
	}
	return Str(args[0].Display()), nil
}

func nativeInt(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil, NativeArgErrorf("int", "expects 1 argument, got %d", len(args))
	}
	switch args[0].Tag {
	case TagInt:
		return args[0], nil
	case TagFloat:
		return Int(int64(args[0].AsFloat())), nil
	case TagBool:
		if args[0].Data.(bool) {
			return Int(1), nil
		}
		return Int(0), nil
	case TagStr:
		n, err := strconv.ParseInt(strings.TrimSpace(args[0].AsStr()), 10, 64)
		if err != nil {
			return Nil, NativeArgErrorf("int", "cannot parse %q", args[0].AsStr())
		}
		return Int(n), nil
	}
	return Nil, NativeArgErrorf("int", "cannot convert %s", args[0].Tag.TypeName())
}

func nativeFloat(_ *NativeCtx, args []Value) (Value, error) {
	if len(args) != 1 {
		return Nil, NativeArgErrorf("float", "expects 1 argument, got %d", len(args))
	}
	switch args[0].Tag {
	case TagFloat:
		return args[0], nil
	case TagInt:
		return Float(float64(args[0].AsInt())), nil
	case TagStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(args[0].AsStr()), 64)
		if err != nil {
			return Nil, NativeArgErrorf("float", "cannot parse %q", args[0].AsStr())
		}
		return Float(f), nil
	}
	return Nil, NativeArgErrorf("float", "cannot convert %s", args[0].Tag.TypeName())
}

// nativeRange builds [0..n) or [a..b) step 1.
func nativeRange(_ *NativeCtx, args []Value) (Value, error) {
	var lo, hi int64
	switch len(args) {
	case 1:
		if args[0].Tag != TagInt {
			return Nil, NativeArgErrorf("range", "expects int bounds")
		}
		hi = args[0].AsInt()
	case 2:
		if args[0].Tag != TagInt || args[1].Tag != TagInt {
			return Nil, NativeArgErrorf("range", "expects int bounds")
		}
		lo, hi = args[0].AsInt(), args[1].AsInt()
	default:
		return Nil, NativeArgErrorf("range", "expects 1 or 2 arguments, got %d", len(args))
	}
	var out []Value
	for i := lo; i < hi; i++ {
		out = append(out, Int(i))
	}
	return List(out...), nil
}

func nativeQuit(ctx *NativeCtx, args []Value) (Value, error) {
	if len(args) != 0 {
		return Nil, NativeArgErrorf("quit", "expects no arguments")
	}
	ctx.Stop()
	return Nil, nil
}
