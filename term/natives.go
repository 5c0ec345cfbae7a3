// natives.go — the drawing surface exposed to scripts.
//
// Bind registers one native per canvas operation. Styles cross the boundary
// as ordinary script maps ({fg: "212", bg: "236", bold: true}) built by the
// style native; the binder memoizes compiled lipgloss styles keyed on the
// map's settings, so a mutated style map takes effect on the next draw and
// maps with identical settings share one compiled style (and render as one
// styled run).
package term

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/maddestlabs/weblog/script"
)

type binder struct {
	canvas *Canvas
	styles map[string]*lipgloss.Style
}

// Bind registers the canvas natives on a runtime: clear, text, box, fill,
// width, height, style.
func Bind(rt *script.Runtime, c *Canvas) {
	b := &binder{canvas: c, styles: map[string]*lipgloss.Style{}}
	rt.RegisterNative("clear", b.nativeClear)
	rt.RegisterNative("text", b.nativeText)
	rt.RegisterNative("box", b.nativeBox)
	rt.RegisterNative("fill", b.nativeFill)
	rt.RegisterNative("width", b.nativeWidth)
	rt.RegisterNative("height", b.nativeHeight)
	rt.RegisterNative("style", b.nativeStyle)
}

func wantIntArg(fn string, args []script.Value, i int) (int, error) {
	if args[i].Tag != script.TagInt {
		return 0, script.NativeArgErrorf(fn, "argument %d must be an int, got %s", i+1, args[i].Tag.TypeName())
	}
	return int(args[i].AsInt()), nil
}

// resolveStyle compiles (and memoizes) the style for an optional trailing
// style-map argument. nil means the canvas default. The memo key is the
// validated settings, not the map object, so mutating a style map changes
// the style used by subsequent draws.
func (b *binder) resolveStyle(fn string, args []script.Value, i int) (*lipgloss.Style, error) {
	if i >= len(args) {
		return nil, nil
	}
	if args[i].Tag != script.TagMap {
		return nil, script.NativeArgErrorf(fn, "style must be a map, got %s", args[i].Tag.TypeName())
	}
	m := args[i].AsMap()

	var fg, bg, bold string
	for _, k := range m.Keys {
		v, _ := m.Get(k)
		switch k {
		case "fg":
			if v.Tag != script.TagStr {
				return nil, script.NativeArgErrorf(fn, "style fg must be a string color")
			}
			fg = v.AsStr()
		case "bg":
			if v.Tag != script.TagStr {
				return nil, script.NativeArgErrorf(fn, "style bg must be a string color")
			}
			bg = v.AsStr()
		case "bold":
			if v.Tag != script.TagBool {
				return nil, script.NativeArgErrorf(fn, "style bold must be a bool")
			}
			if v.Data.(bool) {
				bold = "true"
			} else {
				bold = "false"
			}
		default:
			return nil, script.NativeArgErrorf(fn, "unknown style key %q (want fg, bg, bold)", k)
		}
	}

	sig := "fg\x00" + fg + "\x00bg\x00" + bg + "\x00bold\x00" + bold
	if st, ok := b.styles[sig]; ok {
		return st, nil
	}
	st := lipgloss.NewStyle()
	if fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		st = st.Background(lipgloss.Color(bg))
	}
	if bold != "" {
		st = st.Bold(bold == "true")
	}
	b.styles[sig] = &st
	return &st, nil
}

func (b *binder) nativeClear(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) != 0 {
		return script.Nil, script.NativeArgErrorf("clear", "expects no arguments")
	}
	b.canvas.Clear()
	return script.Nil, nil
}

// text(x, y, s [, style])
func (b *binder) nativeText(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) < 3 || len(args) > 4 {
		return script.Nil, script.NativeArgErrorf("text", "expects 3 or 4 arguments, got %d", len(args))
	}
	x, err := wantIntArg("text", args, 0)
	if err != nil {
		return script.Nil, err
	}
	y, err := wantIntArg("text", args, 1)
	if err != nil {
		return script.Nil, err
	}
	st, err := b.resolveStyle("text", args, 3)
	if err != nil {
		return script.Nil, err
	}
	b.canvas.Text(x, y, args[2].Display(), st)
	return script.Nil, nil
}

// box(x, y, w, h [, style])
func (b *binder) nativeBox(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) < 4 || len(args) > 5 {
		return script.Nil, script.NativeArgErrorf("box", "expects 4 or 5 arguments, got %d", len(args))
	}
	n := [4]int{}
	for i := range n {
		v, err := wantIntArg("box", args, i)
		if err != nil {
			return script.Nil, err
		}
		n[i] = v
	}
	st, err := b.resolveStyle("box", args, 4)
	if err != nil {
		return script.Nil, err
	}
	b.canvas.Box(n[0], n[1], n[2], n[3], st)
	return script.Nil, nil
}

// fill(x, y, w, h, ch [, style]) — ch is a one-rune string.
func (b *binder) nativeFill(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) < 5 || len(args) > 6 {
		return script.Nil, script.NativeArgErrorf("fill", "expects 5 or 6 arguments, got %d", len(args))
	}
	n := [4]int{}
	for i := range n {
		v, err := wantIntArg("fill", args, i)
		if err != nil {
			return script.Nil, err
		}
		n[i] = v
	}
	if args[4].Tag != script.TagStr {
		return script.Nil, script.NativeArgErrorf("fill", "fill rune must be a string, got %s", args[4].Tag.TypeName())
	}
	runes := []rune(args[4].AsStr())
	if len(runes) != 1 {
		return script.Nil, script.NativeArgErrorf("fill", "fill rune must be exactly one character, got %q", args[4].AsStr())
	}
	st, err := b.resolveStyle("fill", args, 5)
	if err != nil {
		return script.Nil, err
	}
	b.canvas.Fill(n[0], n[1], n[2], n[3], runes[0], st)
	return script.Nil, nil
}

func (b *binder) nativeWidth(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) != 0 {
		return script.Nil, script.NativeArgErrorf("width", "expects no arguments")
	}
	return script.Int(int64(b.canvas.Width())), nil
}

func (b *binder) nativeHeight(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) != 0 {
		return script.Nil, script.NativeArgErrorf("height", "expects no arguments")
	}
	return script.Int(int64(b.canvas.Height())), nil
}

// style(m) validates a style map eagerly so a bad map fails at the style()
// call, then returns the same map for scripts to hold, reuse, and mutate;
// draws re-read the map's current settings.
func (b *binder) nativeStyle(_ *script.NativeCtx, args []script.Value) (script.Value, error) {
	if len(args) != 1 {
		return script.Nil, script.NativeArgErrorf("style", "expects 1 argument, got %d", len(args))
	}
	if _, err := b.resolveStyle("style", args, 0); err != nil {
		return script.Nil, err
	}
	return args[0], nil
}
