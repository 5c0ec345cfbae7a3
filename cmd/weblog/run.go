package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maddestlabs/weblog/script"
	"github.com/maddestlabs/weblog/term"
)

const defaultFPS = 30

type runCmd struct {
	File   string `arg:"" type:"existingfile" help:"Document to run."`
	FPS    int    `help:"Frame rate override (front matter targetFPS wins by default)." default:"0"`
	Strict bool   `help:"Stop on the first hook error instead of skipping the frame."`
	Width  int    `help:"Initial canvas width." default:"80"`
	Height int    `help:"Initial canvas height." default:"24"`
}

func (c *runCmd) Run() error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	doc, err := parseDocument(c.File, string(raw))
	if err != nil {
		return err
	}

	rt := script.NewRuntime(doc.Front)
	canvas := term.NewCanvas(c.Width, c.Height)
	term.Bind(rt, canvas)

	hooks := map[string]*script.Hook{}
	for _, name := range doc.Order {
		h, err := rt.LoadHook(name, doc.Hooks[name])
		if err != nil {
			return err
		}
		hooks[name] = h
	}

	if h, ok := hooks[script.InitHook]; ok {
		if _, err := rt.RunHook(h, nil); err != nil {
			return err
		}
	}

	m := &runModel{
		rt:     rt,
		canvas: canvas,
		hooks:  hooks,
		fps:    c.frameRate(rt),
		strict: c.Strict,
		keys:   defaultKeyMap(),
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	out, err := p.Run()
	if err != nil {
		return err
	}
	if final, ok := out.(*runModel); ok && final.fatal != nil {
		return final.fatal
	}
	return nil
}

// frameRate resolves the tick rate: front matter targetFPS unless the flag
// overrides it, defaulting to 30.
func (c *runCmd) frameRate(rt *script.Runtime) int {
	if c.FPS > 0 {
		return c.FPS
	}
	if v, ok := rt.Global.Get("targetFPS"); ok && v.Tag == script.TagInt && v.AsInt() > 0 {
		return int(v.AsInt())
	}
	return defaultFPS
}

type keyMap struct {
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("ctrl+c/esc", "quit"),
		),
	}
}

type tickMsg time.Time

// runModel drives the lifecycle: every tick runs update then render, every
// keypress runs input with the key name bound, and quitting runs shutdown.
type runModel struct {
	rt     *script.Runtime
	canvas *term.Canvas
	hooks  map[string]*script.Hook
	fps    int
	strict bool
	keys   keyMap

	frame string
	fatal error
}

func (m *runModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *runModel) Init() tea.Cmd {
	return m.tick()
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.canvas.Resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		if !m.runHook("input", map[string]script.Value{"key": script.Str(msg.String())}) {
			return m, tea.Quit
		}
		if m.rt.Stopped() {
			return m.quit()
		}
		return m, nil

	case tickMsg:
		if !m.runHook("update", nil) || !m.runHook("render", nil) {
			return m, tea.Quit
		}
		m.frame = m.canvas.Render()
		if m.rt.Stopped() {
			return m.quit()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *runModel) View() string {
	return m.frame
}

// runHook executes a lifecycle hook if the document defines it. A hook error
// is fatal under --strict; otherwise the frame is skipped with Global as-is.
func (m *runModel) runHook(name string, extra map[string]script.Value) bool {
	h, ok := m.hooks[name]
	if !ok {
		return true
	}
	if _, err := m.rt.RunHook(h, extra); err != nil {
		if m.strict {
			m.fatal = err
			return false
		}
		slog.Warn("hook failed, skipping frame", "hook", name, "err", err)
	}
	return true
}

func (m *runModel) quit() (tea.Model, tea.Cmd) {
	m.runHook("shutdown", nil)
	return m, tea.Quit
}
