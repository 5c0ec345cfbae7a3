package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/sahilm/fuzzy"

	"github.com/maddestlabs/weblog/script"
)

const (
	historyFile = ".weblog_history"
	promptMain  = "==> "
)

type replCmd struct {
	File string `arg:"" optional:"" type:"existingfile" help:"Document whose front matter and init hook seed the session."`
}

func (c *replCmd) Run() error {
	rt, err := c.seedRuntime()
	if err != nil {
		return err
	}

	fmt.Println("weblog REPL. Ctrl+D exits, :quit too.")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completer(rt))

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			continue
		}
		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}
		if strings.HasPrefix(code, ":") {
			if quit := replCommand(rt, code); quit {
				return nil
			}
			ln.AppendHistory(code)
			continue
		}

		v, err := evalLine(rt, code)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			continue
		}
		if v.Tag != script.TagNil {
			fmt.Println(v.Display())
		}
		ln.AppendHistory(code)
	}
}

// evalLine favors expressions ("score + 1" prints its value) and falls back
// to statement evaluation against the persistent Global scope.
func evalLine(rt *script.Runtime, code string) (script.Value, error) {
	if v, err := rt.EvalExpression(code); err == nil {
		return v, nil
	}
	return rt.EvalPersistent(code)
}

func replCommand(rt *script.Runtime, code string) (quit bool) {
	switch code {
	case ":quit", ":q":
		return true
	case ":vars":
		names := rt.Global.Names()
		sort.Strings(names)
		for _, n := range names {
			if v, ok := rt.Global.Get(n); ok && v.Tag != script.TagNative {
				fmt.Printf("%s = %s\n", n, v.String())
			}
		}
	case ":help":
		fmt.Print(":quit exit, :vars list globals, :help this text\n")
	default:
		fmt.Println("unknown command. Type :help.")
	}
	return false
}

// completer fuzzy-matches the word under the cursor against every visible
// Global binding and native name.
func completer(rt *script.Runtime) liner.Completer {
	return func(line string) []string {
		start := len(line)
		for start > 0 && isWordByte(line[start-1]) {
			start--
		}
		word := line[start:]
		if word == "" {
			return nil
		}
		names := rt.Global.Names()
		names = append(names, rt.Natives()...)
		sort.Strings(names)

		var out []string
		for _, m := range fuzzy.Find(word, names) {
			out = append(out, line[:start]+m.Str)
		}
		return out
	}
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// seedRuntime builds the session runtime, optionally from a document: front
// matter becomes globals and the init hook runs before the first prompt.
func (c *replCmd) seedRuntime() (*script.Runtime, error) {
	if c.File == "" {
		return script.NewRuntime(nil), nil
	}
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return nil, err
	}
	doc, err := parseDocument(c.File, string(raw))
	if err != nil {
		return nil, err
	}
	rt := script.NewRuntime(doc.Front)
	if src, ok := doc.Hooks[script.InitHook]; ok {
		h, err := rt.LoadHook(script.InitHook, src)
		if err != nil {
			return nil, err
		}
		if _, err := rt.RunHook(h, nil); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}
