package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/maddestlabs/weblog/document"
	"github.com/maddestlabs/weblog/script"
)

// errFmtDiffs signals --check failure; main maps it to exit code 1 without
// logging, after deferred cleanup (the profiler) has run.
var errFmtDiffs = errors.New("hook scripts differ from canonical form")

type fmtCmd struct {
	File  string `arg:"" type:"existingfile" help:"Document whose hook scripts to reprint."`
	Check bool   `help:"Exit 1 if any hook differs from its canonical form; print nothing."`
}

// Run reprints every hook script in canonical form, fenced under its label.
// The document's prose is not rewritten; scripts are the subject here.
func (c *fmtCmd) Run() error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	doc, err := parseDocument(c.File, string(raw))
	if err != nil {
		return err
	}

	dirty := false
	for _, name := range doc.Order {
		src := doc.Hooks[name]
		prog, err := script.Parse(src)
		if err != nil {
			return script.WrapErrorWithName(err, name, src)
		}
		formatted := script.FormatProgram(prog)
		if formatted != src {
			dirty = true
		}
		if !c.Check {
			fmt.Printf("```%s\n%s```\n\n", name, formatted)
		}
	}
	if c.Check && dirty {
		return errFmtDiffs
	}
	return nil
}

func parseDocument(path, raw string) (*document.Document, error) {
	doc, err := document.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
