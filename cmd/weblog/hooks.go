package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/maddestlabs/weblog/script"
)

type hooksCmd struct {
	File string `arg:"" type:"existingfile" help:"Document to inspect."`
}

// Run lists every hook the document defines, in document order, with its
// line count and parse status.
func (c *hooksCmd) Run() error {
	raw, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	doc, err := parseDocument(c.File, string(raw))
	if err != nil {
		return err
	}
	if len(doc.Order) == 0 {
		fmt.Println("no hooks")
		return nil
	}
	for _, name := range doc.Order {
		src := doc.Hooks[name]
		lines := strings.Count(strings.TrimRight(src, "\n"), "\n") + 1
		status := "ok"
		if _, err := script.Parse(src); err != nil {
			status = "parse error"
		}
		fmt.Printf("%-12s %4d lines  %s\n", name, lines, status)
	}
	return nil
}
