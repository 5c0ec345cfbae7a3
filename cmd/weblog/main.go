// weblog runs markdown-like documents whose fenced code blocks script a
// terminal frame loop.
package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pkg/profile"
)

type cli struct {
	LogLevel string `help:"Log level." enum:"debug,info,warn,error" default:"info"`
	Profile  bool   `help:"Write a CPU profile to the current directory."`

	Run   runCmd   `cmd:"" help:"Run a document's frame loop in the terminal."`
	Repl  replCmd  `cmd:"" help:"Start an interactive script session."`
	Fmt   fmtCmd   `cmd:"" help:"Reprint a document's hook scripts in canonical form."`
	Hooks hooksCmd `cmd:"" help:"List the hooks a document defines."`
}

func main() {
	os.Exit(run())
}

// run keeps os.Exit out of the command path so deferred cleanup (notably the
// profiler) runs before the process exits.
func run() int {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("weblog"),
		kong.Description("Script-driven terminal rendering for markdown-like documents."),
		kong.UsageOnError(),
	)

	setupLogging(c.LogLevel)
	if c.Profile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	err := ctx.Run()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errFmtDiffs):
		// --check reports through the exit code alone.
		return 1
	default:
		slog.Error("command failed", "err", err)
		return 1
	}
}

func setupLogging(level string) {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}
