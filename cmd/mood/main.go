package main

import (
	stderrors "errors"
	"fmt"
	"os"
	_ "time/tzdata" // --tz and config timezones work without system zoneinfo

	"github.com/urfave/cli/v2"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   __  __  ___   ___  ___
  |  \/  |/ _ \ / _ \|   \
  | |\/| | (_) | (_) | |) |
  |_|  |_|\___/ \___/|___/

  Mood journal and analytics

  Usage: mood <command> [options]
         mood serve      (web UI on http://127.0.0.1:8080)
         mood --help

  MCP server mode requires piped input.`)
}

func main() {
	args := os.Args

	if len(args) < 2 {
		// No args + interactive terminal → show banner and exit
		if isTerminal() {
			printBanner()
			return
		}
		// Piped stdin with no command → MCP server
		args = append(args, "mcp")
	}

	app := newCLIApp(newEnv(os.Stdin, os.Stdout, os.Stderr))
	if err := app.Run(args); err != nil {
		var exitErr cli.ExitCoder
		if stderrors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
