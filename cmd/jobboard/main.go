// Package main is the entry point for the jobboard binary.
//
// The main package stays minimal: it builds the cobra command tree and turns
// the returned error into an exit code. Everything else lives under
// internal/ (cli → server → handler → service → repository).
package main

import (
	"context"
	"os"

	"github.com/sakif/job-board/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
