// Package main is the entry point for the component playground.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. All the work (reading config,
// building the logger, wiring the server) happens in internal/cli, where
// it can be tested without starting a process.
//
// WHY cmd/playground/?
// The cmd/ directory is a Go convention for executable entry points.
// Each executable gets its own directory with its own main.go.
package main

import (
	"context"
	"os"

	"github.com/sakif/component-playground/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
