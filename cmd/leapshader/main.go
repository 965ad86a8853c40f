// Package main provides the CLI for the LeapShader live shader workbench.
package main

import (
	"os"

	"github.com/leapstack-labs/leapshader/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
