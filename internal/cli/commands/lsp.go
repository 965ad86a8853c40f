package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapshader/internal/cli/config"
	"github.com/leapstack-labs/leapshader/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for IDE integration.

The server communicates over stdin/stdout using JSON-RPC. Opening or editing
vertex.wgsl or fragment.wgsl feeds the text into a compile session, and its
diagnostics are published back per stage. The project root is determined by
the client's initialization request (rootUri parameter).`,
		Example: `  # Start LSP server (usually called by an IDE)
  leapshader lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := lsp.NewServer(os.Stdin, os.Stdout, lsp.Options{
				Logger:  config.GetLogger(cmd.Context()),
				Version: version,
			})
			return server.Run(cmd.Context())
		},
	}

	return cmd
}
