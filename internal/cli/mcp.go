package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/qwerty1432/Memory-Research/internal/memtools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve memory review tools over MCP (stdio)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.close()

		return server.ServeStdio(memtools.NewServer(rt.eng, VersionString()))
	},
}
