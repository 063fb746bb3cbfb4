package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fuabioo/xlcodec/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run as MCP server (stdio)",
	Long: `Run xlcodec as a Model Context Protocol server using stdio transport.
Tools: export_workbook, import_workbook, inspect_package, verify_package.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		allowedPaths, err := cmd.Flags().GetStringSlice("allowed-paths")
		if err != nil {
			return fmt.Errorf("failed to get allowed-paths flag: %w", err)
		}

		if len(allowedPaths) > 0 {
			// CLI flag takes precedence over env var
			if err := mcp.InitAllowedPaths(allowedPaths); err != nil {
				return fmt.Errorf("failed to initialize allowed paths: %w", err)
			}
		} else {
			// Fall back to XLCODEC_ALLOWED_PATHS environment variable
			if err := mcp.LoadAllowedPathsFromEnv(); err != nil {
				return fmt.Errorf("failed to load allowed paths from environment: %w", err)
			}
		}

		cfg, log, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		log.WithField("allowed_paths", mcp.AllowedBasePaths).Debug("starting MCP server")

		srv := mcp.New(cfg, log)
		return srv.Run()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringSlice("allowed-paths", nil,
		"Additional directories to allow file access (comma-separated, e.g. --allowed-paths /tmp,/data)")
}
