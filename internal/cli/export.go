package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/impex"
	"github.com/finalbiome/finalbiome-impex/internal/scanner"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/spf13/cobra"
)

const defaultGameSpecPath = "./game_spec.json"

type ExportCmd struct {
	g *globals
}

func NewExportCmd(g *globals) *ExportCmd {
	return &ExportCmd{g: g}
}

func (c *ExportCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Export the game spec of an organization to a file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := cmd.Flags().GetString("endpoint")
			if err != nil {
				return fmt.Errorf("failed to get endpoint flag: %w", err)
			}
			orgStr, err := cmd.Flags().GetString("organization")
			if err != nil {
				return fmt.Errorf("failed to get organization flag: %w", err)
			}
			path, err := cmd.Flags().GetString("game-spec")
			if err != nil {
				return fmt.Errorf("failed to get game-spec flag: %w", err)
			}
			overwrite, err := cmd.Flags().GetBool("overwrite")
			if err != nil {
				return fmt.Errorf("failed to get overwrite flag: %w", err)
			}
			scopeStr, err := cmd.Flags().GetString("scope")
			if err != nil {
				return fmt.Errorf("failed to get scope flag: %w", err)
			}
			parallel, err := cmd.Flags().GetInt("parallel")
			if err != nil {
				return fmt.Errorf("failed to get parallel flag: %w", err)
			}
			pageSize, err := cmd.Flags().GetUint32("page-size")
			if err != nil {
				return fmt.Errorf("failed to get page-size flag: %w", err)
			}

			if orgStr == "" {
				orgStr = os.Getenv("IMPEX_ORGANIZATION")
			}
			if orgStr == "" {
				return fmt.Errorf("organization is required")
			}
			org, err := ledger.ParseAccountID(orgStr)
			if err != nil {
				return fmt.Errorf("invalid organization: %w", err)
			}
			scope, err := gamespec.ParseScope(scopeStr)
			if err != nil {
				return err
			}
			networkConfig, err := c.g.networkConfig(endpoint)
			if err != nil {
				return err
			}

			log := newRunLogger(c.g.verbose)
			log.Debug("Connecting to node", "env", networkConfig.Moniker, "endpoint", networkConfig.NodeRPCURL)
			node := ledger.Dial(networkConfig.NodeRPCURL, nil).WithSS58Prefix(networkConfig.SS58Prefix)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			snap, err := impex.Export(ctx, impex.ExportConfig{
				Logger:       log,
				Node:         node,
				Organization: org,
				Path:         path,
				Overwrite:    overwrite,
				Scope:        scope,
				Parallelism:  parallel,
				PageSize:     pageSize,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Game spec of %s exported to %s at state version %s\n", org.SS58(networkConfig.SS58Prefix), path, snap.StateVersion)
			return nil
		},
	}

	cmd.Flags().String("endpoint", "", "Node JSON-RPC endpoint, overrides the environment")
	cmd.Flags().StringP("organization", "o", "", "Address of the organization to export, SS58 or 0x hex (or IMPEX_ORGANIZATION)")
	cmd.Flags().StringP("game-spec", "g", defaultGameSpecPath, "Path of the game spec file to write")
	cmd.Flags().BoolP("overwrite", "w", false, "Replace the game spec file if it exists")
	cmd.Flags().String("scope", gamespec.ScopeFull.String(), "Parts to export (full, organization)")
	cmd.Flags().Int("parallel", 1, "Number of collections read concurrently")
	cmd.Flags().Uint32("page-size", scanner.DefaultPageSize, "Number of storage keys requested per page")

	return cmd
}
