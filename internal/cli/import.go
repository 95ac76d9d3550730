package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finalbiome/finalbiome-impex/internal/gamespec"
	"github.com/finalbiome/finalbiome-impex/internal/impex"
	"github.com/finalbiome/finalbiome-impex/internal/replay"
	"github.com/finalbiome/finalbiome-impex/pkg/finalbiome"
	"github.com/finalbiome/finalbiome-impex/pkg/ledger"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// seedFormatNote is shown with the seed flags; signing is ed25519 only.
const seedFormatNote = "sr25519 seed phrases and derivation URIs (//Alice) are not supported"

const (
	envOrganizationSeed = "IMPEX_ORGANIZATION_SEED"
	envManagerSeed      = "IMPEX_MANAGER_SEED"
)

type ImportCmd struct {
	g *globals
}

func NewImportCmd(g *globals) *ImportCmd {
	return &ImportCmd{g: g}
}

func (c *ImportCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "import",
		Short:        "Recreate the organization of a game spec file on a node",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint, err := cmd.Flags().GetString("endpoint")
			if err != nil {
				return fmt.Errorf("failed to get endpoint flag: %w", err)
			}
			path, err := cmd.Flags().GetString("game-spec")
			if err != nil {
				return fmt.Errorf("failed to get game-spec flag: %w", err)
			}
			orgSeed, err := cmd.Flags().GetString("organization-seed")
			if err != nil {
				return fmt.Errorf("failed to get organization-seed flag: %w", err)
			}
			managerSeed, err := cmd.Flags().GetString("manager-seed")
			if err != nil {
				return fmt.Errorf("failed to get manager-seed flag: %w", err)
			}
			timeout, err := cmd.Flags().GetDuration("inclusion-timeout")
			if err != nil {
				return fmt.Errorf("failed to get inclusion-timeout flag: %w", err)
			}
			noProgress, err := cmd.Flags().GetBool("no-progress")
			if err != nil {
				return fmt.Errorf("failed to get no-progress flag: %w", err)
			}

			if orgSeed == "" {
				orgSeed = os.Getenv(envOrganizationSeed)
			}
			if orgSeed == "" {
				return fmt.Errorf("organization seed is required (--organization-seed or %s)", envOrganizationSeed)
			}
			orgSigner, err := ledger.ParseSeed(orgSeed)
			if err != nil {
				return fmt.Errorf("invalid organization seed: %w", err)
			}
			var managerSigner ledger.Signer
			if managerSeed == "" {
				managerSeed = os.Getenv(envManagerSeed)
			}
			if managerSeed != "" {
				managerSigner, err = ledger.ParseSeed(managerSeed)
				if err != nil {
					return fmt.Errorf("invalid manager seed: %w", err)
				}
			}

			layout, err := finalbiome.LoadRuntimeLayout(c.g.runtimeConfig)
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
			executor := ledger.NewExecutor(log, node, layout, ledger.WithInclusionTimeout(timeout))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var bar *progressbar.ProgressBar
			res, err := impex.Import(ctx, impex.ImportConfig{
				Logger:             log,
				Submitter:          executor,
				Path:               path,
				OrganizationSigner: orgSigner,
				ManagerSigner:      managerSigner,
				OnStart: func(_ *gamespec.Snapshot, transactions int) {
					if noProgress {
						return
					}
					bar = progressbar.NewOptions(
						transactions,
						progressbar.OptionSetDescription("Importing game spec"),
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionSetWidth(40),
						progressbar.OptionShowCount(),
						progressbar.OptionShowElapsedTimeOnFinish(),
						progressbar.OptionSetRenderBlankState(true),
					)
				},
				OnTransaction: func(step replay.Step) {
					if bar != nil {
						bar.Describe(step.Description)
						_ = bar.Add(1)
					}
				},
			})
			if bar != nil {
				if err == nil {
					_ = bar.Finish()
				}
				fmt.Fprintln(os.Stderr)
			}
			if err != nil {
				if res != nil {
					log.Warn("Import stopped part way, the organization is partially created", "transactions", res.Transactions)
				}
				return err
			}

			fmt.Printf("Game spec %s imported for organization %s in %d transactions\n", path, res.Organization.SS58(networkConfig.SS58Prefix), res.Transactions)
			return nil
		},
	}

	cmd.Flags().String("endpoint", "", "Node JSON-RPC endpoint, overrides the environment")
	cmd.Flags().StringP("game-spec", "g", defaultGameSpecPath, "Path of the game spec file to read")
	cmd.Flags().String("organization-seed", "", "Ed25519 seed of the organization account: 0x hex seed, keypair file or base58 key (or "+envOrganizationSeed+"). "+seedFormatNote)
	cmd.Flags().String("manager-seed", "", "Ed25519 seed of the account that creates assets and classes, defaults to the organization seed (or "+envManagerSeed+"). "+seedFormatNote)
	cmd.Flags().Duration("inclusion-timeout", 2*time.Minute, "How long to wait for each transaction to be finalized")
	cmd.Flags().Bool("no-progress", false, "Do not render a progress bar")

	return cmd
}
