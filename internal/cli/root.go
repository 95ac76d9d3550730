package cli

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/finalbiome/finalbiome-impex/config"
	"github.com/finalbiome/finalbiome-impex/internal/metrics"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// BuildInfo is set by LDFLAGS in the binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	verbose       bool
	env           string
	envFile       string
	metricsAddr   string
	runtimeConfig string
}

func Run(build BuildInfo) ExitCode {
	var g globals
	rootCmd := &cobra.Command{
		Use:     "impex",
		Short:   "Export and import finalbiome game specs.",
		Version: fmt.Sprintf("%s (commit %s, built %s)", build.Version, build.Commit, build.Date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(g.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			if g.metricsAddr != "" {
				metrics.BuildInfo.WithLabelValues(build.Version, build.Commit, build.Date).Set(1)
				serveMetrics(newLogger(g.verbose), g.metricsAddr)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "set debug logging level")
	rootCmd.PersistentFlags().StringVarP(&g.env, "env", "e", config.EnvLocal, "The network environment of the node (local, devnet, testnet)")
	rootCmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "Load IMPEX_* variables from this file when it exists")
	rootCmd.PersistentFlags().StringVar(&g.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address while running")
	rootCmd.PersistentFlags().StringVar(&g.runtimeConfig, "runtime-config", "", "YAML file with the pallet, call and event layout of the runtime")

	rootCmd.AddCommand(
		NewExportCmd(&g).Command(),
		NewImportCmd(&g).Command(),
		NewInspectCmd().Command(),
		NewDiffCmd().Command(),
	)

	if err := rootCmd.Execute(); err != nil {
		return exitCodeError
	}

	return exitCodeSuccess
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// newRunLogger tags every record of one export or import.
func newRunLogger(verbose bool) *slog.Logger {
	return newLogger(verbose).With("run", uuid.NewString())
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is only an error when it was asked
// for explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func serveMetrics(log *slog.Logger, addr string) {
	go func() {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error("Failed to start prometheus metrics server listener", "error", err)
			return
		}
		log.Info("Prometheus metrics server listening", "address", listener.Addr().String())
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.Serve(listener, mux); err != nil {
			log.Error("Failed to start prometheus metrics server", "error", err)
		}
	}()
}

// networkConfig resolves the environment and applies an explicit endpoint.
func (g *globals) networkConfig(endpoint string) (*config.NetworkConfig, error) {
	networkConfig, err := config.NetworkConfigForEnv(g.env)
	if err != nil {
		return nil, fmt.Errorf("failed to get network config: %w", err)
	}
	if endpoint != "" {
		networkConfig.NodeRPCURL = endpoint
	}
	return networkConfig, nil
}
