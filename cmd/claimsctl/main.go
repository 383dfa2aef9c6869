package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reniita09/Humaein/internal/api"
	"github.com/reniita09/Humaein/internal/config"
	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/internal/results"
	"github.com/reniita09/Humaein/internal/session"
	"github.com/reniita09/Humaein/internal/upload"
)

// Shared wiring, built once in the persistent pre-run.
var (
	cfg          *config.Config
	store        session.Store
	gate         *session.Gate
	client       *api.Client
	orchestrator *upload.Orchestrator
	aggregator   *results.Aggregator
)

var rootCmd = &cobra.Command{
	Use:   "claimsctl",
	Short: "Operator client for the Humaein claims-validation backend",
	Long: `claimsctl authenticates against the claims-validation backend, submits
rule documents and a claims spreadsheet for validation, and retrieves the
paginated validation results, metrics, and CSV export for a job.

Examples:
  claimsctl login -u ops@humaein.com
  claimsctl validate --claims claims.xlsx --technical tech_rules.pdf
  claimsctl results <job-id>
  claimsctl export <job-id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger.Init(cfg.Logging.Level, cfg.Logging.Format)

		store, err = newStore(cfg)
		if err != nil {
			return err
		}

		gate = session.NewGate(store)
		client = api.NewClient(cfg, store)
		orchestrator = upload.NewOrchestrator(client, cfg)
		aggregator = results.NewAggregator(client, cfg)
		return nil
	},
}

func newStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "", "file":
		return session.NewFileStore(cfg.Session.TokenPath), nil
	case "redis":
		redisStore, err := session.NewRedisStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect session store: %w", err)
		}
		return redisStore, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
