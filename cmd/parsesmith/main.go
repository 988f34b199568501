// parsesmith synthesizes a bank-statement parser from a sample document and
// a reference CSV, using an LLM completion service with a bounded
// validate-test-retry loop and a deterministic fallback.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"parsesmith/internal/config"
	"parsesmith/internal/history"
	"parsesmith/internal/llm"
	"parsesmith/internal/logging"
	"parsesmith/internal/synth"
)

var (
	target      string
	verbose     bool
	configPath  string
	journalPath string

	logger   *zap.Logger
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "parsesmith",
	Short: "parsesmith - LLM-synthesized bank statement parsers",
	Long: `parsesmith asks a completion service to write a statement parser for the
selected target, validates and differentially tests every candidate against
the target's reference output, and installs a deterministic fallback parser
when synthesis fails.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runAgent,
}

func init() {
	rootCmd.Flags().StringVar(&target, "target", "", "target bank profile (e.g. icici)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	rootCmd.Flags().StringVar(&journalPath, "journal", "", "sqlite attempt journal path (empty disables)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("target")
}

func runAgent(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	profile, err := cfg.ProfileFor(target)
	if err != nil {
		return err
	}

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
	}, logger)

	ctx := context.Background()
	models, err := client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	logger.Debug("available models", zap.Strings("models", models))
	model := llm.SelectModel(models, profile.PreferredModels)
	if model == "" {
		return errors.New("no valid model found")
	}
	logger.Info("using model", zap.String("model", model))

	var journal *history.Journal
	if journalPath != "" {
		journal, err = history.Open(journalPath)
		if err != nil {
			return err
		}
		defer journal.Close()
	}

	store := synth.NewStore(profile.ArtifactPath)
	tester := synth.NewTester(store, logger)
	agent := synth.NewAgent(client, store, tester, journal, model, logger)

	result, err := agent.Run(ctx, profile.SamplePath, profile.ReferencePath)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		zap.String("run_id", result.RunID),
		zap.String("status", result.Status.String()),
		zap.Int("attempts", result.Attempts),
		zap.String("artifact", store.Path()))
	if result.Status == synth.StatusFallbackFailed {
		fmt.Fprintln(os.Stderr, "fallback parser failed the differential test:")
		fmt.Fprintln(os.Stderr, result.Diff)
		exitCode = 2
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
