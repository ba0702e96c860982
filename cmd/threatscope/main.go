// Package main is the CLI entry point for threatscope.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/varga-lab/threatscope/internal/config"
	"github.com/varga-lab/threatscope/internal/runner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "threatscope",
		Short: "Topological-entropy threat assessment and automaton learning over attack scenarios",
		Long: `threatscope scores threat scenarios with a topological-entropy analyzer,
infers a finite-state behavior model for each via L*-style active learning,
and produces a combined capability-match report.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringP("config", "c", "config.toml", "path to config file")
	rootCmd.Flags().String("only", "", "run specific scenarios only (comma-separated keys)")
	rootCmd.Flags().String("scenarios", "", "directory of additional scenario .toml files")
	rootCmd.Flags().Bool("assess-only", false, "run entropy assessment without automaton learning")
	rootCmd.Flags().Int64("seed", 0, "override learner sampling seed (0 = from config)")
	rootCmd.Flags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.Flags().Bool("serve", false, "serve the report locally after the run")
	rootCmd.Flags().Int("port", 8790, "port for the report server")
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.AddCommand(newScenariosCmd())
	rootCmd.AddCommand(newEntropyCmd())

	ctx, stop := signal.NotifyContext(rootCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	onlyStr, _ := cmd.Flags().GetString("only")
	scenarioDir, _ := cmd.Flags().GetString("scenarios")
	assessOnly, _ := cmd.Flags().GetBool("assess-only")
	seed, _ := cmd.Flags().GetInt64("seed")
	verbose, _ := cmd.Flags().GetBool("verbose")
	serve, _ := cmd.Flags().GetBool("serve")
	port, _ := cmd.Flags().GetInt("port")

	var only []string
	if onlyStr != "" {
		for _, s := range strings.Split(onlyStr, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				only = append(only, s)
			}
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if seed != 0 {
		cfg.Learner.Seed = seed
	}

	r := runner.New(cfg, runner.Options{
		Only:        only,
		ScenarioDir: scenarioDir,
		AssessOnly:  assessOnly,
		Verbose:     verbose,
		Version:     fmt.Sprintf("%s (%s)", version, commit),
		Serve:       serve,
		ServePort:   port,
	})

	return r.Run(cmd.Context())
}
