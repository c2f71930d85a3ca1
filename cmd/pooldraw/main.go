package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/derekprior/pooldraw/internal/config"
	"github.com/derekprior/pooldraw/internal/excel"
	"github.com/derekprior/pooldraw/internal/fixtures"
	"github.com/derekprior/pooldraw/internal/verify"
)

const (
	defaultConfigFile = "config.yaml"
	configEnv         = "POOLDRAW_CONFIG"
)

func resolveConfigPath(configFlag string) (string, error) {
	if configFlag != "" {
		return configFlag, nil
	}
	if env := os.Getenv(configEnv); env != "" {
		return env, nil
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return defaultConfigFile, nil
	}
	return "", fmt.Errorf("no config file found. Either create %s in the current directory, set %s or pass --config", defaultConfigFile, configEnv)
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pooldraw",
		Short: "Round-robin pool draw with home/away balancing",
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log each drawing and balancing pass")

	var initOutputPath string
	initCmd := &cobra.Command{
		Use:          "init",
		Short:        "Create a starter config.yaml in the current directory",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initOutputPath)
		},
	}
	initCmd.Flags().StringVarP(&initOutputPath, "output", "o", defaultConfigFile, "Output path for the config file")

	drawCmd := &cobra.Command{
		Use:   "draw",
		Short: "Generate, rebalance and verify pool draws",
	}

	var configFile string
	drawCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $POOLDRAW_CONFIG or config.yaml in current directory)")

	var seed int64
	drawCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed (overrides config and $POOLDRAW_SEED)")

	seedFlag := func(cmd *cobra.Command) *int64 {
		if cmd.Flags().Changed("seed") {
			return &seed
		}
		return nil
	}

	var outputFile string
	generateCmd := &cobra.Command{
		Use:          "generate",
		Short:        "Draw fixtures for every pool in a config file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runGenerate(configPath, outputFile, seedFlag(cmd), newLogger(verbose))
		},
	}
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "draw.xlsx", "Output Excel file path")

	var rebalanceOutput string
	rebalanceCmd := &cobra.Command{
		Use:          "rebalance <draw.xlsx>",
		Short:        "Rebalance home/away sides of an existing draw",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			out := rebalanceOutput
			if out == "" {
				out = args[0]
			}
			return runRebalance(configPath, args[0], out, seedFlag(cmd), newLogger(verbose))
		},
	}
	rebalanceCmd.Flags().StringVarP(&rebalanceOutput, "output", "o", "", "Output Excel file path (default: overwrite the input)")

	verifyCmd := &cobra.Command{
		Use:          "verify <draw.xlsx>",
		Short:        "Check a draw against the config",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := resolveConfigPath(configFile)
			if err != nil {
				return err
			}
			return runVerify(configPath, args[0])
		},
	}

	drawCmd.AddCommand(generateCmd, rebalanceCmd, verifyCmd)
	rootCmd.AddCommand(initCmd, drawCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(outputPath string) error {
	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use -o to write elsewhere", outputPath)
	}

	if err := os.WriteFile(outputPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("✓ Created %s\n", outputPath)
	return nil
}

const configTemplate = `# Pool Draw Configuration
# =======================
# This file lists the players of each pool and how many opponents each
# player should be drawn against.

tournament: "Spring Open"

# Number of distinct opponents per player. Every opponent comes from the
# player's own pool, so a pool needs more players than this number.
# Even values allow a perfect home/away split.
matches_per_player: 6

# Fix the random seed to reproduce a draw. Leave unset for a fresh draw;
# the seed used is printed and stored in the workbook. POOLDRAW_SEED in the
# environment (or a .env file) overrides this value.
# seed: 12345

# When a pool cannot give everyone a full fixture list, allow the draw to
# pair a short player with a pool-mate who is already full. Those players
# are reported.
allow_over_quota: false

# Pools and their players. A player is either a plain name or a mapping
# with a name and an explicit id. Ids default to a slug of the name
# ("Ann Lee" becomes "ann-lee") and must be unique across all pools.
pools:
  - name: A
    players:
      - Ann Lee
      - Bob Marsh
      - Cal Ng
      - Dee Ott
      - Eve Park
      - Fay Orr
      - Gus Pike
      - Hal Quinn
  - name: B
    players:
      - name: Ida Ruiz
        id: iruiz
      - Jon Sato
      - Kim Tan
      - Lou Uhl
      - Max Vance
      - Ned West
      - Oli Xu
      - Pat Young

# Players without a pool are drawn against each other as one group.
unassigned: []

# Balancing strategies, tried in this order until every player is level:
#   single_swap    flip a match's home and away sides
#   pair_swap      exchange opponents between two matches
#   targeted_fix   work on the most imbalanced players first
#   force_balance  flip chains of matches until balance is reached
# Omit to use all four.
balance:
  strategies: [single_swap, pair_swap, targeted_fix, force_balance]
`

func loadConfig(configPath string, seed *int64) (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if seed != nil {
		cfg.Seed = seed
	}
	return cfg, nil
}

func options(cfg *config.Config, log zerolog.Logger) fixtures.Options {
	return fixtures.Options{
		MatchesPerPlayer: cfg.MatchesPerPlayer,
		Seed:             cfg.Seed,
		AllowOverQuota:   cfg.AllowOverQuota,
		Strategies:       cfg.Balance.Strategies,
		Logger:           &log,
	}
}

func runGenerate(configPath, outputPath string, seed *int64, log zerolog.Logger) error {
	cfg, err := loadConfig(configPath, seed)
	if err != nil {
		return err
	}

	players := cfg.Players()
	fmt.Printf("Drawing %d opponents each for %d players...\n", cfg.MatchesPerPlayer, len(players))

	result, err := fixtures.Generate(players, options(cfg, log))
	if err != nil {
		if result != nil {
			printViolations(result.Report)
		}
		return fmt.Errorf("drawing fixtures: %w", err)
	}

	fmt.Printf("✓ %d matches drawn (seed %d)\n", len(result.Matches), result.Seed)
	printResult(cfg, result)

	f, err := excel.Generate(cfg.Tournament, players, result)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Draw saved to %s\n", outputPath)
	return nil
}

func runRebalance(configPath, drawPath, outputPath string, seed *int64, log zerolog.Logger) error {
	cfg, err := loadConfig(configPath, seed)
	if err != nil {
		return err
	}

	matches, err := excel.ReadMatches(drawPath)
	if err != nil {
		return fmt.Errorf("reading draw: %w", err)
	}

	players := cfg.Players()
	result, err := fixtures.Rebalance(players, matches, options(cfg, log))
	if err != nil {
		if result != nil {
			printViolations(result.Report)
		}
		return fmt.Errorf("rebalancing: %w", err)
	}

	fmt.Print(renderStages(result.Stages))
	printResult(cfg, result)

	f, err := excel.Generate(cfg.Tournament, players, result)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}

	fmt.Printf("\n✓ Rebalanced draw saved to %s\n", outputPath)
	return nil
}

func runVerify(configPath, drawPath string) error {
	cfg, err := loadConfig(configPath, nil)
	if err != nil {
		return err
	}

	matches, err := excel.ReadMatches(drawPath)
	if err != nil {
		return fmt.Errorf("reading draw: %w", err)
	}

	report := verify.Verify(cfg.Players(), matches, cfg.MatchesPerPlayer)
	errors, warnings := printViolations(report)

	fmt.Printf("\nVerification complete: %d rule violations, %d warnings\n", errors, warnings)
	if errors > 0 {
		return fmt.Errorf("%d invariant violations found", errors)
	}
	return nil
}

func printResult(cfg *config.Config, result *fixtures.Result) {
	fmt.Println()
	fmt.Print(renderMetrics(cfg.Players(), result))

	if len(result.Warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(result.Warnings))
		for _, w := range result.Warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	} else {
		fmt.Println("\n✓ Every player has a full, balanced fixture list")
	}
	if result.State == fixtures.ReportedIncomplete {
		fmt.Println("⚠ Draw is incomplete; see warnings above")
	}
}

func printViolations(report verify.Report) (errors, warnings int) {
	for _, v := range report.Violations() {
		switch v.Type {
		case "error":
			errors++
			fmt.Printf("✗ Rule violation: %s\n", v.Message)
		case "warning":
			warnings++
			fmt.Printf("⚠ %s\n", v.Message)
		}
	}
	return errors, warnings
}
