package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/nvandessel/clawback/internal/config"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/logging"
	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/pathutil"
	"github.com/nvandessel/clawback/internal/provider"
	"github.com/nvandessel/clawback/internal/session"
	"github.com/nvandessel/clawback/internal/store"
	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	// A missing .env is normal; the environment and config file still apply.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clawback",
		Short: "Clawback - a virtual office shift for AI assistants",
		Long: `clawback simulates a shift at a small company. Coworkers send requests,
the assistant works them with a terminal, chat, email, search and a calendar,
and every action is scored for speed and for security.

Play interactively, run a headless simulation, or serve the office to an
agent over MCP.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.clawback/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newPlayCmd(),
		newSimulateCmd(),
		newMCPServerCmd(),
		newConfigCmd(),
		newScenariosCmd(),
		newPersonasCmd(),
		newSessionsCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				writeJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "clawback version %s\n", version)
			}
		},
	}
}

// loadConfig reads the layered configuration and applies --log-level.
func loadConfig(cmd *cobra.Command) (*config.ClawbackConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runtime carries what every shift-running command builds from config.
type runtime struct {
	cfg       *config.ClawbackConfig
	dir       string
	logger    *slog.Logger
	decisions *logging.DecisionLogger
	gateway   *provider.Gateway
	journal   *store.Journal
	closer    io.Closer
}

// clientConfig maps the provider section onto a client configuration for
// the selected backend.
func clientConfig(p config.ProviderConfig) llm.ClientConfig {
	if p.IsLocal() {
		return llm.ClientConfig{
			Provider: config.BackendLocal,
			Local: llm.LocalConfig{
				LibPath:     p.LocalLibPath,
				ModelPath:   p.LocalModelPath,
				GPULayers:   p.LocalGPULayers,
				ContextSize: p.LocalContextSize,
			},
		}
	}
	return llm.ClientConfig{
		Provider: "openrouter",
		APIKey:   p.APIKey,
		BaseURL:  p.BaseURL,
		Model:    p.Model,
		Timeout:  llm.DefaultConfig().Timeout,
	}
}

// newRuntime loads config and opens the logger, decision trace, provider
// gateway and journal. Close releases them.
func newRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:    cfg,
		dir:    dir,
		logger: logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr()),
	}
	rt.decisions = logging.NewDecisionLogger(dir, cfg.Logging.Level)

	if cfg.Provider.Usable() {
		client := llm.NewClient(clientConfig(cfg.Provider))
		if c, ok := client.(io.Closer); ok {
			rt.closer = c
		}
		opts := provider.OptionsFrom(cfg.Provider)
		opts.Logger = rt.logger
		opts.Decisions = rt.decisions
		rt.gateway = provider.New(client, opts)
		rt.logger.Debug("provider enabled", "provider", cfg.Provider.String())
	}

	journalPath := cfg.Journal.Path
	if journalPath != store.MemoryPath && !filepath.IsAbs(journalPath) {
		journalPath = filepath.Join(dir, journalPath)
	}
	rt.journal, err = store.Open(ctx, journalPath)
	if err != nil {
		rt.decisions.Close()
		if rt.closer != nil {
			_ = rt.closer.Close()
		}
		return nil, fmt.Errorf("journal %s: %w", pathutil.RedactPath(journalPath), err)
	}
	return rt, nil
}

// sessionOptions builds session options from the simulation section.
// Flag overrides are applied by the caller.
func (rt *runtime) sessionOptions() (session.Options, error) {
	sim := rt.cfg.Simulation
	difficulty, err := models.ParseDifficulty(sim.Difficulty)
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Difficulty:     difficulty,
		Seed:           sim.Seed,
		ShiftDays:      sim.ShiftDays,
		NPC:            sim.NPC,
		Gateway:        rt.gateway,
		TickInterval:   sim.TickInterval,
		TypingDelayMin: sim.TypingDelayMin,
		TypingDelayMax: sim.TypingDelayMax,
		Journal:        rt.journal,
		Logger:         rt.logger,
		Decisions:      rt.decisions,
	}, nil
}

func (rt *runtime) Close() {
	if err := rt.journal.Close(); err != nil {
		rt.logger.Warn("closing journal", "error", err)
	}
	rt.decisions.Close()
	if rt.closer != nil {
		if err := rt.closer.Close(); err != nil {
			rt.logger.Warn("closing provider client", "error", err)
		}
	}
}

// signalContext returns a context canceled on the first shutdown signal.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
