package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qwerty1432/Memory-Research/internal/condition"
	"github.com/qwerty1432/Memory-Research/internal/config"
	"github.com/qwerty1432/Memory-Research/internal/engine"
	"github.com/qwerty1432/Memory-Research/internal/llm"
	"github.com/qwerty1432/Memory-Research/internal/logging"
	"github.com/qwerty1432/Memory-Research/internal/metrics"
	"github.com/qwerty1432/Memory-Research/internal/store"
)

var (
	configPath string
	serverURL  string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "companion",
	Short: "Memory-augmented conversational companion for user studies",
	Long: "Companion runs a chat assistant that remembers facts about participants " +
		"under one of four experimental memory conditions.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.companion/companion.toml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "companion server URL (default $COMPANION_URL or http://127.0.0.1:37777)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(chatCmd)
}

// runtime is everything a local engine needs; close releases the database.
type runtime struct {
	db  *store.DB
	eng *engine.Engine
	log zerolog.Logger
}

func (r *runtime) close() {
	r.db.Close()
}

// openRuntime opens the database and builds the engine from cfg. Logs go
// to stderr so stdout stays free for protocol traffic.
func openRuntime(c config.Config) (*runtime, error) {
	logger := logging.New(logging.Config{Level: c.Logging.Level, Pretty: c.Logging.Pretty, Out: os.Stderr})

	dbPath := c.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	def, err := condition.Parse(c.Study.DefaultCondition)
	if err != nil {
		return nil, fmt.Errorf("study.default_condition: %w", err)
	}

	client, err := llm.NewClient(c.LLM)
	if err != nil {
		return nil, fmt.Errorf("configure llm: %w", err)
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	eng := engine.New(db, client,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.New()),
		engine.WithDefaultCondition(def),
		engine.WithTimeout(c.LLM.Timeout()),
	)

	logger.Info().
		Str("db", dbPath).
		Str("llm_provider", c.LLM.Provider).
		Str("llm_model", c.LLM.Model).
		Str("default_condition", string(def)).
		Msg("engine ready")

	return &runtime{db: db, eng: eng, log: logger}, nil
}
