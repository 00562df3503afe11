package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/BTreeMap/CardAssist/internal/agents"
	"github.com/BTreeMap/CardAssist/internal/api"
	"github.com/BTreeMap/CardAssist/internal/classifier"
	"github.com/BTreeMap/CardAssist/internal/executor"
	"github.com/BTreeMap/CardAssist/internal/genai"
	"github.com/BTreeMap/CardAssist/internal/notify"
	"github.com/BTreeMap/CardAssist/internal/store"
	"github.com/BTreeMap/CardAssist/internal/util"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for CardAssist state data
	DefaultStateDir = "/var/lib/cardassist"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "cardassist.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Build the store
	st, err := buildStore(flags)
	if err != nil {
		slog.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if *flags.seedDemo {
		if err := seedDemoData(st); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Build the pipeline: classifier, agents, executor, notifications
	cls := classifier.New(buildCompleter(flags))
	registry := agents.NewRegistry(st)
	exec := executor.New(st, buildExecutorOptions(flags)...)

	server := api.NewServer(cls, registry, exec, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping CardAssist with configured modules")
	slog.Debug("Final configuration",
		"dsn_set", *flags.dbDSN != "",
		"api_addr", *flags.apiAddr,
		"executor_url", *flags.executorURL,
		"openaiKeySet", *flags.openaiKey != "")
	if err := server.Run(ctx); err != nil {
		slog.Error("CardAssist failed to run", "error", err)
		os.Exit(1)
	}
	// Flush notifications still in flight before the process exits.
	exec.Wait()
	slog.Info("CardAssist exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	StateDir    string
	OpenAIKey   string
	APIAddr     string
	ExecutorURL string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dbDSN       *string
	openaiKey   *string
	apiAddr     *string
	executorURL *string
	seedDemo    *bool
	notifyWhats *bool
	notifyEmail *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("CARDASSIST_STATE_DIR"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		APIAddr:     os.Getenv("API_ADDR"),
		ExecutorURL: os.Getenv("EXECUTOR_BASE_URL"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CARDASSIST_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CARDASSIST_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"API_ADDR", config.APIAddr,
		"EXECUTOR_BASE_URL", config.ExecutorURL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for CardAssist data (overrides $CARDASSIST_STATE_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN (overrides $DATABASE_URL)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		apiAddr:     flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		executorURL: flag.String("executor-url", config.ExecutorURL, "base URL of the action execution API (overrides $EXECUTOR_BASE_URL)"),
		seedDemo:    flag.Bool("seed-demo", util.ParseBoolEnv("SEED_DEMO_DATA", false), "seed the demo account before starting (overrides $SEED_DEMO_DATA)"),
		notifyWhats: flag.Bool("notify-whatsapp", util.ParseBoolEnv("NOTIFY_WHATSAPP", false), "send outcome notifications over Twilio WhatsApp (overrides $NOTIFY_WHATSAPP)"),
		notifyEmail: flag.Bool("notify-email", util.ParseBoolEnv("NOTIFY_EMAIL", false), "send outcome notifications over SendGrid email (overrides $NOTIFY_EMAIL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"apiAddr", *flags.apiAddr,
		"executorURL", *flags.executorURL,
		"seedDemo", *flags.seedDemo,
		"notifyWhats", *flags.notifyWhats,
		"notifyEmail", *flags.notifyEmail)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildStore constructs the store backend selected by the DSN.
func buildStore(flags Flags) (store.Store, error) {
	dsn := *flags.dbDSN
	if dsn == "" {
		slog.Debug("No database DSN provided, using in-memory store")
		return store.NewInMemoryStore(), nil
	}
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// seedDemoData populates the demo account on backends that support seeding.
func seedDemoData(st store.Store) error {
	switch s := st.(type) {
	case *store.InMemoryStore:
		return store.SeedDemoData(s)
	case *store.SQLiteStore:
		return store.SeedDemoData(s)
	case *store.PostgresStore:
		return store.SeedDemoData(s)
	default:
		slog.Warn("seedDemoData: store backend does not support seeding")
		return nil
	}
}

// buildCompleter constructs the GenAI client for the primary classifier tier.
// Without an API key the classifier runs on keyword fallback only.
func buildCompleter(flags Flags) classifier.Completer {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	client, err := genai.NewClient(genaiOpts...)
	if err != nil {
		slog.Warn("GenAI client unavailable, classifier will use keyword fallback", "error", err)
		return nil
	}
	return client
}

// buildExecutorOptions constructs executor configuration options
func buildExecutorOptions(flags Flags) []executor.Option {
	var execOpts []executor.Option
	if *flags.executorURL != "" {
		execOpts = append(execOpts, executor.WithBaseURL(*flags.executorURL))
	}
	if n := buildNotifier(flags); n != nil {
		execOpts = append(execOpts, executor.WithNotifier(n))
	}
	return execOpts
}

// buildNotifier constructs the enabled notification channels.
func buildNotifier(flags Flags) notify.Notifier {
	var channels []notify.Notifier
	if *flags.notifyWhats {
		wa, err := notify.NewWhatsAppNotifier()
		if err != nil {
			slog.Warn("WhatsApp notifier unavailable", "error", err)
		} else {
			channels = append(channels, wa)
		}
	}
	if *flags.notifyEmail {
		email, err := notify.NewEmailNotifier()
		if err != nil {
			slog.Warn("Email notifier unavailable", "error", err)
		} else {
			channels = append(channels, email)
		}
	}
	if len(channels) == 0 {
		return nil
	}
	if len(channels) == 1 {
		return channels[0]
	}
	return notify.NewMultiNotifier(channels...)
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
