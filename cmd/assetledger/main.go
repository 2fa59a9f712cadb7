package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/assetledger/internal/api"
	"github.com/erazemk/assetledger/internal/auth"
	"github.com/erazemk/assetledger/internal/config"
	"github.com/erazemk/assetledger/internal/db"
	"github.com/erazemk/assetledger/internal/directory"
	"github.com/erazemk/assetledger/internal/events"
	"github.com/erazemk/assetledger/internal/ledger"
	"github.com/erazemk/assetledger/internal/model"
	"github.com/erazemk/assetledger/internal/store"
)

const usage = `Usage: assetledger [serve] [flags]
       assetledger token [flags] <payroll-number>

Commands:
  serve                   run the HTTP API (default)
  token                   print a bearer token for an existing user

Flags:
  -c, -config <path>      YAML config file (default: ./config.yaml if present)
  -e, -env <path>         .env file loaded before the environment (default: .env)
      -driver <name>      database driver: sqlite or postgres
  -d, -db <dsn>           database path or DSN
  -a, -addr <host:port>   listen address
  -l, -log <path>         log file path (default: stdout/stderr only)
  -h, -help               show this help and exit

Every setting can also be given as ASSETLEDGER_<SECTION>_<KEY>,
e.g. ASSETLEDGER_DATABASE_DSN or ASSETLEDGER_KAFKA_BROKERS.
`

type flags struct {
	configPath, envFile string
	driver, dsn         string
	addr, logPath       string
}

func parseFlags(name string, args []string) (*flags, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stdout, usage) }

	var f flags
	fs.StringVar(&f.configPath, "config", "", "")
	fs.StringVar(&f.configPath, "c", "", "")
	fs.StringVar(&f.envFile, "env", ".env", "")
	fs.StringVar(&f.envFile, "e", ".env", "")
	fs.StringVar(&f.driver, "driver", "", "")
	fs.StringVar(&f.dsn, "db", "", "")
	fs.StringVar(&f.dsn, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &f, fs.Args(), nil
}

// loadConfig reads configuration and applies command-line overrides.
func (f *flags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.envFile)
	if err != nil {
		return nil, err
	}
	if f.driver != "" {
		cfg.Database.Driver = f.driver
	}
	if f.dsn != "" {
		cfg.Database.DSN = f.dsn
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.logPath != "" {
		cfg.Log.File = f.logPath
	}
	return cfg, cfg.Validate()
}

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && (args[0] == "serve" || args[0] == "token") {
		cmd, args = args[0], args[1:]
	}

	f, rest, err := parseFlags("assetledger "+cmd, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := f.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	switch cmd {
	case "token":
		if len(rest) != 1 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		err = runToken(cfg, rest[0])
	default:
		if len(rest) > 0 {
			fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", rest[0])
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		err = runServe(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase opens the configured database and ensures the schema exists.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return database, nil
}

// jwtSecret returns the configured secret, or the one persisted in the
// database (generated on first use).
func jwtSecret(ctx context.Context, cfg *config.Config, database *sqlx.DB) (string, error) {
	if cfg.JWT.Secret != "" {
		return cfg.JWT.Secret, nil
	}
	return store.GetJWTSecret(ctx, database)
}

func runServe(cfg *config.Config) error {
	level, _ := config.ParseLevel(cfg.Log.Level)
	closeLog, err := setupLogger(level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer closeLog()

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	slog.Info("database ready", "driver", cfg.Database.Driver)

	ctx := context.Background()
	secret, err := jwtSecret(ctx, cfg, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	if err := bootstrapAdmin(ctx, cfg, database, secret); err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		slog.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	defer publisher.Close()

	l := ledger.New(database,
		&directory.SQLLocations{DB: database},
		&directory.SQLUsers{DB: database},
		publisher)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(database, l, secret)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// bootstrapAdmin creates the configured admin on an empty user table and
// prints a token for it, so a fresh install can be administered.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, database *sqlx.DB, secret string) error {
	users, err := store.ListUsers(ctx, database)
	if err != nil {
		return err
	}
	if len(users) > 0 || cfg.Bootstrap.AdminPayroll == "" {
		return nil
	}

	admin, err := store.CreateUser(ctx, database, cfg.Bootstrap.AdminPayroll, "Ledger", "Administrator", model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	token, err := auth.GenerateToken(secret, admin.PayrollNumber, admin.Role, cfg.JWT.Expiry)
	if err != nil {
		return err
	}

	fmt.Println("Admin account created:")
	fmt.Printf("  Payroll number: %s\n", admin.PayrollNumber)
	fmt.Printf("  Token:          %s\n", token)
	fmt.Println()
	fmt.Println("Use `assetledger token <payroll-number>` to issue further tokens.")
	fmt.Println()
	return nil
}

func runToken(cfg *config.Config, payroll string) error {
	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	user, err := store.GetUser(ctx, database, payroll)
	if err != nil {
		return err
	}
	if user == nil || user.DeletedAt != nil {
		return fmt.Errorf("user %q not found", payroll)
	}

	secret, err := jwtSecret(ctx, cfg, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}
	token, err := auth.GenerateToken(secret, user.PayrollNumber, user.Role, cfg.JWT.Expiry)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
