package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gocmd "github.com/goliatone/go-command"
	persistence "github.com/goliatone/go-persistence-bun"
	qualityhooks "github.com/goliatone/go-quality-hooks"
	"github.com/goliatone/go-quality-hooks/adapters/gologger"
	qhcommand "github.com/goliatone/go-quality-hooks/command"
	"github.com/goliatone/go-quality-hooks/core"
	hookmigrations "github.com/goliatone/go-quality-hooks/migrations"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun/dialect/pgdialect"
)

const (
	envDatabaseURL = "QUALITY_HOOKS_DATABASE_URL"
	envPublicURL   = "QUALITY_HOOKS_PUBLIC_URL"
	envDebug       = "QUALITY_HOOKS_DEBUG"
)

type databaseConfig struct {
	url   string
	debug bool
}

func (c databaseConfig) GetDebug() bool {
	return c.debug
}

func (c databaseConfig) GetDriver() string {
	return "postgres"
}

func (c databaseConfig) GetServer() string {
	return c.url
}

func (c databaseConfig) GetPingTimeout() time.Duration {
	return 5 * time.Second
}

func (c databaseConfig) GetOtelIdentifier() string {
	return "quality-hooks"
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: quality-hooks <migrate|backfill|purge> [flags]")
	fmt.Fprintln(os.Stderr, "  migrate                 apply the delivery schema")
	fmt.Fprintln(os.Stderr, "  backfill                fill analysis uuids of legacy deliveries")
	fmt.Fprintln(os.Stderr, "  purge -project -keep    trim delivery history")
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if os.Getenv(envDebug) != "" {
		level = slog.LevelDebug
	}
	provider := gologger.NewSlogProvider(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logger := provider.GetLogger(gologger.LoggerModule)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:], provider); err != nil {
		logger.Error("quality-hooks failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, name string, args []string, provider *gologger.SlogProvider) error {
	switch name {
	case "migrate":
		client, err := openClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		provider.GetLogger(gologger.LoggerModule).Info("Migrations applied")
		return nil
	case "backfill":
		return withModule(ctx, provider, func(module *qualityhooks.Module) error {
			collector := gocmd.NewResult[core.BackfillResult]()
			if err := module.Commands().BackfillAnalysisIDs.Execute(gocmd.ContextWithResult(ctx, collector), qhcommand.BackfillAnalysisIDsMessage{}); err != nil {
				return err
			}
			result, _ := collector.Load()
			module.Logger().Info("Backfilled delivery analyses", "updated", result.Updated, "deleted", result.Deleted)
			return nil
		})
	case "purge":
		flags := flag.NewFlagSet("purge", flag.ContinueOnError)
		project := flags.String("project", "", "project uuid, all projects when empty")
		keep := flags.Int("keep", 0, "deliveries to keep per project, configured retention when 0")
		if err := flags.Parse(args); err != nil {
			return err
		}
		return withModule(ctx, provider, func(module *qualityhooks.Module) error {
			msg := qhcommand.PurgeDeliveriesMessage{ProjectUUID: strings.TrimSpace(*project), Keep: *keep}
			if err := msg.Validate(); err != nil {
				return err
			}
			collector := gocmd.NewResult[qhcommand.PurgeResult]()
			if err := module.Commands().PurgeDeliveries.Execute(gocmd.ContextWithResult(ctx, collector), msg); err != nil {
				return err
			}
			result, _ := collector.Load()
			module.Logger().Info("Purged deliveries", "project", result.ProjectUUID, "deleted", result.Deleted)
			return nil
		})
	default:
		usage()
		return fmt.Errorf("unknown command %q", name)
	}
}

func withModule(ctx context.Context, provider *gologger.SlogProvider, fn func(*qualityhooks.Module) error) error {
	client, err := openClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	runtime := qualityhooks.Config{}
	if publicURL := strings.TrimSpace(os.Getenv(envPublicURL)); publicURL != "" {
		runtime.Server.PublicURL = publicURL
	}
	module, err := qualityhooks.NewModule(ctx, runtime,
		qualityhooks.WithPersistenceClient(client),
		qualityhooks.WithLoggerProvider(provider),
	)
	if err != nil {
		return err
	}
	return fn(module)
}

func openClient(ctx context.Context) (*persistence.Client, error) {
	dsn := strings.TrimSpace(os.Getenv(envDatabaseURL))
	if dsn == "" {
		return nil, fmt.Errorf("%s is required", envDatabaseURL)
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	cfg := databaseConfig{url: dsn, debug: os.Getenv(envDebug) != ""}
	client, err := persistence.New(cfg, sqlDB, pgdialect.New())
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("persistence client: %w", err)
	}
	if err := hookmigrations.RegisterDialect(client, hookmigrations.DialectPostgres); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
