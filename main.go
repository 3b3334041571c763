package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/urfave/cli/v2"

	"github.com/customeros/mailrefresh/config"
	"github.com/customeros/mailrefresh/dto"
	"github.com/customeros/mailrefresh/internal/database"
	"github.com/customeros/mailrefresh/internal/logger"
	"github.com/customeros/mailrefresh/internal/repository"
	"github.com/customeros/mailrefresh/internal/tracing"
	"github.com/customeros/mailrefresh/internal/utils"
	"github.com/customeros/mailrefresh/server"
	"github.com/customeros/mailrefresh/services"
)

const appSourceCLI = "cli"

type app struct {
	cfg          *config.Config
	log          logger.Logger
	tracerCloser io.Closer
}

func main() {
	a := &app{}

	cliApp := &cli.App{
		Name:  "mailrefresh",
		Usage: "mirror a POP3 mailbox into the local inbox table",
		Before: func(c *cli.Context) error {
			return a.init()
		},
		After: func(c *cli.Context) error {
			a.close()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Run database migrations",
				Action: a.migrate,
			},
			{
				Name:  "refresh",
				Usage: "Run one inbox refresh cycle",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "async",
						Usage: "queue the refresh on RabbitMQ instead of running it here",
					},
				},
				Action: a.refresh,
			},
			{
				Name:   "server",
				Usage:  "Start the application server",
				Action: a.server,
			},
			{
				Name:  "settings",
				Usage: "Manage settings stored in the database",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Store a setting value",
						ArgsUsage: "<name> <value>",
						Action:    a.setSetting,
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func (a *app) init() error {
	cfg, err := config.InitConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	a.cfg = cfg

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()
	a.log = appLogger

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		return fmt.Errorf("could not initialize jaeger tracer: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)
	a.tracerCloser = closer

	return nil
}

func (a *app) close() {
	if a.tracerCloser != nil {
		a.tracerCloser.Close()
	}
	if a.log != nil {
		a.log.Sync() // nolint: errcheck
	}
}

// repositories opens the store selected by DATABASE_DRIVER
func (a *app) repositories() (*repository.Repositories, error) {
	switch a.cfg.DatabaseConfig.Driver {
	case database.DriverSQLite:
		db, err := database.InitSQLiteDatabase(a.cfg.DatabaseConfig)
		if err != nil {
			return nil, err
		}
		return repository.InitSQLiteRepositories(db), nil
	case database.DriverPostgres:
		db, err := database.InitDatabase(a.cfg.DatabaseConfig)
		if err != nil {
			return nil, err
		}
		return repository.InitRepositories(db), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.DatabaseConfig.Driver)
	}
}

func (a *app) migrate(c *cli.Context) error {
	switch a.cfg.DatabaseConfig.Driver {
	case database.DriverSQLite:
		db, err := database.InitSQLiteDatabase(a.cfg.DatabaseConfig)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repository.MigrateSQLiteDB(c.Context, db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
	default:
		db, err := database.InitDatabase(a.cfg.DatabaseConfig)
		if err != nil {
			return err
		}
		if err := repository.MigrateDB(a.cfg.DatabaseConfig, db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
	}

	a.log.Info("Database migration completed successfully")
	return nil
}

func (a *app) refresh(c *cli.Context) error {
	repos, err := a.repositories()
	if err != nil {
		return err
	}

	async := c.Bool("async")
	svcs, err := services.InitServices(a.cfg, a.log, repos, async)
	if err != nil {
		return err
	}
	defer svcs.Close()

	ctx := utils.WithCustomContext(context.Background(), &utils.CustomContext{AppSource: appSourceCLI})

	if async {
		publisher := svcs.RefreshRequestPublisher()
		if publisher == nil {
			return cli.Exit("RABBITMQ_URL is required for --async", 1)
		}
		if err := publisher.PublishInboxRefreshRequested(ctx, dto.InboxRefreshRequested{RequestedBy: appSourceCLI}); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		a.log.Info("Inbox refresh queued")
		return nil
	}

	if err := svcs.InboxService.RefreshInbox(ctx); err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return nil
}

func (a *app) server(c *cli.Context) error {
	repos, err := a.repositories()
	if err != nil {
		return err
	}

	a.log.Info("mailrefresh starting up...")

	srv, err := server.NewServer(a.cfg, a.log, repos, a.tracerCloser)
	if err != nil {
		return fmt.Errorf("server setup failed: %w", err)
	}
	// closed by the server on shutdown
	a.tracerCloser = nil

	if err := srv.Run(); err != nil {
		return fmt.Errorf("server startup failed: %w", err)
	}

	a.log.Info("Shutdown complete")
	return nil
}

func (a *app) setSetting(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.Exit("usage: mailrefresh settings set <name> <value>", 1)
	}

	repos, err := a.repositories()
	if err != nil {
		return err
	}
	if repos.SettingsRepository == nil {
		return cli.Exit("database settings require DATABASE_DRIVER=postgres", 1)
	}

	ctx := utils.WithCustomContext(c.Context, &utils.CustomContext{AppSource: appSourceCLI})
	if err := repos.SettingsRepository.Save(ctx, c.Args().Get(0), c.Args().Get(1)); err != nil {
		return err
	}
	a.log.Infof("Setting %s saved", c.Args().Get(0))
	return nil
}
