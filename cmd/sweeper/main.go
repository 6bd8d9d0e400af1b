package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiyoko-project/kiyoko/internal/database"
	"github.com/kiyoko-project/kiyoko/internal/redis"
	"github.com/kiyoko-project/kiyoko/internal/setup"
	"github.com/kiyoko-project/kiyoko/internal/setup/config"
	"github.com/kiyoko-project/kiyoko/internal/worker/sweeper"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:  "sweeper",
		Usage: "Strike decay sweeper",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Run a single sweep and exit",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runSweeper(ctx, c.Bool("once"))
		},
	}

	return app.Run(context.Background(), os.Args)
}

func runSweeper(ctx context.Context, once bool) error {
	cfg, configPath, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, dbLogger, err := setup.GetLoggers(cfg.Debug.LogDir, cfg.Debug.LogLevel, cfg.Debug.MaxLogsToKeep)
	if err != nil {
		return fmt.Errorf("failed to initialize loggers: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting sweeper", zap.String("config", configPath))

	redisManager := redis.NewManager(&cfg.Redis, logger)
	defer redisManager.Close()

	redisClient, err := redisManager.GetClient(redis.CacheDBIndex)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	db, err := database.NewConnection(ctx, &cfg.PostgreSQL, redisClient, dbLogger, true)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	worker := sweeper.New(db, &cfg.Sweeper, logger)

	if once {
		worker.Sweep(ctx)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)

	return nil
}
