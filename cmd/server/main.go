package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sfu-globe/internal/api"
	"sfu-globe/internal/metrics"
	internalws "sfu-globe/internal/websocket"
	"sfu-globe/pkg/config"
	"sfu-globe/pkg/db"
	"sfu-globe/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "sfu-globe",
		Usage: "club directory, membership and messaging server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the configuration file",
				EnvVars: []string{"SFU_GLOBE_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and realtime server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "create or update database tables",
				Action: func(c *cli.Context) error {
					_, conn, err := setup(c)
					if err != nil {
						return err
					}
					if err := db.Migrate(conn); err != nil {
						return err
					}
					logger.L.Info("Database migrated")
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "insert the sample clubs when the club table is empty",
				Action: func(c *cli.Context) error {
					_, conn, err := setup(c)
					if err != nil {
						return err
					}
					if err := db.Migrate(conn); err != nil {
						return err
					}
					return seedClubs(c.Context, conn)
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// 初始化配置、日志和数据库连接
func setup(c *cli.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.ProductionMode); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, conn, nil
}

func serve(c *cli.Context) error {
	cfg, conn, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := db.Migrate(conn); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub, err := internalws.CreateHub(cfg, m)
	if err != nil {
		return fmt.Errorf("failed to create hub: %w", err)
	}
	if err := internalws.StartHub(ctx, hub); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}
	defer func() {
		if err := internalws.CloseHub(hub); err != nil {
			logger.L.Warn("Failed to close hub", zap.Error(err))
		}
	}()

	svc, err := api.NewServices(cfg, conn, hub)
	if err != nil {
		return err
	}

	if cfg.Log.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: api.NewRouter(cfg, svc, hub, m),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L.Info("Server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.L.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
