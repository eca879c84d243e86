package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pluslatte/gt6-vein-manager/internal/db"
	"github.com/pluslatte/gt6-vein-manager/internal/grpcapi"
	"github.com/pluslatte/gt6-vein-manager/internal/httpapi"
	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API (and the gRPC health endpoint when configured)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "http-addr", Usage: "HTTP listen address (overrides config)"},
			&cli.StringFlag{Name: "grpc-addr", Usage: "gRPC health listen address (overrides config)"},
			&cli.BoolFlag{Name: "seed-dev", Usage: "load sample veins (dev only)"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := openApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.Close()

			if v := c.String("http-addr"); v != "" {
				a.cfg.HTTPAddr = v
			}
			if v := c.String("grpc-addr"); v != "" {
				a.cfg.GRPCAddr = v
			}
			if c.Bool("seed-dev") {
				a.cfg.SeedDev = true
			}
			return runServe(ctx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg, logger := a.cfg, a.logger
	logger.Printf("env=%s db=%s", cfg.Env, cfg.DBPath)

	if cfg.Env == "dev" && cfg.SeedDev {
		if err := db.SeedDev(ctx, a.conn); err != nil {
			return err
		}
		logger.Printf("dev seed loaded")
	}

	inv, created, err := a.authSvc.EnsureBootstrapInvitation(ctx, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	if created {
		logger.Printf("no users yet; register the first admin at %s (expires %s)",
			inv.InvitationURL, inv.ExpiresAt.Format(time.RFC3339))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pruner := service.NewSessionPruner(a.auth, service.PrunerConfig{
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:          logger,
		Addr:            cfg.HTTPAddr,
		QueryService:    a.query,
		MutationService: a.mutation,
		AuthService:     a.authSvc,
		PublicBaseURL:   cfg.PublicBaseURL,
		CookieSecure:    cfg.CookieSecure,
		Ping:            a.conn.PingContext,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	var grpcSrv *grpcapi.Server
	if cfg.GRPCAddr != "" {
		grpcSrv = grpcapi.NewServer(grpcapi.Dependencies{
			Logger: logger,
			Addr:   cfg.GRPCAddr,
			Ping:   a.conn.PingContext,
		})
		go func() {
			logger.Printf("grpc health listening on %s", cfg.GRPCAddr)
			if err := grpcSrv.Start(); err != nil {
				logger.Printf("grpc server error: %v", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if grpcSrv != nil {
		_ = grpcSrv.Shutdown(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}
