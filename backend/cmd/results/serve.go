package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"college_portal/backend/internal/gateway"
	"college_portal/backend/internal/health"
	"college_portal/backend/internal/shared"
)

const healthCheckInterval = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC health endpoint",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := bootstrap(shared.ValidateServerConfig)
	if err != nil {
		return err
	}
	defer rt.close()
	logger := rt.logger

	// 1. Make sure the unique key index exists before accepting writes
	indexCtx, cancel := context.WithTimeout(cmd.Context(), rt.config.MongoDB.ConnectTimeout)
	err = rt.store.EnsureIndexes(indexCtx)
	cancel()
	if err != nil {
		return err
	}

	// 2. Setup Routes and Middleware
	router := gateway.SetupRoutes(gateway.Dependencies{
		Service:        rt.service,
		Verifier:       gateway.NewTokenVerifier(rt.config.Security.JWTSecret, rt.config.Security.JWTIssuer),
		Metrics:        rt.metrics.Handler(),
		CORS:           rt.config.CORS,
		RequestTimeout: rt.config.RequestTimeout,
	})

	// 3. Configure Servers
	server := &http.Server{
		Addr:         ":" + rt.config.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // bulk uploads
		IdleTimeout:  60 * time.Second,
	}

	healthServer := health.NewServer(logger)
	healthLis, err := net.Listen("tcp", ":"+rt.config.HealthPort)
	if err != nil {
		return fmt.Errorf("listen on health port %s: %w", rt.config.HealthPort, err)
	}
	ping := func(ctx context.Context) error {
		return rt.client.Ping(ctx, readpref.Primary())
	}

	// 4. Run until SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("results service listening", zap.String("port", rt.config.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return healthServer.Serve(healthLis)
	})

	g.Go(func() error {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()
		for {
			checkCtx, cancel := context.WithTimeout(gctx, 5*time.Second)
			healthServer.Check(checkCtx, ping)
			cancel()

			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	// 5. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down results service")

		healthServer.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("results service stopped")
	return nil
}
