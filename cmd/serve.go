package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"sales-dashboard-service/internal/api"
	"sales-dashboard-service/internal/filter"
	"sales-dashboard-service/internal/sales"
	"sales-dashboard-service/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("Starting service...")

	// --- Database Connection ---
	db, err := openDatabase(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	logger.Info("Database connection established and configured successfully")
	dbStore := store.NewPostgresStore(db, logger)

	// --- Filter option cache (optional) ---
	var options store.OptionStorer = dbStore
	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, serving filter options without cache", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		options = store.NewCachedOptions(dbStore, rdb, cfg.Redis.CacheTTL, logger)
		logger.Info("Filter option cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	service := sales.NewService(dbStore, options, filter.NewCompiler(nil), logger)

	// --- Setup & Start HTTP Server ---
	httpHandler := api.NewHTTPHandler(service, dbStore, logger)
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: api.NewRouter(httpHandler, api.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			RequestTimeout: cfg.HttpServer.TimeoutRequest,
		}, logger),
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	serverErrs := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrs <- err
			return
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := api.NewGRPCServer(api.NewGRPCHandler(service, logger), logger)
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logger.Error("Failed to listen for gRPC", zap.String("addr", cfg.GRPCAddr()), zap.Error(err))
		shutdown(logger, httpServer, grpcServer, dbStore)
		return err
	}
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serverErrs <- err
			return
		}
		logger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("Received signal, starting graceful shutdown", zap.String("signal", sig.String()))
	case runErr = <-serverErrs:
		logger.Error("Server failed, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		logger.Info("Context cancelled, starting graceful shutdown")
	}

	shutdown(logger, httpServer, grpcServer, dbStore)
	logger.Info("Service shutdown sequence finished")
	return runErr
}

func shutdown(logger *zap.Logger, httpServer *http.Server, grpcServer *grpc.Server, dbStore *store.PostgresStore) {
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// GracefulStop stops accepting new connections and waits for in-flight RPCs.
	logger.Info("Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Info("Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	if err := dbStore.Close(); err != nil {
		logger.Warn("Error closing database connection", zap.Error(err))
	}
	logger.Info("Graceful shutdown sequence completed")
}
