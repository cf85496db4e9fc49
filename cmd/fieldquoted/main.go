package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/fieldquote-sync/internal/app"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
	"github.com/joseph-ayodele/fieldquote-sync/internal/notify"
	"github.com/joseph-ayodele/fieldquote-sync/internal/push"
	"github.com/joseph-ayodele/fieldquote-sync/internal/repository"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}

	// stdout carries alerts for the UI collaborator, so logs go to stderr
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.Open(ctx, cfg, notify.NewWriterNotifier(os.Stdout), logger)
	if err != nil {
		logger.Error("failed to open engine", "error", err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", cfg.Health.Addr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Health.Addr, "error", err)
		_ = engine.Close(context.Background())
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("fieldquoted listening", "addr", cfg.Health.Addr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go watchStore(ctx, engine, healthServer, logger)

	tokens := make(chan string, cfg.Push.Buffer)
	events := make(chan entity.InboundEvent, cfg.Push.Buffer)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); engine.Tokens.Run(ctx, tokens) }()
	go func() { defer wg.Done(); engine.Dispatcher.Run(ctx, events) }()

	// The push stream ends on EOF; the daemon keeps serving until signalled.
	go func() {
		reader := push.NewReader(tokens, events, logger)
		if err := reader.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("push stream failed", "error", err)
		}
		logger.Info("push stream closed")
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = engine.Close(shutdownCtx)
	grpcServer.GracefulStop()
}

// watchStore reports NOT_SERVING while the local store is unreachable.
func watchStore(ctx context.Context, engine *app.App, hs *health.Server, logger *slog.Logger) {
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status := grpc_health_v1.HealthCheckResponse_SERVING
			if err := repository.HealthCheck(ctx, engine.DB, 5*time.Second, logger); err != nil {
				status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
			}
			hs.SetServingStatus("", status)
		}
	}
}
