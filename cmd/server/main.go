package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomchat/auth"
	"roomchat/contract"
	grpc2 "roomchat/grpc"
	"roomchat/internal"
	"roomchat/media"
	"roomchat/moderation"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"
	"roomchat/runtime/workers"
	"roomchat/search"
	"roomchat/services"
	"roomchat/storage"
	"roomchat/web"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type messageStore interface {
	contract.IMessageStore
	io.Closer
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal or a server failure.
// Deferred closes run before main exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openMessageStore(ctx, config, db, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("Closing message store...", "driver", config.StoreDriver)
		_ = store.Close()
	}()

	disk, err := storage.NewDiskStorage(config.UploadDir)
	if err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}

	// 3. Core components
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(promRegistry)
	health := observability.NewHealth()

	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(log, registry, metrics, config.SinkTimeout)
	relay := media.NewRelay(log, disk, repositories.NewMediaRepository(db, log), metrics,
		config.MaxPayloadBytes, config.MediaTypes(), config.MediaQueueSize)
	gateway := services.NewSessionGateway(log, registry, broadcaster, store, relay, metrics, config.MaxMessageLength).
		WithHealth(health)

	if words := config.Words(); len(words) > 0 {
		char, err := internal.CharacterRune(config.CharacterReplacement)
		if err != nil {
			return err
		}
		moderator, err := moderation.NewModerator(words, char, log)
		if err != nil {
			return fmt.Errorf("moderation: %w", err)
		}
		gateway.WithModerator(moderator)
	}

	// 4. Supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	for i := 0; i < config.MediaWorkers; i++ {
		supervisor.Add(workers.NewMediaWriterWorker(log, relay, relay.Jobs()))
	}
	supervisor.Add(workers.NewHealthMonitoringWorker(log, store, health, config.HealthInterval))

	resolver := auth.NewTokenResolver(config.AuthSecret, config.AuthTokenDuration)
	server := web.NewServer(log, gateway, registry, store, relay, health, promRegistry, resolver, web.Options{
		ConnectionBufferSize: config.ConnectionBufferSize,
		MaxPayloadBytes:      config.MaxPayloadBytes,
		RateLimitPerSecond:   config.RateLimitPerSecond,
		RateLimitBurst:       config.RateLimitBurst,
		AllowedOrigins:       config.Origins(),
		AuthEnabled:          config.AuthEnabled,
	})

	if config.SearchEnabled {
		index, err := search.Open(config.BlugeFilepath, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("Closing search index...")
			_ = index.Close()
		}()
		indexer := workers.NewSearchIndexerWorker(log, index, config.ConnectionBufferSize*16)
		supervisor.Add(indexer)
		gateway.WithIndexer(indexer)
		server.WithSearch(index)
	}

	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 5. Servers
	errChan := make(chan error, 2)
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var grpcServer *grpc.Server
	if config.GrpcPort > 0 {
		listener, err := net.Listen("tcp", config.GrpcAddress())
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", config.GrpcAddress(), err)
		}
		grpcServer = grpc.NewServer(grpc.StreamInterceptor(auth.StreamInterceptor(resolver, config.AuthEnabled)))
		grpc2.RegisterChatServiceServer(grpcServer, grpc2.NewChatServer(log, gateway,
			config.ConnectionBufferSize, config.RateLimitPerSecond, config.RateLimitBurst))
		go func() {
			log.Info("Starting gRPC server", "address", config.GrpcAddress(), "at", time.Now().UTC())
			if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errChan <- fmt.Errorf("gRPC server error: %w", err)
			}
		}()
	}

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err = <-errChan:
		log.Error("Server failed", "error", err)
	}

	// 7. Final Cleanup
	server.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("HTTP shutdown incomplete", "error", shutdownErr)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	stop()
	supervisor.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")
	return err
}

func openMessageStore(ctx context.Context, config internal.Config, db *badger.DB, log *slog.Logger) (messageStore, error) {
	switch config.StoreDriver {
	case internal.StoreSQLite, internal.StorePgx:
		return repositories.OpenSQLMessageRepository(ctx, config.StoreDriver, config.SQLDSN, log)
	default:
		return repositories.NewMessageRepository(db, log), nil
	}
}
