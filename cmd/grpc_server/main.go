package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/ChessRulesEngine/internal/config"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/gamemaster"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/grpc/gameserver"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/logging"
	"github.com/mitchelldurbincs/ChessRulesEngine/internal/monitoring"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", -1, "The server port (-1 to use config default)")
	host := flag.String("host", "", "The server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	maxSessions := flag.Int("max-sessions", -1, "Maximum concurrent games (-1 to use config default)")
	kingSafety := flag.Bool("enforce-king-safety", false, "Reject moves that leave the mover's king attacked")
	enableReflection := flag.Bool("enable-reflection", false, "Enable gRPC reflection for debugging")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(os.Getenv("APP_ENV")); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}

	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = cfg.Server.GRPCServer.Port
	}
	if *host == "" {
		*host = cfg.Server.GRPCServer.Host
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.GRPCServer.LogLevel
	}
	if *maxSessions == -1 {
		*maxSessions = cfg.Game.MaxSessions
	}
	// Boolean flags only ever switch a feature on
	if !*enableReflection {
		*enableReflection = cfg.Server.GRPCServer.EnableReflection
	}
	if !*kingSafety {
		*kingSafety = cfg.Game.EnforceKingSafety
	}

	// Setup logging
	logCfg := cfg.Logging
	logCfg.Level = *logLevel
	logCloser := logging.Setup(logCfg)
	defer logCloser.Close()

	config.WatchConfig(func(next *config.Config) {
		logging.SetLevel(next.Server.GRPCServer.LogLevel)
	})

	log.Info().
		Int("port", *port).
		Str("host", *host).
		Int("max_sessions", *maxSessions).
		Bool("enforce_king_safety", *kingSafety).
		Msg("Starting gRPC chess server")

	// Create listener
	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	gmCfg := gamemaster.ConfigFrom(cfg)
	gmCfg.MaxSessions = *maxSessions
	gmCfg.EnforceKingSafety = *kingSafety
	gm := gamemaster.New(gmCfg, log.Logger)

	grpcServer := grpc.NewServer(gameserver.ServerOptions()...)

	// Register chess service
	idempotencyTTL := time.Duration(cfg.Server.GRPCServer.IdempotencyTTLSec) * time.Second
	gameserver.RegisterChessServiceServer(grpcServer, gameserver.NewServer(gm, idempotencyTTL))

	// Register health service
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(gameserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	// Register reflection service for debugging
	if *enableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	// Background workers stop with ctx
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if idle := time.Duration(cfg.Game.SessionIdleTimeoutSec) * time.Second; idle > 0 {
		go gm.RunJanitor(ctx, idle/4+time.Second, idle)
	}
	if cfg.Monitoring.Enabled {
		monitor := monitoring.New(monitoring.Config{
			Interval:       time.Duration(cfg.Monitoring.IntervalSec) * time.Second,
			GoroutineAlert: cfg.Monitoring.GoroutineAlert,
			SessionAlert:   cfg.Monitoring.SessionAlert,
		}, gm, log.Logger)
		go monitor.Run(ctx)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		// Set health status to NOT_SERVING
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(gameserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// Give ongoing requests time to complete
		time.Sleep(time.Duration(cfg.Server.GRPCServer.GracefulShutdownDelay) * time.Second)

		log.Info().Msg("Gracefully stopping gRPC server")
		grpcServer.GracefulStop()
		cancel()
	}()

	// Start server
	log.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	stats := gm.Stats()
	log.Info().
		Int("sessions", stats.Sessions).
		Uint64("created", stats.Created).
		Msg("Server shutdown complete")
}
