// Package main runs the roll server: the formula pipeline served over
// Telnet, WebSocket and gRPC, each front end enabled by configuration.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dnddice/internal/app"
	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/frontend/handlers"
	"github.com/cory-johannsen/dnddice/internal/frontend/telnet"
	"github.com/cory-johannsen/dnddice/internal/frontend/websocket"
	"github.com/cory-johannsen/dnddice/internal/observability"
	"github.com/cory-johannsen/dnddice/internal/rollservice"
	"github.com/cory-johannsen/dnddice/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pipeline, err := app.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("building pipeline", zap.Error(err))
	}
	defer pipeline.Close()

	lifecycle := server.NewLifecycle(logger)
	proc := pipeline.Processor

	if cfg.Telnet.Enabled {
		acc := telnet.NewAcceptor(cfg.Telnet, handlers.NewRollHandler(proc, logger), logger)
		lifecycle.Add("telnet", server.ServiceFunc(acc.ListenAndServe))
	}
	if cfg.WebSocket.Enabled {
		ws := websocket.NewServer(cfg.WebSocket, websocket.NewHandler(proc, logger, nil), logger)
		lifecycle.Add("websocket", server.ServiceFunc(ws.ListenAndServe))
	}
	if cfg.GRPC.Enabled {
		rpc := rollservice.NewServer(cfg.GRPC, rollservice.NewService(proc, logger), logger)
		lifecycle.Add("grpc", server.ServiceFunc(rpc.ListenAndServe))
	}
	if lifecycle.Len() == 0 {
		logger.Fatal("no front end enabled; enable telnet, websocket or grpc")
	}

	logger.Info("roll server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("websocket_addr", cfg.WebSocket.Addr()),
		zap.String("grpc_addr", cfg.GRPC.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		_ = pipeline.Close()
		_ = logger.Sync()
		log.Fatalf("roll server stopped: %v", err)
	}
}
