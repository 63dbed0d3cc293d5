// Package main rolls the dice formulas found in its arguments, or in each
// line of standard input, and prints the results.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cory-johannsen/dnddice/internal/app"
	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/frontend/handlers"
	"github.com/cory-johannsen/dnddice/internal/frontend/telnet"
	"github.com/cory-johannsen/dnddice/internal/observability"
	"github.com/cory-johannsen/dnddice/internal/processor"
	"github.com/cory-johannsen/dnddice/internal/rollservice"
)

type processFunc func(ctx context.Context, text string) ([]processor.Result, error)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults and DNDDICE_* env when empty)")
	seed := flag.Int64("seed", 0, "seed for the seeded source (0 = configured seed)")
	server := flag.String("server", "", "roll on a remote roll server at this gRPC address")
	jsonOut := flag.Bool("json", false, "print results as JSON, one array per input line")
	color := flag.Bool("color", false, "print ANSI colors")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *seed != 0 {
		cfg.Roller.Source = config.SourceSeeded
		cfg.Roller.Seed = *seed
	}
	cfg.Logging.Level = "warn"
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var process processFunc
	if *server != "" {
		conn, err := grpc.NewClient(*server, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Fatal("connecting to roll server", zap.String("addr", *server), zap.Error(err))
		}
		defer conn.Close()
		client := rollservice.NewClient(conn)
		process = func(ctx context.Context, text string) ([]processor.Result, error) {
			return client.ProcessText(ctx, text)
		}
	} else {
		pipeline, err := app.NewPipeline(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("building pipeline", zap.Error(err))
		}
		defer pipeline.Close()
		process = func(ctx context.Context, text string) ([]processor.Result, error) {
			return pipeline.Processor.ProcessText(ctx, text), nil
		}
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	p := printer{out: out, json: *jsonOut, color: *color}

	if flag.NArg() > 0 {
		if err := p.run(ctx, process, strings.Join(flag.Args(), " ")); err != nil {
			logger.Fatal("rolling", zap.Error(err))
		}
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := p.run(ctx, process, line); err != nil {
			logger.Fatal("rolling", zap.Error(err))
		}
		_ = out.Flush()
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("reading stdin", zap.Error(err))
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.LoadFromViper(config.NewViper())
	}
	return config.Load(path)
}

type printer struct {
	out   io.Writer
	json  bool
	color bool
}

func (p printer) run(ctx context.Context, process processFunc, text string) error {
	results, err := process(ctx, text)
	if err != nil {
		return err
	}
	if p.json {
		if results == nil {
			results = []processor.Result{}
		}
		return json.NewEncoder(p.out).Encode(results)
	}
	for _, line := range handlers.RenderResults(results) {
		line = strings.ReplaceAll(line, "\r\n", "\n")
		if !p.color {
			line = telnet.StripANSI(line)
		}
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return err
		}
	}
	return nil
}
