// Package main applies the parameter table migrations to PostgreSQL.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cory-johannsen/dnddice/internal/config"
	"github.com/cory-johannsen/dnddice/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	dir := flag.String("dir", "migrations", "migrations directory")
	direction := flag.String("direction", "up", "migration direction: up or down")
	steps := flag.Int("steps", 0, "number of steps (0 = all pending; required for down)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	n := *steps
	switch *direction {
	case "up":
	case "down":
		if n <= 0 {
			log.Fatalf("direction down requires -steps > 0")
		}
		n = -n
	default:
		log.Fatalf("invalid direction %q: must be 'up' or 'down'", *direction)
	}

	version, unchanged, err := postgres.Migrate(cfg.Database.DSN(), *dir, n)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	elapsed := time.Since(start)
	if unchanged {
		fmt.Fprintf(os.Stdout, "no changes (version=%d) [%s]\n", version, elapsed)
	} else {
		fmt.Fprintf(os.Stdout, "migrated %s to version=%d [%s]\n", *direction, version, elapsed)
	}
}
