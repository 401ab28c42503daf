// Command cuescored runs the cuescore REST API server.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yourusername/cuescore/internal/config"
	"github.com/yourusername/cuescore/internal/store"
	"github.com/yourusername/cuescore/pkg/api"
)

const version = "0.1.0"

func main() {
	// Command line flags override the configuration file.
	configFile := flag.String("config", config.DefaultFile, "Path to the configuration file")
	host := flag.String("host", "", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 0, "Port to listen on")
	dbPath := flag.String("db", "", "Path to the match database")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("cuescore API Server v%s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	logger := cfg.Logger(os.Stderr)

	db, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Storage.Path)

	history := store.NewHistory(db, cfg.Legacy.IDs(), logger)

	server := api.NewServer(history, api.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxFastWorkers: cfg.Server.MaxFastWorkers,
		MaxSlowWorkers: cfg.Server.MaxSlowWorkers,
	}, version, logger)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		logger.Error("server error", "error", err)
		db.Close()
		os.Exit(1)
	}
}
