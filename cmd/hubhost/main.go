package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/scottieai/collab-hub/host/internal/config"
	"github.com/scottieai/collab-hub/host/internal/logger"
	"github.com/scottieai/collab-hub/host/internal/platform"
	"github.com/scottieai/collab-hub/host/internal/supervisor"
	"github.com/scottieai/collab-hub/host/internal/update"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file (default: per-platform app data directory)")
	showVersion = flag.Bool("version", false, "Show version information")
	showHelp    = flag.Bool("help", false, "Show help information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Collab Hub Host v%s\n", update.Version)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Set up panic recovery
	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC: %v", r)
			log.Printf("Stack trace:\n%s", debug.Stack())
			os.Exit(1)
		}
	}()

	// Load configuration
	var cfg *config.HostConfig
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfigFromPath(*configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logFile := cfg.Logging.File
	if !filepath.IsAbs(logFile) {
		if dir, err := platform.LogDir(); err == nil {
			logFile = filepath.Join(dir, logFile)
		}
	}
	if err := logger.Initialize(logFile, cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}

	logger.Info("=== Collab Hub Host v%s ===", update.Version)
	logger.Info("Log level: %s", cfg.Logging.Level)
	logger.Info("Log file: %s", logFile)

	sup, err := supervisor.New(cfg)
	if err != nil {
		logger.Error("Failed to create supervisor: %v", err)
		os.Exit(1)
	}

	// Run supervisor (blocks until shutdown signal)
	if err := sup.Run(); err != nil {
		logger.Error("Supervisor error: %v", err)
		os.Exit(1)
	}

	logger.Info("Collab Hub Host exited cleanly")
}

// printHelp displays usage information
func printHelp() {
	fmt.Printf("Collab Hub Host v%s\n\n", update.Version)
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n\n", os.Args[0])
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println("\nDescription:")
	fmt.Println("  The Collab Hub host process supervises the desktop application's")
	fmt.Println("  windows, serves the UI over a loopback bridge, samples resource")
	fmt.Println("  usage, and orchestrates application updates.")
	fmt.Println("\nExamples:")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Printf("  %s --config /path/to/config.json\n", os.Args[0])
	fmt.Printf("  %s --version\n", os.Args[0])
}
