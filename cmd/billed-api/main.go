package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"go.uber.org/zap"

	"github.com/zombor/billed/internal/api"
	"github.com/zombor/billed/internal/logger"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// .env is optional
	_ = godotenv.Load()

	fs := ff.NewFlagSet("billed-api")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "billed.db", "Database file path")
		storagePath = fs.StringLong("storage", "./justificatifs", "Justification files directory")
		publicURL   = fs.StringLong("public-url", "", "Base URL clients use to reach this server (default http://localhost:<port>)")
		rateLimit   = fs.Float64Long("rate-limit", 0, "Requests per second allowed, 0 disables limiting")
		rateBurst   = fs.IntLong("rate-burst", 20, "Requests allowed in a burst above the rate limit")
		logLevel    = fs.StringLong("log-level", "info", "Log level: debug, info, warn or error")
		_           = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("BILLED_API"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *publicURL == "" {
		*publicURL = fmt.Sprintf("http://localhost:%d", *port)
	}

	log.Info("Initializing database...", zap.String("path", *dbPath))
	db, err := api.NewBoltDB(*dbPath)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	log.Info("Initializing storage...", zap.String("path", *storagePath))
	storage, err := api.NewLocalStorage(*storagePath)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	service := api.NewService(db, storage, *publicURL, log)
	server := api.NewServer(service, api.Options{
		RateLimit: *rateLimit,
		RateBurst: *rateBurst,
	}, log)

	addr := fmt.Sprintf(":%d", *port)
	errs := make(chan error, 1)
	go func() {
		errs <- server.Start(addr)
	}()

	log.Info("Server started", zap.String("address", *publicURL), zap.String("version", version))
	if *rateLimit > 0 {
		log.Info("Rate limiting enabled", zap.Float64("rate", *rateLimit), zap.Int("burst", *rateBurst))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", zap.Error(err))
			os.Exit(1)
		}
	case <-sigChan:
		log.Info("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Shutdown error", zap.Error(err))
		}
	}
}
