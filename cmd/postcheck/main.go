package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postcheck/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Optional .env for local development; a missing file is fine.
	_ = godotenv.Load()

	var (
		addr         string
		rulebookDir  string
		receiptPath  string
		llmBaseURL   string
		llmModel     string
		llmKey       string
		minWidth     int
		minHeight    int
		minBytes     int
		counterfeit  string
		configPath   string
		verbose      bool
	)

	flag.StringVar(&addr, "addr", envOr("POSTCHECK_ADDR", ""), "HTTP listen address")
	flag.StringVar(&rulebookDir, "rulebooks", envOr("POSTCHECK_RULEBOOKS", ""), "Directory containing platform rulebooks")
	flag.StringVar(&receiptPath, "receipts", envOr("POSTCHECK_RECEIPTS", ""), "Path to the JSONL receipt log (empty disables receipts)")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name (empty disables model review)")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&minWidth, "image.minWidth", 0, "Minimum acceptable image width in pixels")
	flag.IntVar(&minHeight, "image.minHeight", 0, "Minimum acceptable image height in pixels")
	flag.IntVar(&minBytes, "image.minBytes", 0, "Minimum acceptable image payload size in bytes")
	flag.StringVar(&counterfeit, "image.counterfeitSeverity", os.Getenv("POSTCHECK_COUNTERFEIT_SEVERITY"), "Severity for counterfeit image tokens (medium or high)")
	flag.StringVar(&configPath, "config", os.Getenv("POSTCHECK_CONFIG"), "Optional YAML config file")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Default()

	// Precedence: flag > env > file > default. Flags already fold in env
	// through their defaults, so overlay the file first.
	if configPath != "" {
		fc, err := app.LoadFileConfig(configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", configPath).Msg("load config file")
		}
		fc.Apply(&cfg)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if rulebookDir != "" {
		cfg.RulebookDir = rulebookDir
	}
	if receiptPath != "" {
		cfg.ReceiptPath = receiptPath
	}
	if llmBaseURL != "" {
		cfg.LLMBaseURL = llmBaseURL
	}
	if llmModel != "" {
		cfg.LLMModel = llmModel
	}
	if llmKey != "" {
		cfg.LLMAPIKey = llmKey
	}
	if minWidth > 0 {
		cfg.ImageMinWidth = minWidth
	}
	if minHeight > 0 {
		cfg.ImageMinHeight = minHeight
	}
	if minBytes > 0 {
		cfg.ImageMinBytes = minBytes
	}
	if counterfeit != "" {
		cfg.CounterfeitSeverity = counterfeit
	}
	cfg.Verbose = cfg.Verbose || verbose

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := app.Build(cfg)
	if err := srv.Run(ctx, cfg.Addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
