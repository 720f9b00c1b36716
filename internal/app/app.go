// Package app wires configuration into a running service.
package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/postcheck/internal/engine"
	"github.com/hyperifyio/postcheck/internal/fetch"
	"github.com/hyperifyio/postcheck/internal/imagescan"
	"github.com/hyperifyio/postcheck/internal/model"
	"github.com/hyperifyio/postcheck/internal/receipts"
	"github.com/hyperifyio/postcheck/internal/rulebook"
	"github.com/hyperifyio/postcheck/internal/server"
	"github.com/hyperifyio/postcheck/internal/verdict"
)

// Build assembles the orchestrator and HTTP server from cfg.
func Build(cfg Config) *server.Server {
	store := &rulebook.Store{Dir: cfg.RulebookDir}

	scanCfg := imagescan.DefaultConfig()
	if cfg.ImageMinWidth > 0 {
		scanCfg.MinWidth = cfg.ImageMinWidth
	}
	if cfg.ImageMinHeight > 0 {
		scanCfg.MinHeight = cfg.ImageMinHeight
	}
	if cfg.ImageMinBytes > 0 {
		scanCfg.MinBytes = cfg.ImageMinBytes
	}
	scanCfg.CounterfeitSeverity = engine.ParseSeverity(cfg.CounterfeitSeverity)
	scanner := &imagescan.Scanner{
		Fetcher: &fetch.Client{
			UserAgent:         "postcheck/1.0 (+https://github.com/hyperifyio/postcheck)",
			MaxAttempts:       2,
			PerRequestTimeout: fetch.DefaultTimeout,
		},
		Config: scanCfg,
	}

	var reviewer *model.Reviewer
	if cfg.LLMModel != "" {
		reviewer = &model.Reviewer{
			Client: model.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey),
			Model:  cfg.LLMModel,
		}
		log.Info().Str("model", cfg.LLMModel).Str("base", cfg.LLMBaseURL).Msg("model reviewer enabled")
	} else {
		log.Info().Msg("no model configured; verdicts use text and image checks only")
	}

	orch := &verdict.Orchestrator{
		Store:    store,
		Engine:   &engine.Evaluator{Store: store},
		Scanner:  scanner,
		Reviewer: reviewer,
	}

	var receiptLog *receipts.Log
	if cfg.ReceiptPath != "" {
		receiptLog = receipts.Open(cfg.ReceiptPath)
	}

	return server.New(orch, receiptLog, prometheus.NewRegistry())
}
