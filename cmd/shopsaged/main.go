// Package main is the shopsaged server entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shopsage/shopsage/internal/config"
	"github.com/shopsage/shopsage/internal/embedding"
	"github.com/shopsage/shopsage/internal/httpapi"
	"github.com/shopsage/shopsage/internal/llmoracle"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/orchestrator"
	"github.com/shopsage/shopsage/internal/retrieval"
	"github.com/shopsage/shopsage/internal/store"
	"github.com/shopsage/shopsage/internal/supervisor"
	"github.com/shopsage/shopsage/internal/toolserver"
	"github.com/shopsage/shopsage/internal/workers"
	"github.com/shopsage/shopsage/pkg/utils"
)

const defaultConfigPath = "/usr/local/etc/shopsage/config.yaml"

// routingTable is the production keyword routing used in the absence of a
// live LLM backend (internal/llmoracle ships only MockOracle; see
// DESIGN.md). Rules are checked in order, so order/inventory keywords are
// listed first to take precedence; a message matching none of them falls
// back to Worker: Search (supervisor.WithDeterministicRouting's default),
// which is what actually makes search the catch-all for the rest of the
// Query Parser's vocabulary.
var routingTable = []supervisor.RouteRule{
	{Keyword: "order", Kind: llmoracle.DelegationOrder},
	{Keyword: "buy", Kind: llmoracle.DelegationOrder},
	{Keyword: "purchase", Kind: llmoracle.DelegationOrder},
	{Keyword: "checkout", Kind: llmoracle.DelegationOrder},
	{Keyword: "inventory", Kind: llmoracle.DelegationProduct},
	{Keyword: "in stock", Kind: llmoracle.DelegationProduct},
	{Keyword: "available", Kind: llmoracle.DelegationProduct},
	{Keyword: "size", Kind: llmoracle.DelegationProduct},
}

func main() {
	fs := flag.NewFlagSet("shopsaged", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded", zap.String("config_path", *configPath), zap.Bool("debug", debugMode))

	catalogStore, err := store.Open(cfg.Store.DatabasePath, cfg.Store.BleveIndexPath, cfg.Embedding.Dimensions)
	if err != nil {
		logger.Fatal("failed to open catalog store", zap.Error(err))
	}
	defer catalogStore.Close()

	var embedOracle embedding.Oracle
	if onnxOracle, err := embedding.NewONNXOracle(cfg.Embedding.ModelPath, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens, cfg.Embedding.CacheSize); err == nil {
		embedOracle = onnxOracle
	} else {
		logger.Warn("onnx embedding oracle unavailable, falling back to mock", zap.Error(err))
		embedOracle = embedding.NewMockOracle(cfg.Embedding.Dimensions)
	}
	defer embedOracle.Close()

	retrievalCfg := retrieval.Config{
		SemanticWeight:      cfg.Hybrid.SemanticWeight,
		LexicalWeight:       cfg.Hybrid.LexicalWeight,
		CandidateMultiplier: cfg.Hybrid.CandidateMultiplier,
		CandidateMinimum:    cfg.Hybrid.CandidateMinimum,
	}
	directRetriever := retrieval.New(catalogStore, retrievalCfg)

	localTransport := toolserver.NewLocalTransport(catalogStore)
	if err := localTransport.Connect(context.Background()); err != nil {
		logger.Fatal("failed to connect mediated transport", zap.Error(err))
	}
	defer localTransport.Close()
	mediatedClient := toolserver.NewClient(localTransport)
	mediatedRetriever := retrieval.New(mediatedClient, retrievalCfg)

	searchWorker := workers.NewSearchWorker(directRetriever, embedOracle)
	productWorker := workers.NewProductWorker(catalogStore)
	orderPricing := models.OrderPricing{
		TaxRate:               cfg.Order.TaxRate,
		FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
		FlatShipping:          cfg.Order.FlatShipping,
	}
	orderWorker := workers.NewOrderWorker(catalogStore, orderPricing)

	sup := supervisor.New(nil, searchWorker, productWorker, orderWorker, cfg.Turn.MaxToolCalls,
		supervisor.WithDeterministicRouting(routingTable))

	turnDeadline := time.Duration(cfg.Turn.TurnDeadlineMS) * time.Millisecond
	orc := orchestrator.New(directRetriever, mediatedRetriever, sup, turnDeadline)

	srv := httpapi.NewServer(orc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}
