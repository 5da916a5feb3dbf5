// Package main is the shopsage-repl TUI chat client: it wires the same
// components as shopsaged but drives Turn Orchestrator calls locally,
// in-process, instead of over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/shopsage/shopsage/internal/config"
	"github.com/shopsage/shopsage/internal/embedding"
	"github.com/shopsage/shopsage/internal/llmoracle"
	"github.com/shopsage/shopsage/internal/models"
	"github.com/shopsage/shopsage/internal/orchestrator"
	"github.com/shopsage/shopsage/internal/replui"
	"github.com/shopsage/shopsage/internal/retrieval"
	"github.com/shopsage/shopsage/internal/store"
	"github.com/shopsage/shopsage/internal/supervisor"
	"github.com/shopsage/shopsage/internal/toolserver"
	"github.com/shopsage/shopsage/internal/workers"
)

// routingTable mirrors cmd/shopsaged's production routing: order/inventory
// keywords are checked first, in order, and anything else falls back to
// Worker: Search.
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
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to YAML config file (optional; uses built-in defaults if empty)")
	customerID := flag.String("customer", "repl-customer", "customer id attached to every turn")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = &config.Config{}
		config.ApplyDefaults(cfg)
	}

	catalogStore, err := store.Open(cfg.Store.DatabasePath, cfg.Store.BleveIndexPath, cfg.Embedding.Dimensions)
	if err != nil {
		log.Fatalf("failed to open catalog store: %v", err)
	}
	defer catalogStore.Close()

	var embedOracle embedding.Oracle
	if onnxOracle, err := embedding.NewONNXOracle(cfg.Embedding.ModelPath, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens, cfg.Embedding.CacheSize); err == nil {
		embedOracle = onnxOracle
	} else {
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
		log.Fatalf("failed to connect mediated transport: %v", err)
	}
	defer localTransport.Close()
	mediatedRetriever := retrieval.New(toolserver.NewClient(localTransport), retrievalCfg)

	searchWorker := workers.NewSearchWorker(directRetriever, embedOracle)
	productWorker := workers.NewProductWorker(catalogStore)
	orderWorker := workers.NewOrderWorker(catalogStore, models.OrderPricing{
		TaxRate:               cfg.Order.TaxRate,
		FreeShippingThreshold: cfg.Order.FreeShippingThreshold,
		FlatShipping:          cfg.Order.FlatShipping,
	})

	sup := supervisor.New(nil, searchWorker, productWorker, orderWorker, cfg.Turn.MaxToolCalls,
		supervisor.WithDeterministicRouting(routingTable))
	turnDeadline := time.Duration(cfg.Turn.TurnDeadlineMS) * time.Millisecond
	orc := orchestrator.New(directRetriever, mediatedRetriever, sup, turnDeadline)

	m := replui.New(orc, *customerID)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
