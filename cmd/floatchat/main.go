// File path: cmd/floatchat/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/floatchat/floatchat/internal/api"
	"github.com/floatchat/floatchat/internal/argo"
	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/gateway"
	"github.com/floatchat/floatchat/internal/history"
	"github.com/floatchat/floatchat/internal/llm"
	"github.com/floatchat/floatchat/internal/postgres"
	"github.com/floatchat/floatchat/internal/rag"
	"github.com/floatchat/floatchat/internal/retriever"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("floatchat: .env file not loaded", "error", err)
	} else {
		logger.Info("floatchat: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	workerSlots := flag.Int("worker-slots", 0, "number of worker identities requests rotate through (0 uses defaults)")
	chatMaxRows := flag.Int("chat-max-rows", 0, "row cap for chat-originated statements (0 uses defaults)")
	dataMaxRows := flag.Int("data-max-rows", 0, "row cap for the raw data endpoint (0 uses defaults)")
	queryTimeout := flag.String("query-timeout", "", "per-statement execution timeout (e.g. 15s, 1m)")
	noHistory := flag.Bool("no-history", false, "disable the query history store")
	flag.Parse()

	logger.Info("floatchat: startup initiated", "addr", *addr)

	apiCfg := api.Config{
		WorkerSlots: *workerSlots,
		ChatMaxRows: *chatMaxRows,
		DataMaxRows: *dataMaxRows,
	}
	if trimmed := *queryTimeout; trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("floatchat: invalid query timeout", "value", trimmed, "error", err)
			fmt.Println("query timeout error:", err)
			os.Exit(1)
		}
		apiCfg.Timeout = dur
	}
	resolved := api.DefaultConfig().Merge(apiCfg)

	dbCfg, err := postgres.LoadConfig()
	if err != nil {
		logger.Error("floatchat: database config load failed", "error", err)
		fmt.Println("database config error:", err)
		os.Exit(1)
	}

	cache := postgres.NewCache(postgres.NewDialer(dbCfg))
	defer cache.Close()
	exec := postgres.NewExecutor(cache)

	var gwOpts []gateway.Option
	var historyStore *history.Store
	if !*noHistory {
		store, err := history.Open(ctx, dbCfg.DSN())
		if err != nil {
			logger.Warn("floatchat: history store unavailable", "error", err)
		} else {
			defer store.Close()
			gwOpts = append(gwOpts, gateway.WithRecorder(store))
			historyStore = store
		}
	}
	gw := gateway.New(exec, gwOpts...)

	argoSvc := argo.NewService(exec)
	var retr *retriever.Retriever
	summaryCtx, summaryCancel := context.WithTimeout(ctx, 45*time.Second)
	summary, err := argoSvc.Summary(summaryCtx)
	summaryCancel()
	if err != nil {
		logger.Warn("floatchat: dataset summary unavailable at startup", "error", err)
		retr = retriever.NewRetriever([]retriever.Doc{argo.SchemaDoc()})
	} else {
		retr = retriever.NewRetriever(argo.ContextDocs(summary))
	}

	provider := llm.NewProvider()
	logger.Info("floatchat: llm provider ready", "provider", provider.Name())

	pipeline := rag.NewPipeline(provider, retr, gw,
		rag.WithLimit(resolved.ChatMaxRows),
		rag.WithTimeout(resolved.Timeout),
	)

	server, err := api.NewServer(pipeline, gw, argoSvc, historyStore, &resolved)
	if err != nil {
		logger.Error("floatchat: server initialization failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("floatchat: listening", "addr", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("floatchat: server stopped", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}
}
