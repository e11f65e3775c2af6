package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/healthbot/knowledge-core/internal/bootstrap"
	"github.com/healthbot/knowledge-core/internal/config"
	"github.com/healthbot/knowledge-core/internal/observability/logging"
)

func main() {
	sessionID := flag.String("session", "", "session id whose collection to query")
	question := flag.String("q", "", "query text")
	topK := flag.Int("k", 0, "number of passages to retrieve; 0 uses the configured default")
	answer := flag.Bool("answer", false, "generate a grounded answer instead of listing passages")
	flag.Parse()

	if *sessionID == "" || *question == "" {
		log.Fatal("both -session and -q are required")
	}

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("knowledge-core-query", cfg.LogLevel))
	if *topK == 0 {
		*topK = cfg.RetrieveTopK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	collectionPath := app.Collections.CollectionPath(*sessionID)

	if *answer {
		result, err := app.RetrieveUC.Answer(ctx, collectionPath, *question, *topK)
		if err != nil {
			log.Fatalf("answer failed: %v", err)
		}
		fmt.Println(result.Text)
		for _, src := range result.Sources {
			fmt.Printf("  [%d] %s (distance %.4f)\n", src.GlobalRank, src.SourceID, src.Distance)
		}
		return
	}

	results, err := app.RetrieveUC.Retrieve(ctx, collectionPath, *question, *topK)
	if err != nil {
		log.Fatalf("retrieve failed: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("no passages found")
		return
	}
	for _, r := range results {
		fmt.Printf("[%d] %s (source rank %d, distance %.4f)\n%s\n\n", r.GlobalRank, r.SourceID, r.Rank, r.Distance, r.PassageText)
	}
}
