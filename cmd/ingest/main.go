package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"github.com/healthbot/knowledge-core/internal/bootstrap"
	"github.com/healthbot/knowledge-core/internal/config"
	"github.com/healthbot/knowledge-core/internal/core/domain"
	"github.com/healthbot/knowledge-core/internal/observability/logging"
)

func main() {
	sessionID := flag.String("session", "", "session id; generated when empty")
	dir := flag.String("dir", "", "ingest every file in this directory")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("knowledge-core-ingest", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := flag.Args()
	if *dir != "" {
		entries, err := os.ReadDir(*dir)
		if err != nil {
			log.Fatalf("read dir: %v", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			files = append(files, filepath.Join(*dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		log.Fatal("nothing to ingest: pass file paths or -dir")
	}

	if *sessionID == "" {
		*sessionID = uuid.NewString()
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	batch := domain.IngestBatch{SessionID: *sessionID, FilePaths: files}
	if err := app.IngestUC.RunBatch(ctx, batch); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	task, err := app.IngestUC.IngestStatus(ctx, *sessionID)
	if err != nil {
		log.Fatalf("read status: %v", err)
	}
	fmt.Printf("session %s: %s (%d%%) %s\n", *sessionID, task.Status, task.Percent, task.Detail)
	fmt.Printf("collection: %s\n", app.Collections.CollectionPath(*sessionID))
}
