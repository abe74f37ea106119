// Command brain-watch watches the inbox directory and ingests WRAP
// documents as they are dropped in.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/studyops/brain/internal/config"
	"github.com/studyops/brain/internal/ingest"
	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/internal/notebook"
	"github.com/studyops/brain/internal/notes"
	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/internal/storage/postgres"
	"github.com/studyops/brain/internal/storage/sqlite"
	"github.com/studyops/brain/internal/watch"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	gen, err := llm.NewTextGenerator(cfg.LLMClientConfig())
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	client := notebook.NewClient(notebook.Config{
		BaseURL: cfg.Notebook.VaultURL,
		Token:   cfg.Notebook.VaultToken,
	})
	merger := notes.NewMerger(client, gen, notebook.NewWikilinkIndex(client),
		&notes.PatchWriter{Dir: cfg.Ingest.PatchesDir}, cfg.Notebook.NotePath)

	pipeline := ingest.NewPipeline(store, gen, merger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher := watch.NewInboxWatcher(cfg.Ingest.InboxDir, cfg.Ingest.ProcessedDir,
		cfg.Ingest.FailedDir, pipeline)
	if err := watcher.Start(ctx); err != nil {
		log.Fatalf("Failed to start inbox watcher: %v", err)
	}

	log.Println("Inbox watcher started")
	log.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	watcher.Stop()
}

func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		return sqlite.NewStore(filepath.Join(cfg.Storage.DataPath, "brain.db"))
	}
}
