// Command brain-ingest runs the WRAP ingestion pipeline over one or more
// documents, a whole directory, or replays deferred note patches.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/studyops/brain/internal/config"
	"github.com/studyops/brain/internal/ingest"
	"github.com/studyops/brain/internal/llm"
	"github.com/studyops/brain/internal/notebook"
	"github.com/studyops/brain/internal/notes"
	"github.com/studyops/brain/internal/storage"
	"github.com/studyops/brain/internal/storage/postgres"
	"github.com/studyops/brain/internal/storage/sqlite"
)

var (
	dirPath  = flag.String("dir", "", "Ingest every Markdown file under this directory")
	replay   = flag.String("replay", "", "Replay a deferred note patch ('all' for every pending patch) and exit")
	noteFlag = flag.String("note", "", "Target note path (overrides config)")
	noNote   = flag.Bool("no-note", false, "Skip the notebook update entirely")
	jsonOut  = flag.Bool("json", false, "Print results as JSON")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *noteFlag != "" {
		cfg.Notebook.NotePath = *noteFlag
	}

	ctx := context.Background()

	if *replay != "" {
		handleReplay(ctx, cfg, *replay)
		return
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

	pipeline := ingest.NewPipeline(store, gen, buildMerger(cfg, gen))

	if *dirPath != "" {
		handleBatch(ctx, pipeline, *dirPath)
		return
	}

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: brain-ingest [flags] <wrap-file>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	exitCode := 0
	for _, file := range files {
		if err := ingestFile(ctx, pipeline, file); err != nil {
			log.Printf("%s: %v", file, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func ingestFile(ctx context.Context, pipeline *ingest.Pipeline, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	result, err := pipeline.Ingest(ctx, string(data))
	if result != nil {
		printResult(path, result)
	}
	return err
}

func printResult(path string, result *ingest.Result) {
	if *jsonOut {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}

	if len(result.ValidationErrors) > 0 {
		fmt.Printf("%s: rejected\n", path)
		for _, e := range result.ValidationErrors {
			fmt.Printf("  - %s\n", e.Error())
		}
		return
	}

	fmt.Printf("%s: session %s (%s)\n", path, result.SessionID, insertVerb(result.SessionInserted))
	fmt.Printf("  cards: %d written, %d skipped, %d failed\n",
		result.Cards.Written, result.Cards.Skipped, result.Cards.Failed)
	fmt.Printf("  note:  %s\n", result.NoteUpdate)
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func handleBatch(ctx context.Context, pipeline *ingest.Pipeline, dir string) {
	batch := ingest.NewBatchIngester(pipeline)
	jobID, err := batch.Start(ctx, dir)
	if err != nil {
		log.Fatalf("Failed to start batch ingest: %v", err)
	}

	for {
		progress, ok := batch.JobProgress(jobID)
		if !ok {
			log.Fatalf("Job %s disappeared", jobID)
		}
		if progress.Status != "running" {
			break
		}
		if progress.CurrentFile != "" {
			log.Printf("ingest: %d/%d %s", progress.FilesProcessed, progress.FilesFound, progress.CurrentFile)
		}
		time.Sleep(200 * time.Millisecond)
	}

	result := batch.JobResult(jobID)
	if result == nil {
		log.Fatalf("Job %s finished without a result", jobID)
	}

	fmt.Printf("Ingested %d of %d files (%d sessions, %d cards) in %v\n",
		result.FilesProcessed, result.FilesFound, result.SessionsWritten,
		result.CardsWritten, result.Duration.Round(time.Millisecond))
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	if result.FilesFailed > 0 {
		os.Exit(1)
	}
}

func handleReplay(ctx context.Context, cfg *config.Config, target string) {
	client := notebook.NewClient(notebook.Config{
		BaseURL: cfg.Notebook.VaultURL,
		Token:   cfg.Notebook.VaultToken,
	})

	paths := []string{target}
	if target == "all" {
		var err error
		paths, err = notes.PendingPatches(cfg.Ingest.PatchesDir)
		if err != nil {
			log.Fatalf("Failed to list patches: %v", err)
		}
		if len(paths) == 0 {
			fmt.Println("No pending patches")
			return
		}
	}

	for _, path := range paths {
		if err := notes.Replay(ctx, client, path); err != nil {
			log.Fatalf("Replay of %s failed: %v", path, err)
		}
		fmt.Printf("Replayed %s\n", path)
	}
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

func buildMerger(cfg *config.Config, gen llm.TextGenerator) *notes.Merger {
	if *noNote {
		return nil
	}
	client := notebook.NewClient(notebook.Config{
		BaseURL: cfg.Notebook.VaultURL,
		Token:   cfg.Notebook.VaultToken,
	})
	index := notebook.NewWikilinkIndex(client)
	patches := &notes.PatchWriter{Dir: cfg.Ingest.PatchesDir}
	return notes.NewMerger(client, gen, index, patches, cfg.Notebook.NotePath)
}

func insertVerb(inserted bool) string {
	if inserted {
		return "inserted"
	}
	return "updated"
}
