package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// BatchResult is the final summary produced by a completed batch job.
type BatchResult struct {
	JobID           string        `json:"job_id"`
	FilesFound      int           `json:"files_found"`
	FilesProcessed  int           `json:"files_processed"`
	FilesFailed     int           `json:"files_failed"`
	SessionsWritten int           `json:"sessions_written"`
	CardsWritten    int           `json:"cards_written"`
	Errors          []string      `json:"errors,omitempty"`
	Duration        time.Duration `json:"duration_ms"`
}

// BatchProgress carries live progress data for a running job.
type BatchProgress struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"` // "running" | "complete" | "failed"
	FilesFound     int    `json:"files_found"`
	FilesProcessed int    `json:"files_processed"`
	CurrentFile    string `json:"current_file,omitempty"`
	Message        string `json:"message,omitempty"`
}

// batchJob tracks the state of one async batch ingest.
type batchJob struct {
	mu       sync.RWMutex
	Progress BatchProgress
	Result   *BatchResult
	Done     chan struct{}
}

func newBatchJob(jobID string) *batchJob {
	return &batchJob{
		Progress: BatchProgress{JobID: jobID, Status: "running"},
		Done:     make(chan struct{}),
	}
}

func (j *batchJob) snapshot() BatchProgress {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Progress
}

// BatchIngester runs the pipeline over every WRAP file in a directory,
// asynchronously, with job-id addressable progress.
type BatchIngester struct {
	pipeline *Pipeline

	mu   sync.RWMutex
	jobs map[string]*batchJob
}

// NewBatchIngester creates a batch runner over the given pipeline.
func NewBatchIngester(pipeline *Pipeline) *BatchIngester {
	return &BatchIngester{
		pipeline: pipeline,
		jobs:     make(map[string]*batchJob),
	}
}

// Start begins an asynchronous ingest of every Markdown file under dirPath.
// It returns a job ID for use with JobProgress / JobResult.
func (b *BatchIngester) Start(ctx context.Context, dirPath string) (string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("cannot access directory %q: %w", dirPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dirPath)
	}

	jobID := uuid.New().String()
	job := newBatchJob(jobID)

	b.mu.Lock()
	b.jobs[jobID] = job
	b.mu.Unlock()

	go func() {
		result := b.run(ctx, job, dirPath)
		job.mu.Lock()
		job.Result = result
		if result.FilesProcessed == 0 && len(result.Errors) > 0 {
			job.Progress.Status = "failed"
			job.Progress.Message = "Batch ingest failed"
		} else {
			job.Progress.Status = "complete"
			job.Progress.Message = fmt.Sprintf("Ingested %d sessions from %d files",
				result.SessionsWritten, result.FilesProcessed)
		}
		job.mu.Unlock()
		close(job.Done)
	}()

	return jobID, nil
}

// JobProgress returns the live progress for a job, or false if unknown.
func (b *BatchIngester) JobProgress(jobID string) (BatchProgress, bool) {
	b.mu.RLock()
	job, ok := b.jobs[jobID]
	b.mu.RUnlock()
	if !ok {
		return BatchProgress{}, false
	}
	return job.snapshot(), true
}

// JobResult returns the final result for a completed job, or nil while the
// job is still running or when the id is unknown.
func (b *BatchIngester) JobResult(jobID string) *BatchResult {
	b.mu.RLock()
	job, ok := b.jobs[jobID]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	job.mu.RLock()
	defer job.mu.RUnlock()
	return job.Result
}

// Wait blocks until the job finishes. Returns false for an unknown id.
func (b *BatchIngester) Wait(jobID string) bool {
	b.mu.RLock()
	job, ok := b.jobs[jobID]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	<-job.Done
	return true
}

func (b *BatchIngester) run(ctx context.Context, job *batchJob, dirPath string) *BatchResult {
	start := time.Now()
	result := &BatchResult{JobID: job.Progress.JobID}

	files, err := collectWrapFiles(dirPath)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("walk error: %v", err))
		return result
	}

	result.FilesFound = len(files)
	job.mu.Lock()
	job.Progress.FilesFound = len(files)
	job.mu.Unlock()

	for i, path := range files {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, "context cancelled")
			break
		}

		rel, _ := filepath.Rel(dirPath, path)
		job.mu.Lock()
		job.Progress.FilesProcessed = i
		job.Progress.CurrentFile = rel
		job.mu.Unlock()

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("ingest: skip %s: read error: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: read error: %v", rel, err))
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}

		res, err := b.pipeline.Ingest(ctx, string(data))
		if err != nil {
			log.Printf("ingest: %s failed: %v", rel, err)
			result.FilesFailed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", rel, err))
			continue
		}

		result.FilesProcessed++
		result.SessionsWritten++
		result.CardsWritten += res.Cards.Written
	}

	job.mu.Lock()
	job.Progress.FilesProcessed = result.FilesProcessed + result.FilesFailed
	job.mu.Unlock()

	result.Duration = time.Since(start)
	return result
}

// collectWrapFiles walks dirPath and returns all .md / .markdown files,
// skipping hidden directories and the processed/failed subdirectories the
// watcher maintains.
func collectWrapFiles(dirPath string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || name == "processed" || name == "failed" {
				if path != dirPath {
					return filepath.SkipDir
				}
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".md" || ext == ".markdown" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
