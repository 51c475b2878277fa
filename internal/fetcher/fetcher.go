package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// Job is a single distribution download.
type Job struct {
	Package  string
	Version  string
	URL      string
	DestPath string
	Source   string // "index" or "mirror"
}

// Result pairs a job with its outcome.
type Result struct {
	Job   Job
	Error error
}

// Fetcher downloads distribution archives in parallel.
type Fetcher struct {
	workers  int
	cacheDir string
	client   *http.Client
}

// New creates a fetcher with the given number of workers.
func New(workers int, cacheDir string) *Fetcher {
	return &Fetcher{
		workers:  workers,
		cacheDir: cacheDir,
		client:   &http.Client{},
	}
}

// Fetch downloads all jobs in parallel and returns one result per job.
// Already-cached destinations are not re-downloaded.
func (f *Fetcher) Fetch(jobs []Job) []Result {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		results := make([]Result, len(jobs))
		for i, job := range jobs {
			results[i] = Result{Job: job, Error: err}
		}
		return results
	}

	jobChan := make(chan Job, len(jobs))
	resultChan := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				err := f.fetchOne(job)
				resultChan <- Result{Job: job, Error: err}
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(jobs))
	for result := range resultChan {
		results = append(results, result)
	}

	return results
}

func (f *Fetcher) fetchOne(job Job) error {
	// Already cached.
	if _, err := os.Stat(job.DestPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	resp, err := f.client.Get(job.URL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", job.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: HTTP %d", job.URL, resp.StatusCode)
	}

	// Write to temp file first, then rename.
	tmpPath := job.DestPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	if err := os.Rename(tmpPath, job.DestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

// CacheDir returns the cache directory.
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// CachePath returns the cache path for a distribution filename.
func (f *Fetcher) CachePath(filename string) string {
	return filepath.Join(f.cacheDir, filename)
}
