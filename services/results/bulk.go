package results

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uaftools-backend/lib/transcript"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// BulkResult pairs one registration number with its scrape outcome.
type BulkResult struct {
	RegistrationNumber string             `json:"registration_number"`
	Outcome            transcript.Outcome `json:"outcome"`
}

type BulkJob struct {
	ID         string       `json:"id"`
	Total      int          `json:"total"`
	Completed  int          `json:"completed"`
	Done       bool         `json:"done"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitzero"`
	Results    []BulkResult `json:"results"`
}

type bulkTracker struct {
	mu   sync.Mutex
	jobs map[string]*BulkJob
}

func newBulkTracker() *bulkTracker {
	return &bulkTracker{jobs: map[string]*BulkJob{}}
}

// StartBulk kicks off a background scrape of many registration numbers
// and returns a job id to poll. The job outlives the caller's request.
func (s Service) StartBulk(ctx context.Context, registrations []string) (string, error) {
	ctx, span := tracer.Start(ctx, "StartBulk")
	defer span.End()
	span.SetAttributes(attribute.Int("registration_count", len(registrations)))

	if len(registrations) == 0 {
		return "", fmt.Errorf("no registration numbers given")
	}

	id := uuid.NewString()
	job := &BulkJob{
		ID:        id,
		Total:     len(registrations),
		StartedAt: time.Now().UTC(),
	}
	s.bulk.mu.Lock()
	s.bulk.jobs[id] = job
	s.bulk.mu.Unlock()

	// the http request that started the job will be cancelled long
	// before the scrapes finish
	bgCtx := context.WithoutCancel(ctx)
	go s.runBulk(bgCtx, job, registrations)

	return id, nil
}

func (s Service) runBulk(ctx context.Context, job *BulkJob, registrations []string) {
	work := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < s.opts.BulkWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for registration := range work {
				out := s.Scrape(ctx, registration, "")

				s.bulk.mu.Lock()
				job.Completed++
				job.Results = append(job.Results, BulkResult{
					RegistrationNumber: registration,
					Outcome:            out,
				})
				s.bulk.mu.Unlock()
			}
		}()
	}

	for _, registration := range registrations {
		work <- registration
	}
	close(work)
	wg.Wait()

	s.bulk.mu.Lock()
	job.Done = true
	job.FinishedAt = time.Now().UTC()
	s.bulk.mu.Unlock()
}

// BulkStatus returns a snapshot of the job's progress.
func (s Service) BulkStatus(id string) (BulkJob, bool) {
	s.bulk.mu.Lock()
	defer s.bulk.mu.Unlock()

	job, ok := s.bulk.jobs[id]
	if !ok {
		return BulkJob{}, false
	}

	snapshot := *job
	snapshot.Results = append([]BulkResult(nil), job.Results...)
	return snapshot, true
}
