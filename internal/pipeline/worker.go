package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgallion1/linkpost/internal/newsletter"
)

// Worker generates newsletters with retry.
type Worker struct {
	gen     Generator
	log     *slog.Logger
	backoff func(attempt int) time.Duration
}

func NewWorker(gen Generator, log *slog.Logger) *Worker {
	return &Worker{gen: gen, log: log, backoff: Backoff}
}

// Process runs job to completion or failure.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "owner", job.Owner)
	job.SetStatus(StatusGenerating)
	start := time.Now()

	nl, err := w.generate(ctx, job.Instruction, job)
	if err != nil {
		log.Error("newsletter generation failed", "attempts", job.Snapshot().Attempts, "error", err)
		job.Fail(err.Error())
		return
	}
	job.Complete(nl)
	log.Info("newsletter generated",
		"sources", len(nl.Sources),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// generate calls the generator up to MaxRetries times. job, when set,
// receives attempt counts and intermediate errors.
func (w *Worker) generate(ctx context.Context, instruction string, job *Job) (*newsletter.Newsletter, error) {
	var lastErr error
	for attempt := range MaxRetries {
		if job != nil {
			job.AddAttempt()
		}
		nl, err := w.gen.Generate(ctx, instruction)
		if err == nil {
			return nl, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		if job != nil {
			job.AddError(err.Error())
		}
		wait := w.backoff(attempt)
		w.log.Warn("retryable generation error", "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
