package jobs

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// ErrorHandler logs analysis job failures. River applies its own retry
// policy; this only decides how loudly to report.
type ErrorHandler struct{}

// HandleError is called when a job returns an error. Intermediate attempts
// log as warnings since the queue will retry them; only the final attempt is
// an error worth paging on.
func (h *ErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	level := slog.LevelWarn
	if job.Attempt >= job.MaxAttempts {
		level = slog.LevelError
	}

	slog.Log(ctx, level, "job failed",
		"queue", job.Queue,
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"max_attempts", job.MaxAttempts,
		"error", err,
	)

	// nil keeps River's default retry schedule
	return nil
}

// HandlePanic is called when a job panics. Panics here almost always mean a
// malformed enrichment payload rather than a transient fault, so the stack
// trace is logged in full.
func (h *ErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	slog.Error("job panicked",
		"queue", job.Queue,
		"job_kind", job.Kind,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"panic_value", panicVal,
		"stack_trace", trace,
	)

	return nil
}
