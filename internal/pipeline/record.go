package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/llm"
	"github.com/abhisek/eduforge/internal/logging"
	"github.com/abhisek/eduforge/internal/store"
)

// Recorder runs the pipeline and persists every run, successful or not.
// A nil Repo makes it a plain pass-through.
type Recorder struct {
	Pipeline *Pipeline
	Repo     store.RunRepo
	Log      *logging.Logger
}

// Run executes one run and returns its ID. The ID is empty when no
// repository is attached. Provider calls made during the run carry the ID in
// their context. Storage failures are logged and never fail the run.
func (r *Recorder) Run(ctx context.Context, grade int, topic string) (string, *Result, error) {
	if r.Repo == nil {
		res, err := r.Pipeline.Run(ctx, grade, topic)
		return "", res, err
	}

	id := uuid.NewString()
	start := time.Now()
	res, err := r.Pipeline.Run(llm.WithRunID(ctx, id), grade, topic)
	data := NewRunData(id, grade, topic, res, err, time.Since(start))
	// The caller's context may already be cancelled after a timeout; the
	// failed run is still worth keeping.
	if perr := r.Repo.AppendRun(context.WithoutCancel(ctx), data); perr != nil {
		log := r.Log
		if log == nil {
			log = logging.Nop()
		}
		log.Warn("failed to persist pipeline run", "run_id", id, "error", perr)
		return "", res, err
	}
	return id, res, err
}

// NewRunData converts a run outcome into its stored form. For parse
// failures Result holds {"raw_response": ...} instead of a pipeline result.
func NewRunData(id string, grade int, topic string, res *Result, runErr error, elapsed time.Duration) store.RunData {
	data := store.RunData{
		ID:         id,
		Grade:      grade,
		Topic:      topic,
		DurationMs: elapsed.Milliseconds(),
	}

	if runErr != nil {
		data.Status = OutcomeError
		data.ErrorKind = string(content.Kind(runErr))
		data.ErrorMessage = runErr.Error()
		if raw := content.RawResponse(runErr); raw != "" {
			data.Result, _ = json.Marshal(map[string]string{"raw_response": raw})
		}
		return data
	}

	data.Status = res.Outcome()
	data.WasRefined = res.WasRefined
	data.Result, _ = json.Marshal(res)
	return data
}
