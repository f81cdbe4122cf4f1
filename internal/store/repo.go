package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by ID matches no row.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact match on purpose (LLM events only)
	RunID   string    // exact match on run ID (LLM events only)
	Status  string    // exact match on status (runs only)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	RunID        string // empty for calls made outside a recorded run
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// UsageSummary aggregates LLM events grouped by one dimension.
type UsageSummary struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event or ErrNotFound.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose sums calls and tokens per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]UsageSummary, error)

	// LLMUsageByModel sums calls and tokens per model.
	LLMUsageByModel(ctx context.Context) ([]UsageSummary, error)
}

// RunData describes one completed (or failed) pipeline run.
type RunData struct {
	ID           string
	Grade        int
	Topic        string
	Status       string // "pass", "fail" or "error"
	ErrorKind    string
	ErrorMessage string
	WasRefined   bool
	DurationMs   int64
	Result       []byte // serialized pipeline result; empty on error
}

// RunRecord is a stored pipeline run.
type RunRecord struct {
	Sequence  int64
	Timestamp time.Time
	RunData
}

// RunRepo persists pipeline runs.
type RunRepo interface {
	AppendRun(ctx context.Context, data RunData) error
	ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error)
	GetRun(ctx context.Context, id string) (*RunRecord, error)
}
