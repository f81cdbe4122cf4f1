package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/pipeline"
)

func TestParseJobs(t *testing.T) {
	input := `
# science unit
Photosynthesis
7, Fractions and decimals
  Volcanoes  
Rome, the republic
`
	jobs, err := parseJobs(strings.NewReader(input), 4)
	if err != nil {
		t.Fatalf("parseJobs: %v", err)
	}

	want := []batchJob{
		{Grade: 4, Topic: "Photosynthesis"},
		{Grade: 7, Topic: "Fractions and decimals"},
		{Grade: 4, Topic: "Volcanoes"},
		{Grade: 4, Topic: "Rome, the republic"},
	}
	if len(jobs) != len(want) {
		t.Fatalf("got %d jobs, want %d: %+v", len(jobs), len(want), jobs)
	}
	for i := range want {
		if jobs[i] != want[i] {
			t.Errorf("job %d = %+v, want %+v", i, jobs[i], want[i])
		}
	}
}

type fakeRunner struct {
	fail     map[string]error
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeRunner) Run(ctx context.Context, grade int, topic string) (string, *pipeline.Result, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	if err := f.fail[topic]; err != nil {
		return "", nil, err
	}
	return "run-" + topic, &pipeline.Result{
		Grade:        grade,
		Topic:        topic,
		ReviewResult: content.Verdict{Status: content.StatusPass},
	}, nil
}

func TestRunBatch_FailuresDoNotCancelSiblings(t *testing.T) {
	r := &fakeRunner{fail: map[string]error{
		"bad": &content.ProviderError{Stage: content.StageGenerate, Err: errors.New("down")},
	}}
	jobs := []batchJob{
		{Grade: 3, Topic: "a"},
		{Grade: 3, Topic: "bad"},
		{Grade: 3, Topic: "b"},
		{Grade: 3, Topic: "c"},
		{Grade: 3, Topic: "d"},
	}

	var mu sync.Mutex
	got := map[string]batchOutcome{}
	failed := runBatch(context.Background(), r, jobs, 2, func(o batchOutcome) {
		mu.Lock()
		defer mu.Unlock()
		got[o.Topic] = o
	})

	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if len(got) != len(jobs) {
		t.Fatalf("got %d outcomes, want %d", len(got), len(jobs))
	}
	if o := got["bad"]; o.Kind != string(content.KindProvider) || o.Result != nil {
		t.Errorf("bad outcome = %+v", o)
	}
	if o := got["c"]; o.RunID != "run-c" || o.Result == nil || o.Index != 3 {
		t.Errorf("c outcome = %+v", o)
	}
	if p := r.peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	printOutcome(&buf, batchOutcome{Index: 0, Grade: 5, Topic: "Tides", Kind: "timeout", Error: "deadline exceeded"})
	if !strings.Contains(buf.String(), "timeout") || !strings.HasPrefix(buf.String(), "✗ [1]") {
		t.Errorf("failure line = %q", buf.String())
	}

	buf.Reset()
	printOutcome(&buf, batchOutcome{
		Index:  1,
		RunID:  "r1",
		Grade:  5,
		Topic:  "Tides",
		Result: &pipeline.Result{WasRefined: true, ReviewResult: content.Verdict{Status: content.StatusFail}},
	})
	if !strings.Contains(buf.String(), "(refined)") || !strings.Contains(buf.String(), "run r1") {
		t.Errorf("success line = %q", buf.String())
	}
}
