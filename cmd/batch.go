package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/eduforge/internal/content"
	"github.com/abhisek/eduforge/internal/pipeline"
)

// batchJob is one independent run.
type batchJob struct {
	Grade int
	Topic string
}

// batchOutcome is a finished job, successful or not.
type batchOutcome struct {
	Index  int              `json:"index"`
	RunID  string           `json:"run_id,omitempty"`
	Grade  int              `json:"grade"`
	Topic  string           `json:"topic"`
	Result *pipeline.Result `json:"result,omitempty"`
	Kind   string           `json:"error_kind,omitempty"`
	Error  string           `json:"error,omitempty"`
}

type runner interface {
	Run(ctx context.Context, grade int, topic string) (string, *pipeline.Result, error)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for many topics concurrently",
	Example: `  eduforge batch --grade 5 --topic Volcanoes --topic "Water cycle"
  eduforge batch --topics-file topics.txt --concurrency 4 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grade, _ := cmd.Flags().GetInt("grade")
		topics, _ := cmd.Flags().GetStringArray("topic")
		file, _ := cmd.Flags().GetString("topics-file")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		asJSON, _ := cmd.Flags().GetBool("json")

		jobs := make([]batchJob, 0, len(topics))
		for _, t := range topics {
			jobs = append(jobs, batchJob{Grade: grade, Topic: t})
		}
		if file != "" {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open topics file: %w", err)
			}
			fromFile, err := parseJobs(f, grade)
			f.Close()
			if err != nil {
				return err
			}
			jobs = append(jobs, fromFile...)
		}
		if len(jobs) == 0 {
			return fmt.Errorf("no topics given; use --topic or --topics-file")
		}

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		failed := runBatch(cmd.Context(), rt.recorder, jobs, concurrency, func(o batchOutcome) {
			mu.Lock()
			defer mu.Unlock()
			if asJSON {
				_ = writeJSONLine(out, o)
				return
			}
			printOutcome(out, o)
		})

		if failed > 0 {
			return fmt.Errorf("%d of %d runs failed", failed, len(jobs))
		}
		return nil
	},
}

// runBatch runs every job with at most concurrency in flight. A failed job
// never cancels its siblings. It returns the number of failures.
func runBatch(ctx context.Context, r runner, jobs []batchJob, concurrency int, onDone func(batchOutcome)) int {
	if concurrency < 1 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)

	var mu sync.Mutex
	failed := 0

	for i, job := range jobs {
		g.Go(func() error {
			o := batchOutcome{Index: i, Grade: job.Grade, Topic: job.Topic}
			id, res, err := r.Run(ctx, job.Grade, job.Topic)
			o.RunID = id
			if err != nil {
				o.Kind = string(content.Kind(err))
				o.Error = err.Error()
				mu.Lock()
				failed++
				mu.Unlock()
			} else {
				o.Result = res
			}
			onDone(o)
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// parseJobs reads one job per line. A line is either "topic" (using
// defaultGrade) or "grade,topic". Blank lines and # comments are skipped.
func parseJobs(r io.Reader, defaultGrade int) ([]batchJob, error) {
	var jobs []batchJob
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		job := batchJob{Grade: defaultGrade, Topic: text}
		if head, rest, ok := strings.Cut(text, ","); ok {
			if g, err := strconv.Atoi(strings.TrimSpace(head)); err == nil {
				job = batchJob{Grade: g, Topic: strings.TrimSpace(rest)}
			}
		}
		jobs = append(jobs, job)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read topics (line %d): %w", line, err)
	}
	return jobs, nil
}

func writeJSONLine(w io.Writer, v any) error {
	return jsonEncoder(w).Encode(v)
}

func printOutcome(w io.Writer, o batchOutcome) {
	if o.Error != "" {
		fmt.Fprintf(w, "✗ [%d] grade %d %q: %s: %s\n", o.Index+1, o.Grade, o.Topic, o.Kind, o.Error)
		return
	}
	refined := ""
	if o.Result.WasRefined {
		refined = " (refined)"
	}
	fmt.Fprintf(w, "✓ [%d] grade %d %q: %s%s  run %s\n",
		o.Index+1, o.Grade, o.Topic, o.Result.ReviewResult.Status, refined, o.RunID)
}

func init() {
	batchCmd.Flags().IntP("grade", "g", 0, "Grade for topics that do not name one")
	batchCmd.Flags().StringArrayP("topic", "t", nil, "Topic to generate (repeatable)")
	batchCmd.Flags().String("topics-file", "", "File with one topic (or grade,topic) per line")
	batchCmd.Flags().IntP("concurrency", "c", 4, "Maximum runs in flight")
	batchCmd.Flags().Bool("json", false, "Print one JSON object per run")
}
