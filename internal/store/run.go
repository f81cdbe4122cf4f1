package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

type runRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

var runSelectColumns = []string{
	"id", "sequence", "timestamp", "grade", "topic", "status",
	"error_kind", "error_message", "was_refined", "duration_ms", "result",
}

func (r *runRepo) AppendRun(ctx context.Context, data RunData) error {
	if data.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	var result any
	if len(data.Result) > 0 {
		result = data.Result
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(runsTable).
		Columns(runSelectColumns...).
		Values(
			data.ID, seqNum, time.Now().UTC(), data.Grade, data.Topic, data.Status,
			data.ErrorKind, data.ErrorMessage, data.WasRefined, data.DurationMs, result,
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save pipeline run: %w", err)
	}
	return nil
}

func (r *runRepo) ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(runSelectColumns...).
		From(entsql.Table(runsTable)).
		OrderBy(entsql.Desc("sequence"))

	applySequenceOpts(sel, opts)
	if opts.Status != "" {
		sel.Where(entsql.EQ("status", opts.Status))
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pipeline runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(runSelectColumns...).
		From(entsql.Table(runsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	rec, err := scanRun(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var rec RunRecord
	err := row.Scan(
		&rec.ID, &rec.Sequence, &rec.Timestamp, &rec.Grade, &rec.Topic, &rec.Status,
		&rec.ErrorKind, &rec.ErrorMessage, &rec.WasRefined, &rec.DurationMs, &rec.Result,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pipeline run: %w", err)
	}
	return &rec, nil
}
