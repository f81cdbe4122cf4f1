package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared by the migration and the query builders.
const (
	llmEventsTable = "llm_request_events"
	runsTable      = "pipeline_runs"
	sequenceTable  = "global_sequence"
)

var (
	llmEventColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "request_body", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "response_body", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "run_id", Type: field.TypeString, Default: ""},
	}

	// llmEventsTableDef records every LLM API call for cost tracking and debugging.
	llmEventsTableDef = &schema.Table{
		Name:       llmEventsTable,
		Columns:    llmEventColumns,
		PrimaryKey: []*schema.Column{llmEventColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmrequestevent_timestamp", Columns: []*schema.Column{llmEventColumns[2]}},
			{Name: "llmrequestevent_purpose", Columns: []*schema.Column{llmEventColumns[5]}},
			{Name: "llmrequestevent_model", Columns: []*schema.Column{llmEventColumns[4]}},
			{Name: "llmrequestevent_run_id", Columns: []*schema.Column{llmEventColumns[13]}},
		},
	}

	runColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "grade", Type: field.TypeInt},
		{Name: "topic", Type: field.TypeString},
		{Name: "status", Type: field.TypeString},
		{Name: "error_kind", Type: field.TypeString, Default: ""},
		{Name: "error_message", Type: field.TypeString, Default: "", Size: 2147483647},
		{Name: "was_refined", Type: field.TypeBool, Default: false},
		{Name: "duration_ms", Type: field.TypeInt64, Default: 0},
		{Name: "result", Type: field.TypeBytes, Nullable: true},
	}

	// runsTableDef holds one row per pipeline invocation.
	runsTableDef = &schema.Table{
		Name:       runsTable,
		Columns:    runColumns,
		PrimaryKey: []*schema.Column{runColumns[0]},
		Indexes: []*schema.Index{
			{Name: "pipelinerun_timestamp", Columns: []*schema.Column{runColumns[2]}},
			{Name: "pipelinerun_status", Columns: []*schema.Column{runColumns[5]}},
		},
	}

	sequenceColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt},
		{Name: "next_val", Type: field.TypeInt64, Default: 1},
	}

	// sequenceTableDef is a single-row table holding the next global
	// sequence number.
	sequenceTableDef = &schema.Table{
		Name:       sequenceTable,
		Columns:    sequenceColumns,
		PrimaryKey: []*schema.Column{sequenceColumns[0]},
	}

	// tables lists everything auto-migration creates.
	tables = []*schema.Table{llmEventsTableDef, runsTableDef, sequenceTableDef}
)
