package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/store"
)

const (
	runIDHeader     = "X-Run-ID"
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type generateRequest struct {
	Grade *int   `json:"grade"`
	Topic string `json:"topic"`
}

type runSummary struct {
	ID         string    `json:"id"`
	Sequence   int64     `json:"sequence"`
	Timestamp  time.Time `json:"timestamp"`
	Grade      int       `json:"grade"`
	Topic      string    `json:"topic"`
	Status     string    `json:"status"`
	WasRefined bool      `json:"was_refined"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

type runDetail struct {
	runSummary
	Result json.RawMessage `json:"result,omitempty"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "Educational Content Generator API",
		"version": s.cfg.Version,
		"docs":    "POST /generate with {\"grade\": 1-12, \"topic\": \"...\"}",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusUnprocessableEntity, "invalid_input", "request body must be JSON with grade and topic")
		return
	}
	if req.Grade == nil {
		respondError(c, http.StatusUnprocessableEntity, "invalid_input", "grade is required")
		return
	}

	id, res, err := s.rec.Run(c.Request.Context(), *req.Grade, req.Topic)
	if id != "" {
		c.Header(runIDHeader, id)
	}
	if err != nil {
		respondRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.runs == nil {
		respondError(c, http.StatusNotFound, "not_found", "run history is not enabled")
		return
	}

	limit := defaultRunLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(c, http.StatusUnprocessableEntity, "invalid_input", "limit must be a positive integer")
			return
		}
		limit = min(n, maxRunLimit)
	}

	records, err := s.runs.ListRuns(c.Request.Context(), store.QueryOpts{
		Limit:  limit,
		Status: c.Query("status"),
	})
	if err != nil {
		s.log.Error("list runs", "error", err)
		respondError(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	out := make([]runSummary, len(records))
	for i, rec := range records {
		out[i] = summarize(rec)
	}
	c.JSON(http.StatusOK, gin.H{"runs": out})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.runs == nil {
		respondError(c, http.StatusNotFound, "not_found", "run history is not enabled")
		return
	}

	rec, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "run not found")
		return
	}
	if err != nil {
		s.log.Error("get run", "error", err)
		respondError(c, http.StatusInternalServerError, "internal", "internal error")
		return
	}

	detail := runDetail{runSummary: summarize(*rec)}
	// Failed runs may hold raw model output, which stays server-side.
	if rec.Status != pipeline.OutcomeError && len(rec.Result) > 0 {
		detail.Result = json.RawMessage(rec.Result)
	}
	c.JSON(http.StatusOK, detail)
}

func summarize(rec store.RunRecord) runSummary {
	return runSummary{
		ID:         rec.ID,
		Sequence:   rec.Sequence,
		Timestamp:  rec.Timestamp,
		Grade:      rec.Grade,
		Topic:      rec.Topic,
		Status:     rec.Status,
		WasRefined: rec.WasRefined,
		ErrorKind:  rec.ErrorKind,
		DurationMs: rec.DurationMs,
	}
}
