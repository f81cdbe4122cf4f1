package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/eduforge/internal/pipeline"
	"github.com/abhisek/eduforge/internal/router"
	"github.com/abhisek/eduforge/internal/screens/result"
	"github.com/abhisek/eduforge/internal/store"
	"github.com/abhisek/eduforge/internal/ui/layout"
	"github.com/abhisek/eduforge/internal/ui/theme"
)

const pageSize = 50

type historyLoadedMsg struct {
	Runs []store.RunRecord
	Err  error
}

// HistoryScreen lists persisted runs, newest first.
type HistoryScreen struct {
	runs     store.RunRepo
	records  []store.RunRecord
	selected int
	loaded   bool
	errMsg   string
	notice   string
}

var _ router.Screen = (*HistoryScreen)(nil)
var _ router.KeyHintProvider = (*HistoryScreen)(nil)

func New(runs store.RunRepo) *HistoryScreen {
	return &HistoryScreen{runs: runs}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		recs, err := s.runs.ListRuns(context.Background(), store.QueryOpts{Limit: pageSize})
		return historyLoadedMsg{Runs: recs, Err: err}
	}
}

func (s *HistoryScreen) Title() string { return "Run history" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Open"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.records = msg.Runs
		}
		s.loaded = true
		return s, nil

	case tea.KeyPressMsg:
		switch msg.String() {
		case "esc":
			return s, router.Pop
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
		case "enter":
			return s, s.open()
		}
	}
	return s, nil
}

// open pushes the result view for the selected run. Failed runs have no
// result to show, so their error is displayed inline instead.
func (s *HistoryScreen) open() tea.Cmd {
	s.notice = ""
	if s.selected >= len(s.records) {
		return nil
	}
	rec := s.records[s.selected]
	if rec.Status == pipeline.OutcomeError {
		s.notice = fmt.Sprintf("%s: %s", rec.ErrorKind, rec.ErrorMessage)
		return nil
	}

	var res pipeline.Result
	if err := json.Unmarshal(rec.Result, &res); err != nil {
		s.notice = "stored result is unreadable: " + err.Error()
		return nil
	}
	return router.Push(result.New(&res, rec.ID))
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\nLoading runs...")
	case len(s.records) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\nNo runs yet.")
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, rec := range s.records {
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "▸ "
			style = theme.Selected
		}

		status := rec.Status
		if rec.WasRefined {
			status += " (refined)"
		}
		line := fmt.Sprintf("%s%s  grade %-2d  %-32s  %-16s  %5.1fs",
			prefix,
			rec.Timestamp.Local().Format("Jan 02 15:04"),
			rec.Grade,
			truncate(rec.Topic, 32),
			status,
			float64(rec.DurationMs)/1000,
		)
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(line)))
		b.WriteString("\n")
	}

	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.ErrorText.Width(min(width-4, 80)).Render(s.notice)))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
