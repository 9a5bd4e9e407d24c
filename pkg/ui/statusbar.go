package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jake-the-creative/dehc-1/pkg/hierarchy"
)

// StatusBar shows where the data lives and what the view holds: db
// path, per-category counts, tree stats, last refresh time, and a
// transient message line.
type StatusBar struct {
	theme Theme
	width int

	dbPath      string
	counts      map[string]int
	stats       hierarchy.TreeStats
	lastRefresh time.Time

	message string
	isError bool
}

// NewStatusBar creates a status bar for the given database path.
func NewStatusBar(dbPath string, theme Theme) StatusBar {
	return StatusBar{theme: theme, dbPath: dbPath}
}

// SetSize updates the bar width.
func (s *StatusBar) SetSize(width int) { s.width = width }

// SetCounts updates the per-category item counts.
func (s *StatusBar) SetCounts(counts map[string]int) { s.counts = counts }

// SetStats updates the displayed tree stats.
func (s *StatusBar) SetStats(st hierarchy.TreeStats) { s.stats = st }

// MarkRefreshed records a completed refresh.
func (s *StatusBar) MarkRefreshed() { s.lastRefresh = time.Now() }

// Flash shows a transient message until the next Flash or Clear.
func (s *StatusBar) Flash(msg string) {
	s.message = msg
	s.isError = false
}

// FlashError shows a transient error message.
func (s *StatusBar) FlashError(msg string) {
	s.message = msg
	s.isError = true
}

// ClearMessage drops the transient message.
func (s *StatusBar) ClearMessage() { s.message = "" }

// View renders the bar.
func (s StatusBar) View() string {
	var parts []string

	parts = append(parts, s.theme.SecondaryText.Render(s.dbPath))

	if len(s.counts) > 0 {
		cats := make([]string, 0, len(s.counts))
		for c := range s.counts {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		pieces := make([]string, 0, len(cats))
		for _, c := range cats {
			pieces = append(pieces, fmt.Sprintf("%s:%d", c, s.counts[c]))
		}
		parts = append(parts, s.theme.MutedText.Render(strings.Join(pieces, " ")))
	}

	if s.stats.Items > 0 {
		parts = append(parts, s.theme.MutedText.Render(fmt.Sprintf(
			"view:%d depth:%d branch:%.1f", s.stats.Items, s.stats.MaxDepth, s.stats.MeanBranching)))
	}

	if !s.lastRefresh.IsZero() {
		parts = append(parts, s.theme.MutedText.Render("refreshed "+FormatTimeRel(s.lastRefresh)))
	}

	if s.message != "" {
		style := s.theme.PrimaryBold
		if s.isError {
			style = s.theme.FlagBadge
		}
		parts = append(parts, style.Render(s.message))
	}

	line := strings.Join(parts, s.theme.MutedText.Render(" │ "))
	if s.width > 0 {
		line = s.theme.Renderer.NewStyle().MaxWidth(s.width).Render(line)
	}
	return line
}
