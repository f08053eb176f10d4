// Package charstats is the host's character-stats panel: registered sections render
// their lines into a Panel once per processing turn.
package charstats

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/udisondev/skillstats/internal/skill"
)

// Session is the requesting player's session state.
type Session struct {
	AccountID int64
	LoggedIn  bool
}

// StatLine is one rendered line. Header lines carry no value.
type StatLine struct {
	Label  string
	Value  string
	Header bool
}

// Panel collects stat lines in emission order.
type Panel struct {
	lines []StatLine
}

// AddHeader appends a section header line.
func (p *Panel) AddHeader(label string) {
	p.lines = append(p.lines, StatLine{Label: label, Header: true})
}

// AddStatLine appends a label/value line.
func (p *Panel) AddStatLine(label, value string) {
	p.lines = append(p.lines, StatLine{Label: label, Value: value})
}

// Lines returns a copy of the collected lines.
func (p *Panel) Lines() []StatLine {
	return slices.Clone(p.lines)
}

// Len returns number of lines.
func (p *Panel) Len() int { return len(p.lines) }

// Turn is one processing context: a session, its panel and a fresh record cache.
// A Turn is used by a single goroutine and discarded after rendering.
type Turn struct {
	Session Session
	Cache   *skill.Cache
	Panel   *Panel
}

// NewTurn starts a processing context for the session.
func NewTurn(sess Session) *Turn {
	return &Turn{Session: sess, Cache: skill.NewCache(), Panel: &Panel{}}
}

// Close tears the turn down, dropping cached records.
func (t *Turn) Close() {
	t.Cache.Reset()
}

// Section renders part of the panel.
type Section interface {
	Name() string
	RenderCharStats(ctx context.Context, turn *Turn)
}

// Host owns the registered sections.
// Thread-safe: Render may run concurrently for different sessions, each with its own Turn.
type Host struct {
	mu       sync.RWMutex
	sections []Section
}

// NewHost creates a host with no sections.
func NewHost() *Host {
	return &Host{}
}

// Register adds a section, replacing a registered section with the same name.
func (h *Host) Register(s Section) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, existing := range h.sections {
		if existing.Name() == s.Name() {
			h.sections[i] = s
			return
		}
	}
	h.sections = append(h.sections, s)
	slog.Debug("charstats section registered", "section", s.Name())
}

// Unregister removes the named section.
func (h *Host) Unregister(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sections = slices.DeleteFunc(h.sections, func(s Section) bool { return s.Name() == name })
}

// Sections returns registered section names in render order.
func (h *Host) Sections() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, len(h.sections))
	for i, s := range h.sections {
		names[i] = s.Name()
	}
	return names
}

// Render runs every section within a new turn and returns the filled panel.
func (h *Host) Render(ctx context.Context, sess Session) *Panel {
	h.mu.RLock()
	sections := slices.Clone(h.sections)
	h.mu.RUnlock()

	turn := NewTurn(sess)
	defer turn.Close()

	for _, s := range sections {
		s.RenderCharStats(ctx, turn)
	}
	return turn.Panel
}
