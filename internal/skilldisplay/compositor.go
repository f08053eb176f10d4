// Package skilldisplay composes the skills section of the character-stats panel.
package skilldisplay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/skillstats/internal/charstats"
	"github.com/udisondev/skillstats/internal/skill"
)

const (
	// SectionName identifies the skills section in the charstats host.
	SectionName = "skills"
	// HeaderLabel is the section header line.
	HeaderLabel = "Skills"
	// NoProgressValue is shown for a skill without stored progress.
	NoProgressValue = "--"
)

// RecordSource loads a skill record; *skill.Store satisfies it.
type RecordSource interface {
	Load(ctx context.Context, accountID int64) skill.Record
}

// Compositor renders enabled skills with provider overrides into the stats panel.
type Compositor struct {
	filter   *skill.Filter
	records  RecordSource
	provider Provider
}

var _ charstats.Section = (*Compositor)(nil)

// NewCompositor creates a compositor. A nil provider means no overrides.
func NewCompositor(filter *skill.Filter, records RecordSource, provider Provider) *Compositor {
	return &Compositor{filter: filter, records: records, provider: provider}
}

// Name implements charstats.Section.
func (c *Compositor) Name() string { return SectionName }

// RenderCharStats emits a header and one line per enabled skill.
// Nothing is emitted when the session is anonymous or no skill is enabled.
func (c *Compositor) RenderCharStats(ctx context.Context, turn *charstats.Turn) {
	sess := turn.Session
	if !sess.LoggedIn || sess.AccountID <= 0 {
		return
	}

	enabled := c.filter.Enabled()
	if len(enabled) == 0 {
		return
	}

	rec := turn.Cache.Get(ctx, sess.AccountID, c.records.Load)
	overrides := c.resolve(ctx, enabled, rec)

	turn.Panel.AddHeader(HeaderLabel)
	for _, line := range Merge(enabled, rec, overrides) {
		turn.Panel.AddStatLine(line.Label, line.Value)
	}
}

// resolve calls the provider once; a failing provider means no overrides.
func (c *Compositor) resolve(ctx context.Context, enabled []skill.Definition, rec skill.Record) map[skill.Key]Override {
	if c.provider == nil {
		return nil
	}

	keys := make([]skill.Key, len(enabled))
	for i, d := range enabled {
		keys[i] = d.Key
	}

	overrides, err := c.provider.ResolveOverrides(ctx, keys, rec)
	if err != nil {
		slog.Warn("resolving skill display overrides", "accountID", rec.AccountID, "error", err)
		return nil
	}
	return overrides
}

// Merge builds the stat lines of enabled skills, in the given order.
func Merge(enabled []skill.Definition, rec skill.Record, overrides map[skill.Key]Override) []charstats.StatLine {
	lines := make([]charstats.StatLine, 0, len(enabled))
	for _, d := range enabled {
		label, value := overrides[d.Key].Apply(d.DisplayName, DefaultValue(rec, d.Key))
		lines = append(lines, charstats.StatLine{Label: label, Value: value})
	}
	return lines
}

// DefaultValue formats stored progress: "Level 10 (500 XP)", or "--" without progress.
func DefaultValue(rec skill.Record, key skill.Key) string {
	p, ok := rec.Progress(key)
	if !ok {
		return NoProgressValue
	}
	return fmt.Sprintf("Level %d (%d XP)", p.Level, p.Experience)
}
