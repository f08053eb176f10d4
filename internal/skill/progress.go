package skill

import (
	"errors"
	"maps"
	"time"
)

// Пределы значений навыка.
const (
	MinLevel      = 0
	MaxLevel      = 99
	MinExperience = 0
	MaxExperience = 13_034_431

	DefaultLevel      = 1
	DefaultExperience = 0
)

var (
	// ErrUnknownSkill is returned when a key is not in the registry.
	ErrUnknownSkill = errors.New("unknown skill")
	// ErrInvalidAccount is returned for non-positive account ids on write paths.
	ErrInvalidAccount = errors.New("invalid account id")
)

// Progress — уровень и опыт одного навыка.
type Progress struct {
	Level      int `json:"level"`
	Experience int `json:"experience"`
}

// ClampLevel clamps level to [MinLevel, MaxLevel].
func ClampLevel(level int) int {
	return max(MinLevel, min(level, MaxLevel))
}

// ClampExperience clamps experience to [MinExperience, MaxExperience].
func ClampExperience(experience int) int {
	return max(MinExperience, min(experience, MaxExperience))
}

// Clamped returns p with both fields in range.
func (p Progress) Clamped() Progress {
	return Progress{Level: ClampLevel(p.Level), Experience: ClampExperience(p.Experience)}
}

// DefaultProgress is the progress of a never-trained skill.
func DefaultProgress() Progress {
	return Progress{Level: ClampLevel(DefaultLevel), Experience: DefaultExperience}
}

// Record — навыки одного аккаунта.
// UpdatedAt is informational only; nothing uses it to decide staleness.
type Record struct {
	AccountID int64            `json:"userid"`
	Skills    map[Key]Progress `json:"skills"`
	UpdatedAt *time.Time       `json:"updated_at"`
}

// DefaultRecord returns an in-memory record with default progress for every registered skill.
func DefaultRecord(reg *Registry, accountID int64) Record {
	skills := make(map[Key]Progress, reg.Len())
	for _, d := range reg.defs {
		skills[d.Key] = DefaultProgress()
	}
	return Record{AccountID: accountID, Skills: skills}
}

// Clone returns a deep copy; handing it out keeps callers from mutating a cached record.
func (r Record) Clone() Record {
	out := Record{AccountID: r.AccountID, Skills: maps.Clone(r.Skills)}
	if r.UpdatedAt != nil {
		t := *r.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Progress returns stored progress for key.
func (r Record) Progress(key Key) (Progress, bool) {
	p, ok := r.Skills[key]
	return p, ok
}
