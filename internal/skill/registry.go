package skill

import (
	"fmt"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Key идентифицирует навык ("construction", "fishing", ...).
type Key string

// Definition описывает один навык каталога.
type Definition struct {
	Key         Key
	DisplayName string
}

// Column kinds stored per skill.
const (
	ColumnLevel      = "level"
	ColumnExperience = "experience"
)

// Column describes one persisted numeric column derived from the registry.
type Column struct {
	Name    string
	Skill   Key
	Kind    string // ColumnLevel | ColumnExperience
	Default int
}

// LevelColumn returns the persisted level column name for key.
func LevelColumn(key Key) string { return string(key) + "_" + ColumnLevel }

// ExperienceColumn returns the persisted experience column name for key.
func ExperienceColumn(key Key) string { return string(key) + "_" + ColumnExperience }

// Registry — неизменяемый упорядоченный каталог навыков.
// Порядок определяет порядок колонок в таблице, поэтому должен быть стабильным между рестартами.
type Registry struct {
	defs  []Definition
	index map[Key]int
}

// DefaultDefinitions returns the built-in skill catalog.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Key: "construction", DisplayName: "Construction"},
		{Key: "cooking", DisplayName: "Cooking"},
		{Key: "crafting", DisplayName: "Crafting"},
		{Key: "farming", DisplayName: "Farming"},
		{Key: "firemaking", DisplayName: "Firemaking"},
		{Key: "fishing", DisplayName: "Fishing"},
		{Key: "fletching", DisplayName: "Fletching"},
		{Key: "herblore", DisplayName: "Herblore"},
		{Key: "hunter", DisplayName: "Hunter"},
		{Key: "runecrafting", DisplayName: "Runecrafting"},
		{Key: "smithing", DisplayName: "Smithing"},
		{Key: "summoning", DisplayName: "Summoning"},
		{Key: "woodcutting", DisplayName: "Woodcutting"},
	}
}

// NewRegistry builds a registry sorted by key in natural, case-insensitive order.
// Keys must be unique and non-empty.
func NewRegistry(defs []Definition) (*Registry, error) {
	sorted := slices.Clone(defs)
	index := make(map[Key]int, len(sorted))
	for _, d := range sorted {
		if d.Key == "" {
			return nil, fmt.Errorf("skill with display name %q has empty key", d.DisplayName)
		}
		if _, dup := index[d.Key]; dup {
			return nil, fmt.Errorf("duplicate skill key %q", d.Key)
		}
		index[d.Key] = 0
	}

	col := collate.New(language.Und, collate.IgnoreCase, collate.Numeric)
	slices.SortStableFunc(sorted, func(a, b Definition) int {
		if c := col.CompareString(string(a.Key), string(b.Key)); c != 0 {
			return c
		}
		// Ключи, равные без учёта регистра, упорядочиваем побайтово для детерминизма.
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})

	for i, d := range sorted {
		index[d.Key] = i
	}
	return &Registry{defs: sorted, index: index}, nil
}

// MustNewRegistry is NewRegistry that panics on invalid definitions.
func MustNewRegistry(defs []Definition) *Registry {
	r, err := NewRegistry(defs)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the registry of the built-in catalog.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultDefinitions())
}

// List returns the ordered catalog. The returned slice is a copy.
func (r *Registry) List() []Definition {
	return slices.Clone(r.defs)
}

// Len returns number of registered skills.
func (r *Registry) Len() int { return len(r.defs) }

// Lookup returns the definition for key.
func (r *Registry) Lookup(key Key) (Definition, bool) {
	i, ok := r.index[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// Keys returns registered keys in registry order.
func (r *Registry) Keys() []Key {
	keys := make([]Key, len(r.defs))
	for i, d := range r.defs {
		keys[i] = d.Key
	}
	return keys
}

// Columns returns the persisted column set in registry order: level then experience per skill.
func (r *Registry) Columns() []Column {
	cols := make([]Column, 0, 2*len(r.defs))
	for _, d := range r.defs {
		cols = append(cols,
			Column{Name: LevelColumn(d.Key), Skill: d.Key, Kind: ColumnLevel, Default: DefaultLevel},
			Column{Name: ExperienceColumn(d.Key), Skill: d.Key, Kind: ColumnExperience, Default: DefaultExperience},
		)
	}
	return cols
}
