package skill

import "fmt"

// SettingKey — имя настройки видимости навыка (enable_<key>).
type SettingKey string

// SettingKey returns the visibility setting name for the skill.
func (k Key) SettingKey() SettingKey {
	return SettingKey("enable_" + string(k))
}

// defaultVisible is the schema default of every enable_<key> setting.
const defaultVisible = true

// SettingsTitle groups the visibility settings in the host settings UI.
const SettingsTitle = "Skills Visibility"

// SettingType is the kind of a settings schema entry.
type SettingType string

const (
	SettingTitle SettingType = "title"
	SettingBool  SettingType = "bool"
)

// SettingDef is one entry of the configuration schema exposed to the host.
type SettingDef struct {
	Key     SettingKey
	Skill   Key // empty for the title entry
	Label   string
	Type    SettingType
	Default bool
}

// SettingsSchema returns the configuration schema: one title entry followed by
// one boolean per registered skill, enabled by default.
func SettingsSchema(reg *Registry) []SettingDef {
	defs := make([]SettingDef, 0, reg.Len()+1)
	defs = append(defs, SettingDef{Label: SettingsTitle, Type: SettingTitle})
	for _, d := range reg.defs {
		defs = append(defs, SettingDef{
			Key:     d.Key.SettingKey(),
			Skill:   d.Key,
			Label:   fmt.Sprintf("Show %s skill in character stats", d.DisplayName),
			Type:    SettingBool,
			Default: defaultVisible,
		})
	}
	return defs
}

// SettingsSource is the host configuration store.
// LookupSetting reports ok=false when the setting is not configured.
type SettingsSource interface {
	LookupSetting(key SettingKey) (value bool, ok bool)
}

// SettingsFunc adapts a function to SettingsSource.
type SettingsFunc func(key SettingKey) (bool, bool)

// LookupSetting implements SettingsSource.
func (f SettingsFunc) LookupSetting(key SettingKey) (bool, bool) { return f(key) }

// Visibility holds one boolean per registry entry, generated once from the registry.
type Visibility struct {
	enabled map[Key]bool
}

// NewVisibility resolves every registry entry against src.
// Settings missing from src take the schema default; a nil src yields schema defaults only.
func NewVisibility(reg *Registry, src SettingsSource) Visibility {
	enabled := make(map[Key]bool, reg.Len())
	for _, d := range reg.defs {
		v := defaultVisible
		if src != nil {
			if configured, ok := src.LookupSetting(d.Key.SettingKey()); ok {
				v = configured
			}
		}
		enabled[d.Key] = v
	}
	return Visibility{enabled: enabled}
}

// Enabled reports whether the skill is shown. Unknown keys are never shown.
func (v Visibility) Enabled(key Key) bool {
	return v.enabled[key]
}

// Filter derives the enabled subset of the registry.
type Filter struct {
	reg        *Registry
	visibility Visibility
}

// NewFilter creates a visibility filter.
func NewFilter(reg *Registry, visibility Visibility) *Filter {
	return &Filter{reg: reg, visibility: visibility}
}

// Enabled returns enabled skills in registry order.
func (f *Filter) Enabled() []Definition {
	out := make([]Definition, 0, len(f.reg.defs))
	for _, d := range f.reg.defs {
		if f.visibility.Enabled(d.Key) {
			out = append(out, d)
		}
	}
	return out
}
