package skilldisplay

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/udisondev/skillstats/internal/hook"
	"github.com/udisondev/skillstats/internal/skill"
)

// Kind is the variant of an Override.
type Kind int

const (
	KindNone Kind = iota
	KindValueOnly
	KindLabelAndValue
)

// Override customizes one skill line. The zero value is NoOverride.
type Override struct {
	kind     Kind
	label    string
	value    string
	hasLabel bool
	hasValue bool
}

// NoOverride leaves the default label and value.
func NoOverride() Override { return Override{} }

// ValueOnly replaces the value; the label is untouched.
func ValueOnly(value string) Override {
	return Override{kind: KindValueOnly, value: value, hasValue: true}
}

// LabelAndValue is a structured override; nil fields are absent.
// A present non-empty label replaces the label; a present value always replaces the value,
// even when empty.
func LabelAndValue(label, value *string) Override {
	o := Override{kind: KindLabelAndValue}
	if label != nil {
		o.label, o.hasLabel = *label, true
	}
	if value != nil {
		o.value, o.hasValue = *value, true
	}
	return o
}

// Kind returns the variant.
func (o Override) Kind() Kind { return o.kind }

// Apply merges the override into the default label and value.
func (o Override) Apply(label, value string) (string, string) {
	switch o.kind {
	case KindValueOnly:
		value = o.value
	case KindLabelAndValue:
		if o.hasLabel && o.label != "" {
			label = o.label
		}
		if o.hasValue {
			value = o.value
		}
	}
	return label, value
}

func (o Override) String() string {
	switch o.kind {
	case KindValueOnly:
		return fmt.Sprintf("ValueOnly(%q)", o.value)
	case KindLabelAndValue:
		return fmt.Sprintf("LabelAndValue(label=%q/%t, value=%q/%t)", o.label, o.hasLabel, o.value, o.hasValue)
	}
	return "NoOverride"
}

// DecodeOverrides converts a loosely typed `skills` hook response into overrides.
// Anything that is not a mapping yields no overrides.
func DecodeOverrides(raw any) map[skill.Key]Override {
	out := make(map[skill.Key]Override)
	switch m := raw.(type) {
	case map[string]any:
		for k, v := range m {
			out[skill.Key(k)] = DecodeOverride(v)
		}
	case hook.Args:
		for k, v := range m {
			out[skill.Key(k)] = DecodeOverride(v)
		}
	case map[skill.Key]any:
		for k, v := range m {
			out[k] = DecodeOverride(v)
		}
	case map[skill.Key]Override:
		for k, v := range m {
			out[k] = v
		}
	case map[string]string:
		for k, v := range m {
			out[skill.Key(k)] = ValueOnly(v)
		}
	}
	return out
}

// DecodeOverride converts one provider entry: nil → NoOverride, a mapping → LabelAndValue,
// a list → NoOverride (it carries no label or value key), any other value → ValueOnly.
func DecodeOverride(v any) Override {
	switch x := v.(type) {
	case nil:
		return NoOverride()
	case Override:
		return x
	case map[string]any:
		return decodeStructured(x)
	case hook.Args:
		return decodeStructured(x)
	case map[string]string:
		m := make(map[string]any, len(x))
		for k, s := range x {
			m[k] = s
		}
		return decodeStructured(m)
	case []any, []string, []map[string]any:
		return NoOverride()
	}
	return ValueOnly(displayString(v))
}

func decodeStructured(m map[string]any) Override {
	var label, value *string
	if raw, ok := m["label"]; ok && raw != nil {
		if s, err := cast.ToStringE(raw); err == nil {
			label = &s
		}
	}
	if raw, ok := m["value"]; ok {
		s := displayString(raw)
		value = &s
	}
	return LabelAndValue(label, value)
}

func displayString(v any) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
