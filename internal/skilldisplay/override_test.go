package skilldisplay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/skillstats/internal/hook"
	"github.com/udisondev/skillstats/internal/skill"
)

func ptr(s string) *string { return &s }

func TestOverride_Apply(t *testing.T) {
	tests := []struct {
		name      string
		o         Override
		wantLabel string
		wantValue string
	}{
		{name: "none", o: NoOverride(), wantLabel: "Construction", wantValue: "Level 1 (0 XP)"},
		{name: "zero value is none", o: Override{}, wantLabel: "Construction", wantValue: "Level 1 (0 XP)"},
		{name: "value only", o: ValueOnly("Custom Text"), wantLabel: "Construction", wantValue: "Custom Text"},
		{name: "empty bare value", o: ValueOnly(""), wantLabel: "Construction", wantValue: ""},
		{name: "structured value", o: LabelAndValue(nil, ptr("Master")), wantLabel: "Construction", wantValue: "Master"},
		{name: "structured label", o: LabelAndValue(ptr("Building"), nil), wantLabel: "Building", wantValue: "Level 1 (0 XP)"},
		{name: "both", o: LabelAndValue(ptr("Building"), ptr("42")), wantLabel: "Building", wantValue: "42"},
		{name: "empty label ignored", o: LabelAndValue(ptr(""), ptr("x")), wantLabel: "Construction", wantValue: "x"},
		{name: "present empty value applied", o: LabelAndValue(nil, ptr("")), wantLabel: "Construction", wantValue: ""},
		{name: "empty structure", o: LabelAndValue(nil, nil), wantLabel: "Construction", wantValue: "Level 1 (0 XP)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, value := tt.o.Apply("Construction", "Level 1 (0 XP)")
			assert.Equal(t, tt.wantLabel, label)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestDecodeOverride(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Override
	}{
		{name: "nil", in: nil, want: NoOverride()},
		{name: "bare string", in: "Custom Text", want: ValueOnly("Custom Text")},
		{name: "bare number", in: 12, want: ValueOnly("12")},
		{name: "typed override", in: ValueOnly("x"), want: ValueOnly("x")},
		{name: "value key", in: map[string]any{"value": "Master"}, want: LabelAndValue(nil, ptr("Master"))},
		{name: "label key", in: map[string]any{"label": "Building"}, want: LabelAndValue(ptr("Building"), nil)},
		{name: "null value is present", in: map[string]any{"value": nil}, want: LabelAndValue(nil, ptr(""))},
		{name: "null label is absent", in: map[string]any{"label": nil, "value": 5}, want: LabelAndValue(nil, ptr("5"))},
		{name: "hook args", in: hook.Args{"label": "L", "value": "V"}, want: LabelAndValue(ptr("L"), ptr("V"))},
		{name: "string map", in: map[string]string{"label": "L"}, want: LabelAndValue(ptr("L"), nil)},
		{name: "unknown keys only", in: map[string]any{"colour": "red"}, want: LabelAndValue(nil, nil)},
		{name: "list", in: []any{"a", "b"}, want: NoOverride()},
		{name: "string list", in: []string{"Master"}, want: NoOverride()},
		{name: "empty list", in: []any{}, want: NoOverride()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeOverride(tt.in))
		})
	}
}

func TestDecodeOverrides_NonMapping(t *testing.T) {
	for _, raw := range []any{nil, "text", 42, []any{"a"}, []string{"construction"}} {
		assert.Empty(t, DecodeOverrides(raw), "%#v", raw)
	}
}

func TestDecodeOverrides_Mapping(t *testing.T) {
	got := DecodeOverrides(map[string]any{
		"construction": map[string]any{"value": "Master"},
		"cooking":      "Chef",
		"fishing":      nil,
		"hunter":       []any{"a", "b"},
	})

	assert.Equal(t, map[skill.Key]Override{
		"construction": LabelAndValue(nil, ptr("Master")),
		"cooking":      ValueOnly("Chef"),
		"fishing":      NoOverride(),
		"hunter":       NoOverride(),
	}, got)

	label, value := got["hunter"].Apply("Hunter", "Level 3 (40 XP)")
	assert.Equal(t, "Hunter", label)
	assert.Equal(t, "Level 3 (40 XP)", value)
}

func TestOverride_String(t *testing.T) {
	assert.Equal(t, "NoOverride", NoOverride().String())
	assert.Equal(t, `ValueOnly("x")`, ValueOnly("x").String())
	assert.Contains(t, LabelAndValue(ptr("a"), nil).String(), "LabelAndValue")
}
