package skilldisplay

import (
	"context"

	"github.com/udisondev/skillstats/internal/hook"
	"github.com/udisondev/skillstats/internal/skill"
)

// Provider resolves display overrides for the enabled skills of one record.
// How many providers are chained behind it is the host's concern.
type Provider interface {
	ResolveOverrides(ctx context.Context, enabled []skill.Key, rec skill.Record) (map[skill.Key]Override, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, enabled []skill.Key, rec skill.Record) (map[skill.Key]Override, error)

// ResolveOverrides implements Provider.
func (f ProviderFunc) ResolveOverrides(ctx context.Context, enabled []skill.Key, rec skill.Record) (map[skill.Key]Override, error) {
	return f(ctx, enabled, rec)
}

// Hook argument keys of the skilldisplay hook.
const (
	ArgSkills  = "skills"
	ArgEnabled = "enabled"
	ArgPlayer  = "player"
)

// HookProvider resolves overrides through the host's skilldisplay hook.
type HookProvider struct {
	hooks *hook.Dispatcher
}

// NewHookProvider creates a provider backed by the dispatcher.
func NewHookProvider(hooks *hook.Dispatcher) *HookProvider {
	return &HookProvider{hooks: hooks}
}

// ResolveOverrides calls the skilldisplay hook once with {skills: {}, enabled, player}
// and decodes the `skills` mapping of the result. Handlers get a copy of rec.
func (p *HookProvider) ResolveOverrides(ctx context.Context, enabled []skill.Key, rec skill.Record) (map[skill.Key]Override, error) {
	keys := make([]string, len(enabled))
	for i, k := range enabled {
		keys[i] = string(k)
	}

	out := p.hooks.Call(ctx, hook.SkillDisplay, hook.Args{
		ArgSkills:  map[string]any{},
		ArgEnabled: keys,
		ArgPlayer:  rec.Clone(), // handler не должен менять запись кэша
	})
	if out == nil {
		return nil, nil
	}
	return DecodeOverrides(out[ArgSkills]), nil
}

// SetOverride records an override for key in skilldisplay hook arguments.
// Handlers use it to add entries to the `skills` mapping regardless of its current shape.
func SetOverride(args hook.Args, key skill.Key, o Override) {
	m, ok := args[ArgSkills].(map[string]any)
	if !ok {
		m = make(map[string]any)
		for k, v := range DecodeOverrides(args[ArgSkills]) {
			m[string(k)] = v
		}
		args[ArgSkills] = m
	}
	m[string(key)] = o
}

// StaticHandler returns a skilldisplay hook handler that applies fixed overrides,
// e.g. ones configured by the operator.
func StaticHandler(overrides map[skill.Key]Override) hook.Handler {
	return func(_ context.Context, args hook.Args) hook.Args {
		if args == nil {
			args = hook.Args{}
		}
		for key, o := range overrides {
			if o.Kind() == KindNone {
				continue
			}
			SetOverride(args, key, o)
		}
		return args
	}
}
