// Package skillmodule wires the skills section into a host: schema provisioning,
// charstats registration, static display overrides and the account-created trigger.
package skillmodule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/skillstats/internal/charstats"
	"github.com/udisondev/skillstats/internal/hook"
	"github.com/udisondev/skillstats/internal/skill"
	"github.com/udisondev/skillstats/internal/skilldisplay"
)

// Module metadata.
const (
	ID          = "skills"
	Name        = "Skills Display Core"
	Version     = "1.4.0"
	Category    = "Skills"
	Description = "Provides a shared charstats section for player skill modules."
)

// Info describes the module to the host.
type Info struct {
	ID          string
	Name        string
	Version     string
	Category    string
	Description string
	Settings    []skill.SettingDef
}

// Options configures a Module. Registry and Backend are required.
type Options struct {
	Registry *skill.Registry
	Backend  skill.Backend

	// Settings resolves enable_<key>; nil means every skill is visible.
	Settings skill.SettingsSource

	// Host receives the skills section on Install; nil creates a private host.
	Host *charstats.Host
	// Hooks carries skilldisplay providers; nil creates a private dispatcher.
	Hooks *hook.Dispatcher

	// Overrides are registered as a skilldisplay handler on Install.
	Overrides map[skill.Key]skilldisplay.Override
}

// Module is the skills display module.
type Module struct {
	reg        *skill.Registry
	store      *skill.Store
	host       *charstats.Host
	hooks      *hook.Dispatcher
	compositor *skilldisplay.Compositor
	overrides  map[skill.Key]skilldisplay.Override

	mu        sync.Mutex
	installed bool
}

// New creates the module. Visibility is resolved once from opts.Settings.
func New(opts Options) (*Module, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("skill registry is required")
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("skill backend is required")
	}
	for key := range opts.Overrides {
		if _, ok := opts.Registry.Lookup(key); !ok {
			return nil, fmt.Errorf("override for %q: %w", key, skill.ErrUnknownSkill)
		}
	}

	host := opts.Host
	if host == nil {
		host = charstats.NewHost()
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = hook.NewDispatcher()
	}

	store := skill.NewStore(opts.Registry, opts.Backend)
	filter := skill.NewFilter(opts.Registry, skill.NewVisibility(opts.Registry, opts.Settings))

	return &Module{
		reg:        opts.Registry,
		store:      store,
		host:       host,
		hooks:      hooks,
		compositor: skilldisplay.NewCompositor(filter, store, skilldisplay.NewHookProvider(hooks)),
		overrides:  opts.Overrides,
	}, nil
}

// Describe returns the module metadata with the settings schema of reg.
func Describe(reg *skill.Registry) Info {
	return Info{
		ID:          ID,
		Name:        Name,
		Version:     Version,
		Category:    Category,
		Description: Description,
		Settings:    skill.SettingsSchema(reg),
	}
}

// Info returns the module metadata.
func (m *Module) Info() Info { return Describe(m.reg) }

// Store returns the record store.
func (m *Module) Store() *skill.Store { return m.store }

// Host returns the charstats host the section is registered with.
func (m *Module) Host() *charstats.Host { return m.host }

// Hooks returns the hook dispatcher used for skilldisplay providers.
func (m *Module) Hooks() *hook.Dispatcher { return m.hooks }

// Installed reports whether Install succeeded and Uninstall was not called since.
func (m *Module) Installed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.installed
}

// Install provisions the table and registers the skills section. Idempotent.
func (m *Module) Install(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("installing %s: %w", ID, err)
	}

	if m.installed {
		return nil
	}

	m.host.Register(m.compositor)
	if len(m.overrides) > 0 {
		m.hooks.Register(hook.SkillDisplay, ID, skilldisplay.StaticHandler(m.overrides))
	}
	m.installed = true

	slog.Info("module installed", "module", ID, "skills", m.reg.Len(), "overrides", len(m.overrides))
	return nil
}

// Uninstall removes the section and the module's hooks. Stored data is kept.
func (m *Module) Uninstall(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.host.Unregister(m.compositor.Name())
	m.hooks.Unregister(ID)
	m.installed = false

	slog.Info("module uninstalled", "module", ID)
	return nil
}

// OnAccountCreated creates the default skill row for a new account.
func (m *Module) OnAccountCreated(ctx context.Context, accountID int64) error {
	if err := m.store.CreateIfMissing(ctx, accountID); err != nil {
		return fmt.Errorf("creating skill row for account %d: %w", accountID, err)
	}
	return nil
}

// Render renders the charstats panel for a session (one processing context).
func (m *Module) Render(ctx context.Context, sess charstats.Session) *charstats.Panel {
	return m.host.Render(ctx, sess)
}
