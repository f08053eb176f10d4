package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/udisondev/skillstats/internal/config"
	"github.com/udisondev/skillstats/internal/db"
	"github.com/udisondev/skillstats/internal/db/sqlite"
	"github.com/udisondev/skillstats/internal/html"
	"github.com/udisondev/skillstats/internal/model"
	"github.com/udisondev/skillstats/internal/skill"
	"github.com/udisondev/skillstats/internal/skilldisplay"
	"github.com/udisondev/skillstats/internal/skillmodule"
)

// accountStore is the host account table; both storage drivers implement it.
type accountStore interface {
	CreateAccount(ctx context.Context, login, password string) (int64, error)
	GetAccount(ctx context.Context, login string) (*model.Account, error)
}

// app is the wired runtime of one CLI invocation.
type app struct {
	module   *skillmodule.Module
	accounts accountStore
	close    func()
}

// openApp connects storage, applies host migrations and builds the module.
// The module is installed only when install is true.
func openApp(ctx context.Context, cfg config.Config, install bool) (*app, error) {
	backend, accounts, closeFn, err := openStorage(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	m, err := skillmodule.New(skillmodule.Options{
		Registry:  skill.DefaultRegistry(),
		Backend:   backend,
		Settings:  cfg.Skills,
		Overrides: staticOverrides(cfg.Skills.Overrides),
	})
	if err != nil {
		closeFn()
		return nil, fmt.Errorf("creating skills module: %w", err)
	}

	if install {
		if err := m.Install(ctx); err != nil {
			closeFn()
			return nil, err
		}
	}

	return &app{module: m, accounts: accounts, close: closeFn}, nil
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig) (skill.Backend, accountStore, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sdb, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}
		if cfg.Migrate {
			if err := sdb.RunMigrations(ctx); err != nil {
				_ = sdb.Close()
				return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
			}
			slog.Debug("database migrations applied", "driver", cfg.Driver)
		}
		closeFn := func() {
			if err := sdb.Close(); err != nil {
				slog.Warn("closing sqlite", "error", err)
			}
		}
		return sqlite.NewSkillRepository(sdb, cfg.SkillsTable, cfg.AccountsTable),
			sqlite.NewAccountRepository(sdb, cfg.AccountsTable),
			closeFn, nil

	default:
		database, err := db.New(ctx, cfg.DSN())
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, database.Pool()); err != nil {
				database.Close()
				return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
			}
			slog.Debug("database migrations applied", "driver", cfg.Driver)
		}
		return db.NewSkillRepository(database.Pool(), cfg.SkillsTable, cfg.AccountsTable),
			db.NewAccountRepository(database.Pool(), cfg.AccountsTable),
			database.Close, nil
	}
}

// staticOverrides converts configured overrides: value alone is ValueOnly,
// a label makes it LabelAndValue, neither is NoOverride.
func staticOverrides(raw map[string]config.OverrideConfig) map[skill.Key]skilldisplay.Override {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[skill.Key]skilldisplay.Override, len(raw))
	for key, o := range raw {
		switch {
		case o.Label != nil:
			out[skill.Key(key)] = skilldisplay.LabelAndValue(o.Label, o.Value)
		case o.Value != nil:
			out[skill.Key(key)] = skilldisplay.ValueOnly(*o.Value)
		default:
			out[skill.Key(key)] = skilldisplay.NoOverride()
		}
	}
	return out
}

// newTemplates builds the HTML template cache from cfg.HTMLDir.
func newTemplates(cfg config.Config) (*html.Cache, error) {
	cache, err := html.NewDirCache(cfg.HTMLDir, false)
	if err != nil {
		return nil, fmt.Errorf("loading html templates: %w", err)
	}
	return cache, nil
}
