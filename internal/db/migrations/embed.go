// Package migrations embeds goose migrations of the host tables, one directory per dialect.
// The skills table is not migrated here: its columns follow the skill registry and are
// provisioned by skill.Store.EnsureSchema.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Migration directories inside FS.
const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
