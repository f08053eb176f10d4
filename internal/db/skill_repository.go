package db

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/skillstats/internal/skill"
)

// SkillRepository хранит записи навыков в PostgreSQL: одна строка на аккаунт,
// по две колонки на навык. Реализует skill.Backend.
type SkillRepository struct {
	pool     *pgxpool.Pool
	name     string // raw table name
	table    string // sanitized
	accounts string // sanitized
}

var _ skill.Backend = (*SkillRepository)(nil)

// NewSkillRepository создаёт новый SkillRepository.
func NewSkillRepository(pool *pgxpool.Pool, table, accountsTable string) *SkillRepository {
	return &SkillRepository{
		pool:     pool,
		name:     table,
		table:    pgx.Identifier{table}.Sanitize(),
		accounts: pgx.Identifier{accountsTable}.Sanitize(),
	}
}

// EnsureSchema creates the table (create-if-absent), adds columns of newly registered
// skills and installs the updated_at trigger. Safe to run on every startup.
func (r *SkillRepository) EnsureSchema(ctx context.Context, columns []skill.Column) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if _, err := tx.Exec(ctx, r.createTableSQL(columns)); err != nil {
		return fmt.Errorf("creating table %s: %w", r.name, err)
	}

	for _, c := range columns {
		if _, err := tx.Exec(ctx, `ALTER TABLE `+r.table+` ADD COLUMN IF NOT EXISTS `+columnDDL(c)); err != nil {
			return fmt.Errorf("adding column %s: %w", c.Name, err)
		}
	}

	fn := pgx.Identifier{r.name + "_touch_updated_at"}.Sanitize()
	touch := `CREATE OR REPLACE FUNCTION ` + fn + `() RETURNS trigger AS $$
BEGIN
	NEW.updated_at = now();
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`
	if _, err := tx.Exec(ctx, touch); err != nil {
		return fmt.Errorf("creating updated_at function: %w", err)
	}

	trigger := `CREATE OR REPLACE TRIGGER ` + fn + ` BEFORE UPDATE ON ` + r.table +
		` FOR EACH ROW EXECUTE FUNCTION ` + fn + `()`
	if _, err := tx.Exec(ctx, trigger); err != nil {
		return fmt.Errorf("creating updated_at trigger: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

func (r *SkillRepository) createTableSQL(columns []skill.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(r.table)
	b.WriteString(" (\n\tuserid BIGINT NOT NULL")
	for _, c := range columns {
		b.WriteString(",\n\t")
		b.WriteString(columnDDL(c))
	}
	b.WriteString(",\n\tupdated_at TIMESTAMPTZ NOT NULL DEFAULT now()")
	b.WriteString(",\n\tPRIMARY KEY (userid)")
	fmt.Fprintf(&b, ",\n\tCONSTRAINT %s FOREIGN KEY (userid) REFERENCES %s (acctid) ON DELETE CASCADE\n)",
		pgx.Identifier{"fk_" + r.name + "_userid"}.Sanitize(), r.accounts)
	return b.String()
}

// columnDDL: level — SMALLINT, experience — INTEGER; оба неотрицательные.
func columnDDL(c skill.Column) string {
	col := pgx.Identifier{c.Name}.Sanitize()
	typ := "INTEGER"
	if c.Kind == skill.ColumnLevel {
		typ = "SMALLINT"
	}
	return fmt.Sprintf("%s %s NOT NULL DEFAULT %d CHECK (%s >= 0)", col, typ, c.Default, col)
}

// TableExists reports whether the skills table exists in the current schema.
func (r *SkillRepository) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, r.name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", r.name, err)
	}
	return exists, nil
}

// SelectRow returns the raw row of the account, or nil, nil if absent.
func (r *SkillRepository) SelectRow(ctx context.Context, accountID int64) (skill.Row, error) {
	rows, err := r.pool.Query(ctx, `SELECT * FROM `+r.table+` WHERE userid = $1`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying skills for account %d: %w", accountID, err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning skills row for account %d: %w", accountID, err)
	}
	return skill.Row(row), nil
}

// InsertDefault вставляет строку со значениями по умолчанию.
// Thread-safe: ON CONFLICT DO NOTHING защищает от гонки параллельных вставок.
func (r *SkillRepository) InsertDefault(ctx context.Context, accountID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO `+r.table+` (userid) VALUES ($1) ON CONFLICT (userid) DO NOTHING`, accountID)
	if err != nil {
		return fmt.Errorf("inserting skills row for account %d: %w", accountID, err)
	}
	return nil
}

// UpdateRow sets the given columns. Columns are written in sorted order.
func (r *SkillRepository) UpdateRow(ctx context.Context, accountID int64, values map[string]int) error {
	if len(values) == 0 {
		return nil
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)

	sets := make([]string, len(names))
	args := make([]any, 0, len(names)+1)
	args = append(args, accountID)
	for i, name := range names {
		sets[i] = fmt.Sprintf("%s = $%d", pgx.Identifier{name}.Sanitize(), i+2)
		args = append(args, values[name])
	}

	query := `UPDATE ` + r.table + ` SET ` + strings.Join(sets, ", ") + ` WHERE userid = $1`
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating skills for account %d: %w", accountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating skills for account %d: row not found", accountID)
	}
	return nil
}
