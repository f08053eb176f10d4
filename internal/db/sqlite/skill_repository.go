package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/udisondev/skillstats/internal/skill"
)

// SkillRepository implements skill.Backend on SQLite.
type SkillRepository struct {
	db       *sql.DB
	name     string
	table    string
	accounts string
}

var _ skill.Backend = (*SkillRepository)(nil)

// NewSkillRepository creates a repository for the given table names.
func NewSkillRepository(d *DB, table, accountsTable string) *SkillRepository {
	return &SkillRepository{
		db:       d.sqlDB,
		name:     table,
		table:    quoteIdent(table),
		accounts: quoteIdent(accountsTable),
	}
}

// EnsureSchema creates the table if absent, adds missing skill columns and the updated_at trigger.
func (r *SkillRepository) EnsureSchema(ctx context.Context, columns []skill.Column) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, r.createTableSQL(columns)); err != nil {
		return fmt.Errorf("creating table %s: %w", r.name, err)
	}

	existing, err := tableColumns(ctx, tx, r.name)
	if err != nil {
		return err
	}
	for _, c := range columns {
		if existing[c.Name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `ALTER TABLE `+r.table+` ADD COLUMN `+columnDDL(c)); err != nil {
			return fmt.Errorf("adding column %s: %w", c.Name, err)
		}
	}

	trigger := `CREATE TRIGGER IF NOT EXISTS ` + quoteIdent(r.name+"_touch_updated_at") +
		` AFTER UPDATE ON ` + r.table + ` FOR EACH ROW WHEN NEW.updated_at = OLD.updated_at
BEGIN
	UPDATE ` + r.table + ` SET updated_at = CURRENT_TIMESTAMP WHERE userid = NEW.userid;
END`
	if _, err := tx.ExecContext(ctx, trigger); err != nil {
		return fmt.Errorf("creating updated_at trigger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

func (r *SkillRepository) createTableSQL(columns []skill.Column) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(r.table)
	b.WriteString(" (\n\tuserid INTEGER NOT NULL PRIMARY KEY")
	for _, c := range columns {
		b.WriteString(",\n\t")
		b.WriteString(columnDDL(c))
	}
	b.WriteString(",\n\tupdated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP")
	fmt.Fprintf(&b, ",\n\tCONSTRAINT %s FOREIGN KEY (userid) REFERENCES %s (acctid) ON DELETE CASCADE\n)",
		quoteIdent("fk_"+r.name+"_userid"), r.accounts)
	return b.String()
}

func columnDDL(c skill.Column) string {
	col := quoteIdent(c.Name)
	return fmt.Sprintf("%s INTEGER NOT NULL DEFAULT %d CHECK (%s >= 0)", col, c.Default, col)
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning column name: %w", err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating columns of %s: %w", table, err)
	}
	return cols, nil
}

// TableExists reports whether the skills table exists.
func (r *SkillRepository) TableExists(ctx context.Context) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, r.name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", r.name, err)
	}
	return n > 0, nil
}

// SelectRow returns the raw row of the account, or nil, nil if absent.
func (r *SkillRepository) SelectRow(ctx context.Context, accountID int64) (skill.Row, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT * FROM `+r.table+` WHERE userid = ?`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying skills for account %d: %w", accountID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading skills for account %d: %w", accountID, err)
		}
		return nil, nil
	}

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading column names: %w", err)
	}
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning skills row for account %d: %w", accountID, err)
	}

	row := make(skill.Row, len(names))
	for i, name := range names {
		row[name] = values[i]
	}
	return row, nil
}

// InsertDefault inserts a default row; an existing row is left untouched.
func (r *SkillRepository) InsertDefault(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (userid) VALUES (?) ON CONFLICT (userid) DO NOTHING`, accountID)
	if err != nil {
		return fmt.Errorf("inserting skills row for account %d: %w", accountID, err)
	}
	return nil
}

// UpdateRow sets the given columns.
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
	for i, name := range names {
		sets[i] = quoteIdent(name) + " = ?"
		args = append(args, values[name])
	}
	args = append(args, accountID)

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+r.table+` SET `+strings.Join(sets, ", ")+` WHERE userid = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating skills for account %d: %w", accountID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating skills for account %d: row not found", accountID)
	}
	return nil
}
