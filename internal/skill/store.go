package skill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is one raw stored row: column name → driver value.
type Row map[string]any

// Backend is the storage driver behind Store.
// Implementations: db.SkillRepository (PostgreSQL) and sqlite.SkillRepository.
type Backend interface {
	// EnsureSchema creates the skills table if absent. Must be idempotent.
	EnsureSchema(ctx context.Context, columns []Column) error
	// TableExists reports whether the skills table is provisioned.
	TableExists(ctx context.Context) (bool, error)
	// SelectRow returns the row for accountID, or nil, nil if there is none.
	SelectRow(ctx context.Context, accountID int64) (Row, error)
	// InsertDefault inserts a default row; a concurrent duplicate is a no-op.
	InsertDefault(ctx context.Context, accountID int64) error
	// UpdateRow sets the given columns for an existing row.
	UpdateRow(ctx context.Context, accountID int64, values map[string]int) error
}

// Store владеет персистентными записями навыков.
// Чтение никогда не возвращает ошибку: при любой проблеме хранилища отдаются значения по умолчанию.
type Store struct {
	backend Backend
	reg     *Registry
}

// NewStore creates a record store.
func NewStore(reg *Registry, backend Backend) *Store {
	return &Store{backend: backend, reg: reg}
}

// Registry returns the registry the store was built for.
func (s *Store) Registry() *Registry { return s.reg }

// EnsureSchema provisions the skills table. Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.backend.EnsureSchema(ctx, s.reg.Columns()); err != nil {
		return fmt.Errorf("ensuring skills schema: %w", err)
	}
	return nil
}

// Load returns the normalized record for accountID, creating the default row lazily.
func (s *Store) Load(ctx context.Context, accountID int64) Record {
	if accountID <= 0 {
		return DefaultRecord(s.reg, accountID)
	}

	exists, err := s.backend.TableExists(ctx)
	if err != nil {
		slog.Warn("checking skills table", "accountID", accountID, "error", err)
		return DefaultRecord(s.reg, accountID)
	}
	if !exists {
		slog.Debug("skills table not provisioned, using defaults", "accountID", accountID)
		return DefaultRecord(s.reg, accountID)
	}

	row := s.selectRow(ctx, accountID)
	if row == nil {
		if err := s.backend.InsertDefault(ctx, accountID); err != nil {
			slog.Warn("creating default skills row", "accountID", accountID, "error", err)
		}
		row = s.selectRow(ctx, accountID)
	}
	if row == nil {
		return DefaultRecord(s.reg, accountID)
	}

	return Normalize(s.reg, row, accountID)
}

// selectRow treats a failed read as an absent row.
func (s *Store) selectRow(ctx context.Context, accountID int64) Row {
	row, err := s.backend.SelectRow(ctx, accountID)
	if err != nil {
		slog.Warn("reading skills row", "accountID", accountID, "error", err)
		return nil
	}
	return row
}

// CreateIfMissing inserts the default row for accountID unless it already exists.
// Non-positive ids and an unprovisioned table are silently ignored.
func (s *Store) CreateIfMissing(ctx context.Context, accountID int64) error {
	if accountID <= 0 {
		return nil
	}

	exists, err := s.backend.TableExists(ctx)
	if err != nil {
		return fmt.Errorf("checking skills table: %w", err)
	}
	if !exists {
		return nil
	}

	if err := s.backend.InsertDefault(ctx, accountID); err != nil {
		return fmt.Errorf("inserting default skills row for account %d: %w", accountID, err)
	}
	return nil
}

// Save persists every skill of rec, clamped to valid ranges.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.AccountID <= 0 {
		return fmt.Errorf("saving skills: %w: %d", ErrInvalidAccount, rec.AccountID)
	}

	values := make(map[string]int, 2*len(rec.Skills))
	for key, p := range rec.Skills {
		if _, ok := s.reg.Lookup(key); !ok {
			return fmt.Errorf("saving skills for account %d: %w: %q", rec.AccountID, ErrUnknownSkill, key)
		}
		p = p.Clamped()
		values[LevelColumn(key)] = p.Level
		values[ExperienceColumn(key)] = p.Experience
	}

	return s.write(ctx, rec.AccountID, values)
}

// SetProgress persists one skill of accountID, clamped to valid ranges.
func (s *Store) SetProgress(ctx context.Context, accountID int64, key Key, p Progress) error {
	if accountID <= 0 {
		return fmt.Errorf("setting %s: %w: %d", key, ErrInvalidAccount, accountID)
	}
	if _, ok := s.reg.Lookup(key); !ok {
		return fmt.Errorf("setting progress for account %d: %w: %q", accountID, ErrUnknownSkill, key)
	}

	p = p.Clamped()
	return s.write(ctx, accountID, map[string]int{
		LevelColumn(key):      p.Level,
		ExperienceColumn(key): p.Experience,
	})
}

func (s *Store) write(ctx context.Context, accountID int64, values map[string]int) error {
	if err := s.backend.InsertDefault(ctx, accountID); err != nil {
		return fmt.Errorf("inserting default skills row for account %d: %w", accountID, err)
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.backend.UpdateRow(ctx, accountID, values); err != nil {
		return fmt.Errorf("updating skills for account %d: %w", accountID, err)
	}
	slog.Debug("skills saved", "accountID", accountID, "columns", len(values))
	return nil
}

// Normalize converts a raw row into a Record.
// Values are coerced to integers and clamped; missing columns keep defaults, extra columns are ignored.
func Normalize(reg *Registry, row Row, accountID int64) Record {
	rec := DefaultRecord(reg, accountID)
	if row == nil {
		return rec
	}

	for _, d := range reg.defs {
		p := rec.Skills[d.Key]
		if v, ok := row[LevelColumn(d.Key)]; ok {
			p.Level = ClampLevel(toInt(v))
		}
		if v, ok := row[ExperienceColumn(d.Key)]; ok {
			p.Experience = ClampExperience(toInt(v))
		}
		rec.Skills[d.Key] = p
	}

	if v, ok := row["updated_at"]; ok && v != nil {
		if t, err := cast.ToTimeE(v); err == nil {
			rec.UpdatedAt = &t
		}
	}

	return rec
}

// toInt приводит значение драйвера к целому; нераспознанное значение даёт 0.
// Values outside the int range saturate, so clamping still picks the right bound.
func toInt(v any) int {
	switch x := v.(type) {
	case []byte:
		return parseIntString(string(x))
	case string:
		return parseIntString(x)
	case time.Time:
		return 0
	case float64:
		return saturateFloat(x)
	case float32:
		return saturateFloat(float64(x))
	case uint64:
		return saturateUint(x)
	case uint:
		return saturateUint(uint64(x))
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return 0
	}
	return int(n)
}

// parseIntString parses decimal text, truncating a fractional part ("12.7" → 12).
func parseIntString(s string) int {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 0)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		// при ErrRange ParseInt уже вернул MaxInt/MinInt по знаку
		return int(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		return saturateFloat(f)
	}
	return 0
}

func saturateFloat(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func saturateUint(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}
