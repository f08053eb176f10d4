package testutil

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/udisondev/skillstats/internal/skill"
)

// ErrSimulated — ошибка для проверки fail-soft веток.
var ErrSimulated = errors.New("simulated storage failure")

// MockBackend — in-memory имплементация skill.Backend для unit тестов.
// Не требует реальной БД. Ошибки можно внедрять через поля *Err.
type MockBackend struct {
	mu          sync.Mutex
	provisioned bool
	columns     []skill.Column
	rows        map[int64]skill.Row

	// Error injection.
	TableErr  error
	SelectErr error
	InsertErr error
	UpdateErr error
	SchemaErr error

	// DropInserts makes InsertDefault succeed without storing anything.
	DropInserts bool

	// Call counters.
	SchemaCalls int
	TableCalls  int
	SelectCalls int
	InsertCalls int
	UpdateCalls int
}

// NewMockBackend создаёт MockBackend. provisioned задаёт, существует ли таблица.
func NewMockBackend(provisioned bool) *MockBackend {
	return &MockBackend{
		provisioned: provisioned,
		rows:        make(map[int64]skill.Row),
	}
}

// EnsureSchema marks the table provisioned.
func (m *MockBackend) EnsureSchema(ctx context.Context, columns []skill.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SchemaCalls++
	if m.SchemaErr != nil {
		return m.SchemaErr
	}
	m.provisioned = true
	m.columns = columns
	return nil
}

// TableExists reports the provisioned flag.
func (m *MockBackend) TableExists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TableCalls++
	if m.TableErr != nil {
		return false, m.TableErr
	}
	return m.provisioned, nil
}

// SelectRow returns a copy of the stored row.
func (m *MockBackend) SelectRow(ctx context.Context, accountID int64) (skill.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SelectCalls++
	if m.SelectErr != nil {
		return nil, m.SelectErr
	}
	row, ok := m.rows[accountID]
	if !ok {
		return nil, nil
	}
	return maps.Clone(row), nil
}

// InsertDefault stores a default row unless one exists.
func (m *MockBackend) InsertDefault(ctx context.Context, accountID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if !m.provisioned {
		return fmt.Errorf("table does not exist")
	}
	if _, ok := m.rows[accountID]; ok || m.DropInserts {
		return nil
	}
	row := skill.Row{"userid": accountID, "updated_at": time.Now()}
	for _, c := range m.columns {
		row[c.Name] = c.Default
	}
	m.rows[accountID] = row
	return nil
}

// UpdateRow overwrites columns of an existing row.
func (m *MockBackend) UpdateRow(ctx context.Context, accountID int64, values map[string]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	row, ok := m.rows[accountID]
	if !ok {
		return fmt.Errorf("row %d not found", accountID)
	}
	for k, v := range values {
		row[k] = v
	}
	row["updated_at"] = time.Now()
	return nil
}

// PutRow stores a raw row as if it had been edited directly in the database.
func (m *MockBackend) PutRow(accountID int64, row skill.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[accountID] = maps.Clone(row)
}

// RowCount returns number of stored rows.
func (m *MockBackend) RowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
