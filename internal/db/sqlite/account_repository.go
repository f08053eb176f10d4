package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/udisondev/skillstats/internal/db"
	"github.com/udisondev/skillstats/internal/model"
)

// AccountRepository works with the host accounts table on SQLite.
type AccountRepository struct {
	db    *sql.DB
	table string
}

// NewAccountRepository creates a repository for the given accounts table.
func NewAccountRepository(d *DB, table string) *AccountRepository {
	return &AccountRepository{db: d.sqlDB, table: quoteIdent(table)}
}

// CreateAccount inserts an account and returns its id.
func (r *AccountRepository) CreateAccount(ctx context.Context, login, password string) (int64, error) {
	login = strings.ToLower(login)
	hash, err := db.HashPassword(password)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO `+r.table+` (login, password) VALUES (?, ?)`, login, hash)
	if err != nil {
		return 0, fmt.Errorf("creating account %q: %w", login, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading id of account %q: %w", login, err)
	}
	return id, nil
}

// GetAccount returns the account by login, or nil, nil if it does not exist.
func (r *AccountRepository) GetAccount(ctx context.Context, login string) (*model.Account, error) {
	login = strings.ToLower(login)
	var acc model.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT acctid, login, password, created_at FROM `+r.table+` WHERE login = ?`, login,
	).Scan(&acc.ID, &acc.Login, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

// DeleteAccount removes the account; its skills row is removed by cascade.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE acctid = ?`, id); err != nil {
		return fmt.Errorf("deleting account %d: %w", id, err)
	}
	return nil
}
