package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/udisondev/skillstats/internal/model"
)

// AccountRepository работает с host-таблицей accounts в PostgreSQL.
type AccountRepository struct {
	pool  *pgxpool.Pool
	table string
}

// NewAccountRepository создаёт новый repository. table — имя таблицы аккаунтов.
func NewAccountRepository(pool *pgxpool.Pool, table string) *AccountRepository {
	return &AccountRepository{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// HashPassword hashes a password with bcrypt. An empty password stays empty.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// CreateAccount создаёт аккаунт и возвращает его id.
func (r *AccountRepository) CreateAccount(ctx context.Context, login, password string) (int64, error) {
	login = strings.ToLower(login)
	hash, err := HashPassword(password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO `+r.table+` (login, password) VALUES ($1, $2) RETURNING acctid`,
		login, hash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating account %q: %w", login, err)
	}
	return id, nil
}

// GetAccount возвращает аккаунт по логину.
// Возвращает nil, nil если аккаунт не найден.
func (r *AccountRepository) GetAccount(ctx context.Context, login string) (*model.Account, error) {
	login = strings.ToLower(login)
	var acc model.Account
	err := r.pool.QueryRow(ctx,
		`SELECT acctid, login, password, created_at FROM `+r.table+` WHERE login = $1`, login,
	).Scan(&acc.ID, &acc.Login, &acc.PasswordHash, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying account %q: %w", login, err)
	}
	return &acc, nil
}

// DeleteAccount удаляет аккаунт; связанные строки навыков удаляются каскадно.
func (r *AccountRepository) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM `+r.table+` WHERE acctid = $1`, id); err != nil {
		return fmt.Errorf("deleting account %d: %w", id, err)
	}
	return nil
}
