package model

import "time"

// Account is the host identity entity skill records attach to.
type Account struct {
	ID           int64
	Login        string
	PasswordHash string
	CreatedAt    time.Time
}
