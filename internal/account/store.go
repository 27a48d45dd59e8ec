package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrVersionConflict = errors.New("account was modified concurrently")
)

// Store persists accounts keyed by email.
//
// Save is a conditional write: it succeeds only if the stored record still
// has acc.Version, increments acc.Version on success and returns
// ErrVersionConflict otherwise.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	Create(ctx context.Context, acc *Account) error
	Save(ctx context.Context, acc *Account) error
}

// prepareNew fills the fields every backend assigns on creation.
func prepareNew(acc *Account, now time.Time) {
	if acc.ID == "" {
		acc.ID = uuid.NewString()
	}
	acc.LoginAttempts = 0
	acc.LockUntil = nil
	acc.Version = 1
	acc.CreatedAt = now
	acc.UpdatedAt = now
}
