package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/elskow/gatekeep/internal/database"
)

type accountRecord struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	Email         string `gorm:"uniqueIndex;not null"`
	Name          string `gorm:"not null"`
	PasswordHash  string `gorm:"not null"`
	LoginAttempts int    `gorm:"not null"`
	LockUntil     *time.Time
	Version       int64 `gorm:"not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (accountRecord) TableName() string {
	return "accounts"
}

// GormStore keeps accounts in the postgres "accounts" table. The schema is
// owned by the goose migrations.
type GormStore struct {
	conn *database.Lazy[*gorm.DB]
}

func NewGormStore(conn *database.Lazy[*gorm.DB]) *GormStore {
	return &GormStore{conn: conn}
}

func (s *GormStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	db, err := s.conn.Get(ctx)
	if err != nil {
		return nil, err
	}

	var rec accountRecord
	if err := db.WithContext(ctx).Where("email = ?", email).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return rec.toAccount(), nil
}

func (s *GormStore) Create(ctx context.Context, acc *Account) error {
	db, err := s.conn.Get(ctx)
	if err != nil {
		return err
	}

	prepareNew(acc, time.Now().UTC())
	rec := recordFromAccount(acc)
	if err := db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, acc *Account) error {
	db, err := s.conn.Get(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result := db.WithContext(ctx).
		Model(&accountRecord{}).
		Where("id = ? AND version = ?", acc.ID, acc.Version).
		Updates(map[string]any{
			"login_attempts": acc.LoginAttempts,
			"lock_until":     acc.LockUntil,
			"version":        acc.Version + 1,
			"updated_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("save account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	acc.Version++
	acc.UpdatedAt = now
	return nil
}

func (r *accountRecord) toAccount() *Account {
	return &Account{
		ID:            r.ID,
		Email:         r.Email,
		Name:          r.Name,
		PasswordHash:  r.PasswordHash,
		LoginAttempts: r.LoginAttempts,
		LockUntil:     r.LockUntil,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func recordFromAccount(acc *Account) accountRecord {
	return accountRecord{
		ID:            acc.ID,
		Email:         acc.Email,
		Name:          acc.Name,
		PasswordHash:  acc.PasswordHash,
		LoginAttempts: acc.LoginAttempts,
		LockUntil:     acc.LockUntil,
		Version:       acc.Version,
		CreatedAt:     acc.CreatedAt,
		UpdatedAt:     acc.UpdatedAt,
	}
}
