package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elskow/gatekeep/internal/database"
)

const accountKeyPrefix = "account:"

type redisDocument struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"password"`
	LoginAttempts int        `json:"loginAttempts"`
	LockUntil     *time.Time `json:"lockUntil"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// RedisStore keeps each account as a JSON document under account:<email>.
// The key itself makes emails unique; conditional saves use WATCH.
type RedisStore struct {
	conn *database.Lazy[*redis.Client]
}

func NewRedisStore(conn *database.Lazy[*redis.Client]) *RedisStore {
	return &RedisStore{conn: conn}
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	rdb, err := s.conn.Get(ctx)
	if err != nil {
		return nil, err
	}

	data, err := rdb.Get(ctx, accountKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return decodeRedisDocument(data)
}

func (s *RedisStore) Create(ctx context.Context, acc *Account) error {
	rdb, err := s.conn.Get(ctx)
	if err != nil {
		return err
	}

	prepareNew(acc, time.Now().UTC())
	payload, err := json.Marshal(redisDocumentFromAccount(acc))
	if err != nil {
		return err
	}

	created, err := rdb.SetNX(ctx, accountKey(acc.Email), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	if !created {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, acc *Account) error {
	rdb, err := s.conn.Get(ctx)
	if err != nil {
		return err
	}

	key := accountKey(acc.Email)
	now := time.Now().UTC()

	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrVersionConflict
			}
			return err
		}
		current, err := decodeRedisDocument(data)
		if err != nil {
			return err
		}
		if current.ID != acc.ID || current.Version != acc.Version {
			return ErrVersionConflict
		}

		next := acc.clone()
		next.Version++
		next.UpdatedAt = now
		payload, err := json.Marshal(redisDocumentFromAccount(next))
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		acc.Version++
		acc.UpdatedAt = now
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	case errors.Is(err, ErrVersionConflict):
		return err
	default:
		return fmt.Errorf("save account: %w", err)
	}
}

func accountKey(email string) string {
	return accountKeyPrefix + email
}

func decodeRedisDocument(data []byte) (*Account, error) {
	var doc redisDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &Account{
		ID:            doc.ID,
		Email:         doc.Email,
		Name:          doc.Name,
		PasswordHash:  doc.PasswordHash,
		LoginAttempts: doc.LoginAttempts,
		LockUntil:     doc.LockUntil,
		Version:       doc.Version,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

func redisDocumentFromAccount(acc *Account) redisDocument {
	return redisDocument{
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
