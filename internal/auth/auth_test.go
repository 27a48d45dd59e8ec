package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/gatekeep/internal/account"
	"github.com/elskow/gatekeep/internal/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLogger(t *testing.T) *zap.Logger {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	return logger
}

func newTestConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:        "test-secret-key",
		TokenExpiration:  time.Hour,
		MaxLoginAttempts: 5,
		LockDuration:     5 * time.Minute,
		BcryptCost:       bcrypt.MinCost,
	}
}

func newTestService(t *testing.T, store account.Store, clock Clock) *Service {
	cfg := newTestConfig()
	return NewService(
		cfg,
		newTestLogger(t),
		store,
		NewTokenManager(cfg.JWTSecret, cfg.TokenExpiration, clock),
		clock,
	)
}

// seedAccount creates an account with the given password and then applies
// mutate, persisting the result.
func seedAccount(t *testing.T, svc *Service, store account.Store, email, password string, mutate func(*account.Account)) *account.Account {
	t.Helper()
	ctx := context.Background()

	hash, err := svc.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &account.Account{Email: email, PasswordHash: hash}))

	acc, err := store.FindByEmail(ctx, email)
	require.NoError(t, err)
	if mutate != nil {
		mutate(acc)
		require.NoError(t, store.Save(ctx, acc))
	}
	return acc
}

func loadAccount(t *testing.T, store account.Store, email string) *account.Account {
	t.Helper()
	acc, err := store.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return acc
}
