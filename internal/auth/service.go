package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/elskow/gatekeep/internal/account"
	"github.com/elskow/gatekeep/internal/config"
)

// maxSaveAttempts bounds how often a login re-reads the account after losing
// a concurrent update.
const maxSaveAttempts = 3

type Service struct {
	config *config.AuthConfig
	log    *zap.Logger
	store  account.Store
	tokens *TokenManager
	clock  Clock
}

func NewService(config *config.AuthConfig, log *zap.Logger, store account.Store, tokens *TokenManager, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{
		config: config,
		log:    log,
		store:  store,
		tokens: tokens,
		clock:  clock,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	cost := s.config.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

func (s *Service) CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Login checks the credentials, applies the lockout policy and returns a
// signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	for attempt := 1; ; attempt++ {
		token, err := s.attemptLogin(ctx, email, password)
		if !errors.Is(err, account.ErrVersionConflict) {
			return token, err
		}
		if attempt == maxSaveAttempts {
			s.log.Error("giving up after repeated concurrent updates",
				zap.String("email", email),
				zap.Int("attempts", attempt))
			return "", fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		s.log.Debug("account changed during login, retrying",
			zap.String("email", email),
			zap.Int("attempt", attempt))
	}
}

func (s *Service) attemptLogin(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", s.persistenceError("failed to load account", email, err)
	}

	now := s.clock.Now()
	if user.IsLocked(now) {
		return "", ErrAccountLocked
	}

	if !s.CheckPasswordHash(password, user.PasswordHash) {
		locked := false
		user.LoginAttempts++
		if user.LoginAttempts >= s.config.MaxLoginAttempts {
			lockUntil := now.Add(s.config.LockDuration)
			user.LockUntil = &lockUntil
			user.LoginAttempts = 0
			locked = true
		}

		if err := s.store.Save(ctx, user); err != nil {
			if errors.Is(err, account.ErrVersionConflict) {
				return "", err
			}
			return "", s.persistenceError("failed to record failed login", email, err)
		}

		if locked {
			s.log.Warn("account locked after repeated failures",
				zap.String("account_id", user.ID),
				zap.Time("lock_until", *user.LockUntil))
		}
		return "", ErrInvalidCredentials
	}

	user.LoginAttempts = 0
	user.LockUntil = nil
	if err := s.store.Save(ctx, user); err != nil {
		if errors.Is(err, account.ErrVersionConflict) {
			return "", err
		}
		return "", s.persistenceError("failed to reset login attempts", email, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", err
	}

	s.log.Info("login succeeded", zap.String("account_id", user.ID))
	return token, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}

func (s *Service) persistenceError(msg, email string, err error) error {
	s.log.Error(msg, zap.String("email", email), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
