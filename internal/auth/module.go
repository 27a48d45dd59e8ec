package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/account"
	"github.com/elskow/gatekeep/internal/config"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			// Provide token manager
			fx.Annotate(
				func(config *config.AppConfig) *TokenManager {
					return NewTokenManager(config.Auth.JWTSecret, config.Auth.TokenExpiration, SystemClock)
				},
			),
			// Provide service
			fx.Annotate(
				func(config *config.AppConfig, log *zap.Logger, store account.Store, tokens *TokenManager) *Service {
					return NewService(&config.Auth, log.Named("auth"), store, tokens, SystemClock)
				},
			),
			// Provide middleware
			fx.Annotate(
				func(tokens *TokenManager) *AuthMiddleware {
					return NewAuthMiddleware(tokens)
				},
			),
		),
	)
}
