package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/api"
	"github.com/elskow/gatekeep/internal/auth"
)

// Authenticator is the login operation the resolver delegates to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type Resolver struct {
	auth Authenticator
	log  *zap.Logger
}

func NewResolver(authenticator Authenticator, log *zap.Logger) *Resolver {
	return &Resolver{
		auth: authenticator,
		log:  log,
	}
}

type loginArgs struct {
	Email    string
	Password string
}

func (r *Resolver) Login(ctx context.Context, args loginArgs) (*string, error) {
	token, err := r.auth.Login(ctx, args.Email, args.Password)
	if err != nil {
		return nil, r.publicError("login", err)
	}
	return &token, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	claims, err := auth.ClaimsFromContext(ctx)
	if err != nil {
		return nil, r.publicError("me", err)
	}
	return &userResolver{id: claims.AccountID, email: claims.Email}, nil
}

// publicError hides internal causes from the caller. The executor only
// copies extensions from the concrete error it receives, so the result must
// not be wrapped again.
func (r *Resolver) publicError(field string, err error) error {
	pub := api.Classify(err)
	if pub.Code == api.CodeInternal {
		r.log.Error("resolver failed", zap.String("field", field), zap.Error(err))
	}
	return pub
}

type userResolver struct {
	id    string
	email string
}

func (u *userResolver) ID() graphql.ID {
	return graphql.ID(u.id)
}

func (u *userResolver) Email() string {
	return u.email
}
