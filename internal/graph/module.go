package graph

import (
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/auth"
)

// maxQueryDepth bounds nesting; the schema itself is two levels deep.
const maxQueryDepth = 8

func NewSchema(resolver *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaString, resolver, graphql.MaxDepth(maxQueryDepth))
}

func NewHandler(schema *graphql.Schema) *relay.Handler {
	return &relay.Handler{Schema: schema}
}

// NewModule returns the GraphQL module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			func(service *auth.Service, log *zap.Logger) *Resolver {
				return NewResolver(service, log.Named("graph"))
			},
			NewSchema,
			NewHandler,
		),
	)
}
