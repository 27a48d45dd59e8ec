package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/graphql-go/relay"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/gatekeep/internal/api"
	"github.com/elskow/gatekeep/internal/auth"
	"github.com/elskow/gatekeep/internal/config"
)

type Server struct {
	config     *config.AppConfig
	log        *zap.Logger
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	GraphQL        *relay.Handler
	AuthMiddleware *auth.AuthMiddleware
}

func NewServer(p Params) (*Server, error) {
	if p.Config.Server.Mode != "" {
		gin.SetMode(p.Config.Server.Mode)
	}

	router := gin.New()
	// gin trusts every proxy unless told otherwise, which would let clients
	// choose their own rate-limit bucket through X-Forwarded-For.
	if err := router.SetTrustedProxies(p.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid server.trusted_proxies: %w", err)
	}
	router.Use(gin.Recovery(), requestLogger(p.Logger))

	if origins := p.Config.Server.AllowedOrigins; len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
		corsConfig.AllowHeaders = []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
		}
		router.Use(cors.New(corsConfig))
	}

	router.GET(api.HealthPath, handleHealth)

	graphqlChain := []gin.HandlerFunc{}
	if p.Config.RateLimit.RequestsPerSecond > 0 {
		limiter := newIPRateLimiter(p.Config.RateLimit.RequestsPerSecond, p.Config.RateLimit.Burst)
		graphqlChain = append(graphqlChain, rateLimit(limiter, p.Logger))
	}
	graphqlChain = append(graphqlChain,
		authenticate(p.AuthMiddleware, p.Logger),
		gin.WrapH(p.GraphQL),
	)
	router.POST(api.GraphQLPath, graphqlChain...)

	addr := net.JoinHostPort(p.Config.Server.Host, p.Config.Server.Port)
	return &Server{
		config: p.Config,
		log:    p.Logger,
		router: router,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  p.Config.Server.ReadTimeout,
			WriteTimeout: p.Config.Server.WriteTimeout,
		},
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the bound address once Start has returned.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Start binds the listen address and serves in the background. Bind errors
// are returned so that the application fails to start.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = lis

	s.log.Info("Starting HTTP server",
		zap.String("address", lis.Addr().String()),
		zap.Object("config", serverConfigToField(s.config)),
	)

	go func() {
		if err := s.httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped unexpectedly", zap.Error(err))
		}
	}()

	return nil
}

func serverConfigToField(config *config.AppConfig) zapcore.ObjectMarshaler {
	return zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("environment", config.Env)
		enc.AddString("mode", gin.Mode())
		enc.AddString("database_driver", config.Database.Driver)
		enc.AddBool("rate_limit_enabled", config.RateLimit.RequestsPerSecond > 0)
		enc.AddInt("allowed_origins", len(config.Server.AllowedOrigins))
		return nil
	})
}

// Stop drains in-flight requests until ctx ends or the shutdown timeout
// passes, whichever comes first.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	if timeout := s.config.Server.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.httpServer.Shutdown(ctx)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
