package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/api"
	"github.com/elskow/gatekeep/internal/auth"
)

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// authenticate attaches verified claims to the request context. A token that
// is present but fails verification rejects the whole request.
func authenticate(m *auth.AuthMiddleware, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !api.IsProtected(c.FullPath()) {
			c.Next()
			return
		}

		ctx, err := m.AuthenticationMiddleware(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			log.Warn("authentication failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			abortWithGraphQLError(c, api.Classify(err))
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func rateLimit(limiter *ipRateLimiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.allow(ip) {
			log.Warn("rate limit exceeded", zap.String("client_ip", ip))
			abortWithGraphQLError(c, &api.PublicError{
				Message: api.MsgRateLimited,
				Code:    api.CodeRateLimited,
				Status:  http.StatusTooManyRequests,
			})
			return
		}
		c.Next()
	}
}

// abortWithGraphQLError answers in the GraphQL response shape so clients can
// handle transport-level rejections like resolver errors.
func abortWithGraphQLError(c *gin.Context, pub *api.PublicError) {
	c.AbortWithStatusJSON(pub.Status, gin.H{
		"errors": []gin.H{{
			"message":    pub.Message,
			"extensions": pub.Extensions(),
		}},
	})
}
