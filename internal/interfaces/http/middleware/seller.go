package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockbridge/backend/internal/infrastructure/logger"
	"github.com/stockbridge/backend/internal/interfaces/http/dto"
)

// Seller context keys
const (
	// SellerIDKey is the gin context key holding the authenticated seller ID
	SellerIDKey = "seller_id"
	// SellerHeaderKey is the header carrying the seller identity. Auth itself
	// is handled upstream; by the time a request reaches this service the
	// header is trusted.
	SellerHeaderKey = "X-Seller-ID"
)

// SellerMiddlewareConfig holds configuration for seller identity extraction
type SellerMiddlewareConfig struct {
	// SkipPaths are paths that don't require a seller context
	SkipPaths []string
	// Required determines if seller identity is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultSellerConfig returns default seller middleware configuration
func DefaultSellerConfig() SellerMiddlewareConfig {
	return SellerMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
		Required:  true,
		Logger:    nil,
	}
}

// SellerMiddleware extracts the seller identity from the X-Seller-ID header
func SellerMiddleware() gin.HandlerFunc {
	return SellerMiddlewareWithConfig(DefaultSellerConfig())
}

// SellerMiddlewareWithConfig returns seller middleware with custom configuration
func SellerMiddlewareWithConfig(cfg SellerMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(SellerHeaderKey)
		if raw == "" {
			if cfg.Required {
				abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "seller identity required")
				return
			}
			c.Next()
			return
		}

		sellerID, err := uuid.Parse(raw)
		if err != nil || sellerID == uuid.Nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("rejected malformed seller ID",
					zap.String("path", path),
					zap.String("seller_header", raw),
				)
			}
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "malformed seller ID")
			return
		}

		c.Set(SellerIDKey, sellerID)

		// Downstream log lines pick the seller up from the request context
		ctx, _ := logger.WithSellerID(c.Request.Context(), logger.FromContext(c.Request.Context()), sellerID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetSellerID returns the seller ID set by SellerMiddleware
func GetSellerID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(SellerIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func abortWithError(c *gin.Context, status int, code, message string) {
	requestID := c.GetString("request_id")
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID))
}
