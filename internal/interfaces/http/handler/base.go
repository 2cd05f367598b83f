package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stockbridge/backend/internal/domain/channel"
	"github.com/stockbridge/backend/internal/domain/shared"
	"github.com/stockbridge/backend/internal/interfaces/http/dto"
	"github.com/stockbridge/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// getSellerID extracts the seller ID set by the seller middleware, falling
// back to the X-Seller-ID header when the middleware is not installed
func getSellerID(c *gin.Context) (uuid.UUID, error) {
	if id, ok := middleware.GetSellerID(c); ok {
		return id, nil
	}
	raw := c.GetHeader(middleware.SellerHeaderKey)
	if raw == "" {
		return uuid.Nil, errors.New("seller ID not found in context")
	}
	return uuid.Parse(raw)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// UnprocessableEntity sends a 422 unprocessable entity response
func (h *BaseHandler) UnprocessableEntity(c *gin.Context, code, message string) {
	h.Error(c, http.StatusUnprocessableEntity, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// sentinelCodes maps channel sentinel errors to API error codes. Ordering
// matters: more specific sentinels come before generic ones.
var sentinelCodes = []struct {
	target error
	code   string
}{
	{channel.ErrCredentialNotFound, dto.ErrCodeNotFound},
	{channel.ErrListingRecordNotFound, dto.ErrCodeNotFound},
	{channel.ErrOrderNotFound, dto.ErrCodeNotFound},
	{channel.ErrListingNotDisconnected, dto.ErrCodeInvalidState},
	{channel.ErrCredentialRevoked, dto.ErrCodeCredentialRevoked},
	{channel.ErrAuthExpired, dto.ErrCodeCredentialExpired},
	{channel.ErrPlatformNotConfigured, dto.ErrCodePlatformNotConfigured},
	{channel.ErrInvalidPlatformCode, dto.ErrCodeInvalidInput},
	{channel.ErrPlatformRateLimited, dto.ErrCodePlatformUnavailable},
	{channel.ErrPlatformUnavailable, dto.ErrCodePlatformUnavailable},
}

// HandleError converts domain and channel errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	for _, m := range sentinelCodes {
		if errors.Is(err, m.target) {
			h.Error(c, dto.GetHTTPStatus(m.code), m.code, err.Error())
			return
		}
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
