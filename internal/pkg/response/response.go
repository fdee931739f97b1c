package response

import (
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes carried in every error body next to the human
// message, so clients can branch without parsing prose.
const (
	CodeValidation      = "validation_error"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeBanned          = "user_banned"
	CodeNotFound        = "not_found"
	CodeDuplicate       = "duplicate_preset"
	CodeUnsupportedType = "unsupported_media_type"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal_error"
)

// Pagination metadata returned with paginated responses.
type Pagination struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	TotalPage   int   `json:"total_page"`
	Size        int   `json:"size"`
	HasNextPage bool  `json:"has_next_page"`
}

// pagedResponse is the envelope for paginated list responses.
type pagedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Paged sends a paginated response.
func Paged(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, pagedResponse{Data: data, Pagination: pagination})
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error body with a machine code and human message.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": 0, "code": code, "message": message})
}

// ErrorData sends an error body with additional payload fields merged in.
func ErrorData(c *gin.Context, status int, code, message string, extra gin.H) {
	body := gin.H{"ok": 0, "code": code, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest sends a 400 validation error with the specific reason verbatim.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeValidation, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

// Banned sends a 403 with the distinct banned-user code.
func Banned(c *gin.Context) {
	Error(c, http.StatusForbidden, CodeBanned, "your account is banned from submitting content")
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "not found"
	}
	Error(c, http.StatusNotFound, CodeNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, code, message string, extra gin.H) {
	ErrorData(c, http.StatusConflict, code, message, extra)
}

// UnsupportedMediaType sends a 415 error response.
func UnsupportedMediaType(c *gin.Context) {
	Error(c, http.StatusUnsupportedMediaType, CodeUnsupportedType, "request body must be application/json")
}

// TooManyRequests sends a 429 with remaining=0 and a Retry-After header.
func TooManyRequests(c *gin.Context, retryAfterSeconds int) {
	c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	ErrorData(c, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", gin.H{
		"remaining":   0,
		"retry_after": retryAfterSeconds,
	})
}

// InternalError sends a 500. The underlying error detail is surfaced only in
// development-like environments; production clients get a sanitized message.
func InternalError(c *gin.Context, err error) {
	msg := "internal server error"
	if gin.Mode() == gin.DebugMode && err != nil {
		msg = err.Error()
	}
	Error(c, http.StatusInternalServerError, CodeInternal, msg)
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}
