package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "go-ultrasound-inspector/internal/errors"
	"go-ultrasound-inspector/internal/logger"
	"go-ultrasound-inspector/pkg/models"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID reuses a well-formed incoming X-Request-ID or assigns a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"request_id":  getRequestID(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.WithFields(fields).Warn("Request completed with server error")
			return
		}
		logger.WithFields(fields).Info("Request completed")
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// errorHandler renders errors attached with c.Error by handlers that did not respond themselves
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), apperrors.GetMessage(err, "request processing failed"), err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// isTooLarge reports whether err came from the body size limit
func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

// wantsHTML reports whether the route renders HTML views instead of JSON
func wantsHTML(c *gin.Context) bool {
	return !strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func respondError(c *gin.Context, code int, message string, err error) {
	entry := logger.WithFields(logrus.Fields{
		"request_id":  getRequestID(c),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	if wantsHTML(c) {
		c.HTML(code, "error.html", gin.H{
			"message":    message,
			"request_id": getRequestID(c),
		})
		c.Abort()
		return
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:     http.StatusText(code),
		Message:   message,
		RequestID: getRequestID(c),
	})
}
