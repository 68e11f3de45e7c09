package middleware

import (
	"time"

	"github.com/fekuna/medequip-catalog-service/internal/auth"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/i18n"
	"github.com/fekuna/medequip-catalog-service/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestContext copies request id, acting user and locale from headers into
// the request context. A request id is generated when absent.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(auth.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(auth.RequestIDHeader, requestID)

		ctx := auth.WithRequestID(c.Request.Context(), requestID)
		if userID := c.GetHeader(auth.UserIDHeader); userID != "" {
			ctx = auth.WithUserID(ctx, userID)
		}
		ctx = i18n.WithLocale(ctx, c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs one line per request, at warn for 4xx and error for 5xx.
func RequestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("request_id", auth.GetRequestID(c.Request.Context())),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		msg := "HTTP request"
		switch {
		case status >= 500:
			log.Error(msg, fields...)
		case status >= 400:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it with a stack.
func Recovery(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if p := recover(); p != nil {
				log.Error("panic recovered",
					zap.String("request_id", auth.GetRequestID(c.Request.Context())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("error", p),
					zap.Stack("stacktrace"),
				)
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}
