package logger

import "context"

// contextKey keeps this package's context values from colliding with others
type contextKey string

// RequestIDKey carries the request ID through context.Context so layers
// below the HTTP stack (gorm traces, pipeline steps) can correlate their
// log entries with the originating request.
const RequestIDKey contextKey = "request_id"

// WithRequestID attaches a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID returns the request ID carried by the context, or ""
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
