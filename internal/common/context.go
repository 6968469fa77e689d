package common

import (
	"context"
)

type contextKey string

const (
	contextKeyRequestID  contextKey = "request_id"
	contextKeyDocumentID contextKey = "document_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithDocumentID adds a document ID to the context, so log lines deep in
// the pipeline can name the document without threading the ID explicitly.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, contextKeyDocumentID, documentID)
}

// DocumentIDFromContext extracts the document ID from context
func DocumentIDFromContext(ctx context.Context) string {
	if documentID, ok := ctx.Value(contextKeyDocumentID).(string); ok {
		return documentID
	}
	return ""
}
