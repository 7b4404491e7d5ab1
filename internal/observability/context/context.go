// Package context carries request-scoped correlation values.
package context

import (
	stdcontext "context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	quoteIDKey
)

func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithQuoteID tags the context with the quote being edited.
func WithQuoteID(ctx stdcontext.Context, quoteID string) stdcontext.Context {
	quoteID = strings.TrimSpace(quoteID)
	if quoteID == "" {
		return ctx
	}
	return stdcontext.WithValue(ctx, quoteIDKey, quoteID)
}

func QuoteIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(quoteIDKey).(string)
	return v
}
