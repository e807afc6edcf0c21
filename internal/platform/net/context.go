// Package net keeps request scoped values in the slot chi's RequestID middleware uses
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// WithRequest stores id for RequestID, handy outside a chi stack such as the tier2 worker
func WithRequest(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}

func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }
