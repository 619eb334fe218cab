// Package trace tags a context with the id of one command run, so every log
// line written while serving it can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey type for context keys
type ContextKey string

// RunIDKey is the context key for the run ID
const RunIDKey ContextKey = "run_id"

// GenerateRunID returns a short random id, falling back to the clock.
func GenerateRunID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(bytes)
}

// WithRunID returns ctx carrying a fresh run ID. A ctx that already has one
// is returned as is.
func WithRunID(ctx context.Context) context.Context {
	if RunID(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, RunIDKey, GenerateRunID())
}

// RunID extracts the run ID from context
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}
