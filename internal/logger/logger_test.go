package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	log := New("test-package")

	assert.NotNil(t, log)
}

func TestContextWithTraceID(t *testing.T) {
	ctx := context.Background()
	traceID := "test-trace-123"

	ctx = ContextWithTraceID(ctx, traceID)

	assert.Equal(t, traceID, TraceIDFromContext(ctx))
}

func TestContextWithTraceIDName(t *testing.T) {
	ctx := ContextWithTraceIDName(context.Background(), "request_id", "custom-trace-456")

	assert.Equal(t, "custom-trace-456", TraceIDFromContextName(ctx, "request_id"))
}

func TestLoggerMethods(t *testing.T) {
	log := New("test")

	err := log.Error("test error")
	assert.Error(t, err)

	originalErr := errors.New("original")
	assert.Equal(t, originalErr, log.Err("context", originalErr))

	assert.NotNil(t, log.With("key", "value"))
	assert.NotNil(t, log.File("test.go"))
	assert.NotNil(t, log.Function("testFunc"))
}

func TestLoggerTraceID(t *testing.T) {
	log := New("test")

	assert.NotNil(t, log.WithTraceID("trace-123"))

	ctx := ContextWithTraceID(context.Background(), "context-trace")
	assert.NotNil(t, log.TraceFromContext(ctx))
}

func TestLoggerTimer(t *testing.T) {
	log := New("test")

	done := log.Timer("test operation")
	assert.NotNil(t, done)
	done()
}
