package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := newLogger(Config{Level: "loud", Encoding: "json"})
	require.Error(t, err)
}

func TestNewLoggerBuilds(t *testing.T) {
	log, err := newLogger(Config{Level: "debug", Encoding: "json"})
	require.NoError(t, err)
	require.NotNil(t, log)
	log.Debug("hello")
}

func TestGetReturnsFallbackWithoutInit(t *testing.T) {
	assert.NotNil(t, Get())
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), PoolKey, "billing-db")
	ctx = context.WithValue(ctx, ComponentKey, "allocator")

	log := WithContext(ctx)
	require.NotNil(t, log)
	log.Info("context fields attached")
}
