package bootstrap

import (
	"context"
	"testing"
	"time"

	"go-idcard/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewStdoutAuditLogger(zap.New(core))
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	ctx := contextutil.WithRequestID(context.Background(), "req-9")
	l.Log(ctx, AuditLog{Action: "SERVER_SHUTDOWN", Message: "bye", Meta: map[string]any{"signal": "terminated"}})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, "audit event", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "2026-01-02T03:04:05Z", fields["timestamp"])
	assert.Equal(t, "SERVER_SHUTDOWN", fields["action"])
	assert.Equal(t, "req-9", fields["request_id"])
}

func TestStdoutAuditLogger_NoRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewStdoutAuditLogger(zap.New(core)).Log(context.Background(), AuditLog{Action: "SERVER_STARTED"})

	require.Equal(t, 1, logs.Len())
	_, ok := logs.All()[0].ContextMap()["request_id"]
	assert.False(t, ok)
}
