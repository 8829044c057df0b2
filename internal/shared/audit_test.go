package shared

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLogsFailureWithoutPropagating(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	// No pool: every Record fails. Write must swallow the failure and
	// surface it through the logger only.
	audit := NewAuditLogger(nil, logger)
	audit.Write(context.Background(), AuditLog{Action: "role.create", Entity: "role", EntityID: "1"})

	out := buf.String()
	require.Contains(t, out, "audit write failed")
	assert.Contains(t, out, "role.create")
}

func TestWriteNilReceiverIsInert(t *testing.T) {
	var audit *AuditLogger
	assert.NotPanics(t, func() {
		audit.Write(context.Background(), AuditLog{Action: "x", Entity: "y", EntityID: "1"})
	})
}

func TestWriteNilLoggerIsSilent(t *testing.T) {
	audit := NewAuditLogger(nil, nil)
	assert.NotPanics(t, func() {
		audit.Write(context.Background(), AuditLog{Action: "x", Entity: "y", EntityID: "1"})
	})
}
