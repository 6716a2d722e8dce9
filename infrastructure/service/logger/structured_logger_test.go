package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) Logger {
	return NewStructuredLogger(LoggerConfig{
		Level:       "debug",
		Format:      "json",
		ServiceName: "subscription-service",
		Output:      buf,
	})
}

func TestStructuredLogger_WritesCorrelationAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	ctx := WithCorrelationID(context.Background(), "cid-123")
	log.WithFields(map[string]interface{}{"component": "engine"}).
		Info(ctx, "hello", map[string]interface{}{"subscription_id": "s1"})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "cid-123", record["correlation_id"])
	assert.Equal(t, "engine", record["component"])
	assert.Equal(t, "s1", record["subscription_id"])
	assert.Equal(t, "subscription-service", record["service"])
}

func TestStructuredLogger_ErrorCarriesCause(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.Error(context.Background(), "boom", errors.New("disk full"), nil)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "error", record["level"])
	assert.Equal(t, "disk full", record["error"])
}

func TestLogTransition_RejectedIsWarn(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	LogTransition(context.Background(), log, "s1", "approve", "u1", "Active", "", errors.New("invalid"))

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "warning", record["level"])
	assert.Equal(t, "approve", record["action"])
}

func TestCorrelationID_Missing(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
}
