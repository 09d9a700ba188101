package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonLogger returns an adapter writing JSON lines into the returned buffer.
func jsonLogger(level string) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogrusAdapterWithOutput(level, "json", &buf), &buf
}

// entries decodes every JSON line written so far.
func entries(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		level     string
		format    string
		wantLevel logrus.Level
		wantJSON  bool
	}{
		{"debug", "text", logrus.DebugLevel, false},
		{"info", "json", logrus.InfoLevel, true},
		{"warn", "", logrus.WarnLevel, false},
		{"error", "json", logrus.ErrorLevel, true},
		{"verbose", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			adapter, ok := NewLogrusAdapter(tt.level, tt.format).(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.wantLevel, adapter.logger.Level)

			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger(t *testing.T) {
	existing := logrus.New()
	adapter := NewLogrusAdapterFromLogger(existing).(*LogrusAdapter)
	assert.Same(t, existing, adapter.logger)

	adapter = NewLogrusAdapterFromLogger(nil).(*LogrusAdapter)
	assert.NotNil(t, adapter.logger)
}

func TestLogrusAdapter_LoggingMethods(t *testing.T) {
	logger, buf := jsonLogger("debug")

	logger.Debug("Mapped row", F(FieldProvider, "temu"), F(FieldRow, 3))
	logger.Info("Parsed export", F(FieldFile, "orders.json"), F(FieldCount, 12))
	logger.Warn("Skipping malformed candidate", F(FieldReason, "title is empty"))
	logger.Error("Failed to parse file", F(FieldFile, "broken.csv"))

	got := entries(t, buf)
	require.Len(t, got, 4)

	assert.Equal(t, "debug", got[0]["level"])
	assert.Equal(t, "temu", got[0][FieldProvider])
	assert.EqualValues(t, 3, got[0][FieldRow])

	assert.Equal(t, "info", got[1]["level"])
	assert.Equal(t, "Parsed export", got[1]["msg"])
	assert.EqualValues(t, 12, got[1][FieldCount])

	assert.Equal(t, "warning", got[2]["level"])
	assert.Equal(t, "title is empty", got[2][FieldReason])

	assert.Equal(t, "error", got[3]["level"])
	assert.Equal(t, "broken.csv", got[3][FieldFile])
}

func TestLogrusAdapter_WithError(t *testing.T) {
	logger, buf := jsonLogger("info")

	logger.WithError(errors.New("database is locked")).Error("Failed to store purchases")

	got := entries(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "Failed to store purchases", got[0]["msg"])
	assert.Equal(t, "database is locked", got[0][logrus.ErrorKey])
}

func TestLogrusAdapter_WithFieldsDoNotLeak(t *testing.T) {
	logger, buf := jsonLogger("info")

	scoped := logger.WithFields(F(FieldProvider, "allegro"), F(FieldCurrency, "PLN"))
	scoped.WithField(FieldPurchaseID, "p-1").Info("Reconciled purchase")
	logger.Info("Batch processing completed")

	got := entries(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "allegro", got[0][FieldProvider])
	assert.Equal(t, "PLN", got[0][FieldCurrency])
	assert.Equal(t, "p-1", got[0][FieldPurchaseID])

	assert.NotContains(t, got[1], FieldProvider)
	assert.NotContains(t, got[1], FieldPurchaseID)
}

func TestLogrusAdapter_ChainedCalls(t *testing.T) {
	logger, buf := jsonLogger("info")

	logger.
		WithField(FieldProvider, "ebay").
		WithField(FieldOperation, "bulkAdd").
		WithError(errors.New("disk full")).
		Error("Storage failure")

	got := entries(t, buf)
	require.Len(t, got, 1)
	assert.Equal(t, "ebay", got[0][FieldProvider])
	assert.Equal(t, "bulkAdd", got[0][FieldOperation])
	assert.Equal(t, "disk full", got[0][logrus.ErrorKey])
}

func TestConvertFields(t *testing.T) {
	got := convertFields([]Field{
		F(FieldProvider, "olx"),
		F(FieldAdded, 4),
		F("dateFallback", true),
	})
	assert.Equal(t, logrus.Fields{FieldProvider: "olx", FieldAdded: 4, "dateFallback": true}, got)

	assert.Empty(t, convertFields(nil))
}

func TestLogrusAdapter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("info", "text", &buf)

	logger.Info("Reconciliation progress", F(FieldProcessed, 50), F(FieldTotal, 120))

	out := buf.String()
	assert.Contains(t, out, "Reconciliation progress")
	assert.Contains(t, out, "processed=50")
	assert.Contains(t, out, "total=120")
}

func TestLogrusAdapter_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("error", "text", &buf).(*LogrusAdapter)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.SetLevel("info")
	logger.Info("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
