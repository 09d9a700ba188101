package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLogger_ChildrenShareSink(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldProvider, "ebay").WithError(errors.New("boom"))

	child.Warn("row rejected", F(FieldRow, 3))
	root.Info("done")

	entries := root.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.EqualError(t, entries[0].Error, "boom")
	assert.Equal(t, []Field{{Key: FieldProvider, Value: "ebay"}, {Key: FieldRow, Value: 3}}, entries[0].Fields)
	assert.True(t, root.HasEntry("INFO", "done"))
	assert.Len(t, root.EntriesByLevel("WARN"), 1)

	root.Clear()
	assert.Empty(t, root.Entries())
}

func TestMockLogger_ZeroValueUsable(t *testing.T) {
	var m MockLogger
	m.Debug("hello")
	assert.True(t, m.HasEntry("DEBUG", "hello"))
}

func TestOrDefault(t *testing.T) {
	mock := NewMockLogger()
	assert.Same(t, mock, OrDefault(mock))
	assert.NotNil(t, OrDefault(nil))
}
