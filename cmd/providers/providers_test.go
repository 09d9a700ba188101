package providers_test

import (
	"bytes"
	"strings"
	"testing"

	"fjacquet/purchase-ledger/cmd/providers"
	"fjacquet/purchase-ledger/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, providers.Run(registry.Default(), "", &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "amazon"))
	assert.Contains(t, out.String(), "import,fetch")
}

func TestRun_Capability(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, providers.Run(registry.Default(), "fetch", &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "allegro"))

	require.Error(t, providers.Run(registry.Default(), "upload", &out))
}
