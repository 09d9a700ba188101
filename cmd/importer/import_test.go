package importer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/purchase-ledger/cmd/importer"
	"fjacquet/purchase-ledger/internal/ingest"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/parsererror"
	"fjacquet/purchase-ledger/internal/reconcile"
	"fjacquet/purchase-ledger/internal/registry"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCommand_Metadata(t *testing.T) {
	assert.Equal(t, "import", importer.Cmd.Use)
	assert.Contains(t, importer.Cmd.Short, "Import")
	assert.Contains(t, importer.Cmd.Long, "Example")
	assert.NotNil(t, importer.Cmd.RunE)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zakupy.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"items":[{"id":"1","title":"Lamp","price":"10 zł","status":"finished","created_at":"2024-05-01T10:00:00Z"}]}`), 0600))

	log := logging.NewMockLogger()
	s := store.NewMemoryStore()
	svc := ingest.NewService(registry.Default(), reconcile.NewEngine(s, log), log)

	var out bytes.Buffer
	require.NoError(t, importer.Run(context.Background(), svc, "olx", path, &out, log))
	assert.Contains(t, out.String(), "(olx, json): 1 records, 0 rejected")
	assert.Contains(t, out.String(), "1 added")

	out.Reset()
	require.NoError(t, importer.Run(context.Background(), svc, "olx", path, &out, log))
	assert.Contains(t, out.String(), "1 skipped")
	assert.Equal(t, 1, s.Len())
}

func TestRun_Errors(t *testing.T) {
	log := logging.NewMockLogger()
	svc := ingest.NewService(registry.Default(), reconcile.NewEngine(store.NewMemoryStore(), log), log)
	var out bytes.Buffer

	err := importer.Run(context.Background(), svc, "olx", "", &out, log)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "x.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0600))
	err = importer.Run(context.Background(), svc, "shopee", path, &out, log)
	var unknown *parsererror.UnknownProviderError
	assert.ErrorAs(t, err, &unknown)
	assert.Empty(t, out.String())
}
