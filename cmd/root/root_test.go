package root_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/purchase-ledger/cmd/root"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "purchase-ledger", root.Cmd.Use)
	assert.Contains(t, root.Cmd.Short, "marketplace purchase exports")
	assert.Contains(t, root.Cmd.Long, "reconciles them with")
	assert.NotNil(t, root.Cmd.PersistentPreRunE)
	assert.NotNil(t, root.Cmd.PersistentPostRun)
}

func TestRootCommand_Flags(t *testing.T) {
	root.Init()
	root.Init()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"input", "i"},
		{"output", "o"},
		{"provider", "p"},
		{"config", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := root.Cmd.PersistentFlags().Lookup(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.shorthand, f.Shorthand)
		})
	}
}

func TestGetLogger_WithoutContainer(t *testing.T) {
	root.SetContainer(nil)
	assert.Nil(t, root.GetContainer())
	assert.NotNil(t, root.GetLogger())
}

func TestRootCommand_PreRunBuildsAndPostRunCloses(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\ndatabase:\n  path: \":memory:\"\n"), 0600))

	original := root.SharedFlags
	t.Cleanup(func() { root.SharedFlags = original })
	root.SharedFlags.Config = cfgPath

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	require.NoError(t, root.Cmd.PersistentPreRunE(cmd, nil))
	require.NotNil(t, root.GetContainer())
	assert.NotNil(t, root.GetContainer().GetStore())

	root.Cmd.PersistentPostRun(cmd, nil)
	assert.Nil(t, root.GetContainer())
}

func TestRootCommand_PreRunRejectsBadConfig(t *testing.T) {
	original := root.SharedFlags
	t.Cleanup(func() { root.SharedFlags = original })
	root.SharedFlags.Config = filepath.Join(t.TempDir(), "missing.yaml")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	require.Error(t, root.Cmd.PersistentPreRunE(cmd, nil))
}
