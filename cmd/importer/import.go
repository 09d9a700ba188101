// Package importer implements the import command
package importer

import (
	"context"
	"fmt"
	"io"

	"fjacquet/purchase-ledger/cmd/common"
	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/ingest"
	"fjacquet/purchase-ledger/internal/logging"

	"github.com/spf13/cobra"
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import a marketplace export into the ledger",
	Long: `Import one export file into the ledger.

The provider is detected from the file name and content unless --provider is
given. Rows that are not completed purchases are dropped; purchases already in
the ledger are skipped, enriched or updated instead of duplicated.

Example:
  purchase-ledger import -i Retail.OrderHistory.1.csv
  purchase-ledger import -p allegro -i zakupy.csv`,
	RunE: importFunc,
}

func importFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Run(cmd.Context(), c.GetService(), root.SharedFlags.Provider, root.SharedFlags.Input, cmd.OutOrStdout(), c.GetLogger())
}

// Run imports one file and prints its summary to w.
func Run(ctx context.Context, svc *ingest.Service, provider, input string, w io.Writer, log logging.Logger) error {
	res, err := common.ImportFile(ctx, svc, provider, input, log)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	common.PrintImport(w, input, res)
	return nil
}
