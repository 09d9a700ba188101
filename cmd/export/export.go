// Package export implements the export command
package export

import (
	"context"
	"fmt"
	"io"

	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/common"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored purchases to CSV",
	Long: `Export the purchases stored in the ledger to CSV, one line per purchase,
with their tags. Without --output the CSV is written to standard output.

Example:
  purchase-ledger export -o purchases.csv
  purchase-ledger export -p ebay`,
	RunE: exportFunc,
}

// Options selects what is exported and where.
type Options struct {
	Output    string
	Provider  string
	Delimiter rune
}

func exportFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	opts := Options{
		Output:    root.SharedFlags.Output,
		Provider:  root.SharedFlags.Provider,
		Delimiter: c.GetConfig().Delimiter(),
	}
	n, err := Run(cmd.Context(), c.GetStore(), opts, cmd.OutOrStdout(), c.GetLogger())
	if err != nil {
		return err
	}
	c.GetLogger().Info("Export completed",
		logging.Field{Key: logging.FieldCount, Value: n},
		logging.Field{Key: logging.FieldOutputFile, Value: opts.Output})
	return nil
}

// Run writes the selected purchases as CSV to opts.Output, or to w when no
// output file is set. It returns the number of purchases written.
func Run(ctx context.Context, s store.Store, opts Options, w io.Writer, log logging.Logger) (int, error) {
	var (
		purchases []models.Purchase
		err       error
	)
	if opts.Provider != "" {
		purchases, err = s.PurchasesByProvider(ctx, models.ParseProviderID(opts.Provider))
	} else {
		purchases, err = s.ListPurchases(ctx)
	}
	if err != nil {
		return 0, err
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}

	tags := make(map[string][]string, len(purchases))
	for _, p := range purchases {
		t, err := s.TagsForPurchase(ctx, p.ID)
		if err != nil {
			return 0, err
		}
		tags[p.ID] = t
	}
	tagsFor := func(id string) []string { return tags[id] }

	if opts.Output == "" {
		return len(purchases), common.WritePurchasesCSV(w, purchases, opts.Delimiter, tagsFor)
	}
	return len(purchases), common.WritePurchasesToCSV(opts.Output, purchases, opts.Delimiter, tagsFor, log)
}
