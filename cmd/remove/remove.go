// Package remove implements the delete command
package remove

import (
	"context"
	"fmt"
	"io"

	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/reconcile"

	"github.com/spf13/cobra"
)

var (
	purchaseID string
	all        bool
)

// Cmd represents the delete command
var Cmd = &cobra.Command{
	Use:     "delete",
	Aliases: []string{"remove"},
	Short:   "Delete purchases and their tag assignments",
	Long: `Delete purchases from the ledger. Tag assignments of the deleted purchases
are removed with them.

Exactly one selector is required: --provider, --id or --all.

Example:
  purchase-ledger delete -p temu
  purchase-ledger delete --id 6f1c...`,
	RunE: deleteFunc,
}

func init() {
	Cmd.Flags().StringVar(&purchaseID, "id", "", "Delete one purchase by id")
	Cmd.Flags().BoolVar(&all, "all", false, "Delete every purchase")
}

// Options selects what is deleted.
type Options struct {
	Provider string
	ID       string
	All      bool
}

func deleteFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Run(cmd.Context(), c.GetEngine(), Options{
		Provider: root.SharedFlags.Provider,
		ID:       purchaseID,
		All:      all,
	}, cmd.OutOrStdout())
}

// Run performs the deletion selected by opts and reports it to w.
func Run(ctx context.Context, engine *reconcile.Engine, opts Options, w io.Writer) error {
	selectors := 0
	for _, set := range []bool{opts.Provider != "", opts.ID != "", opts.All} {
		if set {
			selectors++
		}
	}
	if selectors != 1 {
		return fmt.Errorf("exactly one of --provider, --id or --all is required")
	}

	switch {
	case opts.All:
		if err := engine.DeleteAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(w, "Deleted all purchases")
	case opts.ID != "":
		if err := engine.DeleteOne(ctx, opts.ID); err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted purchase %s\n", opts.ID)
	default:
		provider := models.ParseProviderID(opts.Provider)
		n, err := engine.DeleteProvider(ctx, provider)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Deleted %d %s purchase(s)\n", n, provider)
	}
	return nil
}
