// Package totals implements the totals command
package totals

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/exchange"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/spf13/cobra"
)

var (
	convert bool
	target  string
)

// Cmd represents the totals command
var Cmd = &cobra.Command{
	Use:   "totals",
	Short: "Show spending totals per currency",
	Long: `Show the sum of stored purchase prices per currency.

With --convert, purchases are first converted to the target currency (taken
from --currency or the configuration) using daily exchange rates, the
converted values are saved, and the overall total is shown.

Example:
  purchase-ledger totals --convert --currency EUR`,
	RunE: totalsFunc,
}

func init() {
	Cmd.Flags().BoolVar(&convert, "convert", false, "Convert purchases to the target currency first")
	Cmd.Flags().StringVar(&target, "currency", "", "Target currency (default from configuration)")
}

func totalsFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	var conv *exchange.Converter
	if convert {
		conv = c.GetConverter()
	}
	currency := target
	if currency == "" {
		currency = c.GetConfig().Currency.Target
	}
	return Run(cmd.Context(), c.GetStore(), conv, currency, cmd.OutOrStdout())
}

// Run prints per-currency totals to w. When conv is set, stored purchases
// are converted to target first and the converted total is printed too.
func Run(ctx context.Context, s store.PurchaseStore, conv *exchange.Converter, target string, w io.Writer) error {
	target = strings.ToUpper(strings.TrimSpace(target))
	if conv != nil {
		n, err := conv.ConvertStored(ctx, s, target)
		if err != nil {
			return fmt.Errorf("conversion failed: %w", err)
		}
		fmt.Fprintf(w, "Converted %d purchase(s) to %s\n", n, target)
	}

	purchases, err := s.ListPurchases(ctx)
	if err != nil {
		return err
	}
	if len(purchases) == 0 {
		fmt.Fprintln(w, "No purchases stored")
		return nil
	}

	for _, m := range exchange.Totals(purchases) {
		fmt.Fprintf(w, "%s\n", m)
	}
	if conv != nil {
		total, missing := exchange.ConvertedTotal(purchases, target)
		fmt.Fprintf(w, "Total: %s", total)
		if missing > 0 {
			fmt.Fprintf(w, " (%d purchase(s) without rate)", missing)
		}
		fmt.Fprintln(w)
	}
	return nil
}
