// Package fetch implements the fetch command
package fetch

import (
	"context"
	"fmt"
	"io"
	"time"

	"fjacquet/purchase-ledger/cmd/common"
	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/ingest"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the fetch command
var Cmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch purchases from a marketplace API",
	Long: `Fetch purchases directly from a marketplace API and merge them into the
ledger. Only Allegro supports fetching; the access token is read from
ALLEGRO_TOKEN.

Example:
  ALLEGRO_TOKEN=... purchase-ledger fetch`,
	RunE: fetchFunc,
}

// PurchaseFetcher returns the purchases of a remote account.
type PurchaseFetcher interface {
	FetchPurchases(ctx context.Context, now time.Time) ([]models.Purchase, int, error)
}

func fetchFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	if p := root.SharedFlags.Provider; p != "" && models.ParseProviderID(p) != models.ProviderAllegro {
		return fmt.Errorf("provider %s does not support fetch", p)
	}
	f, err := c.GetAllegroFetcher()
	if err != nil {
		return err
	}
	return Run(cmd.Context(), f, c.GetService(), time.Now(), cmd.OutOrStdout(), c.GetLogger())
}

// Run fetches purchases with f and stores them through svc.
func Run(ctx context.Context, f PurchaseFetcher, svc *ingest.Service, now time.Time, w io.Writer, log logging.Logger) error {
	purchases, rejected, err := f.FetchPurchases(ctx, now.UTC())
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	categorized, stats, err := svc.Store(ctx, purchases, common.ProgressLogger(log))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "allegro: %d fetched, %d rejected, %d categorized\n", len(purchases), rejected, categorized)
	common.PrintStats(w, "  reconciled", stats)
	return nil
}
