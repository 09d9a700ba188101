// Package tag implements the tag command
package tag

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/store"

	"github.com/spf13/cobra"
)

// Cmd represents the tag command
var Cmd = &cobra.Command{
	Use:   "tag <purchase-id> [tag...]",
	Short: "Assign tags to a stored purchase",
	Long: `Assign one or more tags to a stored purchase. Without tags, the purchase's
current tags are listed.

Example:
  purchase-ledger tag 6f1c... gift christmas`,
	Args: cobra.MinimumNArgs(1),
	RunE: tagFunc,
}

func tagFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Run(cmd.Context(), c.GetStore(), args[0], args[1:], cmd.OutOrStdout())
}

// Run assigns tags to the purchase id and prints its resulting tags to w.
func Run(ctx context.Context, s store.Store, id string, tags []string, w io.Writer) error {
	if _, ok, err := s.GetPurchase(ctx, id); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("purchase %s not found", id)
	}

	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if err := s.AssignTag(ctx, models.TagAssignment{PurchaseID: id, Tag: t}); err != nil {
			return err
		}
	}

	current, err := s.TagsForPurchase(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", id, strings.Join(current, ", "))
	return nil
}
