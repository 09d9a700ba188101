// Package validate implements the validate command
package validate

import (
	"fmt"
	"io"

	"fjacquet/purchase-ledger/cmd/common"
	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/ingest"

	"github.com/spf13/cobra"
)

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that an export file can be imported",
	Long: `Check that an export file can be imported without changing the ledger.

Every problem found is printed; the command fails when there is at least one.

Example:
  purchase-ledger validate -i orders.json -p temu`,
	RunE: validateFunc,
}

func validateFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Run(c.GetService(), root.SharedFlags.Provider, root.SharedFlags.Input, cmd.OutOrStdout())
}

// Run validates input and prints the outcome to w.
func Run(svc *ingest.Service, provider, input string, w io.Writer) error {
	src, err := common.ReadSource(input)
	if err != nil {
		return err
	}
	problems, err := svc.Validate(provider, src)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintf(w, "%s: valid\n", src.Name)
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(w, "%s: %s\n", src.Name, p)
	}
	return fmt.Errorf("%s has %d problem(s)", src.Name, len(problems))
}
