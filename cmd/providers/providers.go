// Package providers implements the providers command
package providers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/registry"

	"github.com/spf13/cobra"
)

var capability string

// Cmd represents the providers command
var Cmd = &cobra.Command{
	Use:   "providers",
	Short: "List the supported marketplaces",
	Long: `List the supported marketplaces with their capabilities and file formats.

Example:
  purchase-ledger providers --capability fetch`,
	RunE: providersFunc,
}

func init() {
	Cmd.Flags().StringVar(&capability, "capability", "", "Only list providers with this capability (import or fetch)")
}

func providersFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	return Run(c.GetRegistry(), capability, cmd.OutOrStdout())
}

// Run writes one line per provider to w, optionally filtered by capability.
func Run(reg *registry.Registry, capability string, w io.Writer) error {
	list := reg.List()
	if capability != "" {
		c, err := parser.ParseCapability(capability)
		if err != nil {
			return err
		}
		list = reg.WithCapability(c)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCAPABILITIES\tFORMATS\tCURRENCY")
	for _, p := range list {
		formats := make([]string, 0, len(p.Dialects))
		for _, f := range p.Formats() {
			formats = append(formats, string(f))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Capabilities, strings.Join(formats, ","), p.DefaultCurrency)
	}
	return tw.Flush()
}
