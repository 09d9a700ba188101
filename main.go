package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fjacquet/purchase-ledger/cmd/batch"
	"fjacquet/purchase-ledger/cmd/export"
	"fjacquet/purchase-ledger/cmd/fetch"
	"fjacquet/purchase-ledger/cmd/importer"
	"fjacquet/purchase-ledger/cmd/providers"
	"fjacquet/purchase-ledger/cmd/remove"
	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/cmd/tag"
	"fjacquet/purchase-ledger/cmd/totals"
	"fjacquet/purchase-ledger/cmd/validate"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importer.Cmd)
	root.Cmd.AddCommand(validate.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(providers.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(remove.Cmd)
	root.Cmd.AddCommand(totals.Cmd)
	root.Cmd.AddCommand(tag.Cmd)
	root.Cmd.AddCommand(fetch.Cmd)
}

func main() {
	// An interrupt stops reconciliation between purchases; committed ones stay.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
