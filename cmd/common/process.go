// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"fjacquet/purchase-ledger/internal/fileutils"
	"fjacquet/purchase-ledger/internal/ingest"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/reconcile"
)

// ReadSource loads a file into a parser.Source named after its base name.
func ReadSource(path string) (parser.Source, error) {
	if path == "" {
		return parser.Source{}, fmt.Errorf("input file must be specified")
	}
	data, err := fileutils.ReadFile(path)
	if err != nil {
		return parser.Source{}, err
	}
	return parser.Source{Name: filepath.Base(path), Data: data}, nil
}

// ProgressLogger returns an observer that logs reconciliation progress.
func ProgressLogger(log logging.Logger) reconcile.Observer {
	return func(s reconcile.Stats) {
		log.Info("Reconciliation progress",
			logging.Field{Key: logging.FieldProcessed, Value: s.Processed},
			logging.Field{Key: logging.FieldTotal, Value: s.Total})
	}
}

// ImportFile reads path and imports it through svc. An empty provider id
// means the provider is detected from the file.
func ImportFile(ctx context.Context, svc *ingest.Service, provider, path string, log logging.Logger) (ingest.ImportResult, error) {
	src, err := ReadSource(path)
	if err != nil {
		return ingest.ImportResult{}, err
	}
	return svc.Import(ctx, provider, src, ProgressLogger(log))
}

// PrintStats writes the reconciliation summary of one run.
func PrintStats(w io.Writer, label string, stats reconcile.Stats) {
	fmt.Fprintf(w, "%s: %d processed, %d added, %d updated, %d enriched, %d skipped\n",
		label, stats.Processed, stats.Added, stats.Updated, stats.Enriched, stats.Skipped)
}

// PrintImport writes the summary of one imported file.
func PrintImport(w io.Writer, file string, res ingest.ImportResult) {
	fmt.Fprintf(w, "%s (%s, %s): %d records, %d rejected, %d categorized\n",
		file, res.Provider, res.Format, res.Records, res.Rejected, res.Categorized)
	PrintStats(w, "  reconciled", res.Stats)
}
