// Package batch handles batch import of export files
package batch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	cmdcommon "fjacquet/purchase-ledger/cmd/common"
	"fjacquet/purchase-ledger/cmd/root"
	"fjacquet/purchase-ledger/internal/batch"
	"fjacquet/purchase-ledger/internal/common"
	"fjacquet/purchase-ledger/internal/container"
	"fjacquet/purchase-ledger/internal/fileutils"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch import files from a directory",
	Long: `Batch import every supported export file from an input directory.

Files are grouped by provider (detected per file unless --provider is given),
merged in chronological order and reconciled once per provider. When an output
directory is given, one consolidated CSV per provider is written there.

Example:
  purchase-ledger batch -i exports/ -o consolidated/`,
	RunE: batchFunc,
}

func init() {
	// Override the usage text for the input/output flags in batch context
	Cmd.SetUsageTemplate(`Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags (for batch, -i/-o refer to directories):
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`)
}

// Options selects what a batch run reads and writes.
type Options struct {
	InputDir  string
	OutputDir string
	Provider  string
	Now       time.Time
}

// Summary totals a batch run.
type Summary struct {
	Files        int
	Unrecognised int
	Providers    int
	Written      []string
	DateRange    batch.DateRange
}

func batchFunc(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("container not initialized")
	}
	summary, err := Run(cmd.Context(), c, Options{
		InputDir:  root.SharedFlags.Input,
		OutputDir: root.SharedFlags.Output,
		Provider:  root.SharedFlags.Provider,
		Now:       time.Now(),
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	c.GetLogger().Info("Batch processing completed",
		logging.Field{Key: "files", Value: summary.Files},
		logging.Field{Key: "providers", Value: summary.Providers},
		logging.Field{Key: "consolidated", Value: len(summary.Written)})
	return nil
}

// Run imports every supported file of opts.InputDir. A file that cannot be
// parsed is skipped; a storage failure aborts the run.
func Run(ctx context.Context, c *container.Container, opts Options, w io.Writer) (Summary, error) {
	logger := c.GetLogger()
	if opts.InputDir == "" {
		return Summary{}, fmt.Errorf("input directory must be specified")
	}

	files, err := fileutils.ListFilesWithExtensions(opts.InputDir, batch.SupportedExtensions...)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Files: len(files)}
	if len(files) == 0 {
		logger.Warn("No supported files found in input directory",
			logging.Field{Key: logging.FieldFile, Value: opts.InputDir})
		return summary, nil
	}

	if opts.OutputDir != "" {
		if err := fileutils.EnsureDirectoryExists(opts.OutputDir); err != nil {
			return summary, err
		}
	}

	aggregator := batch.NewAggregator(c.GetRegistry(), logger)
	groups, unrecognised, err := aggregator.GroupFilesByProvider(files, models.ParseProviderID(opts.Provider))
	if err != nil {
		return summary, err
	}
	summary.Unrecognised = len(unrecognised)
	summary.Providers = len(groups)

	svc := c.GetService()
	for _, group := range groups {
		parseFunc := func(path string) ([]models.Purchase, error) {
			src, err := cmdcommon.ReadSource(path)
			if err != nil {
				return nil, err
			}
			res, err := svc.Parse(ctx, string(group.Provider), src)
			if err != nil {
				return nil, err
			}
			return res.Purchases, nil
		}

		purchases, sources := aggregator.AggregatePurchases(group, parseFunc)
		if len(purchases) == 0 {
			logger.Warn("No purchases found for provider",
				logging.Field{Key: logging.FieldProvider, Value: group.Provider})
			continue
		}

		_, stats, err := svc.Store(ctx, purchases, cmdcommon.ProgressLogger(logger))
		if err != nil {
			return summary, fmt.Errorf("failed to store %s purchases: %w", group.Provider, err)
		}
		cmdcommon.PrintStats(w, string(group.Provider), stats)

		dateRange := batch.CalculateDateRange(purchases)
		summary.DateRange = summary.DateRange.Merge(dateRange)

		if opts.OutputDir == "" {
			continue
		}
		outputPath := filepath.Join(opts.OutputDir, aggregator.GenerateOutputFilename(group.Provider, dateRange))
		header := aggregator.GenerateSourceFileHeader(sources, opts.Now)
		if err := writeConsolidatedCSV(purchases, outputPath, header, c.GetConfig().Delimiter(), logger); err != nil {
			logger.WithError(err).Error("Failed to write consolidated CSV",
				logging.Field{Key: logging.FieldProvider, Value: group.Provider},
				logging.Field{Key: logging.FieldOutputFile, Value: outputPath})
			continue
		}
		summary.Written = append(summary.Written, outputPath)
	}

	if r := summary.DateRange.String(); r != "" {
		fmt.Fprintf(w, "Purchases span %s\n", r)
	}
	return summary, nil
}

// writeConsolidatedCSV writes purchases to outputPath after a header comment
func writeConsolidatedCSV(purchases []models.Purchase, outputPath, headerComment string, delimiter rune, logger logging.Logger) error {
	file, err := fileutils.CreateFile(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logger.WithError(cerr).Warn("Failed to close output file")
		}
	}()

	if headerComment != "" {
		if _, err := file.WriteString(headerComment); err != nil {
			return fmt.Errorf("failed to write header comment: %w", err)
		}
	}
	return common.WritePurchasesCSV(file, purchases, delimiter, nil)
}
