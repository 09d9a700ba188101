// Package batch provides functionality for batch import and aggregation of marketplace exports
package batch

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fjacquet/purchase-ledger/internal/fileutils"
	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
	"fjacquet/purchase-ledger/internal/registry"
)

// SupportedExtensions lists the file types a batch run picks up.
var SupportedExtensions = []string{".csv", ".txt", ".json", ".xlsx"}

// DateRange represents a date range with start and end dates
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String returns the date range in the format "YYYY-MM-DD_YYYY-MM-DD"
func (dr DateRange) String() string {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s_%s",
		dr.Start.Format("2006-01-02"),
		dr.End.Format("2006-01-02"))
}

// Merge combines this date range with another, returning the overall range
func (dr DateRange) Merge(other DateRange) DateRange {
	start := dr.Start
	end := dr.End

	if dr.Start.IsZero() {
		start = other.Start
	} else if !other.Start.IsZero() && other.Start.Before(start) {
		start = other.Start
	}

	if dr.End.IsZero() {
		end = other.End
	} else if !other.End.IsZero() && other.End.After(end) {
		end = other.End
	}

	return DateRange{Start: start, End: end}
}

// FileGroup is a set of files exported by the same provider.
type FileGroup struct {
	Provider models.ProviderID
	Files    []string
}

// Aggregator groups the files of a batch run by provider and merges their
// purchases.
type Aggregator struct {
	registry *registry.Registry
	logger   logging.Logger
}

// NewAggregator creates a new Aggregator instance
func NewAggregator(reg *registry.Registry, logger logging.Logger) *Aggregator {
	return &Aggregator{
		registry: reg,
		logger:   logging.OrDefault(logger),
	}
}

// GroupFilesByProvider assigns every file to a provider. With forced set, all
// files go to that provider; otherwise each file is detected from its name and
// content. Files no provider recognises are returned separately.
func (a *Aggregator) GroupFilesByProvider(files []string, forced models.ProviderID) ([]FileGroup, []string, error) {
	groups := make(map[models.ProviderID]*FileGroup)
	var unrecognised []string

	for _, file := range files {
		id := forced
		if id == "" {
			data, err := fileutils.ReadFile(file)
			if err != nil {
				return nil, nil, err
			}
			p, err := a.registry.Detect(parser.Source{Name: filepath.Base(file), Data: data})
			if err != nil {
				a.logger.Warn("Skipping unrecognised file",
					logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)})
				unrecognised = append(unrecognised, file)
				continue
			}
			id = p.ID
		}

		a.logger.Debug("File mapped to provider",
			logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)},
			logging.Field{Key: logging.FieldProvider, Value: id})

		group, exists := groups[id]
		if !exists {
			group = &FileGroup{Provider: id}
			groups[id] = group
		}
		group.Files = append(group.Files, file)
	}

	out := make([]FileGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Provider < out[j].Provider
	})

	a.logger.Info("Grouped files by provider",
		logging.Field{Key: "total_files", Value: len(files)},
		logging.Field{Key: "provider_groups", Value: len(out)},
		logging.Field{Key: "unrecognised", Value: len(unrecognised)})

	return out, unrecognised, nil
}

// AggregatePurchases parses every file of group with parseFunc and returns
// their purchases in chronological order. A file that fails to parse is
// logged and skipped; the names of the files that contributed are returned.
func (a *Aggregator) AggregatePurchases(group FileGroup, parseFunc func(string) ([]models.Purchase, error)) ([]models.Purchase, []string) {
	var all []models.Purchase
	var sourceFiles []string

	for _, file := range group.Files {
		purchases, err := parseFunc(file)
		if err != nil {
			a.logger.WithError(err).Error("Failed to parse file",
				logging.Field{Key: logging.FieldFile, Value: file},
				logging.Field{Key: logging.FieldProvider, Value: group.Provider})
			continue
		}

		a.logger.Debug("Loaded purchases from file",
			logging.Field{Key: logging.FieldCount, Value: len(purchases)},
			logging.Field{Key: logging.FieldFile, Value: filepath.Base(file)})

		all = append(all, purchases...)
		sourceFiles = append(sourceFiles, filepath.Base(file))
	}

	SortChronologically(all)
	a.logOverlaps(all, group.Provider)

	a.logger.Info("Aggregated purchases for provider",
		logging.Field{Key: logging.FieldCount, Value: len(all)},
		logging.Field{Key: logging.FieldProvider, Value: group.Provider},
		logging.Field{Key: "source_files", Value: strings.Join(sourceFiles, ", ")})

	return all, sourceFiles
}

// SortChronologically orders purchases by purchase date, then item id.
func SortChronologically(purchases []models.Purchase) {
	sort.SliceStable(purchases, func(i, j int) bool {
		if !purchases[i].PurchaseDate.Equal(purchases[j].PurchaseDate) {
			return purchases[i].PurchaseDate.Before(purchases[j].PurchaseDate)
		}
		return purchases[i].ProviderItemID < purchases[j].ProviderItemID
	})
}

// logOverlaps reports item ids seen more than once, which happens when
// exports cover overlapping periods. All copies are kept; reconciliation
// collapses them.
func (a *Aggregator) logOverlaps(purchases []models.Purchase, provider models.ProviderID) int {
	seen := make(map[string]bool, len(purchases))
	overlaps := 0
	for _, p := range purchases {
		if seen[p.ProviderItemID] {
			overlaps++
			a.logger.Debug("Purchase present in several files",
				logging.Field{Key: logging.FieldProvider, Value: provider},
				logging.Field{Key: logging.FieldItemID, Value: p.ProviderItemID})
			continue
		}
		seen[p.ProviderItemID] = true
	}
	if overlaps > 0 {
		a.logger.Warn("Found purchases repeated across files",
			logging.Field{Key: logging.FieldCount, Value: overlaps},
			logging.Field{Key: logging.FieldProvider, Value: provider})
	}
	return overlaps
}

// GenerateOutputFilename creates a filename for the consolidated output
// Format: {provider}_{start_date}_{end_date}.csv
func (a *Aggregator) GenerateOutputFilename(provider models.ProviderID, dateRange DateRange) string {
	if r := dateRange.String(); r != "" {
		return fmt.Sprintf("%s_%s.csv", provider, r)
	}
	return fmt.Sprintf("%s.csv", provider)
}

// GenerateSourceFileHeader creates a header comment listing source files
func (a *Aggregator) GenerateSourceFileHeader(sourceFiles []string, now time.Time) string {
	if len(sourceFiles) == 0 {
		return ""
	}

	var header strings.Builder
	header.WriteString("# Consolidated from source files:\n")
	for _, file := range sourceFiles {
		fmt.Fprintf(&header, "# - %s\n", file)
	}
	header.WriteString("# Generated on: ")
	header.WriteString(now.Format("2006-01-02 15:04:05"))
	header.WriteString("\n#\n")

	return header.String()
}

// CalculateDateRange returns the span of purchase dates.
func CalculateDateRange(purchases []models.Purchase) DateRange {
	if len(purchases) == 0 {
		return DateRange{}
	}

	start := purchases[0].PurchaseDate
	end := purchases[0].PurchaseDate
	for _, p := range purchases {
		if p.PurchaseDate.Before(start) {
			start = p.PurchaseDate
		}
		if p.PurchaseDate.After(end) {
			end = p.PurchaseDate
		}
	}

	return DateRange{Start: start, End: end}
}
