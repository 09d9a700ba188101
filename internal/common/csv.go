// Package common holds the CSV export shared by the commands.
package common

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

// DefaultDelimiter is used when no delimiter is configured.
const DefaultDelimiter = ','

// PurchaseCSVRow is the exported shape of a purchase.
type PurchaseCSVRow struct {
	ID                string `csv:"id"`
	Provider          string `csv:"provider"`
	ProviderItemID    string `csv:"provider_item_id"`
	PurchaseDate      string `csv:"purchase_date"`
	Title             string `csv:"title"`
	Price             string `csv:"price"`
	Currency          string `csv:"currency"`
	ConvertedPrice    string `csv:"converted_price"`
	ConvertedCurrency string `csv:"converted_currency"`
	Category          string `csv:"category"`
	Tags              string `csv:"tags"`
	ImageURL          string `csv:"image_url"`
	OriginalURL       string `csv:"original_url"`
	ImportedAt        string `csv:"imported_at"`
	RawData           string `csv:"raw_data"`
}

// ToCSVRow renders p. tags are joined with "|".
func ToCSVRow(p models.Purchase, tags []string) PurchaseCSVRow {
	row := PurchaseCSVRow{
		ID:                p.ID,
		Provider:          string(p.ProviderID),
		ProviderItemID:    p.ProviderItemID,
		PurchaseDate:      p.PurchaseDate.UTC().Format(time.RFC3339),
		Title:             p.Title,
		Price:             p.Price.StringFixed(2),
		Currency:          p.Currency,
		ConvertedCurrency: p.ConvertedCurrency,
		Category:          p.CategoryName,
		Tags:              strings.Join(tags, "|"),
		ImageURL:          p.ImageURL,
		OriginalURL:       p.OriginalURL,
		ImportedAt:        p.ImportedAt.UTC().Format(time.RFC3339),
	}
	if p.ConvertedPrice.Valid {
		row.ConvertedPrice = p.ConvertedPrice.Decimal.StringFixed(2)
	}
	if p.HasRawData() {
		row.RawData = encodeRaw(p.RawData)
	}
	return row
}

// encodeRaw writes rawData as compact JSON with sorted keys.
func encodeRaw(raw map[string]interface{}) string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(raw[k])
		if err != nil {
			vb = []byte(`null`)
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}

// WritePurchasesCSV writes a header and one row per purchase to w. tagsFor
// may be nil.
func WritePurchasesCSV(w io.Writer, purchases []models.Purchase, delimiter rune, tagsFor func(id string) []string) error {
	if purchases == nil {
		return fmt.Errorf("cannot write nil purchases to CSV")
	}
	if delimiter == 0 {
		delimiter = DefaultDelimiter
	}

	rows := make([]PurchaseCSVRow, len(purchases))
	for i, p := range purchases {
		var tags []string
		if tagsFor != nil {
			tags = tagsFor(p.ID)
		}
		rows[i] = ToCSVRow(p, tags)
	}

	csvWriter := csv.NewWriter(w)
	csvWriter.Comma = delimiter
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WritePurchasesToCSV writes purchases to csvFile, creating its directory.
func WritePurchasesToCSV(csvFile string, purchases []models.Purchase, delimiter rune, tagsFor func(id string) []string, logger logging.Logger) error {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(csvFile), models.PermissionDirectory); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	file, err := os.OpenFile(csvFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, models.PermissionExportFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close file")
		}
	}()

	if err := WritePurchasesCSV(file, purchases, delimiter, tagsFor); err != nil {
		return err
	}

	logger.Info("Successfully wrote purchases to CSV file",
		logging.F(logging.FieldOutputFile, csvFile),
		logging.F(logging.FieldCount, len(purchases)),
		logging.F(logging.FieldDelimiter, string(delimiter)))
	return nil
}
