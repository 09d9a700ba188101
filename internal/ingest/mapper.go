package ingest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parser"
)

// DefaultConcurrencyThreshold is the record count from which mapping is
// spread over worker goroutines.
const DefaultConcurrencyThreshold = 1000

// Mapper applies a dialect's MapFunc to decoded records. Mappers are pure,
// so large files are mapped in parallel; the output keeps record order.
type Mapper struct {
	logger      logging.Logger
	workerCount int
	threshold   int
}

// NewMapper creates a mapper. threshold < 1 selects the default.
func NewMapper(logger logging.Logger, threshold int) *Mapper {
	if threshold < 1 {
		threshold = DefaultConcurrencyThreshold
	}
	return &Mapper{
		logger:      logging.OrDefault(logger),
		workerCount: runtime.NumCPU(),
		threshold:   threshold,
	}
}

// Map returns the accepted purchases in record order and the number of
// rejected records.
func (m *Mapper) Map(ctx context.Context, d parser.Dialect, recs []parser.Record, now time.Time) ([]models.Purchase, int, error) {
	if len(recs) < m.threshold || m.workerCount < 2 {
		purchases, rejected := parser.MapRecords(d, recs, now)
		return purchases, rejected, nil
	}
	return m.mapConcurrent(ctx, d, recs, now)
}

type mapped struct {
	purchase models.Purchase
	ok       bool
}

func (m *Mapper) mapConcurrent(ctx context.Context, d parser.Dialect, recs []parser.Record, now time.Time) ([]models.Purchase, int, error) {
	results := make([]mapped, len(recs))
	jobs := make(chan int, m.workerCount)

	var wg sync.WaitGroup
	for w := 0; w < m.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, ok := d.Map(recs[i], parser.RowContext{Index: i, Now: now})
				results[i] = mapped{purchase: p, ok: ok}
			}
		}()
	}

	var cancelled error
feed:
	for i := range recs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, 0, cancelled
	}

	purchases := make([]models.Purchase, 0, len(recs))
	rejected := 0
	for _, r := range results {
		if !r.ok {
			rejected++
			continue
		}
		purchases = append(purchases, r.purchase)
	}

	m.logger.Debug("Concurrent mapping completed",
		logging.F(logging.FieldCount, len(recs)),
		logging.F("workers", m.workerCount))
	return purchases, rejected, nil
}
