package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parsererror"
)

// timeLayout has a fixed width so stored instants sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS purchases (
	id TEXT PRIMARY KEY,
	provider_id TEXT NOT NULL,
	provider_item_id TEXT NOT NULL,
	title TEXT NOT NULL,
	price TEXT NOT NULL,
	currency TEXT NOT NULL,
	purchase_date TEXT NOT NULL,
	image_url TEXT NOT NULL DEFAULT '',
	category_name TEXT NOT NULL DEFAULT '',
	original_url TEXT NOT NULL DEFAULT '',
	raw_data TEXT,
	imported_at TEXT NOT NULL,
	converted_price TEXT,
	converted_currency TEXT NOT NULL DEFAULT '',
	UNIQUE(provider_id, provider_item_id)
);

CREATE INDEX IF NOT EXISTS idx_purchases_provider ON purchases(provider_id);
CREATE INDEX IF NOT EXISTS idx_purchases_date ON purchases(purchase_date);

CREATE TABLE IF NOT EXISTS tag_assignments (
	purchase_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY(purchase_id, tag)
);
`

const purchaseColumns = `id, provider_id, provider_item_id, title, price, currency, purchase_date,
	image_url, category_name, original_url, raw_data, imported_at, converted_price, converted_currency`

const insertPurchase = `INSERT INTO purchases (` + purchaseColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const upsertPurchase = insertPurchase + `
	ON CONFLICT(id) DO UPDATE SET
		provider_id = excluded.provider_id,
		provider_item_id = excluded.provider_item_id,
		title = excluded.title,
		price = excluded.price,
		currency = excluded.currency,
		purchase_date = excluded.purchase_date,
		image_url = excluded.image_url,
		category_name = excluded.category_name,
		original_url = excluded.original_url,
		raw_data = excluded.raw_data,
		imported_at = excluded.imported_at,
		converted_price = excluded.converted_price,
		converted_currency = excluded.converted_currency`

const orderBy = ` ORDER BY purchase_date, id`

// SQLiteStore is a Store backed by a local SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	logger logging.Logger
}

// OpenSQLite opens (creating when needed) the database at path and ensures
// the schema. Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string, logger logging.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logging.OrDefault(logger)}
	s.logger.Debug("Database tables ensured", logging.F(logging.FieldFile, path))
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) fail(op string, err error) error {
	return &parsererror.StoreError{Operation: op, Err: err}
}

// GetPurchase returns the purchase with the given id.
func (s *SQLiteStore) GetPurchase(ctx context.Context, id string) (models.Purchase, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return models.Purchase{}, false, nil
	}
	if err != nil {
		return models.Purchase{}, false, s.fail(OpGet, err)
	}
	return p, true, nil
}

// ListPurchases returns every purchase ordered by date.
func (s *SQLiteStore) ListPurchases(ctx context.Context) ([]models.Purchase, error) {
	out, err := s.query(ctx, `SELECT `+purchaseColumns+` FROM purchases`+orderBy)
	if err != nil {
		return nil, s.fail(OpList, err)
	}
	return out, nil
}

// PurchasesByProvider returns the purchases of one provider ordered by date.
func (s *SQLiteStore) PurchasesByProvider(ctx context.Context, provider models.ProviderID) ([]models.Purchase, error) {
	out, err := s.query(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE provider_id = ?`+orderBy, string(provider))
	if err != nil {
		return nil, s.fail(OpByProvider, err)
	}
	return out, nil
}

// PurchaseByDedupKey looks a purchase up by (provider, provider item id).
func (s *SQLiteStore) PurchaseByDedupKey(ctx context.Context, key models.DedupKey) (models.Purchase, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE provider_id = ? AND provider_item_id = ?`,
		string(key.ProviderID), key.ProviderItemID)
	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return models.Purchase{}, false, nil
	}
	if err != nil {
		return models.Purchase{}, false, s.fail(OpByDedupKey, err)
	}
	return p, true, nil
}

// AddPurchase inserts p. It fails when the id or dedup key already exists.
func (s *SQLiteStore) AddPurchase(ctx context.Context, p models.Purchase) error {
	args, err := purchaseArgs(p)
	if err != nil {
		return s.fail(OpAdd, err)
	}
	if _, err := s.db.ExecContext(ctx, insertPurchase, args...); err != nil {
		return s.fail(OpAdd, err)
	}
	return nil
}

// BulkAddPurchases inserts ps in one transaction; nothing is written when
// any insert fails.
func (s *SQLiteStore) BulkAddPurchases(ctx context.Context, ps []models.Purchase) error {
	if err := s.execEach(ctx, insertPurchase, ps); err != nil {
		return s.fail(OpBulkAdd, err)
	}
	return nil
}

// BulkPutPurchases inserts or replaces ps by id in one transaction.
func (s *SQLiteStore) BulkPutPurchases(ctx context.Context, ps []models.Purchase) error {
	if err := s.execEach(ctx, upsertPurchase, ps); err != nil {
		return s.fail(OpBulkPut, err)
	}
	return nil
}

// UpdatePurchase applies patch to the stored purchase.
func (s *SQLiteStore) UpdatePurchase(ctx context.Context, id string, patch Patch) error {
	if patch.IsEmpty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(OpUpdate, err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := scanPurchase(tx.QueryRowContext(ctx, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return s.fail(OpUpdate, fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err != nil {
		return s.fail(OpUpdate, err)
	}

	patch.Apply(&p)
	args, err := purchaseArgs(p)
	if err != nil {
		return s.fail(OpUpdate, err)
	}
	if _, err := tx.ExecContext(ctx, upsertPurchase, args...); err != nil {
		return s.fail(OpUpdate, err)
	}
	if err := tx.Commit(); err != nil {
		return s.fail(OpUpdate, err)
	}
	return nil
}

// DeletePurchase removes one purchase. Unknown ids are ignored.
func (s *SQLiteStore) DeletePurchase(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id); err != nil {
		return s.fail(OpDelete, err)
	}
	return nil
}

// DeletePurchasesByProvider removes every purchase of provider.
func (s *SQLiteStore) DeletePurchasesByProvider(ctx context.Context, provider models.ProviderID) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail(OpDeleteByProv, err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM purchases WHERE provider_id = ? ORDER BY id`, string(provider))
	if err != nil {
		return nil, s.fail(OpDeleteByProv, err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, s.fail(OpDeleteByProv, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, s.fail(OpDeleteByProv, err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE provider_id = ?`, string(provider)); err != nil {
		return nil, s.fail(OpDeleteByProv, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.fail(OpDeleteByProv, err)
	}
	return ids, nil
}

// ClearPurchases removes every purchase.
func (s *SQLiteStore) ClearPurchases(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM purchases`); err != nil {
		return s.fail(OpClear, err)
	}
	return nil
}

// AssignTag records a tag on a purchase. Assigning twice is a no-op.
func (s *SQLiteStore) AssignTag(ctx context.Context, a models.TagAssignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tag_assignments (purchase_id, tag) VALUES (?, ?)`, a.PurchaseID, a.Tag)
	if err != nil {
		return s.fail(OpAssignTag, err)
	}
	return nil
}

// TagsForPurchase returns the tags of a purchase sorted by name.
func (s *SQLiteStore) TagsForPurchase(ctx context.Context, purchaseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM tag_assignments WHERE purchase_id = ? ORDER BY tag`, purchaseID)
	if err != nil {
		return nil, s.fail(OpTags, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, s.fail(OpTags, err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(OpTags, err)
	}
	return tags, nil
}

// DeleteTagAssignments removes the assignments of the given purchases.
func (s *SQLiteStore) DeleteTagAssignments(ctx context.Context, purchaseIDs ...string) error {
	if len(purchaseIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(purchaseIDs)), ",")
	args := make([]interface{}, len(purchaseIDs))
	for i, id := range purchaseIDs {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM tag_assignments WHERE purchase_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return s.fail(OpDeleteTags, err)
	}
	return nil
}

// ClearTagAssignments removes every tag assignment.
func (s *SQLiteStore) ClearTagAssignments(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tag_assignments`); err != nil {
		return s.fail(OpClearTags, err)
	}
	return nil
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...interface{}) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) execEach(ctx context.Context, stmt string, ps []models.Purchase) error {
	if len(ps) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()

	for _, p := range ps {
		args, err := purchaseArgs(p)
		if err != nil {
			return err
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%s: %w", p.Key(), err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPurchase(row scanner) (models.Purchase, error) {
	var (
		p                        models.Purchase
		provider, price          string
		purchaseDate, importedAt string
		raw, converted           sql.NullString
	)
	err := row.Scan(&p.ID, &provider, &p.ProviderItemID, &p.Title, &price, &p.Currency, &purchaseDate,
		&p.ImageURL, &p.CategoryName, &p.OriginalURL, &raw, &importedAt, &converted, &p.ConvertedCurrency)
	if err != nil {
		return models.Purchase{}, err
	}

	p.ProviderID = models.ProviderID(provider)
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return models.Purchase{}, fmt.Errorf("purchase %s: bad price %q: %w", p.ID, price, err)
	}
	if p.PurchaseDate, err = time.Parse(timeLayout, purchaseDate); err != nil {
		return models.Purchase{}, fmt.Errorf("purchase %s: bad date: %w", p.ID, err)
	}
	if p.ImportedAt, err = time.Parse(timeLayout, importedAt); err != nil {
		return models.Purchase{}, fmt.Errorf("purchase %s: bad import time: %w", p.ID, err)
	}
	if converted.Valid {
		d, err := decimal.NewFromString(converted.String)
		if err != nil {
			return models.Purchase{}, fmt.Errorf("purchase %s: bad converted price: %w", p.ID, err)
		}
		p.ConvertedPrice = decimal.NewNullDecimal(d)
	}
	if raw.Valid && raw.String != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(raw.String)))
		dec.UseNumber()
		if err := dec.Decode(&p.RawData); err != nil {
			return models.Purchase{}, fmt.Errorf("purchase %s: bad raw data: %w", p.ID, err)
		}
	}
	return p, nil
}

func purchaseArgs(p models.Purchase) ([]interface{}, error) {
	var raw sql.NullString
	if len(p.RawData) > 0 {
		b, err := json.Marshal(p.RawData)
		if err != nil {
			return nil, fmt.Errorf("purchase %s: encode raw data: %w", p.ID, err)
		}
		raw = sql.NullString{String: string(b), Valid: true}
	}
	var converted sql.NullString
	if p.ConvertedPrice.Valid {
		converted = sql.NullString{String: p.ConvertedPrice.Decimal.String(), Valid: true}
	}
	return []interface{}{
		p.ID, string(p.ProviderID), p.ProviderItemID, p.Title, p.Price.String(), p.Currency,
		p.PurchaseDate.UTC().Format(timeLayout),
		p.ImageURL, p.CategoryName, p.OriginalURL, raw,
		p.ImportedAt.UTC().Format(timeLayout),
		converted, p.ConvertedCurrency,
	}, nil
}
