package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
	"fjacquet/purchase-ledger/internal/parsererror"
)

func purchase(provider models.ProviderID, itemID, title, price string, day int) models.Purchase {
	return models.Purchase{
		ID:             models.PurchaseID(provider, itemID),
		ProviderID:     provider,
		ProviderItemID: itemID,
		Title:          title,
		Price:          decimal.RequireFromString(price),
		Currency:       "USD",
		PurchaseDate:   time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC),
		ImportedAt:     time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC),
	}
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := OpenSQLite(context.Background(), ":memory:", logging.NewMockLogger())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func TestStore_AddGetRoundTrip(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := purchase(models.ProviderAmazon, "111:B0", "USB cable", "9.99", 2)
		p.ImageURL = "https://img/1.jpg"
		p.RawData = map[string]interface{}{"status": "Closed", "dateFallback": true}

		require.NoError(t, s.AddPurchase(ctx, p))

		got, ok, err := s.GetPurchase(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p.Title, got.Title)
		assert.True(t, p.Price.Equal(got.Price))
		assert.True(t, p.PurchaseDate.Equal(got.PurchaseDate))
		assert.True(t, p.ImportedAt.Equal(got.ImportedAt))
		assert.Equal(t, "https://img/1.jpg", got.ImageURL)
		assert.Equal(t, "Closed", got.RawData["status"])
		assert.Equal(t, true, got.RawData["dateFallback"])
		assert.False(t, got.ConvertedPrice.Valid)

		_, ok, err = s.GetPurchase(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_DedupKeyIsUnique(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := purchase(models.ProviderEbay, "o1:i1", "Lens", "40", 1)
		require.NoError(t, s.AddPurchase(ctx, p))

		err := s.AddPurchase(ctx, p)
		var serr *parsererror.StoreError
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, OpAdd, serr.Operation)

		got, ok, err := s.PurchaseByDedupKey(ctx, p.Key())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, p.ID, got.ID)

		_, ok, err = s.PurchaseByDedupKey(ctx, models.DedupKey{ProviderID: models.ProviderEbay, ProviderItemID: "nope"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStore_BulkAddIsAllOrNothing(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		existing := purchase(models.ProviderTemu, "a", "A", "1", 1)
		require.NoError(t, s.AddPurchase(ctx, existing))

		err := s.BulkAddPurchases(ctx, []models.Purchase{
			purchase(models.ProviderTemu, "b", "B", "2", 2),
			existing,
		})
		require.Error(t, err)

		all, err := s.ListPurchases(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestStore_ListingOrderAndProviderFilter(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.BulkAddPurchases(ctx, []models.Purchase{
			purchase(models.ProviderOLX, "3", "Late", "3", 20),
			purchase(models.ProviderAmazon, "1", "Early", "1", 1),
			purchase(models.ProviderOLX, "2", "Middle", "2", 10),
		}))

		all, err := s.ListPurchases(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"Early", "Middle", "Late"}, titles(all))

		olx, err := s.PurchasesByProvider(ctx, models.ProviderOLX)
		require.NoError(t, err)
		assert.Equal(t, []string{"Middle", "Late"}, titles(olx))
	})
}

func TestStore_BulkPutReplaces(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := purchase(models.ProviderAllegro, "f:1", "Kubek", "20", 5)
		require.NoError(t, s.AddPurchase(ctx, p))

		p.ConvertedPrice = decimal.NewNullDecimal(decimal.RequireFromString("4.61"))
		p.ConvertedCurrency = "EUR"
		q := purchase(models.ProviderAllegro, "f:2", "Talerz", "30", 6)
		require.NoError(t, s.BulkPutPurchases(ctx, []models.Purchase{p, q}))

		got, _, err := s.GetPurchase(ctx, p.ID)
		require.NoError(t, err)
		require.True(t, got.ConvertedPrice.Valid)
		assert.Equal(t, "4.61", got.ConvertedPrice.Decimal.String())
		assert.Equal(t, "EUR", got.ConvertedCurrency)

		all, err := s.ListPurchases(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestStore_UpdatePurchase(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		p := purchase(models.ProviderAmazon, "x", "Old", "5", 3)
		p.CategoryName = "Books"
		require.NoError(t, s.AddPurchase(ctx, p))

		title := "New"
		price := decimal.RequireFromString("6.50")
		image := "https://img/x.jpg"
		require.NoError(t, s.UpdatePurchase(ctx, p.ID, Patch{Title: &title, Price: &price, ImageURL: &image}))

		got, _, err := s.GetPurchase(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.True(t, price.Equal(got.Price))
		assert.Equal(t, image, got.ImageURL)
		assert.Equal(t, "Books", got.CategoryName)

		err = s.UpdatePurchase(ctx, "missing", Patch{Title: &title})
		assert.True(t, errors.Is(err, ErrNotFound))

		assert.NoError(t, s.UpdatePurchase(ctx, "missing", Patch{}))
	})
}

func TestStore_Deletes(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		a := purchase(models.ProviderAmazon, "a", "A", "1", 1)
		b := purchase(models.ProviderTemu, "b", "B", "2", 2)
		c := purchase(models.ProviderTemu, "c", "C", "3", 3)
		require.NoError(t, s.BulkAddPurchases(ctx, []models.Purchase{a, b, c}))

		ids, err := s.DeletePurchasesByProvider(ctx, models.ProviderTemu)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{b.ID, c.ID}, ids)

		require.NoError(t, s.DeletePurchase(ctx, a.ID))
		require.NoError(t, s.DeletePurchase(ctx, a.ID))

		all, err := s.ListPurchases(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		require.NoError(t, s.AddPurchase(ctx, a))
		require.NoError(t, s.ClearPurchases(ctx))
		all, err = s.ListPurchases(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})
}

func TestStore_Tags(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.AssignTag(ctx, models.TagAssignment{PurchaseID: "p1", Tag: "gift"}))
		require.NoError(t, s.AssignTag(ctx, models.TagAssignment{PurchaseID: "p1", Tag: "electronics"}))
		require.NoError(t, s.AssignTag(ctx, models.TagAssignment{PurchaseID: "p1", Tag: "gift"}))
		require.NoError(t, s.AssignTag(ctx, models.TagAssignment{PurchaseID: "p2", Tag: "gift"}))

		tags, err := s.TagsForPurchase(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"electronics", "gift"}, tags)

		require.NoError(t, s.DeleteTagAssignments(ctx, "p1"))
		tags, err = s.TagsForPurchase(ctx, "p1")
		require.NoError(t, err)
		assert.Empty(t, tags)

		require.NoError(t, s.ClearTagAssignments(ctx))
		tags, err = s.TagsForPurchase(ctx, "p2")
		require.NoError(t, err)
		assert.Empty(t, tags)
	})
}

func TestMemoryStore_FailOn(t *testing.T) {
	s := NewMemoryStore()
	boom := errors.New("disk on fire")
	s.FailOn(OpByProvider, boom)

	_, err := s.PurchasesByProvider(context.Background(), models.ProviderOLX)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, s.Calls(OpByProvider))

	s.FailOn(OpByProvider, nil)
	_, err = s.PurchasesByProvider(context.Background(), models.ProviderOLX)
	assert.NoError(t, err)
}

func TestPatch_Fields(t *testing.T) {
	title := "x"
	p := Patch{Title: &title, RawData: map[string]interface{}{"k": "v"}}

	assert.False(t, p.IsEmpty())
	assert.Equal(t, []string{"title", "rawData"}, p.Fields())
	assert.True(t, Patch{}.IsEmpty())
}

func titles(ps []models.Purchase) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Title
	}
	return out
}
