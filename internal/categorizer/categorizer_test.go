package categorizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

const rulesYAML = `
categories:
  - name: Electronics
    keywords: [cable, charger, "usb"]
  - name: Clothing
    keywords: [socks, kurtka]
    providers: [allegro, temu]
  - name: Home
    keywords: [lamp]
`

type fakeAI struct {
	answer string
	err    error
	calls  int
}

func (f *fakeAI) Suggest(_ context.Context, _ models.Purchase, _ []string) (string, error) {
	f.calls++
	return f.answer, f.err
}

func purchase(provider models.ProviderID, title string) models.Purchase {
	return models.Purchase{
		ID:         models.PurchaseID(provider, title),
		ProviderID: provider,
		Title:      title,
		Price:      decimal.NewFromInt(10),
		Currency:   "USD",
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(rulesYAML))
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []string{"allegro", "temu"}, rules[1].Providers)
	assert.Equal(t, []string{"Electronics", "Clothing", "Home"}, Names(rules))

	_, err = ParseRules([]byte("categories:\n  - keywords: [x]\n"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("categories: [unterminated"))
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "categories.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rulesYAML), 0600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	rules, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestKeywordStrategy(t *testing.T) {
	rules, err := ParseRules([]byte(rulesYAML))
	require.NoError(t, err)
	s := NewKeywordStrategy(rules, logging.NewMockLogger())

	tests := []struct {
		name    string
		p       models.Purchase
		want    string
		wantHit bool
	}{
		{"case insensitive", purchase(models.ProviderAmazon, "Anker USB-C Cable 2m"), "Electronics", true},
		{"provider scoped hit", purchase(models.ProviderTemu, "Wool socks 5 pairs"), "Clothing", true},
		{"provider scoped miss", purchase(models.ProviderAmazon, "Wool socks 5 pairs"), "", false},
		{"no keyword", purchase(models.ProviderOLX, "Rower miejski"), "", false},
		{"empty title", purchase(models.ProviderOLX, ""), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := s.Categorize(context.Background(), tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHit, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAIStrategy(t *testing.T) {
	log := logging.NewMockLogger()

	ai := &fakeAI{answer: "Toys"}
	got, ok, err := NewAIStrategy(ai, nil, log).Categorize(context.Background(), purchase(models.ProviderTemu, "Puzzle"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Toys", got)

	ai = &fakeAI{answer: "uncategorized"}
	_, ok, err = NewAIStrategy(ai, nil, log).Categorize(context.Background(), purchase(models.ProviderTemu, "Puzzle"))
	require.NoError(t, err)
	assert.False(t, ok)

	ai = &fakeAI{err: errors.New("quota exceeded")}
	_, ok, err = NewAIStrategy(ai, nil, log).Categorize(context.Background(), purchase(models.ProviderTemu, "Puzzle"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, log.HasEntry("WARN", "AI categorization failed"))

	_, ok, _ = NewAIStrategy(nil, nil, log).Categorize(context.Background(), purchase(models.ProviderTemu, "Puzzle"))
	assert.False(t, ok)
}

func TestCategorizer_ApplyNeverOverwrites(t *testing.T) {
	rules, err := ParseRules([]byte(rulesYAML))
	require.NoError(t, err)
	ai := &fakeAI{answer: "Misc"}
	c := New(logging.NewMockLogger(),
		NewKeywordStrategy(rules, nil),
		NewAIStrategy(ai, Names(rules), nil),
		nil)
	assert.Equal(t, []string{"Keyword", "AI"}, c.Strategies())

	purchases := []models.Purchase{
		purchase(models.ProviderAmazon, "USB charger"),
		purchase(models.ProviderAmazon, "Desk lamp"),
		purchase(models.ProviderAmazon, "Board game"),
	}
	purchases[1].CategoryName = "Office"

	filled := c.Apply(context.Background(), purchases)

	assert.Equal(t, 2, filled)
	assert.Equal(t, "Electronics", purchases[0].CategoryName)
	assert.Equal(t, "Office", purchases[1].CategoryName)
	assert.Equal(t, "Misc", purchases[2].CategoryName)
	assert.Equal(t, 1, ai.calls)
}

func TestCategorizer_NilIsNoop(t *testing.T) {
	var c *Categorizer
	assert.Equal(t, 0, c.Apply(context.Background(), []models.Purchase{purchase(models.ProviderOLX, "x")}))
}

func TestExtractCategory(t *testing.T) {
	allowed := []string{"Electronics", "Home"}

	assert.Equal(t, "Home", ExtractCategory("Category: Home\nDescription: lamps", allowed))
	assert.Equal(t, "Home", ExtractCategory("Category: [Home]", allowed))
	assert.Equal(t, "Electronics", ExtractCategory("This looks like electronics to me.", allowed))
	assert.Equal(t, Uncategorized, ExtractCategory("no idea", allowed))
}

func TestBuildPrompt(t *testing.T) {
	p := purchase(models.ProviderEbay, "Film camera")
	prompt := BuildPrompt(p, []string{"Electronics", "Hobby"})

	assert.Contains(t, prompt, "Title: Film camera")
	assert.Contains(t, prompt, "Marketplace: ebay")
	assert.Contains(t, prompt, "Price: 10.00 USD")
	assert.Contains(t, prompt, "Electronics, Hobby")
}

// MockAIClient implements AIClient for testing
type MockAIClient struct {
	mock.Mock
}

func (m *MockAIClient) Suggest(ctx context.Context, p models.Purchase, allowed []string) (string, error) {
	args := m.Called(ctx, p.Title, allowed)
	return args.String(0), args.Error(1)
}

func TestCategorizer_KeywordBeforeAI(t *testing.T) {
	rules, err := ParseRules([]byte(rulesYAML))
	require.NoError(t, err)
	log := logging.NewMockLogger()

	client := new(MockAIClient)
	client.On("Suggest", mock.Anything, "Wool sweater", []string{"Electronics", "Clothing", "Home"}).
		Return("Clothing", nil).Once()

	c := New(log,
		NewKeywordStrategy(rules, log),
		NewAIStrategy(client, Names(rules), log),
	)

	purchases := []models.Purchase{
		purchase(models.ProviderAmazon, "USB cable"),
		purchase(models.ProviderAmazon, "Wool sweater"),
	}
	assert.Equal(t, 2, c.Apply(context.Background(), purchases))
	assert.Equal(t, "Electronics", purchases[0].CategoryName)
	assert.Equal(t, "Clothing", purchases[1].CategoryName)

	client.AssertExpectations(t)
	client.AssertNumberOfCalls(t, "Suggest", 1)
}
