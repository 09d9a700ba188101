package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"fjacquet/purchase-ledger/internal/logging"
	"fjacquet/purchase-ledger/internal/models"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient implements AIClient with the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger logging.Logger
}

// NewGeminiClient creates a client for model using apiKey.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(model),
		logger: logging.OrDefault(logger),
	}, nil
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func (c *GeminiClient) Suggest(ctx context.Context, p models.Purchase, allowed []string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(p, allowed)))
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from Gemini API")
	}

	text := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])
	category := ExtractCategory(text, allowed)
	c.logger.Debug("Gemini suggested category",
		logging.F(logging.FieldPurchaseID, p.ID),
		logging.F(logging.FieldCategory, category))
	return category, nil
}

// BuildPrompt renders the categorization request for one purchase.
func BuildPrompt(p models.Purchase, allowed []string) string {
	var b strings.Builder
	b.WriteString("Categorize the following online purchase:\n")
	fmt.Fprintf(&b, "Title: %s\n", p.Title)
	fmt.Fprintf(&b, "Marketplace: %s\n", p.ProviderID)
	fmt.Fprintf(&b, "Price: %s\n", p.Money())
	if len(allowed) > 0 {
		fmt.Fprintf(&b, "\nChoose exactly one of: %s\n", strings.Join(allowed, ", "))
	}
	b.WriteString("\nRespond in this format:\nCategory: [Selected Category Name]")
	return b.String()
}

// ExtractCategory reads the "Category:" line of a model answer. Without one,
// the first allowed name mentioned in the answer is used.
func ExtractCategory(response string, allowed []string) string {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Category:") {
			return strings.Trim(strings.TrimSpace(strings.TrimPrefix(line, "Category:")), "[]")
		}
	}
	lower := strings.ToLower(response)
	for _, name := range allowed {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	return Uncategorized
}
