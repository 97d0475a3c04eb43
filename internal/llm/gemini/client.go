package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/pawelszalw/HireTree/internal/llm"
)

const defaultModel = "gemini-2.0-flash"

// Client implements llm.Provider using the Google GenAI SDK.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient constructs a Gemini-backed provider.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	return &Client{client: genaiClient, model: model}, nil
}

func (c *Client) ParseJobPosting(ctx context.Context, rawText string) (llm.JobFields, error) {
	var out llm.JobFields
	err := c.completeJSON(ctx, llm.JobPrompt, rawText, &out)
	return out, err
}

func (c *Client) ParseCV(ctx context.Context, anonymizedText string) (llm.Profile, error) {
	var out llm.Profile
	err := c.completeJSON(ctx, llm.CVPrompt, anonymizedText, &out)
	return out, err
}

func (c *Client) ParseWorkHistory(ctx context.Context, entriesText string) (llm.Profile, error) {
	var out llm.Profile
	err := c.completeJSON(ctx, llm.WorkHistoryPrompt, entriesText, &out)
	return out, err
}

func (c *Client) RefineProfile(ctx context.Context, compactSkills, entriesText string) (llm.RefineResult, error) {
	user := compactSkills + "\n\nWork history entries:\n" + entriesText
	var out llm.RefineResult
	err := c.completeJSON(ctx, llm.RefinePrompt, user, &out)
	return out, err
}

func (c *Client) completeJSON(ctx context.Context, system, user string, out any) error {
	if c == nil || c.client == nil {
		return errors.New("gemini client is not initialized")
	}

	prompt := system + "\n\n---\n\n" + user
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if text := strings.TrimSpace(part.Text); text != "" {
				builder.WriteString(text)
			}
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return errors.New("gemini api returned empty response")
	}
	return llm.DecodeJSON(output, out)
}

var _ llm.Provider = (*Client)(nil)
