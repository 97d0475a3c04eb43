package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pawelszalw/HireTree/internal/llm"
)

const (
	defaultAPIURL = "https://api.anthropic.com/v1/messages"
	apiVersion    = "2023-06-01"
	maxTokens     = 2048
)

// Client implements llm.Provider using the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	apiURL     string
	httpClient *http.Client
}

// NewClient constructs an Anthropic-backed provider.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		model = "claude-sonnet-4-5"
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		apiURL: defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
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

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) completeJSON(ctx context.Context, system, user string, out any) error {
	reqBody := messagesRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: user}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("anthropic response parse: %w", err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("anthropic error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Content) == 0 || strings.TrimSpace(parsed.Content[0].Text) == "" {
		return fmt.Errorf("anthropic response empty content")
	}
	return llm.DecodeJSON(parsed.Content[0].Text, out)
}

var _ llm.Provider = (*Client)(nil)
