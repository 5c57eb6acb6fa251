package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/comitanigiacomo/2moro-engine/internal/core/ai"
)

var _ ai.Generator = (*Client)(nil)

var ErrEmptyResponse = errors.New("gemini: empty response")

// Client sends prompts to the Gemini API. The model is chosen per call so
// the fallback helper can walk its candidate list.
type Client struct {
	models *genai.Models
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &Client{models: client.Models}, nil
}

func (c *Client) Generate(ctx context.Context, model string, prompt ai.Prompt) (string, error) {
	resp, err := c.models.GenerateContent(ctx, model, buildContents(prompt), nil)
	if err != nil {
		return "", translateError(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

func buildContents(prompt ai.Prompt) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(prompt.Text)}
	if prompt.Image != nil && len(prompt.Image.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(prompt.Image.Data, prompt.Image.MIMEType))
	}

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{
			StatusCode: apiErr.Code,
			Message:    strings.TrimSpace(apiErr.Status + " " + apiErr.Message),
		}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &ai.ProviderError{
			StatusCode: apiErrPtr.Code,
			Message:    strings.TrimSpace(apiErrPtr.Status + " " + apiErrPtr.Message),
		}
	}

	return err
}
