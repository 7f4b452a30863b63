package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultCheckerModel = "gemini-2.5-flash"

const checkPrompt = "(%s) if there is any misinfo/threat/scam/fake news/etc. then respond with corrected content/news, otherwise do not respond with any word."

// Checker asks a generative model to flag misinformation. An empty answer
// means the model found nothing to correct.
type Checker struct {
	client *genai.Client
	model  string
}

func NewChecker(ctx context.Context, apiKey, model string, opts ...option.ClientOption) (*Checker, error) {
	if model == "" {
		model = DefaultCheckerModel
	}
	client, err := genai.NewClient(ctx, append(opts, option.WithAPIKey(apiKey))...)
	if err != nil {
		return nil, err
	}
	return &Checker{client: client, model: model}, nil
}

func (c *Checker) Check(ctx context.Context, text string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	resp, err := m.GenerateContent(ctx, genai.Text(fmt.Sprintf(checkPrompt, text)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	answer := strings.TrimSpace(firstCandidateText(resp))
	slog.DebugContext(ctx, "content checked", "model", c.model, "flagged", answer != "")
	return answer, nil
}

func (c *Checker) Close() error {
	return c.client.Close()
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
