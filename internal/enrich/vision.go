package enrich

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultVisionModel is the default multimodal chat model for frame
// descriptions.
const DefaultVisionModel = "gpt-4o-mini"

// visionSystemPrompt steers descriptions toward what a visually impaired
// user needs to hear first.
const visionSystemPrompt = "You analyze images for accessibility. Always respond " +
	"in English. Focus on obstacles and navigation-relevant details."

// Describer answers vision queries by sending a captured frame to a
// multimodal chat model.
type Describer struct {
	client    oai.Client
	model     string
	maxTokens int64
}

// NewDescriber creates a Describer. If model is empty, DefaultVisionModel is
// used.
func NewDescriber(apiKey string, model string, maxTokens int) (*Describer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("enrich: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultVisionModel
	}
	if maxTokens <= 0 {
		maxTokens = 100
	}

	client := oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	)
	return &Describer{client: client, model: model, maxTokens: int64(maxTokens)}, nil
}

// Describe sends the JPEG frame and the user's question to the vision model
// and returns the description text.
func (d *Describer) Describe(ctx context.Context, jpeg []byte, prompt string) (string, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)

	resp, err := d.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: d.model,
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(visionSystemPrompt),
			oai.UserMessage([]oai.ChatCompletionContentPartUnionParam{
				oai.TextContentPart(prompt),
				oai.ImageContentPart(oai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		MaxTokens: oai.Int(d.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("enrich: describe frame: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("enrich: empty choices in vision response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
