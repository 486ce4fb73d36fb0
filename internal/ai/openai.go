package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const providerOpenAI = "OpenAI"

// OpenAI serves text through chat completions and images through the images
// endpoint.
type OpenAI struct {
	client     *openai.Client
	model      string
	imageModel string
}

type OpenAIConfig struct {
	APIKey     string
	Model      string
	ImageModel string
	// BaseURL overrides https://api.openai.com/v1.
	BaseURL    string
	HTTPClient *http.Client
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(oc),
		model:      cfg.Model,
		imageModel: cfg.ImageModel,
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	creq := openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	}
	if len(req.Schema) > 0 {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   req.SchemaName,
				Schema: req.Schema,
				Strict: true,
			},
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", wrapOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoContent
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}

func (o *OpenAI) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Model:  o.imageModel,
		Prompt: prompt,
		Size:   openai.CreateImageSize1024x1024,
	})
	if err != nil {
		return Image{}, wrapOpenAI(err)
	}
	if len(resp.Data) == 0 {
		return Image{}, ErrNoImage
	}

	img := Image{URL: resp.Data[0].URL, B64JSON: resp.Data[0].B64JSON}
	if img.Resolved() == "" {
		return Image{}, ErrNoImage
	}
	return img, nil
}

func (o *OpenAI) ImageModel() string { return o.imageModel }

func wrapOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{
			Provider:   providerOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       truncate(apiErr.Message),
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ProviderError{
			Provider:   providerOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       truncate(reqErr.Error()),
			Err:        err,
		}
	}
	return &ProviderError{Provider: providerOpenAI, Err: err}
}

var (
	_ TextGenerator  = (*OpenAI)(nil)
	_ ImageGenerator = (*OpenAI)(nil)
)
