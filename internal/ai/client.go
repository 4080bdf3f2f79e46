// Package ai wraps the hosted language-generation and embedding capabilities
// behind narrow interfaces so that the engine can be tested with fakes.
package ai

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/myrjola/whodunit/internal/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// ErrUnavailable signals that the capability failed or returned an
// unparseable result. Callers treat it as retryable.
var ErrUnavailable = errors.NewSentinel("language capability unavailable")

// Completer produces free-text persona output.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// StructuredCompleter produces output constrained to the JSON schema of out.
type StructuredCompleter interface {
	CompleteStructured(ctx context.Context, system, user, schemaName string, out any) error
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

const MaxTokens = 4096

type Config struct {
	APIKey         string `env:"OPENAI_API_KEY"`
	BaseURL        string `env:"OPENAI_BASE_URL" envDefault:""`
	Model          string `env:"WHODUNIT_MODEL" envDefault:"gpt-4o"`
	EmbeddingModel string `env:"WHODUNIT_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
}

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel openai.EmbeddingModel
	logger         *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		logger:         logger.With("source", "ai.Client"),
	}
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", errors.Wrap(ErrUnavailable, "create chat completion", errors.SlogError(err))
	}
	if len(completion.Choices) == 0 {
		return "", errors.Wrap(ErrUnavailable, "no completion choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// CompleteStructured asks the capability for output conforming to the schema
// generated from out and unmarshals the response into it.
func (c *Client) CompleteStructured(ctx context.Context, system, user, schemaName string, out any) error {
	schema, err := jsonschema.GenerateSchemaForType(out)
	if err != nil {
		return errors.Wrap(err, "generate schema", slog.String("schema", schemaName))
	}
	completion, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return errors.Wrap(ErrUnavailable, "create structured completion", errors.SlogError(err))
	}
	if len(completion.Choices) == 0 {
		return errors.Wrap(ErrUnavailable, "no completion choices")
	}
	content := completion.Choices[0].Message.Content
	if err = json.Unmarshal([]byte(content), out); err != nil {
		return errors.Wrap(ErrUnavailable, "unmarshal structured completion",
			slog.String("schema", schemaName), errors.SlogError(err))
	}
	return nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embeddingModel,
	})
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, "create embeddings", errors.SlogError(err))
	}
	if len(resp.Data) == 0 {
		return nil, errors.Wrap(ErrUnavailable, "no embedding data")
	}
	return resp.Data[0].Embedding, nil
}
