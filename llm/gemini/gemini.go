// Package gemini implements the llm contracts on the Google
// Generative AI API.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pdfchat/pdfchat/llm"
)

type Config struct {
	EmbeddingModel  string `yaml:"embedding_model"`
	GenerativeModel string `yaml:"generative_model"`
}

const (
	DefaultEmbeddingModel  = "text-embedding-004"
	DefaultGenerativeModel = "gemini-2.0-flash"
)

func (cfg *Config) ApplyDefaults() {
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}

	if cfg.GenerativeModel == "" {
		cfg.GenerativeModel = DefaultGenerativeModel
	}
}

func NewFactory(cfg Config) llm.Factory {
	return &factory{cfg}
}

type factory struct {
	cfg Config
}

func (f *factory) Provider(ctx context.Context, apiKey string) (llm.Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &provider{
		client: client,
		cfg:    f.cfg,
	}, nil
}

type provider struct {
	client *genai.Client
	cfg    Config
}

func (p *provider) Embed(ctx context.Context, text string, task llm.Task) ([]float32, error) {
	em := p.client.EmbeddingModel(p.cfg.EmbeddingModel)

	switch task {
	case llm.TaskQuery:
		em.TaskType = genai.TaskTypeRetrievalQuery
	default:
		em.TaskType = genai.TaskTypeRetrievalDocument
	}

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, llm.ErrEmptyEmbedding
	}

	return res.Embedding.Values, nil
}

func (p *provider) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := p.generative().GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}

	return text, nil
}

func (p *provider) CompleteStream(ctx context.Context, prompt string) (<-chan llm.Fragment, error) {
	iter := p.generative().GenerateContentStream(ctx, genai.Text(prompt))

	ch := make(chan llm.Fragment)

	go func() {
		defer close(ch)

		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}

			if err != nil {
				select {
				case ch <- llm.Fragment{Err: err}:
				case <-ctx.Done():
				}
				return
			}

			text, err := responseText(resp)
			if err != nil {
				continue
			}

			if text == "" {
				continue
			}

			select {
			case ch <- llm.Fragment{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

func (p *provider) Close() error {
	return p.client.Close()
}

func (p *provider) generative() *genai.GenerativeModel {
	gm := p.client.GenerativeModel(p.cfg.GenerativeModel)
	gm.SetTemperature(0)
	return gm
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", llm.ErrNoCandidates
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}

	return text, nil
}
