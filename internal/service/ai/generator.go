// Package ai wraps the external model providers: the text generator used for
// counseling turns and roadmap synthesis, the embedder, and the resume index
// built on top of it.
package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"counselgo/internal/config"
)

// Generator is the black-box text generator: prompt in, text out, with
// per-call token and temperature bounds. Failures propagate to the caller
// untouched; no retries happen at this layer.
type Generator struct {
	chatModel model.BaseChatModel
}

// NewGenerator builds a chat model for the configured provider. The handle is
// constructed once at startup and injected into the counseling services.
func NewGenerator(cfg *config.Config, provider string) (*Generator, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not configured", provider)
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 2000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return &Generator{chatModel: chatModel}, nil
}

// Generate sends a single-turn prompt and returns the raw model output.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int, temperature float32) (string, error) {
	if g == nil || g.chatModel == nil {
		return "", errors.New("generator not initialized")
	}
	resp, err := g.chatModel.Generate(ctx,
		[]*schema.Message{schema.UserMessage(prompt)},
		model.WithMaxTokens(maxTokens),
		model.WithTemperature(temperature),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}
