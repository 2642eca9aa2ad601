// Package llm provides the OpenAI-compatible client used to draft skincare
// routines, plus parsing and validation of its JSON answers.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Generator produces raw completion text for a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, systemMessage, prompt string) (string, error)
}

// Config holds configuration for creating a Client.
type Config struct {
	BaseURL     string // e.g. "https://generativelanguage.googleapis.com/v1beta/openai/"
	APIKey      string
	Model       string
	Temperature float64
}

// Client talks to an OpenAI-compatible chat completions endpoint and always
// asks for a JSON object answer.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewClient creates a client. The API key and model are required.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm"),
	}, nil
}

// Generate sends one chat completion. Failures are returned as *Error.
func (c *Client) Generate(ctx context.Context, systemMessage, prompt string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		classified := ClassifyError(err)
		c.logger.Error("LLM request failed",
			zap.String("kind", string(classified.Kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classified
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return resp.Choices[0].Message.Content, nil
}
