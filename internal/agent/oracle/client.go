package oracle

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// ClientConfig holds the backend connection settings.
type ClientConfig struct {
	APIKey  string
	BaseURL string
	Oracle  model.OracleConfig
}

// NewGenAIClient creates the Gemini API client shared by every operation.
func NewGenAIClient(ctx context.Context, config ClientConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewRefinerModel creates the low-temperature chat model used for query
// rewriting, with thinking disabled.
func NewRefinerModel(ctx context.Context, client *genai.Client, cfg model.OracleConfig) (*gemini.ChatModel, error) {
	temperature := cfg.RefineTemperature
	maxTokens := cfg.RefineMaxTokens

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating refiner model")
		return nil, fmt.Errorf("error creating refiner model: %w", err)
	}
	return chatModel, nil
}
