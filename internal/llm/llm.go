// Package llm constructs the chat models and the embedder every stage
// depends on. Stages hold the narrow ChatModel interface so tests can swap in
// deterministic stubs; production models come from the eino-ext components.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/embedding/openai"
	"github.com/cloudwego/eino-ext/components/model/deepseek"
	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/philippgille/chromem-go"

	"marketsense/internal/config"
)

// ChatModel is the single-shot completion capability the pipeline stages
// need. Both eino-ext chat models satisfy it.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Models bundles the two chat models the pipeline uses: a deeper one for
// intent parsing and the final decision, a quick one for sentiment and
// summaries.
type Models struct {
	Decision ChatModel
	Quick    ChatModel
}

func NewModels(ctx context.Context, cfg *config.Config) (*Models, error) {
	switch cfg.LLMProvider {
	case "deepseek":
		decision, err := newDeepSeek(ctx, cfg, cfg.DecisionModel)
		if err != nil {
			return nil, err
		}
		quick, err := newDeepSeek(ctx, cfg, cfg.QuickModel)
		if err != nil {
			return nil, err
		}
		return &Models{Decision: decision, Quick: quick}, nil
	default:
		decision, err := newOpenAI(ctx, cfg, cfg.DecisionModel)
		if err != nil {
			return nil, err
		}
		quick, err := newOpenAI(ctx, cfg, cfg.QuickModel)
		if err != nil {
			return nil, err
		}
		return &Models{Decision: decision, Quick: quick}, nil
	}
}

func newOpenAI(ctx context.Context, cfg *config.Config, modelName string) (*openaimodel.ChatModel, error) {
	maxTokens := 2048
	chatModel, err := openaimodel.NewChatModel(ctx, &openaimodel.ChatModelConfig{
		BaseURL:   cfg.BackendURL,
		APIKey:    cfg.OpenAIAPIKey,
		Model:     modelName,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai model %s: %w", modelName, err)
	}
	return chatModel, nil
}

func newDeepSeek(ctx context.Context, cfg *config.Config, modelName string) (*deepseek.ChatModel, error) {
	chatModel, err := deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
		APIKey:    cfg.DeepSeekKey,
		Model:     modelName,
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("create deepseek model %s: %w", modelName, err)
	}
	return chatModel, nil
}

// NewEmbedder builds the OpenAI embedder used by the filing index.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embedding.Embedder, error) {
	embedder, err := openai.NewEmbedder(ctx, &openai.EmbeddingConfig{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.EmbedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

// Complete runs one blocking system+user exchange and returns the trimmed
// reply text.
func Complete(ctx context.Context, m ChatModel, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	reply, err := m.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply.Content), nil
}

// ChromemEmbedding adapts an eino embedder to chromem's per-text callback.
func ChromemEmbedding(embedder embedding.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := embedder.EmbedStrings(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("embedder returned no vectors")
		}
		out := make([]float32, len(vectors[0]))
		for i, v := range vectors[0] {
			out[i] = float32(v)
		}
		return out, nil
	}
}
