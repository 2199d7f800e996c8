package llm

import (
	"errors"

	"github.com/danielforeroj/alwaysonduty/pkg/config"
	"github.com/danielforeroj/alwaysonduty/pkg/logger"
	appmetrics "github.com/danielforeroj/alwaysonduty/prometheus"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FallbackReply is returned whenever the provider cannot produce a
// completion, so the widget always gets a message back.
const FallbackReply = "This is a demo response from the OnDuty agent."

var (
	client       *resty.Client
	defaultModel string
)

// Initialize configures the chat-completion client against the Groq
// OpenAI-compatible API. Without an API key every reply is the fallback.
func Initialize(cfg *config.Config) {
	defaultModel = cfg.LLM.DefaultModel

	if cfg.LLM.APIKey == "" {
		client = nil
		logger.GetLogger().Warn("llm disabled, GROQ_API_KEY not set")
		return
	}

	client = resty.New().
		SetBaseURL(cfg.LLM.BaseURL).
		SetTimeout(cfg.LLM.Timeout).
		SetAuthToken(cfg.LLM.APIKey).
		SetHeader("Content-Type", "application/json")
}

// Message is one turn of a chat-completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateReply runs one completion over the system prompt plus history.
// It never returns an error to the caller: any failure degrades to the
// fallback reply and is logged and counted instead.
func GenerateReply(systemPrompt, model string, history []Message) string {
	reply, err := complete(systemPrompt, model, history)
	if err != nil {
		appmetrics.RecordLLMFallback()
		logger.GetLogger().Warn("llm completion failed, using fallback", zap.Error(err))
		return FallbackReply
	}
	return reply
}

func complete(systemPrompt, model string, history []Message) (string, error) {
	if client == nil {
		return "", errors.New("llm client not configured")
	}
	if model == "" {
		model = defaultModel
	}

	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)

	var result completionResponse
	resp, err := client.R().
		SetBody(completionRequest{Model: model, Messages: messages}).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		if result.Error != nil {
			return "", errors.New(result.Error.Message)
		}
		return "", errors.New(resp.Status())
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return result.Choices[0].Message.Content, nil
}
