// Package llm provides the chat-completion and embedding client used by the
// workspace assistant. All supported providers speak the OpenAI-compatible
// protocol, so a single go-openai client covers Groq, OpenAI, and Ollama.
package llm

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs a synchronous chat completion.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Embed returns the embedding vector for a piece of text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config represents LLM service configuration.
type Config struct {
	Provider       string // groq, openai, ollama
	Model          string
	EmbeddingModel string
	APIKey         string
	BaseURL        string
	MaxTokens      int     // default: 800
	Temperature    float32 // default: 0.4
	Timeout        int     // request timeout in seconds (default: 30)
}

// ErrNoAPIKey is returned when the service is constructed without a credential.
var ErrNoAPIKey = errors.New("llm: missing API key")

type service struct {
	client         *openai.Client
	model          string
	embeddingModel string
	provider       string
	maxTokens      int
	temperature    float32
	timeout        int
}

func newHTTPClient(timeoutSeconds int) *http.Client {
	return &http.Client{
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		return nil, ErrNoAPIKey
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(timeout)

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.4
	}

	return &service{
		client:         openai.NewClientWithConfig(clientConfig),
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		provider:       cfg.Provider,
		maxTokens:      maxTokens,
		temperature:    temperature,
		timeout:        timeout,
	}, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, error) {
	// Timeout is terminal for the request; the assistant is best-effort and
	// never retries upstream calls.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("llm: chat request",
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", s.maxTokens,
	)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	})
	if err != nil {
		return "", errors.Wrap(err, "llm chat failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from llm")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *service) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.embeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, errors.Wrap(err, "llm embedding failed")
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return resp.Data[0].Embedding, nil
}
