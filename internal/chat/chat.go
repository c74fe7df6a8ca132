// Package chat runs the assistant conversation against an OpenAI-compatible
// chat-completion endpoint, keeping history in local storage.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/backoffice/internal/model"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultMaxHistory = 20
)

const DefaultSystemPrompt = `You are the assistant of a French restaurant back-office.
You help with recipes and food cost, product catalog and VAT, supplier
receptions (DLC/DLU, batch numbers, cold chain) and HACCP compliance.
Answer briefly and in the language of the question.`

var (
	ErrEmptyPrompt = errors.New("prompt is empty")
	ErrNoAPIKey    = errors.New("chat API key is not set")
	ErrNoReply     = errors.New("model returned no reply")
)

// History stores the conversation.
type History interface {
	Append(role, content string) (*model.ChatMessage, error)
	List(limit int) ([]model.ChatMessage, error)
	Clear() error
}

// NewOpenAIModel builds the chat-completion client. baseURL and name fall
// back to the OpenAI defaults when empty.
func NewOpenAIModel(apiKey, baseURL, name string) (llms.Model, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if name == "" {
		name = DefaultModel
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(name),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return m, nil
}

type Session struct {
	model        llms.Model
	history      History
	systemPrompt string
	maxHistory   int
	temperature  float64
	logger       *slog.Logger
}

type Option func(*Session)

func WithSystemPrompt(p string) Option {
	return func(s *Session) {
		s.systemPrompt = p
	}
}

// WithMaxHistory caps how many past messages are sent with each prompt.
func WithMaxHistory(n int) Option {
	return func(s *Session) {
		s.maxHistory = n
	}
}

func WithTemperature(t float64) Option {
	return func(s *Session) {
		s.temperature = t
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

func NewSession(m llms.Model, h History, opts ...Option) *Session {
	s := &Session{
		model:        m,
		history:      h,
		systemPrompt: DefaultSystemPrompt,
		maxHistory:   DefaultMaxHistory,
		temperature:  0.3,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chat")
	return s
}

// Send asks the model to answer prompt in the context of the stored
// conversation. The exchange is stored only when the model replies.
func (s *Session) Send(ctx context.Context, prompt string) (*model.ChatMessage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.model == nil {
		return nil, ErrNoAPIKey
	}

	past, err := s.history.List(s.maxHistory)
	if err != nil {
		return nil, err
	}

	messages := make([]llms.MessageContent, 0, len(past)+2)
	if s.systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt))
	}
	for _, m := range past {
		messages = append(messages, llms.TextParts(messageType(m.Role), m.Content))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))

	resp, err := s.model.GenerateContent(ctx, messages, llms.WithTemperature(s.temperature))
	if err != nil {
		s.logger.Error("chat completion failed", "error", err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return nil, ErrNoReply
	}

	if _, err := s.history.Append(model.RoleUser, prompt); err != nil {
		return nil, err
	}
	reply, err := s.history.Append(model.RoleAssistant, resp.Choices[0].Content)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("chat reply", "history", len(past), "reply_len", len(reply.Content))
	return reply, nil
}

// History returns the whole stored conversation.
func (s *Session) History() ([]model.ChatMessage, error) {
	return s.history.List(0)
}

func (s *Session) Clear() error {
	return s.history.Clear()
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case model.RoleSystem:
		return llms.ChatMessageTypeSystem
	case model.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
