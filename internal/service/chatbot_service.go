package service

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/repository"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

const chatbotSystemPrompt = "Tu es l'assistant scolaire d'École Plus. " +
	"Tu aides élèves et parents avec les cours, les devoirs et la vie de l'école. " +
	"Réponds en français, simplement, et reste dans le cadre scolaire."

const chatbotExercisePrompt = "Tu es l'assistant scolaire d'École Plus. " +
	"L'élève demande un exercice. Réponds uniquement avec un objet JSON plat : " +
	`{"question": "...", "reponse": "...", "explication": "..."}. ` +
	"Adapte la difficulté au niveau primaire et rédige en français."

const chatbotFallbackReply = "Désolé, je ne peux pas répondre pour le moment. Réessaie dans un instant."

// isExerciseRequest detects the exercise intent so the JSON prompt is used.
func isExerciseRequest(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "exercice") || strings.Contains(lower, "exercise") ||
		strings.Contains(lower, "entraînement")
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type chatHistoryStore interface {
	History(ctx context.Context, userID string) ([]repository.ChatMessage, error)
	Append(ctx context.Context, userID string, messages ...repository.ChatMessage) error
	Reset(ctx context.Context, userID string) error
}

// ChatbotConfig tunes the completion requests.
type ChatbotConfig struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

// ChatReply is the assistant's answer to one user turn.
type ChatReply struct {
	Reply string `json:"reply"`
}

// ChatbotService fronts the OpenAI chat API with per-user conversation
// history kept in Redis.
type ChatbotService struct {
	client   chatCompleter
	sessions chatHistoryStore
	config   ChatbotConfig
	logger   *zap.Logger
}

// NewChatbotService constructs a ChatbotService. A nil client disables the
// assistant.
func NewChatbotService(client chatCompleter, sessions chatHistoryStore, config ChatbotConfig, logger *zap.Logger) *ChatbotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Model == "" {
		config.Model = openai.GPT3Dot5Turbo
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 512
	}
	return &ChatbotService{client: client, sessions: sessions, config: config, logger: logger}
}

// Ask sends the user's message with the stored history and returns the
// assistant's reply. Both turns are appended to the history.
func (s *ChatbotService) Ask(ctx context.Context, userID, message string) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: message")
	}
	if s.client == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "assistant is not configured")
	}

	history, err := s.sessions.History(ctx, userID)
	if err != nil {
		s.logger.Warn("chat history load failed", zap.String("user_id", userID), zap.Error(err))
		history = nil
	}

	systemPrompt := chatbotSystemPrompt
	if isExerciseRequest(message) {
		systemPrompt = chatbotExercisePrompt
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    messages,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	// A provider outage degrades to a canned reply instead of failing the turn.
	if err != nil {
		s.logger.Warn("assistant request failed", zap.String("user_id", userID), zap.Error(err))
		return &ChatReply{Reply: chatbotFallbackReply}, nil
	}
	if len(resp.Choices) == 0 {
		s.logger.Warn("assistant returned no answer", zap.String("user_id", userID))
		return &ChatReply{Reply: chatbotFallbackReply}, nil
	}
	reply := resp.Choices[0].Message.Content

	if err := s.sessions.Append(ctx, userID,
		repository.ChatMessage{Role: openai.ChatMessageRoleUser, Content: message},
		repository.ChatMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	); err != nil {
		s.logger.Warn("chat history append failed", zap.String("user_id", userID), zap.Error(err))
	}

	return &ChatReply{Reply: reply}, nil
}

// History returns the stored conversation for the user.
func (s *ChatbotService) History(ctx context.Context, userID string) ([]repository.ChatMessage, error) {
	history, err := s.sessions.History(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chat history")
	}
	return history, nil
}

// Reset discards the user's conversation.
func (s *ChatbotService) Reset(ctx context.Context, userID string) error {
	if err := s.sessions.Reset(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset chat history")
	}
	return nil
}
