package service

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/repository"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type stubCompleter struct {
	reply    string
	err      error
	requests []openai.ChatCompletionRequest
}

func (s *stubCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: s.reply}},
		},
	}, nil
}

type memChatStore struct {
	history map[string][]repository.ChatMessage
}

func (m *memChatStore) History(ctx context.Context, userID string) ([]repository.ChatMessage, error) {
	return m.history[userID], nil
}

func (m *memChatStore) Append(ctx context.Context, userID string, messages ...repository.ChatMessage) error {
	if m.history == nil {
		m.history = make(map[string][]repository.ChatMessage)
	}
	m.history[userID] = append(m.history[userID], messages...)
	return nil
}

func (m *memChatStore) Reset(ctx context.Context, userID string) error {
	delete(m.history, userID)
	return nil
}

func TestChatbotAskKeepsHistory(t *testing.T) {
	completer := &stubCompleter{reply: "La photosynthèse transforme la lumière en énergie."}
	store := &memChatStore{}
	svc := NewChatbotService(completer, store, ChatbotConfig{Model: "gpt-4o-mini"}, nil)
	ctx := context.Background()

	reply, err := svc.Ask(ctx, "user-1", "C'est quoi la photosynthèse ?")
	require.NoError(t, err)
	assert.Equal(t, completer.reply, reply.Reply)

	// User turn and assistant turn are both stored.
	history, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, openai.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, history[1].Role)

	// The follow-up request carries the system prompt plus the history.
	_, err = svc.Ask(ctx, "user-1", "Et pour les champignons ?")
	require.NoError(t, err)
	require.Len(t, completer.requests, 2)
	assert.Len(t, completer.requests[1].Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, completer.requests[1].Messages[0].Role)
}

func TestChatbotAskRejectsEmptyMessage(t *testing.T) {
	svc := NewChatbotService(&stubCompleter{reply: "ok"}, &memChatStore{}, ChatbotConfig{}, nil)

	_, err := svc.Ask(context.Background(), "user-1", "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMissingFields.Code, appErrors.FromError(err).Code)
}

func TestChatbotAskUsesExercisePrompt(t *testing.T) {
	completer := &stubCompleter{reply: `{"question": "3+4 ?", "reponse": "7", "explication": "Addition."}`}
	svc := NewChatbotService(completer, &memChatStore{}, ChatbotConfig{}, nil)

	_, err := svc.Ask(context.Background(), "user-1", "Donne-moi un exercice de maths")
	require.NoError(t, err)
	require.Len(t, completer.requests, 1)
	assert.Equal(t, chatbotExercisePrompt, completer.requests[0].Messages[0].Content)
}

func TestChatbotAskDegradesOnProviderFailure(t *testing.T) {
	completer := &stubCompleter{err: errors.New("rate limited")}
	svc := NewChatbotService(completer, &memChatStore{}, ChatbotConfig{}, nil)

	reply, err := svc.Ask(context.Background(), "user-1", "Bonjour")
	require.NoError(t, err)
	assert.Equal(t, chatbotFallbackReply, reply.Reply)
}

func TestChatbotReset(t *testing.T) {
	completer := &stubCompleter{reply: "Bonjour !"}
	store := &memChatStore{}
	svc := NewChatbotService(completer, store, ChatbotConfig{}, nil)
	ctx := context.Background()

	_, err := svc.Ask(ctx, "user-1", "Salut")
	require.NoError(t, err)
	require.NoError(t, svc.Reset(ctx, "user-1"))

	history, err := svc.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
