package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatAPI is a mock for the chat completion API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completionResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: content}},
		},
	}
}

func TestClient_Complete_Success(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewClientWithAPI(mockAPI)

	messages := []Message{
		{Role: RoleSystem, Content: "You generate SQL."},
		{Role: RoleUser, Content: "how many patients"},
	}

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "google/gemma-2-9b-it" &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == "system" &&
			req.Messages[1].Content == "how many patients" &&
			req.Temperature == float32(0.2) &&
			req.MaxTokens == 1024
	})).Return(completionResponse(`{"reasoning":"count","sql":"SELECT COUNT(*) FROM patients;"}`), nil)

	raw, err := client.Complete(context.Background(), messages, "google/gemma-2-9b-it", Options{
		Temperature: 0.2,
		MaxTokens:   1024,
	})

	require.NoError(t, err)
	assert.Equal(t, `{"reasoning":"count","sql":"SELECT COUNT(*) FROM patients;"}`, raw)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_ReasoningEffortPassedThrough(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewClientWithAPI(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.ReasoningEffort == "low"
	})).Return(completionResponse("ok"), nil)

	_, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, "m", Options{
		ReasoningEffort: "low",
	})

	require.NoError(t, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Complete_TransportError(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewClientWithAPI(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, errors.New("connection refused"))

	raw, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, "m", Options{})

	assert.Error(t, err)
	assert.Empty(t, raw)
	assert.Contains(t, err.Error(), "chat completion failed")
}

func TestClient_Complete_NoChoices(t *testing.T) {
	mockAPI := new(MockChatAPI)
	client := NewClientWithAPI(mockAPI)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything).
		Return(openai.ChatCompletionResponse{}, nil)

	raw, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}}, "m", Options{})

	assert.Empty(t, raw)
	assert.Equal(t, ErrEmptyCompletion, err)
}
