package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the OpenAI API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func vector(dim int, seed float32) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = seed + float32(i)*0.001
	}
	return v
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := NewClientWithAPI(mockAPI, 0)

	ctx := context.Background()
	text := "This is a test document about Go programming."
	expected := vector(1536, 0)

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return([][]float32{expected}, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.NoError(t, err)
	assert.Len(t, embedding, 1536)
	assert.Equal(t, expected, embedding)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_Batch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := NewClientWithAPI(mockAPI, 8)

	ctx := context.Background()
	texts := []string{"a", "b", "c"}
	vectors := [][]float32{vector(8, 1), vector(8, 2), vector(8, 3)}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(vectors, nil).Once()

	embeddings, err := client.GenerateEmbeddings(ctx, texts)

	require.NoError(t, err)
	assert.Equal(t, vectors, embeddings)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	client := NewClient("")

	ctx := context.Background()
	embedding, err := client.GenerateEmbedding(ctx, "")

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Equal(t, ErrEmptyText, err)

	_, err = client.GenerateEmbeddings(ctx, nil)
	assert.Equal(t, ErrEmptyText, err)

	_, err = client.GenerateEmbeddings(ctx, []string{"ok", ""})
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_GenerateEmbedding_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := NewClientWithAPI(mockAPI, 0)

	ctx := context.Background()
	text := "Test text"
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return(nil, apiErr)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Error(t, err)
	assert.Nil(t, embedding)
	assert.Contains(t, err.Error(), "failed to create embedding")
	assert.ErrorIs(t, err, apiErr)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := NewClientWithAPI(mockAPI, 0)

	ctx := context.Background()
	text := "Test text"

	mockAPI.On("CreateEmbeddings", ctx, []string{text}).Return([][]float32{make([]float32, 512)}, nil)

	embedding, err := client.GenerateEmbedding(ctx, text)

	assert.Nil(t, embedding)
	assert.ErrorIs(t, err, ErrWrongDimensions)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbeddings_CountMismatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := NewClientWithAPI(mockAPI, 4)

	ctx := context.Background()
	texts := []string{"a", "b"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return([][]float32{vector(4, 0)}, nil)

	_, err := client.GenerateEmbeddings(ctx, texts)

	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key")

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
}

func TestOpenAIAdapter_OrdersByIndex(t *testing.T) {
	var gotReq openai.EmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{2, 2}},
				{"object": "embedding", "index": 0, "embedding": []float32{1, 1}},
			},
		})
	}))
	defer srv.Close()

	adapter := NewOpenAIAdapter("test-key", srv.URL, "")
	embeddings, err := adapter.CreateEmbeddings(context.Background(), []string{"first", "second"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 2}}, embeddings)
	assert.Equal(t, openai.SmallEmbedding3, gotReq.Model)
}
