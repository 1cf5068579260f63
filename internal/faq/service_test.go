package faq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
)

type fakeRetriever struct {
	entries []Entry
	err     error
	table   string
}

func (f *fakeRetriever) Search(ctx context.Context, table string, embedding []float32, topK int) ([]Entry, error) {
	f.table = table
	return f.entries, f.err
}

type fakeLLM struct {
	completeFn func(req llm.Request) (llm.Response, error)
	embedErr   error
}

func (f *fakeLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if f.completeFn == nil {
		return llm.Response{}, errors.New("no completion configured")
	}
	return f.completeFn(req)
}

func (f *fakeLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func TestAnswerSynthesizesFromRetrieved(t *testing.T) {
	repo := &fakeRetriever{entries: []Entry{
		{Question: "Do JB dentists speak English?", Answer: "Yes, most do.", Similarity: 0.91},
	}}
	client := &fakeLLM{completeFn: func(req llm.Request) (llm.Response, error) {
		assert.Contains(t, req.Messages[0].Content, "Yes, most do.")
		return llm.Response{Text: "Most JB dentists speak English fluently."}, nil
	}}
	s := NewService(repo, client, nil)

	answer, ok := s.Answer(context.Background(), "will the dentist understand me in jb?")

	require.True(t, ok)
	assert.Equal(t, "Most JB dentists speak English fluently.", answer)
	assert.Equal(t, TableDental, repo.table)
}

func TestAnswerTravelQuestionsUseTravelTable(t *testing.T) {
	repo := &fakeRetriever{entries: []Entry{
		{Question: "How long is the causeway queue?", Answer: "Weekday mornings are fastest.", Similarity: 0.88},
	}}
	s := NewService(repo, &fakeLLM{}, nil)

	answer, ok := s.Answer(context.Background(), "how bad is the causeway jam on saturday?")

	require.True(t, ok)
	assert.Equal(t, TableTravel, repo.table)
	// Synthesis unavailable: the best retrieved answer is returned verbatim.
	assert.Equal(t, "Weekday mornings are fastest.", answer)
}

func TestAnswerFiltersLowSimilarity(t *testing.T) {
	repo := &fakeRetriever{entries: []Entry{
		{Question: "unrelated", Answer: "nope", Similarity: 0.31},
	}}
	s := NewService(repo, &fakeLLM{}, nil)

	_, ok := s.Answer(context.Background(), "what is the meaning of life?")

	assert.False(t, ok)
}

func TestAnswerEmbeddingFailure(t *testing.T) {
	repo := &fakeRetriever{entries: []Entry{{Answer: "x", Similarity: 0.9}}}
	s := NewService(repo, &fakeLLM{embedErr: errors.New("quota")}, nil)

	_, ok := s.Answer(context.Background(), "anything")

	assert.False(t, ok)
}

func TestAnswerRetrievalFailure(t *testing.T) {
	repo := &fakeRetriever{err: errors.New("connection refused")}
	s := NewService(repo, &fakeLLM{}, nil)

	_, ok := s.Answer(context.Background(), "anything")

	assert.False(t, ok)
}
