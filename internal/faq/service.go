package faq

import (
	"context"
	"fmt"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

const (
	// minSimilarity is the floor below which a retrieved entry is treated as
	// unrelated to the question.
	minSimilarity = 0.70
	topK          = 3
)

const synthesisPrompt = `You are a friendly dental concierge for Singapore and Johor Bahru.
Answer the user's question using ONLY the reference answers below. If they
don't cover the question, say you're not sure and suggest asking about
clinics, treatments or getting across the Causeway.
Keep it under 100 words.

Reference answers:
%s

Question: %s`

// travelKeywords route a question to the travel FAQ table instead of the
// dental one.
var travelKeywords = []string{
	"causeway", "customs", "immigration", "ciq", "passport", "border",
	"travel", "bus", "grab", "taxi", "train", "shuttle", "drive",
	"jam", "queue at", "crossing", "get to jb", "get to johor", "getting there",
}

// Retriever is the embedding-search surface the service needs.
type Retriever interface {
	Search(ctx context.Context, table string, embedding []float32, topK int) ([]Entry, error)
}

// Service answers general questions by semantic lookup over the FAQ tables,
// with a model synthesis pass on top of the retrieved answers.
type Service struct {
	repo   Retriever
	client llm.Client
	logger *logging.Logger
}

// NewService wires the FAQ answering service.
func NewService(repo Retriever, client llm.Client, logger *logging.Logger) *Service {
	if repo == nil {
		panic("faq: retriever required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, client: client, logger: logger}
}

// Answer responds to a general question. It returns ok=false when nothing
// relevant was retrieved so the caller can fall back to its own reply.
func (s *Service) Answer(ctx context.Context, question string) (string, bool) {
	embedding, err := s.client.Embed(ctx, question)
	if err != nil {
		s.logger.Warn("question embedding failed", "error", err)
		return "", false
	}

	entries, err := s.repo.Search(ctx, tableFor(question), embedding, topK)
	if err != nil {
		s.logger.Warn("faq retrieval failed", "error", err)
		return "", false
	}

	relevant := entries[:0]
	for _, e := range entries {
		if e.Similarity >= minSimilarity {
			relevant = append(relevant, e)
		}
	}
	if len(relevant) == 0 {
		return "", false
	}

	if synthesized := s.synthesize(ctx, question, relevant); synthesized != "" {
		return synthesized, true
	}
	// Best retrieved answer verbatim when generation is unavailable.
	return relevant[0].Answer, true
}

func (s *Service) synthesize(ctx context.Context, question string, entries []Entry) string {
	var refs strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&refs, "%d. Q: %s\n   A: %s\n", i+1, e.Question, e.Answer)
	}

	resp, err := s.client.Complete(ctx, llm.Request{
		Messages: []llm.ChatMessage{{
			Role:    llm.ChatRoleUser,
			Content: fmt.Sprintf(synthesisPrompt, refs.String(), question),
		}},
		MaxTokens:   250,
		Temperature: 0.4,
	})
	if err != nil {
		s.logger.Warn("faq synthesis failed, returning retrieved answer", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

func tableFor(question string) string {
	lower := strings.ToLower(question)
	for _, kw := range travelKeywords {
		if strings.Contains(lower, kw) {
			return TableTravel
		}
	}
	return TableDental
}
