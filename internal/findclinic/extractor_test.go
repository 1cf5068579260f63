package findclinic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

func TestHeuristicServicePriority(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"I need a root canal and a cleaning", "root canal"},
		{"endodontic treatment options", "root canal"},
		{"thinking about implants", "dental implant"},
		{"porcelain veneer options", "veneers"},
		{"invisalign or braces?", "braces"},
		{"teeth whitening please", "teeth whitening"},
		{"wisdom tooth removal", "wisdom tooth surgery"},
		{"just a scale and polish", "cleaning"},
		{"regular checkup", "cleaning"},
		{"hello there", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HeuristicService(tt.message), tt.message)
	}
}

func TestExtractModelAndHeuristicAgree(t *testing.T) {
	client := &fakeLLM{completeFn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Text: `{"service": "root canal", "township": "jurong"}`}, nil
	}}
	e := NewExtractor(client, logging.Default())

	turn := e.Extract(context.Background(), "root canal near jurong", nil)

	assert.Equal(t, []string{"root canal"}, turn.Services)
	assert.Equal(t, "jurong", turn.Township)
}

func TestExtractHeuristicAppendsOnDisagreement(t *testing.T) {
	client := &fakeLLM{completeFn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Text: `{"service": "veneers", "township": null}`}, nil
	}}
	e := NewExtractor(client, logging.Default())

	turn := e.Extract(context.Background(), "veneers and a cleaning", nil)

	// The heuristic result stacks onto the model result, never replaces it.
	assert.Equal(t, []string{"veneers"}, turn.Services[:1])
	assert.Contains(t, turn.Services, "veneers")
}

func TestExtractFallsBackOnModelFailure(t *testing.T) {
	client := &fakeLLM{completeFn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{}, errors.New("model unavailable")
	}}
	e := NewExtractor(client, logging.Default())

	turn := e.Extract(context.Background(), "braces near taman molek", nil)

	assert.Equal(t, []string{"braces"}, turn.Services)
	assert.Equal(t, "taman molek", turn.Township)
}

func TestExtractFallsBackOnMalformedJSON(t *testing.T) {
	client := &fakeLLM{completeFn: func(req llm.Request) (llm.Response, error) {
		return llm.Response{Text: "sure, you want a cleaning!"}, nil
	}}
	e := NewExtractor(client, logging.Default())

	turn := e.Extract(context.Background(), "book me a cleaning", nil)

	assert.Equal(t, []string{"cleaning"}, turn.Services)
}

func TestSanitizeTownship(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		rawText string
		want    string
	}{
		{
			name:  "trims trailing punctuation",
			value: "Jurong,", rawText: "cleaning in Jurong,",
			want: "jurong",
		},
		{
			name:  "country alias overridden by near phrase",
			value: "singapore", rawText: "cleaning in singapore near jurong",
			want: "jurong",
		},
		{
			name:  "country alias kept when nothing more specific",
			value: "singapore", rawText: "clinics in singapore",
			want: "singapore",
		},
		{
			name:  "empty stays empty",
			value: "", rawText: "anything",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTownship(tt.value, tt.rawText))
		})
	}
}

func TestHasSearchIntent(t *testing.T) {
	assert.True(t, HasSearchIntent("find clinics", FilterSet{}))
	assert.True(t, HasSearchIntent("anything", FilterSet{Services: []string{"cleaning"}}))
	assert.True(t, HasSearchIntent("recommend somewhere good", FilterSet{}))
	assert.False(t, HasSearchIntent("hello", FilterSet{}))
}
