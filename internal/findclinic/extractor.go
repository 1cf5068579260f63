package findclinic

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// serviceKeywordGroups backs the deterministic extraction path. Checked in
// order: specific procedures must come before the generic cleaning group so
// "root canal cleaning appointment" resolves to root canal.
var serviceKeywordGroups = []struct {
	service  string
	keywords []string
}{
	{"root canal", []string{"root canal", "endodontic"}},
	{"dental implant", []string{"implant"}},
	{"veneers", []string{"veneer"}},
	{"braces", []string{"braces", "orthodontic", "invisalign", "aligner"}},
	{"teeth whitening", []string{"whitening", "whiten", "bleach"}},
	{"wisdom tooth surgery", []string{"wisdom tooth", "wisdom teeth"}},
	{"tooth extraction", []string{"extraction", "extract a tooth", "pull out"}},
	{"dental crowns", []string{"crown"}},
	{"dentures", []string{"denture"}},
	{"gum treatment", []string{"gum treatment", "gum disease", "periodont", "bleeding gums"}},
	{"kids dentistry", []string{"kids dentist", "children", "pediatric", "paediatric"}},
	{"cleaning", []string{"cleaning", "scaling", "scale and polish", "polish", "checkup", "check-up", "check up"}},
}

var knownServices = func() []string {
	out := make([]string, 0, len(serviceKeywordGroups))
	for _, g := range serviceKeywordGroups {
		out = append(out, g.service)
	}
	return out
}()

const extractionPromptTemplate = `You extract dental search filters from a chat message.

Return a JSON object with exactly these two fields, using null when absent:
{"service": <one of: %s, or null>, "township": <neighborhood or area name, or null>}

Rules:
- Always return both fields. Never invent values the user did not express.
- "them", "that one", "those" refer to earlier turns; resolve using the history.
- township is a neighborhood (e.g. "jurong", "taman molek"), not a country.

History:
%s

Message: %s`

// Extractor derives service and township filters from the latest message,
// combining a structured language-model call with keyword heuristics.
type Extractor struct {
	client llm.Client
	logger *logging.Logger
}

// NewExtractor creates an extractor backed by the given model client.
func NewExtractor(client llm.Client, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{client: client, logger: logger}
}

// Extract returns the current turn's filters. Model failures and unparseable
// replies degrade to the heuristic path; the heuristic result is appended to
// (never replaces) whatever the model produced, because services stack across
// turns.
func (e *Extractor) Extract(ctx context.Context, message string, history []llm.ChatMessage) FilterSet {
	var turn FilterSet

	modelService, modelTownship := e.modelExtract(ctx, message, history)
	if modelService != "" {
		turn = turn.AddService(modelService)
	}

	if heuristic := HeuristicService(message); heuristic != "" {
		turn = turn.AddService(heuristic)
	}

	township := modelTownship
	if township == "" {
		township = heuristicTownship(message)
	}
	turn.Township = SanitizeTownship(township, message)

	return turn
}

func (e *Extractor) modelExtract(ctx context.Context, message string, history []llm.ChatMessage) (string, string) {
	if e.client == nil {
		return "", ""
	}

	prompt := fmt.Sprintf(extractionPromptTemplate,
		strings.Join(knownServices, ", "),
		renderHistory(history),
		message,
	)

	resp, err := e.client.Complete(ctx, llm.Request{
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: prompt}},
		MaxTokens: 100,
		JSONMode:  true,
	})
	if err != nil {
		e.logger.Warn("entity extraction call failed, falling back to heuristics", "error", err)
		return "", ""
	}

	var result struct {
		Service  *string `json:"service"`
		Township *string `json:"township"`
	}
	payload := llm.ExtractJSON(resp.Text)
	if payload == "" {
		return "", ""
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		e.logger.Warn("entity extraction returned non-JSON", "error", err)
		return "", ""
	}

	var service, township string
	if result.Service != nil {
		service = strings.ToLower(strings.TrimSpace(*result.Service))
		if service == "null" || service == "none" {
			service = ""
		}
	}
	if result.Township != nil {
		township = strings.TrimSpace(*result.Township)
		if strings.EqualFold(township, "null") || strings.EqualFold(township, "none") {
			township = ""
		}
	}
	return service, township
}

func renderHistory(history []llm.ChatMessage) string {
	if len(history) == 0 {
		return "(none)"
	}
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// HeuristicService runs the ordered keyword groups against the message.
func HeuristicService(message string) string {
	lower := strings.ToLower(message)
	for _, group := range serviceKeywordGroups {
		for _, kw := range group.keywords {
			if strings.Contains(lower, kw) {
				return group.service
			}
		}
	}
	return ""
}

// nearPatterns catch "near X"/"around X" and "in X" area phrases, capturing
// up to three words. The near forms are checked first: they are more specific
// when both appear ("in singapore near jurong").
var nearPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:near|around|close to)\s+([a-z]+(?:\s+[a-z]+){0,2})`),
	regexp.MustCompile(`\bin\s+([a-z]+(?:\s+[a-z]+){0,2})`),
}

func heuristicTownship(message string) string {
	lower := strings.ToLower(message)
	// Longest match wins so "jurong east" beats "jurong".
	var best string
	for township := range townshipCountry {
		if strings.Contains(lower, township) && len(township) > len(best) {
			best = township
		}
	}
	return best
}

// SanitizeTownship trims punctuation and, when the extracted value is a
// country-level alias rather than a real neighborhood, scans the raw text for
// a more specific "near X"/"in X" phrase to use instead. The alias itself is
// kept when nothing better exists; the query router reinterprets it as a
// routing decision.
func SanitizeTownship(value, rawText string) string {
	value = strings.ToLower(strings.Trim(strings.TrimSpace(value), ".,!?;:"))
	if value == "" {
		return ""
	}
	if _, isAlias := CountryAlias(value); !isAlias {
		return value
	}

	lower := strings.ToLower(rawText)
	for _, pattern := range nearPatterns {
		for _, m := range pattern.FindAllStringSubmatch(lower, -1) {
			// Walk back from the full capture to shorter prefixes so
			// "near jurong please" still resolves to the known township.
			words := strings.Fields(strings.TrimSpace(m[1]))
			for n := len(words); n >= 1; n-- {
				phrase := strings.Join(words[:n], " ")
				if _, isAlias := CountryAlias(phrase); isAlias {
					continue
				}
				if _, known := TownshipCountry(phrase); known {
					return phrase
				}
			}
		}
	}
	return value
}

// searchVerbs signal that the user is actively hunting for a clinic.
var searchVerbs = []string{
	"find", "search", "recommend", "suggest", "show me", "list",
	"where can i", "where should i", "looking for", "any clinic",
	"any good", "which clinic", "need a dentist", "need a clinic",
}

// HasSearchIntent reports whether the message shows search intent: explicit
// search verbs or a detected service.
func HasSearchIntent(message string, turn FilterSet) bool {
	if len(turn.Services) > 0 {
		return true
	}
	lower := strings.ToLower(message)
	for _, verb := range searchVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
