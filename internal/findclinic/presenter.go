package findclinic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

const summaryPrompt = `You are a friendly dental concierge for Singapore and Johor Bahru.
Summarize these clinics for the user in a warm, conversational tone.

Rules:
- Do NOT dump raw data or repeat every field. Pick what matters: why each
  clinic stands out, roughly where it is, and its rating.
- Keep it under 120 words total.
- End by offering to book an appointment at any of them.

Clinics (JSON):
%s`

// Presenter renders engine outcomes into user-facing text. Generation
// failures always degrade to a deterministic rendering; presentation never
// hard-fails.
type Presenter struct {
	client llm.Client
	logger *logging.Logger
}

// NewPresenter builds a presenter over the given model client. A nil client
// means the deterministic fallback is always used.
func NewPresenter(client llm.Client, logger *logging.Logger) *Presenter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Presenter{client: client, logger: logger}
}

// SearchSummary describes up to three ranked clinics.
func (p *Presenter) SearchSummary(ctx context.Context, pool []clinics.Record, filters FilterSet, areaDropped bool) string {
	if len(pool) == 0 {
		return emptyResultsResponse(filters)
	}

	prefix := ""
	if areaDropped && filters.Township != "" {
		prefix = fmt.Sprintf("I couldn't find clinics right in %s, so here are the top picks nearby instead.\n\n", titleCase(filters.Township))
	}

	if summary := p.modelSummary(ctx, pool); summary != "" {
		return prefix + summary
	}
	return prefix + bulletFallback(pool)
}

func (p *Presenter) modelSummary(ctx context.Context, pool []clinics.Record) string {
	if p.client == nil {
		return ""
	}

	payload, err := json.Marshal(summaryView(pool))
	if err != nil {
		return ""
	}

	resp, err := p.client.Complete(ctx, llm.Request{
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: fmt.Sprintf(summaryPrompt, payload)}},
		MaxTokens:   300,
		Temperature: 0.6,
	})
	if err != nil {
		p.logger.Warn("summary generation failed, using fallback rendering", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

// summaryView strips the record down to what the model should see.
func summaryView(pool []clinics.Record) []map[string]any {
	out := make([]map[string]any, 0, len(pool))
	for _, rec := range pool {
		out = append(out, map[string]any{
			"name":     rec.Name,
			"township": rec.Township,
			"country":  rec.Country,
			"rating":   rec.Rating,
			"reviews":  rec.Reviews,
			"tags":     rec.Tags,
		})
	}
	return out
}

// bulletFallback is the deterministic rendering used whenever generation
// fails or returns nothing.
func bulletFallback(pool []clinics.Record) string {
	var b strings.Builder
	b.WriteString("Here are the top picks:\n")
	for i, rec := range pool {
		fmt.Fprintf(&b, "%d. %s — %.1f stars (%d reviews)", i+1, rec.Name, rec.Rating, rec.Reviews)
		if rec.Township != "" {
			fmt.Fprintf(&b, ", %s", rec.Township)
		}
		if rec.Country != "" {
			fmt.Fprintf(&b, " (%s)", rec.Country)
		}
		if len(rec.Tags) > 0 {
			fmt.Fprintf(&b, "\n   Services: %s", strings.Join(firstN(rec.Tags, 4), ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("\nWant me to book you in at any of these?")
	return b.String()
}

// ClinicDetail renders a single direct-name or brand match.
func ClinicDetail(rec clinics.Record, multiBranch bool, branchCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %.1f stars (%d reviews)\n", rec.Name, rec.Rating, rec.Reviews)
	if rec.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", rec.Address)
	}
	if len(rec.Tags) > 0 {
		fmt.Fprintf(&b, "Services: %s\n", strings.Join(rec.Tags, ", "))
	}
	if rec.MapLink != "" {
		fmt.Fprintf(&b, "Map: %s\n", rec.MapLink)
	}
	if multiBranch && branchCount > 1 {
		fmt.Fprintf(&b, "\nNote: this chain has %d branches in our listings; I've shown the top-rated one. Ask me about a specific branch if you have one in mind.\n", branchCount)
	}
	b.WriteString("\nWould you like to book an appointment here?")
	return b.String()
}

// NoMatchResponse answers a name-directed query that matched nothing. It
// never substitutes unrelated search results.
func NoMatchResponse(hint LocationPreference) string {
	where := "Singapore or Johor Bahru"
	switch hint {
	case LocationSG:
		where = "Singapore"
	case LocationJB:
		where = "Johor Bahru"
	}
	return fmt.Sprintf("I couldn't find a clinic by that name in our %s listings. Double-check the spelling, or tell me the treatment you're after and I'll suggest some highly rated options.", where)
}

func emptyResultsResponse(filters FilterSet) string {
	if len(filters.Services) > 0 {
		return fmt.Sprintf("I couldn't find clinics matching %s that meet our quality bar (4.5+ stars, 30+ reviews). Try a different treatment or widen the area?", strings.Join(filters.Services, " + "))
	}
	return "I couldn't find clinics matching that. Try naming a treatment (e.g. cleaning, braces, implants) or an area?"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func firstN(list []string, n int) []string {
	if len(list) <= n {
		return list
	}
	return list[:n]
}
