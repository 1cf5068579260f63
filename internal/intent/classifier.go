package intent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/findclinic"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// Intent is the routed conversation purpose for one turn.
type Intent string

const (
	IntentFindClinic      Intent = "find_clinic"
	IntentBooking         Intent = "booking"
	IntentGeneralQuestion Intent = "general_question"
	IntentSessionRecall   Intent = "session_recall"
	IntentOutOfScope      Intent = "out_of_scope"
)

var validIntents = map[Intent]bool{
	IntentFindClinic:      true,
	IntentBooking:         true,
	IntentGeneralQuestion: true,
	IntentSessionRecall:   true,
	IntentOutOfScope:      true,
}

// keywordRules score the cheap deterministic path. The model is only
// consulted when no rule fires.
var keywordRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentBooking, []string{
		"book", "appointment", "reserve", "schedule", "slot",
		"first one", "second one", "third one", "1st one", "2nd one", "3rd one",
	}},
	{IntentSessionRecall, []string{
		"what did i", "which ones did you", "show me again", "earlier you",
		"you mentioned", "last time", "remind me", "what were those",
	}},
	{IntentFindClinic, []string{
		"clinic", "dentist", "dental", "find", "recommend", "near",
		"root canal", "braces", "implant", "whitening", "cleaning",
		"veneer", "crown", "denture", "extraction", "wisdom tooth",
		"how much", "cost", "price", "cheaper",
	}},
	{IntentGeneralQuestion, []string{
		"causeway", "customs", "immigration", "travel", "grab", "bus",
		"ciq", "passport", "how do i get", "is it safe", "insurance",
	}},
}

const classifierPrompt = `Classify this message to a dental-clinic concierge for Singapore and Johor Bahru into ONE intent. Respond with JSON only.

Intents:
- find_clinic: Looking for clinics, treatments, prices, or asking about a specific clinic
- booking: Wants to book, confirm or continue booking an appointment
- general_question: Travel, crossing the Causeway, logistics, safety, or general dental questions
- session_recall: Asking about something from earlier in this conversation
- out_of_scope: Anything unrelated to dental care or SG/JB travel

Message: %s

Respond with: {"intent": "<intent_name>"}`

// Classifier routes a turn to a handler, keyword rules first and the model
// as a fallback.
type Classifier struct {
	client llm.Client
	logger *logging.Logger
}

// NewClassifier creates the intent classifier. A nil client disables the
// model fallback.
func NewClassifier(client llm.Client, logger *logging.Logger) *Classifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &Classifier{client: client, logger: logger}
}

// Classify determines the intent of a message. An in-flight booking biases
// ambiguous turns toward booking so mid-flow answers ("my name is Mei") stay
// in the flow.
func (c *Classifier) Classify(ctx context.Context, message string, bookingInProgress bool) Intent {
	message = strings.TrimSpace(message)
	if message == "" {
		return IntentOutOfScope
	}

	if intent, ok := classifyByKeywords(message); ok {
		return intent
	}
	if bookingInProgress {
		return IntentBooking
	}
	if intent, ok := c.classifyByModel(ctx, message); ok {
		return intent
	}
	return IntentGeneralQuestion
}

func classifyByKeywords(message string) (Intent, bool) {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent, true
			}
		}
	}
	// A bare location answer or reset phrase belongs to the search flow.
	if findclinic.InferLocation(lower) != findclinic.LocationUnset ||
		findclinic.IsResetMessage(lower, nil) {
		return IntentFindClinic, true
	}
	return "", false
}

func (c *Classifier) classifyByModel(ctx context.Context, message string) (Intent, bool) {
	if c.client == nil {
		return "", false
	}

	resp, err := c.client.Complete(ctx, llm.Request{
		Messages:  []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: strings.Replace(classifierPrompt, "%s", message, 1)}},
		MaxTokens: 50,
		JSONMode:  true,
	})
	if err != nil {
		c.logger.Warn("intent classification call failed", "error", err)
		return "", false
	}

	var result struct {
		Intent string `json:"intent"`
	}
	payload := llm.ExtractJSON(resp.Text)
	if payload == "" {
		return "", false
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return "", false
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(result.Intent)))
	if validIntents[intent] {
		return intent, true
	}
	return "", false
}
