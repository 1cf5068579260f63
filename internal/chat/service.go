package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smilelink-ai/dental-concierge/internal/booking"
	"github.com/smilelink-ai/dental-concierge/internal/findclinic"
	"github.com/smilelink-ai/dental-concierge/internal/intent"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/internal/observability/metrics"
	"github.com/smilelink-ai/dental-concierge/internal/session"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// Service describes how the concierge conversation loop behaves.
type Service interface {
	StartConversation(ctx context.Context, req StartRequest) (*Response, error)
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, conversationID string) ([]Message, error)
}

// StartRequest opens a conversation. ConversationID is optional; one is
// generated when absent.
type StartRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
}

// MessageRequest is a single user turn.
type MessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// Response is the DTO returned to the API layer.
type Response struct {
	ConversationID string           `json:"conversation_id"`
	Message        string           `json:"message"`
	Meta           *findclinic.Meta `json:"meta,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

const greeting = "Hi! I'm your dental concierge for Singapore and Johor Bahru. Tell me what treatment you're after, ask about prices, or ask how to get across the Causeway."

const outOfScopeReply = "I can only help with dental clinics in Singapore and Johor Bahru, treatments, prices, bookings and getting across the Causeway. What can I find for you?"

const generalFallbackReply = "I'm not sure about that one. I can help with dental treatments, clinic recommendations in SG and JB, prices, and Causeway travel tips."

// Collaborator surfaces, narrowed for testability.
type (
	SessionStore interface {
		LoadOrNew(ctx context.Context, sessionID string) (session.State, error)
		Save(ctx context.Context, state session.State) error
	}

	HistoryStore interface {
		Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)
		Append(ctx context.Context, sessionID string, msgs ...llm.ChatMessage) error
		Clear(ctx context.Context, sessionID string) error
	}

	Transcripts interface {
		Append(ctx context.Context, sessionID, role, content, marker string) error
		Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	}

	SearchEngine interface {
		Handle(ctx context.Context, in findclinic.Input) findclinic.Result
	}

	BookingFlow interface {
		Handle(message string, state session.State) booking.Result
	}

	Answerer interface {
		Answer(ctx context.Context, question string) (string, bool)
	}

	IntentClassifier interface {
		Classify(ctx context.Context, message string, bookingInProgress bool) intent.Intent
	}
)

// Concierge runs the per-turn loop: load session, classify, dispatch,
// persist.
type Concierge struct {
	sessions    SessionStore
	history     HistoryStore
	transcripts Transcripts
	engine      SearchEngine
	booking     BookingFlow
	faq         Answerer
	classifier  IntentClassifier
	metrics     *metrics.ChatMetrics
	logger      *logging.Logger
}

// ConciergeDeps bundles the constructor wiring.
type ConciergeDeps struct {
	Sessions    SessionStore
	History     HistoryStore
	Transcripts Transcripts
	Engine      SearchEngine
	Booking     BookingFlow
	FAQ         Answerer
	Classifier  IntentClassifier
	Metrics     *metrics.ChatMetrics
	Logger      *logging.Logger
}

// NewConcierge wires the conversation service.
func NewConcierge(deps ConciergeDeps) *Concierge {
	if deps.Sessions == nil || deps.History == nil || deps.Engine == nil ||
		deps.Booking == nil || deps.Classifier == nil {
		panic("chat: missing required collaborator")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Concierge{
		sessions:    deps.Sessions,
		history:     deps.History,
		transcripts: deps.Transcripts,
		engine:      deps.Engine,
		booking:     deps.Booking,
		faq:         deps.FAQ,
		classifier:  deps.Classifier,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
}

// StartConversation creates the session and returns the greeting.
func (c *Concierge) StartConversation(ctx context.Context, req StartRequest) (*Response, error) {
	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = uuid.NewString()
	}

	state, err := c.sessions.LoadOrNew(ctx, id)
	if err != nil {
		c.metrics.ObserveDatastoreError("sessions")
		return nil, fmt.Errorf("chat: failed to open session: %w", err)
	}
	if err := c.sessions.Save(ctx, state); err != nil {
		c.metrics.ObserveDatastoreError("sessions")
		return nil, fmt.Errorf("chat: failed to save session: %w", err)
	}

	c.appendTranscript(ctx, id, llm.ChatRoleAssistant, greeting, MarkerNone)
	return &Response{
		ConversationID: id,
		Message:        greeting,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// ProcessMessage runs one turn end to end.
func (c *Concierge) ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error) {
	sessionID := strings.TrimSpace(req.ConversationID)
	if sessionID == "" {
		return nil, errors.New("chat: conversation_id required")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.New("chat: message required")
	}

	state, err := c.sessions.LoadOrNew(ctx, sessionID)
	if err != nil {
		c.metrics.ObserveDatastoreError("sessions")
		c.observeTurn("unknown", "error")
		return nil, fmt.Errorf("chat: failed to load session: %w", err)
	}
	history, err := c.history.Load(ctx, sessionID)
	if err != nil {
		c.logger.Warn("history load failed, continuing without context",
			"session_id", sessionID, "error", err)
	}

	bookingInProgress := state.Booking != nil &&
		state.Booking.Stage != session.BookingStageNone &&
		state.Booking.Stage != session.BookingStageConfirmed

	turnIntent := c.classifier.Classify(ctx, message, bookingInProgress)

	var (
		reply string
		meta  *findclinic.Meta
	)
	switch turnIntent {
	case intent.IntentFindClinic:
		reply, meta, state = c.handleSearch(ctx, message, history, state)
	case intent.IntentBooking:
		reply, state = c.handleBooking(ctx, message, state)
	case intent.IntentGeneralQuestion:
		reply = c.handleQuestion(ctx, message)
	case intent.IntentSessionRecall:
		reply = recallSummary(state, history)
	default:
		reply = outOfScopeReply
	}

	if err := c.sessions.Save(ctx, state); err != nil {
		c.metrics.ObserveDatastoreError("sessions")
		c.observeTurn(string(turnIntent), "error")
		return nil, fmt.Errorf("chat: failed to persist session: %w", err)
	}
	if err := c.history.Append(ctx, sessionID,
		llm.ChatMessage{Role: llm.ChatRoleUser, Content: message},
		llm.ChatMessage{Role: llm.ChatRoleAssistant, Content: reply},
	); err != nil {
		c.logger.Warn("history append failed", "session_id", sessionID, "error", err)
	}
	c.appendTranscript(ctx, sessionID, llm.ChatRoleUser, message, MarkerNone)
	c.appendTranscript(ctx, sessionID, llm.ChatRoleAssistant, reply, MarkerNone)

	c.observeTurn(string(turnIntent), "ok")
	return &Response{
		ConversationID: sessionID,
		Message:        reply,
		Meta:           meta,
		Timestamp:      time.Now().UTC(),
	}, nil
}

// GetHistory returns the durable transcript for a conversation.
func (c *Concierge) GetHistory(ctx context.Context, conversationID string) ([]Message, error) {
	if c.transcripts == nil {
		return nil, nil
	}
	return c.transcripts.Recent(ctx, conversationID, 0)
}

func (c *Concierge) handleSearch(ctx context.Context, message string, history []llm.ChatMessage, state session.State) (string, *findclinic.Meta, session.State) {
	res := c.engine.Handle(ctx, findclinic.Input{
		Message:            message,
		History:            history,
		PreviousFilters:    state.AppliedFilters,
		LocationPreference: state.LocationPreference,
		AwaitingLocation:   state.AwaitingLocation,
	})

	if res.StateUpdate != nil && res.StateUpdate.ClearLocation {
		state = state.Reset()
		// A reset wipes the rolling context too, so stale turns can't
		// leak into the next extraction.
		if err := c.history.Clear(ctx, state.SessionID); err != nil {
			c.logger.Warn("history clear failed", "session_id", state.SessionID, "error", err)
		}
		return res.Response, res.Meta, state
	}

	if len(res.CandidatePool) > 0 {
		state = state.WithSearchResult(res.AppliedFilters, res.CandidatePool)
	} else {
		// Gated or informational turns update criteria but keep the pool.
		state = state.WithFilters(res.AppliedFilters)
	}
	state = state.ApplyUpdate(res.StateUpdate)
	return res.Response, res.Meta, state
}

func (c *Concierge) handleBooking(ctx context.Context, message string, state session.State) (string, session.State) {
	res := c.booking.Handle(message, state)
	if res.Confirmed && res.State.Booking != nil {
		c.appendTranscript(ctx, state.SessionID, llm.ChatRoleAssistant,
			fmt.Sprintf("Booking request: %s at %s, %s, contact %s",
				res.State.Booking.Service, res.State.Booking.ClinicName,
				res.State.Booking.PreferredDate, res.State.Booking.Phone),
			MarkerBookingConfirmed)
	}
	return res.Response, res.State
}

func (c *Concierge) handleQuestion(ctx context.Context, message string) string {
	if c.faq != nil {
		if answer, ok := c.faq.Answer(ctx, message); ok {
			return answer
		}
	}
	return generalFallbackReply
}

// recallSummary answers "what did I search for" style turns from session
// state alone, no model call.
func recallSummary(state session.State, history []llm.ChatMessage) string {
	var b strings.Builder
	b.WriteString("Here's where we are:\n")

	if len(state.AppliedFilters.Services) > 0 {
		fmt.Fprintf(&b, "- Treatments you've asked about: %s\n", strings.Join(state.AppliedFilters.Services, ", "))
	}
	if state.AppliedFilters.Township != "" {
		fmt.Fprintf(&b, "- Area: %s\n", state.AppliedFilters.Township)
	}
	switch state.LocationPreference {
	case findclinic.LocationSG:
		b.WriteString("- Searching: Singapore\n")
	case findclinic.LocationJB:
		b.WriteString("- Searching: Johor Bahru\n")
	case findclinic.LocationAll:
		b.WriteString("- Searching: both Singapore and JB\n")
	}
	if len(state.CandidatePool) > 0 {
		names := make([]string, 0, len(state.CandidatePool))
		for _, rec := range state.CandidatePool {
			names = append(names, rec.Name)
		}
		fmt.Fprintf(&b, "- Your current shortlist: %s\n", strings.Join(names, "; "))
	}
	if state.Booking != nil && state.Booking.ClinicName != "" {
		fmt.Fprintf(&b, "- Booking in progress at %s\n", state.Booking.ClinicName)
	}

	if b.Len() == len("Here's where we are:\n") {
		if len(history) == 0 {
			return "We haven't searched for anything yet. Tell me what treatment you need and I'll find some options."
		}
		return "We've chatted, but there's no active search or shortlist right now. What would you like to look for?"
	}
	b.WriteString("\nWant to refine the search or book one of them?")
	return b.String()
}

func (c *Concierge) appendTranscript(ctx context.Context, sessionID, role, content, marker string) {
	if c.transcripts == nil {
		return
	}
	if err := c.transcripts.Append(ctx, sessionID, role, content, marker); err != nil {
		c.logger.Warn("transcript append failed", "session_id", sessionID, "error", err)
		c.metrics.ObserveDatastoreError("conversations")
	}
}

func (c *Concierge) observeTurn(intentLabel, status string) {
	c.metrics.ObserveTurn(intentLabel, status)
}
