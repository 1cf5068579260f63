package booking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/session"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// Result is one booking-flow turn: the reply plus the next session state.
type Result struct {
	Response  string
	State     session.State
	Confirmed bool
}

// Flow is the slot-filling booking state machine. It has no external
// scheduling integration; a confirmed booking is handed to the clinic by the
// operations team from the transcript.
type Flow struct {
	logger *logging.Logger
}

// NewFlow creates the booking flow handler.
func NewFlow(logger *logging.Logger) *Flow {
	if logger == nil {
		logger = logging.Default()
	}
	return &Flow{logger: logger}
}

// Handle advances the booking flow by one turn.
func (f *Flow) Handle(message string, state session.State) Result {
	if state.Booking == nil || state.Booking.Stage == session.BookingStageNone {
		return f.start(message, state)
	}
	return f.advance(message, state)
}

func (f *Flow) start(message string, state session.State) Result {
	if len(state.CandidatePool) == 0 {
		return Result{
			Response: "I don't have any clinics lined up for you yet. Tell me what treatment you need and whether you'd prefer Singapore or JB, and I'll find some options first.",
			State:    state,
		}
	}

	ordinal, explicit := parseOrdinal(message)
	if !explicit && len(state.CandidatePool) == 1 {
		ordinal = 1
	}
	if ordinal == 0 {
		return Result{
			Response: fmt.Sprintf("Sure! Which one would you like to book — say \"the first one\" through \"the %s one\", or the clinic's name.", ordinalWord(len(state.CandidatePool))),
			State:    state,
		}
	}

	rec, ok := state.ClinicAt(ordinal)
	if !ok {
		return Result{
			Response: fmt.Sprintf("I only have %d clinic%s in your current shortlist, so there's no number %d. Which of them would you like?",
				len(state.CandidatePool), plural(len(state.CandidatePool)), ordinal),
			State: state,
		}
	}

	booking := &session.BookingContext{
		Stage:         session.BookingStageAwaitingName,
		ClinicID:      rec.ID,
		ClinicName:    rec.Name,
		ClinicCountry: rec.Country,
		Service:       state.AppliedFilters.LatestService(),
	}

	intro := fmt.Sprintf("Great choice — %s it is.", rec.Name)
	if booking.Service != "" {
		intro = fmt.Sprintf("Great choice — %s for your %s.", rec.Name, booking.Service)
	}
	return Result{
		Response: intro + " What name should I put the appointment under?",
		State:    state.WithBooking(booking),
	}
}

func (f *Flow) advance(message string, state session.State) Result {
	b := *state.Booking
	text := strings.TrimSpace(message)

	switch b.Stage {
	case session.BookingStageAwaitingName:
		name := parseName(text)
		if name == "" {
			return Result{Response: "Sorry, I didn't catch that. What's the name for the booking?", State: state}
		}
		b.PatientName = name
		b.Stage = session.BookingStageAwaitingPhone
		return Result{
			Response: fmt.Sprintf("Thanks %s! What phone number can the clinic reach you on?", name),
			State:    state.WithBooking(&b),
		}

	case session.BookingStageAwaitingPhone:
		phone := parsePhone(text)
		if phone == "" {
			return Result{Response: "That doesn't look like a phone number I can pass on. Could you share it with the country code, e.g. +65 9123 4567?", State: state}
		}
		b.Phone = phone
		b.Stage = session.BookingStageAwaitingDate
		return Result{
			Response: "Got it. When would you like to come in? A day and rough time is fine, e.g. \"Saturday morning\".",
			State:    state.WithBooking(&b),
		}

	case session.BookingStageAwaitingDate:
		if text == "" {
			return Result{Response: "When would suit you? A day and rough time is fine.", State: state}
		}
		b.PreferredDate = text
		b.Stage = session.BookingStageAwaitingConfirm
		return Result{
			Response: confirmationSummary(b),
			State:    state.WithBooking(&b),
		}

	case session.BookingStageAwaitingConfirm:
		if isAffirmative(text) {
			b.Stage = session.BookingStageConfirmed
			return Result{
				Response:  confirmedMessage(b),
				State:     state.WithBooking(&b),
				Confirmed: true,
			}
		}
		if isNegative(text) {
			return Result{
				Response: "No worries, I've cancelled that request. Want to pick a different clinic or change the details?",
				State:    state.WithBooking(nil),
			}
		}
		return Result{Response: confirmationSummary(b), State: state}

	default:
		// Confirmed or unknown stage: treat as a new booking attempt.
		cleared := state.WithBooking(nil)
		return f.start(message, cleared)
	}
}

func confirmationSummary(b session.BookingContext) string {
	var sb strings.Builder
	sb.WriteString("Here's what I have:\n")
	fmt.Fprintf(&sb, "- Clinic: %s\n", b.ClinicName)
	if b.Service != "" {
		fmt.Fprintf(&sb, "- Treatment: %s\n", b.Service)
	}
	fmt.Fprintf(&sb, "- Name: %s\n", b.PatientName)
	fmt.Fprintf(&sb, "- Phone: %s\n", b.Phone)
	fmt.Fprintf(&sb, "- Preferred time: %s\n", b.PreferredDate)
	sb.WriteString("\nShall I send this request to the clinic? (yes/no)")
	return sb.String()
}

func confirmedMessage(b session.BookingContext) string {
	return fmt.Sprintf("All set! I've sent your request to %s for %s. They'll confirm the exact slot with you at %s. Anything else I can help with?",
		b.ClinicName, b.PreferredDate, b.Phone)
}

// ordinalPatterns map spoken ordinal references to pool positions. Checked
// highest first: "the second one" must not resolve via the bare "one".
var ordinalPatterns = []struct {
	pattern *regexp.Regexp
	value   int
}{
	{regexp.MustCompile(`\b(fifth|5th|number 5|#5)\b`), 5},
	{regexp.MustCompile(`\b(fourth|4th|number 4|#4)\b`), 4},
	{regexp.MustCompile(`\b(third|3rd|three|number 3|#3)\b`), 3},
	{regexp.MustCompile(`\b(second|2nd|two|number 2|#2)\b`), 2},
	{regexp.MustCompile(`\b(first|1st|one|number 1|#1)\b`), 1},
}

func parseOrdinal(message string) (int, bool) {
	lower := strings.ToLower(message)
	for _, p := range ordinalPatterns {
		if p.pattern.MatchString(lower) {
			return p.value, true
		}
	}
	return 0, false
}

var namePrefixes = []string{
	"my name is", "the name is", "name is", "it's", "its", "i'm", "i am",
	"under", "put it under",
}

func parseName(text string) string {
	lower := strings.ToLower(text)
	for _, prefix := range namePrefixes {
		if strings.HasPrefix(lower, prefix+" ") {
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}
	text = strings.Trim(text, ".,!")
	if text == "" || len(text) > 80 {
		return ""
	}
	return text
}

var phonePattern = regexp.MustCompile(`\+?[0-9][0-9 \-()]{6,18}[0-9]`)

func parsePhone(text string) string {
	match := phonePattern.FindString(text)
	if match == "" {
		return ""
	}
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		return ""
	}
	return strings.TrimSpace(match)
}

func isAffirmative(text string) bool {
	switch strings.ToLower(strings.Trim(text, ".,! ")) {
	case "yes", "yep", "yeah", "ya", "ok", "okay", "sure", "confirm", "go ahead", "please do", "y":
		return true
	}
	return false
}

func isNegative(text string) bool {
	lower := strings.ToLower(strings.Trim(text, ".,! "))
	switch lower {
	case "no", "nope", "nah", "cancel", "n", "stop":
		return true
	}
	return strings.Contains(lower, "cancel")
}

func ordinalWord(n int) string {
	words := []string{"", "first", "second", "third", "fourth", "fifth"}
	if n >= 1 && n < len(words) {
		return words[n]
	}
	return fmt.Sprintf("%dth", n)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
