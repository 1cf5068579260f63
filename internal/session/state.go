package session

import (
	"time"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/internal/findclinic"
)

// BookingStage tracks progress through the booking slot-filling flow.
type BookingStage string

const (
	BookingStageNone            BookingStage = ""
	BookingStageAwaitingName    BookingStage = "awaiting_name"
	BookingStageAwaitingPhone   BookingStage = "awaiting_phone"
	BookingStageAwaitingDate    BookingStage = "awaiting_date"
	BookingStageAwaitingConfirm BookingStage = "awaiting_confirm"
	BookingStageConfirmed       BookingStage = "confirmed"
)

// BookingContext is the in-progress booking carried across turns. A booking
// always references a clinic from the session's candidate pool.
type BookingContext struct {
	Stage         BookingStage `json:"stage"`
	ClinicID      int64        `json:"clinic_id"`
	ClinicName    string       `json:"clinic_name"`
	ClinicCountry string       `json:"clinic_country"`
	Service       string       `json:"service,omitempty"`
	PatientName   string       `json:"patient_name,omitempty"`
	Phone         string       `json:"phone,omitempty"`
	PreferredDate string       `json:"preferred_date,omitempty"`
}

// State is everything the concierge remembers about one session. It is stored
// as a single JSONB document and treated as immutable: transitions return a
// new State rather than mutating in place.
type State struct {
	SessionID          string                        `json:"session_id"`
	AppliedFilters     findclinic.FilterSet          `json:"applied_filters"`
	CandidatePool      []clinics.Record              `json:"candidate_pool,omitempty"`
	LocationPreference findclinic.LocationPreference `json:"location_preference,omitempty"`
	AwaitingLocation   bool                          `json:"awaiting_location,omitempty"`
	Booking            *BookingContext               `json:"booking,omitempty"`
	UpdatedAt          time.Time                     `json:"updated_at"`
}

// NewState returns the blank state for a fresh session.
func NewState(sessionID string) State {
	return State{SessionID: sessionID, UpdatedAt: time.Now().UTC()}
}

// WithSearchResult records a completed search turn.
func (s State) WithSearchResult(filters findclinic.FilterSet, pool []clinics.Record) State {
	out := s
	out.AppliedFilters = filters.Clone()
	out.CandidatePool = append([]clinics.Record(nil), pool...)
	out.AwaitingLocation = false
	out.UpdatedAt = time.Now().UTC()
	return out
}

// ApplyUpdate folds an engine state update into the session.
func (s State) ApplyUpdate(upd *findclinic.StateUpdate) State {
	if upd == nil {
		return s
	}
	out := s
	if upd.ClearLocation {
		out.LocationPreference = findclinic.LocationUnset
		out.AwaitingLocation = false
	} else {
		if upd.LocationPreference != findclinic.LocationUnset {
			out.LocationPreference = upd.LocationPreference
		}
		out.AwaitingLocation = upd.AwaitingLocation
	}
	out.UpdatedAt = time.Now().UTC()
	return out
}

// Reset clears filters, pool, location and any in-flight booking, keeping
// only the session identity.
func (s State) Reset() State {
	return State{SessionID: s.SessionID, UpdatedAt: time.Now().UTC()}
}

// WithFilters replaces the applied filters without touching the pool, used
// when a turn updates criteria but produces no new results.
func (s State) WithFilters(filters findclinic.FilterSet) State {
	out := s
	out.AppliedFilters = filters.Clone()
	out.UpdatedAt = time.Now().UTC()
	return out
}

// WithBooking attaches or replaces the in-progress booking.
func (s State) WithBooking(b *BookingContext) State {
	out := s
	out.Booking = b
	out.UpdatedAt = time.Now().UTC()
	return out
}

// ClinicAt returns the 1-based candidate from the pool, for ordinal
// references like "book the second one".
func (s State) ClinicAt(ordinal int) (clinics.Record, bool) {
	if ordinal < 1 || ordinal > len(s.CandidatePool) {
		return clinics.Record{}, false
	}
	return s.CandidatePool[ordinal-1], true
}
