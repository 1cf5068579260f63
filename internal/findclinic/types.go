package findclinic

import (
	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
)

// Recognized meta types on engine results.
const (
	MetaLocationPrompt = "location_prompt"
	MetaClinicDetail   = "clinic_detail"
	MetaNoDirectMatch  = "no_direct_match"
	MetaPriceInfo      = "price_info"
	MetaComparison     = "comparison"
)

// LocationPromptOptions are the fixed picker choices shown with a
// location_prompt.
var LocationPromptOptions = []string{"jb", "sg", "both"}

// Meta carries structured hints for the calling UI alongside the text reply.
type Meta struct {
	Type    string   `json:"type"`
	Options []string `json:"options,omitempty"`
	Note    string   `json:"note,omitempty"`
}

// Input is the engine's per-turn contract with the orchestrator.
type Input struct {
	Message            string
	History            []llm.ChatMessage
	PreviousFilters    FilterSet
	LocationPreference LocationPreference
	AwaitingLocation   bool
	ResetKeywords      []string
}

// DatastoreObserver counts clinic-table query failures. The engine skips a
// failing table rather than erroring the turn, so the counter is the only
// place those failures surface besides logs.
type DatastoreObserver interface {
	ObserveDatastoreError(table string)
}

// StateUpdate tells the orchestrator how to mutate session state after the
// turn. ClearLocation wins over LocationPreference.
type StateUpdate struct {
	LocationPreference LocationPreference `json:"location_preference,omitempty"`
	AwaitingLocation   bool               `json:"awaiting_location,omitempty"`
	ClearLocation      bool               `json:"clear_location,omitempty"`
}

// Result is the engine's per-turn output contract.
type Result struct {
	Response       string           `json:"response"`
	AppliedFilters FilterSet        `json:"applied_filters"`
	CandidatePool  []clinics.Record `json:"candidate_pool"`
	Meta           *Meta            `json:"meta,omitempty"`
	StateUpdate    *StateUpdate     `json:"state_update,omitempty"`
}
