package findclinic

import (
	"context"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// ClinicRepo is the full datastore surface the engine needs.
type ClinicRepo interface {
	ClinicSearcher
	ClinicQuerier
}

// EngineConfig carries the tunable thresholds. Observer is optional; when
// set, skipped-table query failures are counted on it.
type EngineConfig struct {
	SampleLimit int
	MinRating   float64
	MinReviews  int
	Observer    DatastoreObserver
}

// Engine is the clinic filter resolution engine: normalize, direct-name
// match, entity extraction, location gate, filter merge, routed query,
// quality gate, presentation.
type Engine struct {
	matcher   *Matcher
	extractor *Extractor
	router    *Router
	presenter *Presenter
	logger    *logging.Logger
}

// NewEngine wires the engine from explicitly injected collaborators.
func NewEngine(repo ClinicRepo, client llm.Client, logger *logging.Logger, cfg EngineConfig) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		matcher:   NewMatcher(repo, logger, cfg.SampleLimit, cfg.Observer),
		extractor: NewExtractor(client, logger),
		router:    NewRouter(repo, logger, cfg.MinRating, cfg.MinReviews, cfg.Observer),
		presenter: NewPresenter(client, logger),
		logger:    logger,
	}
}

const resetAck = "No problem, I've cleared everything. What would you like to look for now — and should I search Singapore, JB, or both?"

// Handle runs one search turn through the engine state machine.
func (e *Engine) Handle(ctx context.Context, in Input) Result {
	if IsResetMessage(in.Message, in.ResetKeywords) {
		return Result{
			Response:       resetAck,
			AppliedFilters: FilterSet{},
			CandidatePool:  nil,
			StateUpdate:    &StateUpdate{ClearLocation: true},
		}
	}

	norm := Normalize(in.Message)

	// Informational short-circuits never touch the datastore.
	if IsComparisonQuery(norm.Text) {
		return Result{
			Response:       ComparisonResponse(),
			AppliedFilters: in.PreviousFilters.Clone(),
			Meta:           &Meta{Type: MetaComparison},
		}
	}
	if IsCostQuery(norm.Text) {
		return Result{
			Response:       PriceResponse(norm.Text),
			AppliedFilters: in.PreviousFilters.Clone(),
			Meta:           &Meta{Type: MetaPriceInfo},
		}
	}

	// An answer to our own location question is never a clinic name.
	locationAnswer := in.AwaitingLocation && InferLocation(norm.Text) != LocationUnset
	if !locationAnswer {
		if outcome := e.matcher.Match(ctx, norm); outcome.Matched || outcome.NoMatch {
			return e.directMatchResult(in, outcome)
		}
	}

	turn := e.extractor.Extract(ctx, in.Message, in.History)
	merged, _ := MergeTurn(in.PreviousFilters, turn)

	searchIntent := HasSearchIntent(in.Message, turn)
	gate := ResolveLocation(norm.Text, in.LocationPreference, in.AwaitingLocation, searchIntent)
	if gate.Blocked {
		res := Result{
			Response:       gate.Response,
			AppliedFilters: merged,
			StateUpdate:    &StateUpdate{AwaitingLocation: true},
		}
		if gate.MetaType != "" {
			res.Meta = &Meta{Type: gate.MetaType, Options: LocationPromptOptions}
		}
		return res
	}

	route := e.router.Search(ctx, gate.Preference, merged)

	pref := gate.Preference
	if route.ForcedPreference != LocationUnset {
		pref = route.ForcedPreference
		merged.Township = ""
	}

	return Result{
		Response:       e.presenter.SearchSummary(ctx, route.Pool, merged, route.TownshipDropped),
		AppliedFilters: merged,
		CandidatePool:  route.Pool,
		StateUpdate:    &StateUpdate{LocationPreference: pref},
	}
}

func (e *Engine) directMatchResult(in Input, outcome MatchOutcome) Result {
	if outcome.NoMatch {
		res := Result{
			Response:       NoMatchResponse(outcome.CountryHint),
			AppliedFilters: in.PreviousFilters.Clone(),
			CandidatePool:  nil,
			Meta:           &Meta{Type: MetaNoDirectMatch},
		}
		// A detected country hint survives the failed lookup so the next
		// search doesn't re-prompt for location.
		if outcome.CountryHint != LocationUnset && in.LocationPreference == LocationUnset {
			res.StateUpdate = &StateUpdate{LocationPreference: outcome.CountryHint}
		}
		return res
	}

	return Result{
		Response:       ClinicDetail(outcome.Record, outcome.MultiBranch, outcome.BranchCount),
		AppliedFilters: in.PreviousFilters.Clone(),
		CandidatePool:  []clinics.Record{outcome.Record},
		Meta:           &Meta{Type: MetaClinicDetail},
		StateUpdate:    &StateUpdate{LocationPreference: outcome.CountryHint},
	}
}
