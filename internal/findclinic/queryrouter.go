package findclinic

import (
	"context"
	"sort"
	"strings"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// ClinicQuerier is the slice of the clinic repository the router needs.
type ClinicQuerier interface {
	Query(ctx context.Context, table string, spec clinics.QuerySpec) ([]clinics.Record, error)
}

const maxCandidates = 3

// RouteResult is the ranked outcome of a search turn.
type RouteResult struct {
	Pool []clinics.Record
	// TownshipDropped is set when the in-memory area filter matched nothing
	// and the unfiltered country result set was kept instead.
	TownshipDropped bool
	// ForcedPreference is non-empty when a country-alias township overrode
	// the routing decision for this turn.
	ForcedPreference LocationPreference
}

// Router builds and executes per-table clinic queries, then applies the
// quality gate and ranking.
type Router struct {
	repo       ClinicQuerier
	logger     *logging.Logger
	minRating  float64
	minReviews int
	obs        DatastoreObserver
}

// NewRouter builds a router with the given quality-gate thresholds. obs may
// be nil.
func NewRouter(repo ClinicQuerier, logger *logging.Logger, minRating float64, minReviews int, obs DatastoreObserver) *Router {
	if repo == nil {
		panic("findclinic: clinic querier required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if minRating <= 0 {
		minRating = 4.5
	}
	if minReviews <= 0 {
		minReviews = 30
	}
	return &Router{repo: repo, logger: logger, minRating: minRating, minReviews: minReviews, obs: obs}
}

// Search executes the routed queries for the resolved preference and filters.
func (r *Router) Search(ctx context.Context, pref LocationPreference, filters FilterSet) RouteResult {
	var result RouteResult

	township := filters.Township
	spec := clinics.QuerySpec{}
	for _, service := range filters.Services {
		if cols := clinics.ServiceColumns(service); len(cols) > 0 {
			spec.ServiceGroups = append(spec.ServiceGroups, cols)
		}
	}

	// Metro and district special cases: a country-alias "township" is a
	// routing decision, not a text filter.
	if alias, ok := CountryAlias(township); ok {
		township = ""
		switch alias {
		case LocationSG:
			pref = LocationSG
			result.ForcedPreference = LocationSG
		case LocationJB:
			pref = LocationJB
			result.ForcedPreference = LocationJB
			if isMetroAlias(filters.Township) {
				metro := true
				spec.MetroJB = &metro
			}
		}
	}

	var pool []clinics.Record
	for _, table := range tablesFor(pref) {
		recs, err := r.repo.Query(ctx, table, spec)
		if err != nil {
			r.logger.Warn("clinic query failed, skipping table", "table", table, "error", err)
			if r.obs != nil {
				r.obs.ObserveDatastoreError(table)
			}
			continue
		}
		for i := range recs {
			if recs[i].Country == "" {
				recs[i].Country = clinics.CountryForTable(table)
			}
		}
		pool = append(pool, recs...)
	}

	// A real neighborhood is never pushed into the remote query; fuzzy or
	// partial spellings are tolerated by substring-filtering in memory. An
	// empty filter result keeps the unfiltered set rather than dead-ending.
	if township != "" {
		filtered := filterByArea(pool, township)
		if len(filtered) > 0 {
			pool = filtered
		} else {
			result.TownshipDropped = true
		}
	}

	pool = r.qualityGate(pool)
	sortByQuality(pool)
	if len(pool) > maxCandidates {
		pool = pool[:maxCandidates]
	}
	for i := range pool {
		pool[i].Decorate()
	}

	result.Pool = pool
	return result
}

// metroAliases are the township values that mean downtown JB rather than a
// named taman.
func isMetroAlias(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "jb", "johor bahru":
		return true
	}
	return false
}

func tablesFor(pref LocationPreference) []string {
	switch pref {
	case LocationSG:
		return []string{clinics.TableSG}
	case LocationJB:
		return []string{clinics.TableJB}
	default:
		return []string{clinics.TableJB, clinics.TableSG}
	}
}

func filterByArea(pool []clinics.Record, township string) []clinics.Record {
	needle := strings.ToLower(township)
	var out []clinics.Record
	for _, rec := range pool {
		if strings.Contains(strings.ToLower(rec.Township), needle) ||
			strings.Contains(strings.ToLower(rec.Address), needle) {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Router) qualityGate(pool []clinics.Record) []clinics.Record {
	var out []clinics.Record
	for _, rec := range pool {
		if rec.Rating >= r.minRating && rec.Reviews >= r.minReviews {
			out = append(out, rec)
		}
	}
	return out
}

// sortByQuality orders by rating descending, reviews as tie-break.
func sortByQuality(pool []clinics.Record) {
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Rating != pool[j].Rating {
			return pool[i].Rating > pool[j].Rating
		}
		return pool[i].Reviews > pool[j].Reviews
	})
}
