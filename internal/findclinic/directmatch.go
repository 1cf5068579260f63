package findclinic

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

// ClinicSearcher is the slice of the clinic repository the matcher needs.
type ClinicSearcher interface {
	SearchByNameFragment(ctx context.Context, table, fragment string) ([]clinics.Record, error)
	SearchByTokens(ctx context.Context, table string, tokens []string) ([]clinics.Record, error)
	Sample(ctx context.Context, table string, limit int) ([]clinics.Record, error)
}

// BrandPattern is a recognized multi-branch chain. A brand query searches all
// branches and picks the best one, always noting that other branches exist.
type BrandPattern struct {
	Canonical string
	Variants  []string
	Tables    []string
}

var brandPatterns = []BrandPattern{
	{
		Canonical: "Q & M Dental",
		Variants:  []string{"q & m"},
		Tables:    []string{clinics.TableSG},
	},
	{
		Canonical: "Unity Denticare",
		Variants:  []string{"unity denticare", "ntuc denticare"},
		Tables:    []string{clinics.TableSG},
	},
	{
		Canonical: "Tiew Dental",
		Variants:  []string{"tiew dental", "tiew"},
		Tables:    []string{clinics.TableJB},
	},
}

// MatchOutcome reports what the direct-name stage decided for a turn.
type MatchOutcome struct {
	// Matched means one clinic was confidently identified.
	Matched bool
	Record  clinics.Record
	// MultiBranch marks a brand match; BranchCount is how many branches the
	// chain has across the searched tables.
	MultiBranch bool
	BranchCount int
	// NoMatch means the message was clearly name-directed but nothing crossed
	// the acceptance threshold. The handler must answer "no match" rather
	// than fall through to generic search.
	NoMatch bool
	// CountryHint carries any explicit country detected in the message so a
	// no-match reply can preserve it.
	CountryHint LocationPreference
}

const defaultSimilarityThreshold = 0.80

// Matcher decides whether the user is asking about one specific named clinic
// before any broader search runs.
type Matcher struct {
	repo                ClinicSearcher
	logger              *logging.Logger
	sampleLimit         int
	similarityThreshold float64
	obs                 DatastoreObserver
}

// NewMatcher builds a matcher. sampleLimit bounds the fuzzy-scoring fallback
// fetch per table. obs may be nil.
func NewMatcher(repo ClinicSearcher, logger *logging.Logger, sampleLimit int, obs DatastoreObserver) *Matcher {
	if repo == nil {
		panic("findclinic: clinic searcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if sampleLimit <= 0 {
		sampleLimit = 200
	}
	return &Matcher{
		repo:                repo,
		logger:              logger,
		sampleLimit:         sampleLimit,
		similarityThreshold: defaultSimilarityThreshold,
		obs:                 obs,
	}
}

// Match runs the staged name lookup. A zero MatchOutcome means the message is
// not name-directed and the caller should continue with criteria search.
func (m *Matcher) Match(ctx context.Context, norm Normalized) MatchOutcome {
	tables, hint := countryTables(norm.Text)

	if brand := matchBrand(norm.Text); brand != nil {
		return m.matchBrandBranches(ctx, *brand, hint)
	}

	if !m.looksNameDirected(norm) {
		return MatchOutcome{CountryHint: hint}
	}

	nameTokens := nameTokens(norm.Tokens)
	if len(nameTokens) == 0 {
		return MatchOutcome{CountryHint: hint}
	}
	fragment := strings.Join(nameTokens, " ")

	// Stage 1: substring match on the full fragment.
	candidates := m.collect(ctx, tables, func(table string) ([]clinics.Record, error) {
		return m.repo.SearchByNameFragment(ctx, table, fragment)
	})

	// Stage 2: per-token substring queries.
	if len(candidates) == 0 {
		candidates = m.collect(ctx, tables, func(table string) ([]clinics.Record, error) {
			return m.repo.SearchByTokens(ctx, table, nameTokens)
		})
	}

	if len(candidates) > 0 {
		best := pickBestScored(candidates, fragment, nameTokens)
		best.Decorate()
		return MatchOutcome{Matched: true, Record: best, CountryHint: countryPreference(best.Country)}
	}

	// Stage 3: bounded sample plus fuzzy scoring. Accept only with a
	// meaningful token hit or high whole-string similarity; otherwise report
	// no match instead of substituting unrelated search results.
	sample := m.collect(ctx, tables, func(table string) ([]clinics.Record, error) {
		return m.repo.Sample(ctx, table, m.sampleLimit)
	})

	var (
		best      clinics.Record
		bestScore float64
		accepted  bool
	)
	for _, rec := range sample {
		score, meaningfulHits, similarity := scoreCandidate(rec.Name, fragment, nameTokens)
		if meaningfulHits < 1 && similarity < m.similarityThreshold {
			continue
		}
		if !accepted || score > bestScore {
			best = rec
			bestScore = score
			accepted = true
		}
	}

	if !accepted {
		return MatchOutcome{NoMatch: true, CountryHint: hint}
	}
	best.Decorate()
	return MatchOutcome{Matched: true, Record: best, CountryHint: countryPreference(best.Country)}
}

// matchBrandBranches searches every branch of a recognized chain and selects
// the highest (rating, reviews) one.
func (m *Matcher) matchBrandBranches(ctx context.Context, brand BrandPattern, hint LocationPreference) MatchOutcome {
	seen := make(map[int64]bool)
	var branches []clinics.Record
	for _, table := range brand.Tables {
		for _, variant := range brand.Variants {
			recs, err := m.repo.SearchByNameFragment(ctx, table, variant)
			if err != nil {
				m.logger.Warn("brand branch query failed, skipping table", "table", table, "error", err)
				if m.obs != nil {
					m.obs.ObserveDatastoreError(table)
				}
				continue
			}
			for _, rec := range recs {
				if !seen[rec.ID] {
					seen[rec.ID] = true
					branches = append(branches, rec)
				}
			}
		}
	}

	if len(branches) == 0 {
		return MatchOutcome{NoMatch: true, CountryHint: hint}
	}

	sort.SliceStable(branches, func(i, j int) bool {
		if branches[i].Rating != branches[j].Rating {
			return branches[i].Rating > branches[j].Rating
		}
		return branches[i].Reviews > branches[j].Reviews
	})

	best := branches[0]
	best.Decorate()
	return MatchOutcome{
		Matched:     true,
		Record:      best,
		MultiBranch: true,
		BranchCount: len(branches),
		CountryHint: countryPreference(best.Country),
	}
}

// looksNameDirected filters out criteria searches: a detected service or an
// explicit search verb means the user wants a list, not one clinic.
func (m *Matcher) looksNameDirected(norm Normalized) bool {
	if !norm.HasSignal() {
		return false
	}
	if HeuristicService(norm.Text) != "" {
		return false
	}
	lower := norm.Text
	for _, verb := range searchVerbs {
		if strings.Contains(lower, verb) {
			return false
		}
	}
	return true
}

func (m *Matcher) collect(ctx context.Context, tables []string, query func(table string) ([]clinics.Record, error)) []clinics.Record {
	seen := make(map[string]bool)
	var out []clinics.Record
	for _, table := range tables {
		recs, err := query(table)
		if err != nil {
			m.logger.Warn("direct match query failed, skipping table", "table", table, "error", err)
			if m.obs != nil {
				m.obs.ObserveDatastoreError(table)
			}
			continue
		}
		for _, rec := range recs {
			key := rec.Country + "/" + strings.ToLower(rec.Name)
			if !seen[key] {
				seen[key] = true
				out = append(out, rec)
			}
		}
	}
	return out
}

// countryTables picks candidate tables from explicit country keywords.
func countryTables(text string) ([]string, LocationPreference) {
	mentionsSG := strings.Contains(text, "singapore") || hasWord(text, "sg")
	mentionsJB := strings.Contains(text, "johor") || hasWord(text, "jb")
	switch {
	case mentionsSG && !mentionsJB:
		return []string{clinics.TableSG}, LocationSG
	case mentionsJB && !mentionsSG:
		return []string{clinics.TableJB}, LocationJB
	default:
		return []string{clinics.TableJB, clinics.TableSG}, LocationUnset
	}
}

func countryPreference(country string) LocationPreference {
	if country == clinics.CountrySG {
		return LocationSG
	}
	return LocationJB
}

func matchBrand(text string) *BrandPattern {
	for i := range brandPatterns {
		for _, variant := range brandPatterns[i].Variants {
			if strings.Contains(text, variant) {
				return &brandPatterns[i]
			}
		}
	}
	return nil
}

// nameTokens drops location words from the distinct tokens so "zeta smile
// hub jb" matches on the name alone.
func nameTokens(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		if _, isTownship := TownshipCountry(tok); isTownship {
			continue
		}
		if _, isAlias := CountryAlias(tok); isAlias {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// scoreCandidate combines token containment, meaningful-token containment and
// whole-string similarity into one ranking score.
func scoreCandidate(name, fragment string, tokens []string) (score float64, meaningfulHits int, similarity float64) {
	lowerName := strings.ToLower(name)

	tokenHits := 0
	for _, tok := range tokens {
		if strings.Contains(lowerName, tok) {
			tokenHits++
			if !stoplist[tok] {
				meaningfulHits++
			}
		}
	}

	similarity = similarityRatio(fragment, lowerName)
	score = float64(tokenHits) + 2*float64(meaningfulHits) + 3*similarity
	return score, meaningfulHits, similarity
}

// similarityRatio is a normalized Levenshtein ratio in [0, 1].
func similarityRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	if dist >= maxLen {
		return 0
	}
	return 1 - float64(dist)/float64(maxLen)
}

// pickBestScored ranks substring-query hits so a multi-row result still
// resolves to the single most plausible clinic.
func pickBestScored(candidates []clinics.Record, fragment string, tokens []string) clinics.Record {
	best := candidates[0]
	bestScore, _, _ := scoreCandidate(best.Name, fragment, tokens)
	for _, rec := range candidates[1:] {
		score, _, _ := scoreCandidate(rec.Name, fragment, tokens)
		if score > bestScore ||
			(score == bestScore && (rec.Rating > best.Rating ||
				(rec.Rating == best.Rating && rec.Reviews > best.Reviews))) {
			best = rec
			bestScore = score
		}
	}
	return best
}
