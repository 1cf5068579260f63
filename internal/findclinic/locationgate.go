package findclinic

import "strings"

// townshipCountry maps known neighborhoods to their market, used both to
// infer a location preference and to sanity-check extracted townships.
var townshipCountry = map[string]LocationPreference{
	// Singapore
	"jurong":        LocationSG,
	"jurong east":   LocationSG,
	"jurong west":   LocationSG,
	"tampines":      LocationSG,
	"bedok":         LocationSG,
	"woodlands":     LocationSG,
	"orchard":       LocationSG,
	"bugis":         LocationSG,
	"yishun":        LocationSG,
	"punggol":       LocationSG,
	"hougang":       LocationSG,
	"clementi":      LocationSG,
	"ang mo kio":    LocationSG,
	"toa payoh":     LocationSG,
	"serangoon":     LocationSG,
	"bishan":        LocationSG,
	"novena":        LocationSG,
	"marine parade": LocationSG,
	"sengkang":      LocationSG,
	"bukit timah":   LocationSG,
	"pasir ris":     LocationSG,
	// Johor Bahru
	"taman molek":     LocationJB,
	"molek":           LocationJB,
	"mount austin":    LocationJB,
	"austin heights":  LocationJB,
	"bukit indah":     LocationJB,
	"skudai":          LocationJB,
	"tebrau":          LocationJB,
	"permas jaya":     LocationJB,
	"taman pelangi":   LocationJB,
	"larkin":          LocationJB,
	"johor jaya":      LocationJB,
	"kulai":           LocationJB,
	"senai":           LocationJB,
	"iskandar puteri": LocationJB,
	"nusajaya":        LocationJB,
	"danga bay":       LocationJB,
	"taman daya":      LocationJB,
	"setia indah":     LocationJB,
	"adda heights":    LocationJB,
	"taman sentosa":   LocationJB,
	"stulang":         LocationJB,
}

// countryAliases are country-level words that are sometimes extracted as a
// "township" and must be reinterpreted as a routing decision instead.
var countryAliases = map[string]LocationPreference{
	"singapore":   LocationSG,
	"sg":          LocationSG,
	"jb":          LocationJB,
	"johor":       LocationJB,
	"johor bahru": LocationJB,
	"malaysia":    LocationJB,
}

// CountryAlias reports whether a township value is really a country-level
// alias and which market it names.
func CountryAlias(value string) (LocationPreference, bool) {
	pref, ok := countryAliases[strings.ToLower(strings.TrimSpace(value))]
	return pref, ok
}

// TownshipCountry looks up the market a known neighborhood belongs to.
func TownshipCountry(value string) (LocationPreference, bool) {
	pref, ok := townshipCountry[strings.ToLower(strings.TrimSpace(value))]
	return pref, ok
}

func hasWord(text, word string) bool {
	for _, tok := range strings.Fields(text) {
		if strings.Trim(tok, `.,!?"'()`) == word {
			return true
		}
	}
	return false
}

// InferLocation reads an explicit market choice out of the message: country
// names, "both"/"all", or a known township.
func InferLocation(text string) LocationPreference {
	lower := strings.ToLower(text)

	mentionsSG := strings.Contains(lower, "singapore") || hasWord(lower, "sg")
	mentionsJB := strings.Contains(lower, "johor") || hasWord(lower, "jb")

	switch {
	case mentionsSG && mentionsJB:
		return LocationAll
	case hasWord(lower, "both") || hasWord(lower, "either") || strings.Contains(lower, "both countries") || strings.Contains(lower, "all locations") || strings.Contains(lower, "anywhere"):
		return LocationAll
	case mentionsSG:
		return LocationSG
	case mentionsJB:
		return LocationJB
	}

	// Aggregate township hits instead of returning the first, so a message
	// naming areas on both sides resolves the same way every time.
	var sawSG, sawJB bool
	for township, pref := range townshipCountry {
		if strings.Contains(lower, township) {
			if pref == LocationSG {
				sawSG = true
			} else {
				sawJB = true
			}
		}
	}
	switch {
	case sawSG && sawJB:
		return LocationAll
	case sawSG:
		return LocationSG
	case sawJB:
		return LocationJB
	}
	return LocationUnset
}

// GateDecision is the outcome of the location gate for one turn.
type GateDecision struct {
	Preference LocationPreference
	Committed  bool
	Blocked    bool
	Response   string
	MetaType   string
}

const locationPromptText = "Happy to help! Should I look in Johor Bahru, Singapore, or both? JB clinics are usually cheaper while SG clinics save you the trip across the Causeway."

const locationNudgeText = "I can help you find dental clinics in Singapore or Johor Bahru. Let me know what treatment you're after and which side of the Causeway suits you."

// ResolveLocation applies the transition and gating rules. An inference
// commits when the gate was awaiting an answer or no preference was set.
// Without a resolved preference no clinic query may run this turn: search
// intent earns the explicit picker, anything else a nudge.
func ResolveLocation(text string, current LocationPreference, awaiting bool, searchIntent bool) GateDecision {
	inferred := InferLocation(text)
	if inferred != LocationUnset && (awaiting || current == LocationUnset) {
		return GateDecision{Preference: inferred, Committed: true}
	}
	if current != LocationUnset {
		return GateDecision{Preference: current}
	}

	if searchIntent {
		return GateDecision{
			Blocked:  true,
			Response: locationPromptText,
			MetaType: MetaLocationPrompt,
		}
	}
	return GateDecision{
		Blocked:  true,
		Response: locationNudgeText,
	}
}
