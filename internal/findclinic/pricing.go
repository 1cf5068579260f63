package findclinic

import (
	"fmt"
	"strings"
)

// costKeywords short-circuit a search turn into the canned price table.
var costKeywords = []string{
	"cost", "price", "pricing", "how much", "fees", "fee",
	"charges", "expensive", "cheap", "afford",
}

// comparisonKeywords short-circuit into the SG-vs-JB pros and cons reply.
var comparisonKeywords = []string{
	"compare", "comparison", "vs", "versus", "difference between",
	"jb or sg", "sg or jb", "jb or singapore", "singapore or jb",
	"which is better", "worth it to travel", "worth the trip", "pros and cons",
}

// PriceRange holds the advertised range per market for one procedure.
type PriceRange struct {
	SG string
	JB string
}

// procedureOrder keeps the full price table stable in replies.
var procedureOrder = []string{
	"cleaning",
	"teeth whitening",
	"tooth extraction",
	"wisdom tooth surgery",
	"root canal",
	"dental crowns",
	"dental implant",
	"veneers",
	"braces",
	"dentures",
}

// procedurePrices is the fixed price-range dictionary. Informational only;
// clinics set their own fees.
var procedurePrices = map[string]PriceRange{
	"cleaning":             {SG: "S$80 - S$150", JB: "RM80 - RM160"},
	"teeth whitening":      {SG: "S$400 - S$1,000", JB: "RM500 - RM1,200"},
	"tooth extraction":     {SG: "S$80 - S$250", JB: "RM90 - RM300"},
	"wisdom tooth surgery": {SG: "S$650 - S$1,500", JB: "RM800 - RM1,800"},
	"root canal":           {SG: "S$500 - S$1,500", JB: "RM450 - RM1,000"},
	"dental crowns":        {SG: "S$800 - S$1,800", JB: "RM900 - RM2,000"},
	"dental implant":       {SG: "S$3,000 - S$6,000", JB: "RM4,000 - RM7,500"},
	"veneers":              {SG: "S$400 - S$2,000 per tooth", JB: "RM500 - RM1,800 per tooth"},
	"braces":               {SG: "S$3,500 - S$8,000", JB: "RM4,500 - RM9,000"},
	"dentures":             {SG: "S$400 - S$2,500", JB: "RM500 - RM3,000"},
}

var procedureDisplayNames = map[string]string{
	"cleaning":             "Scaling & Polishing",
	"teeth whitening":      "Teeth Whitening",
	"tooth extraction":     "Tooth Extraction",
	"wisdom tooth surgery": "Wisdom Tooth Surgery",
	"root canal":           "Root Canal Treatment",
	"dental crowns":        "Dental Crown",
	"dental implant":       "Dental Implant",
	"veneers":              "Veneers",
	"braces":               "Braces",
	"dentures":             "Dentures",
}

// IsCostQuery reports whether the message is asking about prices.
func IsCostQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range costKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsComparisonQuery reports whether the message is asking to compare markets
// or treatments rather than to search.
func IsComparisonQuery(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range comparisonKeywords {
		if kw == "vs" {
			if hasWord(lower, "vs") || hasWord(lower, "vs.") {
				return true
			}
			continue
		}
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// PriceResponse renders the price range for the procedure mentioned in the
// message, or the full table when no single procedure is named.
func PriceResponse(message string) string {
	if service := HeuristicService(message); service != "" {
		if pr, ok := procedurePrices[service]; ok {
			return fmt.Sprintf(
				"Typical %s prices:\n- Singapore: %s\n- Johor Bahru: %s\n\nJB is usually 40-60%% cheaper for the same treatment. Want me to find highly rated clinics on either side?",
				procedureDisplayNames[service], pr.SG, pr.JB,
			)
		}
	}

	var b strings.Builder
	b.WriteString("Here's a rough price guide (Singapore vs Johor Bahru):\n")
	for _, proc := range procedureOrder {
		pr := procedurePrices[proc]
		fmt.Fprintf(&b, "- %s: %s | %s\n", procedureDisplayNames[proc], pr.SG, pr.JB)
	}
	b.WriteString("\nPrices vary by clinic. Want me to find highly rated clinics for a specific treatment?")
	return b.String()
}

// ComparisonResponse is the canned SG-vs-JB pros and cons reply.
func ComparisonResponse() string {
	return strings.TrimSpace(`
Here's how the two markets compare:

Singapore
+ No travel time, easy follow-up visits
+ MOH-regulated, CHAS/Medisave may apply for citizens and PRs
- Noticeably higher prices, especially for implants and crowns

Johor Bahru
+ Typically 40-60% cheaper for the same procedures
+ Many clinics cater to Singaporean patients with weekend hours
- Causeway jams can eat your savings in time
- Follow-ups mean another trip across

Rule of thumb: one-off big-ticket work (implants, crowns, veneers) is where JB
savings shine; for treatments needing several visits, factor in the commute.
Want me to pull up top-rated clinics on either side?`)
}
