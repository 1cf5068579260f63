package clinics

import "strings"

// serviceBoolColumns is the fixed set of boolean feature columns present on
// both clinic tables.
var serviceBoolColumns = []string{
	"general_dentistry",
	"root_canal",
	"dental_implant",
	"braces",
	"composite_veneers",
	"porcelain_veneers",
	"teeth_whitening",
	"tooth_extraction",
	"wisdom_tooth_surgery",
	"dental_crowns",
	"dentures",
	"gum_treatment",
	"pediatric_dentistry",
}

// sentimentColumns are optional per-aspect review sentiment scores (0-10).
var sentimentColumns = []string{
	"staff_sentiment",
	"price_sentiment",
	"quality_sentiment",
	"waiting_time_sentiment",
}

// spokenServiceColumns maps what users say to the underlying boolean columns.
// A single spoken term can fan out to multiple columns; those are OR'd in the
// query. Anything not listed here falls through to space-to-underscore
// sanitation and is used as a column name directly.
var spokenServiceColumns = map[string][]string{
	"cleaning":          {"general_dentistry"},
	"checkup":           {"general_dentistry"},
	"check-up":          {"general_dentistry"},
	"polishing":         {"general_dentistry"},
	"scaling":           {"general_dentistry"},
	"veneers":           {"composite_veneers", "porcelain_veneers"},
	"veneer":            {"composite_veneers", "porcelain_veneers"},
	"implant":           {"dental_implant"},
	"implants":          {"dental_implant"},
	"whitening":         {"teeth_whitening"},
	"extraction":        {"tooth_extraction"},
	"wisdom tooth":      {"wisdom_tooth_surgery"},
	"crown":             {"dental_crowns"},
	"crowns":            {"dental_crowns"},
	"kids dentistry":    {"pediatric_dentistry"},
	"invisalign":        {"braces"},
	"orthodontics":      {"braces"},
}

// ServiceColumns resolves a spoken service term to the boolean columns it
// gates on. Multiple columns means OR semantics.
func ServiceColumns(service string) []string {
	service = strings.ToLower(strings.TrimSpace(service))
	if cols, ok := spokenServiceColumns[service]; ok {
		return cols
	}
	sanitized := strings.ReplaceAll(service, " ", "_")
	if sanitized == "" {
		return nil
	}
	return []string{sanitized}
}

// KnownServiceColumn reports whether col is one of the fixed boolean columns.
// Unknown columns are still queried (the sanitation fallback), but callers can
// use this to log when a filter is off the known map.
func KnownServiceColumn(col string) bool {
	for _, c := range serviceBoolColumns {
		if c == col {
			return true
		}
	}
	return false
}
