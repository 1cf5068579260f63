package clinics

import (
	"net/url"
	"strings"
)

// Country codes used across the two markets.
const (
	CountrySG = "SG"
	CountryMY = "MY"
)

// Table names in the managed datastore. clinics_data holds the Johor Bahru
// listings for historical reasons; sg_clinics holds Singapore.
const (
	TableJB = "clinics_data"
	TableSG = "sg_clinics"
)

// Record is a clinic row as surfaced to the conversation layer. The stored
// embedding column is never scanned into a Record.
type Record struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Address    string             `json:"address"`
	Township   string             `json:"township"`
	Country    string             `json:"country"`
	Rating     float64            `json:"rating"`
	Reviews    int                `json:"reviews"`
	IsMetroJB  bool               `json:"is_metro_jb,omitempty"`
	Services   map[string]bool    `json:"services,omitempty"`
	Sentiments map[string]float64 `json:"sentiments,omitempty"`
	Tags       []string           `json:"tags,omitempty"`
	MapLink    string             `json:"map_link,omitempty"`
}

// serviceDisplayNames drives the derived tags shown alongside a clinic.
var serviceDisplayNames = map[string]string{
	"general_dentistry":    "General Dentistry",
	"root_canal":           "Root Canal",
	"dental_implant":       "Dental Implants",
	"braces":               "Braces",
	"composite_veneers":    "Composite Veneers",
	"porcelain_veneers":    "Porcelain Veneers",
	"teeth_whitening":      "Teeth Whitening",
	"tooth_extraction":     "Tooth Extraction",
	"wisdom_tooth_surgery": "Wisdom Tooth Surgery",
	"dental_crowns":        "Crowns",
	"dentures":             "Dentures",
	"gum_treatment":        "Gum Treatment",
	"pediatric_dentistry":  "Kids Dentistry",
}

// tagOrder keeps derived tags stable across turns.
var tagOrder = []string{
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

// Decorate computes the derived presentation fields (tags, map link) in place.
func (r *Record) Decorate() {
	r.Tags = r.Tags[:0]
	for _, col := range tagOrder {
		if r.Services[col] {
			r.Tags = append(r.Tags, serviceDisplayNames[col])
		}
	}
	if strings.TrimSpace(r.Address) != "" {
		q := url.QueryEscape(r.Name + " " + r.Address)
		r.MapLink = "https://www.google.com/maps/search/?api=1&query=" + q
	}
}

// CountryForTable maps a source table to its country code.
func CountryForTable(table string) string {
	if table == TableSG {
		return CountrySG
	}
	return CountryMY
}
