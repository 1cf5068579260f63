package findclinic

import "strings"

// LocationPreference is the session-scoped market the user wants to search.
type LocationPreference string

const (
	LocationUnset LocationPreference = ""
	LocationSG    LocationPreference = "sg"
	LocationJB    LocationPreference = "jb"
	LocationAll   LocationPreference = "all"
)

// FilterSet is the accumulated search criteria carried across turns.
// Services is append-only with order-preserving dedup; it is only cleared by
// an explicit reset phrase.
type FilterSet struct {
	Services []string `json:"services,omitempty"`
	Township string   `json:"township,omitempty"`
}

// IsEmpty reports whether no criteria are set.
func (f FilterSet) IsEmpty() bool {
	return len(f.Services) == 0 && f.Township == ""
}

// Clone returns an independent copy so callers never alias the slice.
func (f FilterSet) Clone() FilterSet {
	out := FilterSet{Township: f.Township}
	if len(f.Services) > 0 {
		out.Services = append([]string(nil), f.Services...)
	}
	return out
}

// AddService appends a service keeping first-seen order and dropping dups.
func (f FilterSet) AddService(service string) FilterSet {
	service = strings.ToLower(strings.TrimSpace(service))
	if service == "" {
		return f
	}
	out := f.Clone()
	for _, s := range out.Services {
		if s == service {
			return out
		}
	}
	out.Services = append(out.Services, service)
	return out
}

// LatestService is the most recently added entry, used as the booking default.
func (f FilterSet) LatestService() string {
	if len(f.Services) == 0 {
		return ""
	}
	return f.Services[len(f.Services)-1]
}

// MergeTurn combines the current turn's extraction over the prior filters.
// The returned bool reports a narrowing turn: exactly one dimension was
// extracted and the other dimension had never been present, meaning the
// previous candidate pool answered a different question and must be dropped.
// Services still accumulate on narrowing turns; only a reset phrase clears
// them.
func MergeTurn(prev, cur FilterSet) (FilterSet, bool) {
	if cur.IsEmpty() {
		return prev.Clone(), false
	}

	newService := len(cur.Services) > 0
	newTownship := cur.Township != ""
	narrowed := (newService != newTownship) &&
		((newService && prev.Township == "") || (newTownship && len(prev.Services) == 0))

	merged := prev.Clone()
	for _, s := range cur.Services {
		merged = merged.AddService(s)
	}
	if cur.Township != "" {
		merged.Township = cur.Township
	}
	return merged, narrowed
}

// DefaultResetKeywords trigger a full filter, pool and location reset.
var DefaultResetKeywords = []string{
	"never mind",
	"nevermind",
	"start over",
	"start again",
	"reset",
	"restart",
	"forget it",
	"clear filters",
}

// IsResetMessage reports whether the message contains any reset keyword.
func IsResetMessage(text string, keywords []string) bool {
	if len(keywords) == 0 {
		keywords = DefaultResetKeywords
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
