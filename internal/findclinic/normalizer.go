package findclinic

import "strings"

// Normalized is the cleaned form of a user utterance plus the distinct tokens
// every downstream stage keys off.
type Normalized struct {
	Raw    string
	Text   string
	Tokens []string
}

// HasSignal reports whether anything name-like survived stoplisting. Stages
// that need a concrete fragment (direct-name match) bail out when false.
func (n Normalized) HasSignal() bool {
	return len(n.Tokens) > 0
}

// unicodeReplacer folds the punctuation variants messaging apps produce into
// their ASCII forms before any table lookups run.
var unicodeReplacer = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	" ", " ",
	"–", "-",
	"—", "-",
)

// fillerPrefixes are stripped from the front of a message. Longer phrases
// first so "tell me all about" wins over "tell me about".
var fillerPrefixes = []string{
	"tell me all about",
	"tell me more about",
	"tell me about",
	"i want to know about",
	"i'm looking for",
	"im looking for",
	"i am looking for",
	"looking for",
	"can you find me",
	"can you find",
	"do you know about",
	"do you know",
	"what do you know about",
	"information about",
	"information on",
	"info about",
	"info on",
	"search for",
	"show me",
	"find me",
	"what about",
	"how about",
}

// substitutions corrects known misspellings and brand-name variants. Applied
// as ordered substring replacements on the lowercased text.
var substitutions = []struct {
	from string
	to   string
}{
	{"dentel", "dental"},
	{"dentall", "dental"},
	{"dentsit", "dentist"},
	{"clinc", "clinic"},
	{"cliic", "clinic"},
	{"q&m", "q & m"},
	{"q and m", "q & m"},
	{"qnm dental", "q & m dental"},
	{"johor baru", "johor bahru"},
	{"johore", "johor"},
	{"singapur", "singapore"},
	{"jurrong", "jurong"},
	{"tamines", "tampines"},
}

// stoplist holds generic dental and location words that carry no signal for
// direct-name matching.
var stoplist = map[string]bool{
	"dental": true, "dentist": true, "dentists": true, "dentistry": true,
	"clinic": true, "clinics": true, "tooth": true, "teeth": true,
	"klinik": true, "pergigian": true,
	"sg": true, "singapore": true, "jb": true, "johor": true, "bahru": true,
	"malaysia": true, "the": true, "a": true, "an": true, "in": true,
	"at": true, "near": true, "me": true, "my": true, "for": true,
	"please": true, "best": true, "good": true, "top": true, "any": true,
	"some": true, "is": true, "are": true, "of": true, "and": true,
	"or": true, "to": true, "about": true, "all": true, "there": true,
}

// Normalize lowercases and cleans a user utterance per the engine contract:
// unicode punctuation folding, filler-prefix stripping, typo and brand
// substitutions, then tokenization minus the stoplist. No side effects.
func Normalize(raw string) Normalized {
	text := strings.ToLower(strings.TrimSpace(raw))
	text = unicodeReplacer.Replace(text)

	for _, prefix := range fillerPrefixes {
		if strings.HasPrefix(text, prefix+" ") {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}

	for _, sub := range substitutions {
		text = strings.ReplaceAll(text, sub.from, sub.to)
	}
	text = strings.Join(strings.Fields(text), " ")

	return Normalized{
		Raw:    raw,
		Text:   text,
		Tokens: distinctTokens(text),
	}
}

// distinctTokens splits the cleaned text and drops stoplisted and trivially
// short tokens, preserving first-seen order.
func distinctTokens(text string) []string {
	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(text) {
		tok = strings.Trim(tok, `.,!?"'()&`)
		if len(tok) < 2 || stoplist[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}
