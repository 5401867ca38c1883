// Package normalizers provides the shared normalization functions used by
// person dedup, change dedup and change detection. Keeping them in one place
// guarantees the same behavior everywhere.
package normalizers

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("remove_punctuation", RemovePunctuation)
	Register("nname", NormalizePersonName)
	Register("ncompany", NormalizeCompanyName)
	Register("ntitle", NormalizeTitle)
	Register("nurl", NormalizeURL)
	Register("nemail", NormalizeEmail)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// personSuffixes are stripped from names before matching. Generational and
// credential suffixes vary by source and never distinguish two people within
// one unit.
var personSuffixes = []string{
	" jr.", " jr", " sr.", " sr", " iii", " ii", " iv",
	" phd", " ph.d.", " md", " m.d.", " mba", " cpa", " cfa", " esq", " esq.",
}

// NormalizePersonName normalizes a person's name for identity matching:
// lowercase, strip generational/credential suffixes, drop punctuation,
// collapse whitespace.
func NormalizePersonName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	changed := true
	for changed {
		changed = false
		for _, suffix := range personSuffixes {
			if strings.HasSuffix(s, suffix) {
				s = strings.TrimSpace(s[:len(s)-len(suffix)])
				// a name may carry more than one suffix ("John Smith Jr., CPA")
				s = strings.TrimRight(s, ",")
				changed = true
			}
		}
	}

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) || r == '-' || r == '\'' || r == '.' {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// legalSuffixes are corporate designators stripped when grouping discovered
// unit names. "Acme Corp." and "Acme Corporation" are the same unit.
var legalSuffixes = []string{
	"incorporated", "corporation", "company", "limited", "holdings",
	"inc", "corp", "co", "ltd", "llc", "llp", "lp", "plc", "gmbh", "sa", "ag", "nv", "bv",
}

// NormalizeCompanyName normalizes a business unit name for the
// (parent, normalized-name) natural key: lowercase, strip punctuation and
// trailing legal suffixes, collapse whitespace.
func NormalizeCompanyName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var cleaned strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cleaned.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) || unicode.IsPunct(r) || r == '&' {
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	tokens := strings.Fields(cleaned.String())
	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		stripped := false
		for _, suffix := range legalSuffixes {
			if last == suffix {
				tokens = tokens[:len(tokens)-1]
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}

	return strings.Join(tokens, " ")
}

// titlePhrases contracts multi-word title phrases so "Chief Executive
// Officer" and "CEO" compare equal. Longer phrases are replaced first.
var titlePhrases = []struct{ from, to string }{
	{"chief executive officer", "ceo"},
	{"chief financial officer", "cfo"},
	{"chief operating officer", "coo"},
	{"chief technology officer", "cto"},
	{"chief information officer", "cio"},
	{"chief marketing officer", "cmo"},
	{"chief human resources officer", "chro"},
	{"chief legal officer", "clo"},
	{"executive vice president", "evp"},
	{"senior vice president", "svp"},
	{"vice president", "vp"},
}

// titleWords canonicalizes single tokens; applied per token to avoid
// rewriting substrings of unrelated words.
var titleWords = map[string]string{
	"senior": "sr",
	"junior": "jr",
	"and":    "&",
	"exec":   "executive",
	"mgr":    "manager",
	"dir":    "director",
	"pres":   "president",
}

var titleSpaceRe = regexp.MustCompile(`\s+`)

// NormalizeTitle canonicalizes a free-text title for equality comparison:
// lowercase, expand/contract known abbreviations, drop punctuation, collapse
// whitespace.
func NormalizeTitle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", " ")
	s = titleSpaceRe.ReplaceAllString(s, " ")

	for _, abbr := range titlePhrases {
		s = strings.ReplaceAll(s, abbr.from, abbr.to)
	}

	var cleaned strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '&' {
			cleaned.WriteRune(r)
		}
	}

	tokens := strings.Fields(cleaned.String())
	for i, tok := range tokens {
		if canonical, ok := titleWords[tok]; ok {
			tokens[i] = canonical
		}
	}

	return strings.Join(tokens, " ")
}

// NormalizeURL normalizes a profile or page URL for exact-match identity:
// lowercase scheme/host, strip trailing slash, drop query and fragment.
func NormalizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(s), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")

	return u.String()
}

// DomainOf extracts the lowercased host from a URL, stripping a www prefix.
// Returns "" for unparseable input.
func DomainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}
