package normalize

import (
	"regexp"
	"sort"
	"strings"

	"paddock/internal/config"
)

// Boilerplate that decorates event names without identifying the event.
var defaultSponsorTokens = []string{
	"formula 1", "formula one", "f1", "fia", "world championship",
	"grand prix", "grands prix", "gran premio", "grande premio", "grosser preis", "gp",
	"heineken", "heineken silver", "aramco", "rolex", "pirelli", "qatar airways",
	"etihad airways", "gulf air", "emirates", "singapore airlines", "aws", "crypto com",
	"lenovo", "msc cruises", "stc", "socar", "ooredoo", "louis vuitton", "tag heuer",
	"vtb", "liberty media",
}

// Corporate suffixes removed from team names before comparison.
var teamSuffixTokens = []string{
	"formula one team", "formula 1 team", "f1 team", "racing team", "team",
}

// Short codes and nicknames of circuits, keyed by normalized form.
var defaultAbbreviations = map[string]string{
	"cota":        "Circuit of the Americas",
	"ims":         "Indianapolis Motor Speedway",
	"cgv":         "Circuit Gilles Villeneuve",
	"rbr":         "Red Bull Ring",
	"sic":         "Sepang International Circuit",
	"bic":         "Buddh International Circuit",
	"lvsc":        "Las Vegas Strip Circuit",
	"spa":         "Circuit de Spa-Francorchamps",
	"monza":       "Autodromo Nazionale Monza",
	"imola":       "Autodromo Enzo e Dino Ferrari",
	"interlagos":  "Autodromo Jose Carlos Pace",
	"silverstone": "Silverstone Circuit",
	"yas marina":  "Yas Marina Circuit",
}

// Linking words left dangling once "grand prix" and friends are removed.
var eventConnectives = map[string]struct{}{
	"de": {}, "del": {}, "della": {}, "di": {}, "do": {}, "da": {}, "du": {},
	"des": {}, "of": {}, "the": {}, "von": {}, "van": {},
}

var seasonYear = regexp.MustCompile(`^(19|20)\d\d$`)

// Normalizer strips boilerplate and expands abbreviations using immutable
// tables fixed at construction. It is safe for concurrent use.
type Normalizer struct {
	sponsors      [][]string
	teamSuffixes  [][]string
	abbreviations map[string]string
}

// New builds a Normalizer from the built-in tables extended by cfg.
func New(cfg config.Normalization) *Normalizer {
	abbreviations := make(map[string]string, len(defaultAbbreviations)+len(cfg.Abbreviations))
	for code, name := range defaultAbbreviations {
		abbreviations[code] = name
	}
	for code, name := range cfg.Abbreviations {
		if key := NormalizeName(code); key != "" {
			abbreviations[key] = name
		}
	}
	return &Normalizer{
		sponsors:      tokenTable(append(append([]string(nil), defaultSponsorTokens...), cfg.SponsorTokens...)),
		teamSuffixes:  tokenTable(teamSuffixTokens),
		abbreviations: abbreviations,
	}
}

// Default returns a Normalizer with only the built-in tables.
func Default() *Normalizer {
	return New(config.Normalization{})
}

// StripSponsorText removes sponsor names, series boilerplate and season years
// from s and returns the normalized remainder. Longer tokens win over shorter
// ones that share a prefix. A linking word such as "de" or "of" that followed
// a removed token is removed with it. When nothing but boilerplate remains the plain
// normalized name is returned so the result is never empty for non-empty input.
func (n *Normalizer) StripSponsorText(s string) string {
	words := Words(s)
	kept := stripTokens(words, n.sponsors, true, eventConnectives)
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}

// Team returns the normalized team name with corporate suffixes removed.
func (n *Normalizer) Team(s string) string {
	words := Words(s)
	kept := stripTokens(words, n.teamSuffixes, false, nil)
	if len(kept) == 0 {
		return strings.Join(words, " ")
	}
	return strings.Join(kept, " ")
}

// ExpandAbbreviation maps a known circuit short code or nickname to its full
// name. Matching is on the whole normalized input; unknown input is returned
// unchanged.
func (n *Normalizer) ExpandAbbreviation(s string) string {
	if full, ok := n.abbreviations[NormalizeName(s)]; ok {
		return full
	}
	return s
}

// tokenTable normalizes tokens into word sequences ordered longest first.
func tokenTable(tokens []string) [][]string {
	seen := make(map[string]struct{}, len(tokens))
	table := make([][]string, 0, len(tokens))
	for _, token := range tokens {
		words := Words(token)
		key := strings.Join(words, " ")
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		table = append(table, words)
	}
	sort.SliceStable(table, func(i, j int) bool {
		li, lj := len(strings.Join(table[i], " ")), len(strings.Join(table[j], " "))
		if li != lj {
			return li > lj
		}
		return strings.Join(table[i], " ") < strings.Join(table[j], " ")
	})
	return table
}

// stripTokens drops table tokens from words. A connective directly after a
// dropped token goes with it ("grand prix de monaco" keeps "monaco").
func stripTokens(words []string, table [][]string, dropYears bool, connectives map[string]struct{}) []string {
	kept := make([]string, 0, len(words))
	afterToken := false
	for i := 0; i < len(words); {
		if dropYears && seasonYear.MatchString(words[i]) {
			i++
			continue
		}
		if span := matchToken(words[i:], table); span > 0 {
			i += span
			afterToken = true
			continue
		}
		if _, ok := connectives[words[i]]; ok && afterToken && i+1 < len(words) {
			i++
			continue
		}
		kept = append(kept, words[i])
		afterToken = false
		i++
	}
	return kept
}

func matchToken(words []string, table [][]string) int {
	for _, token := range table {
		if len(token) > len(words) {
			continue
		}
		matched := true
		for k := range token {
			if words[k] != token[k] {
				matched = false
				break
			}
		}
		if matched {
			return len(token)
		}
	}
	return 0
}
