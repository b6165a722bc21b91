package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters NFD leaves intact because they carry no combining mark.
var letterFolds = strings.NewReplacer(
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"æ", "ae",
	"œ", "oe",
	"ı", "i",
	"þ", "th",
)

// NormalizeName returns the comparison form of a display name: diacritics
// removed, case folded, apostrophes dropped, other punctuation turned into
// spaces, and whitespace collapsed. It never fails; empty input yields "".
func NormalizeName(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}

	// Transformers carry state, so each call builds its own chain.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	folded := letterFolds.Replace(cases.Fold().String(stripped))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case r == '\'' || r == '’' || r == '`' || r == '´':
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// Words splits the normalized form of s into words.
func Words(s string) []string {
	return strings.Fields(NormalizeName(s))
}

// NormalizeColor canonicalizes a hex colour to six lowercase digits without
// the leading '#'. Three-digit shorthand is expanded. Anything else yields "".
func NormalizeColor(s string) string {
	value := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	for _, r := range value {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return ""
		}
	}
	switch len(value) {
	case 6:
		return value
	case 3:
		return string([]byte{value[0], value[0], value[1], value[1], value[2], value[2]})
	default:
		return ""
	}
}
