package normalize

import "strings"

type country struct {
	alpha2 string   // ISO 3166-1 alpha-2
	alpha3 string   // ISO 3166-1 alpha-3
	ioc    string   // sporting code when it differs from alpha-3 (e.g. "GER")
	words  []string // normalized nationality adjectives and country names
}

var countries = []country{
	{"GB", "GBR", "", []string{"british", "english", "scottish", "welsh", "united kingdom", "great britain", "uk", "england", "scotland", "wales"}},
	{"DE", "DEU", "GER", []string{"german", "germany", "west german", "east german"}},
	{"FR", "FRA", "", []string{"french", "france"}},
	{"IT", "ITA", "", []string{"italian", "italy"}},
	{"ES", "ESP", "", []string{"spanish", "spain", "espana"}},
	{"NL", "NLD", "NED", []string{"dutch", "netherlands", "holland"}},
	{"BE", "BEL", "", []string{"belgian", "belgium"}},
	{"MC", "MCO", "MON", []string{"monegasque", "monacan", "monaco"}},
	{"FI", "FIN", "", []string{"finnish", "finland"}},
	{"DK", "DNK", "DEN", []string{"danish", "denmark"}},
	{"SE", "SWE", "", []string{"swedish", "sweden"}},
	{"AT", "AUT", "", []string{"austrian", "austria"}},
	{"CH", "CHE", "SUI", []string{"swiss", "switzerland"}},
	{"PL", "POL", "", []string{"polish", "poland"}},
	{"RU", "RUS", "", []string{"russian", "russia"}},
	{"HU", "HUN", "", []string{"hungarian", "hungary"}},
	{"PT", "PRT", "POR", []string{"portuguese", "portugal"}},
	{"TR", "TUR", "", []string{"turkish", "turkey", "turkiye"}},
	{"CZ", "CZE", "", []string{"czech", "czechia", "czech republic"}},
	{"IE", "IRL", "", []string{"irish", "ireland"}},
	{"AU", "AUS", "", []string{"australian", "australia"}},
	{"NZ", "NZL", "", []string{"new zealander", "new zealand", "kiwi"}},
	{"CA", "CAN", "", []string{"canadian", "canada"}},
	{"US", "USA", "", []string{"american", "united states", "united states of america"}},
	{"MX", "MEX", "", []string{"mexican", "mexico"}},
	{"BR", "BRA", "", []string{"brazilian", "brazil", "brasil"}},
	{"AR", "ARG", "", []string{"argentine", "argentinian", "argentina"}},
	{"CO", "COL", "", []string{"colombian", "colombia"}},
	{"VE", "VEN", "", []string{"venezuelan", "venezuela"}},
	{"JP", "JPN", "", []string{"japanese", "japan"}},
	{"CN", "CHN", "", []string{"chinese", "china"}},
	{"TH", "THA", "", []string{"thai", "thailand"}},
	{"MY", "MYS", "MAS", []string{"malaysian", "malaysia"}},
	{"SG", "SGP", "", []string{"singaporean", "singapore"}},
	{"IN", "IND", "", []string{"indian", "india"}},
	{"KR", "KOR", "", []string{"korean", "south korea", "korea"}},
	{"BH", "BHR", "", []string{"bahraini", "bahrain"}},
	{"SA", "SAU", "KSA", []string{"saudi", "saudi arabian", "saudi arabia"}},
	{"QA", "QAT", "", []string{"qatari", "qatar"}},
	{"AE", "ARE", "UAE", []string{"emirati", "united arab emirates", "abu dhabi"}},
	{"AZ", "AZE", "", []string{"azerbaijani", "azerbaijan"}},
	{"ZA", "ZAF", "RSA", []string{"south african", "south africa"}},
	{"MA", "MAR", "", []string{"moroccan", "morocco"}},
	{"LI", "LIE", "", []string{"liechtensteiner", "liechtenstein"}},
	{"IL", "ISR", "", []string{"israeli", "israel"}},
	{"ID", "IDN", "INA", []string{"indonesian", "indonesia"}},
	{"CL", "CHL", "CHI", []string{"chilean", "chile"}},
	{"UY", "URY", "URU", []string{"uruguayan", "uruguay"}},
	{"EE", "EST", "", []string{"estonian", "estonia"}},
}

// Index maps built at init time.
var (
	byAlpha2 map[string]*country
	byAlpha3 map[string]*country
	byWord   map[string]*country
)

func init() {
	byAlpha2 = make(map[string]*country, len(countries))
	byAlpha3 = make(map[string]*country, len(countries)*2)
	byWord = make(map[string]*country, len(countries)*3)
	for i := range countries {
		c := &countries[i]
		byAlpha2[c.alpha2] = c
		byAlpha3[c.alpha3] = c
		if c.ioc != "" {
			byAlpha3[c.ioc] = c
		}
		for _, w := range c.words {
			byWord[w] = c
		}
	}
}

func lookupCountry(value string) *country {
	key := NormalizeName(value)
	if key == "" {
		return nil
	}
	upper := strings.ToUpper(key)
	if c, ok := byAlpha2[upper]; ok && len(key) == 2 {
		return c
	}
	if c, ok := byAlpha3[upper]; ok && len(key) == 3 {
		return c
	}
	if c, ok := byWord[key]; ok {
		return c
	}
	return nil
}

// CountryCode canonicalizes a nationality adjective, country name, ISO alpha-2,
// ISO alpha-3 or sporting code to the ISO alpha-2 code ("British", "GBR" and
// "United Kingdom" all yield "GB"). Unknown values are returned upper-cased so
// two sources using the same unknown label still agree. Empty input yields "".
func CountryCode(value string) string {
	if c := lookupCountry(value); c != nil {
		return c.alpha2
	}
	return strings.ToUpper(NormalizeName(value))
}
