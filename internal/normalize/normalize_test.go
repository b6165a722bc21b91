package normalize_test

import (
	"testing"

	"paddock/internal/config"
	"paddock/internal/normalize"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"Sergio Pérez", "sergio perez"},
		{"Kimi  Räikkönen", "kimi raikkonen"},
		{"Nico Hülkenberg", "nico hulkenberg"},
		{"Robert Kubica", "robert kubica"},
		{"Łukasz Øster", "lukasz oster"},
		{"O'Ward", "oward"},
		{"Spa-Francorchamps", "spa francorchamps"},
		{"  MAX\tVERSTAPPEN ", "max verstappen"},
		{"São Paulo", "sao paulo"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalize.NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	for _, s := range []string{"Sergio Pérez", "FORMULA 1 HEINEKEN", "Circuit de Monaco!"} {
		once := normalize.NormalizeName(s)
		if twice := normalize.NormalizeName(once); twice != once {
			t.Errorf("NormalizeName not idempotent for %q: %q then %q", s, once, twice)
		}
	}
}

func TestStripSponsorText(t *testing.T) {
	n := normalize.Default()
	tests := []struct {
		input string
		want  string
	}{
		{"FORMULA 1 HEINEKEN CHINESE GRAND PRIX 2025", "chinese"},
		{"Chinese Grand Prix", "chinese"},
		{"Formula 1 Heineken Silver Las Vegas Grand Prix 2024", "las vegas"},
		{"FORMULA 1 ARAMCO GRAN PREMIO DE ESPAÑA 2025", "espana"},
		{"Formula 1 Grand Prix de Monaco 2025", "monaco"},
		{"Grand Prix of the Americas", "americas"},
		{"Circuit of the Americas Grand Prix", "circuit of the americas"},
		{"Monaco GP", "monaco"},
		{"Grand Prix", "grand prix"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := n.StripSponsorText(tt.input); got != tt.want {
				t.Errorf("StripSponsorText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripSponsorTextDoesNotMutateInput(t *testing.T) {
	n := normalize.Default()
	name := "FORMULA 1 HEINEKEN CHINESE GRAND PRIX 2025"
	original := name
	_ = n.StripSponsorText(name)
	if name != original {
		t.Fatalf("input changed to %q", name)
	}
}

func TestStripSponsorTextConfiguredTokens(t *testing.T) {
	n := normalize.New(config.Normalization{SponsorTokens: []string{"Acme Energy"}})
	if got := n.StripSponsorText("Acme Energy Dutch Grand Prix"); got != "dutch" {
		t.Fatalf("expected configured token stripped, got %q", got)
	}
}

func TestTeam(t *testing.T) {
	n := normalize.Default()
	tests := map[string]string{
		"Williams Racing Team":          "williams",
		"Mercedes-AMG Petronas F1 Team": "mercedes amg petronas",
		"Team":                          "team",
		"Red Bull Racing":               "red bull racing",
	}
	for input, want := range tests {
		if got := n.Team(input); got != want {
			t.Errorf("Team(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestExpandAbbreviation(t *testing.T) {
	n := normalize.New(config.Normalization{Abbreviations: map[string]string{"ALG": "Autodromo Internacional do Algarve"}})
	tests := map[string]string{
		"COTA":              "Circuit of the Americas",
		" cota ":            "Circuit of the Americas",
		"Spa":               "Circuit de Spa-Francorchamps",
		"alg":               "Autodromo Internacional do Algarve",
		"Suzuka Circuit":    "Suzuka Circuit",
		"Circuit de Monaco": "Circuit de Monaco",
	}
	for input, want := range tests {
		if got := n.ExpandAbbreviation(input); got != want {
			t.Errorf("ExpandAbbreviation(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCountryCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"British", "GB"},
		{"GBR", "GB"},
		{"gb", "GB"},
		{"United Kingdom", "GB"},
		{"GER", "DE"},
		{"German", "DE"},
		{"Monégasque", "MC"},
		{"NED", "NL"},
		{"Dutch", "NL"},
		{"Thai", "TH"},
		{"Atlantean", "ATLANTEAN"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalize.CountryCode(tt.input); got != tt.want {
				t.Errorf("CountryCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := map[string]string{
		"#3671C6": "3671c6",
		"3671c6":  "3671c6",
		"#FFF":    "ffffff",
		"red":     "",
		"#12345":  "",
		"":        "",
	}
	for input, want := range tests {
		if got := normalize.NormalizeColor(input); got != want {
			t.Errorf("NormalizeColor(%q) = %q, want %q", input, got, want)
		}
	}
}
