package entity

import (
	"strings"
	"time"

	"paddock/internal/normalize"
)

// Record is one raw observation of an entity as a source reported it.
type Record struct {
	Type   Type   `json:"type" yaml:"type"`
	Source string `json:"source" yaml:"source"`
	// RawKey is the source-native identifier; optional.
	RawKey     string `json:"raw_key,omitempty" yaml:"raw_key,omitempty"`
	Name       string `json:"name" yaml:"name"`
	Attributes `yaml:",inline"`
}

// AliasKey identifies a raw record within its source.
type AliasKey struct {
	Type   Type
	Source string
	RawKey string
}

func (k AliasKey) String() string {
	return string(k.Type) + ":" + k.Source + ":" + k.RawKey
}

// Key returns the alias key of the record. Records without a source-native key
// fall back to their normalized name so resubmissions stay idempotent.
func (r Record) Key() AliasKey {
	raw := strings.TrimSpace(r.RawKey)
	if raw == "" {
		raw = "name:" + normalize.NormalizeName(r.Name)
	}
	return AliasKey{Type: r.Type, Source: strings.TrimSpace(r.Source), RawKey: raw}
}

// Lowercase particles that belong to a surname ("de Vries", "van der Garde").
var surnameParticles = map[string]struct{}{
	"de": {}, "del": {}, "della": {}, "der": {}, "di": {}, "da": {},
	"van": {}, "von": {}, "le": {}, "la": {}, "du": {}, "dos": {},
}

var nameSuffixes = map[string]struct{}{"jr": {}, "sr": {}, "ii": {}, "iii": {}}

// Prepare returns a trimmed, completed copy of r and validates the fields the
// matchers need. The receiver is not modified.
func (r Record) Prepare() (Record, error) {
	out := Record{
		Type:       Type(strings.ToLower(strings.TrimSpace(string(r.Type)))),
		Source:     strings.TrimSpace(r.Source),
		RawKey:     strings.TrimSpace(r.RawKey),
		Name:       strings.Join(strings.Fields(r.Name), " "),
		Attributes: r.Attributes.Clone(),
	}
	fail := func(field, reason string) (Record, error) {
		return Record{}, &InputError{Type: out.Type, Source: out.Source, RawKey: out.RawKey, Field: field, Reason: reason}
	}

	if !out.Type.Valid() {
		return fail("type", "must be driver, team, circuit, or round")
	}
	if out.Source == "" {
		return fail("source", "is required")
	}
	out.Attributes = out.Attributes.only(out.Type)

	switch out.Type {
	case TypeDriver:
		d := out.Driver
		d.FirstName = strings.TrimSpace(d.FirstName)
		d.LastName = strings.TrimSpace(d.LastName)
		d.Abbreviation = strings.ToUpper(strings.TrimSpace(d.Abbreviation))
		d.Nationality = strings.TrimSpace(d.Nationality)
		if d.FirstName == "" && d.LastName == "" && out.Name != "" {
			d.FirstName, d.LastName = SplitName(out.Name)
		}
		if d.LastName == "" {
			return fail("last_name", "is required")
		}
		if out.Name == "" {
			out.Name = strings.TrimSpace(d.FirstName + " " + d.LastName)
		}
		if d.Number < 0 {
			return fail("number", "must not be negative")
		}
	case TypeTeam:
		if out.Name == "" {
			return fail("name", "is required")
		}
		t := out.Team
		t.ShortName = strings.TrimSpace(t.ShortName)
		t.Color = strings.TrimSpace(t.Color)
		if t.Season > 0 {
			if t.ActiveFrom == 0 {
				t.ActiveFrom = t.Season
			}
			if t.ActiveTo == 0 {
				t.ActiveTo = t.Season
			}
		}
		if t.ActiveFrom > 0 && t.ActiveTo > 0 && t.ActiveTo < t.ActiveFrom {
			return fail("active_to", "must not precede active_from")
		}
	case TypeCircuit:
		if out.Name == "" {
			return fail("name", "is required")
		}
		c := out.Circuit
		c.Location = strings.TrimSpace(c.Location)
		c.Country = strings.TrimSpace(c.Country)
		if (c.Latitude == nil) != (c.Longitude == nil) {
			return fail("coordinates", "need both latitude and longitude")
		}
		if c.Latitude != nil && (*c.Latitude < -90 || *c.Latitude > 90) {
			return fail("latitude", "must be within [-90, 90]")
		}
		if c.Longitude != nil && (*c.Longitude < -180 || *c.Longitude > 180) {
			return fail("longitude", "must be within [-180, 180]")
		}
	case TypeRound:
		if out.Name == "" {
			return fail("name", "is required")
		}
		rd := out.Round
		rd.CircuitID = strings.TrimSpace(rd.CircuitID)
		rd.CircuitName = strings.TrimSpace(rd.CircuitName)
		rd.StartDate = strings.TrimSpace(rd.StartDate)
		rd.EndDate = strings.TrimSpace(rd.EndDate)
		for _, date := range [][2]string{{"start_date", rd.StartDate}, {"end_date", rd.EndDate}} {
			if date[1] == "" {
				continue
			}
			if _, err := time.Parse(DateLayout, date[1]); err != nil {
				return fail(date[0], "must be a YYYY-MM-DD date")
			}
		}
		if rd.Season == 0 {
			if start, ok := rd.Start(); ok {
				rd.Season = start.Year()
			}
		}
		if rd.Season <= 0 {
			return fail("season", "is required when start_date is absent")
		}
		if rd.RoundNumber < 0 {
			return fail("round_number", "must not be negative")
		}
	}
	return out, nil
}

// SplitName splits a display name into first and last name, keeping lowercase
// surname particles with the last name ("Nyck de Vries" → "Nyck", "de Vries").
func SplitName(full string) (first, last string) {
	words := strings.Fields(full)
	switch len(words) {
	case 0:
		return "", ""
	case 1:
		return "", words[0]
	}
	cut := len(words) - 1
	if _, ok := nameSuffixes[strings.ToLower(strings.TrimSuffix(words[cut], "."))]; ok && cut > 1 {
		cut--
	}
	for cut > 1 {
		if _, ok := surnameParticles[strings.ToLower(words[cut-1])]; !ok {
			break
		}
		cut--
	}
	return strings.Join(words[:cut], " "), strings.Join(words[cut:], " ")
}
