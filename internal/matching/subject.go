package matching

import (
	"strings"
	"time"

	"paddock/internal/entity"
	"paddock/internal/normalize"
	"paddock/internal/textutil"
)

// Subject is the comparison view of a record or canonical entity. Every
// normalized form the features read is computed once when the subject is built.
type Subject struct {
	Type   entity.Type
	Entity *entity.Entity // nil for incoming records
	Attrs  entity.Attributes

	Folded   string // normalized display name
	Sorted   string // normalized name with words in lexical order
	Stripped string // sponsor-free event name (rounds)
	Expanded string // abbreviation-expanded normalized name (circuits)
	TeamName string // normalized team name without corporate suffixes

	FirstName    string
	LastName     string
	Abbreviation string
	Country      string // canonical code: driver nationality or circuit country
	Color        string
	ShortName    string
	Location     string
	CircuitName  string
	Start        time.Time
	End          time.Time
	HasDates     bool
}

// SubjectFromRecord prepares the comparison view of a validated record.
func SubjectFromRecord(n *normalize.Normalizer, rec entity.Record) *Subject {
	return newSubject(n, rec.Type, rec.Name, rec.Attributes, nil)
}

// SubjectFromEntity prepares the comparison view of a canonical entity.
func SubjectFromEntity(n *normalize.Normalizer, e *entity.Entity) *Subject {
	return newSubject(n, e.Type, e.Name, e.Attributes, e)
}

func newSubject(n *normalize.Normalizer, typ entity.Type, name string, attrs entity.Attributes, e *entity.Entity) *Subject {
	if n == nil {
		n = normalize.Default()
	}
	folded := normalize.NormalizeName(name)
	s := &Subject{
		Type:   typ,
		Entity: e,
		Attrs:  attrs,
		Folded: folded,
		Sorted: textutil.SortedTokens(folded),
	}

	switch typ {
	case entity.TypeDriver:
		if d := attrs.Driver; d != nil {
			s.FirstName = normalize.NormalizeName(d.FirstName)
			s.LastName = normalize.NormalizeName(d.LastName)
			s.Abbreviation = strings.ToUpper(strings.TrimSpace(d.Abbreviation))
			s.Country = normalize.CountryCode(d.Nationality)
		}
	case entity.TypeTeam:
		s.TeamName = n.Team(name)
		if t := attrs.Team; t != nil {
			s.ShortName = n.Team(t.ShortName)
			if strings.TrimSpace(t.ShortName) == "" {
				s.ShortName = ""
			}
			s.Color = normalize.NormalizeColor(t.Color)
		}
	case entity.TypeCircuit:
		s.Expanded = normalize.NormalizeName(n.ExpandAbbreviation(name))
		if c := attrs.Circuit; c != nil {
			s.Location = normalize.NormalizeName(c.Location)
			s.Country = normalize.CountryCode(c.Country)
		}
	case entity.TypeRound:
		s.Stripped = n.StripSponsorText(name)
		if r := attrs.Round; r != nil {
			s.CircuitName = normalize.NormalizeName(n.ExpandAbbreviation(r.CircuitName))
			if start, ok := r.Start(); ok {
				s.Start, s.End, s.HasDates = start, start, true
				if end, err := time.Parse(entity.DateLayout, r.EndDate); err == nil && end.After(start) {
					s.End = end
				}
			}
		}
	}
	return s
}

// ID returns the canonical ID for entity subjects and "" for records.
func (s *Subject) ID() string {
	if s == nil || s.Entity == nil {
		return ""
	}
	return s.Entity.ID
}
