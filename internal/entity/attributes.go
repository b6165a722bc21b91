package entity

import (
	"time"
)

// DateLayout is the calendar date format used for round dates.
const DateLayout = "2006-01-02"

// DriverAttrs describes a driver.
type DriverAttrs struct {
	FirstName    string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty" yaml:"last_name,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty" yaml:"abbreviation,omitempty"`
	Nationality  string `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	Number       int    `json:"number,omitempty" yaml:"number,omitempty"`
}

// TeamAttrs describes a constructor. Season is a convenience for records that
// only know the season they were observed in.
type TeamAttrs struct {
	ShortName  string `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Color      string `json:"color,omitempty" yaml:"color,omitempty"`
	ActiveFrom int    `json:"active_from,omitempty" yaml:"active_from,omitempty"`
	ActiveTo   int    `json:"active_to,omitempty" yaml:"active_to,omitempty"`
	Season     int    `json:"season,omitempty" yaml:"season,omitempty"`
}

// CircuitAttrs describes a venue.
type CircuitAttrs struct {
	Location  string   `json:"location,omitempty" yaml:"location,omitempty"`
	Country   string   `json:"country,omitempty" yaml:"country,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// HasCoordinates reports whether both coordinates are present.
func (c *CircuitAttrs) HasCoordinates() bool {
	return c != nil && c.Latitude != nil && c.Longitude != nil
}

// RoundAttrs describes one event of a season. CircuitID references a canonical
// circuit when the source already knows it; CircuitName is the raw venue label.
type RoundAttrs struct {
	CircuitID   string `json:"circuit_id,omitempty" yaml:"circuit_id,omitempty"`
	CircuitName string `json:"circuit_name,omitempty" yaml:"circuit_name,omitempty"`
	StartDate   string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	RoundNumber int    `json:"round_number,omitempty" yaml:"round_number,omitempty"`
	Season      int    `json:"season,omitempty" yaml:"season,omitempty"`
	Series      string `json:"series,omitempty" yaml:"series,omitempty"`
}

// Start returns the parsed start date.
func (r *RoundAttrs) Start() (time.Time, bool) {
	if r == nil || r.StartDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Attributes holds the type-specific attributes. Exactly one variant is set,
// matching the owning record or entity type.
type Attributes struct {
	Driver  *DriverAttrs  `json:"driver,omitempty" yaml:"driver,omitempty"`
	Team    *TeamAttrs    `json:"team,omitempty" yaml:"team,omitempty"`
	Circuit *CircuitAttrs `json:"circuit,omitempty" yaml:"circuit,omitempty"`
	Round   *RoundAttrs   `json:"round,omitempty" yaml:"round,omitempty"`
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	var out Attributes
	if a.Driver != nil {
		d := *a.Driver
		out.Driver = &d
	}
	if a.Team != nil {
		t := *a.Team
		out.Team = &t
	}
	if a.Circuit != nil {
		c := *a.Circuit
		if c.Latitude != nil {
			lat := *c.Latitude
			c.Latitude = &lat
		}
		if c.Longitude != nil {
			lon := *c.Longitude
			c.Longitude = &lon
		}
		out.Circuit = &c
	}
	if a.Round != nil {
		r := *a.Round
		out.Round = &r
	}
	return out
}

// only keeps the variant for t and allocates it when missing.
func (a Attributes) only(t Type) Attributes {
	var out Attributes
	switch t {
	case TypeDriver:
		out.Driver = a.Driver
		if out.Driver == nil {
			out.Driver = &DriverAttrs{}
		}
	case TypeTeam:
		out.Team = a.Team
		if out.Team == nil {
			out.Team = &TeamAttrs{}
		}
	case TypeCircuit:
		out.Circuit = a.Circuit
		if out.Circuit == nil {
			out.Circuit = &CircuitAttrs{}
		}
	case TypeRound:
		out.Round = a.Round
		if out.Round == nil {
			out.Round = &RoundAttrs{}
		}
	}
	return out
}
