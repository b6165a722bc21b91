package entity_test

import (
	"errors"
	"testing"

	"paddock/internal/entity"
)

func TestParseType(t *testing.T) {
	for _, input := range []string{"driver", " Team ", "CIRCUIT", "round"} {
		if _, err := entity.ParseType(input); err != nil {
			t.Errorf("ParseType(%q) returned error: %v", input, err)
		}
	}
	if _, err := entity.ParseType("season"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestPrepareDriverDerivesNames(t *testing.T) {
	rec := entity.Record{Type: "Driver", Source: " ergast ", RawKey: "de_vries", Name: "Nyck  de Vries"}
	got, err := rec.Prepare()
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Type != entity.TypeDriver || got.Source != "ergast" {
		t.Fatalf("unexpected header: %+v", got)
	}
	if got.Driver == nil || got.Driver.FirstName != "Nyck" || got.Driver.LastName != "de Vries" {
		t.Fatalf("unexpected driver attrs: %+v", got.Driver)
	}
	if got.Name != "Nyck de Vries" {
		t.Fatalf("expected collapsed name, got %q", got.Name)
	}
	if rec.Driver != nil {
		t.Fatal("Prepare must not modify the receiver")
	}
}

func TestPrepareDriverBuildsNameFromParts(t *testing.T) {
	rec := entity.Record{
		Type:       entity.TypeDriver,
		Source:     "openf1",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{FirstName: "Oscar", LastName: "Piastri", Abbreviation: "pia"}},
	}
	got, err := rec.Prepare()
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Name != "Oscar Piastri" || got.Driver.Abbreviation != "PIA" {
		t.Fatalf("unexpected prepared record: %+v %+v", got, got.Driver)
	}
}

func TestPrepareRejectsMalformedRecords(t *testing.T) {
	lat := 95.0
	lon := 5.0
	tests := []struct {
		name  string
		rec   entity.Record
		field string
	}{
		{"unknown type", entity.Record{Type: "season", Source: "x", Name: "2025"}, "type"},
		{"missing source", entity.Record{Type: entity.TypeTeam, Name: "Ferrari"}, "source"},
		{"driver without name", entity.Record{Type: entity.TypeDriver, Source: "x"}, "last_name"},
		{"team without name", entity.Record{Type: entity.TypeTeam, Source: "x"}, "name"},
		{"bad latitude", entity.Record{Type: entity.TypeCircuit, Source: "x", Name: "Spa",
			Attributes: entity.Attributes{Circuit: &entity.CircuitAttrs{Latitude: &lat, Longitude: &lon}}}, "latitude"},
		{"half coordinates", entity.Record{Type: entity.TypeCircuit, Source: "x", Name: "Spa",
			Attributes: entity.Attributes{Circuit: &entity.CircuitAttrs{Longitude: &lon}}}, "coordinates"},
		{"round without season", entity.Record{Type: entity.TypeRound, Source: "x", Name: "Chinese Grand Prix"}, "season"},
		{"round bad date", entity.Record{Type: entity.TypeRound, Source: "x", Name: "Chinese Grand Prix",
			Attributes: entity.Attributes{Round: &entity.RoundAttrs{StartDate: "23/03/2025"}}}, "start_date"},
		{"team years reversed", entity.Record{Type: entity.TypeTeam, Source: "x", Name: "Brawn",
			Attributes: entity.Attributes{Team: &entity.TeamAttrs{ActiveFrom: 2009, ActiveTo: 2008}}}, "active_to"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.rec.Prepare()
			if !errors.Is(err, entity.ErrInput) {
				t.Fatalf("expected ErrInput, got %v", err)
			}
			var inputErr *entity.InputError
			if !errors.As(err, &inputErr) || inputErr.Field != tc.field {
				t.Fatalf("expected field %q, got %v", tc.field, err)
			}
		})
	}
}

func TestPrepareRoundDerivesSeason(t *testing.T) {
	rec := entity.Record{Type: entity.TypeRound, Source: "f1", Name: "Chinese Grand Prix",
		Attributes: entity.Attributes{Round: &entity.RoundAttrs{StartDate: "2025-03-21"}}}
	got, err := rec.Prepare()
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Round.Season != 2025 {
		t.Fatalf("expected season from start date, got %d", got.Round.Season)
	}
}

func TestPrepareKeepsOnlyMatchingVariant(t *testing.T) {
	rec := entity.Record{Type: entity.TypeTeam, Source: "x", Name: "McLaren",
		Attributes: entity.Attributes{Driver: &entity.DriverAttrs{LastName: "Norris"}, Team: &entity.TeamAttrs{Season: 2024}}}
	got, err := rec.Prepare()
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if got.Driver != nil {
		t.Fatal("expected driver attrs dropped from team record")
	}
	if got.Team.ActiveFrom != 2024 || got.Team.ActiveTo != 2024 {
		t.Fatalf("expected season expanded to active range, got %+v", got.Team)
	}
}

func TestRecordKeyFallsBackToName(t *testing.T) {
	a := entity.Record{Type: entity.TypeDriver, Source: "timing", Name: "Sergio Pérez"}
	b := entity.Record{Type: entity.TypeDriver, Source: "timing", Name: "SERGIO PEREZ"}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %v and %v", a.Key(), b.Key())
	}
	if a.Key().RawKey != "name:sergio perez" {
		t.Fatalf("unexpected fallback key %q", a.Key().RawKey)
	}
	withKey := entity.Record{Type: entity.TypeDriver, Source: "timing", RawKey: " 11 ", Name: "Sergio Pérez"}
	if withKey.Key().RawKey != "11" {
		t.Fatalf("expected trimmed raw key, got %q", withKey.Key().RawKey)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct{ in, first, last string }{
		{"Lewis Hamilton", "Lewis", "Hamilton"},
		{"Hamilton", "", "Hamilton"},
		{"Giedo van der Garde", "Giedo", "van der Garde"},
		{"Carlos Sainz Jr.", "Carlos", "Sainz Jr."},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := entity.SplitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("SplitName(%q) = %q/%q, want %q/%q", tt.in, first, last, tt.first, tt.last)
		}
	}
}
