package report

// report_test.go — Tests for aggregate defaults and the archive/roster
// invariants.

import (
	"strings"
	"testing"

	"watchlog/internal/ident"
	"watchlog/internal/quals"
)

func internalPerson(t *testing.T, last, first, memberNo string, qs quals.Set) Person {
	t.Helper()
	id, err := ident.MakeInternal(last, first, memberNo)
	if err != nil {
		t.Fatal(err)
	}
	return Person{Last: last, First: first, ID: id, Quals: qs, Active: true}
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestNew_Defaults(t *testing.T) {
	r := New()
	if r.Serial != 1 {
		t.Errorf("Serial = %d, want 1", r.Serial)
	}
	if r.Purpose != PurposeWatchkeeping {
		t.Errorf("Purpose = %q, want watchkeeping", r.Purpose)
	}
	w := r.Weather
	if w.Precipitation != PrecipNone || w.Cloudiness != CloudCloudless ||
		w.WindStrength != WindCalm || w.WindDirection != DirUnknown {
		t.Errorf("weather defaults = %+v", w)
	}
	if w.AirTempC != 0 || w.WaterTempC != 0 {
		t.Errorf("temperature defaults = %d/%d, want 0/0", w.AirTempC, w.WaterTempC)
	}
	for _, rt := range RescueTypes {
		if n, ok := r.Rescues[rt]; !ok || n != 0 {
			t.Errorf("Rescues[%q] = %d, %v; want 0, true", rt, n, ok)
		}
	}
	if r.RosterSize() != 0 || len(r.Boat.Drives) != 0 {
		t.Error("new report must have empty collections")
	}
}

// ---------------------------------------------------------------------------
// Archives
// ---------------------------------------------------------------------------

func TestArchivePerson_Categories(t *testing.T) {
	r := New()
	in := internalPerson(t, "Mustermann", "Max", "12345", quals.LifeguardBronze)
	if err := r.ArchivePerson(in); err != nil {
		t.Fatalf("archive internal: %v", err)
	}

	extID, _ := ident.MakeExternal("Doe", "Jane", quals.FirstAid, 0)
	ext := Person{Last: "Doe", First: "Jane", ID: extID, Quals: quals.FirstAid, Active: true}
	if err := r.ArchivePerson(ext); err != nil {
		t.Fatalf("archive external: %v", err)
	}

	if got := len(r.Personnel(ident.Internal)); got != 1 {
		t.Errorf("internal archive size = %d, want 1", got)
	}
	if got := len(r.Personnel(ident.External)); got != 1 {
		t.Errorf("external archive size = %d, want 1", got)
	}
	if _, ok := r.PersonByIdent(in.ID); !ok {
		t.Error("internal person not found by ident")
	}
	if _, ok := r.PersonByIdent(extID); !ok {
		t.Error("external person not found by ident")
	}
}

func TestArchivePerson_RejectsAdHocAndDuplicates(t *testing.T) {
	r := New()
	guestID, _ := ident.MakeAdHoc("Doe", "Jane", 0)
	if err := r.ArchivePerson(Person{Last: "Doe", First: "Jane", ID: guestID}); err == nil {
		t.Error("ad-hoc person must not be archivable")
	}

	p := internalPerson(t, "Mustermann", "Max", "12345", 0)
	if err := r.ArchivePerson(p); err != nil {
		t.Fatal(err)
	}
	if err := r.ArchivePerson(p); err == nil {
		t.Error("duplicate archive must be rejected")
	}
}

func TestRemovePerson_BlockedByRoster(t *testing.T) {
	r := New()
	p := internalPerson(t, "Mustermann", "Max", "12345", quals.LifeguardBronze)
	if err := r.ArchivePerson(p); err != nil {
		t.Fatal(err)
	}
	entry := RosterEntry{Function: quals.Lifeguard, Begin: 8 * 60, End: 20 * 60}
	if err := r.AddRosterEntry(p.ID, entry, quals.LicenseAny); err != nil {
		t.Fatal(err)
	}

	if err := r.RemovePerson(p.ID); err == nil {
		t.Error("removing a rostered person must fail")
	}
	if err := r.RemoveRosterEntry(p.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.RemovePerson(p.ID); err != nil {
		t.Errorf("removal after roster cleanup: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Roster invariants
// ---------------------------------------------------------------------------

func TestAddRosterEntry_RequiresArchive(t *testing.T) {
	r := New()
	id, _ := ident.MakeInternal("Mustermann", "Max", "12345")
	err := r.AddRosterEntry(id, RosterEntry{Function: quals.Lifeguard}, quals.LicenseAny)
	if err == nil || !strings.Contains(err.Error(), "not archived") {
		t.Errorf("expected not-archived error, got %v", err)
	}
}

func TestAddRosterEntry_RequiresQualification(t *testing.T) {
	r := New()
	p := internalPerson(t, "Mustermann", "Max", "12345", quals.FirstAid) // no lifeguard badge
	if err := r.ArchivePerson(p); err != nil {
		t.Fatal(err)
	}
	if err := r.AddRosterEntry(p.ID, RosterEntry{Function: quals.Lifeguard}, quals.LicenseAny); err == nil {
		t.Error("unqualified duty assignment must be rejected")
	}
	if err := r.AddRosterEntry(p.ID, RosterEntry{Function: quals.Trainee}, quals.LicenseAny); err != nil {
		t.Errorf("trainee has no requirement: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Assignment number
// ---------------------------------------------------------------------------

func TestValidAssignmentNumber(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"", true}, // empty is always allowed
		{"2026-42", true},
		{"2026-0001", true},
		{"26-42", false},
		{"2026/42", false},
		{"2026-", false},
		{"watch", false},
	}
	for _, tc := range tests {
		if got := ValidAssignmentNumber(tc.text); got != tc.want {
			t.Errorf("ValidAssignmentNumber(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Clock times
// ---------------------------------------------------------------------------

func TestParseClock(t *testing.T) {
	tests := []struct {
		text    string
		want    ClockTime
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"8:30", 0, true},
		{"08.30", 0, true},
		{"08:3x", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseClock(tc.text)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tc.text)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tc.text, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.text, got, tc.want)
		}
		if got.String() != tc.text {
			t.Errorf("ClockTime(%d).String() = %q, want %q", got, got.String(), tc.text)
		}
	}
}

func TestMinutesBetween_Wrap(t *testing.T) {
	if got := MinutesBetween(8*60, 20*60); got != 12*60 {
		t.Errorf("day window = %d, want %d", got, 12*60)
	}
	// 22:00 → 02:00 crosses midnight.
	if got := MinutesBetween(22*60, 2*60); got != 4*60 {
		t.Errorf("midnight wrap = %d, want %d", got, 4*60)
	}
}
