package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"watchlog/internal/ident"
	"watchlog/internal/quals"
	"watchlog/internal/refdata"
	"watchlog/internal/report"
)

// testStore registers the fixture station and boat so round trips decode
// without soft warnings.
func testStore() *refdata.Store {
	return &refdata.Store{
		Stations:       []refdata.Station{{Ident: "lakeside", Name: "Lakeside", RadioCallName: "Lakeside 1"}},
		Boats:          []refdata.Boat{{Name: "Rescue One", RadioCallName: "Rescue One 99"}},
		BoatmanLicense: "a",
	}
}

func decodeErr(t *testing.T, data string, ref *refdata.Store) *DecodeError {
	t.Helper()
	_, _, err := Decode([]byte(data), ref)
	if err == nil {
		t.Fatal("Decode: want error, got nil")
	}
	derr, ok := err.(*DecodeError)
	if !ok {
		t.Fatalf("Decode: error type %T, want *DecodeError", err)
	}
	return derr
}

func hasWarning(warnings []Warning, code WarningCode) bool {
	for _, w := range warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Sniffing and version gate
// ---------------------------------------------------------------------------

func TestDecodeRejectsNonDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"binary garbage", "\x00\x01\x02{{{"},
		{"yaml without magic", "report:\n  serial: 1\n"},
		{"wrong magic", "magic: someone/elses-format\nschema_version: 1.4.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := decodeErr(t, tt.data, nil)
			if derr.Kind != NotADocument {
				t.Errorf("Kind = %v, want NotADocument", derr.Kind)
			}
		})
	}
}

func TestDecodeVersionGate(t *testing.T) {
	tests := []struct {
		name    string
		version string
		kind    ErrorKind
		tooNew  bool
	}{
		{"no version field", "", UnknownVersion, false},
		{"unparseable version", "schema_version: not.a.version\n", UnknownVersion, false},
		{"below floor", "schema_version: 0.9.0\n", IncompatibleVersion, false},
		{"above current", "schema_version: 2.0.0\n", IncompatibleVersion, true},
		{"legacy below floor", "legacy_program_version: 0.2.1\n", IncompatibleVersion, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := decodeErr(t, "magic: watchlog/duty-report\n"+tt.version, nil)
			if derr.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", derr.Kind, tt.kind)
			}
			if derr.TooNew != tt.tooNew {
				t.Errorf("TooNew = %v, want %v", derr.TooNew, tt.tooNew)
			}
		})
	}
}

func TestDecodeSchemaVersionWinsOverLegacy(t *testing.T) {
	// A document carrying both fields is gated by the explicit schema
	// version; the legacy one must not drag it below the floor.
	doc := "magic: watchlog/duty-report\nschema_version: 1.4.0\nlegacy_program_version: 0.1.0\n"
	if _, _, err := Decode([]byte(doc), nil); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Defaults
// ---------------------------------------------------------------------------

func TestDecodeAppliesDefaults(t *testing.T) {
	doc := "magic: watchlog/duty-report\nschema_version: 1.4.0\n"
	r, warnings, err := Decode([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if r.Serial != 1 {
		t.Errorf("Serial = %d, want 1", r.Serial)
	}
	if r.Purpose != report.PurposeWatchkeeping {
		t.Errorf("Purpose = %q, want watchkeeping", r.Purpose)
	}
	if got := r.Begin.String(); got != "00:00" {
		t.Errorf("Begin = %q, want 00:00", got)
	}
	if r.Weather.Precipitation != report.PrecipNone || r.Weather.WindDirection != report.DirUnknown {
		t.Errorf("weather defaults not applied: %+v", r.Weather)
	}
}

// ---------------------------------------------------------------------------
// Round trip
// ---------------------------------------------------------------------------

func buildReport(t *testing.T) *report.Report {
	t.Helper()
	r := report.New()
	r.Serial = 7
	r.Station = "lakeside"
	r.RadioCallName = "Lakeside 1"
	r.Date = "2026-05-02"
	r.Begin, _ = report.ParseClock("08:00")
	r.End, _ = report.ParseClock("16:30")
	r.CarryMinutes = 45
	r.Rescues[report.RescueSwimmer] = 2
	r.Boat.BoatName = "Rescue One"
	r.Boat.EngineHoursInit = 120
	r.Boat.EngineHoursFin = 123

	id, err := ident.MakeInternal("Muster", "Max", "42")
	if err != nil {
		t.Fatalf("MakeInternal: %v", err)
	}
	qs, _ := quals.Parse("EH,RSB,BFA,FUNK")
	if err := r.ArchivePerson(report.Person{Last: "Muster", First: "Max", ID: id, Quals: qs, Active: true}); err != nil {
		t.Fatalf("ArchivePerson: %v", err)
	}
	entry := report.RosterEntry{Function: quals.BoatmanOnDuty, Begin: r.Begin, End: r.End}
	if err := r.AddRosterEntry(id, entry, quals.LicenseA); err != nil {
		t.Fatalf("AddRosterEntry: %v", err)
	}

	begin, _ := report.ParseClock("09:00")
	end, _ := report.ParseClock("10:15")
	di := r.AddDrive("patrol", begin, end)
	if err := r.SetDriveBoatman(di, id, quals.LicenseA); err != nil {
		t.Fatalf("SetDriveBoatman: %v", err)
	}
	if _, err := r.AddDriveGuest(di, "Doe", "Jane", quals.CrewMember); err != nil {
		t.Fatalf("AddDriveGuest: %v", err)
	}
	return r
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := buildReport(t)
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, warnings, err := Decode(data, testStore())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}

	if got.Serial != src.Serial || got.Station != src.Station || got.Date != src.Date {
		t.Errorf("scalars differ: got serial=%d station=%q date=%q", got.Serial, got.Station, got.Date)
	}
	if got.CarryMinutes != 45 || got.Rescues[report.RescueSwimmer] != 2 {
		t.Errorf("carry/rescues differ: %d / %d", got.CarryMinutes, got.Rescues[report.RescueSwimmer])
	}

	id, _ := ident.MakeInternal("Muster", "Max", "42")
	if _, ok := got.PersonByIdent(id); !ok {
		t.Fatalf("person %q missing after round trip", id)
	}
	entry, ok := got.RosterEntryOf(id)
	if !ok || entry.Function != quals.BoatmanOnDuty {
		t.Errorf("roster entry = %+v, %v", entry, ok)
	}

	if len(got.Boat.Drives) != 1 {
		t.Fatalf("drives = %d, want 1", len(got.Boat.Drives))
	}
	d := got.Boat.Drives[0]
	if d.Boatman != id {
		t.Errorf("boatman = %q, want %q", d.Boatman, id)
	}
	guestID := ident.Ident("Doe_Jane_GAST")
	if d.Crew[guestID] != quals.CrewMember {
		t.Errorf("guest crew entry = %q, want BG", d.Crew[guestID])
	}
	if name := d.Guests[guestID]; name.Last != "Doe" || name.First != "Jane" {
		t.Errorf("guest name = %+v", name)
	}
}

// ---------------------------------------------------------------------------
// Legacy migration
// ---------------------------------------------------------------------------

// legacyDoc is a pre-versioning document: legacy qualification letters, a
// fingerprinted external ident in the old encoding, and the retired "MR"
// boat function.
const legacyDoc = `magic: watchlog/duty-report
legacy_program_version: 1.3.0
report:
  serial: 4
  begin: "08:00"
  end: "16:00"
  personnel_external:
    - last: Doe
      first: Jane
      ident: Doe_Jane_EXT[E&B&A]#1
      qualifications: E&B&A
  duty_roster:
    - ident: Doe_Jane_EXT[E&B&A]#1
      function: BF
      begin: "08:00"
      end: "16:00"
boat_log:
  drives:
    - purpose: patrol
      begin: "09:00"
      end: "10:00"
      crew:
        Doe_Jane_EXT[E&B&A]#1: MR
`

func TestDecodeLegacyDocument(t *testing.T) {
	r, warnings, err := Decode([]byte(legacyDoc), testStore())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// The external ident fingerprint follows the qualification re-encode,
	// and every reference moves with it.
	newID := ident.Ident("Doe_Jane_EXT[EH,RSB,BFA]#1")
	p, ok := r.PersonByIdent(newID)
	if !ok {
		t.Fatalf("person %q missing after migration", newID)
	}
	if got := p.Quals.String(); got != "EH,RSB,BFA" {
		t.Errorf("quals = %q, want EH,RSB,BFA", got)
	}
	if _, ok := r.RosterEntryOf(newID); !ok {
		t.Error("roster entry did not follow the renamed ident")
	}

	// The retired role id decodes as engine keeper with a warning.
	if got := r.Boat.Drives[0].Crew[newID]; got != quals.EngineKeeper {
		t.Errorf("crew role = %q, want MA", got)
	}
	if !hasWarning(warnings, WarnRoleAutocorrected) {
		t.Errorf("warnings = %v, want WarnRoleAutocorrected", warnings)
	}
}

func TestDecodeCurrentVersionRejectsRetiredRole(t *testing.T) {
	// A current-version document must not be re-migrated: "MR" written
	// today is simply unknown.
	doc := strings.NewReplacer(
		"legacy_program_version: 1.3.0", "schema_version: 1.4.0",
		"E&B&A", "EH,RSB,BFA",
	).Replace(legacyDoc)
	derr := decodeErr(t, doc, testStore())
	if derr.Kind != MalformedField {
		t.Errorf("Kind = %v, want MalformedField", derr.Kind)
	}
}

// ---------------------------------------------------------------------------
// Referential and qualification failures
// ---------------------------------------------------------------------------

func TestDecodeDanglingReference(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want ident.Ident
	}{
		{
			name: "roster references unarchived person",
			doc: `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  duty_roster:
    - ident: Ghost_Gerd_7
      function: PA
`,
			want: "Ghost_Gerd_7",
		},
		{
			name: "boatman not on duty",
			doc: `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  personnel:
    - last: Muster
      first: Max
      ident: Muster_Max_42
      qualifications: BFA
boat_log:
  drives:
    - purpose: patrol
      boatman: Muster_Max_42
`,
			want: "Muster_Max_42",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			derr := decodeErr(t, tt.doc, testStore())
			if derr.Kind != DanglingReference {
				t.Fatalf("Kind = %v, want DanglingReference", derr.Kind)
			}
			if derr.Ident != tt.want {
				t.Errorf("Ident = %q, want %q", derr.Ident, tt.want)
			}
		})
	}
}

func TestDecodeQualificationViolation(t *testing.T) {
	doc := `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  personnel:
    - last: Muster
      first: Max
      ident: Muster_Max_42
      qualifications: EH
  duty_roster:
    - ident: Muster_Max_42
      function: RS
`
	derr := decodeErr(t, doc, testStore())
	if derr.Kind != QualificationViolation {
		t.Fatalf("Kind = %v, want QualificationViolation", derr.Kind)
	}
	if derr.Ident != "Muster_Max_42" || derr.Role != "RS" {
		t.Errorf("Ident/Role = %q/%q", derr.Ident, derr.Role)
	}
}

func TestDecodeGuestNameMustRegenerateIdent(t *testing.T) {
	doc := `magic: watchlog/duty-report
schema_version: 1.4.0
boat_log:
  drives:
    - purpose: patrol
      crew:
        Doe_Jane_GAST: BG
      guests:
        Doe_Jane_GAST:
          last: Smith
          first: Ada
`
	derr := decodeErr(t, doc, testStore())
	if derr.Kind != MalformedField {
		t.Fatalf("Kind = %v, want MalformedField", derr.Kind)
	}
	if !strings.Contains(derr.Path, "guests") {
		t.Errorf("Path = %q, want a guests path", derr.Path)
	}
}

func TestDecodeMalformedClock(t *testing.T) {
	doc := "magic: watchlog/duty-report\nschema_version: 1.4.0\nreport:\n  begin: \"8:00\"\n"
	derr := decodeErr(t, doc, nil)
	if derr.Kind != MalformedField {
		t.Fatalf("Kind = %v, want MalformedField", derr.Kind)
	}
	if derr.Path != "report.begin" {
		t.Errorf("Path = %q, want report.begin", derr.Path)
	}
}

// ---------------------------------------------------------------------------
// Soft warnings
// ---------------------------------------------------------------------------

func TestDecodeSoftReferenceWarnings(t *testing.T) {
	doc := `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  station: atlantis
boat_log:
  boat: Flying Dutchman
`
	_, warnings, err := Decode([]byte(doc), &refdata.Store{})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hasWarning(warnings, WarnUnknownStation) || !hasWarning(warnings, WarnUnknownBoat) {
		t.Errorf("warnings = %v, want unknown station and boat", warnings)
	}
}

func TestDecodeRadioNameMismatch(t *testing.T) {
	doc := `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  station: lakeside
  radio_call_name: Wrong 7
`
	_, warnings, err := Decode([]byte(doc), testStore())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hasWarning(warnings, WarnRadioNameMismatch) {
		t.Errorf("warnings = %v, want WarnRadioNameMismatch", warnings)
	}
}

func TestDecodeKeepsUnknownRescueCounter(t *testing.T) {
	doc := `magic: watchlog/duty-report
schema_version: 1.4.0
report:
  rescues:
    swimmer_rescue: 2
    dragon_attack: 1
`
	r, warnings, err := Decode([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !hasWarning(warnings, WarnUnknownRescueType) {
		t.Errorf("warnings = %v, want WarnUnknownRescueType", warnings)
	}
	if r.Rescues["dragon_attack"] != 1 || r.Rescues[report.RescueSwimmer] != 2 {
		t.Errorf("rescue counters not preserved: %v", r.Rescues)
	}
}

// ---------------------------------------------------------------------------
// File helpers
// ---------------------------------------------------------------------------

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	if err := EncodeToFile(buildReport(t), path); err != nil {
		t.Fatalf("EncodeToFile: %v", err)
	}
	r, _, err := DecodeFile(path, testStore())
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if r.Serial != 7 {
		t.Errorf("Serial = %d, want 7", r.Serial)
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, _, err := DecodeFile(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want not-exist", err)
	}
}
