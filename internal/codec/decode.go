package codec

// decode.go — the decode state machine: sniff → version resolve →
// compatibility gate → migration derivation → structural decode interleaved
// with the validation pass. Terminal on the first hard failure; soft findings
// accumulate as warnings beside a successful decode.

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"watchlog/internal/ident"
	"watchlog/internal/quals"
	"watchlog/internal/refdata"
	"watchlog/internal/report"
)

// Decode reconstructs a report from document bytes. The reference-data store
// supplies the soft station/boat lookups and the boatman license policy; a
// nil store behaves like an empty registry.
//
// On error no report is returned; the error is always a *DecodeError.
func Decode(data []byte, ref *refdata.Store) (*report.Report, []Warning, error) {
	// Sniff the magic marker before anything else.
	var header struct {
		Magic                string `yaml:"magic"`
		SchemaVersion        string `yaml:"schema_version"`
		LegacyProgramVersion string `yaml:"legacy_program_version"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, nil, notADocument(fmt.Sprintf("unparseable: %v", err))
	}
	if header.Magic != docMagic {
		return nil, nil, notADocument(fmt.Sprintf("magic marker %q missing or mismatched", header.Magic))
	}

	// Resolve the version: the explicit schema version wins, the legacy
	// program version is the pre-versioning fallback.
	versionText := header.SchemaVersion
	if versionText == "" {
		versionText = header.LegacyProgramVersion
	}
	if versionText == "" {
		return nil, nil, unknownVersion("no version field")
	}
	version, err := ParseVersion(versionText)
	if err != nil {
		return nil, nil, unknownVersion(err.Error())
	}
	if version.Compare(MinVersion) < 0 {
		return nil, nil, incompatibleVersion(version, false)
	}
	if version.Compare(CurrentVersion) > 0 {
		return nil, nil, incompatibleVersion(version, true)
	}
	mig := migrationsFor(version)

	// Structural decode over the defaulted document: absent keys keep their
	// documented defaults.
	doc := defaultDocument()
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, malformedField("document", err.Error())
	}
	applyTimeDefaults(&doc)

	if derr := validateSection(doc.Report, "report"); derr != nil {
		return nil, nil, derr
	}
	if derr := validateSection(doc.BoatLog, "boat_log"); derr != nil {
		return nil, nil, derr
	}

	d := decoder{doc: &doc, mig: mig, ref: ref, policy: ref.Policy(), out: report.New(),
		identMap: make(map[ident.Ident]ident.Ident)}
	if err := d.run(); err != nil {
		return nil, nil, err
	}
	return d.out, d.warnings, nil
}

// DecodeFile reads and decodes one document file.
func DecodeFile(path string, ref *refdata.Store) (*report.Report, []Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data, ref)
}

// EncodeToFile encodes r and writes the document to path.
func EncodeToFile(r *report.Report, path string) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Decoder state
// ---------------------------------------------------------------------------

type decoder struct {
	doc      *document
	mig      migrationSet
	ref      *refdata.Store
	policy   quals.LicensePolicy
	out      *report.Report
	warnings []Warning

	// identMap carries external identifiers renamed by the qualification
	// re-encode; every later reference is remapped through it before lookup.
	identMap map[ident.Ident]ident.Ident
}

func (d *decoder) warnf(code WarningCode, format string, args ...any) {
	d.warnings = append(d.warnings, Warning{Code: code, Detail: fmt.Sprintf(format, args...)})
}

func (d *decoder) mapIdent(id ident.Ident) ident.Ident {
	if mapped, ok := d.identMap[id]; ok {
		return mapped
	}
	return id
}

func (d *decoder) run() error {
	if err := d.scalars(); err != nil {
		return err
	}
	if err := d.personnel(); err != nil {
		return err
	}
	if err := d.roster(); err != nil {
		return err
	}
	if err := d.boatLog(); err != nil {
		return err
	}
	d.references()
	return nil
}

// parseQuals decodes one stored qualification string, running the re-encode
// migration when the document predates the canonical encoding.
func (d *decoder) parseQuals(text string) (quals.Set, error) {
	if d.mig.RecodeQuals {
		return quals.ParseLegacy(text)
	}
	return quals.Parse(text)
}

func mustClock(text string) report.ClockTime {
	c, _ := report.ParseClock(text) // format already validated
	return c
}

// ---------------------------------------------------------------------------
// Scalar fields and enumerations
// ---------------------------------------------------------------------------

func (d *decoder) scalars() error {
	rd := d.doc.Report
	out := d.out

	out.Serial = rd.Serial
	out.Station = rd.Station
	out.RadioCallName = rd.RadioCallName
	out.PurposeComment = rd.PurposeComment
	out.Date = rd.Date
	out.Begin = mustClock(rd.Begin)
	out.End = mustClock(rd.End)
	out.CarryMinutes = rd.CarryMinutes
	out.Comments = rd.Comments

	out.Purpose = report.DutyPurpose(rd.Purpose)
	if !report.ValidDutyPurpose(out.Purpose) {
		return malformedField("report.purpose", fmt.Sprintf("unknown purpose %q", rd.Purpose))
	}

	out.Weather = report.Weather{
		Precipitation: report.Precipitation(rd.Weather.Precipitation),
		Cloudiness:    report.Cloudiness(rd.Weather.Cloudiness),
		WindStrength:  report.WindStrength(rd.Weather.WindStrength),
		WindDirection: report.WindDirection(rd.Weather.WindDirection),
		AirTempC:      rd.Weather.AirTempC,
		WaterTempC:    rd.Weather.WaterTempC,
		Comments:      rd.Weather.Comments,
	}
	if !report.ValidWeather(out.Weather) {
		return malformedField("report.weather", "enumerated observation out of range")
	}

	out.Enclosures = report.Enclosures{
		Visitors:   rd.Enclosures.Visitors,
		Swimmers:   rd.Enclosures.Swimmers,
		Watercraft: rd.Enclosures.Watercraft,
		Notes:      rd.Enclosures.Notes,
	}

	if !report.ValidAssignmentNumber(rd.AssignmentNo) {
		return malformedField("report.assignment_number", fmt.Sprintf("bad shape %q", rd.AssignmentNo))
	}
	out.AssignmentNo = rd.AssignmentNo

	for _, ru := range rd.Resources {
		out.Resources = append(out.Resources, report.ResourceUse{
			Name:  ru.Name,
			Begin: mustClock(ru.Begin),
			End:   mustClock(ru.End),
		})
	}

	// Rescue counters: keys outside the fixed domain were written by an
	// older program generation; keep them so no count is lost, but warn.
	for _, key := range sortedKeys(rd.Rescues) {
		n := rd.Rescues[key]
		if n < 0 {
			return malformedField("report.rescues."+key, "negative count")
		}
		t := report.RescueType(key)
		if !report.KnownRescueType(t) {
			d.warnf(WarnUnknownRescueType, "rescue counter %q is outside the known type domain", key)
		}
		out.Rescues[t] = n
	}
	return nil
}

// ---------------------------------------------------------------------------
// Person archives
// ---------------------------------------------------------------------------

func (d *decoder) personnel() error {
	for _, pd := range d.doc.Report.Personnel {
		if err := d.archive(pd, ident.Internal, "report.personnel"); err != nil {
			return err
		}
	}
	for _, pd := range d.doc.Report.PersonnelExternal {
		if err := d.archive(pd, ident.External, "report.personnel_external"); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) archive(pd personDoc, want ident.Category, path string) error {
	id := ident.Ident(pd.Ident)
	cat, err := ident.CategoryOf(id)
	if err != nil {
		return malformedField(path, err.Error())
	}
	if cat != want {
		return malformedField(path, fmt.Sprintf("ident %q is %s, want %s", id, cat, want))
	}

	qs, err := d.parseQuals(pd.Quals)
	if err != nil {
		return malformedField(path+".qualifications", err.Error())
	}

	// The re-encode changes the fingerprint embedded in external idents;
	// keep the rename so later references still resolve.
	if want == ident.External && d.mig.RecodeQuals {
		newID, err := ident.TranslateLegacyExternal(id, qs)
		if err != nil {
			return malformedField(path, err.Error())
		}
		d.identMap[id] = newID
		id = newID
	}

	active := pd.Active == nil || *pd.Active
	p := report.Person{Last: pd.Last, First: pd.First, ID: id, Quals: qs, Active: active}
	if err := d.out.ArchivePerson(p); err != nil {
		return malformedField(path, err.Error())
	}
	return nil
}

// ---------------------------------------------------------------------------
// Duty roster
// ---------------------------------------------------------------------------

func (d *decoder) roster() error {
	for _, rd := range d.doc.Report.DutyRoster {
		id := d.mapIdent(ident.Ident(rd.Ident))
		if _, ok := d.out.PersonByIdent(id); !ok {
			return danglingReference(id)
		}
		fn, err := quals.ParsePersonnelFunction(rd.Function)
		if err != nil {
			return malformedField("report.duty_roster.function", err.Error())
		}
		entry := report.RosterEntry{
			Function: fn,
			Begin:    mustClock(rd.Begin),
			End:      mustClock(rd.End),
		}
		if err := d.out.AddRosterEntry(id, entry, d.policy); err != nil {
			return qualificationViolation(id, rd.Function)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Boat log and drives
// ---------------------------------------------------------------------------

func (d *decoder) boatLog() error {
	bd := d.doc.BoatLog
	d.out.Boat.BoatName = bd.BoatName
	d.out.Boat.RadioCallName = bd.RadioCallName
	d.out.Boat.Comments = bd.Comments
	d.out.Boat.EngineHoursInit = bd.EngineHoursInit
	d.out.Boat.EngineHoursFin = bd.EngineHoursFin
	d.out.Boat.FuelAddedInit = bd.FuelAddedInit
	d.out.Boat.FuelAddedFin = bd.FuelAddedFin
	d.out.Boat.ReadyFrom = mustClock(bd.ReadyFrom)
	d.out.Boat.ReadyUntil = mustClock(bd.ReadyUntil)
	d.out.Boat.Lowered = bd.Lowered
	d.out.Boat.Raised = bd.Raised
	d.out.Boat.CarryMinutes = bd.CarryMinutes

	for di, dd := range bd.Drives {
		if err := d.drive(di, dd); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) drive(di int, dd driveDoc) error {
	path := fmt.Sprintf("boat_log.drives[%d]", di)
	i := d.out.AddDrive(dd.Purpose, mustClock(dd.Begin), mustClock(dd.End))
	d.out.Boat.Drives[i].Comments = dd.Comments
	d.out.Boat.Drives[i].FuelAdded = dd.FuelAdded

	for _, crewText := range sortedKeys(dd.Crew) {
		if err := d.crewEntry(i, path, crewText, dd.Crew[crewText], dd.Guests); err != nil {
			return err
		}
	}

	if dd.Boatman != "" {
		id := ident.Ident(dd.Boatman)
		if _, err := ident.CategoryOf(id); err != nil {
			return malformedField(path+".boatman", err.Error())
		}
		id = d.mapIdent(id)
		if _, onDuty := d.out.RosterEntryOf(id); !onDuty {
			return danglingReference(id)
		}
		if err := d.out.SetDriveBoatman(i, id, d.policy); err != nil {
			return qualificationViolation(id, string(quals.Boatman))
		}
	}
	return nil
}

func (d *decoder) crewEntry(i int, path, crewText, roleText string, guests map[string]guestDoc) error {
	id := ident.Ident(crewText)
	cat, err := ident.CategoryOf(id)
	if err != nil {
		return malformedField(path+".crew", err.Error())
	}

	// Resolve the boat function, running the role autocorrection for
	// documents that predate the fix. A retired id in a current-version
	// document is simply unknown.
	autocorrected := false
	fn, ferr := quals.ParseBoatFunction(roleText)
	if ferr != nil {
		remapped, ok := quals.LegacyBoatFunctionRemap(roleText)
		if !ok || !d.mig.AutocorrectRoles {
			return malformedField(path+".crew", ferr.Error())
		}
		fn = remapped
		autocorrected = true
	}

	if cat == ident.AdHoc {
		g, ok := guests[crewText]
		if !ok {
			return malformedField(path+".guests", fmt.Sprintf("no name stored for guest %q", id))
		}
		if err := d.out.AddDriveGuestWithIdent(i, id, report.GuestName{Last: g.Last, First: g.First}, fn); err != nil {
			return malformedField(path+".guests", err.Error())
		}
	} else {
		id = d.mapIdent(id)
		if _, onDuty := d.out.RosterEntryOf(id); !onDuty {
			return danglingReference(id)
		}
		if err := d.out.AddDriveCrew(i, id, fn, d.policy); err != nil {
			return qualificationViolation(id, string(fn))
		}
	}

	if autocorrected {
		d.warnf(WarnRoleAutocorrected, "crew entry %q: role %q remapped to %q", id, roleText, fn)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Soft reference checks
// ---------------------------------------------------------------------------

// references runs the soft lookups against the reference store. A miss never
// fails the decode; the report stays valid standalone.
func (d *decoder) references() {
	if st := d.doc.Report.Station; st != "" {
		station, ok := d.ref.StationByIdent(st)
		switch {
		case !ok:
			d.warnf(WarnUnknownStation, "station %q is not in the reference store", st)
		case d.out.RadioCallName != "" && d.out.RadioCallName != station.RadioCallName:
			d.warnf(WarnRadioNameMismatch, "station radio call name %q differs from registered %q",
				d.out.RadioCallName, station.RadioCallName)
		}
	}
	if bn := d.doc.BoatLog.BoatName; bn != "" {
		boat, ok := d.ref.BoatByName(bn)
		switch {
		case !ok:
			d.warnf(WarnUnknownBoat, "boat %q is not in the reference store", bn)
		case d.out.Boat.RadioCallName != "" && d.out.Boat.RadioCallName != boat.RadioCallName:
			d.warnf(WarnRadioNameMismatch, "boat radio call name %q differs from registered %q",
				d.out.Boat.RadioCallName, boat.RadioCallName)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
