// Package report holds the in-memory watch duty report aggregate: the report
// itself, its nested boat log with the ordered drive list, the two person
// archives, and the carryover calculator that seeds a successor report from
// its predecessor's totals.
//
// Every referential and qualification invariant is enforced by the mutation
// operations here, not by the codec: the decoder rebuilds a report through
// these same operations, so an inconsistent report cannot exist in memory
// regardless of where it came from.
package report

import (
	"fmt"
	"regexp"

	"watchlog/internal/ident"
	"watchlog/internal/quals"
)

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// DutyPurpose is the closed purpose enumeration; free text goes into
// PurposeComment.
type DutyPurpose string

const (
	PurposeWatchkeeping DutyPurpose = "watchkeeping"
	PurposeTraining     DutyPurpose = "training"
	PurposeExercise     DutyPurpose = "exercise"
	PurposeEvent        DutyPurpose = "event"
	PurposeOther        DutyPurpose = "other"
)

// DutyPurposes lists all valid purposes.
var DutyPurposes = []DutyPurpose{
	PurposeWatchkeeping, PurposeTraining, PurposeExercise, PurposeEvent, PurposeOther,
}

// Precipitation observation.
type Precipitation string

const (
	PrecipNone      Precipitation = "none"
	PrecipDrizzle   Precipitation = "drizzle"
	PrecipRain      Precipitation = "rain"
	PrecipHeavyRain Precipitation = "heavy_rain"
	PrecipHail      Precipitation = "hail"
	PrecipSnow      Precipitation = "snow"
)

// Precipitations lists all valid precipitation values.
var Precipitations = []Precipitation{
	PrecipNone, PrecipDrizzle, PrecipRain, PrecipHeavyRain, PrecipHail, PrecipSnow,
}

// Cloudiness observation.
type Cloudiness string

const (
	CloudCloudless Cloudiness = "cloudless"
	CloudScattered Cloudiness = "scattered"
	CloudCloudy    Cloudiness = "cloudy"
	CloudOvercast  Cloudiness = "overcast"
)

// Cloudinesses lists all valid cloudiness values.
var Cloudinesses = []Cloudiness{CloudCloudless, CloudScattered, CloudCloudy, CloudOvercast}

// WindStrength observation.
type WindStrength string

const (
	WindCalm     WindStrength = "calm"
	WindLight    WindStrength = "light"
	WindModerate WindStrength = "moderate"
	WindStrong   WindStrength = "strong"
	WindGale     WindStrength = "gale"
)

// WindStrengths lists all valid wind strengths.
var WindStrengths = []WindStrength{WindCalm, WindLight, WindModerate, WindStrong, WindGale}

// WindDirection observation. Unknown is the decode default.
type WindDirection string

const (
	DirUnknown WindDirection = "unknown"
	DirN       WindDirection = "N"
	DirNE      WindDirection = "NE"
	DirE       WindDirection = "E"
	DirSE      WindDirection = "SE"
	DirS       WindDirection = "S"
	DirSW      WindDirection = "SW"
	DirW       WindDirection = "W"
	DirNW      WindDirection = "NW"
)

// WindDirections lists all valid wind directions.
var WindDirections = []WindDirection{DirUnknown, DirN, DirNE, DirE, DirSE, DirS, DirSW, DirW, DirNW}

// RescueType is the fixed rescue-operation-type domain. Documents written by
// older program generations may carry keys outside this list; such entries
// are kept verbatim so counts are never silently dropped.
type RescueType string

const (
	RescueFirstAid         RescueType = "first_aid"
	RescueSwimmer          RescueType = "swimmer_rescue"
	RescueBoat             RescueType = "boat_rescue"
	RescueMedicalTransport RescueType = "medical_transport"
	RescueSearch           RescueType = "search"
	RescueCapsize          RescueType = "capsize"
	RescueOther            RescueType = "other"
)

// RescueTypes lists the fixed rescue-type domain in display order.
var RescueTypes = []RescueType{
	RescueFirstAid, RescueSwimmer, RescueBoat, RescueMedicalTransport,
	RescueSearch, RescueCapsize, RescueOther,
}

// KnownRescueType reports whether t belongs to the fixed domain.
func KnownRescueType(t RescueType) bool {
	for _, k := range RescueTypes {
		if k == t {
			return true
		}
	}
	return false
}

func enumValid[T ~string](value T, all []T) bool {
	for _, v := range all {
		if v == value {
			return true
		}
	}
	return false
}

// ValidDutyPurpose reports whether p is a member of the closed enumeration.
func ValidDutyPurpose(p DutyPurpose) bool { return enumValid(p, DutyPurposes) }

// ValidWeather reports whether every enumerated weather observation in w is in
// range.
func ValidWeather(w Weather) bool {
	return enumValid(w.Precipitation, Precipitations) &&
		enumValid(w.Cloudiness, Cloudinesses) &&
		enumValid(w.WindStrength, WindStrengths) &&
		enumValid(w.WindDirection, WindDirections)
}

// ---------------------------------------------------------------------------
// Supporting value types
// ---------------------------------------------------------------------------

// Weather groups the observation fields recorded once per shift.
type Weather struct {
	Precipitation Precipitation
	Cloudiness    Cloudiness
	WindStrength  WindStrength
	WindDirection WindDirection
	AirTempC      int
	WaterTempC    int
	Comments      string
}

// Enclosures holds the visitor counters for the guarded enclosure.
type Enclosures struct {
	Visitors   int
	Swimmers   int
	Watercraft int
	Notes      []string
}

// ResourceUse records one external resource (vehicle, drone, ambulance)
// active during the shift.
type ResourceUse struct {
	Name  string
	Begin ClockTime
	End   ClockTime
}

// Person is an archived person: name, derived identifier, capability set,
// active flag. Ad-hoc guests are never archived; they live only in the drive
// that carries them.
type Person struct {
	Last   string
	First  string
	ID     ident.Ident
	Quals  quals.Set
	Active bool
}

// RosterEntry is one duty assignment: who is on duty, in what capacity, and
// for which time window.
type RosterEntry struct {
	Function quals.PersonnelFunction
	Begin    ClockTime
	End      ClockTime
}

// assignmentNumberRE is the accepted shape of a non-empty assignment number.
var assignmentNumberRE = regexp.MustCompile(`^\d{4}-\d{1,4}$`)

// ValidAssignmentNumber reports whether text is empty or matches the
// "YYYY-N…" assignment number shape.
func ValidAssignmentNumber(text string) bool {
	return text == "" || assignmentNumberRE.MatchString(text)
}

// ---------------------------------------------------------------------------
// Report aggregate
// ---------------------------------------------------------------------------

// Report is one shift's record. Scalar fields are freely settable; everything
// touching the archives, the roster, or drive crews goes through methods so
// the cross-reference invariants hold at all times.
type Report struct {
	Serial          int
	Station         string
	RadioCallName   string
	Purpose         DutyPurpose
	PurposeComment  string
	Date            string // ISO "YYYY-MM-DD"
	Begin           ClockTime
	End             ClockTime
	Weather         Weather
	Enclosures      Enclosures
	CarryMinutes    int // personnel-hours carry from the predecessor report
	Rescues         map[RescueType]int
	AssignmentNo    string
	Resources       []ResourceUse
	Comments        string

	Boat BoatLog

	internalArchive map[ident.Ident]Person
	externalArchive map[ident.Ident]Person
	roster          map[ident.Ident]RosterEntry
}

// New returns an empty report with every documented default applied: serial 1,
// watchkeeping purpose, calm cloudless weather with unknown wind direction,
// zeroed counters and carries.
func New() *Report {
	r := &Report{
		Serial:  1,
		Purpose: PurposeWatchkeeping,
		Weather: Weather{
			Precipitation: PrecipNone,
			Cloudiness:    CloudCloudless,
			WindStrength:  WindCalm,
			WindDirection: DirUnknown,
		},
		Rescues:         make(map[RescueType]int),
		internalArchive: make(map[ident.Ident]Person),
		externalArchive: make(map[ident.Ident]Person),
		roster:          make(map[ident.Ident]RosterEntry),
	}
	for _, t := range RescueTypes {
		r.Rescues[t] = 0
	}
	return r
}

// ---------------------------------------------------------------------------
// Person archives
// ---------------------------------------------------------------------------

// ArchivePerson stores p in the archive matching its identifier category.
// The identifier must be internal or external (guests are not archived), must
// parse, and must not already be archived.
func (r *Report) ArchivePerson(p Person) error {
	cat, err := ident.CategoryOf(p.ID)
	if err != nil {
		return err
	}
	if _, exists := r.PersonByIdent(p.ID); exists {
		return fmt.Errorf("person %q already archived", p.ID)
	}
	switch cat {
	case ident.Internal:
		r.internalArchive[p.ID] = p
	case ident.External:
		r.externalArchive[p.ID] = p
	default:
		return fmt.Errorf("ad-hoc person %q cannot be archived", p.ID)
	}
	return nil
}

// RemovePerson drops an archived person. Refused while the person is still on
// the roster.
func (r *Report) RemovePerson(id ident.Ident) error {
	if _, onDuty := r.roster[id]; onDuty {
		return fmt.Errorf("person %q is still on the duty roster", id)
	}
	if _, ok := r.internalArchive[id]; ok {
		delete(r.internalArchive, id)
		return nil
	}
	if _, ok := r.externalArchive[id]; ok {
		delete(r.externalArchive, id)
		return nil
	}
	return fmt.Errorf("person %q not archived", id)
}

// PersonByIdent looks id up in both archives.
func (r *Report) PersonByIdent(id ident.Ident) (Person, bool) {
	if p, ok := r.internalArchive[id]; ok {
		return p, true
	}
	p, ok := r.externalArchive[id]
	return p, ok
}

// Personnel returns all archived persons of the given category.
func (r *Report) Personnel(cat ident.Category) []Person {
	var src map[ident.Ident]Person
	switch cat {
	case ident.Internal:
		src = r.internalArchive
	case ident.External:
		src = r.externalArchive
	default:
		return nil
	}
	persons := make([]Person, 0, len(src))
	for _, p := range src {
		persons = append(persons, p)
	}
	return persons
}

// ---------------------------------------------------------------------------
// Duty roster
// ---------------------------------------------------------------------------

// AddRosterEntry puts an archived person on duty. The person must exist in an
// archive and its capability set must permit the function under policy.
func (r *Report) AddRosterEntry(id ident.Ident, entry RosterEntry, policy quals.LicensePolicy) error {
	p, ok := r.PersonByIdent(id)
	if !ok {
		return fmt.Errorf("person %q referenced by roster is not archived", id)
	}
	if !quals.AllowsPersonnelFunction(entry.Function, p.Quals, policy) {
		return fmt.Errorf("person %q lacks the qualification for duty function %q", id, entry.Function)
	}
	r.roster[id] = entry
	return nil
}

// RemoveRosterEntry takes a person off duty. Refused while any drive still
// references the person as boatman or crew.
func (r *Report) RemoveRosterEntry(id ident.Ident) error {
	if _, ok := r.roster[id]; !ok {
		return fmt.Errorf("person %q is not on the duty roster", id)
	}
	for i := range r.Boat.Drives {
		if r.Boat.Drives[i].references(id) {
			return fmt.Errorf("person %q is still crew on drive %d", id, i+1)
		}
	}
	delete(r.roster, id)
	return nil
}

// RosterEntryOf returns the duty assignment of id.
func (r *Report) RosterEntryOf(id ident.Ident) (RosterEntry, bool) {
	e, ok := r.roster[id]
	return e, ok
}

// RosterIdents returns the identifiers currently on duty, in no particular
// order.
func (r *Report) RosterIdents() []ident.Ident {
	ids := make([]ident.Ident, 0, len(r.roster))
	for id := range r.roster {
		ids = append(ids, id)
	}
	return ids
}

// RosterSize returns the number of duty assignments.
func (r *Report) RosterSize() int { return len(r.roster) }
