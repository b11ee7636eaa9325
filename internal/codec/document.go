// Package codec encodes a watch duty report to its versioned YAML document
// and reconstructs it later, tolerating the historical schema generations.
//
// Decode runs: magic sniff → version resolve → compatibility gate → migration
// derivation → structural decode interleaved with validation. Encode is the
// structural mapping in reverse with no migration and no validation: the
// in-memory aggregate cannot be inconsistent because all mutation went
// through its invariant-preserving operations.
package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"watchlog/internal/ident"
	"watchlog/internal/report"
)

// docMagic is the marker every duty-report document starts with.
const docMagic = "watchlog/duty-report"

// ---------------------------------------------------------------------------
// Document schema
// ---------------------------------------------------------------------------

type document struct {
	Magic                string     `yaml:"magic"`
	SchemaVersion        string     `yaml:"schema_version,omitempty"`
	LegacyProgramVersion string     `yaml:"legacy_program_version,omitempty"`
	Timestamp            string     `yaml:"timestamp"`
	Report               reportDoc  `yaml:"report"`
	BoatLog              boatLogDoc `yaml:"boat_log"`
}

type reportDoc struct {
	Serial         int            `yaml:"serial" validate:"min=1"`
	Station        string         `yaml:"station"`
	RadioCallName  string         `yaml:"radio_call_name"`
	Purpose        string         `yaml:"purpose"`
	PurposeComment string         `yaml:"purpose_comment"`
	Date           string         `yaml:"date" validate:"omitempty,datefmt"`
	Begin          string         `yaml:"begin" validate:"clocktime"`
	End            string         `yaml:"end" validate:"clocktime"`
	Weather        weatherDoc     `yaml:"weather"`
	Enclosures     enclosuresDoc  `yaml:"enclosures"`
	CarryMinutes   int            `yaml:"personnel_carry_minutes" validate:"min=0"`
	Rescues        map[string]int `yaml:"rescues"`
	AssignmentNo   string         `yaml:"assignment_number"`
	Resources      []resourceDoc  `yaml:"resources" validate:"dive"`
	Comments       string         `yaml:"comments"`

	Personnel         []personDoc `yaml:"personnel" validate:"dive"`
	PersonnelExternal []personDoc `yaml:"personnel_external" validate:"dive"`
	DutyRoster        []rosterDoc `yaml:"duty_roster" validate:"dive"`
}

type weatherDoc struct {
	Precipitation string `yaml:"precipitation"`
	Cloudiness    string `yaml:"cloudiness"`
	WindStrength  string `yaml:"wind_strength"`
	WindDirection string `yaml:"wind_direction"`
	AirTempC      int    `yaml:"air_temp_c"`
	WaterTempC    int    `yaml:"water_temp_c"`
	Comments      string `yaml:"comments"`
}

type enclosuresDoc struct {
	Visitors   int      `yaml:"visitors" validate:"min=0"`
	Swimmers   int      `yaml:"swimmers" validate:"min=0"`
	Watercraft int      `yaml:"watercraft" validate:"min=0"`
	Notes      []string `yaml:"notes"`
}

type resourceDoc struct {
	Name  string `yaml:"name" validate:"required"`
	Begin string `yaml:"begin" validate:"clocktime"`
	End   string `yaml:"end" validate:"clocktime"`
}

type personDoc struct {
	Last   string `yaml:"last" validate:"required"`
	First  string `yaml:"first" validate:"required"`
	Ident  string `yaml:"ident" validate:"required"`
	Quals  string `yaml:"qualifications"`
	Active *bool  `yaml:"active"` // absent defaults to true
}

type rosterDoc struct {
	Ident    string `yaml:"ident" validate:"required"`
	Function string `yaml:"function" validate:"required"`
	Begin    string `yaml:"begin" validate:"clocktime"`
	End      string `yaml:"end" validate:"clocktime"`
}

type boatLogDoc struct {
	BoatName        string `yaml:"boat"`
	RadioCallName   string `yaml:"radio_call_name"`
	Comments        string `yaml:"comments"`
	EngineHoursInit int    `yaml:"engine_hours_initial" validate:"min=0"`
	EngineHoursFin  int    `yaml:"engine_hours_final" validate:"min=0"`
	FuelAddedInit   int    `yaml:"fuel_added_initial" validate:"min=0"`
	FuelAddedFin    int    `yaml:"fuel_added_final" validate:"min=0"`
	ReadyFrom       string `yaml:"ready_from" validate:"clocktime"`
	ReadyUntil      string `yaml:"ready_until" validate:"clocktime"`
	Lowered         bool   `yaml:"lowered"`
	Raised          bool   `yaml:"raised"`
	CarryMinutes    int    `yaml:"boat_carry_minutes" validate:"min=0"`

	Drives []driveDoc `yaml:"drives" validate:"dive"`
}

type driveDoc struct {
	Purpose   string               `yaml:"purpose"`
	Comments  string               `yaml:"comments"`
	Begin     string               `yaml:"begin" validate:"clocktime"`
	End       string               `yaml:"end" validate:"clocktime"`
	FuelAdded int                  `yaml:"fuel_added" validate:"min=0"`
	Boatman   string               `yaml:"boatman"`
	Crew      map[string]string    `yaml:"crew"`
	Guests    map[string]guestDoc  `yaml:"guests"`
}

type guestDoc struct {
	Last  string `yaml:"last"`
	First string `yaml:"first"`
}

// defaultDocument returns a document pre-populated with every documented
// default; unmarshaling over it leaves absent keys at their default, so a
// missing optional key can never fail a decode.
func defaultDocument() document {
	return document{
		Report: reportDoc{
			Serial:  1,
			Purpose: string(report.PurposeWatchkeeping),
			Begin:   "00:00",
			End:     "00:00",
			Weather: weatherDoc{
				Precipitation: string(report.PrecipNone),
				Cloudiness:    string(report.CloudCloudless),
				WindStrength:  string(report.WindCalm),
				WindDirection: string(report.DirUnknown),
			},
		},
		BoatLog: boatLogDoc{
			ReadyFrom:  "00:00",
			ReadyUntil: "00:00",
		},
	}
}

// applyDriveDefaults mirrors defaultDocument for one drive entry; slice
// elements cannot be pre-populated before unmarshaling.
func applyDriveDefaults(d *driveDoc) {
	if d.Begin == "" {
		d.Begin = "00:00"
	}
	if d.End == "" {
		d.End = "00:00"
	}
}

func applyTimeDefaults(doc *document) {
	for i := range doc.Report.Resources {
		if doc.Report.Resources[i].Begin == "" {
			doc.Report.Resources[i].Begin = "00:00"
		}
		if doc.Report.Resources[i].End == "" {
			doc.Report.Resources[i].End = "00:00"
		}
	}
	for i := range doc.Report.DutyRoster {
		if doc.Report.DutyRoster[i].Begin == "" {
			doc.Report.DutyRoster[i].Begin = "00:00"
		}
		if doc.Report.DutyRoster[i].End == "" {
			doc.Report.DutyRoster[i].End = "00:00"
		}
	}
	for i := range doc.BoatLog.Drives {
		applyDriveDefaults(&doc.BoatLog.Drives[i])
	}
}

// ---------------------------------------------------------------------------
// Field-format validation
// ---------------------------------------------------------------------------

// validate checks field formats on decoded document structs. Custom tags:
// clocktime ("HH:MM") and datefmt (ISO date).
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if tag == "-" {
			return ""
		}
		return tag
	})
	mustRegister(v, "clocktime", func(fl validator.FieldLevel) bool {
		_, err := report.ParseClock(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "datefmt", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// validateSection runs struct validation and maps the first failure to a
// MalformedField error with a dotted document path.
func validateSection(section any, prefix string) *DecodeError {
	err := validate.Struct(section)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		return malformedField(prefix+"."+ns, fmt.Sprintf("fails %q constraint", fe.Tag()))
	}
	return malformedField(prefix, err.Error())
}

// ---------------------------------------------------------------------------
// Encode
// ---------------------------------------------------------------------------

// Encode serializes r as a current-version document stamped with the present
// wall-clock time. No validation runs: the writer trusts its own aggregate.
func Encode(r *report.Report) ([]byte, error) {
	doc := documentFrom(r, time.Now().UTC())
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// documentFrom maps the aggregate to its document form. Collections are
// emitted in sorted identifier order so output is deterministic.
func documentFrom(r *report.Report, now time.Time) document {
	doc := document{
		Magic:         docMagic,
		SchemaVersion: CurrentVersion.String(),
		Timestamp:     now.Format(time.RFC3339),
		Report: reportDoc{
			Serial:         r.Serial,
			Station:        r.Station,
			RadioCallName:  r.RadioCallName,
			Purpose:        string(r.Purpose),
			PurposeComment: r.PurposeComment,
			Date:           r.Date,
			Begin:          r.Begin.String(),
			End:            r.End.String(),
			Weather: weatherDoc{
				Precipitation: string(r.Weather.Precipitation),
				Cloudiness:    string(r.Weather.Cloudiness),
				WindStrength:  string(r.Weather.WindStrength),
				WindDirection: string(r.Weather.WindDirection),
				AirTempC:      r.Weather.AirTempC,
				WaterTempC:    r.Weather.WaterTempC,
				Comments:      r.Weather.Comments,
			},
			Enclosures: enclosuresDoc{
				Visitors:   r.Enclosures.Visitors,
				Swimmers:   r.Enclosures.Swimmers,
				Watercraft: r.Enclosures.Watercraft,
				Notes:      r.Enclosures.Notes,
			},
			CarryMinutes: r.CarryMinutes,
			Rescues:      rescuesFrom(r),
			AssignmentNo: r.AssignmentNo,
			Comments:     r.Comments,
		},
		BoatLog: boatLogDoc{
			BoatName:        r.Boat.BoatName,
			RadioCallName:   r.Boat.RadioCallName,
			Comments:        r.Boat.Comments,
			EngineHoursInit: r.Boat.EngineHoursInit,
			EngineHoursFin:  r.Boat.EngineHoursFin,
			FuelAddedInit:   r.Boat.FuelAddedInit,
			FuelAddedFin:    r.Boat.FuelAddedFin,
			ReadyFrom:       r.Boat.ReadyFrom.String(),
			ReadyUntil:      r.Boat.ReadyUntil.String(),
			Lowered:         r.Boat.Lowered,
			Raised:          r.Boat.Raised,
			CarryMinutes:    r.Boat.CarryMinutes,
		},
	}

	for _, ru := range r.Resources {
		doc.Report.Resources = append(doc.Report.Resources, resourceDoc{
			Name:  ru.Name,
			Begin: ru.Begin.String(),
			End:   ru.End.String(),
		})
	}

	doc.Report.Personnel = personDocsFrom(r.Personnel(ident.Internal))
	doc.Report.PersonnelExternal = personDocsFrom(r.Personnel(ident.External))

	ids := r.RosterIdents()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		entry, _ := r.RosterEntryOf(id)
		doc.Report.DutyRoster = append(doc.Report.DutyRoster, rosterDoc{
			Ident:    string(id),
			Function: string(entry.Function),
			Begin:    entry.Begin.String(),
			End:      entry.End.String(),
		})
	}

	for _, d := range r.Boat.Drives {
		dd := driveDoc{
			Purpose:   d.Purpose,
			Comments:  d.Comments,
			Begin:     d.Begin.String(),
			End:       d.End.String(),
			FuelAdded: d.FuelAdded,
			Boatman:   string(d.Boatman),
		}
		if len(d.Crew) > 0 {
			dd.Crew = make(map[string]string, len(d.Crew))
			for id, fn := range d.Crew {
				dd.Crew[string(id)] = string(fn)
			}
		}
		if len(d.Guests) > 0 {
			dd.Guests = make(map[string]guestDoc, len(d.Guests))
			for id, name := range d.Guests {
				dd.Guests[string(id)] = guestDoc{Last: name.Last, First: name.First}
			}
		}
		doc.BoatLog.Drives = append(doc.BoatLog.Drives, dd)
	}

	return doc
}

func personDocsFrom(persons []report.Person) []personDoc {
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	docs := make([]personDoc, 0, len(persons))
	for _, p := range persons {
		active := p.Active
		docs = append(docs, personDoc{
			Last:   p.Last,
			First:  p.First,
			Ident:  string(p.ID),
			Quals:  p.Quals.String(),
			Active: &active,
		})
	}
	return docs
}

func rescuesFrom(r *report.Report) map[string]int {
	out := make(map[string]int, len(r.Rescues))
	for t, n := range r.Rescues {
		out[string(t)] = n
	}
	return out
}
