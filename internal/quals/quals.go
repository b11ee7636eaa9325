// Package quals models the qualification capability set of a person and the
// predicates that decide which duty and boat functions a capability set
// permits.
//
// Two text encodings exist for a Set:
//
//	canonical — comma-joined canonical tokens in flag order ("EH,RSB,BFA")
//	legacy    — ampersand-joined single letters ("E&B&A"), written by
//	            program generations before the schema carried an explicit
//	            version field
//
// Recode converts the legacy encoding to the canonical one; it is the pure
// re-encode step the document migration path runs over every stored
// qualification string.
package quals

import (
	"fmt"
	"strings"
)

// Set is a bit set of capability flags.
type Set uint16

const (
	FirstAid Set = 1 << iota
	LifeguardBronze
	LifeguardSilver
	LifeguardGold
	Medic
	BoatLicenseA
	BoatLicenseB
	RadioOperator
)

// flagSpec ties one capability flag to both of its text encodings.
// Order here is the canonical encode order.
var flagSpecs = []struct {
	flag   Set
	token  string // canonical token
	legacy string // pre-versioning single-letter code
}{
	{FirstAid, "EH", "E"},
	{LifeguardBronze, "RSB", "B"},
	{LifeguardSilver, "RSS", "S"},
	{LifeguardGold, "RSG", "G"},
	{Medic, "SAN", "M"},
	{BoatLicenseA, "BFA", "A"},
	{BoatLicenseB, "BFB", "C"},
	{RadioOperator, "FUNK", "F"},
}

// Has reports whether s contains every flag in f.
func (s Set) Has(f Set) bool {
	return s&f == f
}

// String renders s in the canonical encoding: comma-joined tokens in flag
// order. The empty set renders as "".
func (s Set) String() string {
	var tokens []string
	for _, fs := range flagSpecs {
		if s.Has(fs.flag) {
			tokens = append(tokens, fs.token)
		}
	}
	return strings.Join(tokens, ",")
}

// Parse decodes the canonical encoding. "" is the empty set. Duplicate tokens
// are tolerated; an unknown token is an error.
func Parse(text string) (Set, error) {
	var s Set
	if text == "" {
		return s, nil
	}
	for _, token := range strings.Split(text, ",") {
		matched := false
		for _, fs := range flagSpecs {
			if fs.token == token {
				s |= fs.flag
				matched = true
				break
			}
		}
		if !matched {
			return 0, fmt.Errorf("unknown qualification token %q", token)
		}
	}
	return s, nil
}

// ParseLegacy decodes the pre-versioning single-letter encoding.
func ParseLegacy(text string) (Set, error) {
	var s Set
	if text == "" {
		return s, nil
	}
	for _, letter := range strings.Split(text, "&") {
		matched := false
		for _, fs := range flagSpecs {
			if fs.legacy == letter {
				s |= fs.flag
				matched = true
				break
			}
		}
		if !matched {
			return 0, fmt.Errorf("unknown legacy qualification code %q", letter)
		}
	}
	return s, nil
}

// Recode converts a legacy qualification string to the canonical encoding.
func Recode(legacy string) (string, error) {
	s, err := ParseLegacy(legacy)
	if err != nil {
		return "", err
	}
	return s.String(), nil
}

// ---------------------------------------------------------------------------
// Boatman license policy
// ---------------------------------------------------------------------------

// LicensePolicy selects which boat-license combination qualifies a person as
// boatman. It is station configuration, supplied by the caller, not a fixed
// rule of the capability model.
type LicensePolicy int

const (
	LicenseA    LicensePolicy = iota // inland license required
	LicenseB                         // coastal license required
	LicenseAny                       // either license suffices
	LicenseBoth                      // both licenses required
)

// AllowsBoatman reports whether s qualifies as boatman under policy p.
func AllowsBoatman(s Set, p LicensePolicy) bool {
	switch p {
	case LicenseA:
		return s.Has(BoatLicenseA)
	case LicenseB:
		return s.Has(BoatLicenseB)
	case LicenseAny:
		return s.Has(BoatLicenseA) || s.Has(BoatLicenseB)
	case LicenseBoth:
		return s.Has(BoatLicenseA | BoatLicenseB)
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Duty (personnel) functions
// ---------------------------------------------------------------------------

// PersonnelFunction is a role a person fills on the duty roster.
// The string value is the serialized form.
type PersonnelFunction string

const (
	StationLeader  PersonnelFunction = "WF"
	DeputyLeader   PersonnelFunction = "SWF"
	Lifeguard      PersonnelFunction = "RS"
	MedicOnDuty    PersonnelFunction = "SAN"
	RadioPost      PersonnelFunction = "FU"
	BoatmanOnDuty  PersonnelFunction = "BF"
	Trainee        PersonnelFunction = "PA"
)

// PersonnelFunctions lists all valid duty functions in display order.
var PersonnelFunctions = []PersonnelFunction{
	StationLeader, DeputyLeader, Lifeguard, MedicOnDuty, RadioPost, BoatmanOnDuty, Trainee,
}

// ParsePersonnelFunction validates a serialized duty function.
func ParsePersonnelFunction(text string) (PersonnelFunction, error) {
	for _, fn := range PersonnelFunctions {
		if string(fn) == text {
			return fn, nil
		}
	}
	return "", fmt.Errorf("unknown duty function %q", text)
}

// AllowsPersonnelFunction reports whether s permits filling fn. The boatman
// function defers to the injected license policy.
func AllowsPersonnelFunction(fn PersonnelFunction, s Set, p LicensePolicy) bool {
	switch fn {
	case StationLeader, DeputyLeader:
		return s.Has(LifeguardSilver)
	case Lifeguard:
		return s.Has(LifeguardBronze)
	case MedicOnDuty:
		return s.Has(Medic)
	case RadioPost:
		return s.Has(RadioOperator)
	case BoatmanOnDuty:
		return AllowsBoatman(s, p)
	case Trainee:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Boat functions
// ---------------------------------------------------------------------------

// BoatFunction is a role a person fills on a single boat drive.
type BoatFunction string

const (
	Boatman      BoatFunction = "BF"
	CrewMember   BoatFunction = "BG"
	EngineKeeper BoatFunction = "MA"
	RadioKeeper  BoatFunction = "FU"
)

// BoatFunctions lists all valid boat functions in display order.
var BoatFunctions = []BoatFunction{Boatman, CrewMember, EngineKeeper, RadioKeeper}

// ParseBoatFunction validates a serialized boat function.
func ParseBoatFunction(text string) (BoatFunction, error) {
	for _, fn := range BoatFunctions {
		if string(fn) == text {
			return fn, nil
		}
	}
	return "", fmt.Errorf("unknown boat function %q", text)
}

// LegacyBoatFunctionRemap maps a boat function id retired by a schema change
// to its corrected successor. Pre-versioning documents wrote the engine keeper
// as "MR" and checked the wrong capability for it; such entries are remapped
// to EngineKeeper and then re-validated against the corrected requirement.
func LegacyBoatFunctionRemap(text string) (BoatFunction, bool) {
	if text == "MR" {
		return EngineKeeper, true
	}
	return "", false
}

// AllowsBoatFunction reports whether s permits filling fn on a drive. The
// boatman function defers to the injected license policy.
func AllowsBoatFunction(fn BoatFunction, s Set, p LicensePolicy) bool {
	switch fn {
	case Boatman:
		return AllowsBoatman(s, p)
	case CrewMember:
		return s.Has(LifeguardBronze)
	case EngineKeeper:
		return s.Has(BoatLicenseA)
	case RadioKeeper:
		return s.Has(RadioOperator)
	default:
		return false
	}
}
