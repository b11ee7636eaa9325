package codec

// errors.go — the categorized decode failure surface and the soft warning
// list that accompanies a successful decode.

import (
	"fmt"

	"watchlog/internal/ident"
)

// ErrorKind categorizes a terminal decode failure.
type ErrorKind int

const (
	// NotADocument: the bytes are not a duty-report document at all.
	NotADocument ErrorKind = iota
	// UnknownVersion: neither the schema version nor the legacy program
	// version parses as a version triple.
	UnknownVersion
	// IncompatibleVersion: the document version is below the supported floor
	// or above the codec's own version.
	IncompatibleVersion
	// MalformedField: a field failed format or shape validation.
	MalformedField
	// DanglingReference: an identifier does not resolve to an archived or
	// rostered person.
	DanglingReference
	// QualificationViolation: an assigned role is not permitted by the
	// referenced person's capability set.
	QualificationViolation
)

func (k ErrorKind) String() string {
	switch k {
	case NotADocument:
		return "not a document"
	case UnknownVersion:
		return "unknown version"
	case IncompatibleVersion:
		return "incompatible version"
	case MalformedField:
		return "malformed field"
	case DanglingReference:
		return "dangling reference"
	case QualificationViolation:
		return "qualification violation"
	default:
		return "unknown error kind"
	}
}

// DecodeError is the single error type returned by Decode. Decoding is always
// terminal on error: no partial report is ever handed to the caller.
type DecodeError struct {
	Kind   ErrorKind
	Path   string      // MalformedField: dotted field path
	Ident  ident.Ident // DanglingReference, QualificationViolation
	Role   string      // QualificationViolation
	TooNew bool        // IncompatibleVersion: forward document
	Detail string
}

func (e *DecodeError) Error() string {
	switch e.Kind {
	case MalformedField:
		return fmt.Sprintf("%s %q: %s", e.Kind, e.Path, e.Detail)
	case DanglingReference:
		return fmt.Sprintf("%s: %s", e.Kind, e.Ident)
	case QualificationViolation:
		return fmt.Sprintf("%s: %s as %s", e.Kind, e.Ident, e.Role)
	case IncompatibleVersion:
		if e.TooNew {
			return fmt.Sprintf("%s: %s (too new)", e.Kind, e.Detail)
		}
		return fmt.Sprintf("%s: %s (too old)", e.Kind, e.Detail)
	default:
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
		}
		return e.Kind.String()
	}
}

func notADocument(detail string) *DecodeError {
	return &DecodeError{Kind: NotADocument, Detail: detail}
}

func unknownVersion(detail string) *DecodeError {
	return &DecodeError{Kind: UnknownVersion, Detail: detail}
}

func incompatibleVersion(v Version, tooNew bool) *DecodeError {
	return &DecodeError{Kind: IncompatibleVersion, TooNew: tooNew, Detail: v.String()}
}

func malformedField(path, detail string) *DecodeError {
	return &DecodeError{Kind: MalformedField, Path: path, Detail: detail}
}

func danglingReference(id ident.Ident) *DecodeError {
	return &DecodeError{Kind: DanglingReference, Ident: id}
}

func qualificationViolation(id ident.Ident, role string) *DecodeError {
	return &DecodeError{Kind: QualificationViolation, Ident: id, Role: role}
}

// ---------------------------------------------------------------------------
// Warnings
// ---------------------------------------------------------------------------

// WarningCode names a soft integrity problem: decode still succeeds, the
// caller decides whether to surface it.
type WarningCode int

const (
	// WarnUnknownStation: the station reference misses the registry.
	WarnUnknownStation WarningCode = iota
	// WarnUnknownBoat: the boat name misses the registry.
	WarnUnknownBoat
	// WarnUnknownRescueType: a rescue counter key outside the fixed domain
	// was kept verbatim.
	WarnUnknownRescueType
	// WarnRoleAutocorrected: a retired boat function id was remapped to its
	// corrected successor during migration.
	WarnRoleAutocorrected
	// WarnRadioNameMismatch: a radio call name differs from the one the
	// registry records for the referenced station or boat.
	WarnRadioNameMismatch
)

// Warning is one soft finding of a successful decode.
type Warning struct {
	Code   WarningCode
	Detail string
}

func (w Warning) String() string { return w.Detail }
