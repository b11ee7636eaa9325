// Package ident implements the deterministic person identifier scheme.
//
// An identifier is derived from a person's name and category rather than
// assigned, so a report can be checked for internal consistency without any
// side table. Three shapes exist, distinguishable from the identifier text
// alone:
//
//	internal  Mustermann_Max_12345            (membership number, all digits)
//	external  Doe_Jane_EXT[EH,RSB]#2          (qualification fingerprint,
//	                                           optional #NN disambiguator)
//	ad-hoc    Doe_Jane_GAST#3                 (guest crew, no qualifications)
//
// Names are NFC-normalized and stripped of the reserved separator before
// embedding, so the same name always produces byte-identical identifiers.
package ident

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"watchlog/internal/quals"
)

// Ident is the derived textual identifier of a person.
type Ident string

// Category classifies an identifier by its shape.
type Category int

const (
	Internal Category = iota // archived from the personnel reference store
	External                 // named person outside the reference store
	AdHoc                    // guest, boat-drive crew only
)

func (c Category) String() string {
	switch c {
	case Internal:
		return "internal"
	case External:
		return "external"
	case AdHoc:
		return "ad-hoc"
	default:
		return "unknown"
	}
}

var (
	// ErrMalformed reports an identifier whose shape matches no category.
	ErrMalformed = errors.New("malformed ident")
	// ErrExhausted reports that all 99 disambiguation suffixes are taken.
	ErrExhausted = errors.New("ident suffixes exhausted")
)

const (
	maxSuffix   = 99
	externalTag = "EXT["
	adHocTag    = "GAST"
)

// NormalizeName prepares a name component for embedding: NFC normalization,
// surrounding whitespace trimmed, and the reserved "_" separator replaced
// with "-".
func NormalizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "_", "-")
}

func namePrefix(last, first string) (string, error) {
	last = NormalizeName(last)
	first = NormalizeName(first)
	if last == "" || first == "" {
		return "", fmt.Errorf("%w: empty name component", ErrMalformed)
	}
	return last + "_" + first, nil
}

func suffixPart(suffix int) (string, error) {
	switch {
	case suffix == 0:
		return "", nil
	case suffix >= 1 && suffix <= maxSuffix:
		return fmt.Sprintf("#%d", suffix), nil
	default:
		return "", fmt.Errorf("%w: suffix %d out of range 1..%d", ErrMalformed, suffix, maxSuffix)
	}
}

// MakeInternal builds the identifier of a person archived from the reference
// store. memberNo must be non-empty and all digits; distinct membership
// numbers can never collide.
func MakeInternal(last, first, memberNo string) (Ident, error) {
	prefix, err := namePrefix(last, first)
	if err != nil {
		return "", err
	}
	if !allDigits(memberNo) {
		return "", fmt.Errorf("%w: membership number %q must be digits", ErrMalformed, memberNo)
	}
	return Ident(prefix + "_" + memberNo), nil
}

// MakeExternal builds the identifier of a named person outside the reference
// store. The canonical qualification fingerprint is embedded; two external
// persons with identical name, qualifications, and zero suffix collide by
// design, and the caller disambiguates with suffix 1..99.
func MakeExternal(last, first string, qs quals.Set, suffix int) (Ident, error) {
	prefix, err := namePrefix(last, first)
	if err != nil {
		return "", err
	}
	sfx, err := suffixPart(suffix)
	if err != nil {
		return "", err
	}
	return Ident(prefix + "_" + externalTag + qs.String() + "]" + sfx), nil
}

// MakeAdHoc builds the identifier of a guest crew member. Same disambiguation
// scheme as MakeExternal, no qualifications embedded.
func MakeAdHoc(last, first string, suffix int) (Ident, error) {
	prefix, err := namePrefix(last, first)
	if err != nil {
		return "", err
	}
	sfx, err := suffixPart(suffix)
	if err != nil {
		return "", err
	}
	return Ident(prefix + "_" + adHocTag + sfx), nil
}

// FirstFreeExternal returns the first external identifier for (last, first,
// qs) not present in taken, trying the bare form first and then suffixes
// 1..99. Returns ErrExhausted when every candidate is taken.
func FirstFreeExternal(last, first string, qs quals.Set, taken map[Ident]bool) (Ident, error) {
	for suffix := 0; suffix <= maxSuffix; suffix++ {
		id, err := MakeExternal(last, first, qs, suffix)
		if err != nil {
			return "", err
		}
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: external %s %s", ErrExhausted, last, first)
}

// FirstFreeAdHoc is FirstFreeExternal for guest identifiers.
func FirstFreeAdHoc(last, first string, taken map[Ident]bool) (Ident, error) {
	for suffix := 0; suffix <= maxSuffix; suffix++ {
		id, err := MakeAdHoc(last, first, suffix)
		if err != nil {
			return "", err
		}
		if !taken[id] {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: ad-hoc %s %s", ErrExhausted, last, first)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Ref is the parsed, tagged form of an identifier. Category dispatch in the
// aggregate and the codec happens on Ref, not by re-parsing strings; the
// textual Ident appears only at the serialization boundary.
type Ref struct {
	Category Category
	Last     string
	First    string
	MemberNo string // internal only
	QualText string // external only; fingerprint text as embedded
	Suffix   int    // external and ad-hoc; 0 means no suffix
}

// ParseRef decomposes an identifier, failing with ErrMalformed when the
// trailing segment matches no category shape.
func ParseRef(id Ident) (Ref, error) {
	parts := strings.Split(string(id), "_")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
	ref := Ref{Last: parts[0], First: parts[1]}
	tail := parts[2]

	switch {
	case allDigits(tail):
		ref.Category = Internal
		ref.MemberNo = tail
		return ref, nil

	case strings.HasPrefix(tail, externalTag):
		ref.Category = External
		rest := tail[len(externalTag):]
		end := strings.Index(rest, "]")
		if end < 0 {
			return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, id)
		}
		ref.QualText = rest[:end]
		suffix, err := parseSuffix(rest[end+1:])
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, id)
		}
		ref.Suffix = suffix
		return ref, nil

	case strings.HasPrefix(tail, adHocTag):
		ref.Category = AdHoc
		suffix, err := parseSuffix(tail[len(adHocTag):])
		if err != nil {
			return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, id)
		}
		ref.Suffix = suffix
		return ref, nil

	default:
		return Ref{}, fmt.Errorf("%w: %q", ErrMalformed, id)
	}
}

// parseSuffix parses the optional "#NN" tail. "" is suffix 0.
func parseSuffix(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if !strings.HasPrefix(text, "#") {
		return 0, fmt.Errorf("bad suffix %q", text)
	}
	digits := text[1:]
	if !allDigits(digits) || len(digits) == 0 || len(digits) > 2 {
		return 0, fmt.Errorf("bad suffix %q", text)
	}
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
	}
	if n < 1 || n > maxSuffix {
		return 0, fmt.Errorf("suffix %d out of range", n)
	}
	return n, nil
}

// CategoryOf classifies an identifier by shape alone.
func CategoryOf(id Ident) (Category, error) {
	ref, err := ParseRef(id)
	if err != nil {
		return 0, err
	}
	return ref.Category, nil
}

// MemberNo extracts the membership number from an internal identifier.
func MemberNo(id Ident) (string, error) {
	ref, err := ParseRef(id)
	if err != nil {
		return "", err
	}
	if ref.Category != Internal {
		return "", fmt.Errorf("%w: %q carries no membership number", ErrMalformed, id)
	}
	return ref.MemberNo, nil
}

// TranslateLegacyExternal rebuilds an external identifier whose embedded
// fingerprint used the retired qualification encoding. The name and suffix
// are kept; only the fingerprint changes to the canonical encoding of qs.
// Used exclusively by the document migration path.
func TranslateLegacyExternal(old Ident, qs quals.Set) (Ident, error) {
	ref, err := ParseRef(old)
	if err != nil {
		return "", err
	}
	if ref.Category != External {
		return "", fmt.Errorf("%w: %q is not an external ident", ErrMalformed, old)
	}
	return MakeExternal(ref.Last, ref.First, qs, ref.Suffix)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
