package codec

// version.go — document version triples and the migration gate.
//
// Migrations are an ordered list of independent (version range, behavior)
// pairs, not one flag: the two current entries happen to share a boundary
// because both historical format changes landed in the same release, but a
// third migration at a different boundary slots in without touching the
// decode path.

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed semantic version triple.
type Version struct {
	Major, Minor, Patch int
}

// CurrentVersion is the schema version this codec reads and writes natively.
// Documents at exactly this version skip every migration step.
var CurrentVersion = Version{1, 4, 0}

// MinVersion is the oldest document version the codec still accepts.
var MinVersion = Version{1, 0, 0}

// ParseVersion parses "MAJOR.MINOR.PATCH".
func ParseVersion(text string) (Version, error) {
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("bad version %q (want MAJOR.MINOR.PATCH)", text)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("bad version %q (want MAJOR.MINOR.PATCH)", text)
		}
		nums[i] = n
	}
	return Version{nums[0], nums[1], nums[2]}, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 for v <, ==, > o.
func (v Version) Compare(o Version) int {
	pairs := [3][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}}
	for _, p := range pairs {
		if p[0] != p[1] {
			if p[0] < p[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// Migration gate
// ---------------------------------------------------------------------------

// migrationSet says which migration behaviors the decode of one document
// runs. Both are observably absent for current-version documents.
type migrationSet struct {
	// RecodeQuals: every stored qualification string uses the retired
	// encoding and must be re-encoded; embedded external-ident fingerprints
	// change with it.
	RecodeQuals bool
	// AutocorrectRoles: the retired engine-keeper role id is remapped to its
	// corrected successor and re-validated.
	AutocorrectRoles bool
}

// migrations is the ordered gate: each entry enables one behavior for
// documents strictly below its boundary version.
var migrations = []struct {
	below  Version
	enable func(*migrationSet)
}{
	{Version{1, 4, 0}, func(m *migrationSet) { m.RecodeQuals = true }},
	{Version{1, 4, 0}, func(m *migrationSet) { m.AutocorrectRoles = true }},
}

// migrationsFor derives the migration set for a document version.
func migrationsFor(v Version) migrationSet {
	var m migrationSet
	for _, step := range migrations {
		if v.Compare(step.below) < 0 {
			step.enable(&m)
		}
	}
	return m
}
