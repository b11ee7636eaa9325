package report

// boatlog.go — nested boat log aggregate and its ordered drive list.
//
// Drive order is meaningful (chronological sequence) and directly editable by
// positional swap. Crew mutation lives on *Report because the invariant
// "every non-guest crew member is on the duty roster" needs the roster.

import (
	"fmt"

	"watchlog/internal/ident"
	"watchlog/internal/quals"
)

// BoatLog is the per-shift record of the station boat.
type BoatLog struct {
	BoatName        string
	RadioCallName   string
	Comments        string
	EngineHoursInit int
	EngineHoursFin  int
	FuelAddedInit   int
	FuelAddedFin    int
	ReadyFrom       ClockTime
	ReadyUntil      ClockTime
	Lowered         bool
	Raised          bool
	CarryMinutes    int // boat-hours carry from the predecessor report

	Drives []BoatDrive
}

// GuestName is the stored name pair of an ad-hoc crew member, kept beside the
// drive because guests appear in no archive.
type GuestName struct {
	Last  string
	First string
}

// BoatDrive is one entry of the ordered drive list.
type BoatDrive struct {
	Purpose   string
	Comments  string
	Begin     ClockTime
	End       ClockTime
	FuelAdded int

	Boatman ident.Ident // empty when no boatman is entered yet
	Crew    map[ident.Ident]quals.BoatFunction
	Guests  map[ident.Ident]GuestName // ad-hoc crew only
}

// references reports whether id appears in this drive as boatman or crew.
func (d *BoatDrive) references(id ident.Ident) bool {
	if d.Boatman == id {
		return true
	}
	_, ok := d.Crew[id]
	return ok
}

// ---------------------------------------------------------------------------
// Drive list mutation (on *Report — crew invariants need the roster)
// ---------------------------------------------------------------------------

// AddDrive appends an empty drive with the given purpose and time window and
// returns its index.
func (r *Report) AddDrive(purpose string, begin, end ClockTime) int {
	r.Boat.Drives = append(r.Boat.Drives, BoatDrive{
		Purpose: purpose,
		Begin:   begin,
		End:     end,
		Crew:    make(map[ident.Ident]quals.BoatFunction),
		Guests:  make(map[ident.Ident]GuestName),
	})
	return len(r.Boat.Drives) - 1
}

// RemoveDrive deletes the drive at index i, preserving the order of the rest.
func (r *Report) RemoveDrive(i int) error {
	if i < 0 || i >= len(r.Boat.Drives) {
		return fmt.Errorf("drive index %d out of range", i)
	}
	r.Boat.Drives = append(r.Boat.Drives[:i], r.Boat.Drives[i+1:]...)
	return nil
}

// SwapDrives exchanges the drives at positions i and j.
func (r *Report) SwapDrives(i, j int) error {
	if i < 0 || i >= len(r.Boat.Drives) || j < 0 || j >= len(r.Boat.Drives) {
		return fmt.Errorf("drive index out of range (%d, %d)", i, j)
	}
	r.Boat.Drives[i], r.Boat.Drives[j] = r.Boat.Drives[j], r.Boat.Drives[i]
	return nil
}

func (r *Report) drive(i int) (*BoatDrive, error) {
	if i < 0 || i >= len(r.Boat.Drives) {
		return nil, fmt.Errorf("drive index %d out of range", i)
	}
	return &r.Boat.Drives[i], nil
}

// SetDriveBoatman assigns the boatman of drive i. The person must be on the
// duty roster and qualify as boatman under the injected license policy.
func (r *Report) SetDriveBoatman(i int, id ident.Ident, policy quals.LicensePolicy) error {
	d, err := r.drive(i)
	if err != nil {
		return err
	}
	if _, onDuty := r.roster[id]; !onDuty {
		return fmt.Errorf("boatman %q is not on the duty roster", id)
	}
	p, _ := r.PersonByIdent(id)
	if !quals.AllowsBoatman(p.Quals, policy) {
		return fmt.Errorf("person %q lacks the boatman qualification", id)
	}
	d.Boatman = id
	return nil
}

// ClearDriveBoatman removes the boatman assignment of drive i.
func (r *Report) ClearDriveBoatman(i int) error {
	d, err := r.drive(i)
	if err != nil {
		return err
	}
	d.Boatman = ""
	return nil
}

// AddDriveCrew puts a rostered person on drive i with the given boat
// function. Guests go through AddDriveGuest instead.
func (r *Report) AddDriveCrew(i int, id ident.Ident, fn quals.BoatFunction, policy quals.LicensePolicy) error {
	d, err := r.drive(i)
	if err != nil {
		return err
	}
	if _, onDuty := r.roster[id]; !onDuty {
		return fmt.Errorf("crew member %q is not on the duty roster", id)
	}
	p, _ := r.PersonByIdent(id)
	if !quals.AllowsBoatFunction(fn, p.Quals, policy) {
		return fmt.Errorf("person %q lacks the qualification for boat function %q", id, fn)
	}
	d.Crew[id] = fn
	return nil
}

// AddDriveGuest adds an ad-hoc crew member to drive i. The identifier is
// minted from the name with the first free disambiguation suffix among the
// guests already on the drive; no qualifications are tracked or checked.
func (r *Report) AddDriveGuest(i int, last, first string, fn quals.BoatFunction) (ident.Ident, error) {
	d, err := r.drive(i)
	if err != nil {
		return "", err
	}
	if fn == quals.Boatman {
		return "", fmt.Errorf("a guest cannot be boatman")
	}
	taken := make(map[ident.Ident]bool, len(d.Guests))
	for id := range d.Guests {
		taken[id] = true
	}
	id, err := ident.FirstFreeAdHoc(last, first, taken)
	if err != nil {
		return "", err
	}
	d.Crew[id] = fn
	d.Guests[id] = GuestName{Last: ident.NormalizeName(last), First: ident.NormalizeName(first)}
	return id, nil
}

// AddDriveGuestWithIdent adds an ad-hoc crew member under an already-minted
// identifier. The stored name must regenerate the identifier exactly
// (including its suffix); anything else means the entry was tampered with or
// corrupted. The decoder restores guests through this operation.
func (r *Report) AddDriveGuestWithIdent(i int, id ident.Ident, name GuestName, fn quals.BoatFunction) error {
	d, err := r.drive(i)
	if err != nil {
		return err
	}
	if fn == quals.Boatman {
		return fmt.Errorf("a guest cannot be boatman")
	}
	ref, err := ident.ParseRef(id)
	if err != nil {
		return err
	}
	if ref.Category != ident.AdHoc {
		return fmt.Errorf("ident %q is not ad-hoc", id)
	}
	regen, err := ident.MakeAdHoc(name.Last, name.First, ref.Suffix)
	if err != nil {
		return err
	}
	if regen != id {
		return fmt.Errorf("guest name %q, %q does not regenerate ident %q", name.Last, name.First, id)
	}
	if _, exists := d.Crew[id]; exists {
		return fmt.Errorf("guest %q already on drive %d", id, i+1)
	}
	d.Crew[id] = fn
	d.Guests[id] = GuestName{Last: ident.NormalizeName(name.Last), First: ident.NormalizeName(name.First)}
	return nil
}

// RemoveDriveCrew removes id from drive i, dropping the stored guest name if
// the entry was ad-hoc.
func (r *Report) RemoveDriveCrew(i int, id ident.Ident) error {
	d, err := r.drive(i)
	if err != nil {
		return err
	}
	if _, ok := d.Crew[id]; !ok {
		return fmt.Errorf("person %q is not crew on drive %d", id, i+1)
	}
	delete(d.Crew, id)
	delete(d.Guests, id)
	return nil
}
