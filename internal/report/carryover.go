package report

// carryover.go — derives a successor report's starting values from its
// predecessor's totals. Pure over the previous report; ApplyCarry is the only
// mutation and reports whether it changed anything.

// CarrySet is the bundle of values carried from one report to the next.
type CarrySet struct {
	Serial          int // predecessor serial + 1
	PersonnelCarry  int // minutes
	BoatCarry       int // minutes
	EngineHoursInit int // predecessor's final reading
}

// CarryForward computes the carry set for the successor of prev.
//
// Personnel carry = prior carry + the summed duty-roster durations; boat
// carry analogous over the prior drive list. Each duration wraps at 24h when
// the window crosses midnight; the accumulated carry itself never wraps.
func CarryForward(prev *Report) CarrySet {
	cs := CarrySet{
		Serial:          prev.Serial + 1,
		PersonnelCarry:  prev.CarryMinutes,
		BoatCarry:       prev.Boat.CarryMinutes,
		EngineHoursInit: prev.Boat.EngineHoursFin,
	}
	for _, entry := range prev.roster {
		cs.PersonnelCarry += MinutesBetween(entry.Begin, entry.End)
	}
	for _, d := range prev.Boat.Drives {
		cs.BoatCarry += MinutesBetween(d.Begin, d.End)
	}
	return cs
}

// ApplyCarry writes cs into r and reports whether any field actually changed.
//
// The final engine reading is only ever raised to the new initial reading,
// never lowered: a value the user already entered must survive the carry.
func (r *Report) ApplyCarry(cs CarrySet) bool {
	changed := false
	set := func(target *int, value int) {
		if *target != value {
			*target = value
			changed = true
		}
	}
	set(&r.Serial, cs.Serial)
	set(&r.CarryMinutes, cs.PersonnelCarry)
	set(&r.Boat.CarryMinutes, cs.BoatCarry)
	set(&r.Boat.EngineHoursInit, cs.EngineHoursInit)
	if r.Boat.EngineHoursFin < cs.EngineHoursInit {
		r.Boat.EngineHoursFin = cs.EngineHoursInit
		changed = true
	}
	return changed
}
