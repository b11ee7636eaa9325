package report

// time.go — minutes-since-midnight clock times used throughout the report.

import "fmt"

// ClockTime is a time of day in minutes since midnight (0..1439).
type ClockTime int

// ParseClock parses "HH:MM" (24h, zero-padded).
func ParseClock(text string) (ClockTime, error) {
	if len(text) != 5 || text[2] != ':' {
		return 0, fmt.Errorf("bad clock time %q (want HH:MM)", text)
	}
	digits := [4]byte{text[0], text[1], text[3], text[4]}
	for _, d := range digits {
		if d < '0' || d > '9' {
			return 0, fmt.Errorf("bad clock time %q (want HH:MM)", text)
		}
	}
	h := int(digits[0]-'0')*10 + int(digits[1]-'0')
	m := int(digits[2]-'0')*10 + int(digits[3]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", text)
	}
	return ClockTime(h*60 + m), nil
}

// String renders the zero-padded "HH:MM" form.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MinutesBetween returns end−begin in minutes, wrapped at 24h when the span
// crosses midnight.
func MinutesBetween(begin, end ClockTime) int {
	d := int(end) - int(begin)
	if d < 0 {
		d += 24 * 60
	}
	return d
}
