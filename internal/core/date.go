package core

import "github.com/carlosjhr64/jd"

// DateValue is the year/month/day logical value behind the D native
// type. Named DateValue (not Date) to avoid colliding with the
// FieldType constant core.Date.
type DateValue struct {
	Year, Month, Day int
}

// IsZero reports the all-zero date, the in-memory counterpart of the
// "00000000" NULL sentinel a D field stores.
func (d DateValue) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// ymd2j is the Gregorian-calendar-to-Julian-day-number conversion, the
// inverse of jd.J2YMD. Kept alongside it so a round trip through both
// directions can confirm a date is canonical.
func ymd2j(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

// ValidateDate reports whether y/m/d is a canonical Gregorian date: it
// round-trips to a Julian day number and back to the same components.
// Out-of-range components (month 13, ...) are rejected before the round
// trip; non-canonical input such as April 31 fails the round trip.
func ValidateDate(y, m, d int) bool {
	if y == 0 && m == 0 && d == 0 {
		return true
	}
	if m < 1 || m > 12 || d < 1 || d > 31 || y < 0 || y > 9999 {
		return false
	}
	jday := ymd2j(y, m, d)
	ry, rm, rd := jd.J2YMD(jday)
	return ry == y && rm == m && rd == d
}
