package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Per-type NULL sentinel fill bytes. No dedicated null bit exists in the
// format; absence is encoded in the value bytes themselves.
const (
	nullNumericByte = '*'
	nullDateByte    = '0'
	nullLogicalByte = '?'
	nullStringByte  = ' '
)

// TrimStringsOnRead toggles whitespace trimming of string reads. It is a
// process-wide policy, not a per-Table flag; tests that need both
// behaviors restore the prior value.
var TrimStringsOnRead = true

// blankFieldBytes returns the width-byte NULL sentinel pattern for a
// field of this type, used when nulling a value out and when schema
// mutations must materialize a value that was never written.
func blankFieldBytes(f FieldDef) []byte {
	buf := make([]byte, f.Width)
	switch f.Type {
	case Numeric, Float:
		fill(buf, nullNumericByte)
	case Date:
		fill(buf, nullDateByte)
	case Logical:
		fill(buf, nullLogicalByte)
	default:
		fill(buf, nullStringByte)
	}
	return buf
}

func fill(buf []byte, b byte) {
	for i := range buf {
		buf[i] = b
	}
}

// IsNull reports whether one field's raw bytes encode absence: all
// spaces for any type, a leading '*' for numerics, all-'0'/"0"/empty for
// dates, '?' for logicals.
func IsNull(f FieldDef, raw []byte) bool {
	if isAllSpaces(raw) {
		return true
	}
	switch f.Type {
	case Numeric, Float:
		return len(raw) > 0 && raw[0] == nullNumericByte
	case Date:
		trimmed := strings.TrimSpace(string(raw))
		if trimmed == "" {
			return true
		}
		return allBytesAre(raw, nullDateByte) || trimmed == "0"
	case Logical:
		return len(raw) > 0 && raw[0] == nullLogicalByte
	default:
		// All-spaces was already handled above; a C field (or any
		// unrecognized type) has no further NULL encoding.
		return false
	}
}

func isAllSpaces(raw []byte) bool {
	for _, b := range raw {
		if b != ' ' {
			return false
		}
	}
	return true
}

func allBytesAre(raw []byte, b byte) bool {
	for _, c := range raw {
		if c != b {
			return false
		}
	}
	return true
}

// DecodeString reads a C (or unrecognized-type) field as a string,
// applying the TrimStringsOnRead policy.
func DecodeString(raw []byte) string {
	s := string(raw)
	if TrimStringsOnRead {
		s = strings.TrimSpace(s)
	}
	return s
}

// EncodeString writes s left-aligned and space-padded into a width-byte
// buffer, truncating at width. It reports ErrTruncated when s itself
// (before padding) was longer than width; the truncated bytes are still
// returned for storage.
func EncodeString(width int, s string) ([]byte, error) {
	buf := make([]byte, width)
	fill(buf, ' ')
	n := copy(buf, s)
	if n < len(s) {
		return buf, ErrTruncated
	}
	return buf, nil
}

// DecodeInt reads a numeric field as an integer by parsing it as a
// double and truncating.
func DecodeInt(atof func(string) (float64, error), raw []byte) (int64, error) {
	f, err := DecodeFloat(atof, raw)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// DecodeFloat reads a numeric/float field as a double using the
// caller-supplied locale-independent atof.
func DecodeFloat(atof func(string) (float64, error), raw []byte) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s[0] == nullNumericByte {
		return 0, nil
	}
	return atof(s)
}

// EncodeFloat formats v right-justified into a width-byte numeric field
// with the given decimal count ("%*.*f"). If the formatted value
// overflows width it is truncated from the left; the operation reports
// ErrTruncated iff the truncated text no longer parses back to v.
func EncodeFloat(width, decimals int, v float64) ([]byte, error) {
	text := fmt.Sprintf("%*.*f", width, decimals, v)
	if len(text) > width {
		text = text[len(text)-width:]
		roundTripped, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil || roundTripped != v {
			buf := make([]byte, width)
			copy(buf, text)
			return buf, ErrTruncated
		}
	}
	buf := make([]byte, width)
	copy(buf, text)
	return buf, nil
}

// DecodeDate reads a D field's fixed 8-byte "yyyymmdd" encoding. An
// all-'0'/empty/all-space value decodes to the zero date.
func DecodeDate(raw []byte) (DateValue, error) {
	if IsNull(FieldDef{Type: Date}, raw) {
		return DateValue{}, nil
	}
	s := strings.TrimSpace(string(raw))
	if len(s) < 8 {
		return DateValue{}, limitErr("date field too short")
	}
	y, err1 := strconv.Atoi(s[0:4])
	m, err2 := strconv.Atoi(s[4:6])
	d, err3 := strconv.Atoi(s[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return DateValue{}, limitErr("malformed date digits")
	}
	return DateValue{Year: y, Month: m, Day: d}, nil
}

// EncodeDate writes a DateValue as the fixed 8-byte "yyyymmdd" text,
// space padding out to width when width>8. A zero DateValue is written
// as the NULL sentinel "00000000".
func EncodeDate(width int, d DateValue) ([]byte, error) {
	buf := make([]byte, width)
	fill(buf, ' ')
	var text string
	if d.IsZero() {
		text = "00000000"
	} else {
		if !ValidateDate(d.Year, d.Month, d.Day) {
			return buf, limitErr("date does not round-trip to a canonical calendar date")
		}
		text = fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
	}
	if len(text) > width {
		return buf, ErrTruncated
	}
	copy(buf, text)
	return buf, nil
}

// DecodeBool reads an L field: 'T'/'t'/'Y'/'y' is true, everything else
// (including the '?' NULL sentinel) is false. Callers should check
// IsNull first if the NULL/false distinction matters.
func DecodeBool(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'T', 't', 'Y', 'y':
		return true
	}
	return false
}

// EncodeBool renders a logical value as its single storage byte. Raw
// byte-level writes with anything other than 'T'/'F' are rejected by
// Table.WriteRawLogical before the field bytes are touched.
func EncodeBool(v bool) byte {
	if v {
		return 'T'
	}
	return 'F'
}
