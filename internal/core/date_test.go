package core

import "testing"

func TestValidateDateAcceptsCanonical(t *testing.T) {
	if !ValidateDate(2024, 3, 7) {
		t.Error("2024-03-07 should validate as canonical")
	}
	if !ValidateDate(0, 0, 0) {
		t.Error("the zero date should validate")
	}
}

func TestValidateDateRejectsNonCanonical(t *testing.T) {
	cases := []struct{ y, m, d int }{
		{2024, 4, 31}, // April has 30 days
		{2024, 13, 1}, // no month 13
		{2024, 2, 30}, // February never has 30 days
	}
	for _, tc := range cases {
		if ValidateDate(tc.y, tc.m, tc.d) {
			t.Errorf("ValidateDate(%d,%d,%d) = true, want false", tc.y, tc.m, tc.d)
		}
	}
}

func TestDateValueIsZero(t *testing.T) {
	if !(DateValue{}).IsZero() {
		t.Error("zero-value DateValue should report IsZero")
	}
	if (DateValue{Year: 2024, Month: 1, Day: 1}).IsZero() {
		t.Error("a populated DateValue should not report IsZero")
	}
}
