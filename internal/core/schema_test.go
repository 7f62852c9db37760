package core

import "testing"

func TestNewSchemaOffsets(t *testing.T) {
	fields := []FieldDef{
		{Name: "A", Type: Character, Width: 4},
		{Name: "B", Type: Numeric, Width: 6, Decimals: 2},
		{Name: "C", Type: Logical, Width: 1},
	}
	s, err := NewSchema(fields)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	wantOffsets := []int{1, 5, 11}
	for i, want := range wantOffsets {
		if s.Fields[i].Offset != want {
			t.Errorf("field %d offset = %d, want %d", i, s.Fields[i].Offset, want)
		}
	}
	if s.RecordLength != 12 {
		t.Errorf("RecordLength = %d, want 12", s.RecordLength)
	}
	if s.HeaderLength != headerBaseLen+fieldDescLen*3+1 {
		t.Errorf("HeaderLength = %d, want %d", s.HeaderLength, headerBaseLen+fieldDescLen*3+1)
	}
}

func TestNewSchemaRejectsTooManyFields(t *testing.T) {
	fields := make([]FieldDef, maxFields+1)
	for i := range fields {
		fields[i] = FieldDef{Name: "F", Type: Character, Width: 1}
	}
	if _, err := NewSchema(fields); err == nil {
		t.Fatal("expected error for field count above the 2046 ceiling")
	}
}

func TestSchemaIndexOfFirstMatch(t *testing.T) {
	s, err := NewSchema([]FieldDef{
		{Name: "ID", Type: Numeric, Width: 4},
		{Name: "id", Type: Character, Width: 4},
	})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	// Duplicate (case-insensitive) names: lookup returns the first
	// match.
	if got := s.IndexOf("ID"); got != 0 {
		t.Errorf("IndexOf(\"ID\") = %d, want 0", got)
	}
}

func TestFieldDefWriteNameTruncation(t *testing.T) {
	f := FieldDef{Name: "ABCDEFGHIJK"} // 11 bytes
	if got := f.writeName(); got != "ABCDEFGHIJ" {
		t.Errorf("writeName() = %q, want 10-byte truncation", got)
	}
}
