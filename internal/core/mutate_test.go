package core

import (
	"path/filepath"
	"testing"
)

func mustCreate(t *testing.T, fields []FieldDef) (*Table, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "t.dbf")
	tbl, err := Create(NewDefaultHooks(), path, fields)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return tbl, path
}

// TestAlterFieldShrinkStripsLeadingSpaces shrinks N(10,0) to N(6,0) and
// checks that leading spaces are stripped from a value that still fits.
func TestAlterFieldShrinkStripsLeadingSpaces(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "V", Type: Numeric, Width: 10}})
	defer tbl.Close()

	i, err := tbl.Append()
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := tbl.WriteInt(i, 0, 123); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}

	newDef := FieldDef{Name: "V", Type: Numeric, Width: 6}
	if err := tbl.AlterField(0, newDef); err != nil {
		t.Fatalf("AlterField: %v", err)
	}

	got, err := tbl.ReadInt(i, 0)
	if err != nil {
		t.Fatalf("ReadInt: %v", err)
	}
	if got != 123 {
		t.Errorf("ReadInt = %d, want 123", got)
	}
}

// TestAlterFieldGrowPadsLeadingSpaces widens a numeric field and checks
// the value stays right-justified with leading-space padding.
func TestAlterFieldGrowPadsLeadingSpaces(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{
		{Name: "A", Type: Numeric, Width: 4},
		{Name: "V", Type: Numeric, Width: 4},
	})
	defer tbl.Close()

	i0, _ := tbl.Append()
	tbl.WriteInt(i0, 0, 1)
	tbl.WriteInt(i0, 1, 7)
	i1, _ := tbl.Append()
	tbl.WriteInt(i1, 0, 2)
	tbl.WriteInt(i1, 1, 9)

	if err := tbl.AlterField(1, FieldDef{Name: "V", Type: Numeric, Width: 8}); err != nil {
		t.Fatalf("AlterField: %v", err)
	}

	for i, want := range map[int]int64{i0: 7, i1: 9} {
		got, err := tbl.ReadInt(i, 1)
		if err != nil {
			t.Fatalf("ReadInt(%d): %v", i, err)
		}
		if got != want {
			t.Errorf("record %d field 1 = %d, want %d", i, got, want)
		}
	}
	raw, _, err := tbl.fieldBytes(i0, 1)
	if err != nil {
		t.Fatalf("fieldBytes: %v", err)
	}
	if string(raw) != "       7" {
		t.Errorf("record %d field 1 bytes = %q, want %q", i0, raw, "       7")
	}
	// Untouched field A must compare unchanged across the rewrite.
	a0, _ := tbl.ReadInt(i0, 0)
	a1, _ := tbl.ReadInt(i1, 0)
	if a0 != 1 || a1 != 2 {
		t.Errorf("field A changed by unrelated AlterField: got %d, %d", a0, a1)
	}
}

// TestReorderFieldsPreservesValues checks that reordering leaves the
// deletion flag and every field's logical value intact.
func TestReorderFieldsPreservesValues(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{
		{Name: "A", Type: Character, Width: 3},
		{Name: "B", Type: Character, Width: 4},
	})
	defer tbl.Close()

	i, _ := tbl.Append()
	tbl.WriteString(i, 0, "foo")
	tbl.WriteString(i, 1, "barz")

	if err := tbl.ReorderFields([]int{1, 0}); err != nil {
		t.Fatalf("ReorderFields: %v", err)
	}

	gotB, _ := tbl.ReadString(i, 0)
	gotA, _ := tbl.ReadString(i, 1)
	if gotB != "barz" || gotA != "foo" {
		t.Errorf("got field0=%q field1=%q, want field0=\"barz\" field1=\"foo\"", gotB, gotA)
	}
}

// TestReorderFieldsRejectsInvalidPermutation checks the validation-only
// failure path: no I/O occurs and the schema is untouched.
func TestReorderFieldsRejectsInvalidPermutation(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{
		{Name: "A", Type: Character, Width: 3},
		{Name: "B", Type: Character, Width: 4},
	})
	defer tbl.Close()

	if err := tbl.ReorderFields([]int{0, 0}); err == nil {
		t.Fatal("expected error for a non-permutation")
	}
	if len(tbl.Schema().Fields) != 2 {
		t.Fatal("schema should be untouched after a rejected mutation")
	}
}

// TestAddFieldKeepsValuesAndNullsNewField checks that AddField leaves
// existing values intact and initializes the new field to NULL in every
// record.
func TestAddFieldKeepsValuesAndNullsNewField(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "ID", Type: Numeric, Width: 4}})
	defer tbl.Close()

	i0, _ := tbl.Append()
	tbl.WriteInt(i0, 0, 1)
	i1, _ := tbl.Append()
	tbl.WriteInt(i1, 0, 2)

	if err := tbl.AddField(FieldDef{Name: "FLAG", Type: Logical, Width: 1}); err != nil {
		t.Fatalf("AddField: %v", err)
	}

	for _, i := range []int{i0, i1} {
		null, err := tbl.IsFieldNull(i, 1)
		if err != nil {
			t.Fatalf("IsFieldNull: %v", err)
		}
		if !null {
			t.Errorf("record %d new field should be NULL", i)
		}
	}
	got0, _ := tbl.ReadInt(i0, 0)
	got1, _ := tbl.ReadInt(i1, 0)
	if got0 != 1 || got1 != 2 {
		t.Errorf("existing field values changed by AddField: got %d, %d", got0, got1)
	}
}
