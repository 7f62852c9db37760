package core

import (
	"path/filepath"
	"testing"
)

func TestAppendGrowsRecordCount(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "X", Type: Character, Width: 3}})
	defer tbl.Close()

	for i := 0; i < 3; i++ {
		idx, err := tbl.Append()
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if idx != i {
			t.Errorf("Append() = %d, want %d", idx, i)
		}
	}
	if tbl.NumRecords() != 3 {
		t.Errorf("NumRecords() = %d, want 3", tbl.NumRecords())
	}
}

func TestWritePastLastRecordAppends(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "X", Type: Numeric, Width: 4}})
	defer tbl.Close()

	// Writing to index NumRecords() appends a new live record.
	if err := tbl.WriteInt(0, 0, 7); err != nil {
		t.Fatalf("WriteInt: %v", err)
	}
	if tbl.NumRecords() != 1 {
		t.Fatalf("NumRecords() = %d, want 1", tbl.NumRecords())
	}
	deleted, err := tbl.IsDeleted(0)
	if err != nil || deleted {
		t.Errorf("auto-appended record should be live, got deleted=%v err=%v", deleted, err)
	}
}

func TestLoadRecordOutOfRangeFails(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "X", Type: Character, Width: 1}})
	defer tbl.Close()

	if err := tbl.LoadRecord(0); err == nil {
		t.Fatal("expected error loading a record index beyond NumRecords()")
	}
}

// TestReopenPreservesSchema checks that a created schema survives a
// close/reopen cycle intact.
func TestReopenPreservesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.dbf")
	fields := []FieldDef{
		{Name: "ID", Type: Numeric, Width: 10},
		{Name: "NAME", Type: Character, Width: 20},
		{Name: "WHEN", Type: Date, Width: 8},
	}
	tbl, err := Create(NewDefaultHooks(), path, fields)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl.Close()

	reopened, err := Open(NewDefaultHooks(), path, ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	got := reopened.Schema().Fields
	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i, f := range fields {
		if got[i].Name != f.Name || got[i].Type != f.Type || got[i].Width != f.Width {
			t.Errorf("field %d = %+v, want name=%s type=%c width=%d", i, got[i], f.Name, rune(f.Type), f.Width)
		}
	}
}

// TestCloseIsIdempotentAndInvalidatesHandle checks that a second Close
// is a no-op and operations after Close report ErrClosed.
func TestCloseIsIdempotentAndInvalidatesHandle(t *testing.T) {
	tbl, _ := mustCreate(t, []FieldDef{{Name: "X", Type: Character, Width: 1}})
	if err := tbl.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := tbl.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
	if _, err := tbl.Append(); err != ErrClosed {
		t.Errorf("Append after Close = %v, want ErrClosed", err)
	}
}
