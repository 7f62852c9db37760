package core

import (
	"path/filepath"
	"testing"
)

// TestCodePageLDIDWhenNoSidecar checks that an "LDID/<n>" code page is
// stored in the header byte with no sidecar file.
func TestCodePageLDIDWhenNoSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dbf")
	tbl, err := Create(NewDefaultHooks(), path, []FieldDef{{Name: "X", Type: Character, Width: 1}}, WithCodePage("LDID/3"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl.Close()

	if _, err := NewDefaultHooks().ReadAll(filepath.Join(dir, "t.cpg"), 499); err == nil {
		t.Error("no .cpg sidecar should be written for an LDID/<n> code page")
	}

	reopened, err := Open(NewDefaultHooks(), path, ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if got := reopened.CodePage(); got != "LDID/3" {
		t.Errorf("CodePage() = %q, want %q", got, "LDID/3")
	}
}

func TestCodePageSidecarTakesPriorityOverLDID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.dbf")
	tbl, err := Create(NewDefaultHooks(), path, []FieldDef{{Name: "X", Type: Character, Width: 1}}, WithCodePage("LDID/3"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tbl.Close()

	sidecar, err := NewDefaultHooks().Open(filepath.Join(dir, "t.cpg"), ReadWrite, true)
	if err != nil {
		t.Fatalf("create sidecar: %v", err)
	}
	sidecar.Write([]byte("UTF-8\n"))
	sidecar.Close()

	reopened, err := Open(NewDefaultHooks(), path, ReadOnly)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()
	if got := reopened.CodePage(); got != "UTF-8" {
		t.Errorf("CodePage() = %q, want %q (sidecar should win over LDID)", got, "UTF-8")
	}
}

func TestParseLDID(t *testing.T) {
	if n, ok := parseLDID("LDID/87"); !ok || n != 87 {
		t.Errorf("parseLDID(\"LDID/87\") = %d, %v, want 87, true", n, ok)
	}
	if _, ok := parseLDID("UTF-8"); ok {
		t.Error("parseLDID(\"UTF-8\") should not match the LDID/<n> form")
	}
	if _, ok := parseLDID("LDID/300"); ok {
		t.Error("parseLDID should reject n outside 0..255")
	}
}
