// Package dbf provides a mutable, schema-aware xBase/DBF table engine:
// open or create a .dbf file, read and write typed field values record
// by record, and alter its schema in place (add, delete, reorder, widen,
// narrow or retype fields). Geometry I/O (.shp), the .shx index, the
// quadtree spatial index and the .sbn search file are out of scope for
// this package; it covers the attribute-table companion file only.
//
// All I/O runs through a pluggable Hooks capability set (see the core
// subpackage); Open and Create use the host filesystem by default.
//
// Basic usage:
//
//	t, err := dbf.Create("parcels.dbf", []dbf.FieldDef{
//		{Name: "ID", Type: dbf.Numeric, Width: 10},
//		{Name: "NAME", Type: dbf.Character, Width: 40},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer t.Close()
//
//	i, _ := t.Append()
//	t.WriteInt(i, 0, 1)
//	t.WriteString(i, 1, "Example Tract")
package dbf

import (
	"time"

	"github.com/cartodbf/dbf/internal/core"
)

// Re-exported core types so callers never need to import the internal
// package directly.
type (
	FieldType = core.FieldType
	FieldDef  = core.FieldDef
	Date      = core.DateValue
	Schema    = core.Schema
	Hooks     = core.Hooks
	Stream    = core.Stream
)

const (
	Character = core.Character
	Numeric   = core.Numeric
	Float     = core.Float
	DateType  = core.Date
	Logical   = core.Logical
	Memo      = core.Memo
)

// Sentinel errors, re-exported from core for errors.Is callers.
var (
	ErrOpen      = core.ErrOpen
	ErrIO        = core.ErrIO
	ErrInvalid   = core.ErrInvalid
	ErrClosed    = core.ErrClosed
	ErrTruncated = core.ErrTruncated
)

// Option configures Create; re-exported core.Option constructors.
type Option = core.Option

func WithCodePage(cp string) Option     { return core.WithCodePage(cp) }
func WithUpdateDate(t time.Time) Option { return core.WithUpdateDate(t) }
func WithEOFChar(on bool) Option        { return core.WithEOFChar(on) }

// TrimStringsOnRead toggles the whitespace-trim policy for C-field
// reads. It is process-wide; tests that need both behaviors restore the
// prior value.
func TrimStringsOnRead(on bool) { core.TrimStringsOnRead = on }

// Table is the public table handle: one open .dbf file, its schema and
// its single-record cache. A Table is not safe for concurrent use from
// multiple goroutines; it offers no internal locking.
type Table struct {
	core *core.Table
}

// Create makes a new DBF file with the given fields, using the host
// filesystem. Use CreateWithHooks to supply an alternate I/O provider
// (in-memory, mocked, ...).
func Create(path string, fields []FieldDef, opts ...Option) (*Table, error) {
	return CreateWithHooks(core.NewDefaultHooks(), path, fields, opts...)
}

// CreateWithHooks is Create with an explicit Hooks provider.
func CreateWithHooks(hooks Hooks, path string, fields []FieldDef, opts ...Option) (*Table, error) {
	c, err := core.Create(hooks, path, fields, opts...)
	if err != nil {
		return nil, err
	}
	return &Table{core: c}, nil
}

// Open opens an existing DBF file. mode is one of "r", "rb", "r+",
// "rb+", "r+b"; any other string fails with core.ErrUnknownMode.
func Open(path, mode string) (*Table, error) {
	return OpenWithHooks(core.NewDefaultHooks(), path, mode)
}

// OpenWithHooks is Open with an explicit Hooks provider.
func OpenWithHooks(hooks Hooks, path, mode string) (*Table, error) {
	am, err := core.ParseAccessMode(mode)
	if err != nil {
		return nil, err
	}
	c, err := core.Open(hooks, path, am)
	if err != nil {
		return nil, err
	}
	return &Table{core: c}, nil
}

// Close flushes any dirty record, writes the header if dirty and closes
// the underlying stream.
func (t *Table) Close() error { return t.core.Close() }

// Schema returns the current field table.
func (t *Table) Schema() *Schema { return t.core.Schema() }

// NumRecords returns the record count.
func (t *Table) NumRecords() int { return t.core.NumRecords() }

// CodePage returns the resolved code-page string ("LDID/<n>" or sidecar
// contents), or "" if neither is present.
func (t *Table) CodePage() string { return t.core.CodePage() }

// UpdatedAt returns the table's stored last-modified date.
func (t *Table) UpdatedAt() time.Time { return t.core.UpdatedAt() }

// Append adds a new all-space, non-deleted record and returns its index.
func (t *Table) Append() (int, error) { return t.core.Append() }

// IsDeleted reports record i's deletion flag.
func (t *Table) IsDeleted(i int) (bool, error) { return t.core.IsDeleted(i) }

// MarkDeleted sets or clears record i's deletion flag.
func (t *Table) MarkDeleted(i int, deleted bool) error { return t.core.MarkDeleted(i, deleted) }

// IsFieldNull reports whether field fi of record i holds its type's NULL
// sentinel.
func (t *Table) IsFieldNull(i, fi int) (bool, error) { return t.core.IsFieldNull(i, fi) }

// WriteNull writes field fi's NULL sentinel into record i.
func (t *Table) WriteNull(i, fi int) error { return t.core.WriteNull(i, fi) }

// ReadString reads field fi of record i as a string.
func (t *Table) ReadString(i, fi int) (string, error) { return t.core.ReadString(i, fi) }

// ReadDisplayString reads field fi of record i and transcodes it to UTF-8
// when the resolved code page is an "LDID/<n>" value with a listed
// charmap, for display rather than byte-exact round-tripping. A code page
// from a .cpg sidecar is not used for transcoding; the text is returned
// as stored.
func (t *Table) ReadDisplayString(i, fi int) (string, error) { return t.core.ReadDisplayString(i, fi) }

// WriteString writes s into field fi of record i, truncating at width.
func (t *Table) WriteString(i, fi int, s string) error { return t.core.WriteString(i, fi, s) }

// ReadInt reads field fi of record i as an integer.
func (t *Table) ReadInt(i, fi int) (int64, error) { return t.core.ReadInt(i, fi) }

// WriteInt writes v into field fi of record i.
func (t *Table) WriteInt(i, fi int, v int64) error { return t.core.WriteInt(i, fi, v) }

// ReadFloat reads field fi of record i as a double.
func (t *Table) ReadFloat(i, fi int) (float64, error) { return t.core.ReadFloat(i, fi) }

// WriteFloat writes v into field fi of record i.
func (t *Table) WriteFloat(i, fi int, v float64) error { return t.core.WriteFloat(i, fi, v) }

// ReadDate reads field fi of record i as a Date.
func (t *Table) ReadDate(i, fi int) (Date, error) { return t.core.ReadDate(i, fi) }

// WriteDate writes d into field fi of record i.
func (t *Table) WriteDate(i, fi int, d Date) error { return t.core.WriteDate(i, fi, d) }

// ReadBool reads field fi of record i as a logical value.
func (t *Table) ReadBool(i, fi int) (bool, error) { return t.core.ReadBool(i, fi) }

// WriteBool writes v into field fi of record i.
func (t *Table) WriteBool(i, fi int, v bool) error { return t.core.WriteBool(i, fi, v) }

// WriteRawLogical writes a single logical byte ('T' or 'F'); any other
// byte leaves the field untouched and returns an error.
func (t *Table) WriteRawLogical(i, fi int, b byte) error { return t.core.WriteRawLogical(i, fi, b) }

// AddField appends fd to the schema, rewriting every record.
func (t *Table) AddField(fd FieldDef) error { return t.core.AddField(fd) }

// DeleteField removes field index fi from the schema, rewriting every
// record.
func (t *Table) DeleteField(fi int) error { return t.core.DeleteField(fi) }

// ReorderFields reassembles every record's fields according to perm, a
// permutation of [0, fieldCount).
func (t *Table) ReorderFields(perm []int) error { return t.core.ReorderFields(perm) }

// AlterField changes field index fi's name/type/width/decimals to
// newDef, rewriting every record if its width or type changed.
func (t *Table) AlterField(fi int, newDef FieldDef) error { return t.core.AlterField(fi, newDef) }

// ==========================================================================
// Must variants — panic instead of returning errors, for callers that
// prefer it.
// ==========================================================================

// MustCreate is Create, panicking on error.
func MustCreate(path string, fields []FieldDef, opts ...Option) *Table {
	t, err := Create(path, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustOpen is Open, panicking on error.
func MustOpen(path, mode string) *Table {
	t, err := Open(path, mode)
	if err != nil {
		panic(err)
	}
	return t
}

// MustAppend is Table.Append, panicking on error.
func (t *Table) MustAppend() int {
	i, err := t.Append()
	if err != nil {
		panic(err)
	}
	return i
}

// MustReadString is Table.ReadString, panicking on error.
func (t *Table) MustReadString(i, fi int) string {
	s, err := t.ReadString(i, fi)
	if err != nil {
		panic(err)
	}
	return s
}

// MustReadInt is Table.ReadInt, panicking on error.
func (t *Table) MustReadInt(i, fi int) int64 {
	v, err := t.ReadInt(i, fi)
	if err != nil {
		panic(err)
	}
	return v
}
