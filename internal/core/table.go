package core

import (
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Table is the opaque table handle: the underlying stream, a copy of the
// hooks, the schema, the one-record cache, code-page metadata and the
// persistence bookkeeping bits. A Table owns its buffers and stream;
// there is no shared state between handles.
type Table struct {
	hooks  Hooks
	stream Stream
	path   string
	mode   AccessMode

	schema *Schema
	header fileHeader

	noHeader              bool
	updated               bool
	currentRecordModified bool
	requireNextWriteSeek  bool
	writeEOFChar          bool
	closed                bool

	currentRecord int // -1 = none cached
	recordBuf     []byte
	scratch       []byte

	codepage string

	streamPos    int64
	knowStreamAt bool
}

// Option configures a Table at Create time.
type Option func(*Table)

// WithCodePage sets the code-page string: "LDID/<n>" is stored in the
// header's language-driver byte with no sidecar written, any other text
// is written verbatim to a .cpg sidecar.
func WithCodePage(cp string) Option {
	return func(t *Table) { t.codepage = cp }
}

// WithUpdateDate overrides the default dummy creation date of
// 1995-07-26.
func WithUpdateDate(tm time.Time) Option {
	return func(t *Table) {
		y, m, d := dosDate(tm)
		t.header.updateYear, t.header.updateMonth, t.header.updateDay = y, m, d
	}
}

// WithEOFChar enables writing the legacy 0x1A trailing byte after the
// last record.
func WithEOFChar(on bool) Option {
	return func(t *Table) { t.writeEOFChar = on }
}

// Create makes a new DBF file with the given fields and opens it for
// read-write use. The header write is deferred: nothing is written to
// the stream until the first record append or schema mutation (or
// Close) forces the header out.
func Create(hooks Hooks, path string, fields []FieldDef, opts ...Option) (*Table, error) {
	schema, err := NewSchema(fields)
	if err != nil {
		return nil, err
	}
	stream, err := hooks.Open(path, ReadWrite, true)
	if err != nil {
		return nil, openErr("create", err)
	}
	y, m, d := dosDate(dummyUpdateDate)
	t := &Table{
		hooks:         hooks,
		stream:        stream,
		path:          path,
		mode:          ReadWrite,
		schema:        schema,
		header:        fileHeader{updateYear: y, updateMonth: m, updateDay: d},
		noHeader:      true,
		currentRecord: -1,
		recordBuf:     make([]byte, schema.RecordLength),
		scratch:       make([]byte, schema.RecordLength),
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := applyCodePageOnCreate(t); err != nil {
		stream.Close()
		return nil, err
	}
	return t, nil
}

// Open opens an existing DBF file for read-only or read-write use: read
// the file header, parse descriptors until the terminator byte or the
// count implied by the header length (tolerating truncated descriptor
// regions), rebuild the schema and resolve code-page metadata. A failed
// open releases everything and returns no handle.
func Open(hooks Hooks, path string, mode AccessMode) (*Table, error) {
	stream, err := hooks.Open(path, mode, false)
	if err != nil {
		return nil, openErr("open", err)
	}
	headerBuf := make([]byte, headerBaseLen)
	if _, err := io.ReadFull(stream, headerBuf); err != nil {
		stream.Close()
		return nil, openErr("read header", err)
	}
	h, err := decodeHeader(headerBuf)
	if err != nil {
		stream.Close()
		return nil, openErr("parse header", err)
	}

	var fields []FieldDef
	offset := 1
	desc := make([]byte, fieldDescLen)
	maxDescriptors := (int(h.headerLen) - headerBaseLen - 1) / fieldDescLen
	if maxDescriptors > maxFields {
		maxDescriptors = maxFields
	}
	for i := 0; i < maxDescriptors; i++ {
		n, err := stream.Read(desc[:1])
		if err != nil || n != 1 {
			stream.Close()
			return nil, openErr("read field descriptor", err)
		}
		if desc[0] == headerTerminator {
			break
		}
		if _, err := io.ReadFull(stream, desc[1:]); err != nil {
			stream.Close()
			return nil, openErr("read field descriptor", err)
		}
		f := decodeFieldDescriptor(desc, offset)
		offset += f.Width
		fields = append(fields, f)
	}
	schema, err := NewSchema(fields)
	if err != nil {
		stream.Close()
		return nil, openErr("rebuild schema", err)
	}
	// Honor the on-disk header/record lengths even if descriptor count
	// parsing landed on a different value due to truncation tolerance.
	schema.HeaderLength = int(h.headerLen)
	schema.RecordLength = int(h.recordLen)

	t := &Table{
		hooks:         hooks,
		stream:        stream,
		path:          path,
		mode:          mode,
		schema:        schema,
		header:        h,
		currentRecord: -1,
		recordBuf:     make([]byte, schema.RecordLength),
		scratch:       make([]byte, schema.RecordLength),
	}
	t.resolveCodePage()
	return t, nil
}

// Close flushes any dirty record, writes the header if it is dirty or
// was never written, closes the stream and releases owned buffers. A
// second Close is a no-op.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	var ferr error
	if t.currentRecordModified {
		ferr = t.FlushRecord()
	}
	if (t.updated || t.noHeader) && ferr == nil {
		ferr = t.writeHeader()
	}
	cerr := t.stream.Close()
	t.closed = true
	t.recordBuf = nil
	t.scratch = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (t *Table) checkOpen() error {
	if t.closed {
		return ErrClosed
	}
	return nil
}

// ioFail builds the I/O-failure error for op against record i (i < 0 for
// non-record operations), invalidates the record cache and routes the
// error through the hook error reporter.
func (t *Table) ioFail(op string, i int, cause error) error {
	t.invalidateCache()
	err := ioErr(op, i, cause)
	t.hooks.Error(op, err)
	return err
}

// Schema returns the current field table.
func (t *Table) Schema() *Schema { return t.schema }

// NumRecords returns the record count as last known from the header.
func (t *Table) NumRecords() int { return int(t.header.numRecords) }

// CodePage returns the resolved code-page string, or "" if none.
func (t *Table) CodePage() string { return t.codepage }

// UpdatedAt returns the table's stored last-modified date.
func (t *Table) UpdatedAt() time.Time {
	return time.Date(1900+t.header.updateYear, time.Month(t.header.updateMonth), t.header.updateDay, 0, 0, 0, 0, time.UTC)
}

func (t *Table) recordOffset(i int) int64 {
	return int64(t.schema.HeaderLength) + int64(i)*int64(t.schema.RecordLength)
}

// seekTo positions the stream at pos. The seek is elided only when the
// tracked position already matches and no read has happened since the
// last write; a seek after a read is never omitted. Elision keeps
// sequential writes coalescible on line-buffered or network streams
// whose write batching a no-op seek would break.
func (t *Table) seekTo(pos int64) error {
	if t.knowStreamAt && t.streamPos == pos && !t.requireNextWriteSeek {
		return nil
	}
	if _, err := t.stream.Seek(pos, io.SeekStart); err != nil {
		t.knowStreamAt = false
		return err
	}
	t.streamPos = pos
	t.knowStreamAt = true
	return nil
}

// LoadRecord flushes any dirty current record, seeks to record i and
// reads it into the cache.
func (t *Table) LoadRecord(i int) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if i < 0 || i >= int(t.header.numRecords) {
		return limitErr("record index out of range")
	}
	if t.currentRecord == i {
		return nil
	}
	if t.currentRecordModified {
		if err := t.FlushRecord(); err != nil {
			return err
		}
	}
	if err := t.seekTo(t.recordOffset(i)); err != nil {
		t.invalidateCache()
		return t.ioFail("seek", i, err)
	}
	n, err := io.ReadFull(t.stream, t.recordBuf)
	t.requireNextWriteSeek = true
	if err != nil || n != t.schema.RecordLength {
		t.invalidateCache()
		return t.ioFail("read", i, err)
	}
	t.streamPos += int64(n)
	t.currentRecord = i
	t.currentRecordModified = false
	return nil
}

// FlushRecord writes the dirty current record back and, if it is the
// last record and the EOF char is enabled, re-stamps the 0x1A trailer.
func (t *Table) FlushRecord() error {
	if !t.currentRecordModified || t.currentRecord < 0 {
		return nil
	}
	if err := t.seekTo(t.recordOffset(t.currentRecord)); err != nil {
		t.invalidateCache()
		return t.ioFail("seek", t.currentRecord, err)
	}
	n, err := t.stream.Write(t.recordBuf)
	t.requireNextWriteSeek = false
	if err != nil || n != t.schema.RecordLength {
		t.invalidateCache()
		return t.ioFail("write", t.currentRecord, err)
	}
	t.streamPos += int64(n)
	t.currentRecordModified = false
	if t.writeEOFChar && t.currentRecord == int(t.header.numRecords)-1 {
		if err := t.writeEOFMarker(); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) writeEOFMarker() error {
	pos := t.recordOffset(int(t.header.numRecords))
	if err := t.seekTo(pos); err != nil {
		return t.ioFail("seek", -1, err)
	}
	n, err := t.stream.Write([]byte{0x1A})
	t.requireNextWriteSeek = false
	if err != nil || n != 1 {
		return t.ioFail("write eof marker", -1, err)
	}
	t.streamPos += 1
	return nil
}

func (t *Table) invalidateCache() {
	t.currentRecord = -1
	t.currentRecordModified = false
	t.knowStreamAt = false
}

// Append adds a new all-space record with a live (not deleted) flag and
// returns its zero-based index. All-space bytes read back as NULL for
// every field type.
func (t *Table) Append() (int, error) {
	if err := t.checkOpen(); err != nil {
		return 0, err
	}
	if t.currentRecordModified {
		if err := t.FlushRecord(); err != nil {
			return 0, err
		}
	}
	idx := int(t.header.numRecords)
	fill(t.recordBuf, ' ')
	t.currentRecord = idx
	t.currentRecordModified = true
	t.header.numRecords++
	t.updated = true
	if t.noHeader {
		if err := t.writeHeader(); err != nil {
			return 0, err
		}
	}
	if err := t.FlushRecord(); err != nil {
		return 0, err
	}
	// Refresh the on-disk record count immediately via the cheap partial
	// header update rather than waiting for Close's full rewrite.
	if err := t.updateHeaderDateAndCount(time.Now()); err != nil {
		return 0, err
	}
	return idx, nil
}

// ensureLoaded loads record i into the cache, auto-appending a blank
// record when i is one past the last record: writing past the end grows
// the table by one.
func (t *Table) ensureLoaded(i int) error {
	if i == int(t.header.numRecords) {
		_, err := t.Append()
		return err
	}
	return t.LoadRecord(i)
}

// IsDeleted reports record i's deletion flag.
func (t *Table) IsDeleted(i int) (bool, error) {
	if err := t.LoadRecord(i); err != nil {
		return false, err
	}
	return t.recordBuf[0] == '*', nil
}

// MarkDeleted flips record i's deletion flag without touching any other
// byte.
func (t *Table) MarkDeleted(i int, deleted bool) error {
	if err := t.LoadRecord(i); err != nil {
		return err
	}
	want := byte(' ')
	if deleted {
		want = '*'
	}
	if t.recordBuf[0] != want {
		t.recordBuf[0] = want
		t.currentRecordModified = true
	}
	return nil
}

func (t *Table) fieldBytes(i, fieldIdx int) ([]byte, FieldDef, error) {
	f, ok := t.schema.Field(fieldIdx)
	if !ok {
		return nil, FieldDef{}, limitErr("field index out of range")
	}
	if err := t.LoadRecord(i); err != nil {
		return nil, FieldDef{}, err
	}
	return t.recordBuf[f.Offset : f.Offset+f.Width], f, nil
}

// IsFieldNull reports whether field fieldIdx of record i holds its
// type's NULL sentinel.
func (t *Table) IsFieldNull(i, fieldIdx int) (bool, error) {
	raw, f, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return false, err
	}
	return IsNull(f, raw), nil
}

// ReadString reads a C (or other) field as a string.
func (t *Table) ReadString(i, fieldIdx int) (string, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return "", err
	}
	return DecodeString(raw), nil
}

// ReadInt reads an N/F field as an integer (decimals truncated).
func (t *Table) ReadInt(i, fieldIdx int) (int64, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return 0, err
	}
	return DecodeInt(t.hooks.Atof, raw)
}

// ReadFloat reads an N/F field as a double.
func (t *Table) ReadFloat(i, fieldIdx int) (float64, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return 0, err
	}
	return DecodeFloat(t.hooks.Atof, raw)
}

// ReadDate reads a D field.
func (t *Table) ReadDate(i, fieldIdx int) (DateValue, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return DateValue{}, err
	}
	return DecodeDate(raw)
}

// ReadBool reads an L field.
func (t *Table) ReadBool(i, fieldIdx int) (bool, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return false, err
	}
	return DecodeBool(raw), nil
}

func (t *Table) writeFieldBytes(i, fieldIdx int, encode func(FieldDef) ([]byte, error)) error {
	f, ok := t.schema.Field(fieldIdx)
	if !ok {
		return limitErr("field index out of range")
	}
	encoded, err := encode(f)
	if err != nil && err != ErrTruncated {
		return err
	}
	if lerr := t.ensureLoaded(i); lerr != nil {
		return lerr
	}
	copy(t.recordBuf[f.Offset:f.Offset+f.Width], encoded)
	t.currentRecordModified = true
	return err
}

// WriteString writes s into a C field, truncating at width.
func (t *Table) WriteString(i, fieldIdx int, s string) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		return EncodeString(f.Width, s)
	})
}

// WriteInt writes v into an N/F field.
func (t *Table) WriteInt(i, fieldIdx int, v int64) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		return EncodeFloat(f.Width, f.Decimals, float64(v))
	})
}

// WriteFloat writes v into an N/F field.
func (t *Table) WriteFloat(i, fieldIdx int, v float64) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		return EncodeFloat(f.Width, f.Decimals, v)
	})
}

// WriteDate writes d into a D field.
func (t *Table) WriteDate(i, fieldIdx int, d DateValue) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		return EncodeDate(f.Width, d)
	})
}

// WriteBool writes v into an L field. Encoding a Go bool always yields
// 'T' or 'F', so this cannot fail validation; WriteRawLogical is the
// byte-level variant that can.
func (t *Table) WriteBool(i, fieldIdx int, v bool) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		buf := make([]byte, f.Width)
		fill(buf, ' ')
		buf[0] = EncodeBool(v)
		return buf, nil
	})
}

// WriteRawLogical writes a single logical byte. Any byte other than 'T'
// or 'F' (case-sensitive) is rejected before the record is touched.
func (t *Table) WriteRawLogical(i, fieldIdx int, b byte) error {
	if b != 'T' && b != 'F' {
		return limitErr("logical field accepts only 'T' or 'F'")
	}
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		buf := make([]byte, f.Width)
		fill(buf, ' ')
		buf[0] = b
		return buf, nil
	})
}

// WriteNull writes the NULL sentinel for field fieldIdx's type.
func (t *Table) WriteNull(i, fieldIdx int) error {
	return t.writeFieldBytes(i, fieldIdx, func(f FieldDef) ([]byte, error) {
		return blankFieldBytes(f), nil
	})
}

// writeHeader rewrites the full header + descriptor region, used on the
// first mutating operation after Create and whenever the schema changes
// shape. Everyday record writes go through updateHeaderDateAndCount
// instead, which leaves the descriptor region untouched.
func (t *Table) writeHeader() error {
	buf := encodeHeader(t.header, t.schema)
	if err := t.seekTo(0); err != nil {
		return t.ioFail("seek", -1, err)
	}
	n, err := t.stream.Write(buf)
	t.requireNextWriteSeek = false
	if err != nil || n != len(buf) {
		return t.ioFail("write header", -1, err)
	}
	t.streamPos += int64(n)
	t.noHeader = false
	t.updated = false
	return t.stream.Flush()
}

// updateHeaderDateAndCount refreshes only bytes 1-7 (date + record
// count) without disturbing the descriptor region.
func (t *Table) updateHeaderDateAndCount(now time.Time) error {
	y, m, d := dosDate(now)
	t.header.updateYear, t.header.updateMonth, t.header.updateDay = y, m, d
	small := make([]byte, 7)
	small[0] = byte(y)
	small[1] = byte(m)
	small[2] = byte(d)
	putUint32LE(small[3:7], t.header.numRecords)
	if err := t.seekTo(1); err != nil {
		return t.ioFail("seek", -1, err)
	}
	n, err := t.stream.Write(small)
	t.requireNextWriteSeek = false
	if err != nil || n != len(small) {
		return t.ioFail("write header", -1, err)
	}
	t.streamPos += int64(n)
	t.updated = false
	return nil
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func sidecarPath(dbfPath, ext string) string {
	trimmed := strings.TrimSuffix(dbfPath, filepath.Ext(dbfPath))
	return trimmed + ext
}
