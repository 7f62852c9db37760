package core

import (
	"io"
	"strconv"
	"strings"
)

// Schema mutation: AddField, DeleteField, ReorderFields and AlterField
// share one flow: flush the current record, build the replacement schema
// in a parallel buffer, rewrite every record in the order the geometry
// change requires, write the new header, invalidate the cache. None of
// the four touches t.schema until every record has been rewritten
// successfully; a failure mid-rewrite leaves the file readable but the
// handle should be discarded.

func (t *Table) readRawRecord(s *Schema, i int) ([]byte, error) {
	pos := int64(s.HeaderLength) + int64(i)*int64(s.RecordLength)
	if _, err := t.stream.Seek(pos, io.SeekStart); err != nil {
		return nil, t.ioFail("seek", i, err)
	}
	buf := make([]byte, s.RecordLength)
	n, err := io.ReadFull(t.stream, buf)
	if err != nil || n != s.RecordLength {
		return nil, t.ioFail("read", i, err)
	}
	t.knowStreamAt = false
	return buf, nil
}

func (t *Table) writeRawRecord(s *Schema, i int, buf []byte) error {
	pos := int64(s.HeaderLength) + int64(i)*int64(s.RecordLength)
	if _, err := t.stream.Seek(pos, io.SeekStart); err != nil {
		return t.ioFail("seek", i, err)
	}
	n, err := t.stream.Write(buf)
	if err != nil || n != s.RecordLength {
		return t.ioFail("write", i, err)
	}
	t.knowStreamAt = false
	return nil
}

func (t *Table) beginMutation() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.currentRecordModified {
		if err := t.FlushRecord(); err != nil {
			return err
		}
	}
	t.invalidateCache()
	return nil
}

// commitSchema installs newSchema as live, rewrites the full header and
// descriptor region, and invalidates the record cache. Called only after
// every record rewrite in a mutation has already succeeded.
func (t *Table) commitSchema(newSchema *Schema) error {
	t.schema = newSchema
	t.recordBuf = make([]byte, newSchema.RecordLength)
	t.scratch = make([]byte, newSchema.RecordLength)
	t.updated = true
	if err := t.writeHeader(); err != nil {
		return err
	}
	t.invalidateCache()
	if t.writeEOFChar && t.header.numRecords > 0 {
		return t.writeEOFMarker()
	}
	return nil
}

// AddField appends a new field to the schema. Both the header and the
// record stride grow, so records are rewritten from last to first: the
// highest index moves furthest and must move before its old bytes are
// overwritten. The new field's bytes in every existing record are its
// type's NULL sentinel.
func (t *Table) AddField(fd FieldDef) error {
	if err := t.beginMutation(); err != nil {
		return err
	}
	oldSchema := t.schema
	newFields := append(append([]FieldDef{}, oldSchema.Fields...), fd)
	newSchema, err := NewSchema(newFields)
	if err != nil {
		return err
	}
	n := int(t.header.numRecords)
	nullBytes := blankFieldBytes(newSchema.Fields[len(newSchema.Fields)-1])
	for i := n - 1; i >= 0; i-- {
		old, err := t.readRawRecord(oldSchema, i)
		if err != nil {
			return err
		}
		buf := make([]byte, newSchema.RecordLength)
		copy(buf, old)
		copy(buf[oldSchema.RecordLength:], nullBytes)
		if err := t.writeRawRecord(newSchema, i, buf); err != nil {
			return err
		}
	}
	return t.commitSchema(newSchema)
}

// DeleteField removes field index di. Records are rewritten first to
// last, each reassembled from the prefix before the removed field and
// the suffix after it. The file is not truncated to the shorter length;
// the stale tail bytes are unreachable through the record-count cursor.
func (t *Table) DeleteField(di int) error {
	if err := t.beginMutation(); err != nil {
		return err
	}
	oldSchema := t.schema
	removed, ok := oldSchema.Field(di)
	if !ok {
		return limitErr("field index out of range")
	}
	newFields := make([]FieldDef, 0, len(oldSchema.Fields)-1)
	for i, f := range oldSchema.Fields {
		if i != di {
			newFields = append(newFields, f)
		}
	}
	newSchema, err := NewSchema(newFields)
	if err != nil {
		return err
	}
	n := int(t.header.numRecords)
	prefixLen := removed.Offset
	suffixStart := removed.Offset + removed.Width
	for i := 0; i < n; i++ {
		old, err := t.readRawRecord(oldSchema, i)
		if err != nil {
			return err
		}
		buf := make([]byte, newSchema.RecordLength)
		copy(buf[0:prefixLen], old[0:prefixLen])
		copy(buf[prefixLen:], old[suffixStart:])
		if err := t.writeRawRecord(newSchema, i, buf); err != nil {
			return err
		}
	}
	return t.commitSchema(newSchema)
}

// ReorderFields reassembles every record's fields in the order given by
// perm, a permutation of [0..n). Record length and header length are
// unchanged (same field count, same widths, just shuffled), so each
// record is rewritten at its existing on-disk position.
func (t *Table) ReorderFields(perm []int) error {
	if err := t.beginMutation(); err != nil {
		return err
	}
	oldSchema := t.schema
	if len(perm) != len(oldSchema.Fields) {
		return limitErr("permutation length mismatch")
	}
	seen := make([]bool, len(perm))
	newFields := make([]FieldDef, len(perm))
	for newIdx, oldIdx := range perm {
		if oldIdx < 0 || oldIdx >= len(oldSchema.Fields) || seen[oldIdx] {
			return limitErr("invalid permutation")
		}
		seen[oldIdx] = true
		f := oldSchema.Fields[oldIdx]
		f.Offset = 0
		newFields[newIdx] = f
	}
	newSchema, err := NewSchema(newFields)
	if err != nil {
		return err
	}
	n := int(t.header.numRecords)
	for i := 0; i < n; i++ {
		old, err := t.readRawRecord(oldSchema, i)
		if err != nil {
			return err
		}
		buf := make([]byte, newSchema.RecordLength)
		buf[0] = old[0] // deletion flag preserved
		for newIdx, oldIdx := range perm {
			src := oldSchema.Fields[oldIdx]
			dst := newSchema.Fields[newIdx]
			copy(buf[dst.Offset:dst.Offset+dst.Width], old[src.Offset:src.Offset+src.Width])
		}
		if err := t.writeRawRecord(newSchema, i, buf); err != nil {
			return err
		}
	}
	return t.commitSchema(newSchema)
}

// AlterField changes field index fi's name/type/width/decimals. When
// width and type are both unchanged, only the descriptor is rewritten.
// Otherwise every record is rewritten: back to front when the record
// grows (higher indices must move before their old bytes are
// overwritten), front to back otherwise. Each value is decoded per the
// old type and re-encoded per the new one, which yields leading-space
// padding/stripping for numerics and trailing-space padding/right
// truncation for everything else; NULL values re-emit the destination
// type's NULL sentinel.
func (t *Table) AlterField(fi int, newDef FieldDef) error {
	if err := t.beginMutation(); err != nil {
		return err
	}
	oldSchema := t.schema
	oldField, ok := oldSchema.Field(fi)
	if !ok {
		return limitErr("field index out of range")
	}
	newFields := append([]FieldDef{}, oldSchema.Fields...)
	newDef.Offset = 0
	newFields[fi] = newDef
	newSchema, err := NewSchema(newFields)
	if err != nil {
		return err
	}

	if newDef.Width == oldField.Width && newDef.Type == oldField.Type {
		return t.commitSchema(newSchema)
	}

	n := int(t.header.numRecords)
	growing := newSchema.RecordLength > oldSchema.RecordLength
	order := ascending(n)
	if growing {
		order = descending(n)
	}
	dst := newSchema.Fields[fi]
	for _, i := range order {
		old, err := t.readRawRecord(oldSchema, i)
		if err != nil {
			return err
		}
		raw := old[oldField.Offset : oldField.Offset+oldField.Width]
		encoded, encErr := reencodeField(t.hooks.Atof, oldField, newDef, raw)
		if encErr != nil && encErr != ErrTruncated {
			return encErr
		}

		buf := make([]byte, newSchema.RecordLength)
		buf[0] = old[0]
		copy(buf[1:dst.Offset], old[1:oldField.Offset])
		copy(buf[dst.Offset:dst.Offset+dst.Width], encoded)
		tailOldStart := oldField.Offset + oldField.Width
		tailNewStart := dst.Offset + dst.Width
		copy(buf[tailNewStart:], old[tailOldStart:])

		if err := t.writeRawRecord(newSchema, i, buf); err != nil {
			return err
		}
	}
	return t.commitSchema(newSchema)
}

func ascending(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func descending(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

// reencodeField decodes raw per oldField's native type and re-encodes it
// per newDef's native type and width, re-emitting the destination type's
// NULL sentinel when the source value was NULL.
func reencodeField(atof func(string) (float64, error), oldField, newDef FieldDef, raw []byte) ([]byte, error) {
	if IsNull(oldField, raw) {
		return blankFieldBytes(newDef), nil
	}
	switch newDef.Type {
	case Numeric, Float:
		var v float64
		switch oldField.Type {
		case Numeric, Float:
			f, err := DecodeFloat(atof, raw)
			if err != nil {
				return blankFieldBytes(newDef), err
			}
			v = f
		case Logical:
			if DecodeBool(raw) {
				v = 1
			}
		default:
			f, err := strconv.ParseFloat(strings.TrimSpace(DecodeString(raw)), 64)
			if err != nil {
				return blankFieldBytes(newDef), ErrTruncated
			}
			v = f
		}
		return EncodeFloat(newDef.Width, newDef.Decimals, v)
	case Date:
		if oldField.Type == Date {
			buf := make([]byte, newDef.Width)
			fill(buf, ' ')
			copy(buf, raw[:min(len(raw), newDef.Width)])
			return buf, nil
		}
		d, err := DecodeDate(raw)
		if err != nil {
			return blankFieldBytes(newDef), ErrTruncated
		}
		return EncodeDate(newDef.Width, d)
	case Logical:
		switch oldField.Type {
		case Numeric, Float:
			f, _ := DecodeFloat(atof, raw)
			buf := make([]byte, newDef.Width)
			fill(buf, ' ')
			buf[0] = EncodeBool(f != 0)
			return buf, nil
		default:
			buf := make([]byte, newDef.Width)
			fill(buf, ' ')
			s := strings.ToUpper(strings.TrimSpace(DecodeString(raw)))
			buf[0] = EncodeBool(s == "T" || s == "TRUE" || s == "Y")
			return buf, nil
		}
	default:
		var s string
		switch oldField.Type {
		case Numeric, Float:
			f, _ := DecodeFloat(atof, raw)
			s = strconv.FormatFloat(f, 'f', oldField.Decimals, 64)
		case Date:
			s = DecodeString(raw)
		case Logical:
			if DecodeBool(raw) {
				s = "T"
			} else {
				s = "F"
			}
		default:
			s = DecodeString(raw)
		}
		return EncodeString(newDef.Width, s)
	}
}
