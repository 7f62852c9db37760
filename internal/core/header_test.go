package core

import "testing"

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	schema, err := NewSchema([]FieldDef{
		{Name: "ID", Type: Numeric, Width: 10},
		{Name: "NAME", Type: Character, Width: 30},
	})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	h := fileHeader{updateYear: 124, updateMonth: 3, updateDay: 7, numRecords: 42, ldid: 3}
	h.headerLen = uint16(schema.HeaderLength)
	h.recordLen = uint16(schema.RecordLength)

	buf := encodeHeader(h, schema)
	if len(buf) != schema.HeaderLength {
		t.Fatalf("encoded header length = %d, want %d", len(buf), schema.HeaderLength)
	}
	if buf[0] != versionByte {
		t.Errorf("version byte = %#x, want %#x", buf[0], versionByte)
	}
	if buf[len(buf)-1] != headerTerminator {
		t.Errorf("terminator byte = %#x, want %#x", buf[len(buf)-1], headerTerminator)
	}

	decoded, err := decodeHeader(buf[:headerBaseLen])
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if decoded.numRecords != 42 || decoded.ldid != 3 {
		t.Errorf("decoded header = %+v, want numRecords=42 ldid=3", decoded)
	}
	if int(decoded.headerLen) != schema.HeaderLength || int(decoded.recordLen) != schema.RecordLength {
		t.Errorf("decoded lengths = (%d,%d), want (%d,%d)", decoded.headerLen, decoded.recordLen, schema.HeaderLength, schema.RecordLength)
	}
}

// TestDecodeHeaderMasksHighBit checks that the high bit some producers
// set on the record count's top byte is masked off on read.
func TestDecodeHeaderMasksHighBit(t *testing.T) {
	buf := make([]byte, headerBaseLen)
	buf[10] = 1 // record length low byte, non-zero
	buf[8] = 33 // header length low byte, at least 32
	buf[4] = 5  // numRecords low byte
	buf[7] = 0x80
	h, err := decodeHeader(buf)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if h.numRecords != 5 {
		t.Errorf("numRecords = %d, want 5 (high bit of byte 7 masked)", h.numRecords)
	}
}

func TestDecodeHeaderRejectsZeroRecordLength(t *testing.T) {
	buf := make([]byte, headerBaseLen)
	if _, err := decodeHeader(buf); err == nil {
		t.Fatal("expected error for record_length == 0")
	}
}

func TestDecodeHeaderRejectsShortHeaderLength(t *testing.T) {
	buf := make([]byte, headerBaseLen)
	buf[10] = 10 // non-zero record length
	buf[8] = 20  // header length below 32
	if _, err := decodeHeader(buf); err == nil {
		t.Fatal("expected error for header_length < 32")
	}
}

func TestFieldDescriptorCharacterWidthBothBytes(t *testing.T) {
	f := FieldDef{Name: "NAME", Type: Character, Width: 44}
	desc := make([]byte, fieldDescLen)
	encodeFieldDescriptor(desc, f)
	got := decodeFieldDescriptor(desc, 1)
	if got.Width != f.Width {
		t.Errorf("decoded width = %d, want %d", got.Width, f.Width)
	}
}
