package core

import (
	"encoding/binary"
	"strings"
	"time"
)

// versionByte is the constant dBASE III version tag at byte 0 of the
// file header.
const versionByte = 0x03

const headerTerminator = 0x0D

// fileHeader is the decoded 32-byte file header. The language-driver
// byte at offset 29 identifies the character encoding; all other
// reserved bytes are written as zero.
type fileHeader struct {
	updateYear  int // years since 1900
	updateMonth int
	updateDay   int
	numRecords  uint32
	headerLen   uint16
	recordLen   uint16
	ldid        byte
}

// encodeHeader renders h and the field descriptors of s into the on-disk
// layout: 32-byte file header, 32 bytes per field descriptor, one
// terminator byte.
func encodeHeader(h fileHeader, s *Schema) []byte {
	buf := make([]byte, s.HeaderLength)
	buf[0] = versionByte
	buf[1] = byte(h.updateYear)
	buf[2] = byte(h.updateMonth)
	buf[3] = byte(h.updateDay)
	binary.LittleEndian.PutUint32(buf[4:8], h.numRecords)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(s.HeaderLength))
	binary.LittleEndian.PutUint16(buf[10:12], uint16(s.RecordLength))
	buf[29] = h.ldid

	for i, f := range s.Fields {
		desc := buf[headerBaseLen+i*fieldDescLen : headerBaseLen+(i+1)*fieldDescLen]
		encodeFieldDescriptor(desc, f)
	}
	buf[len(buf)-1] = headerTerminator
	return buf
}

func encodeFieldDescriptor(desc []byte, f FieldDef) {
	copy(desc[0:11], f.writeName())
	desc[11] = byte(f.Type)
	if f.Type == Character {
		binary.LittleEndian.PutUint16(desc[16:18], uint16(f.Width))
	} else {
		desc[16] = byte(f.Width)
		desc[17] = byte(f.Decimals)
	}
}

// decodeHeader parses the fixed 32-byte header. Some producers set the
// high bit of the record count's top byte; it is masked off on read.
// Files with a zero record length or a header length below 32 are
// rejected as malformed.
func decodeHeader(buf []byte) (fileHeader, error) {
	if len(buf) < headerBaseLen {
		return fileHeader{}, limitErr("header too short")
	}
	countBytes := [4]byte{buf[4], buf[5], buf[6], buf[7] &^ 0x80}
	h := fileHeader{
		updateYear:  int(buf[1]),
		updateMonth: int(buf[2]),
		updateDay:   int(buf[3]),
		numRecords:  binary.LittleEndian.Uint32(countBytes[:]),
		headerLen:   binary.LittleEndian.Uint16(buf[8:10]),
		recordLen:   binary.LittleEndian.Uint16(buf[10:12]),
		ldid:        buf[29],
	}
	if h.recordLen == 0 {
		return fileHeader{}, limitErr("record length is zero")
	}
	if h.headerLen < headerBaseLen {
		return fileHeader{}, limitErr("header length below minimum")
	}
	return h, nil
}

// decodeFieldDescriptor parses one 32-byte field descriptor and its
// implied offset. The caller tracks running offset across descriptors.
func decodeFieldDescriptor(desc []byte, offset int) FieldDef {
	nameEnd := 11
	for i, b := range desc[0:11] {
		if b == 0 {
			nameEnd = i
			break
		}
	}
	name := strings.TrimRight(string(desc[0:nameEnd]), " ")
	typ := FieldType(desc[11])

	var width, dec int
	if typ == Character {
		width = int(binary.LittleEndian.Uint16(desc[16:18]))
	} else {
		width = int(desc[16])
		dec = int(desc[17])
	}
	return FieldDef{Name: name, Type: typ, Width: width, Decimals: dec, Offset: offset}
}

// dosDate splits a time into the year-1900, month, day bytes the header
// stores the update date as.
func dosDate(t time.Time) (int, int, int) {
	return t.Year() - 1900, int(t.Month()), t.Day()
}

// dummyUpdateDate is the placeholder stamped on a freshly created table
// that has not had an explicit update date set.
var dummyUpdateDate = time.Date(1995, time.July, 26, 0, 0, 0, 0, time.UTC)
