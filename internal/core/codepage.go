package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// resolveCodePage determines the table's code-page string on open: a
// .cpg/.CPG sidecar wins over a non-zero language-driver byte; absence
// of both leaves CodePage() == "".
func (t *Table) resolveCodePage() {
	for _, ext := range []string{".cpg", ".CPG"} {
		data, err := t.hooks.ReadAll(sidecarPath(t.path, ext), 499)
		if err == nil && len(data) > 0 {
			t.codepage = firstLine(data)
			return
		}
	}
	if t.header.ldid != 0 {
		t.codepage = fmt.Sprintf("LDID/%d", t.header.ldid)
	}
}

func firstLine(data []byte) string {
	s := string(data)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return s
}

// applyCodePageOnCreate stores a create-time code page: an "LDID/<n>"
// string with n in 0..255 goes into the header's language-driver byte
// and no sidecar is written; any other non-empty string is written
// verbatim to the .cpg sidecar and the header byte stays zero.
func applyCodePageOnCreate(t *Table) error {
	if t.codepage == "" {
		return nil
	}
	if n, ok := parseLDID(t.codepage); ok {
		t.header.ldid = byte(n)
		return nil
	}
	stream, err := t.hooks.Open(sidecarPath(t.path, ".cpg"), ReadWrite, true)
	if err != nil {
		return openErr("write cpg sidecar", err)
	}
	defer stream.Close()
	if _, err := stream.Write([]byte(t.codepage)); err != nil {
		return openErr("write cpg sidecar", err)
	}
	return nil
}

func parseLDID(s string) (int, bool) {
	const prefix = "LDID/"
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, prefix))
	if err != nil || n < 0 || n > 255 {
		return 0, false
	}
	return n, true
}

// charmapByLDID maps the common language-driver codes to a
// golang.org/x/text encoding. Unlisted LDIDs return nil: callers fall
// back to treating the bytes as already UTF-8/ASCII.
func charmapByLDID(ldid byte) *charmap.Charmap {
	switch ldid {
	case 0x01: // DOS USA
		return charmap.CodePage437
	case 0x02: // DOS Multilingual
		return charmap.CodePage850
	case 0x03: // Windows ANSI
		return charmap.Windows1252
	case 0xC8: // Windows Eastern European
		return charmap.Windows1250
	case 0xC9: // Windows Russian
		return charmap.Windows1251
	default:
		return nil
	}
}

// decodeDisplayString is a read-side convenience that best-effort
// transcodes a raw C-field byte slice to UTF-8, for callers that want to
// display field values rather than round-trip their exact bytes. Only a
// resolved code page of the form "LDID/<n>" with a listed charmap is
// transcoded; a code page taken from a .cpg sidecar, or an unlisted LDID,
// leaves the text as DecodeString returns it. It never affects what is
// stored on disk, and EncodeString/DecodeString do no transcoding.
func (t *Table) decodeDisplayString(raw []byte) (string, error) {
	s := DecodeString(raw)
	ldid, ok := parseLDID(t.codepage)
	if !ok {
		return s, nil
	}
	cm := charmapByLDID(byte(ldid))
	if cm == nil {
		return s, nil
	}
	out, err := cm.NewDecoder().Bytes([]byte(s))
	if err != nil {
		return s, err
	}
	return string(out), nil
}

// ReadDisplayString reads field fieldIdx of record i and transcodes it to
// UTF-8 when the resolved code page is an "LDID/<n>" value with a listed
// charmap, for callers presenting field values rather than round-tripping
// bytes. A code page from a .cpg sidecar is not used for transcoding.
func (t *Table) ReadDisplayString(i, fieldIdx int) (string, error) {
	raw, _, err := t.fieldBytes(i, fieldIdx)
	if err != nil {
		return "", err
	}
	return t.decodeDisplayString(raw)
}
