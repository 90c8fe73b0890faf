package vast

import (
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// EncodingTag identifies one of the supported character encodings.
type EncodingTag int

const (
	// UTF8 is the default encoding when no BOM is present.
	UTF8 EncodingTag = iota
	// UTF16LE is UTF-16 with little-endian byte order.
	UTF16LE
	// UTF16BE is UTF-16 with big-endian byte order.
	UTF16BE
	// Windows1252 is the legacy Windows Latin-1 code page.
	Windows1252
	// ASCII is treated as a strict subset of ISO-8859-1 for decoding.
	ASCII
	// ISO88591 is ISO-8859-1 (Latin-1).
	ISO88591
)

func (t EncodingTag) String() string {
	switch t {
	case UTF8:
		return "UTF-8"
	case UTF16LE:
		return "UTF-16LE"
	case UTF16BE:
		return "UTF-16BE"
	case Windows1252:
		return "Windows-1252"
	case ASCII:
		return "ASCII"
	case ISO88591:
		return "ISO-8859-1"
	default:
		return "unknown"
	}
}

// Encoding is a tagged variant over the supported character sets, per the
// data model's requirement for a unit size, BOM signature and decoder.
// Dispatch in the decode hot path branches on Tag rather than going through
// an interface method table — the branches are few and predictable.
type Encoding struct {
	Tag      EncodingTag
	UnitSize int    // 1 or 2 bytes
	BOM      []byte // possibly empty

	xte encoding.Encoding // golang.org/x/text codec backing the decoder
}

var (
	encUTF8        = Encoding{Tag: UTF8, UnitSize: 1, BOM: []byte{0xEF, 0xBB, 0xBF}, xte: unicode.UTF8}
	encUTF16LE     = Encoding{Tag: UTF16LE, UnitSize: 2, BOM: []byte{0xFF, 0xFE}, xte: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)}
	encUTF16BE     = Encoding{Tag: UTF16BE, UnitSize: 2, BOM: []byte{0xFE, 0xFF}, xte: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)}
	encWindows1252 = Encoding{Tag: Windows1252, UnitSize: 1, BOM: nil, xte: charmap.Windows1252}
	encASCII       = Encoding{Tag: ASCII, UnitSize: 1, BOM: nil, xte: charmap.ISO8859_1}
	encISO88591    = Encoding{Tag: ISO88591, UnitSize: 1, BOM: nil, xte: charmap.ISO8859_1}
)

// EncodingByTag resolves a tag to its Encoding value, or ErrUnsupportedEncoding.
func EncodingByTag(tag EncodingTag) (Encoding, error) {
	switch tag {
	case UTF8:
		return encUTF8, nil
	case UTF16LE:
		return encUTF16LE, nil
	case UTF16BE:
		return encUTF16BE, nil
	case Windows1252:
		return encWindows1252, nil
	case ASCII:
		return encASCII, nil
	case ISO88591:
		return encISO88591, nil
	default:
		return Encoding{}, newErr(KindUnsupportedEncoding, "", nil)
	}
}

// DetectEncoding inspects up to the first 4 bytes for a byte-order mark and
// returns the detected Encoding. Absence of a mark defaults to UTF-8, per
// the detection table in §6.
func DetectEncoding(head []byte) Encoding {
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		return encUTF8
	}
	if len(head) >= 2 && head[0] == 0xFF && head[1] == 0xFE {
		return encUTF16LE
	}
	if len(head) >= 2 && head[0] == 0xFE && head[1] == 0xFF {
		return encUTF16BE
	}
	return encUTF8
}

// Decode converts a byte span to a displayable text string under this
// encoding, substituting the Unicode replacement character for invalid
// sequences. For 2-byte encodings an odd final byte is dropped; a span that
// begins in the middle of a code unit or of a multi-byte sequence is not
// realigned. Decoding never fails: errors become replacement characters.
func (e Encoding) Decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	b = e.trimOddTrailingByte(b)
	if len(b) == 0 {
		return ""
	}

	dec := e.xte.NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		// dec.Bytes already substitutes invalid sequences with U+FFFD via
		// the UTF8Validator/Transformer chain; a non-nil err here indicates
		// a harder failure (e.g. a short write) — fall back rune-by-rune.
		return e.decodeLossy(b)
	}
	return string(out)
}

// trimOddTrailingByte drops the final byte of an odd-length span in a
// 2-byte encoding, so the decoder only sees whole code units. Spans in
// 1-byte encodings are returned unchanged.
func (e Encoding) trimOddTrailingByte(b []byte) []byte {
	if e.UnitSize == 2 && len(b)%2 != 0 {
		// An odd trailing byte at the end of a UTF-16 span is ignored by
		// the decoder (§4.2 tie-break).
		return b[:len(b)-len(b)%2]
	}
	return b
}

// decodeLossy is the guaranteed-success path used only if the x/text
// transformer itself errors (short destination buffer, etc.) rather than
// substituting — it walks the encoding's native unit size and emits
// utf8.RuneError for anything it cannot decode.
func (e Encoding) decodeLossy(b []byte) string {
	switch e.Tag {
	case UTF8, ASCII:
		out := make([]rune, 0, len(b))
		for i := 0; i < len(b); {
			r, size := utf8.DecodeRune(b[i:])
			out = append(out, r)
			i += size
		}
		return string(out)
	case UTF16LE, UTF16BE:
		n := len(b) - len(b)%2
		units := make([]uint16, 0, n/2)
		for i := 0; i < n; i += 2 {
			if e.Tag == UTF16LE {
				units = append(units, uint16(b[i])|uint16(b[i+1])<<8)
			} else {
				units = append(units, uint16(b[i+1])|uint16(b[i])<<8)
			}
		}
		return string(utf16.Decode(units))
	default:
		// Single-byte legacy code pages: every byte value is defined, so
		// this path is unreachable in practice, but stay total.
		out := make([]rune, len(b))
		for i, c := range b {
			out[i] = rune(c)
		}
		return string(out)
	}
}

// linefeedWidth returns the number of bytes a '\n' occupies in this
// encoding's native unit size.
func (e Encoding) linefeedWidth() int {
	return e.UnitSize
}

// isLinefeedAt reports whether b[i:] begins with an encoded '\n' for this
// encoding, respecting 2-byte alignment for UTF-16.
func (e Encoding) isLinefeedAt(b []byte, i int) bool {
	switch e.Tag {
	case UTF16LE:
		return i+1 < len(b) && b[i] == 0x0A && b[i+1] == 0x00
	case UTF16BE:
		return i+1 < len(b) && b[i] == 0x00 && b[i+1] == 0x0A
	default:
		return i < len(b) && b[i] == 0x0A
	}
}
