package binary

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Z-string text is packed as 5-bit Z-characters, three per 16-bit word,
// with the top bit of the final word set. Which alphabet/shift semantics
// apply depends on the story version, so the decoder is driven by a
// per-version profile selected once at parse start instead of branching
// inside the decode loop.

const (
	alphaLower = "abcdefghijklmnopqrstuvwxyz"
	alphaUpper = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	// A2 rows are indexed by zchar-6; position 0 is the 10-bit ZSCII
	// escape and never looked up. V1 has no newline in A2 (z-char 1
	// prints newline instead) and carries '<' where V2+ does not.
	alphaPunctV1 = "\x00" + `0123456789.,!?_#'"/\<-:()`
	alphaPunct   = "\x00\n" + `0123456789.,!?_#'"/\-:()`
)

// textProfile captures everything about Z-string decoding that varies by
// version.
type textProfile struct {
	alphabets [3]string

	// abbrevMax is the highest z-char value acting as an abbreviation
	// prefix: 0 for v1 (none), 1 for v2, 3 for v3+.
	abbrevMax int

	// lockShifts selects the v1-2 scheme where z-chars 2/3 shift the next
	// character and 4/5 lock the current alphabet. When false (v3+),
	// z-chars 4/5 shift the next character to A1/A2 and 2/3 are
	// abbreviations.
	lockShifts bool

	// newlineZChar is true for v1, where z-char 1 prints a newline.
	newlineZChar bool

	// wordLen is the encoded length of a dictionary word in bytes.
	wordLen int
}

var textProfiles = map[int]textProfile{
	1: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunctV1}, abbrevMax: 0, lockShifts: true, newlineZChar: true, wordLen: 4},
	2: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 1, lockShifts: true, wordLen: 4},
	3: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 4},
	4: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 6},
	5: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 6},
	6: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 6},
	7: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 6},
	8: {alphabets: [3]string{alphaLower, alphaUpper, alphaPunct}, abbrevMax: 3, wordLen: 6},
}

// textDecoder decodes Z-strings out of a story buffer.
type textDecoder struct {
	buf        []byte
	profile    textProfile
	abbrevAddr int
}

func newTextDecoder(buf []byte, version, abbrevAddr int) *textDecoder {
	return &textDecoder{buf: buf, profile: textProfiles[version], abbrevAddr: abbrevAddr}
}

// collect reads packed words starting at offset until the stop bit and
// returns the unpacked z-characters plus the offset just past the string.
func (d *textDecoder) collect(offset int) ([]byte, int, error) {
	var zchars []byte
	for {
		if offset+2 > len(d.buf) {
			return nil, 0, &BoundsError{Stage: "z-string", Offset: offset, Need: 2, Size: len(d.buf)}
		}
		w := int(d.buf[offset])<<8 | int(d.buf[offset+1])
		offset += 2
		zchars = append(zchars, byte(w>>10&0x1f), byte(w>>5&0x1f), byte(w&0x1f))
		if w&0x8000 != 0 {
			return zchars, offset, nil
		}
	}
}

// decodeAt decodes the Z-string starting at offset and returns the text
// plus the offset just past the packed words.
func (d *textDecoder) decodeAt(offset int) (string, int, error) {
	zchars, end, err := d.collect(offset)
	if err != nil {
		return "", 0, err
	}
	text, err := d.decode(zchars, false)
	if err != nil {
		return "", 0, err
	}
	return text, end, nil
}

// decodeFixed decodes exactly nWords packed words starting at offset,
// ignoring stop bits. Dictionary entries are fixed-width, so the stop bit
// cannot be trusted to terminate them.
func (d *textDecoder) decodeFixed(offset, nWords int) (string, error) {
	if offset+2*nWords > len(d.buf) {
		return "", &BoundsError{Stage: "z-string", Offset: offset, Need: 2 * nWords, Size: len(d.buf)}
	}
	zchars := make([]byte, 0, 3*nWords)
	for i := 0; i < nWords; i++ {
		w := int(d.buf[offset+2*i])<<8 | int(d.buf[offset+2*i+1])
		zchars = append(zchars, byte(w>>10&0x1f), byte(w>>5&0x1f), byte(w&0x1f))
	}
	return d.decode(zchars, false)
}

// decode turns a z-character sequence into text. inAbbrev suppresses
// nested abbreviation expansion, which the format forbids.
func (d *textDecoder) decode(zchars []byte, inAbbrev bool) (string, error) {
	p := d.profile
	var out strings.Builder

	base := 0 // locked alphabet (v1-2 only; always A0 for v3+)
	cur := 0  // alphabet for the next character
	for i := 0; i < len(zchars); i++ {
		zc := zchars[i]

		switch {
		case zc == 0:
			// Unconditionally a space in every version.
			out.WriteByte(' ')
			cur = base

		case zc == 1 && p.newlineZChar:
			out.WriteByte('\n')
			cur = base

		case zc >= 1 && int(zc) <= p.abbrevMax:
			if i+1 >= len(zchars) {
				return out.String(), nil // truncated abbreviation pair
			}
			x := zchars[i+1]
			i++
			if !inAbbrev {
				if err := d.writeAbbrev(&out, int(zc), int(x)); err != nil {
					return "", err
				}
			}
			cur = base

		case zc == 2 || zc == 3:
			if p.lockShifts {
				// Temporary shift to the next/previous alphabet.
				if zc == 2 {
					cur = (base + 1) % 3
				} else {
					cur = (base + 2) % 3
				}
			}
			// v3+: unreachable, 2/3 are covered by abbrevMax above.

		case zc == 4 || zc == 5:
			if p.lockShifts {
				if zc == 4 {
					base = (base + 1) % 3
				} else {
					base = (base + 2) % 3
				}
				cur = base
			} else {
				// Single-character shift to A1/A2.
				cur = int(zc) - 3
			}

		case zc == 6 && cur == 2:
			// 10-bit ZSCII escape: next two z-chars hold top and bottom.
			if i+2 >= len(zchars) {
				return out.String(), nil // padded-out escape, ignore
			}
			code := int(zchars[i+1])<<5 | int(zchars[i+2])
			i += 2
			writeZSCII(&out, code)
			cur = base

		default:
			out.WriteByte(p.alphabets[cur][zc-6])
			cur = base
		}
	}
	return out.String(), nil
}

func (d *textDecoder) writeAbbrev(out *strings.Builder, z, x int) error {
	entry := d.abbrevAddr + 2*(32*(z-1)+x)
	if entry+2 > len(d.buf) {
		return &BoundsError{Stage: "abbreviation", Offset: entry, Need: 2, Size: len(d.buf)}
	}
	// Abbreviation entries are word addresses.
	addr := 2 * (int(d.buf[entry])<<8 | int(d.buf[entry+1]))
	zchars, _, err := d.collect(addr)
	if err != nil {
		return err
	}
	text, err := d.decode(zchars, true)
	if err != nil {
		return err
	}
	out.WriteString(text)
	return nil
}

// writeZSCII appends one ZSCII code point. Values 128..255 use the Latin-1
// approximation of the default extra character set; anything else outside
// plain ASCII is dropped.
func writeZSCII(out *strings.Builder, code int) {
	switch {
	case code == 13:
		out.WriteByte('\n')
	case code >= 32 && code <= 126:
		out.WriteByte(byte(code))
	case code >= 128 && code <= 255:
		out.WriteRune(charmap.ISO8859_1.DecodeByte(byte(code)))
	}
}
