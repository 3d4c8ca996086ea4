package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zchars converts lowercase text into A0 z-characters.
func zchars(s string) []byte {
	var out []byte
	for _, r := range s {
		if r == ' ' {
			out = append(out, 0)
			continue
		}
		out = append(out, byte(r-'a'+6))
	}
	return out
}

// packZChars packs z-characters into 16-bit words, three per word, padding
// with the shift character 5 and setting the stop bit on the last word.
func packZChars(zc []byte) []byte {
	for len(zc)%3 != 0 {
		zc = append(zc, 5)
	}
	out := make([]byte, 0, len(zc)/3*2)
	for i := 0; i < len(zc); i += 3 {
		w := int(zc[i])<<10 | int(zc[i+1])<<5 | int(zc[i+2])
		if i+3 == len(zc) {
			w |= 0x8000
		}
		out = append(out, byte(w>>8), byte(w))
	}
	return out
}

func TestDecodeLowercase(t *testing.T) {
	buf := packZChars(zchars("hello world"))
	d := newTextDecoder(buf, 3, 0)

	text, end, err := d.decodeAt(0)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, len(buf), end)
}

func TestDecodeShiftsV3(t *testing.T) {
	d := newTextDecoder(nil, 3, 0)

	// Shift 4 raises exactly one character to A1.
	text, err := d.decode(append([]byte{4}, zchars("hello")...), false)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)

	// Shift 5 selects A2 for one character; '0' sits at z-char 8.
	text, err = d.decode([]byte{5, 8, zchars("a")[0]}, false)
	require.NoError(t, err)
	assert.Equal(t, "0a", text)
}

func TestDecodeLockShiftsV2(t *testing.T) {
	d := newTextDecoder(nil, 2, 0)

	// z-char 4 locks A1 in the early scheme, so every following letter
	// stays uppercase until z-char 5 locks back around.
	text, err := d.decode(append([]byte{4}, zchars("abc")...), false)
	require.NoError(t, err)
	assert.Equal(t, "ABC", text)

	// z-char 2 shifts a single character only.
	text, err = d.decode(append([]byte{2}, zchars("abc")...), false)
	require.NoError(t, err)
	assert.Equal(t, "Abc", text)
}

func TestDecodeNewlineV1(t *testing.T) {
	d1 := newTextDecoder(nil, 1, 0)
	text, err := d1.decode([]byte{zchars("a")[0], 1, zchars("b")[0]}, false)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", text)

	// V2 gives z-char 1 to abbreviations instead. Entry 0 of the table
	// points at an empty string here, so the pair expands to nothing.
	buf := make([]byte, 128)
	buf[1] = 1 // entry 0: word address 1, i.e. byte offset 2
	copy(buf[2:], packZChars([]byte{5, 5, 5}))
	d2 := newTextDecoder(buf, 2, 0)
	text, err = d2.decode([]byte{zchars("a")[0], 1, 0, zchars("b")[0]}, false)
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}

func TestDecodeA2RowV1(t *testing.T) {
	// The V1 punctuation row starts with '0' where V2+ carries a newline,
	// so the same shifted z-char decodes differently. z-char 3 is a
	// temporary shift to the previous alphabet in the early scheme.
	d1 := newTextDecoder(nil, 1, 0)
	text, err := d1.decode([]byte{3, 7}, false)
	require.NoError(t, err)
	assert.Equal(t, "0", text)

	d2 := newTextDecoder(make([]byte, 4), 2, 0)
	text, err = d2.decode([]byte{3, 7}, false)
	require.NoError(t, err)
	assert.Equal(t, "\n", text)

	// '<' exists only in the V1 row.
	text, err = d1.decode([]byte{3, 27}, false)
	require.NoError(t, err)
	assert.Equal(t, "<", text)
}

func TestDecodeAbbreviation(t *testing.T) {
	// Layout: abbreviation table at 0x40, expansion string at 0x80,
	// main string at 0x100.
	buf := make([]byte, 0x120)

	copy(buf[0x80:], packZChars(zchars("magic ")))

	// Entry 32*(z-1)+x for z=1, x=2 lives at table+2*2 and holds a word
	// address.
	buf[0x44] = byte(0x80 / 2 >> 8)
	buf[0x45] = byte(0x80 / 2)

	main := append([]byte{1, 2}, zchars("word")...)
	copy(buf[0x100:], packZChars(main))

	d := newTextDecoder(buf, 3, 0x40)
	text, _, err := d.decodeAt(0x100)
	require.NoError(t, err)
	assert.Equal(t, "magic word", text)
}

func TestDecodeZSCIIEscape(t *testing.T) {
	d := newTextDecoder(nil, 5, 0)

	// Shift to A2, escape, then the 10-bit code split 5/5. Code 233 is
	// the Latin-1 e-acute.
	text, err := d.decode([]byte{5, 6, 233 >> 5, 233 & 0x1f}, false)
	require.NoError(t, err)
	assert.Equal(t, "é", text)

	// Code 64 is plain ASCII '@'.
	text, err = d.decode([]byte{5, 6, 64 >> 5, 64 & 0x1f}, false)
	require.NoError(t, err)
	assert.Equal(t, "@", text)
}

func TestDecodeFixedIgnoresStopBits(t *testing.T) {
	// Two encoded words, stop bit set on the first. A variable-width
	// decode would stop early; the fixed-width dictionary decode must
	// not.
	first := packZChars(zchars("nor"))
	second := packZChars(zchars("th "))
	buf := append(first, second...)

	d := newTextDecoder(buf, 3, 0)
	text, err := d.decodeFixed(0, 2)
	require.NoError(t, err)
	assert.Equal(t, "north ", text)
}

func TestDecodeTruncatedString(t *testing.T) {
	// No stop bit anywhere: collect must run off the end and report it.
	buf := packZChars(zchars("abc"))
	buf[0] &^= 0x80

	d := newTextDecoder(buf, 3, 0)
	_, _, err := d.decodeAt(0)
	var be *BoundsError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "z-string", be.Stage)
}
