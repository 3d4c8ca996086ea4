package model

// GameFile is the immutable parsed snapshot of a Z-machine story file.
// It is produced once by the binary reader and never mutated afterwards;
// every later pipeline stage only reads from it.
type GameFile struct {
	Header     Header
	Objects    []ObjectEntry     // 1-based object ids; Objects[0] is object 1
	Dictionary []DictionaryEntry // in on-disk order
	Data       []byte            // the raw story file buffer
}

// Header contains the decoded story file header.
type Header struct {
	Version       int    // 1..8
	Release       int    // release number (word at 0x02)
	Serial        string // 6-character serial (0x12..0x17)
	HighMemory    int    // base of high memory
	InitialPC     int    // resolved byte address of the first instruction / main routine
	DictionaryAdr int
	ObjectTable   int
	Globals       int
	StaticMemory  int
	Abbreviations int
	FileLength    int // stored length * version divisor
	Checksum      int

	// Divisor is the packed-address / file-length divisor: 2 for v1-3,
	// 4 for v4-5, 8 for v6-8.
	Divisor int

	// RoutinesOffset and StringsOffset are present for v6-7 only (8-byte
	// units already multiplied out). Zero for every other version.
	RoutinesOffset int
	StringsOffset  int
}

// ObjectEntry is one row of the object table. The parent/sibling/child ids
// describe the containment tree, not memory ownership.
type ObjectEntry struct {
	ID      int    // 1-based
	Name    string // decoded short name, may be empty
	Parent  int
	Sibling int
	Child   int

	// Attributes holds the raw attribute bits, most significant first:
	// 4 bytes (32 bits) for v1-3, 6 bytes (48 bits) for v4+.
	Attributes []byte

	// Properties maps property number to its entry. Numbers are unique
	// per object.
	Properties map[int]PropertyEntry

	// PropOrder lists the property numbers in on-disk order so callers
	// can iterate deterministically.
	PropOrder []int
}

// Attr reports whether attribute bit n (0 = most significant bit of the
// first byte) is set. Out-of-range bits read as false.
func (o *ObjectEntry) Attr(n int) bool {
	if n < 0 || n >= len(o.Attributes)*8 {
		return false
	}
	return o.Attributes[n/8]&(1<<(7-uint(n%8))) != 0
}

// PropertyEntry is a numbered variable-length byte blob attached to an object.
type PropertyEntry struct {
	Number int
	Data   []byte
}

// Word returns the property data interpreted as a big-endian word when it
// is exactly two bytes, or the single byte value when it is one byte.
// ok is false for any other length.
func (p PropertyEntry) Word() (int, bool) {
	switch len(p.Data) {
	case 1:
		return int(p.Data[0]), true
	case 2:
		return int(p.Data[0])<<8 | int(p.Data[1]), true
	}
	return 0, false
}

// DictionaryEntry is one decoded vocabulary word plus its trailing data
// bytes. Tail carries everything past the encoded word; the reader assigns
// it no meaning, that is exit-extraction policy.
type DictionaryEntry struct {
	Word string // decoded, lower-case by construction of the encoding
	Tail []byte
}
