package binary

import (
	"strings"

	"github.com/dyuri/zatlas/internal/model"
)

// Header field offsets. The header is 64 bytes in every version; only the
// interpretation of some fields changes.
const (
	offVersion       = 0x00
	offRelease       = 0x02
	offHighMemory    = 0x04
	offInitialPC     = 0x06
	offDictionary    = 0x08
	offObjectTable   = 0x0a
	offGlobals       = 0x0c
	offStaticMemory  = 0x0e
	offSerial        = 0x12
	offAbbreviations = 0x18
	offFileLength    = 0x1a
	offChecksum      = 0x1c
	offRoutines      = 0x28
	offStrings       = 0x2a

	headerSize = 0x40
)

// versionLayout captures the object/dictionary field widths that vary by
// version, selected by one lookup at parse start.
type versionLayout struct {
	divisor       int // packed address / file length divisor
	attrBytes     int // attribute field width: 4 (32 bits) or 6 (48 bits)
	relBytes      int // parent/sibling/child width: 1 or 2
	propDefaults  int // property default words before the entries: 31 or 63
	maxObjects    int
	packedInitial bool // initial PC is a packed routine address (v6-7)
}

var versionLayouts = map[int]versionLayout{
	1: {divisor: 2, attrBytes: 4, relBytes: 1, propDefaults: 31, maxObjects: 255},
	2: {divisor: 2, attrBytes: 4, relBytes: 1, propDefaults: 31, maxObjects: 255},
	3: {divisor: 2, attrBytes: 4, relBytes: 1, propDefaults: 31, maxObjects: 255},
	4: {divisor: 4, attrBytes: 6, relBytes: 2, propDefaults: 63, maxObjects: 65535},
	5: {divisor: 4, attrBytes: 6, relBytes: 2, propDefaults: 63, maxObjects: 65535},
	6: {divisor: 8, attrBytes: 6, relBytes: 2, propDefaults: 63, maxObjects: 65535, packedInitial: true},
	7: {divisor: 8, attrBytes: 6, relBytes: 2, propDefaults: 63, maxObjects: 65535, packedInitial: true},
	// v8 shares v6-7's address space but keeps the direct initial PC and
	// ignores the routines/strings offset fields.
	8: {divisor: 8, attrBytes: 6, relBytes: 2, propDefaults: 63, maxObjects: 65535},
}

// Reader parses a Z-machine story file out of an in-memory buffer.
type Reader struct {
	buf    []byte
	layout versionLayout
	dec    *textDecoder
}

// NewReader creates a reader over the raw story bytes. The buffer is
// treated as read-only for the life of the parse and beyond.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Parse decodes the header, object table and dictionary. Any out-of-bounds
// offset aborts the parse; no partial GameFile is ever returned.
func (r *Reader) Parse() (*model.GameFile, error) {
	header, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	r.layout = versionLayouts[header.Version]
	r.dec = newTextDecoder(r.buf, header.Version, header.Abbreviations)

	objects, err := r.readObjects(header)
	if err != nil {
		return nil, err
	}
	dict, err := r.readDictionary(header)
	if err != nil {
		return nil, err
	}

	return &model.GameFile{
		Header:     *header,
		Objects:    objects,
		Dictionary: dict,
		Data:       r.buf,
	}, nil
}

func (r *Reader) byteAt(stage string, off int) (int, error) {
	if off < 0 || off+1 > len(r.buf) {
		return 0, &BoundsError{Stage: stage, Offset: off, Need: 1, Size: len(r.buf)}
	}
	return int(r.buf[off]), nil
}

func (r *Reader) wordAt(stage string, off int) (int, error) {
	if off < 0 || off+2 > len(r.buf) {
		return 0, &BoundsError{Stage: stage, Offset: off, Need: 2, Size: len(r.buf)}
	}
	return int(r.buf[off])<<8 | int(r.buf[off+1]), nil
}

func (r *Reader) readHeader() (*model.Header, error) {
	if len(r.buf) < headerSize {
		return nil, &BoundsError{Stage: "header", Offset: 0, Need: headerSize, Size: len(r.buf)}
	}

	version := int(r.buf[offVersion])
	layout, ok := versionLayouts[version]
	if !ok {
		return nil, &UnsupportedVersionError{Version: version}
	}

	word := func(off int) int { return int(r.buf[off])<<8 | int(r.buf[off+1]) }

	h := &model.Header{
		Version:       version,
		Release:       word(offRelease),
		Serial:        string(r.buf[offSerial : offSerial+6]),
		HighMemory:    word(offHighMemory),
		DictionaryAdr: word(offDictionary),
		ObjectTable:   word(offObjectTable),
		Globals:       word(offGlobals),
		StaticMemory:  word(offStaticMemory),
		Abbreviations: word(offAbbreviations),
		FileLength:    word(offFileLength) * layout.divisor,
		Checksum:      word(offChecksum),
		Divisor:       layout.divisor,
	}

	pc := word(offInitialPC)
	if layout.packedInitial {
		// v6-7 store a packed main-routine address; the routines and
		// strings offsets are held in 8-byte units.
		h.RoutinesOffset = word(offRoutines) * 8
		h.StringsOffset = word(offStrings) * 8
		h.InitialPC = 4*pc + h.RoutinesOffset
	} else {
		h.InitialPC = pc
	}
	return h, nil
}

// readObjects parses the object table. The number of objects is not stored
// anywhere; the table runs up to the lowest property table address, the
// usual convention for compiled story files.
func (r *Reader) readObjects(h *model.Header) ([]model.ObjectEntry, error) {
	start := h.ObjectTable + r.layout.propDefaults*2
	entrySize := r.layout.attrBytes + 3*r.layout.relBytes + 2

	// The table address comes straight from the header and may point
	// anywhere; the defaults block must fit before any entry is read.
	if start > len(r.buf) {
		return nil, &BoundsError{Stage: "object table", Offset: h.ObjectTable, Need: r.layout.propDefaults * 2, Size: len(r.buf)}
	}

	propMin := len(r.buf)
	var objects []model.ObjectEntry
	for i := 0; len(objects) < r.layout.maxObjects; i++ {
		addr := start + i*entrySize
		// The lowest property table address caps the entry region, so
		// addr+entrySize never exceeds the buffer here.
		if addr+entrySize > propMin {
			break
		}

		obj := model.ObjectEntry{ID: i + 1}
		obj.Attributes = append([]byte(nil), r.buf[addr:addr+r.layout.attrBytes]...)

		rel := addr + r.layout.attrBytes
		if r.layout.relBytes == 1 {
			obj.Parent = int(r.buf[rel])
			obj.Sibling = int(r.buf[rel+1])
			obj.Child = int(r.buf[rel+2])
		} else {
			obj.Parent = int(r.buf[rel])<<8 | int(r.buf[rel+1])
			obj.Sibling = int(r.buf[rel+2])<<8 | int(r.buf[rel+3])
			obj.Child = int(r.buf[rel+4])<<8 | int(r.buf[rel+5])
		}

		propAddr := int(r.buf[rel+3*r.layout.relBytes])<<8 | int(r.buf[rel+3*r.layout.relBytes+1])
		if propAddr > start && propAddr < propMin {
			propMin = propAddr
		}

		if err := r.readPropertyTable(propAddr, &obj); err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// readPropertyTable fills the object's short name and property map from
// its property table.
func (r *Reader) readPropertyTable(addr int, obj *model.ObjectEntry) error {
	nameLen, err := r.byteAt("property table", addr)
	if err != nil {
		return err
	}
	if nameLen > 0 {
		name, _, err := r.dec.decodeAt(addr + 1)
		if err != nil {
			return err
		}
		obj.Name = name
	}

	obj.Properties = make(map[int]model.PropertyEntry)
	p := addr + 1 + nameLen*2
	for {
		size, err := r.byteAt("property table", p)
		if err != nil {
			return err
		}
		if size == 0 {
			return nil
		}

		var num, dataLen int
		if r.layout.attrBytes == 4 {
			// v1-3 short form: 3-bit length, 5-bit number.
			num = size & 0x1f
			dataLen = size>>5 + 1
			p++
		} else if size&0x80 != 0 {
			// v4+ long form: explicit length byte follows.
			num = size & 0x3f
			next, err := r.byteAt("property table", p+1)
			if err != nil {
				return err
			}
			dataLen = next & 0x3f
			if dataLen == 0 {
				dataLen = 64
			}
			p += 2
		} else {
			num = size & 0x3f
			dataLen = 1
			if size&0x40 != 0 {
				dataLen = 2
			}
			p++
		}

		if p+dataLen > len(r.buf) {
			return &BoundsError{Stage: "property table", Offset: p, Need: dataLen, Size: len(r.buf)}
		}
		// Property numbers are unique per object; on corrupt duplicates
		// the first occurrence wins.
		if _, seen := obj.Properties[num]; !seen {
			obj.Properties[num] = model.PropertyEntry{
				Number: num,
				Data:   append([]byte(nil), r.buf[p:p+dataLen]...),
			}
			obj.PropOrder = append(obj.PropOrder, num)
		}
		p += dataLen
	}
}

func (r *Reader) readDictionary(h *model.Header) ([]model.DictionaryEntry, error) {
	addr := h.DictionaryAdr
	nsep, err := r.byteAt("dictionary", addr)
	if err != nil {
		return nil, err
	}
	addr += 1 + nsep

	entryLen, err := r.byteAt("dictionary", addr)
	if err != nil {
		return nil, err
	}
	count, err := r.wordAt("dictionary", addr+1)
	if err != nil {
		return nil, err
	}
	base := addr + 3

	encodedLen := r.dec.profile.wordLen
	if entryLen < encodedLen {
		return nil, &BoundsError{Stage: "dictionary", Offset: base, Need: encodedLen, Size: entryLen}
	}

	entries := make([]model.DictionaryEntry, 0, count)
	for i := 0; i < count; i++ {
		off := base + i*entryLen
		if off+entryLen > len(r.buf) {
			return nil, &BoundsError{Stage: "dictionary", Offset: off, Need: entryLen, Size: len(r.buf)}
		}

		word, err := r.dec.decodeFixed(off, encodedLen/2)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.DictionaryEntry{
			Word: strings.TrimRight(word, " "),
			Tail: append([]byte(nil), r.buf[off+encodedLen:off+entryLen]...),
		})
	}
	return entries, nil
}
