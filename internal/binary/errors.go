package binary

import "fmt"

// ParseError is the marker for every error the reader can return. A parse
// error aborts the whole run for that input; no partial GameFile escapes.
type ParseError interface {
	error
	parseError()
}

// UnsupportedVersionError reports a version byte outside 1..8.
type UnsupportedVersionError struct {
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported z-machine version %d (want 1-8)", e.Version)
}

func (e *UnsupportedVersionError) parseError() {}

// BoundsError reports a computed offset or length that falls outside the
// story buffer. Stage names the parsing phase that tripped it.
type BoundsError struct {
	Stage  string
	Offset int // byte offset that was about to be read
	Need   int // number of bytes required at Offset
	Size   int // buffer size
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: read of %d byte(s) at offset 0x%x exceeds file size %d",
		e.Stage, e.Need, e.Offset, e.Size)
}

func (e *BoundsError) parseError() {}
