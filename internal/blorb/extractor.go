// Package blorb extracts story files from Blorb resource containers.
// A Blorb is an IFF FORM of type IFRS; the executable story lives in a
// ZCOD chunk referenced from the mandatory RIdx resource index.
package blorb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	formID = "FORM"
	ifrsID = "IFRS"
	ridxID = "RIdx"
	zcodID = "ZCOD"
	execID = "Exec"
)

// chunkHeader is the 8-byte IFF chunk preamble: a 4-byte type ID followed
// by a big-endian payload length which excludes the header itself.
type chunkHeader struct {
	ID     [4]byte
	Length uint32
}

// resourceEntry is one row of the RIdx index: usage ID, resource number,
// and the file offset of the referenced chunk header.
type resourceEntry struct {
	Usage  [4]byte
	Number uint32
	Start  uint32
}

// IsBlorb reports whether data starts with an IFRS FORM container.
func IsBlorb(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == formID &&
		string(data[8:12]) == ifrsID
}

// StoryData returns the payload of the first ZCOD chunk in a Blorb
// container. The Exec resources in the index are tried in order; a Blorb
// without an executable story is an error.
func StoryData(data []byte) ([]byte, error) {
	if !IsBlorb(data) {
		return nil, fmt.Errorf("not a blorb container (missing FORM/IFRS signature)")
	}

	entries, err := readIndex(data)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if string(e.Usage[:]) != execID {
			continue
		}
		payload, id, err := chunkAt(data, e.Start)
		if err != nil {
			return nil, fmt.Errorf("resource %d: %w", e.Number, err)
		}
		if id == zcodID {
			return payload, nil
		}
	}
	return nil, fmt.Errorf("no ZCOD executable resource in container")
}

// readIndex parses the RIdx chunk, which must be the first chunk of the
// FORM body.
func readIndex(data []byte) ([]resourceEntry, error) {
	payload, id, err := chunkAt(data, 12)
	if err != nil {
		return nil, fmt.Errorf("resource index: %w", err)
	}
	if id != ridxID {
		return nil, fmt.Errorf("expected RIdx as first chunk, got %q", id)
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("resource index truncated")
	}

	count := binary.BigEndian.Uint32(payload[0:4])
	need := 4 + int(count)*12
	if len(payload) < need {
		return nil, fmt.Errorf("resource index declares %d entries but holds %d bytes", count, len(payload))
	}

	entries := make([]resourceEntry, 0, count)
	for i := 0; i < int(count); i++ {
		off := 4 + i*12
		var e resourceEntry
		copy(e.Usage[:], payload[off:off+4])
		e.Number = binary.BigEndian.Uint32(payload[off+4 : off+8])
		e.Start = binary.BigEndian.Uint32(payload[off+8 : off+12])
		entries = append(entries, e)
	}
	return entries, nil
}

// chunkAt returns the payload and type ID of the chunk whose header starts
// at offset.
func chunkAt(data []byte, offset uint32) ([]byte, string, error) {
	if int(offset)+8 > len(data) {
		return nil, "", fmt.Errorf("chunk header at 0x%x past end of container", offset)
	}
	var h chunkHeader
	copy(h.ID[:], data[offset:offset+4])
	h.Length = binary.BigEndian.Uint32(data[offset+4 : offset+8])

	start := int(offset) + 8
	end := start + int(h.Length)
	if end > len(data) {
		return nil, "", fmt.Errorf("chunk %q at 0x%x declares %d bytes past end of container", string(h.ID[:]), offset, h.Length)
	}
	return data[start:end], string(h.ID[:]), nil
}

// ExtractStory writes the ZCOD payload of a Blorb file next to outputDir,
// named after the input with a version-appropriate extension. Returns the
// written path.
func ExtractStory(blorbPath string, outputDir string) (string, error) {
	data, err := os.ReadFile(blorbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open blorb file: %w", err)
	}

	story, err := StoryData(data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(blorbPath), filepath.Ext(blorbPath))
	ext := ".dat"
	if len(story) > 0 && story[0] >= 1 && story[0] <= 8 {
		ext = fmt.Sprintf(".z%d", story[0])
	}
	outputPath := filepath.Join(outputDir, base+ext)

	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	if _, err := outFile.Write(story); err != nil {
		outFile.Close()
		return "", fmt.Errorf("failed to write story file %s: %w", outputPath, err)
	}
	if err := outFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write story file %s: %w", outputPath, err)
	}

	return outputPath, nil
}
