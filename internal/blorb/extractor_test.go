package blorb

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBlorb assembles a container with one Exec/ZCOD resource holding
// story, plus a decoy Pict resource in front of it.
func buildBlorb(story []byte) []byte {
	ridx := make([]byte, 4+2*12)
	binary.BigEndian.PutUint32(ridx, 2)

	// Chunk offsets are filled in once the body layout is known:
	// FORM header (12) + RIdx chunk (8 + len(ridx)).
	pictStart := 12 + 8 + len(ridx)
	zcodStart := pictStart + 8 + 4

	copy(ridx[4:], "Pict")
	binary.BigEndian.PutUint32(ridx[8:], 1)
	binary.BigEndian.PutUint32(ridx[12:], uint32(pictStart))
	copy(ridx[16:], "Exec")
	binary.BigEndian.PutUint32(ridx[20:], 0)
	binary.BigEndian.PutUint32(ridx[24:], uint32(zcodStart))

	var buf []byte
	chunk := func(id string, payload []byte) {
		buf = append(buf, id...)
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(payload)))
		buf = append(buf, length[:]...)
		buf = append(buf, payload...)
	}

	buf = append(buf, "FORM"...)
	buf = append(buf, 0, 0, 0, 0) // form length, patched below
	buf = append(buf, "IFRS"...)
	chunk("RIdx", ridx)
	chunk("Pict", []byte{1, 2, 3, 4})
	chunk("ZCOD", story)

	binary.BigEndian.PutUint32(buf[4:], uint32(len(buf)-8))
	return buf
}

func TestIsBlorb(t *testing.T) {
	assert.True(t, IsBlorb(buildBlorb([]byte{3, 0})))
	assert.False(t, IsBlorb([]byte("FORMxxxxAIFF")))
	assert.False(t, IsBlorb([]byte{3, 0, 0, 42}))
	assert.False(t, IsBlorb(nil))
}

func TestStoryData(t *testing.T) {
	story := []byte{3, 0, 0, 42, 9, 9}
	got, err := StoryData(buildBlorb(story))
	require.NoError(t, err)
	assert.Equal(t, story, got)
}

func TestStoryDataNoExec(t *testing.T) {
	blorb := buildBlorb([]byte{3})
	// Rewrite the Exec usage so no executable resource remains.
	idx := 12 + 8 + 4 + 12
	copy(blorb[idx:], "Snd ")

	_, err := StoryData(blorb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ZCOD")
}

func TestStoryDataTruncated(t *testing.T) {
	blorb := buildBlorb([]byte{3, 0, 0})
	_, err := StoryData(blorb[:20])
	require.Error(t, err)
}

func TestExtractStory(t *testing.T) {
	dir := t.TempDir()
	story := []byte{5, 0, 1, 2, 3}

	input := filepath.Join(dir, "game.zblorb")
	require.NoError(t, os.WriteFile(input, buildBlorb(story), 0644))

	outPath, err := ExtractStory(input, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "game.z5"), outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, story, data)
}
