package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildStory assembles a two-object version 3 story file: a container
// holding one room whose movement property leads back to the container.
func buildStory() []byte {
	buf := make([]byte, 0x200)
	putWord := func(off, v int) {
		buf[off] = byte(v >> 8)
		buf[off+1] = byte(v)
	}

	buf[0] = 3
	putWord(0x02, 7)
	putWord(0x08, 0xc0)
	putWord(0x0a, 0x40)
	copy(buf[0x12:], "880101")

	// Two 9-byte object entries after the 31 default words, property
	// tables packed right behind them so the count stops at 2.
	entries := 0x40 + 31*2
	buf[entries+6] = 2 // container's child
	putWord(entries+7, 144)
	buf[entries+9+4] = 1 // room's parent
	putWord(entries+9+7, 146)

	buf[144] = 0 // container: no name, no properties
	buf[145] = 0

	buf[146] = 1 // room: name "den", one encoded word
	buf[147] = 0xa5
	buf[148] = 0x53
	buf[149] = 10 // property 10, length 1
	buf[150] = 1
	buf[151] = 0

	// Dictionary: one 7-byte entry, "north" mapped to property 10.
	dict := 0xc0
	buf[dict+1] = 7
	putWord(dict+2, 1)
	copy(buf[dict+4:], []byte{0x4e, 0x97, 0xe5, 0xa5})
	buf[dict+8] = 10

	return buf
}

func TestRunMapReportsStoryCounts(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "game.z3")
	require.NoError(t, os.WriteFile(input, buildStory(), 0o644))
	output := filepath.Join(dir, "map.json")

	hook := test.NewLocal(log)
	defer log.ReplaceHooks(make(logrus.LevelHooks))

	rootCmd.SetArgs([]string{input, output})
	require.NoError(t, rootCmd.Execute())

	var parsed *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "parsed story file" {
			parsed = e
		}
	}
	require.NotNil(t, parsed, "story metadata must be logged")
	// A default run shows the counts, not just a debug trace.
	assert.Equal(t, logrus.InfoLevel, parsed.Level)
	assert.Equal(t, 3, parsed.Data["version"])
	assert.Equal(t, 7, parsed.Data["release"])
	assert.Equal(t, "880101", parsed.Data["serial"])
	assert.Equal(t, 2, parsed.Data["objects"])
	assert.Equal(t, 1, parsed.Data["words"])

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.EqualValues(t, 3, m["version"])
	assert.Equal(t, "dictionary", m["strategy"])
}
