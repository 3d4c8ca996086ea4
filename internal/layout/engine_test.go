package layout

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dyuri/zatlas/internal/model"
)

func rooms(ids ...int) []model.Room {
	out := make([]model.Room, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Room{ID: id, Name: fmt.Sprintf("room %d", id)})
	}
	return out
}

func TestLayoutCompassPlacement(t *testing.T) {
	exits := []model.Exit{
		{From: 1, Label: "north", To: 2},
		{From: 1, Label: "east", To: 3},
		{From: 2, Label: "northeast", To: 4},
	}

	nodes := Layout(rooms(1, 2, 3, 4), exits, DefaultOptions)
	require.Len(t, nodes, 4)

	assert.Equal(t, model.LayoutNode{RoomID: 1, X: 0, Y: 0, Status: model.PlacedByTraversal}, nodes[1])
	assert.Equal(t, 0, nodes[2].X)
	assert.Equal(t, 1, nodes[2].Y)
	assert.Equal(t, 1, nodes[3].X)
	assert.Equal(t, 0, nodes[3].Y)
	assert.Equal(t, 1, nodes[4].X)
	assert.Equal(t, 2, nodes[4].Y)
}

func TestLayoutVerticalAndInOut(t *testing.T) {
	exits := []model.Exit{
		{From: 1, Label: "up", To: 2},
		{From: 1, Label: "in", To: 3},
		{From: 3, Label: "out", To: 4},
	}

	nodes := Layout(rooms(1, 2, 3, 4), exits, DefaultOptions)

	// Up keeps the cell and raises the layer.
	assert.Equal(t, 0, nodes[2].X)
	assert.Equal(t, 0, nodes[2].Y)
	assert.Equal(t, 1, nodes[2].Layer)

	// In/out nudge along x on the same layer.
	assert.Equal(t, 2, nodes[3].X)
	assert.Equal(t, 0, nodes[3].Layer)
	// Out of room 3 would land back on the start cell; the ring search
	// must move it somewhere free instead.
	assert.NotEqual(t, [2]int{0, 0}, [2]int{nodes[4].X, nodes[4].Y})
}

func TestLayoutTruncatedDiagonals(t *testing.T) {
	// v1-3 dictionaries truncate words to 6 z-characters, so the
	// diagonal names arrive clipped.
	exits := []model.Exit{
		{From: 1, Label: "northe", To: 2},
		{From: 1, Label: "southw", To: 3},
	}

	nodes := Layout(rooms(1, 2, 3), exits, DefaultOptions)
	assert.Equal(t, 1, nodes[2].X)
	assert.Equal(t, 1, nodes[2].Y)
	assert.Equal(t, -1, nodes[3].X)
	assert.Equal(t, -1, nodes[3].Y)
}

func TestLayoutUnknownLabel(t *testing.T) {
	exits := []model.Exit{{From: 1, Label: "pray", To: 2}}

	nodes := Layout(rooms(1, 2), exits, DefaultOptions)
	assert.Equal(t, -1, nodes[2].X)
	assert.Equal(t, -1, nodes[2].Y)
}

func TestLayoutConflictResolution(t *testing.T) {
	// Two different rooms north of the same source cannot share a cell.
	exits := []model.Exit{
		{From: 1, Label: "north", To: 2},
		{From: 1, Label: "north", To: 3},
	}

	nodes := Layout(rooms(1, 2, 3), exits, DefaultOptions)
	require.Len(t, nodes, 3)

	a, b := nodes[2], nodes[3]
	assert.False(t, a.X == b.X && a.Y == b.Y && a.Layer == b.Layer)
	// The displaced room stays adjacent to its ideal cell.
	assert.LessOrEqual(t, abs(b.X-0)+abs(b.Y-1), 2)
}

func TestLayoutOverflow(t *testing.T) {
	// Room 4 and 5 have no inbound exits and must land in the overflow
	// grid below everything placed by traversal.
	exits := []model.Exit{{From: 1, Label: "south", To: 2}}

	nodes := Layout(rooms(1, 2, 4, 5), exits, Options{OverflowColumns: 1, MaxRing: 8})
	require.Len(t, nodes, 4)

	assert.Equal(t, model.PlacedByTraversal, nodes[1].Status)
	assert.Equal(t, model.PlacedByTraversal, nodes[2].Status)
	assert.Equal(t, model.PlacedInOverflow, nodes[4].Status)
	assert.Equal(t, model.PlacedInOverflow, nodes[5].Status)

	// Below the traversal bounding box, in table order, one per row.
	assert.Less(t, nodes[4].Y, nodes[2].Y)
	assert.Less(t, nodes[5].Y, nodes[4].Y)
}

func TestLayoutEmpty(t *testing.T) {
	assert.Empty(t, Layout(nil, nil, DefaultOptions))
}

func TestLayoutNoCellSharedTwice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "n")
		rs := make([]model.Room, n)
		for i := range rs {
			rs[i] = model.Room{ID: i + 1}
		}

		labels := []string{"north", "south", "east", "west", "up", "down", "in", "out", "pray"}
		nExits := rapid.IntRange(0, 3*n).Draw(t, "nExits")
		exits := make([]model.Exit, nExits)
		for i := range exits {
			exits[i] = model.Exit{
				From:  rapid.IntRange(1, n).Draw(t, "from"),
				To:    rapid.IntRange(1, n).Draw(t, "to"),
				Label: rapid.SampledFrom(labels).Draw(t, "label"),
			}
		}

		nodes := Layout(rs, exits, DefaultOptions)
		if len(nodes) != n {
			t.Fatalf("placed %d of %d rooms", len(nodes), n)
		}

		seen := make(map[[3]int]int)
		for id, node := range nodes {
			c := [3]int{node.X, node.Y, node.Layer}
			if prev, taken := seen[c]; taken {
				t.Fatalf("rooms %d and %d share cell %v", prev, id, c)
			}
			seen[c] = id
		}
	})
}

func TestLayoutDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		rs := make([]model.Room, n)
		for i := range rs {
			rs[i] = model.Room{ID: i + 1}
		}

		labels := []string{"north", "south", "east", "northeast", "southwest", "up", "enter"}
		nExits := rapid.IntRange(0, 2*n).Draw(t, "nExits")
		exits := make([]model.Exit, nExits)
		for i := range exits {
			exits[i] = model.Exit{
				From:  rapid.IntRange(1, n).Draw(t, "from"),
				To:    rapid.IntRange(1, n).Draw(t, "to"),
				Label: rapid.SampledFrom(labels).Draw(t, "label"),
			}
		}

		first := Layout(rs, exits, DefaultOptions)
		second := Layout(rs, exits, DefaultOptions)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("layout differs between identical runs")
		}
	})
}
