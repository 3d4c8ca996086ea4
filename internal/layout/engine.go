// Package layout places classified rooms on an integer grid from the
// inferred exit graph. The whole computation is a pure function of its
// inputs: identical room/exit sets always yield identical coordinates.
package layout

import (
	"math"

	"github.com/dyuri/zatlas/internal/model"
)

// vec is a placement offset. Up/down moves change the layer and keep the
// cell; in/out have no compass meaning and nudge along a longer x offset
// so the target stays visually attached without pretending to be east or
// west of the source.
type vec struct {
	dx, dy, dlayer int
}

// directionVectors maps direction labels to placement offsets. Dictionary
// words are stored truncated (6 Z-characters in v1-3), so the common
// truncations of the diagonal names are listed alongside the full ones.
var directionVectors = map[string]vec{
	"north": {0, 1, 0}, "n": {0, 1, 0},
	"south": {0, -1, 0}, "s": {0, -1, 0},
	"east": {1, 0, 0}, "e": {1, 0, 0},
	"west": {-1, 0, 0}, "w": {-1, 0, 0},
	"northeast": {1, 1, 0}, "ne": {1, 1, 0}, "northe": {1, 1, 0},
	"northwest": {-1, 1, 0}, "nw": {-1, 1, 0}, "northw": {-1, 1, 0},
	"southeast": {1, -1, 0}, "se": {1, -1, 0}, "southe": {1, -1, 0},
	"southwest": {-1, -1, 0}, "sw": {-1, -1, 0}, "southw": {-1, -1, 0},
	"up": {0, 0, 1}, "u": {0, 0, 1},
	"down": {0, 0, -1}, "d": {0, 0, -1},
	"in": {2, 0, 0}, "enter": {2, 0, 0},
	"out": {-2, 0, 0}, "exit": {-2, 0, 0},
}

// unknownVector places rooms reached by unrecognized movement words
// ("pray", "launch", ...) on a low-traffic diagonal so they stay connected
// without being mistaken for a compass neighbor.
var unknownVector = vec{-1, -1, 0}

// Options tunes the layout.
type Options struct {
	// OverflowColumns is the width of the grid that collects rooms
	// unreachable from the start room. Minimum 1.
	OverflowColumns int

	// MaxRing bounds the relaxation search around an occupied ideal
	// cell. Minimum 1.
	MaxRing int
}

// DefaultOptions matches the tuning used by the CLI.
var DefaultOptions = Options{OverflowColumns: 4, MaxRing: 64}

type cell struct {
	x, y, layer int
}

// Layout assigns grid coordinates to every room. rooms must be in table
// order; the first room is the traversal start. Exits targeting non-room
// objects contribute nothing to placement.
func Layout(rooms []model.Room, exits []model.Exit, opts Options) map[int]model.LayoutNode {
	nodes := make(map[int]model.LayoutNode, len(rooms))
	if len(rooms) == 0 {
		return nodes
	}
	if opts.OverflowColumns < 1 {
		opts.OverflowColumns = 1
	}
	if opts.MaxRing < 1 {
		opts.MaxRing = DefaultOptions.MaxRing
	}

	isRoom := make(map[int]bool, len(rooms))
	for _, r := range rooms {
		isRoom[r.ID] = true
	}

	// Adjacency in exit order keeps the BFS frontier reproducible.
	adjacent := make(map[int][]model.Exit)
	for _, e := range exits {
		adjacent[e.From] = append(adjacent[e.From], e)
	}

	occupied := make(map[cell]int)
	place := func(id int, c cell, status model.PlacementStatus) {
		occupied[c] = id
		nodes[id] = model.LayoutNode{RoomID: id, X: c.x, Y: c.y, Layer: c.layer, Status: status}
	}

	start := rooms[0].ID
	place(start, cell{0, 0, 0}, model.PlacedByTraversal)
	queue := []int{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		from := cell{nodes[id].X, nodes[id].Y, nodes[id].Layer}

		for _, e := range adjacent[id] {
			if !isRoom[e.To] {
				continue
			}
			if _, done := nodes[e.To]; done {
				continue
			}
			v, ok := directionVectors[e.Label]
			if !ok {
				v = unknownVector
			}
			ideal := cell{from.x + v.dx, from.y + v.dy, from.layer + v.dlayer}
			place(e.To, relax(ideal, from, occupied, opts.MaxRing), model.PlacedByTraversal)
			queue = append(queue, e.To)
		}
	}

	placeOverflow(rooms, nodes, occupied, place, opts)
	return nodes
}

// relax returns the ideal cell when free, otherwise the nearest free cell
// found by searching expanding rings around it, preferring candidates in
// the direction the original vector pointed. Scan order is fixed, so the
// result is deterministic.
func relax(ideal, from cell, occupied map[cell]int, maxRing int) cell {
	if _, taken := occupied[ideal]; !taken {
		return ideal
	}

	wantX, wantY := float64(ideal.x-from.x), float64(ideal.y-from.y)
	for ring := 1; ring <= maxRing; ring++ {
		best, found := cell{}, false
		bestScore := math.Inf(1)
		for dy := -ring; dy <= ring; dy++ {
			for dx := -ring; dx <= ring; dx++ {
				if max(abs(dx), abs(dy)) != ring {
					continue
				}
				c := cell{ideal.x + dx, ideal.y + dy, ideal.layer}
				if _, taken := occupied[c]; taken {
					continue
				}
				score := angleScore(wantX, wantY, float64(c.x-from.x), float64(c.y-from.y))
				if score < bestScore {
					best, bestScore, found = c, score, true
				}
			}
		}
		if found {
			return best
		}
	}
	// Pathological density; stack on the far ring corner rather than loop.
	return cell{ideal.x + maxRing, ideal.y + maxRing, ideal.layer}
}

// angleScore measures how far (gx, gy) deviates from the wanted direction.
// Lower is better. A zero wanted vector (up/down moves) degrades to plain
// distance from the ideal direction's origin.
func angleScore(wx, wy, gx, gy float64) float64 {
	wn := math.Hypot(wx, wy)
	gn := math.Hypot(gx, gy)
	if wn == 0 || gn == 0 {
		return gn
	}
	// 1 - cos(angle), monotone in the angle, exact for the comparisons
	// we make.
	return 1 - (wx*gx+wy*gy)/(wn*gn)
}

// placeOverflow packs every room the traversal never reached into a fresh
// grid below the placed bounding box, in table order.
func placeOverflow(rooms []model.Room, nodes map[int]model.LayoutNode,
	occupied map[cell]int, place func(int, cell, model.PlacementStatus), opts Options) {

	minX, minY := 0, 0
	for _, n := range nodes {
		if n.X < minX {
			minX = n.X
		}
		if n.Y < minY {
			minY = n.Y
		}
	}

	idx := 0
	for _, r := range rooms {
		if _, done := nodes[r.ID]; done {
			continue
		}
		c := cell{
			x:     minX + idx%opts.OverflowColumns,
			y:     minY - 2 - idx/opts.OverflowColumns,
			layer: 0,
		}
		// The rows are below everything already placed, but stay safe
		// against earlier overflow collisions all the same.
		for {
			if _, taken := occupied[c]; !taken {
				break
			}
			c.x++
		}
		place(r.ID, c, model.PlacedInOverflow)
		idx++
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
