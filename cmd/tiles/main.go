// Command tiles prints quick, human-readable facts about the tile catalogue:
// symmetry classes, how many distinct orientations exist, and for each
// starting position how many opening placements would push the token
// straight back off the board.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wricardo/tsuro-game/game/engine"
)

// CatalogueStats summarizes the tile set
type CatalogueStats struct {
	Tiles        int
	Orientations int
	BySymmetry   map[int]int // identical rotations -> tile count
}

// OpeningStats describes the first move from one starting position
type OpeningStats struct {
	Start      engine.Token
	Total      int
	Eliminated int
}

// SafeShare is the fraction of orientations that keep the token on the board
func (o OpeningStats) SafeShare() float64 {
	if o.Total == 0 {
		return 0
	}
	return float64(o.Total-o.Eliminated) / float64(o.Total)
}

func main() {
	report(os.Stdout)
}

func analyzeCatalogue(tiles []engine.Tile) CatalogueStats {
	stats := CatalogueStats{Tiles: len(tiles), BySymmetry: make(map[int]int)}
	for _, t := range tiles {
		sym := t.Symmetry()
		stats.BySymmetry[sym]++
		stats.Orientations += engine.Rotations / sym
	}
	return stats
}

// distinctOrientations lists every catalogue tile in each rotation that looks different
func distinctOrientations(tiles []engine.Tile) []engine.Tile {
	var out []engine.Tile
	for _, t := range tiles {
		var seen []engine.Tile
		for r := 0; r < engine.Rotations; r++ {
			candidate := t.Rotated(r)
			dup := false
			for _, s := range seen {
				if s.Equal(candidate) {
					dup = true
					break
				}
			}
			if !dup {
				seen = append(seen, candidate)
			}
		}
		out = append(out, seen...)
	}
	return out
}

func analyzeOpenings(tiles []engine.Tile) []OpeningStats {
	board := engine.NewBoard()
	orientations := distinctOrientations(tiles)

	var stats []OpeningStats
	for _, start := range engine.PhantomPositions(engine.Blue) {
		o := OpeningStats{Start: start}
		for _, tile := range orientations {
			out, ok := engine.WouldEliminate(board, start, tile)
			if !ok {
				continue
			}
			o.Total++
			if out {
				o.Eliminated++
			}
		}
		stats = append(stats, o)
	}
	return stats
}

func report(w io.Writer) {
	catalogue := engine.Catalogue()
	stats := analyzeCatalogue(catalogue)

	fmt.Fprintf(w, "=== Tile catalogue ===\n")
	fmt.Fprintf(w, "Tiles: %d\n", stats.Tiles)
	fmt.Fprintf(w, "Distinct orientations: %d\n", stats.Orientations)
	fmt.Fprintf(w, "Symmetric under quarter turns: %d\n", stats.BySymmetry[4])
	fmt.Fprintf(w, "Symmetric under half turns only: %d\n", stats.BySymmetry[2])
	fmt.Fprintf(w, "No symmetry: %d\n", stats.BySymmetry[1])

	openings := analyzeOpenings(catalogue)
	sort.SliceStable(openings, func(i, j int) bool {
		return openings[i].SafeShare() < openings[j].SafeShare()
	})

	fmt.Fprintf(w, "\n=== Opening placements (%d starting positions) ===\n", len(openings))
	show := func(o OpeningStats) {
		fmt.Fprintf(w, "   %s point %d: %d/%d orientations eliminate (%.0f%% safe)\n",
			o.Start.Pos, o.Start.Index, o.Eliminated, o.Total, 100*o.SafeShare())
	}

	fmt.Fprintf(w, "Riskiest starts:\n")
	for _, o := range openings[:min(3, len(openings))] {
		show(o)
	}
	fmt.Fprintf(w, "Safest starts:\n")
	for _, o := range openings[max(0, len(openings)-3):] {
		show(o)
	}

	doomed := 0
	for _, o := range openings {
		if o.Total > 0 && o.Eliminated == o.Total {
			doomed++
		}
	}
	if doomed > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d starting positions lose on every opening tile!\n", doomed)
	} else {
		fmt.Fprintf(w, "✅ Every starting position has at least one safe opening tile\n")
	}
}
