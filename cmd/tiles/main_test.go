package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/tsuro-game/game/engine"
)

func TestAnalyzeCatalogue(t *testing.T) {
	stats := analyzeCatalogue(engine.Catalogue())

	assert.Equal(t, 35, stats.Tiles)
	// every perfect matching of eight points appears exactly once
	assert.Equal(t, 7*5*3, stats.Orientations)
	assert.Equal(t, stats.Tiles, stats.BySymmetry[1]+stats.BySymmetry[2]+stats.BySymmetry[4])
	assert.Positive(t, stats.BySymmetry[4])
}

func TestDistinctOrientations(t *testing.T) {
	orientations := distinctOrientations(engine.Catalogue())
	require.Len(t, orientations, 105)

	for i := range orientations {
		for j := i + 1; j < len(orientations); j++ {
			assert.False(t, orientations[i].Equal(orientations[j]), "%s repeats", orientations[i])
		}
	}
}

func TestAnalyzeOpenings(t *testing.T) {
	openings := analyzeOpenings(engine.Catalogue())
	require.Len(t, openings, 8*engine.BoardSize)

	for _, o := range openings {
		assert.Equal(t, 105, o.Total, "start %s point %d", o.Start.Pos, o.Start.Index)
		assert.Positive(t, o.Eliminated)
		assert.Less(t, o.Eliminated, o.Total)
	}
}

func TestOpeningStats_SafeShare(t *testing.T) {
	assert.Equal(t, 0.0, OpeningStats{}.SafeShare())
	assert.Equal(t, 0.75, OpeningStats{Total: 4, Eliminated: 1}.SafeShare())
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	report(&out)

	text := out.String()
	for _, want := range []string{
		"Tiles: 35",
		"Distinct orientations: 105",
		"Opening placements (48 starting positions)",
		"Riskiest starts:",
		"Safest starts:",
		"Every starting position has at least one safe opening tile",
	} {
		assert.Contains(t, text, want)
	}
}
