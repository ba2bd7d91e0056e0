package engine

import (
	"math/rand"

	"go.uber.org/zap"
)

// generateTiles lays out a fresh board. Kinds are assigned in pairs cycling
// through KindCount and then Fisher-Yates shuffled with rng. An odd cell
// count leaves the last cell in row-major order empty.
func generateTiles(config *GameConfig, rng *rand.Rand, logger *zap.Logger) []*Tile {
	cells := config.GridWidth * config.GridHeight
	count := cells
	if count%2 != 0 {
		count--
		logger.Warn("odd cell count, leaving last cell empty",
			zap.String("level", config.Name),
			zap.Int("width", config.GridWidth),
			zap.Int("height", config.GridHeight))
	}

	kinds := make([]int, count)
	for i := 0; i < count/2; i++ {
		kind := i % config.KindCount
		kinds[2*i] = kind
		kinds[2*i+1] = kind
	}
	for i := len(kinds) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		kinds[i], kinds[j] = kinds[j], kinds[i]
	}

	pitch := config.Pitch()
	tiles := make([]*Tile, count)
	for i := range tiles {
		col, row := i%config.GridWidth, i/config.GridWidth
		tiles[i] = &Tile{
			ID:   i,
			Kind: kinds[i],
			Col:  col,
			Row:  row,
			X:    float64(col) * pitch,
			Y:    float64(row) * pitch,
		}
	}
	return tiles
}

// reshuffle permutes the kinds of the unmatched tiles in place, leaving
// their cells untouched
func reshuffle(tiles []*Tile, rng *rand.Rand) {
	kinds := make([]int, len(tiles))
	for i, t := range tiles {
		kinds[i] = t.Kind
	}
	rng.Shuffle(len(kinds), func(i, j int) {
		kinds[i], kinds[j] = kinds[j], kinds[i]
	})
	for i, t := range tiles {
		t.Kind = kinds[i]
	}
}
