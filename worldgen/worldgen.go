// Package worldgen builds starting worlds for offline matches. The resource
// field is layered simplex noise mirrored so that every player starts with
// the same surroundings.
package worldgen

import (
	"fmt"
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/damoonsh/Halite/model"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Size         int     // grid side length
	Players      int     // 2 or 4
	Seed         int64   // 0 = random
	MaxCell      float64 // resource on the richest cell
	Threshold    float64 // normalized noise below this leaves a cell empty (0.0–1.0)
	StartingBank float64
}

// DefaultGenConfig returns a two-player 21x21 world.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Size:         21,
		Players:      2,
		MaxCell:      500,
		Threshold:    0.45,
		StartingBank: 5000,
	}
}

// PlayerID names the i-th generated player.
func PlayerID(i int) string { return fmt.Sprintf("p%d", i) }

// Generate creates the tick-0 world: a mirrored resource field, one empty
// unit per player and no bases. Self is set to the first player.
func Generate(cfg GenConfig) (*model.Snapshot, error) {
	if cfg.Players != 2 && cfg.Players != 4 {
		return nil, fmt.Errorf("players must be 2 or 4, got %d", cfg.Players)
	}
	if cfg.Size < 4 {
		return nil, fmt.Errorf("size must be >= 4, got %d", cfg.Size)
	}
	if cfg.MaxCell < 0 {
		return nil, fmt.Errorf("max_cell must be >= 0, got %v", cfg.MaxCell)
	}
	if cfg.Threshold < 0 || cfg.Threshold >= 1 {
		return nil, fmt.Errorf("threshold must be in [0, 1), got %v", cfg.Threshold)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	noise := opensimplex.NewNormalized(seed)

	size := cfg.Size
	snap := &model.Snapshot{
		Size:      size,
		Self:      PlayerID(0),
		Resources: make([]float64, size*size),
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			sx, sy := x, y
			// fold onto the sampled half (two players) or quadrant (four)
			sx = min(sx, size-1-sx)
			if cfg.Players == 4 {
				sy = min(sy, size-1-sy)
			}
			n := octaveNoise(noise, float64(sx), float64(sy), 3, 0.15, 0.5)
			snap.Resources[y*size+x] = cellValue(n, cfg)
		}
	}

	for i, p := range starts(size, cfg.Players) {
		id := PlayerID(i)
		snap.Players = append(snap.Players, model.Player{ID: id, Bank: cfg.StartingBank})
		snap.Units = append(snap.Units, model.Unit{ID: "u0-" + id, Owner: id, Pos: p})
	}

	return snap, nil
}

// cellValue sharpens the noise so rich cells are rare.
func cellValue(n float64, cfg GenConfig) float64 {
	if n < cfg.Threshold {
		return 0
	}
	t := (n - cfg.Threshold) / (1 - cfg.Threshold)
	return math.Round(cfg.MaxCell * t * t)
}

// starts places players at mirrored positions a quarter of the grid in from
// each edge.
func starts(size, players int) []model.Position {
	q := size / 4
	far := size - 1 - q
	if players == 2 {
		mid := size / 2
		return []model.Position{{X: q, Y: mid}, {X: far, Y: mid}}
	}
	return []model.Position{{X: q, Y: q}, {X: far, Y: q}, {X: q, Y: far}, {X: far, Y: far}}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
