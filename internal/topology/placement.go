package topology

import (
	"math"
	"math/rand"

	"github.com/nerrad567/nodex-core/internal/infrastructure/config"
)

// PlaceNode picks a canvas position for a new node by rejection
// sampling: up to the configured number of uniform samples are drawn
// from the canvas, and the first one at least min_separation away from
// every existing node wins.
//
// When the canvas is too crowded for any sample to qualify, the last
// sample is used as a best-effort position. Overlap beats failure.
func PlaceNode(f *Forest, cfg config.TopologyConfig, rng *rand.Rand) (float64, float64) {
	attempts := cfg.MaxPlacementAttempts
	if attempts < 1 {
		attempts = 100
	}

	var x, y float64
	for i := 0; i < attempts; i++ {
		x = cfg.Canvas.MinX + rng.Float64()*(cfg.Canvas.MaxX-cfg.Canvas.MinX)
		y = cfg.Canvas.MinY + rng.Float64()*(cfg.Canvas.MaxY-cfg.Canvas.MinY)
		if separated(f, x, y, cfg.MinSeparation) {
			return x, y
		}
	}
	return x, y
}

// separated reports whether (x, y) keeps at least minSep distance from
// every node in the forest.
func separated(f *Forest, x, y, minSep float64) bool {
	for _, id := range f.order {
		n := f.nodes[id]
		if math.Hypot(n.X-x, n.Y-y) < minSep {
			return false
		}
	}
	return true
}
