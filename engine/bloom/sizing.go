package bloom

import "math"

// LevelSize computes the resolution of mip level i for a viewport of width x height.
// Each edge is floor(edge / c^(i+1)), clamped to at least 1.
//
// Parameters:
//   - width: the viewport width in pixels
//   - height: the viewport height in pixels
//   - c: the down sampling coefficient
//   - i: the 0-based level index
//
// Returns:
//   - int: the level width
//   - int: the level height
func LevelSize(width, height int, c float32, i int) (int, int) {
	div := math.Pow(float64(c), float64(i+1))
	w := int(math.Floor(float64(width) / div))
	h := int(math.Floor(float64(height) / div))
	return max(w, 1), max(h, 1)
}

// LevelWeights computes the accumulation weight of every level, factor * power^i.
//
// Parameters:
//   - factor: the weight of level 0
//   - power: the per-level multiplier
//   - n: the number of levels
//
// Returns:
//   - []float32: n weights
func LevelWeights(factor, power float32, n int) []float32 {
	weights := make([]float32, n)
	for i := range weights {
		weights[i] = float32(float64(factor) * math.Pow(float64(power), float64(i)))
	}
	return weights
}
