package bloom

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// ParamNumLevels is the material parameter holding the number of bound levels.
const ParamNumLevels = "NumLevels"

// LevelTextureParam names the accumulate texture slot of level i, Texture1 for level 0.
func LevelTextureParam(i int) string {
	return fmt.Sprintf("Texture%d", i+1)
}

// LevelWeightParam names the accumulate weight of level i, Weight1 for level 0.
func LevelWeightParam(i int) string {
	return fmt.Sprintf("Weight%d", i+1)
}

// bindAccumulate binds the scene and every level output.
func bindAccumulate(m material.Material, scene *common.Texture, levels []*common.Texture) {
	m.SetTexture(ParamTexture, scene)
	for i, tex := range levels {
		m.SetTexture(LevelTextureParam(i), tex)
	}
	for i := len(levels); i < MaxLevels; i++ {
		m.ClearParam(LevelTextureParam(i))
	}
	m.SetFloat(ParamNumLevels, float32(len(levels)))
}

// writeWeights stores the level weights on the accumulate material.
func writeWeights(m material.Material, weights []float32) {
	for i, w := range weights {
		m.SetFloat(LevelWeightParam(i), w)
	}
	for i := len(weights); i < MaxLevels; i++ {
		m.ClearParam(LevelWeightParam(i))
	}
}

func accumulateKernel(s pipeline.Sampler, m material.Material, u, v float32) mgl32.Vec4 {
	scene := s.Sample(ParamTexture, u, v)
	n, _ := m.Float(ParamNumLevels)

	var bloom mgl32.Vec3
	for i := 0; i < int(n); i++ {
		w, _ := m.Float(LevelWeightParam(i))
		if w == 0 {
			continue
		}
		bloom = bloom.Add(s.Sample(LevelTextureParam(i), u, v).Vec3().Mul(w))
	}
	return mgl32.Vec4{scene[0] + bloom[0], scene[1] + bloom[1], scene[2] + bloom[2], scene[3]}
}

func packAccumulate(m material.Material) []byte {
	n, _ := m.Float(ParamNumLevels)
	params := material.GPUAccumulateParams{NumLevels: uint32(n)}
	for i := 0; i < int(n) && i < material.MaxAccumulateLevels; i++ {
		params.Weights[i], _ = m.Float(LevelWeightParam(i))
	}
	return params.Marshal()
}
