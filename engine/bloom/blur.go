package bloom

import (
	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// Material parameter names read by the blur passes.
const (
	ParamSize  = "Size"
	ParamScale = "Scale"
)

// blurScale is the tap spacing in texels.
const blurScale = 0.5

var blurWeights = [9]float32{0.06, 0.09, 0.12, 0.15, 0.16, 0.15, 0.12, 0.09, 0.06}

// bindBlur sets the blur source and its extent along the blur axis.
func bindBlur(m material.Material, src *common.Texture, horizontal bool) {
	m.SetTexture(ParamTexture, src)
	if horizontal {
		m.SetFloat(ParamSize, float32(src.Width))
	} else {
		m.SetFloat(ParamSize, float32(src.Height))
	}
	m.SetFloat(ParamScale, blurScale)
}

func blurKernel(horizontal bool) pipeline.Kernel {
	return func(s pipeline.Sampler, m material.Material, u, v float32) mgl32.Vec4 {
		size, _ := m.Float(ParamSize)
		scale, _ := m.Float(ParamScale)
		step := scale / size

		var color mgl32.Vec4
		for k := -4; k <= 4; k++ {
			off := float32(k) * step
			var tap mgl32.Vec4
			if horizontal {
				tap = s.Sample(ParamTexture, u+off, v)
			} else {
				tap = s.Sample(ParamTexture, u, v+off)
			}
			color = color.Add(tap.Mul(blurWeights[k+4]))
		}
		return color
	}
}

func packBlur(m material.Material) []byte {
	size, _ := m.Float(ParamSize)
	scale, _ := m.Float(ParamScale)
	params := material.GPUBlurParams{Extent: size, Scale: scale}
	return params.Marshal()
}
