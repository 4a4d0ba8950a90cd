package software

import (
	"math"

	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/pipeline"
	"github.com/go-gl/mathgl/mgl32"
)

// snapEpsilon absorbs float error in texel-center coordinates so that sampling exactly at a
// texel center returns that texel unfiltered.
const snapEpsilon = 1e-6

// materialSampler resolves the textures bound on a material to device surfaces and filters
// them bilinearly with clamp-to-edge addressing.
type materialSampler struct {
	surfaces map[string]*surface
}

var _ pipeline.Sampler = &materialSampler{}

func (d *device) newSampler(m material.Material) *materialSampler {
	s := &materialSampler{surfaces: make(map[string]*surface)}
	if m == nil {
		return s
	}
	for _, p := range m.Params() {
		if p.Type != material.ParamTexture || p.Texture == nil {
			continue
		}
		if surf, ok := d.textures[p.Texture.ID]; ok {
			s.surfaces[p.Name] = surf
		}
	}
	return s
}

func (s *materialSampler) Sample(name string, u, v float32) mgl32.Vec4 {
	surf, ok := s.surfaces[name]
	if !ok {
		return mgl32.Vec4{}
	}
	return surf.bilinear(u, v)
}

func (s *surface) bilinear(u, v float32) mgl32.Vec4 {
	x0, x1, fx := axis(float64(u), s.width)
	y0, y1, fy := axis(float64(v), s.height)

	c00 := s.texel(x0, y0)
	c10 := s.texel(x1, y0)
	c01 := s.texel(x0, y1)
	c11 := s.texel(x1, y1)

	var out mgl32.Vec4
	for i := range out {
		top := float64(c00[i])*(1-fx) + float64(c10[i])*fx
		bottom := float64(c01[i])*(1-fx) + float64(c11[i])*fx
		out[i] = float32(top*(1-fy) + bottom*fy)
	}
	return out
}

// axis maps a normalized coordinate to the two neighboring texel indices along one axis and
// the blend factor between them.
func axis(t float64, size int) (int, int, float64) {
	x := t*float64(size) - 0.5
	base := math.Floor(x)
	f := x - base
	if f < snapEpsilon {
		f = 0
	} else if f > 1-snapEpsilon {
		base++
		f = 0
	}
	i0 := clampIndex(int(base), size)
	i1 := clampIndex(int(base)+1, size)
	return i0, i1, f
}

func clampIndex(i, size int) int {
	if i < 0 {
		return 0
	}
	if i >= size {
		return size - 1
	}
	return i
}
