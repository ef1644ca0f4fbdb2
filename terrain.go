package server

import "math"

// Terrain answers height queries for the fixed world extent. Implementations
// must be pure: the same (x, z) always yields the same elevation for the
// lifetime of a room.
type Terrain interface {
	HeightAt(x, z float64) float64
}

// TerrainFunc adapts a plain function to the Terrain interface.
type TerrainFunc func(x, z float64) float64

func (f TerrainFunc) HeightAt(x, z float64) float64 {
	return f(x, z)
}

// heightField is the default terrain collaborator: layered value noise seeded
// from the room seed. It owns no mutable state, so queries are safe from any
// goroutine.
type heightField struct {
	seed int64
}

func newHeightField(seed int64) *heightField {
	return &heightField{seed: seed}
}

func (h *heightField) HeightAt(x, z float64) float64 {
	height := 0.0
	amplitude := 6.0
	frequency := 1.0 / 48.0
	for octave := 0; octave < 3; octave++ {
		height += h.valueNoise(x*frequency, z*frequency) * amplitude
		amplitude *= 0.5
		frequency *= 2
	}
	return height
}

// valueNoise interpolates hashed lattice values with smoothstep weights.
func (h *heightField) valueNoise(x, z float64) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	tx := smoothstep(x - x0)
	tz := smoothstep(z - z0)

	v00 := h.lattice(int64(x0), int64(z0))
	v10 := h.lattice(int64(x0)+1, int64(z0))
	v01 := h.lattice(int64(x0), int64(z0)+1)
	v11 := h.lattice(int64(x0)+1, int64(z0)+1)

	top := v00 + (v10-v00)*tx
	bottom := v01 + (v11-v01)*tx
	return top + (bottom-top)*tz
}

func (h *heightField) lattice(x, z int64) float64 {
	n := uint64(x)*0x9e3779b97f4a7c15 ^ uint64(z)*0xc2b2ae3d27d4eb4f ^ uint64(h.seed)
	n ^= n >> 33
	n *= 0xff51afd7ed558ccd
	n ^= n >> 33
	return float64(n%2048)/1024 - 1
}

func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}
