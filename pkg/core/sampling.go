package core

import (
	"math"
	"math/rand"
)

// Vec2 is a 2D point or sample pair
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// LengthSquared returns the squared distance from the origin
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// SamplePointInUnitDisk generates a random point in a unit disk using concentric mapping
// This avoids rejection sampling by mapping a square uniformly to a disk
func SamplePointInUnitDisk(sample Vec2) Vec2 {
	// Map sample to [-1,1]² and handle degeneracy at the origin
	uOffset := NewVec2(2*sample.X-1, 2*sample.Y-1)
	if uOffset.X == 0 && uOffset.Y == 0 {
		return NewVec2(0, 0)
	}

	// Apply concentric mapping to point
	var theta, r float64
	if math.Abs(uOffset.X) > math.Abs(uOffset.Y) {
		r = uOffset.X
		theta = math.Pi / 4 * (uOffset.Y / uOffset.X)
	} else {
		r = uOffset.Y
		theta = math.Pi/2 - math.Pi/4*(uOffset.X/uOffset.Y)
	}

	return NewVec2(r*math.Cos(theta), r*math.Sin(theta))
}

// DiskSample is a point in a disk of the requested radius and the number of rejected
// candidates drawn before it.
type DiskSample struct {
	Point    Vec2
	Rejected int
	Fallback bool // true when maxTries ran out and the concentric mapping was used
}

// SampleDiskRejection draws uniform points in [-radius, radius]² until one lands in the disk.
// After maxTries rejections it falls back to SamplePointInUnitDisk so it always terminates.
func SampleDiskRejection(sampler Sampler, radius float64, maxTries int) DiskSample {
	r2 := radius * radius
	for i := 0; i < maxTries; i++ {
		u := sampler.Get2D()
		p := NewVec2((2*u.X-1)*radius, (2*u.Y-1)*radius)
		if p.LengthSquared() <= r2 {
			return DiskSample{Point: p, Rejected: i}
		}
	}
	p := SamplePointInUnitDisk(sampler.Get2D())
	return DiskSample{Point: NewVec2(p.X*radius, p.Y*radius), Rejected: maxTries, Fallback: true}
}
