package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/optics"
)

// Spot is where rays from an on-axis object point land on the sensor at one wavelength
type Spot struct {
	Lambda    float64   // nm
	X, Y      []float64 // sensor positions, mm
	CentroidX float64
	CentroidY float64
	RMS       float64 // RMS distance from the centroid, mm
	Anomalies int     // rays with a non-finite landing point
}

// TraceSpots traces rays uniformly over the pupil of setup from the on-axis object point
// and collects their sensor positions per wavelength. The baked system is truncated to
// degree like the renderer's. Each wavelength gets its own random stream derived from seed.
func TraceSpots(setup *lens.Setup, lambdas []float64, rays, degree int, seed int64, maxTries int) ([]Spot, error) {
	if rays <= 0 {
		return nil, fmt.Errorf("spot diagram needs rays, got %d", rays)
	}
	spots := make([]Spot, 0, len(lambdas))
	in := make([]float64, optics.RayVars)
	out := make([]float64, setup.Spectral.Outputs())

	for i, lambda := range lambdas {
		baked, err := setup.Spectral.BakeInput(optics.VarLambda, lambda)
		if err != nil {
			return nil, err
		}
		system := baked.Truncate(degree)
		random, err := core.NewDerivedRand(seed, i)
		if err != nil {
			return nil, err
		}
		sampler := core.NewRandomSampler(random)

		spot := Spot{Lambda: lambda, X: make([]float64, 0, rays), Y: make([]float64, 0, rays)}
		for k := 0; k < rays; k++ {
			ap := core.SampleDiskRejection(sampler, setup.PupilRadius, maxTries)
			in[optics.VarX], in[optics.VarY] = 0, 0
			in[optics.VarDX], in[optics.VarDY] = ap.Point.X, ap.Point.Y
			system.Evaluate(in, out)
			if math.IsNaN(out[0]+out[1]) || math.IsInf(out[0]+out[1], 0) {
				spot.Anomalies++
				continue
			}
			spot.X = append(spot.X, out[0])
			spot.Y = append(spot.Y, out[1])
		}
		spot.measure()
		spots = append(spots, spot)
	}
	return spots, nil
}

func (s *Spot) measure() {
	if len(s.X) == 0 {
		return
	}
	s.CentroidX = stat.Mean(s.X, nil)
	s.CentroidY = stat.Mean(s.Y, nil)
	r2 := make([]float64, len(s.X))
	for k := range s.X {
		dx, dy := s.X[k]-s.CentroidX, s.Y[k]-s.CentroidY
		r2[k] = dx*dx + dy*dy
	}
	s.RMS = math.Sqrt(stat.Mean(r2, nil))
}
