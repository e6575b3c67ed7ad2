package renderer

import (
	"math"
	"math/rand"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
	"github.com/df07/go-polynomial-optics/pkg/optics"
	"github.com/df07/go-polynomial-optics/pkg/poly"
	"github.com/df07/go-polynomial-optics/pkg/spectrum"
)

// Band is a horizontal strip of source rows [Y0, Y1) rendered as one task
type Band struct {
	ID     int
	Y0, Y1 int
}

// NewBandGrid splits height rows into bands of at most bandHeight rows
func NewBandGrid(height, bandHeight int) []Band {
	var bands []Band
	for y0 := 0; y0 < height; y0 += bandHeight {
		bands = append(bands, Band{ID: len(bands), Y0: y0, Y1: min(y0+bandHeight, height)})
	}
	return bands
}

// passSetup is the read-only state of one wavelength pass shared by all workers
type passSetup struct {
	index  int            // 1-based pass number
	lambda float64        // nm
	system poly.Transform // (x, y, xa, ya) -> (sensor x, sensor y, sin^2 exit angle)
	weight core.RGB       // colour of unit spectral power at lambda
}

// bandRenderer traces the rays of one band into a film owned by a single worker
type bandRenderer struct {
	config        config.Render
	source        *loaders.ImageData
	magnification float64
	pupil         float64
	film          *Film
	in, out       []float64
}

func newBandRenderer(source *loaders.ImageData, magnification float64, cfg config.Render) *bandRenderer {
	return &bandRenderer{
		config:        cfg,
		source:        source,
		magnification: magnification,
		pupil:         cfg.PupilRadius,
		film:          NewFilm(cfg.SensorXRes, cfg.SensorYRes),
		in:            make([]float64, 3),
		out:           make([]float64, 3),
	}
}

// renderBand traces every source pixel of the band at the pass wavelength. Each row bakes its
// object height into the system; each ray jitters x within the pixel footprint and samples
// the pupil by rejection.
func (r *bandRenderer) renderBand(pass *passSetup, band Band, random *rand.Rand) (RenderStats, error) {
	stats := newRenderStats()
	sampler := core.NewRandomSampler(random)

	width, height := float64(r.source.Width), float64(r.source.Height)
	sensorWidth := r.config.SensorWidth
	pixelSize := sensorWidth / width / r.magnification
	scale := r.config.SensorScale()
	cx, cy := float64(r.config.SensorXRes)/2, float64(r.config.SensorYRes)/2

	for j := band.Y0; j < band.Y1; j++ {
		ySensor := (float64(j) - height/2) / width * sensorWidth
		row, err := pass.system.BakeInput(optics.VarY, ySensor/r.magnification)
		if err != nil {
			return stats, err
		}

		for i := 0; i < r.source.Width; i++ {
			xWorld := (float64(i)/width - 0.5) * sensorWidth / r.magnification
			power := spectrum.RGBToSpectralPower(pass.lambda, r.source.Bilinear(float64(i), float64(j)))
			n := max(1, int(power*r.config.SampleMul))
			splat := pass.weight.Multiply(power / float64(n))

			for s := 0; s < n; s++ {
				aperture := core.SampleDiskRejection(sampler, r.pupil, r.config.MaxApertureTries)
				stats.ApertureRejections += aperture.Rejected
				if aperture.Fallback {
					stats.ApertureFallbacks++
				}

				r.in[0] = xWorld + pixelSize*(sampler.Get1D()-0.5)
				r.in[1], r.in[2] = aperture.Point.X, aperture.Point.Y
				row.Evaluate(r.in, r.out)

				lambert := math.Sqrt(1 - r.out[2])
				if !finite(r.out[0]) || !finite(r.out[1]) || math.IsNaN(lambert) {
					stats.NumericAnomalies++
					continue
				}
				if !r.film.AddBilinear(r.out[0]*scale+cx, r.out[1]*scale+cy, splat.Multiply(lambert)) {
					stats.OffSensor++
				}
			}
			stats.addPixel(n)
		}
	}
	return stats, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
