package renderer

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
	"github.com/df07/go-polynomial-optics/pkg/optics"
	"github.com/df07/go-polynomial-optics/pkg/poly"
	"github.com/df07/go-polynomial-optics/pkg/spectrum"
)

// SpectralRenderer renders a source image through a lens one wavelength per pass. The
// system is the 5 -> 3 Lambert system: inputs (x, y, xa, ya, lambda) in object and pupil
// coordinates, outputs sensor (x, y) in mm and the squared sine of the exit angle.
type SpectralRenderer struct {
	system        poly.Transform
	magnification float64
	config        config.Render
	lambdas       []float64
	weights       []core.RGB
	logger        core.Logger
}

// NewSpectralRenderer validates the settings and prepares the wavelength schedule
func NewSpectralRenderer(system poly.Transform, magnification float64, cfg config.Render, logger core.Logger) (*SpectralRenderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if system.Inputs() != optics.RayVars+1 || system.Outputs() != 3 {
		return nil, fmt.Errorf("render system is %d -> %d, expected 5 -> 3: %w", system.Inputs(), system.Outputs(), poly.ErrArity)
	}
	if magnification == 0 || !finite(magnification) {
		return nil, fmt.Errorf("magnification %g: %w", magnification, optics.ErrDegenerateSystem)
	}

	lambdas := cfg.Wavelengths()
	return &SpectralRenderer{
		system:        system,
		magnification: magnification,
		config:        cfg,
		lambdas:       lambdas,
		weights:       spectrum.Weights(lambdas),
		logger:        logger,
	}, nil
}

// Wavelengths returns the wavelength of each pass in order
func (sr *SpectralRenderer) Wavelengths() []float64 {
	return sr.lambdas
}

// PassResult contains the result of a single wavelength pass
type PassResult struct {
	PassNumber  int
	TotalPasses int
	Lambda      float64     // nm
	Film        *Film       // all passes so far, gamut repaired
	Image       *image.RGBA // preview at automatic exposure
	Stats       RenderStats // cumulative over all passes so far
	IsLast      bool
}

// RenderProgressive renders with channel-based communication (idiomatic Go)
// Returns channels for events. The caller should read from these channels in separate goroutines.
func (sr *SpectralRenderer) RenderProgressive(ctx context.Context, source *loaders.ImageData) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	if source == nil || source.Width == 0 || source.Height == 0 {
		errChan <- fmt.Errorf("empty source image: %w", config.ErrConfiguration)
		close(passChan)
		close(errChan)
		return passChan, errChan
	}

	bands := NewBandGrid(source.Height, sr.config.BandHeight)
	workerPool := NewWorkerPool(source, sr.magnification, sr.config, len(bands))
	workerPool.Start()

	go func() {
		defer close(passChan)
		defer close(errChan)
		defer workerPool.Stop()

		sr.logger.Printf("Starting spectral rendering: %dx%d source, %d wavelengths, %d bands, %d workers...\n",
			source.Width, source.Height, len(sr.lambdas), len(bands), workerPool.GetNumWorkers())

		total := newRenderStats()
		for pass := 1; pass <= len(sr.lambdas); pass++ {
			// Check if client disconnected before starting this pass
			select {
			case <-ctx.Done():
				sr.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			startTime := time.Now()
			stats, err := sr.renderPass(ctx, workerPool, bands, pass)
			if err != nil {
				errChan <- err
				return
			}
			total.merge(stats)

			sr.logger.Printf("Pass %d/%d (%.1f nm) completed in %v: %d rays\n",
				pass, len(sr.lambdas), sr.lambdas[pass-1], time.Since(startTime), stats.TotalSamples)
			if stats.NumericAnomalies > 0 || stats.ApertureFallbacks > 0 {
				sr.logger.Printf("Pass %d: %d numeric anomalies, %d aperture fallbacks\n",
					pass, stats.NumericAnomalies, stats.ApertureFallbacks)
			}

			film := workerPool.Composite()
			film.GamutRepair(sr.config.GamutFloor)
			snapshot := total
			snapshot.finalize()

			result := PassResult{
				PassNumber:  pass,
				TotalPasses: len(sr.lambdas),
				Lambda:      sr.lambdas[pass-1],
				Film:        film,
				Image:       film.ToRGBA(film.AutoExposure()),
				Stats:       snapshot,
				IsLast:      pass == len(sr.lambdas),
			}

			select {
			case passChan <- result:
			case <-ctx.Done():
				sr.logger.Printf("Rendering cancelled after pass %d\n", pass)
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return passChan, errChan
}

// renderPass bakes the pass wavelength into the system and renders every band
func (sr *SpectralRenderer) renderPass(ctx context.Context, workerPool *WorkerPool, bands []Band, pass int) (RenderStats, error) {
	lambda := sr.lambdas[pass-1]
	baked, err := sr.system.BakeInput(optics.VarLambda, lambda)
	if err != nil {
		return RenderStats{}, err
	}
	setup := &passSetup{
		index:  pass,
		lambda: lambda,
		system: baked.Truncate(sr.config.Degree),
		weight: sr.weights[pass-1],
	}

	for id, band := range bands {
		workerPool.SubmitTask(BandTask{Ctx: ctx, Band: band, Pass: setup, TaskID: id})
	}

	// All results are drained so the pool is idle when the pass returns
	stats := newRenderStats()
	var firstErr error
	for range bands {
		result, ok := workerPool.GetResult()
		if !ok {
			return stats, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		stats.merge(result.Stats)
	}
	return stats, firstErr
}

// Render runs all passes and returns the final film and statistics
func (sr *SpectralRenderer) Render(ctx context.Context, source *loaders.ImageData) (*Film, RenderStats, error) {
	passChan, errChan := sr.RenderProgressive(ctx, source)

	var last *PassResult
	for result := range passChan {
		last = &result
	}
	if err := <-errChan; err != nil {
		return nil, RenderStats{}, err
	}
	if last == nil {
		return nil, RenderStats{}, fmt.Errorf("render produced no passes")
	}
	return last.Film, last.Stats, nil
}

// ExposureFor returns exposure if it is positive, otherwise the film's automatic exposure
func ExposureFor(film *Film, exposure float64) float64 {
	if exposure > 0 && !math.IsInf(exposure, 1) {
		return exposure
	}
	return film.AutoExposure()
}
