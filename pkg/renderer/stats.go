package renderer

import "math"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels    int     // Source pixels visited
	TotalSamples   int     // Total number of rays traced
	AverageSamples float64 // Average rays per source pixel
	MinSamples     int     // Fewest rays spent on a source pixel
	MaxSamplesUsed int     // Most rays spent on a source pixel

	ApertureRejections int // Pupil candidates rejected outside the disk
	ApertureFallbacks  int // Pupil samples that hit the rejection cap
	NumericAnomalies   int // Samples with NaN output or a negative cosine argument
	OffSensor          int // Samples that missed the sensor entirely
}

func newRenderStats() RenderStats {
	return RenderStats{MinSamples: math.MaxInt}
}

// addPixel records the rays traced for one source pixel
func (s *RenderStats) addPixel(samples int) {
	s.TotalPixels++
	s.TotalSamples += samples
	s.MinSamples = min(s.MinSamples, samples)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, samples)
}

// merge folds the statistics of another band or pass into s
func (s *RenderStats) merge(o RenderStats) {
	s.TotalPixels += o.TotalPixels
	s.TotalSamples += o.TotalSamples
	s.MinSamples = min(s.MinSamples, o.MinSamples)
	s.MaxSamplesUsed = max(s.MaxSamplesUsed, o.MaxSamplesUsed)
	s.ApertureRejections += o.ApertureRejections
	s.ApertureFallbacks += o.ApertureFallbacks
	s.NumericAnomalies += o.NumericAnomalies
	s.OffSensor += o.OffSensor
}

// finalize derives the averages once all pixels are in
func (s *RenderStats) finalize() {
	if s.TotalPixels == 0 {
		s.MinSamples = 0
		return
	}
	s.AverageSamples = float64(s.TotalSamples) / float64(s.TotalPixels)
}
