package renderer

import "testing"

func TestRenderStats_Merge(t *testing.T) {
	a := newRenderStats()
	a.addPixel(4)
	a.addPixel(10)
	a.NumericAnomalies = 1

	b := newRenderStats()
	b.addPixel(2)
	b.ApertureRejections = 7
	b.OffSensor = 3

	a.merge(b)
	a.finalize()

	if a.TotalPixels != 3 || a.TotalSamples != 16 {
		t.Errorf("Expected 3 pixels and 16 samples, got %d and %d", a.TotalPixels, a.TotalSamples)
	}
	if a.MinSamples != 2 || a.MaxSamplesUsed != 10 {
		t.Errorf("Expected sample range 2 - 10, got %d - %d", a.MinSamples, a.MaxSamplesUsed)
	}
	if a.AverageSamples < 5.333 || a.AverageSamples > 5.334 {
		t.Errorf("Expected average 5.333, got %f", a.AverageSamples)
	}
	if a.NumericAnomalies != 1 || a.ApertureRejections != 7 || a.OffSensor != 3 {
		t.Errorf("Counters not merged: %+v", a)
	}
}

func TestRenderStats_Empty(t *testing.T) {
	s := newRenderStats()
	s.finalize()
	if s.MinSamples != 0 || s.AverageSamples != 0 {
		t.Errorf("Empty stats should be zero, got %+v", s)
	}
}
