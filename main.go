package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
	"github.com/df07/go-polynomial-optics/pkg/renderer"
	"github.com/df07/go-polynomial-optics/pkg/report"
)

// options are the command line settings that are not part of config.Render
type options struct {
	ConfigPath string
	Lens       string
	LensDir    string
	Input      string
	Output     string
	Preview    bool
	Exposure   float64
	Report     bool
	SpotRays   int
}

func main() {
	var opts options
	flag.StringVar(&opts.ConfigPath, "config", "", "JSON render settings; defaults are used when empty")
	flag.StringVar(&opts.Lens, "lens", "achromat", "Lens preset name, .lens file, or name of a file in -lenses")
	flag.StringVar(&opts.LensDir, "lenses", lens.DefaultDir, "Directory searched for .lens files")
	flag.StringVar(&opts.Input, "in", "", "Source image (PFM, PNG or JPEG); a point chart when empty")
	flag.StringVar(&opts.Output, "out", "", "Output PFM path (default output/<lens>/render_<timestamp>.pfm)")
	flag.BoolVar(&opts.Preview, "preview", true, "Also write a PNG preview next to the PFM")
	flag.Float64Var(&opts.Exposure, "exposure", 0, "Preview exposure; 0 picks one from the average luminance")
	flag.BoolVar(&opts.Report, "report", false, "Write chromatic focus charts and a spot diagram")
	flag.IntVar(&opts.SpotRays, "spot-rays", 2000, "Rays per wavelength in the spot diagram")
	flag.Int("degree", 3, "Truncation degree of the lens system")
	flag.Float64("samples", 1000, "Samples per unit of spectral power")
	flag.Int("lambdas", 12, "Number of wavelength passes")
	flag.Float64("pupil", 19.5, "Entrance pupil radius in mm (clamped to the lens aperture)")
	flag.Float64("defocus", 0, "Sensor offset from the back focus in mm")
	flag.Int("workers", 0, "Worker goroutines; 0 uses all CPUs")
	flag.Int64("seed", 42, "Random seed")
	flag.Int("width", 1920, "Sensor width in pixels")
	flag.Int("height", 1080, "Sensor height in pixels")
	list := flag.Bool("list", false, "List available lenses and exit")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Polynomial Optics Spectral Renderer")
		fmt.Println("Usage: polyoptics [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Flags given on the command line override the values of -config.")
		fmt.Println("Output will be saved to output/<lens>/render_<timestamp>.pfm")
		return
	}

	if *list {
		if err := listLenses(os.Stdout, opts.LensDir); err != nil {
			fmt.Printf("Error listing lenses: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		if flagErr == nil {
			flagErr = applyFlag(&cfg, f.Name, f.Value.String())
		}
	})
	if flagErr != nil {
		fmt.Printf("Error: %v\n", flagErr)
		os.Exit(1)
	}

	if err := run(context.Background(), opts, cfg, core.NewDefaultLogger()); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig returns the defaults, or the settings in path when one is given
func loadConfig(path string) (config.Render, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyFlag stores the value of an override flag in cfg. Flags that are not overrides
// are ignored.
func applyFlag(cfg *config.Render, name, value string) error {
	parseInt := func(dst *int) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid -%s %q: %w", name, value, config.ErrConfiguration)
		}
		*dst = v
		return nil
	}
	parseFloat := func(dst *float64) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid -%s %q: %w", name, value, config.ErrConfiguration)
		}
		*dst = v
		return nil
	}

	switch name {
	case "degree":
		return parseInt(&cfg.Degree)
	case "samples":
		return parseFloat(&cfg.SampleMul)
	case "lambdas":
		return parseInt(&cfg.NumLambdas)
	case "pupil":
		return parseFloat(&cfg.PupilRadius)
	case "defocus":
		return parseFloat(&cfg.Defocus)
	case "workers":
		return parseInt(&cfg.Workers)
	case "width":
		return parseInt(&cfg.SensorXRes)
	case "height":
		return parseInt(&cfg.SensorYRes)
	case "seed":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -seed %q: %w", value, config.ErrConfiguration)
		}
		cfg.Seed = v
	}
	return nil
}

// listLenses prints the presets and lens files with the glasses they use
func listLenses(w io.Writer, dir string) error {
	lenses, err := lens.ListAll(dir)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Available lenses:")
	for _, info := range lenses {
		line := fmt.Sprintf("  %-28s %s", info.ID, info.DisplayName)
		if info.FilePath != "" {
			line += fmt.Sprintf(" (%s)", info.FilePath)
		}
		fmt.Fprintln(w, line)
		if info.Description != "" {
			fmt.Fprintf(w, "  %-28s %s\n", "", info.Description)
		}

		p, err := lens.Load(info.ID, dir)
		if err != nil {
			fmt.Fprintf(w, "  %-28s unreadable: %v\n", "", err)
			continue
		}
		glasses, err := p.Glasses()
		if err != nil {
			fmt.Fprintf(w, "  %-28s unreadable: %v\n", "", err)
			continue
		}
		var parts []string
		for _, g := range glasses {
			parts = append(parts, fmt.Sprintf("%s (V=%.1f)", g.Name, g.Abbe))
		}
		fmt.Fprintf(w, "  %-28s glass: %s\n", "", strings.Join(parts, ", "))
	}
	return nil
}

// createOutputDir returns the output directory for a lens, e.g. output/achromat-nt32-921
func createOutputDir(lensName string) string {
	base := filepath.Base(lensName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(strings.Join(strings.Fields(base), "-"))
	if base == "" || base == "." {
		base = "lens"
	}
	return filepath.Join("output", base)
}

// loadSource reads the source image, or builds a point chart with the sensor's aspect ratio
func loadSource(path string, cfg config.Render) (*loaders.ImageData, error) {
	if path != "" {
		return loaders.LoadImage(path)
	}
	width := 256
	height := max(1, width*cfg.SensorYRes/cfg.SensorXRes)
	return loaders.NewPointChart(width, height, 16), nil
}

// outputPaths derives the preview and report paths from the PFM path
type outputPaths struct {
	PFM, Preview, Charts, Spots, Focus string
}

func newOutputPaths(pfm string) outputPaths {
	base := strings.TrimSuffix(pfm, filepath.Ext(pfm))
	return outputPaths{
		PFM:     pfm,
		Preview: base + ".png",
		Charts:  base + "_report.html",
		Spots:   base + "_spots.png",
		Focus:   base + "_focus.png",
	}
}

// run renders the source through the lens and writes the results
func run(ctx context.Context, opts options, cfg config.Render, logger core.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prescription, err := lens.Load(opts.Lens, opts.LensDir)
	if err != nil {
		return err
	}
	source, err := loadSource(opts.Input, cfg)
	if err != nil {
		return err
	}

	setup, err := lens.Pipeline(prescription, cfg, logger)
	if err != nil {
		return err
	}
	cfg.PupilRadius = setup.PupilRadius

	paths := newOutputPaths(opts.Output)
	if opts.Output == "" {
		dir := createOutputDir(opts.Lens)
		timestamp := time.Now().Format("20060102_150405")
		paths = newOutputPaths(filepath.Join(dir, fmt.Sprintf("render_%s.pfm", timestamp)))
	}
	if err := os.MkdirAll(filepath.Dir(paths.PFM), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	sr, err := renderer.NewSpectralRenderer(setup.Lambert, setup.Magnification, cfg, logger)
	if err != nil {
		return err
	}

	// cancelled on return so an early error also stops the render goroutine
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	startTime := time.Now()
	passChan, errChan := sr.RenderProgressive(ctx, source)
	var last *renderer.PassResult
	for result := range passChan {
		last = &result
		if opts.Preview {
			if err := loaders.SavePNG(paths.Preview, result.Image); err != nil {
				cancel()
				for range passChan {
				}
				return err
			}
		}
	}
	if err := <-errChan; err != nil {
		return err
	}
	if last == nil {
		return fmt.Errorf("render produced no passes")
	}

	stats := last.Stats
	logger.Printf("Render completed in %v\n", time.Since(startTime))
	logger.Printf("Samples per pixel: %.1f (range %d - %d), %d off sensor, %d anomalies\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, stats.OffSensor, stats.NumericAnomalies)

	if err := loaders.SavePFM(paths.PFM, last.Film.Image()); err != nil {
		return err
	}
	logger.Printf("Render saved as %s\n", paths.PFM)
	if opts.Preview {
		exposure := renderer.ExposureFor(last.Film, opts.Exposure)
		if err := loaders.SavePNG(paths.Preview, last.Film.ToRGBA(exposure)); err != nil {
			return err
		}
		logger.Printf("Preview saved as %s (exposure %.3g)\n", paths.Preview, exposure)
	}

	if opts.Report {
		return writeReport(prescription, setup, cfg, opts.SpotRays, paths, logger)
	}
	return nil
}

func writeReport(p *lens.Prescription, setup *lens.Setup, cfg config.Render, rays int, paths outputPaths, logger core.Logger) error {
	lambdas := cfg.Wavelengths()
	focus, err := report.ChromaticFocus(p, cfg.Degree, setup.Axis, lambdas)
	if err != nil {
		return err
	}
	spots, err := report.TraceSpots(setup, lambdas, rays, cfg.Degree, cfg.Seed, cfg.MaxApertureTries)
	if err != nil {
		return err
	}

	if err := report.SaveCharts(paths.Charts, p.Name, focus, spots); err != nil {
		return err
	}
	if err := report.SpotDiagram(paths.Spots, p.Name, spots); err != nil {
		return err
	}
	if err := report.FocusPlot(paths.Focus, p.Name, focus); err != nil {
		return err
	}

	shortest, longest := report.FocusSpread(focus)
	logger.Printf("Focal spread %.1f µm over %.0f - %.0f nm (%v axis)\n",
		1000*(longest.BackFocus-shortest.BackFocus), shortest.Lambda, longest.Lambda, setup.Axis)
	logger.Printf("Report saved as %s, %s and %s\n", paths.Charts, paths.Spots, paths.Focus)
	return nil
}
