package lens

import (
	"errors"
	"fmt"
	"time"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/optics"
	"github.com/df07/go-polynomial-optics/pkg/poly"
)

// Setup is everything the renderer needs from a lens
type Setup struct {
	Axis          optics.Axis // axis the focus was found in
	Focus         float64     // back focal distance at the focus wavelength, mm
	Magnification float64     // object to sensor scale at focus
	PupilRadius   float64     // entrance aperture actually sampled, mm

	Spectral poly.Transform // 5 -> 4: (x, y, xa, ya, lambda) -> sensor ray
	Lambert  poly.Transform // 5 -> 3: sensor position and sin^2 of the exit angle
}

// Pipeline focuses the lens at cfg.FocusLambda, places the sensor at the focus plus
// cfg.Defocus, and builds the spectral and Lambert systems from cfg.AnchorA and cfg.AnchorB.
func Pipeline(p *Prescription, cfg config.Render, logger core.Logger) (*Setup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	system, err := p.System(cfg.FocusLambda, cfg.Degree)
	if err != nil {
		return nil, err
	}

	// cylindrical lenses only have power in one axis
	axis := optics.AxisX
	if _, err := p.Paraxial(cfg.FocusLambda, axis); errors.Is(err, optics.ErrDegenerateSystem) {
		axis = optics.AxisY
	}
	focus, err := optics.FindFocus(system, axis)
	if err != nil {
		return nil, fmt.Errorf("lens %q: %w", p.Name, err)
	}
	if !(focus > 0) {
		return nil, fmt.Errorf("lens %q: no real image, focus at %g: %w", p.Name, focus, optics.ErrDegenerateSystem)
	}

	toFocus, err := optics.Propagate(focus, cfg.Degree)
	if err != nil {
		return nil, err
	}
	focused, err := system.Compose(toFocus)
	if err != nil {
		return nil, err
	}
	mag, err := optics.Magnification(focused, axis)
	if err != nil {
		return nil, fmt.Errorf("lens %q: %w", p.Name, err)
	}

	toSensor, err := optics.Propagate(focus+cfg.Defocus, cfg.Degree)
	if err != nil {
		return nil, err
	}
	build := func(lambda float64) (poly.Transform, error) {
		return p.System(lambda, cfg.Degree)
	}
	spectral, err := optics.SpectralSystem(build, cfg.AnchorA, cfg.AnchorB, toSensor)
	if err != nil {
		return nil, err
	}
	lambert, err := optics.LambertSystem(spectral, cfg.LambertDegree)
	if err != nil {
		return nil, err
	}

	pupil := cfg.PupilRadius
	if p.PupilRadius > 0 && p.PupilRadius < pupil {
		pupil = p.PupilRadius
	}

	logger.Printf("Lens %q: focus %.4f mm (%v) at %g nm, magnification %.6g, pupil %g mm\n",
		p.Name, focus, axis, cfg.FocusLambda, mag, pupil)
	logger.Printf("Spectral system %d terms, Lambert system %d terms, built in %v\n",
		spectral.TermCount(), lambert.TermCount(), time.Since(start))

	return &Setup{
		Axis:          axis,
		Focus:         focus,
		Magnification: mag,
		PupilRadius:   pupil,
		Spectral:      spectral,
		Lambert:       lambert,
	}, nil
}
