package loaders

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const achromatLens = `# Edmund Optics NT32-921
name "Achromat 25mm"
object 5e6
pupil 19.5

surface spherical radius=65.22 thickness=9.60 material=N-SSK8
surface spherical radius=-62.03 thickness=4.20 material=N-SF10
surface spherical radius=-1240.67 material=air   # back surface
`

func TestParseLens(t *testing.T) {
	lens, err := ParseLens(strings.NewReader(achromatLens))
	if err != nil {
		t.Fatalf("ParseLens: %v", err)
	}

	if lens.Name != "Achromat 25mm" {
		t.Errorf("Name = %q", lens.Name)
	}
	if lens.ObjectDistance != 5e6 || lens.PupilRadius != 19.5 {
		t.Errorf("Object %g, pupil %g", lens.ObjectDistance, lens.PupilRadius)
	}
	if len(lens.Surfaces) != 3 {
		t.Fatalf("Expected 3 surfaces, got %d", len(lens.Surfaces))
	}

	want := []SurfaceStatement{
		{Kind: "spherical", Radius: 65.22, Thickness: 9.6, Material: "N-SSK8", Line: 6},
		{Kind: "spherical", Radius: -62.03, Thickness: 4.2, Material: "N-SF10", Line: 7},
		{Kind: "spherical", Radius: -1240.67, Thickness: 0, Material: "air", Line: 8},
	}
	for i, w := range want {
		if lens.Surfaces[i] != w {
			t.Errorf("Surface %d = %+v, expected %+v", i, lens.Surfaces[i], w)
		}
	}
}

func TestParseLens_Defaults(t *testing.T) {
	lens, err := ParseLens(strings.NewReader("surface flat thickness=3\nsurface cylindrical-x radius=inf material=F2\n"))
	if err != nil {
		t.Fatalf("ParseLens: %v", err)
	}
	flat := lens.Surfaces[0]
	if !math.IsInf(flat.Radius, 1) || flat.Material != "air" || flat.Thickness != 3 {
		t.Errorf("Unexpected flat surface %+v", flat)
	}
	if cyl := lens.Surfaces[1]; cyl.Kind != "cylindrical-x" || !math.IsInf(cyl.Radius, 1) {
		t.Errorf("Unexpected cylinder %+v", cyl)
	}
}

func TestParseLens_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  string
	}{
		{"unknown statement", "aperture 3\n", "line 1"},
		{"bad number", "object far\n", "line 1"},
		{"unknown kind", "\nsurface aspheric radius=3\n", "line 2"},
		{"missing radius", "surface spherical thickness=1\n", "line 1"},
		{"bad parameter", "surface flat colour=red\n", "line 1"},
		{"no key value", "surface flat thick\n", "line 1"},
		{"no surfaces", "name empty\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLens(strings.NewReader(tt.input))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("Expected ErrInvalidFormat, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("Expected %q in %v", tt.line, err)
			}
		})
	}
}

func TestLoadLens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "achromat.lens")
	if err := os.WriteFile(path, []byte(achromatLens), 0o644); err != nil {
		t.Fatal(err)
	}
	lens, err := LoadLens(path)
	if err != nil {
		t.Fatalf("LoadLens: %v", err)
	}
	if len(lens.Surfaces) != 3 {
		t.Errorf("Expected 3 surfaces, got %d", len(lens.Surfaces))
	}
	if _, err := LoadLens(filepath.Join(t.TempDir(), "missing.lens")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
