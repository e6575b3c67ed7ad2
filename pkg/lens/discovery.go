package lens

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-polynomial-optics/pkg/loaders"
)

// DefaultDir is where lens files are looked up by name
const DefaultDir = "lenses"

// LensInfo describes an available lens
type LensInfo struct {
	ID          string `json:"id"`          // name accepted by Load
	DisplayName string `json:"displayName"` // human readable name
	Description string `json:"description"` // optional description
	Type        string `json:"type"`        // "preset" or "file"
	FilePath    string `json:"filePath"`    // lens file path (file type only)
}

// ListLensFiles scans dir for *.lens files. A missing directory yields an empty list.
func ListLensFiles(dir string) ([]LensInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []LensInfo{}, nil
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.lens"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan lens directory: %v", err)
	}

	lenses := []LensInfo{}
	for _, path := range files {
		info, err := ParseLensMetadata(path)
		if err != nil {
			return nil, err
		}
		lenses = append(lenses, info)
	}

	sort.Slice(lenses, func(i, j int) bool {
		return lenses[i].DisplayName < lenses[j].DisplayName
	})
	return lenses, nil
}

// ParseLensMetadata reads the "# Lens:" and "# Description:" header comments of a lens file.
// The file name stands in for a missing name.
func ParseLensMetadata(path string) (LensInfo, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := LensInfo{
		ID:          id,
		DisplayName: titleCase(id),
		Type:        "file",
		FilePath:    path,
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("failed to open lens file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}
		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if v, ok := strings.CutPrefix(content, "Lens:"); ok {
			info.DisplayName = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(content, "Description:"); ok {
			info.Description = strings.TrimSpace(v)
		}
	}
	return info, scanner.Err()
}

// ListAll returns the presets followed by the lens files in dir
func ListAll(dir string) ([]LensInfo, error) {
	var all []LensInfo
	for _, name := range PresetNames() {
		p, _ := Preset(name)
		all = append(all, LensInfo{ID: name, DisplayName: p.Name, Type: "preset"})
	}
	files, err := ListLensFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list lens files: %w", err)
	}
	return append(all, files...), nil
}

// Load resolves a preset name, a path to a lens file, or the name of a file in dir.
func Load(name, dir string) (*Prescription, error) {
	if p, ok := Preset(name); ok {
		return p, nil
	}

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, filepath.Join(dir, name+".lens"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		file, err := loaders.LoadLens(path)
		if err != nil {
			return nil, err
		}
		p, err := FromFile(file)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if p.Name == "" {
			p.Name = titleCase(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
		}
		return p, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownLens)
}

// titleCase converts a file name to title case, e.g. "achromat-nt32" -> "Achromat Nt32"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}
