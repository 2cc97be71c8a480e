package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/zeebo/xxh3"

	"github.com/funvibe/flowcheck/internal/config"
)

// Unit is one input file holding a YAML-encoded syntax tree.
type Unit struct {
	Path string
	Data []byte
}

// Hash returns the hex xxh3 digest of the unit content.
func (u Unit) Hash() string {
	return fmt.Sprintf("%016x", xxh3.Hash(u.Data))
}

// LoadUnits reads the given files. Directories are walked for unit
// files; the result is sorted by path.
func LoadUnits(paths []string) ([]Unit, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("loading units: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isUnitFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)
	files = slices.Compact(files)

	units := make([]Unit, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading unit %s: %w", f, err)
		}
		units = append(units, Unit{Path: f, Data: data})
	}
	return units, nil
}

func isUnitFile(path string) bool {
	return slices.Contains(config.UnitFileExtensions, filepath.Ext(path))
}
