package worldfile

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wumpus/internal/world"
)

type GenerateOptions struct {
	Dir    string
	Base   string
	Count  int
	Width  int
	Height int
}

// Generate writes Count random worlds named <Base>_<i>.txt into Dir and
// returns their paths in index order.
func Generate(opts GenerateOptions, rng *rand.Rand) ([]string, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.Count < 0 {
		return nil, fmt.Errorf("world count must be >= 0, got %d", opts.Count)
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}
	base := strings.TrimSpace(opts.Base)
	if base == "" {
		base = "world"
	}
	width, height := opts.Width, opts.Height
	if width == 0 {
		width = world.DefaultWidth
	}
	if height == 0 {
		height = world.DefaultHeight
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		layout, err := world.RandomLayout(width, height, rng)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(opts.Dir, fmt.Sprintf("%s_%d.txt", base, i))
		if err := WriteFile(path, layout); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ListDir returns the regular files in dir, skipping dot files, sorted by name.
func ListDir(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("world directory is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") || !entry.Type().IsRegular() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}
