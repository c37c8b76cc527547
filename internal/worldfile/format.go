package worldfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wumpus/internal/world"
)

// Lines are tab separated and CRLF terminated. Parse accepts any whitespace.
const lineEnd = "\r\n"

// Parse reads a world file: width height, wumpus x y, gold x y, pit count,
// then one x y pair per pit. Tokens after the last pit are ignored.
func Parse(r io.Reader) (world.Layout, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	next := func(field string) (int, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("%w: read %s: %v", world.ErrMalformedLayout, field, err)
			}
			return 0, fmt.Errorf("%w: missing %s", world.ErrMalformedLayout, field)
		}
		v, err := strconv.Atoi(scanner.Text())
		if err != nil {
			return 0, fmt.Errorf("%w: %s %q is not an integer", world.ErrMalformedLayout, field, scanner.Text())
		}
		return v, nil
	}

	var layout world.Layout
	fields := []struct {
		name string
		dst  *int
	}{
		{"width", &layout.Width},
		{"height", &layout.Height},
		{"wumpus x", &layout.Wumpus.X},
		{"wumpus y", &layout.Wumpus.Y},
		{"gold x", &layout.Gold.X},
		{"gold y", &layout.Gold.Y},
	}
	for _, f := range fields {
		v, err := next(f.name)
		if err != nil {
			return world.Layout{}, err
		}
		*f.dst = v
	}
	if layout.Width < 1 || layout.Height < 1 {
		return world.Layout{}, fmt.Errorf("%w: dimensions must be >= 1, got %dx%d", world.ErrMalformedLayout, layout.Width, layout.Height)
	}

	count, err := next("pit count")
	if err != nil {
		return world.Layout{}, err
	}
	if count < 0 {
		return world.Layout{}, fmt.Errorf("%w: negative pit count %d", world.ErrMalformedLayout, count)
	}
	for i := 0; i < count; i++ {
		x, err := next(fmt.Sprintf("pit %d x", i))
		if err != nil {
			return world.Layout{}, err
		}
		y, err := next(fmt.Sprintf("pit %d y", i))
		if err != nil {
			return world.Layout{}, err
		}
		layout.Pits = append(layout.Pits, world.Position{X: x, Y: y})
	}
	return layout, nil
}

// Format writes layout in the world file format.
func Format(w io.Writer, layout world.Layout) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\t%d%s", layout.Width, layout.Height, lineEnd)
	fmt.Fprintf(bw, "%d\t%d%s", layout.Wumpus.X, layout.Wumpus.Y, lineEnd)
	fmt.Fprintf(bw, "%d\t%d%s", layout.Gold.X, layout.Gold.Y, lineEnd)
	fmt.Fprintf(bw, "%d%s", len(layout.Pits), lineEnd)
	for _, pit := range layout.Pits {
		fmt.Fprintf(bw, "%d\t%d%s", pit.X, pit.Y, lineEnd)
	}
	return bw.Flush()
}

func ReadFile(path string) (world.Layout, error) {
	if strings.TrimSpace(path) == "" {
		return world.Layout{}, fmt.Errorf("world file path is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return world.Layout{}, err
	}
	defer f.Close()

	layout, err := Parse(f)
	if err != nil {
		return world.Layout{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return layout, nil
}

func WriteFile(path string, layout world.Layout) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("world file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Format(f, layout); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a world file and builds its grid.
func Load(path string) (*world.Grid, error) {
	layout, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return world.FromLayout(layout)
}
