package build

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutputOverlap reports an output directory that would delete source files when cleaned.
var ErrOutputOverlap = errors.New("output directory overlaps a source directory")

// CheckOutputDir fails when out is the same as, inside, or a parent of any of
// the source directories. Empty source entries are ignored.
func CheckOutputDir(out string, sources ...string) error {
	outAbs, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", out, err)
	}
	for _, src := range sources {
		if src == "" {
			continue
		}
		srcAbs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", src, err)
		}
		if within(outAbs, srcAbs) || within(srcAbs, outAbs) {
			return fmt.Errorf("%w: %s and %s", ErrOutputOverlap, out, src)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
