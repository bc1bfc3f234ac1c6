package render

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
)

// Output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatDOT, FormatJSON}

// Render produces the layout in the given format.
func Render(ctx context.Context, l *graph.Layout, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return SVG(ctx, l, opts)
	case FormatDOT:
		return []byte(DOT(l, opts)), nil
	case FormatJSON:
		return graph.MarshalLayout(l)
	default:
		return nil, ErrUnsupportedFormat(format)
	}
}

// ErrUnsupportedFormat returns the UNSUPPORTED error for format.
func ErrUnsupportedFormat(format string) error {
	return errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want one of %v)", format, Formats)
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool { return slices.Contains(Formats, format) }

// FormatFromPath picks a format from a file extension, defaulting to SVG.
func FormatFromPath(path string) string {
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ValidFormat(ext) {
		return ext
	}
	return FormatSVG
}
