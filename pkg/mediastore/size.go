package mediastore

import (
	"fmt"
	"math"
	"strings"
)

// SizeMode selects the thumbnail sizing strategy.
type SizeMode string

const (
	// ModeLongestEdge constrains the longer of width/height to a target
	// value while preserving aspect ratio.
	ModeLongestEdge SizeMode = "longest-edge"

	// ModeExact targets an explicit width (and optionally height,
	// cover-cropped).
	ModeExact SizeMode = "exact"
)

// DefaultLongestEdge is the platform-wide default thumbnail size, applied
// when a request carries no size signal at all.
const DefaultLongestEdge = 200

// SizeRequest carries the raw, unvalidated size inputs of a thumbnail
// request. Zero, negative and NaN values mean "absent".
type SizeRequest struct {
	Mode        string
	Width       float64
	Height      float64
	LongestSide float64
}

// Size is a resolved thumbnail size: exactly one mode, positive integer
// dimensions.
type Size struct {
	Mode        SizeMode
	Width       int
	Height      int
	LongestSide int
}

// ResolveSize normalizes a raw size request into a Size.
//
// Longest-edge mode wins whenever it is requested explicitly or a
// longestSide value is present; the edge value falls back to width, then
// height. Exact mode requires a positive width. A request with no size
// signal at all resolves to the 200px longest-edge default.
func ResolveSize(req SizeRequest) (Size, error) {
	width := normalizeDimension(req.Width)
	height := normalizeDimension(req.Height)
	longest := normalizeDimension(req.LongestSide)
	mode := strings.ToLower(strings.TrimSpace(req.Mode))

	if mode == "" && width == 0 && height == 0 && longest == 0 {
		return Size{Mode: ModeLongestEdge, LongestSide: DefaultLongestEdge}, nil
	}

	if mode == string(ModeLongestEdge) || longest > 0 {
		edge := longest
		if edge == 0 {
			edge = width
		}
		if edge == 0 {
			edge = height
		}
		if edge <= 0 {
			return Size{}, fmt.Errorf("%w: longest-edge mode needs a positive dimension", ErrInvalidSize)
		}
		return Size{Mode: ModeLongestEdge, LongestSide: edge}, nil
	}

	if width <= 0 {
		return Size{}, fmt.Errorf("%w: exact mode requires a positive width", ErrInvalidSize)
	}
	return Size{Mode: ModeExact, Width: width, Height: height}, nil
}

// Descriptor returns the size descriptor used in thumbnail cache keys and
// freshness tokens: "longest-{N}" or "{W}x{H}" with "auto" for an absent
// dimension.
func (s Size) Descriptor() string {
	if s.Mode == ModeLongestEdge {
		return fmt.Sprintf("longest-%d", s.LongestSide)
	}
	return fmt.Sprintf("%sx%s", dimOrAuto(s.Width), dimOrAuto(s.Height))
}

func dimOrAuto(v int) string {
	if v <= 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", v)
}

func normalizeDimension(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int(math.Round(v))
}
