// Package surface estimates room measurements from a single known one.
//
// A room is modelled as a rectangle whose width-to-length ratio is fixed at
// 1.4:1. The model only fills in unknown measurements; it does not claim to
// describe the real shape of the room.
//
// Every function is pure and total: non-positive or non-finite inputs yield
// zero-valued results instead of errors.
//
// Deriving a wall area from a ground area and back returns the ground area
// within 0.1 m² as long as the area stays below RoundTripAreaLimit(height).
// Past that, rounding the wall area to cents moves the back-computed ground
// area by more than 0.1.
package surface

import (
	"math"
)

const (
	// AspectRatio is the assumed length/width ratio of every room.
	AspectRatio = 1.4
	// DefaultCeilingHeight is used whenever no positive height is known.
	DefaultCeilingHeight = 2.5
	// ConsistencyTolerance bounds |perimeter*height - wallArea| for a record
	// produced by this package.
	ConsistencyTolerance = 0.05

	// A wall area off by 0.005 shifts the back-computed ground area by
	// 0.01*sqrt(k*area)/height, with k = 1.4/(2*2.4)^2. Keeping that plus the
	// ground rounding under 0.1 bounds area by about 1485*height^2.
	roundTripAreaFactor = 1400
)

// GroundDerivation is the result of FromGroundArea.
type GroundDerivation struct {
	WallPerimeter float64 `json:"wallPerimeter"`
	WallArea      float64 `json:"wallArea"`
	Height        float64 `json:"height"`
}

// PerimeterDerivation is the result of FromPerimeter.
type PerimeterDerivation struct {
	GroundArea float64 `json:"groundArea"`
	WallArea   float64 `json:"wallArea"`
	Height     float64 `json:"height"`
}

// WallDerivation is the result of FromWallArea.
type WallDerivation struct {
	GroundArea    float64 `json:"groundArea"`
	WallPerimeter float64 `json:"wallPerimeter"`
}

// FromGroundArea derives the wall perimeter and wall area of a room with the
// given floor area.
func FromGroundArea(area, height float64) GroundDerivation {
	h := heightOrDefault(height)
	if !positive(area) {
		return GroundDerivation{Height: h}
	}

	width := math.Sqrt(area / AspectRatio)
	length := area / width
	perimeter := 2 * (width + length)

	return GroundDerivation{
		WallPerimeter: Round2(perimeter),
		WallArea:      Round2(perimeter * h),
		Height:        h,
	}
}

// FromPerimeter derives the floor area and wall area of a room with the given
// wall perimeter.
func FromPerimeter(perimeter, height float64) PerimeterDerivation {
	h := heightOrDefault(height)
	if !positive(perimeter) {
		return PerimeterDerivation{Height: h}
	}

	width := perimeter / (2 * (1 + AspectRatio))
	length := AspectRatio * width

	return PerimeterDerivation{
		GroundArea: Round2(width * length),
		WallArea:   Round2(perimeter * h),
		Height:     h,
	}
}

// FromWallArea derives the floor area and wall perimeter from a wall area.
// A known height is required; there is no default in this direction.
func FromWallArea(wallArea, height float64) WallDerivation {
	if !positive(height) || !positive(wallArea) {
		return WallDerivation{}
	}

	perimeter := wallArea / height
	ground := FromPerimeter(perimeter, height)

	return WallDerivation{
		GroundArea:    ground.GroundArea,
		WallPerimeter: Round2(perimeter),
	}
}

// Consistent reports whether wallArea matches perimeter*height within
// ConsistencyTolerance.
func Consistent(perimeter, height, wallArea float64) bool {
	return math.Abs(perimeter*height-wallArea) <= ConsistencyTolerance
}

// RoundTripAreaLimit is the largest ground area for which FromWallArea
// recovers the input of FromGroundArea within 0.1 m² at the given height.
func RoundTripAreaLimit(height float64) float64 {
	h := heightOrDefault(height)
	return roundTripAreaFactor * h * h
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

func heightOrDefault(height float64) float64 {
	if !positive(height) {
		return DefaultCeilingHeight
	}
	return height
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
