package surface

// Measurement is anything exposing a floor area and a wall area.
type Measurement interface {
	Ground() float64
	Walls() float64
}

// Aggregate holds summed areas over a set of rooms.
type Aggregate struct {
	GroundArea float64 `json:"groundArea"`
	WallArea   float64 `json:"wallArea"`
}

// Totals sums ground and wall areas. Duplicate rooms are not special-cased.
func Totals[M Measurement](records []M) Aggregate {
	var out Aggregate
	for _, r := range records {
		out.GroundArea += r.Ground()
		out.WallArea += r.Walls()
	}
	out.GroundArea = Round2(out.GroundArea)
	out.WallArea = Round2(out.WallArea)
	return out
}
