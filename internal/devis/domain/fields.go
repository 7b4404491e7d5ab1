package domain

import "strings"

// Field names a top-level, independently persisted field of a configuration.
type Field string

const (
	FieldPieces                Field = "pieces"
	FieldSurfaceData           Field = "surfaceData"
	FieldSelectedItems         Field = "selectedItems"
	FieldTitle                 Field = "title"
	FieldStatus                Field = "status"
	FieldDefaultTaxRatePercent Field = "defaultTaxRatePercent"
)

var fields = []Field{
	FieldPieces,
	FieldSurfaceData,
	FieldSelectedItems,
	FieldTitle,
	FieldStatus,
	FieldDefaultTaxRatePercent,
}

// ParseField resolves a field name, case-insensitively.
func ParseField(raw string) (Field, error) {
	value := strings.TrimSpace(raw)
	for _, f := range fields {
		if strings.EqualFold(string(f), value) {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

// SurfaceField names one editable measurement of a SurfaceRecord.
type SurfaceField string

const (
	SurfaceGroundArea    SurfaceField = "groundArea"
	SurfaceWallPerimeter SurfaceField = "wallPerimeter"
	SurfaceWallArea      SurfaceField = "wallArea"
	SurfaceCeilingHeight SurfaceField = "ceilingHeight"
)

// ParseSurfaceField resolves a measurement name, case-insensitively.
func ParseSurfaceField(raw string) (SurfaceField, error) {
	value := strings.TrimSpace(raw)
	for _, f := range []SurfaceField{SurfaceGroundArea, SurfaceWallPerimeter, SurfaceWallArea, SurfaceCeilingHeight} {
		if strings.EqualFold(string(f), value) {
			return f, nil
		}
	}
	return "", ErrUnknownSurfaceField
}
