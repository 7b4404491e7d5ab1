package service

import (
	"context"
	"fmt"
	"strings"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/surface"
)

// ActiveSurfaces returns one record per selected room, in room order.
// Selected rooms without a record get a default one. Records of deselected
// rooms stay stored but are not returned.
func (s *Store) ActiveSurfaces() []devisdomain.SurfaceRecord {
	cfg := s.Get()
	return activeSurfaces(cfg)
}

func activeSurfaces(cfg devisdomain.QuoteConfiguration) []devisdomain.SurfaceRecord {
	byRoom := make(map[string]devisdomain.SurfaceRecord, len(cfg.SurfaceData))
	for _, rec := range cfg.SurfaceData {
		byRoom[rec.Room] = rec
	}
	selected := cfg.SelectedRooms()
	out := make([]devisdomain.SurfaceRecord, 0, len(selected))
	for _, room := range selected {
		rec, ok := byRoom[room.Name]
		if !ok {
			rec = devisdomain.SurfaceRecord{Room: room.Name, CeilingHeight: surface.DefaultCeilingHeight}
		}
		out = append(out, rec)
	}
	return out
}

// EditSurface sets one measurement of a selected room and derives the
// others according to applySurfaceEdit.
func (s *Store) EditSurface(ctx context.Context, room string, field devisdomain.SurfaceField, value float64) (devisdomain.SurfaceRecord, devisdomain.Ack, error) {
	if !nonNegative(value) {
		return devisdomain.SurfaceRecord{}, nil, fmt.Errorf("%w: %s=%v", devisdomain.ErrInvalidSurfaceValue, field, value)
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	room = strings.TrimSpace(room)
	found := false
	for _, p := range cfg.Pieces {
		if p.Name != room {
			continue
		}
		if !p.Selected {
			return devisdomain.SurfaceRecord{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrRoomNotSelected, room)
		}
		found = true
		break
	}
	if !found {
		return devisdomain.SurfaceRecord{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrRoomNotFound, room)
	}

	records := cfg.SurfaceData
	index := -1
	for i, rec := range records {
		if rec.Room == room {
			index = i
			break
		}
	}
	current := devisdomain.SurfaceRecord{Room: room, CeilingHeight: surface.DefaultCeilingHeight}
	if index >= 0 {
		current = records[index]
	}

	next, err := applySurfaceEdit(current, field, value)
	if err != nil {
		return devisdomain.SurfaceRecord{}, nil, err
	}
	if index >= 0 {
		records[index] = next
	} else {
		records = append(records, next)
	}

	ack, err := s.SetField(ctx, devisdomain.FieldSurfaceData, records)
	if err != nil {
		return devisdomain.SurfaceRecord{}, nil, err
	}
	return next, ack, nil
}

// applySurfaceEdit applies the update rule of the edited field. Derived
// values fill in what is unknown; the rules differ per field on purpose:
//
//   - groundArea recomputes perimeter and wall area, and sets the height
//     when none was known.
//   - ceilingHeight recomputes from the ground area when set, otherwise
//     recomputes the wall area from the perimeter.
//   - wallPerimeter recomputes the wall area and fills the ground area only
//     when it was unset.
//   - wallArea fills ground area and perimeter only where unset.
//
// Zero clears the edited measurement.
func applySurfaceEdit(rec devisdomain.SurfaceRecord, field devisdomain.SurfaceField, value float64) (devisdomain.SurfaceRecord, error) {
	switch field {
	case devisdomain.SurfaceGroundArea:
		d := surface.FromGroundArea(value, rec.CeilingHeight)
		rec.GroundArea = value
		rec.WallPerimeter = d.WallPerimeter
		rec.WallArea = d.WallArea
		if rec.CeilingHeight <= 0 {
			rec.CeilingHeight = d.Height
		}

	case devisdomain.SurfaceCeilingHeight:
		height := value
		if height <= 0 {
			height = surface.DefaultCeilingHeight
		}
		rec.CeilingHeight = height
		switch {
		case rec.GroundArea > 0:
			d := surface.FromGroundArea(rec.GroundArea, height)
			rec.WallPerimeter = d.WallPerimeter
			rec.WallArea = d.WallArea
		case rec.WallPerimeter > 0:
			rec.WallArea = surface.Round2(rec.WallPerimeter * height)
		}

	case devisdomain.SurfaceWallPerimeter:
		if rec.CeilingHeight <= 0 {
			rec.CeilingHeight = surface.DefaultCeilingHeight
		}
		d := surface.FromPerimeter(value, rec.CeilingHeight)
		rec.WallPerimeter = value
		rec.WallArea = d.WallArea
		if rec.GroundArea <= 0 {
			rec.GroundArea = d.GroundArea
		}

	case devisdomain.SurfaceWallArea:
		if rec.CeilingHeight <= 0 {
			rec.CeilingHeight = surface.DefaultCeilingHeight
		}
		d := surface.FromWallArea(value, rec.CeilingHeight)
		rec.WallArea = value
		if rec.GroundArea <= 0 {
			rec.GroundArea = d.GroundArea
		}
		if rec.WallPerimeter <= 0 {
			rec.WallPerimeter = d.WallPerimeter
		}

	default:
		return rec, fmt.Errorf("%w: %s", devisdomain.ErrUnknownSurfaceField, field)
	}
	return rec, nil
}
