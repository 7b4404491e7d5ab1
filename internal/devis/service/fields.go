package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
)

// normalizeFieldValue validates a SetField value and returns its canonical
// form. Typed values are validated strictly; raw JSON is read with the same
// tolerance as stored documents.
func (s *Store) normalizeFieldValue(field devisdomain.Field, value any) (any, error) {
	switch field {
	case devisdomain.FieldPieces:
		return s.normalizePieces(value)
	case devisdomain.FieldSurfaceData:
		return normalizeSurfaceValue(value)
	case devisdomain.FieldSelectedItems:
		return normalizeItemsValue(value)
	case devisdomain.FieldTitle:
		return normalizeTitle(value)
	case devisdomain.FieldStatus:
		return normalizeStatus(value)
	case devisdomain.FieldDefaultTaxRatePercent:
		return normalizeTaxRate(value)
	default:
		return nil, fmt.Errorf("%w: %s", devisdomain.ErrUnknownField, field)
	}
}

func roomListOf(value any) (devisdomain.RoomList, bool) {
	switch v := value.(type) {
	case devisdomain.RoomList:
		return v, true
	case []devisdomain.Room:
		return devisdomain.RoomRecords(v...), true
	case []string:
		return devisdomain.RoomNames(v...), true
	case []devisdomain.LineItem:
		return devisdomain.RoomsFromItems(v), true
	case json.RawMessage:
		return devisdomain.ParseRoomList(v), true
	case []byte:
		return devisdomain.ParseRoomList(v), true
	default:
		return devisdomain.RoomList{}, false
	}
}

func (s *Store) normalizePieces(value any) ([]devisdomain.Room, error) {
	list, ok := roomListOf(value)
	if !ok {
		return nil, invalidValue(devisdomain.FieldPieces, value)
	}

	var rooms []devisdomain.Room
	switch list.Kind {
	case devisdomain.RoomListItemEmbedded:
		rooms = NormalizeSelectedAsRooms(list, s.catalogRooms)
	case devisdomain.RoomListNames, devisdomain.RoomListRecords:
		rooms = NormalizeRooms(list)
	}
	if len(rooms) == 0 {
		return nil, fmt.Errorf("%w: pieces is empty or unrecognized", devisdomain.ErrInvalidFieldValue)
	}
	return rooms, nil
}

func normalizeSurfaceValue(value any) ([]devisdomain.SurfaceRecord, error) {
	switch v := value.(type) {
	case []devisdomain.SurfaceRecord:
		for _, rec := range v {
			if !nonNegative(rec.GroundArea) || !nonNegative(rec.WallPerimeter) ||
				!nonNegative(rec.WallArea) || !nonNegative(rec.CeilingHeight) {
				return nil, fmt.Errorf("%w: room %q", devisdomain.ErrInvalidSurfaceValue, rec.Room)
			}
		}
		return canonicalSurfaces(v), nil
	case json.RawMessage:
		if !isArray(v) {
			return nil, invalidValue(devisdomain.FieldSurfaceData, value)
		}
		return normalizeSurfaces(v), nil
	default:
		return nil, invalidValue(devisdomain.FieldSurfaceData, value)
	}
}

func normalizeItemsValue(value any) ([]devisdomain.LineItem, error) {
	switch v := value.(type) {
	case []devisdomain.LineItem:
		for _, item := range v {
			if err := validateItemNumbers(item); err != nil {
				return nil, err
			}
		}
		return canonicalItems(v), nil
	case json.RawMessage:
		if !isArray(v) {
			return nil, invalidValue(devisdomain.FieldSelectedItems, value)
		}
		return normalizeItems(v), nil
	default:
		return nil, invalidValue(devisdomain.FieldSelectedItems, value)
	}
}

func validateItemNumbers(item devisdomain.LineItem) error {
	if !nonNegative(item.Quantity) {
		return fmt.Errorf("%w: item %s", devisdomain.ErrInvalidQuantity, item.ID)
	}
	if !nonNegative(item.UnitPriceExclTax) {
		return fmt.Errorf("%w: item %s", devisdomain.ErrInvalidPrice, item.ID)
	}
	if item.OriginalPrice != nil && !nonNegative(*item.OriginalPrice) {
		return fmt.Errorf("%w: item %s", devisdomain.ErrInvalidPrice, item.ID)
	}
	if item.TaxRatePercent != nil && !nonNegative(*item.TaxRatePercent) {
		return fmt.Errorf("%w: item %s", devisdomain.ErrInvalidTaxRate, item.ID)
	}
	return nil
}

func normalizeTitle(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.RawMessage:
		var title string
		if err := json.Unmarshal(v, &title); err != nil {
			return "", invalidValue(devisdomain.FieldTitle, value)
		}
		return strings.TrimSpace(title), nil
	default:
		return "", invalidValue(devisdomain.FieldTitle, value)
	}
}

func normalizeStatus(value any) (devisdomain.Status, error) {
	var raw string
	switch v := value.(type) {
	case devisdomain.Status:
		raw = string(v)
	case string:
		raw = v
	case json.RawMessage:
		if err := json.Unmarshal(v, &raw); err != nil {
			return "", devisdomain.ErrInvalidStatus
		}
	default:
		return "", devisdomain.ErrInvalidStatus
	}
	status := devisdomain.Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", devisdomain.ErrInvalidStatus, raw)
	}
	return status, nil
}

func normalizeTaxRate(value any) (float64, error) {
	var rate float64
	switch v := value.(type) {
	case float64:
		rate = v
	case *float64:
		if v == nil {
			return 0, devisdomain.ErrInvalidTaxRate
		}
		rate = *v
	case int:
		rate = float64(v)
	case json.RawMessage:
		var n flexNumber
		if err := json.Unmarshal(v, &n); err != nil || !n.Valid {
			return 0, devisdomain.ErrInvalidTaxRate
		}
		rate = n.Value
	default:
		return 0, devisdomain.ErrInvalidTaxRate
	}
	if !nonNegative(rate) {
		return 0, devisdomain.ErrInvalidTaxRate
	}
	return rate, nil
}

// applyField stores a canonical value on cfg. Slices are copied so the
// value handed to the background write is never shared with session state.
func applyField(cfg *devisdomain.QuoteConfiguration, field devisdomain.Field, value any) {
	switch field {
	case devisdomain.FieldPieces:
		cfg.Pieces = append([]devisdomain.Room(nil), value.([]devisdomain.Room)...)
	case devisdomain.FieldSurfaceData:
		cfg.SurfaceData = append([]devisdomain.SurfaceRecord(nil), value.([]devisdomain.SurfaceRecord)...)
	case devisdomain.FieldSelectedItems:
		items := value.([]devisdomain.LineItem)
		cfg.SelectedItems = make([]devisdomain.LineItem, 0, len(items))
		for _, item := range items {
			cfg.SelectedItems = append(cfg.SelectedItems, item.Clone())
		}
	case devisdomain.FieldTitle:
		cfg.Title = value.(string)
	case devisdomain.FieldStatus:
		cfg.Status = value.(devisdomain.Status)
	case devisdomain.FieldDefaultTaxRatePercent:
		cfg.DefaultTaxRatePercent = value.(float64)
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '[' && json.Valid(trimmed)
}
