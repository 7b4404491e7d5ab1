package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/pricing"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/surface"
	"github.com/google/uuid"
)

// NormalizeRooms returns canonical room records for a names or records list.
// Names become unselected rooms with count 1. Names are trimmed, empty names
// dropped, counts below 1 raised to 1 and duplicates collapsed with the first
// occurrence kept. Any other shape yields an empty list.
func NormalizeRooms(list devisdomain.RoomList) []devisdomain.Room {
	var in []devisdomain.Room
	switch list.Kind {
	case devisdomain.RoomListNames:
		in = make([]devisdomain.Room, 0, len(list.Names))
		for _, name := range list.Names {
			in = append(in, devisdomain.Room{Name: name, Count: 1})
		}
	case devisdomain.RoomListRecords:
		in = list.Records
	}
	return canonicalRooms(in)
}

// NormalizeSelectedAsRooms resolves the room selection of a configuration.
//
// Item-embedded lists, where each element is a line item carrying its own
// rooms, are flattened: the first occurrence of a room fixes its position,
// selected flags are OR-ed and the largest count kept. Catalog rooms missing
// from the flattened list are appended unselected. Names and records go
// through NormalizeRooms. Anything that yields no room falls back to the
// catalog room list.
func NormalizeSelectedAsRooms(list devisdomain.RoomList, catalogRooms []string) []devisdomain.Room {
	var out []devisdomain.Room
	switch list.Kind {
	case devisdomain.RoomListItemEmbedded:
		out = flattenEmbedded(list.Items)
		if len(out) > 0 {
			out = appendMissing(out, catalogRooms)
		}
	case devisdomain.RoomListNames, devisdomain.RoomListRecords:
		out = NormalizeRooms(list)
	}
	if len(out) == 0 {
		return DefaultRooms(catalogRooms)
	}
	return out
}

// DefaultRooms lists every catalog room, unselected, count 1.
func DefaultRooms(catalogRooms []string) []devisdomain.Room {
	return NormalizeRooms(devisdomain.RoomNames(catalogRooms...))
}

func canonicalRooms(in []devisdomain.Room) []devisdomain.Room {
	out := make([]devisdomain.Room, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, room := range in {
		room.Name = strings.TrimSpace(room.Name)
		if room.Name == "" {
			continue
		}
		if _, ok := seen[room.Name]; ok {
			continue
		}
		seen[room.Name] = struct{}{}
		if room.Count < 1 {
			room.Count = 1
		}
		out = append(out, room)
	}
	return out
}

func flattenEmbedded(items [][]devisdomain.Room) []devisdomain.Room {
	var out []devisdomain.Room
	index := map[string]int{}
	for _, rooms := range items {
		for _, room := range canonicalRooms(rooms) {
			i, ok := index[room.Name]
			if !ok {
				index[room.Name] = len(out)
				out = append(out, room)
				continue
			}
			out[i].Selected = out[i].Selected || room.Selected
			if room.Count > out[i].Count {
				out[i].Count = room.Count
			}
		}
	}
	return out
}

func appendMissing(rooms []devisdomain.Room, catalogRooms []string) []devisdomain.Room {
	seen := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		seen[room.Name] = struct{}{}
	}
	for _, room := range DefaultRooms(catalogRooms) {
		if _, ok := seen[room.Name]; !ok {
			rooms = append(rooms, room)
		}
	}
	return rooms
}

// keepOmittedRooms appends the rooms a pieces write left out, deselected,
// so a room is never dropped from a quote. Rooms known to the session come
// first, then catalog rooms still missing.
func keepOmittedRooms(rooms, current []devisdomain.Room, catalogRooms []string) []devisdomain.Room {
	seen := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		seen[room.Name] = struct{}{}
	}
	for _, room := range current {
		if _, ok := seen[room.Name]; ok {
			continue
		}
		seen[room.Name] = struct{}{}
		room.Selected = false
		rooms = append(rooms, room)
	}
	return appendMissing(rooms, catalogRooms)
}

// flexNumber decodes a JSON number or a numeric string. Older documents
// store form inputs verbatim.
type flexNumber struct {
	Value float64
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = flexNumber{}
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || !finite(v) {
			*n = flexNumber{}
			return nil
		}
		*n = flexNumber{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		*n = flexNumber{}
		return nil
	}
	*n = flexNumber{Value: v, Valid: finite(v)}
	return nil
}

func (n flexNumber) nonNegative() float64 {
	if !n.Valid || n.Value < 0 {
		return 0
	}
	return n.Value
}

func (n flexNumber) pointer() *float64 {
	if !n.Valid || n.Value < 0 {
		return nil
	}
	v := n.Value
	return &v
}

type storedSurface struct {
	Room          string     `json:"room"`
	GroundArea    flexNumber `json:"groundArea"`
	WallPerimeter flexNumber `json:"wallPerimeter"`
	WallArea      flexNumber `json:"wallArea"`
	CeilingHeight flexNumber `json:"ceilingHeight"`
}

// normalizeSurfaces reads stored surface records. Negative or unreadable
// measurements become 0, a missing height becomes the default and the last
// record of a room wins.
func normalizeSurfaces(raw json.RawMessage) []devisdomain.SurfaceRecord {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []devisdomain.SurfaceRecord{}
	}
	records := make([]devisdomain.SurfaceRecord, 0, len(elems))
	for _, elem := range elems {
		var s storedSurface
		if err := json.Unmarshal(elem, &s); err != nil {
			continue
		}
		records = append(records, devisdomain.SurfaceRecord{
			Room:          s.Room,
			GroundArea:    s.GroundArea.nonNegative(),
			WallPerimeter: s.WallPerimeter.nonNegative(),
			WallArea:      s.WallArea.nonNegative(),
			CeilingHeight: s.CeilingHeight.nonNegative(),
		})
	}
	return canonicalSurfaces(records)
}

func canonicalSurfaces(in []devisdomain.SurfaceRecord) []devisdomain.SurfaceRecord {
	out := make([]devisdomain.SurfaceRecord, 0, len(in))
	index := make(map[string]int, len(in))
	for _, rec := range in {
		rec.Room = strings.TrimSpace(rec.Room)
		if rec.Room == "" {
			continue
		}
		if rec.CeilingHeight <= 0 {
			rec.CeilingHeight = surface.DefaultCeilingHeight
		}
		if i, ok := index[rec.Room]; ok {
			out[i] = rec
			continue
		}
		index[rec.Room] = len(out)
		out = append(out, rec)
	}
	return out
}

type storedItem struct {
	ID               string               `json:"id"`
	Kind             devisdomain.ItemKind `json:"kind"`
	LotName          string               `json:"lotName"`
	SubcategoryName  string               `json:"subcategoryName"`
	ItemName         string               `json:"itemName"`
	Label            string               `json:"label"`
	UnitPriceExclTax flexNumber           `json:"unitPriceExclTax"`
	Unit             string               `json:"unit"`
	CustomUnit       string               `json:"customUnit"`
	Description      string               `json:"description"`
	Quantity         flexNumber           `json:"quantity"`
	Rooms            json.RawMessage      `json:"rooms"`
	TaxRatePercent   flexNumber           `json:"taxRatePercent"`
	IsGifted         bool                 `json:"isGifted"`
	OriginalPrice    flexNumber           `json:"originalPrice"`
	CustomImage      string               `json:"customImage"`
}

// normalizeItems reads stored line items, tolerating numeric strings and
// legacy room shapes.
func normalizeItems(raw json.RawMessage) []devisdomain.LineItem {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []devisdomain.LineItem{}
	}
	items := make([]devisdomain.LineItem, 0, len(elems))
	for _, elem := range elems {
		var s storedItem
		if err := json.Unmarshal(elem, &s); err != nil {
			continue
		}
		quantity := 1.0
		if s.Quantity.Valid {
			quantity = s.Quantity.nonNegative()
		}
		items = append(items, devisdomain.LineItem{
			ID:               s.ID,
			Kind:             s.Kind,
			LotName:          s.LotName,
			SubcategoryName:  s.SubcategoryName,
			ItemName:         s.ItemName,
			Label:            s.Label,
			UnitPriceExclTax: s.UnitPriceExclTax.nonNegative(),
			Unit:             s.Unit,
			CustomUnit:       s.CustomUnit,
			Description:      s.Description,
			Quantity:         quantity,
			Rooms:            itemRooms(devisdomain.ParseRoomList(s.Rooms)),
			TaxRatePercent:   s.TaxRatePercent.pointer(),
			IsGifted:         s.IsGifted,
			OriginalPrice:    s.OriginalPrice.pointer(),
			CustomImage:      s.CustomImage,
		})
	}
	return canonicalItems(items)
}

// itemRooms reads the rooms linked to one item. A bare name in an item
// means the room was linked, so it counts as selected.
func itemRooms(list devisdomain.RoomList) []devisdomain.Room {
	switch list.Kind {
	case devisdomain.RoomListNames:
		rooms := make([]devisdomain.Room, 0, len(list.Names))
		for _, name := range list.Names {
			rooms = append(rooms, devisdomain.Room{Name: name, Selected: true, Count: 1})
		}
		return canonicalRooms(rooms)
	case devisdomain.RoomListRecords:
		return canonicalRooms(list.Records)
	default:
		return []devisdomain.Room{}
	}
}

// canonicalItems gives every item a unique id and a known kind, and keeps
// the price invariants: informational lines carry no price and a gifted
// line charges zero with its price captured.
func canonicalItems(in []devisdomain.LineItem) []devisdomain.LineItem {
	out := make([]devisdomain.LineItem, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, item := range in {
		item = item.Clone()
		item.ID = strings.TrimSpace(item.ID)
		if _, dup := seen[item.ID]; item.ID == "" || dup {
			item.ID = uuid.NewString()
		}
		seen[item.ID] = struct{}{}

		if item.Kind == "" || !item.Kind.Valid() {
			item.Kind = devisdomain.ItemKindCatalog
		}
		if item.Rooms == nil {
			item.Rooms = []devisdomain.Room{}
		} else {
			item.Rooms = canonicalRooms(item.Rooms)
		}
		if !item.Kind.Priced() {
			item.UnitPriceExclTax = 0
			item.IsGifted = false
			item.OriginalPrice = nil
		}
		if item.IsGifted && item.UnitPriceExclTax != 0 {
			item.IsGifted = false
			item = pricing.SetGifted(item, true)
		}
		out = append(out, item)
	}
	return out
}

// normalizeStored turns a stored document into a canonical configuration.
// Documents without a usable pieces list fall back to the room selection
// embedded in their line items, then to the catalog rooms.
func normalizeStored(stored devisdomain.StoredConfiguration, catalogRooms []string) devisdomain.QuoteConfiguration {
	pieces := devisdomain.ParseRoomList(stored.Pieces)
	if pieces.Kind == devisdomain.RoomListAbsent || pieces.Kind == devisdomain.RoomListUnknown {
		if legacy := devisdomain.ParseRoomList(stored.SelectedItems); legacy.Kind == devisdomain.RoomListItemEmbedded {
			pieces = legacy
		}
	}

	status := stored.Status
	if !status.Valid() {
		status = devisdomain.StatusDraft
	}

	return devisdomain.QuoteConfiguration{
		ID:                    stored.ID,
		ProjectID:             stored.ProjectID,
		UserID:                stored.UserID,
		Title:                 stored.Title,
		Number:                stored.Number,
		DefaultTaxRatePercent: pricing.EffectiveTaxRate(stored.DefaultTaxRatePercent),
		Status:                status,
		Pieces:                NormalizeSelectedAsRooms(pieces, catalogRooms),
		SurfaceData:           normalizeSurfaces(stored.SurfaceData),
		SelectedItems:         normalizeItems(stored.SelectedItems),
		CreatedAt:             stored.CreatedAt,
		UpdatedAt:             stored.UpdatedAt,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return finite(v) && v >= 0
}

func invalidValue(field devisdomain.Field, value any) error {
	return fmt.Errorf("%w: %s got %T", devisdomain.ErrInvalidFieldValue, field, value)
}
