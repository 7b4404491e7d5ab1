package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
)

// RoomListKind tags the shape a room list arrived in.
type RoomListKind int

const (
	// RoomListAbsent is a missing, null or empty list.
	RoomListAbsent RoomListKind = iota
	// RoomListNames is a list of bare room names (legacy).
	RoomListNames
	// RoomListRecords is a list of {name, selected, count} records.
	RoomListRecords
	// RoomListItemEmbedded is a list of line items each carrying a rooms array (legacy).
	RoomListItemEmbedded
	// RoomListUnknown is anything else.
	RoomListUnknown
)

func (k RoomListKind) String() string {
	switch k {
	case RoomListAbsent:
		return "absent"
	case RoomListNames:
		return "names"
	case RoomListRecords:
		return "records"
	case RoomListItemEmbedded:
		return "item_embedded"
	default:
		return "unknown"
	}
}

// RoomList is a room list whose shape has been resolved once, at the boundary.
// Only the slice matching Kind is populated.
type RoomList struct {
	Kind    RoomListKind
	Names   []string
	Records []Room
	Items   [][]Room
}

// RoomNames builds a legacy name-only list.
func RoomNames(names ...string) RoomList {
	if len(names) == 0 {
		return RoomList{Kind: RoomListAbsent}
	}
	return RoomList{Kind: RoomListNames, Names: append([]string(nil), names...)}
}

// RoomRecords builds a list of already-shaped records.
func RoomRecords(rooms ...Room) RoomList {
	if len(rooms) == 0 {
		return RoomList{Kind: RoomListAbsent}
	}
	return RoomList{Kind: RoomListRecords, Records: append([]Room(nil), rooms...)}
}

// RoomsFromItems builds the legacy item-embedded shape from typed line items.
func RoomsFromItems(items []LineItem) RoomList {
	out := RoomList{Kind: RoomListItemEmbedded}
	for _, item := range items {
		if item.Rooms == nil {
			continue
		}
		out.Items = append(out.Items, append([]Room(nil), item.Rooms...))
	}
	if len(out.Items) == 0 {
		return RoomList{Kind: RoomListAbsent}
	}
	return out
}

// ParseRoomList classifies raw stored JSON into a RoomList.
//
// Strings and records may be mixed; strings then become unselected records.
// A single element exposing an array-valued "rooms" attribute marks the
// whole list as item-embedded.
func ParseRoomList(raw json.RawMessage) RoomList {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return RoomList{Kind: RoomListAbsent}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return RoomList{Kind: RoomListUnknown}
	}
	if len(elems) == 0 {
		return RoomList{Kind: RoomListAbsent}
	}

	var (
		names     []string
		records   []Room
		items     [][]Room
		sawRecord bool
	)
	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		switch elem[0] {
		case '"':
			var name string
			if err := json.Unmarshal(elem, &name); err != nil {
				continue
			}
			names = append(names, name)
			records = append(records, Room{Name: name, Count: 1})
		case '{':
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(elem, &probe); err != nil {
				continue
			}
			if roomsRaw, ok := probe["rooms"]; ok && isJSONArray(roomsRaw) {
				items = append(items, parseEmbeddedRooms(roomsRaw))
				continue
			}
			if room, ok := decodeRoomRecord(probe, false); ok {
				records = append(records, room)
				sawRecord = true
			}
		}
	}

	switch {
	case len(items) > 0:
		return RoomList{Kind: RoomListItemEmbedded, Items: items}
	case sawRecord:
		return RoomList{Kind: RoomListRecords, Records: records}
	case len(names) > 0:
		return RoomList{Kind: RoomListNames, Names: names}
	default:
		return RoomList{Kind: RoomListUnknown}
	}
}

// parseEmbeddedRooms reads an item's rooms array. Presence in an item means
// the room was linked, so bare names and records without a selected flag
// count as selected.
func parseEmbeddedRooms(raw json.RawMessage) []Room {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil
	}
	out := make([]Room, 0, len(elems))
	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 {
			continue
		}
		switch elem[0] {
		case '"':
			var name string
			if err := json.Unmarshal(elem, &name); err == nil {
				out = append(out, Room{Name: name, Selected: true, Count: 1})
			}
		case '{':
			var probe map[string]json.RawMessage
			if err := json.Unmarshal(elem, &probe); err != nil {
				continue
			}
			if room, ok := decodeRoomRecord(probe, true); ok {
				out = append(out, room)
			}
		}
	}
	return out
}

func decodeRoomRecord(probe map[string]json.RawMessage, selectedByDefault bool) (Room, bool) {
	var name string
	if raw, ok := probe["name"]; !ok || json.Unmarshal(raw, &name) != nil {
		return Room{}, false
	}
	if strings.TrimSpace(name) == "" {
		return Room{}, false
	}

	room := Room{Name: name, Selected: selectedByDefault}
	if raw, ok := probe["selected"]; ok {
		var selected bool
		if json.Unmarshal(raw, &selected) == nil {
			room.Selected = selected
		}
	}
	if raw, ok := probe["count"]; ok {
		var count float64
		if json.Unmarshal(raw, &count) == nil && !math.IsNaN(count) && !math.IsInf(count, 0) {
			room.Count = int(math.Round(count))
		}
	}
	return room, true
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
