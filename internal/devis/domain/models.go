// Package domain contains the quote (devis) configuration model.
package domain

import (
	"strings"
	"time"
)

// CollectionName is the document-store collection holding quote configurations.
const CollectionName = "devis"

// Status is the commercial state of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// ItemKind distinguishes catalog lines from the custom-item variants.
type ItemKind string

const (
	ItemKindCatalog    ItemKind = "catalog"
	ItemKindPrestation ItemKind = "prestation"
	ItemKindLotHeader  ItemKind = "lot_header"
	ItemKindText       ItemKind = "text"
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindCatalog, ItemKindPrestation, ItemKindLotHeader, ItemKindText:
		return true
	default:
		return false
	}
}

// Priced reports whether lines of this kind carry a price.
func (k ItemKind) Priced() bool {
	return k != ItemKindLotHeader && k != ItemKindText
}

// Room is one room type selectable for a quote (PieceSelection).
type Room struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Count    int    `json:"count"`
}

// SurfaceRecord holds the measurements of one selected room.
type SurfaceRecord struct {
	Room          string  `json:"room"`
	GroundArea    float64 `json:"groundArea"`
	WallPerimeter float64 `json:"wallPerimeter"`
	WallArea      float64 `json:"wallArea"`
	CeilingHeight float64 `json:"ceilingHeight"`
}

func (r SurfaceRecord) Ground() float64 { return r.GroundArea }
func (r SurfaceRecord) Walls() float64  { return r.WallArea }

// LineItem is one priced (or informational) line of a quote.
type LineItem struct {
	ID               string   `json:"id"`
	Kind             ItemKind `json:"kind,omitempty"`
	LotName          string   `json:"lotName"`
	SubcategoryName  string   `json:"subcategoryName"`
	ItemName         string   `json:"itemName"`
	Label            string   `json:"label"`
	UnitPriceExclTax float64  `json:"unitPriceExclTax"`
	Unit             string   `json:"unit"`
	CustomUnit       string   `json:"customUnit,omitempty"`
	Description      string   `json:"description"`
	Quantity         float64  `json:"quantity"`
	Rooms            []Room   `json:"rooms"`
	TaxRatePercent   *float64 `json:"taxRatePercent,omitempty"`
	IsGifted         bool     `json:"isGifted"`
	OriginalPrice    *float64 `json:"originalPrice,omitempty"`
	CustomImage      string   `json:"customImage,omitempty"`
}

// DisplayUnit is the unit shown to the client: the custom unit when set.
func (i LineItem) DisplayUnit() string {
	if custom := strings.TrimSpace(i.CustomUnit); custom != "" {
		return custom
	}
	return i.Unit
}

// Clone returns a deep copy.
func (i LineItem) Clone() LineItem {
	out := i
	if i.Rooms != nil {
		out.Rooms = append([]Room(nil), i.Rooms...)
	}
	if i.TaxRatePercent != nil {
		v := *i.TaxRatePercent
		out.TaxRatePercent = &v
	}
	if i.OriginalPrice != nil {
		v := *i.OriginalPrice
		out.OriginalPrice = &v
	}
	return out
}

// QuoteConfiguration is the aggregate root persisted as one document.
type QuoteConfiguration struct {
	ID                    string          `json:"id"`
	ProjectID             string          `json:"projectId"`
	UserID                string          `json:"userId"`
	Title                 string          `json:"title"`
	Number                string          `json:"number"`
	DefaultTaxRatePercent float64         `json:"defaultTaxRatePercent"`
	Status                Status          `json:"status"`
	Pieces                []Room          `json:"pieces"`
	SurfaceData           []SurfaceRecord `json:"surfaceData"`
	SelectedItems         []LineItem      `json:"selectedItems"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot alias session state.
func (q QuoteConfiguration) Clone() QuoteConfiguration {
	out := q
	out.Pieces = append([]Room(nil), q.Pieces...)
	out.SurfaceData = append([]SurfaceRecord(nil), q.SurfaceData...)
	out.SelectedItems = make([]LineItem, 0, len(q.SelectedItems))
	for _, item := range q.SelectedItems {
		out.SelectedItems = append(out.SelectedItems, item.Clone())
	}
	return out
}

// SelectedRooms returns the selected rooms in list order.
func (q QuoteConfiguration) SelectedRooms() []Room {
	out := make([]Room, 0, len(q.Pieces))
	for _, p := range q.Pieces {
		if p.Selected {
			out = append(out, p)
		}
	}
	return out
}

// FindItem returns the index of the item with the given id, or -1.
func (q QuoteConfiguration) FindItem(id string) int {
	for i, item := range q.SelectedItems {
		if item.ID == id {
			return i
		}
	}
	return -1
}
