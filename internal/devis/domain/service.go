package domain

import (
	"context"
	"io"
)

// State is the editing-session state of a configuration.
type State int

const (
	StateUninitialized State = iota
	StateLoaded
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	default:
		return "uninitialized"
	}
}

// Ack resolves when the persistence write started by a mutation completes.
// Waiting is optional: writes proceed whether or not anyone waits.
type Ack interface {
	Done() <-chan struct{}
	Wait(ctx context.Context) error
}

// ConfigurationStore is the single writer of one quote's configuration.
// Step handlers receive it explicitly; SetField is the only mutation path.
type ConfigurationStore interface {
	ID() string
	Get() QuoteConfiguration
	State() State
	SetField(ctx context.Context, field Field, value any) (Ack, error)
}

// Session is a ConfigurationStore plus the step-level operations built on it.
type Session interface {
	ConfigurationStore

	ActiveSurfaces() []SurfaceRecord
	EditSurface(ctx context.Context, room string, field SurfaceField, value float64) (SurfaceRecord, Ack, error)

	AddCatalogItem(ctx context.Context, req CatalogSelection) (LineItem, Ack, error)
	AddCustomItem(ctx context.Context, req CustomItemRequest) (LineItem, Ack, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (LineItem, Ack, error)
	RemoveItem(ctx context.Context, id string) (Ack, error)
	SetItemGifted(ctx context.Context, id string, gifted bool) (LineItem, Ack, error)
	SetItemImage(ctx context.Context, id string, file io.Reader, filename string) (LineItem, Ack, error)

	Totals() Totals
}

// Service opens editing sessions.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (Session, error)
	Open(ctx context.Context, id string) (Session, error)
	Close(id string)
}

type CreateRequest struct {
	ProjectID             string   `json:"projectId"`
	UserID                string   `json:"userId"`
	Title                 string   `json:"title"`
	DefaultTaxRatePercent *float64 `json:"defaultTaxRatePercent"`
}

// CatalogSelection picks one option of the static catalog.
type CatalogSelection struct {
	LotName         string   `json:"lotName"`
	SubcategoryName string   `json:"subcategoryName"`
	ItemName        string   `json:"itemName"`
	OptionLabel     string   `json:"optionLabel"`
	Quantity        float64  `json:"quantity"`
	Rooms           []string `json:"rooms"`
}

// CustomItemRequest is the hand-authored item form. TaxRate holds the
// selected rate ("20", "5.5", or anything else for custom mode) and
// CustomTaxRate the free-text value used in custom mode.
type CustomItemRequest struct {
	Kind             ItemKind `json:"kind"`
	LotName          string   `json:"lotName"`
	SubcategoryName  string   `json:"subcategoryName"`
	Label            string   `json:"label"`
	Description      string   `json:"description"`
	Unit             string   `json:"unit"`
	CustomUnit       string   `json:"customUnit"`
	Quantity         float64  `json:"quantity"`
	UnitPriceExclTax float64  `json:"unitPriceExclTax"`
	TaxRate          string   `json:"taxRate"`
	CustomTaxRate    string   `json:"customTaxRate"`
	IsGifted         bool     `json:"isGifted"`
	Rooms            []string `json:"rooms"`
}

// UpdateItemRequest edits an existing line; nil fields are left unchanged.
type UpdateItemRequest struct {
	ID               string    `json:"id"`
	Label            *string   `json:"label,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Unit             *string   `json:"unit,omitempty"`
	CustomUnit       *string   `json:"customUnit,omitempty"`
	Quantity         *float64  `json:"quantity,omitempty"`
	UnitPriceExclTax *float64  `json:"unitPriceExclTax,omitempty"`
	TaxRate          *string   `json:"taxRate,omitempty"`
	CustomTaxRate    *string   `json:"customTaxRate,omitempty"`
	Rooms            *[]string `json:"rooms,omitempty"`
}

// LineSummary is one computed line for display.
type LineSummary struct {
	ID                      string   `json:"id"`
	Kind                    ItemKind `json:"kind"`
	LotName                 string   `json:"lotName"`
	Label                   string   `json:"label"`
	Quantity                float64  `json:"quantity"`
	Unit                    string   `json:"unit"`
	UnitPriceExclTax        float64  `json:"unitPriceExclTax"`
	TotalExclTax            float64  `json:"totalExclTax"`
	TaxAmount               float64  `json:"taxAmount"`
	TotalInclTax            float64  `json:"totalInclTax"`
	EffectiveTaxRatePercent float64  `json:"effectiveTaxRatePercent"`
	IsGifted                bool     `json:"isGifted"`
	PreGiftTotalExclTax     float64  `json:"preGiftTotalExclTax,omitempty"`
}

// TaxLine is the tax due at one rate.
type TaxLine struct {
	RatePercent float64 `json:"ratePercent"`
	Base        float64 `json:"base"`
	Amount      float64 `json:"amount"`
}

// Totals are the computed figures of a configuration.
type Totals struct {
	TotalExclTax    float64       `json:"totalExclTax"`
	TaxAmount       float64       `json:"taxAmount"`
	TotalInclTax    float64       `json:"totalInclTax"`
	TaxBreakdown    []TaxLine     `json:"taxBreakdown"`
	TotalGroundArea float64       `json:"totalGroundArea"`
	TotalWallArea   float64       `json:"totalWallArea"`
	Lines           []LineSummary `json:"lines"`
}

// Uploader stores an illustration and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}
