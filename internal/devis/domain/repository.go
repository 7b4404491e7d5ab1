package domain

import (
	"context"
	"encoding/json"
	"time"
)

// StoredConfiguration is a configuration as read back from the document store,
// before its list fields are normalized. The list fields stay raw because
// older documents store them in legacy shapes.
type StoredConfiguration struct {
	ID                    string          `json:"id"`
	ProjectID             string          `json:"projectId"`
	UserID                string          `json:"userId"`
	Title                 string          `json:"title"`
	Number                string          `json:"number"`
	DefaultTaxRatePercent *float64        `json:"defaultTaxRatePercent"`
	Status                Status          `json:"status"`
	Pieces                json.RawMessage `json:"pieces"`
	SurfaceData           json.RawMessage `json:"surfaceData"`
	SelectedItems         json.RawMessage `json:"selectedItems"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// Repository persists quote configurations as documents.
type Repository interface {
	Create(ctx context.Context, cfg *QuoteConfiguration) (string, error)
	UpdateField(ctx context.Context, id string, field Field, value any, updatedAt time.Time) error
	FindByID(ctx context.Context, id string) (*StoredConfiguration, error)
}
