package domain

import "errors"

var (
	ErrNotFound            = errors.New("not_found")
	ErrNotLoaded           = errors.New("configuration_not_loaded")
	ErrUnknownField        = errors.New("unknown_field")
	ErrInvalidFieldValue   = errors.New("invalid_field_value")
	ErrUnknownSurfaceField = errors.New("unknown_surface_field")
	ErrInvalidSurfaceValue = errors.New("invalid_surface_value")
	ErrRoomNotFound        = errors.New("room_not_found")
	ErrRoomNotSelected     = errors.New("room_not_selected")
	ErrItemNotFound        = errors.New("item_not_found")
	ErrInvalidItemKind     = errors.New("invalid_item_kind")
	ErrEmptyLabel          = errors.New("empty_label")
	ErrEmptyLotName        = errors.New("empty_lot_name")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidCustomUnit   = errors.New("invalid_custom_unit")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrInvalidProject      = errors.New("invalid_project")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrUploadFailed        = errors.New("upload_failed")
)
