package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxCustomUnitLength = 32
	defaultCustomUnit   = "u"
)

// AddCatalogItem appends a line built from a catalog option. The option's
// tax rate applies, or the quote default when the option has none.
func (s *Store) AddCatalogItem(ctx context.Context, req devisdomain.CatalogSelection) (devisdomain.LineItem, devisdomain.Ack, error) {
	if s.catalog == nil {
		return devisdomain.LineItem{}, nil, devisdomain.ErrItemNotFound
	}
	opt, err := s.catalog.Lookup(req.LotName, req.SubcategoryName, req.ItemName, req.OptionLabel)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}

	quantity := req.Quantity
	if !nonNegative(quantity) {
		return devisdomain.LineItem{}, nil, devisdomain.ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	rooms, err := linkRooms(cfg, req.Rooms)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}

	rate := cfg.DefaultTaxRatePercent
	if opt.TaxRatePercent != nil {
		rate = *opt.TaxRatePercent
	}

	item := devisdomain.LineItem{
		ID:               uuid.NewString(),
		Kind:             devisdomain.ItemKindCatalog,
		LotName:          strings.TrimSpace(req.LotName),
		SubcategoryName:  strings.TrimSpace(req.SubcategoryName),
		ItemName:         strings.TrimSpace(req.ItemName),
		Label:            opt.Label,
		UnitPriceExclTax: opt.UnitPriceExclTax,
		Unit:             opt.Unit,
		Description:      opt.Description,
		Quantity:         quantity,
		Rooms:            rooms,
		TaxRatePercent:   &rate,
	}
	ack, err := s.writeItems(ctx, append(cfg.SelectedItems, item))
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}
	return item, ack, nil
}

// AddCustomItem appends a hand-authored line: a priced prestation, a lot
// header or an informational text.
func (s *Store) AddCustomItem(ctx context.Context, req devisdomain.CustomItemRequest) (devisdomain.LineItem, devisdomain.Ack, error) {
	kind := req.Kind
	if kind == "" {
		kind = devisdomain.ItemKindPrestation
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	rooms, err := linkRooms(cfg, req.Rooms)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}

	item := devisdomain.LineItem{
		ID:              uuid.NewString(),
		Kind:            kind,
		LotName:         strings.TrimSpace(req.LotName),
		SubcategoryName: strings.TrimSpace(req.SubcategoryName),
		Label:           strings.TrimSpace(req.Label),
		Description:     strings.TrimSpace(req.Description),
		Rooms:           rooms,
	}

	switch kind {
	case devisdomain.ItemKindLotHeader:
		if item.LotName == "" {
			return devisdomain.LineItem{}, nil, devisdomain.ErrEmptyLotName
		}
		if item.Label == "" {
			item.Label = item.LotName
		}
	case devisdomain.ItemKindText:
		if item.Label == "" {
			return devisdomain.LineItem{}, nil, devisdomain.ErrEmptyLabel
		}
	case devisdomain.ItemKindPrestation:
		if item.Label == "" {
			return devisdomain.LineItem{}, nil, devisdomain.ErrEmptyLabel
		}
		if !nonNegative(req.Quantity) {
			return devisdomain.LineItem{}, nil, devisdomain.ErrInvalidQuantity
		}
		if !nonNegative(req.UnitPriceExclTax) {
			return devisdomain.LineItem{}, nil, devisdomain.ErrInvalidPrice
		}
		customUnit, err := validateCustomUnit(req.CustomUnit)
		if err != nil {
			return devisdomain.LineItem{}, nil, err
		}
		rate, err := s.chooseTaxRate(req.TaxRate, req.CustomTaxRate, cfg.DefaultTaxRatePercent)
		if err != nil {
			return devisdomain.LineItem{}, nil, err
		}

		item.Quantity = req.Quantity
		item.UnitPriceExclTax = req.UnitPriceExclTax
		item.Unit = strings.TrimSpace(req.Unit)
		item.CustomUnit = customUnit
		if item.Unit == "" && item.CustomUnit == "" {
			item.Unit = defaultCustomUnit
		}
		item.TaxRatePercent = rate
		if req.IsGifted {
			item = pricing.SetGifted(item, true)
		}
	default:
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %q", devisdomain.ErrInvalidItemKind, kind)
	}

	ack, err := s.writeItems(ctx, append(cfg.SelectedItems, item))
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}
	return item, ack, nil
}

// UpdateItem edits the fields set in req. Price edits on a gifted line go
// to the captured original price.
func (s *Store) UpdateItem(ctx context.Context, req devisdomain.UpdateItemRequest) (devisdomain.LineItem, devisdomain.Ack, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	index := cfg.FindItem(req.ID)
	if index < 0 {
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrItemNotFound, req.ID)
	}
	item := cfg.SelectedItems[index].Clone()

	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if label == "" {
			return devisdomain.LineItem{}, nil, devisdomain.ErrEmptyLabel
		}
		item.Label = label
	}
	if req.Description != nil {
		item.Description = strings.TrimSpace(*req.Description)
	}
	if req.Unit != nil {
		item.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.CustomUnit != nil {
		customUnit, err := validateCustomUnit(*req.CustomUnit)
		if err != nil {
			return devisdomain.LineItem{}, nil, err
		}
		item.CustomUnit = customUnit
	}
	if req.Quantity != nil {
		if !nonNegative(*req.Quantity) {
			return devisdomain.LineItem{}, nil, devisdomain.ErrInvalidQuantity
		}
		item.Quantity = *req.Quantity
	}
	if req.UnitPriceExclTax != nil && item.Kind.Priced() {
		if !nonNegative(*req.UnitPriceExclTax) {
			return devisdomain.LineItem{}, nil, devisdomain.ErrInvalidPrice
		}
		item = pricing.SetUnitPrice(item, *req.UnitPriceExclTax)
	}
	if req.TaxRate != nil || req.CustomTaxRate != nil {
		rate, err := s.chooseTaxRate(deref(req.TaxRate), deref(req.CustomTaxRate), cfg.DefaultTaxRatePercent)
		if err != nil {
			return devisdomain.LineItem{}, nil, err
		}
		item.TaxRatePercent = rate
	}
	if req.Rooms != nil {
		rooms, err := linkRooms(cfg, *req.Rooms)
		if err != nil {
			return devisdomain.LineItem{}, nil, err
		}
		item.Rooms = rooms
	}

	cfg.SelectedItems[index] = item
	ack, err := s.writeItems(ctx, cfg.SelectedItems)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}
	return item, ack, nil
}

func (s *Store) RemoveItem(ctx context.Context, id string) (devisdomain.Ack, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	index := cfg.FindItem(id)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", devisdomain.ErrItemNotFound, id)
	}
	items := append(cfg.SelectedItems[:index:index], cfg.SelectedItems[index+1:]...)
	return s.writeItems(ctx, items)
}

// SetItemGifted toggles the gift flag of a priced line.
func (s *Store) SetItemGifted(ctx context.Context, id string, gifted bool) (devisdomain.LineItem, devisdomain.Ack, error) {
	s.editMu.Lock()
	defer s.editMu.Unlock()

	cfg := s.Get()
	index := cfg.FindItem(id)
	if index < 0 {
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrItemNotFound, id)
	}
	item := cfg.SelectedItems[index]
	if !item.Kind.Priced() {
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %s lines cannot be gifted", devisdomain.ErrInvalidItemKind, item.Kind)
	}

	item = pricing.SetGifted(item, gifted)
	cfg.SelectedItems[index] = item
	ack, err := s.writeItems(ctx, cfg.SelectedItems)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}
	return item, ack, nil
}

// SetItemImage uploads an illustration and links it to the line. When the
// upload fails the line keeps its previous image and the error is returned.
func (s *Store) SetItemImage(ctx context.Context, id string, file io.Reader, filename string) (devisdomain.LineItem, devisdomain.Ack, error) {
	cfg := s.Get()
	index := cfg.FindItem(id)
	if index < 0 {
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrItemNotFound, id)
	}
	if s.uploader == nil {
		return cfg.SelectedItems[index], nil, fmt.Errorf("%w: no uploader configured", devisdomain.ErrUploadFailed)
	}

	url, err := s.uploader.Upload(ctx, file, filename)
	if err == nil && strings.TrimSpace(url) == "" {
		err = errors.New("empty url")
	}
	s.metrics.IncUpload(err)
	if err != nil {
		s.log.Warn("image upload failed",
			zap.String("item_id", id),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return cfg.SelectedItems[index], nil, fmt.Errorf("%w: %v", devisdomain.ErrUploadFailed, err)
	}

	// The upload can take a while; apply the url to the latest state.
	s.editMu.Lock()
	defer s.editMu.Unlock()
	cfg = s.Get()
	index = cfg.FindItem(id)
	if index < 0 {
		return devisdomain.LineItem{}, nil, fmt.Errorf("%w: %s", devisdomain.ErrItemNotFound, id)
	}
	cfg.SelectedItems[index].CustomImage = url
	item := cfg.SelectedItems[index]

	ack, err := s.writeItems(ctx, cfg.SelectedItems)
	if err != nil {
		return devisdomain.LineItem{}, nil, err
	}
	return item, ack, nil
}

func (s *Store) writeItems(ctx context.Context, items []devisdomain.LineItem) (devisdomain.Ack, error) {
	return s.SetField(ctx, devisdomain.FieldSelectedItems, items)
}

// chooseTaxRate resolves the rate selector of the item form. An unset
// selector takes the quote default.
func (s *Store) chooseTaxRate(selection, customText string, quoteDefault float64) (*float64, error) {
	choice := pricing.ParseTaxRateChoice(selection, customText, s.taxRates...)
	if err := choice.Validate(); err != nil {
		return nil, err
	}
	if choice.Mode == pricing.TaxRateUnset {
		rate := quoteDefault
		return &rate, nil
	}
	return choice.Rate(), nil
}

// validateCustomUnit accepts an empty unit or a short non-numeric label.
func validateCustomUnit(raw string) (string, error) {
	unit := strings.TrimSpace(raw)
	if unit == "" {
		return "", nil
	}
	if utf8.RuneCountInString(unit) > maxCustomUnitLength {
		return "", fmt.Errorf("%w: longer than %d characters", devisdomain.ErrInvalidCustomUnit, maxCustomUnitLength)
	}
	if _, err := strconv.ParseFloat(strings.ReplaceAll(unit, ",", "."), 64); err == nil {
		return "", fmt.Errorf("%w: %q is a number", devisdomain.ErrInvalidCustomUnit, unit)
	}
	return unit, nil
}

// linkRooms resolves room names against the quote's rooms. Linked rooms
// must exist and be selected.
func linkRooms(cfg devisdomain.QuoteConfiguration, names []string) ([]devisdomain.Room, error) {
	rooms := make([]devisdomain.Room, 0, len(names))
	seen := map[string]struct{}{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		var match *devisdomain.Room
		for i := range cfg.Pieces {
			if cfg.Pieces[i].Name == name {
				match = &cfg.Pieces[i]
				break
			}
		}
		if match == nil {
			return nil, fmt.Errorf("%w: %s", devisdomain.ErrRoomNotFound, name)
		}
		if !match.Selected {
			return nil, fmt.Errorf("%w: %s", devisdomain.ErrRoomNotSelected, name)
		}
		rooms = append(rooms, *match)
	}
	return rooms, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
