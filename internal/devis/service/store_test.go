package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/catalog"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/clock"
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// -- Mocks --

type repositoryMock struct {
	mock.Mock
}

func (m *repositoryMock) Create(ctx context.Context, cfg *devisdomain.QuoteConfiguration) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *repositoryMock) UpdateField(ctx context.Context, id string, field devisdomain.Field, value any, updatedAt time.Time) error {
	args := m.Called(ctx, id, field, value, updatedAt)
	return args.Error(0)
}

func (m *repositoryMock) FindByID(ctx context.Context, id string) (*devisdomain.StoredConfiguration, error) {
	args := m.Called(ctx, id)
	res := args.Get(0)
	if res == nil {
		return nil, args.Error(1)
	}
	return res.(*devisdomain.StoredConfiguration), args.Error(1)
}

type uploaderMock struct {
	mock.Mock
}

func (m *uploaderMock) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	args := m.Called(ctx, file, filename)
	return args.String(0), args.Error(1)
}

// -- Helpers --

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("")
	require.NoError(t, err)
	return c
}

func newTestStore(t *testing.T, repo devisdomain.Repository, uploader devisdomain.Uploader) *Store {
	t.Helper()
	c := loadTestCatalog(t)
	pieces := DefaultRooms(c.RoomNames())
	for i := range pieces {
		if pieces[i].Name == "Cuisine" || pieces[i].Name == "Salon" {
			pieces[i].Selected = true
		}
	}
	return newStore(storeDeps{
		repo:     repo,
		clock:    clock.NewFakeClock(testNow),
		log:      zap.NewNop(),
		catalog:  c,
		uploader: uploader,
		taxRates: pricing.StandardTaxRates,
	}, devisdomain.QuoteConfiguration{
		ID:                    "q1",
		ProjectID:             "p1",
		UserID:                "u1",
		DefaultTaxRatePercent: 20,
		Status:                devisdomain.StatusDraft,
		Pieces:                pieces,
		SurfaceData:           []devisdomain.SurfaceRecord{},
		SelectedItems:         []devisdomain.LineItem{},
	})
}

func waitAck(t *testing.T, ack devisdomain.Ack) error {
	t.Helper()
	require.NotNil(t, ack)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return ack.Wait(ctx)
}

// -- Tests --

func TestStore_SetFieldPersistsOneField(t *testing.T) {
	repo := new(repositoryMock)
	store := newTestStore(t, repo, nil)

	release := make(chan time.Time)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldTitle, "Rénovation cuisine", testNow).
		WaitUntil(release).Return(nil).Once()

	assert.Equal(t, devisdomain.StateLoaded, store.State())

	ack, err := store.SetField(context.Background(), devisdomain.FieldTitle, "  Rénovation cuisine ")
	require.NoError(t, err)
	assert.Equal(t, "Rénovation cuisine", store.Get().Title)
	assert.Equal(t, devisdomain.StateDirty, store.State())

	close(release)
	require.NoError(t, waitAck(t, ack))
	assert.Equal(t, devisdomain.StateLoaded, store.State())
	repo.AssertExpectations(t)
}

func TestStore_SetFieldValidationNeverPersists(t *testing.T) {
	repo := new(repositoryMock)
	store := newTestStore(t, repo, nil)

	cases := []struct {
		field devisdomain.Field
		value any
		err   error
	}{
		{devisdomain.FieldStatus, "archived", devisdomain.ErrInvalidStatus},
		{devisdomain.FieldDefaultTaxRatePercent, -1.0, devisdomain.ErrInvalidTaxRate},
		{devisdomain.FieldPieces, []string{}, devisdomain.ErrInvalidFieldValue},
		{devisdomain.FieldPieces, 12, devisdomain.ErrInvalidFieldValue},
		{devisdomain.FieldSurfaceData, []devisdomain.SurfaceRecord{{Room: "Salon", GroundArea: -2}}, devisdomain.ErrInvalidSurfaceValue},
		{devisdomain.FieldSelectedItems, []devisdomain.LineItem{{ID: "a", Quantity: -1}}, devisdomain.ErrInvalidQuantity},
		{devisdomain.Field("comments"), "x", devisdomain.ErrUnknownField},
	}
	for _, tc := range cases {
		ack, err := store.SetField(context.Background(), tc.field, tc.value)
		assert.ErrorIs(t, err, tc.err, string(tc.field))
		assert.Nil(t, ack)
	}
	assert.Equal(t, devisdomain.StateLoaded, store.State())
	repo.AssertNotCalled(t, "UpdateField", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_FailedWriteKeepsOptimisticStateAndDirty(t *testing.T) {
	repo := new(repositoryMock)
	store := newTestStore(t, repo, nil)
	boom := errors.New("firestore unavailable")

	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldStatus, devisdomain.StatusSent, mock.Anything).Return(boom).Once()

	ack, err := store.SetField(context.Background(), devisdomain.FieldStatus, "sent")
	require.NoError(t, err)
	assert.ErrorIs(t, waitAck(t, ack), boom)

	assert.Equal(t, devisdomain.StatusSent, store.Get().Status)
	assert.Equal(t, devisdomain.StateDirty, store.State())
	assert.Equal(t, []devisdomain.Field{devisdomain.FieldStatus}, store.UnsyncedFields())

	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldStatus, devisdomain.StatusAccepted, mock.Anything).Return(nil).Once()
	ack, err = store.SetField(context.Background(), devisdomain.FieldStatus, devisdomain.StatusAccepted)
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))
	assert.Equal(t, devisdomain.StateLoaded, store.State())
}

func TestStore_StaleFailureDoesNotMarkUnsynced(t *testing.T) {
	repo := new(repositoryMock)
	store := newTestStore(t, repo, nil)

	slow := make(chan time.Time)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldTitle, "first", mock.Anything).
		WaitUntil(slow).Return(errors.New("timeout")).Once()
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldTitle, "second", mock.Anything).Return(nil).Once()

	first, err := store.SetField(context.Background(), devisdomain.FieldTitle, "first")
	require.NoError(t, err)
	second, err := store.SetField(context.Background(), devisdomain.FieldTitle, "second")
	require.NoError(t, err)
	require.NoError(t, waitAck(t, second))

	close(slow)
	assert.Error(t, waitAck(t, first))
	assert.Equal(t, devisdomain.StateLoaded, store.State())
	assert.Equal(t, "second", store.Get().Title)
}

func TestStore_WaitGivesUpWithoutCancellingWrite(t *testing.T) {
	repo := new(repositoryMock)
	store := newTestStore(t, repo, nil)

	release := make(chan time.Time)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldTitle, "x", mock.Anything).
		WaitUntil(release).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	ack, err := store.SetField(ctx, devisdomain.FieldTitle, "x")
	require.NoError(t, err)
	cancel()
	assert.ErrorIs(t, ack.Wait(ctx), context.Canceled)

	close(release)
	require.NoError(t, store.Drain(context.Background()))
	repo.AssertExpectations(t)
}

func TestStore_PiecesWriteKeepsOmittedRooms(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldPieces, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	before := store.Get().Pieces

	ack, err := store.SetField(context.Background(), devisdomain.FieldPieces, []devisdomain.Room{{Name: "Cuisine", Selected: true, Count: 2}})
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))

	pieces := store.Get().Pieces
	require.Len(t, pieces, len(before))
	assert.Equal(t, devisdomain.Room{Name: "Cuisine", Selected: true, Count: 2}, pieces[0])
	assert.Equal(t, []devisdomain.Room{{Name: "Cuisine", Selected: true, Count: 2}}, store.Get().SelectedRooms())

	// Salon was selected before the write; it is still there, deselected.
	_, _, err = store.EditSurface(context.Background(), "Salon", devisdomain.SurfaceGroundArea, 12)
	assert.ErrorIs(t, err, devisdomain.ErrRoomNotSelected)

	ack, err = store.SetField(context.Background(), devisdomain.FieldPieces, []string{"Salon"})
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))
	assert.Len(t, store.Get().Pieces, len(before))

	written := repo.Calls[len(repo.Calls)-1].Arguments.Get(3).([]devisdomain.Room)
	assert.Len(t, written, len(before), "the persisted list carries every room")
}

func TestStore_ActiveSurfacesDefaultsAndFilters(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)

	ack, err := store.SetField(context.Background(), devisdomain.FieldSurfaceData, []devisdomain.SurfaceRecord{
		{Room: "Salon", GroundArea: 30, CeilingHeight: 2.6},
		{Room: "WC", GroundArea: 2, CeilingHeight: 2.5},
	})
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))

	assert.Equal(t, []devisdomain.SurfaceRecord{
		{Room: "Cuisine", CeilingHeight: 2.5},
		{Room: "Salon", GroundArea: 30, CeilingHeight: 2.6},
	}, store.ActiveSurfaces())
	assert.Len(t, store.Get().SurfaceData, 2)
}

func TestStore_EditSurfaceWorkedExample(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSurfaceData, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)

	rec, ack, err := store.EditSurface(context.Background(), "Cuisine", devisdomain.SurfaceGroundArea, 20)
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))

	assert.Equal(t, devisdomain.SurfaceRecord{
		Room:          "Cuisine",
		GroundArea:    20,
		WallPerimeter: 18.14,
		WallArea:      45.36,
		CeilingHeight: 2.5,
	}, rec)
	assert.Equal(t, []devisdomain.SurfaceRecord{rec}, store.Get().SurfaceData)
}

func TestStore_EditSurfaceErrors(t *testing.T) {
	store := newTestStore(t, new(repositoryMock), nil)
	ctx := context.Background()

	_, _, err := store.EditSurface(ctx, "Garage", devisdomain.SurfaceGroundArea, 10)
	assert.ErrorIs(t, err, devisdomain.ErrRoomNotSelected)

	_, _, err = store.EditSurface(ctx, "Véranda", devisdomain.SurfaceGroundArea, 10)
	assert.ErrorIs(t, err, devisdomain.ErrRoomNotFound)

	_, _, err = store.EditSurface(ctx, "Cuisine", devisdomain.SurfaceGroundArea, -1)
	assert.ErrorIs(t, err, devisdomain.ErrInvalidSurfaceValue)
}

func TestApplySurfaceEdit_UpdatePolicy(t *testing.T) {
	cases := []struct {
		name  string
		in    devisdomain.SurfaceRecord
		field devisdomain.SurfaceField
		value float64
		want  devisdomain.SurfaceRecord
	}{
		{
			name:  "ground area recomputes walls",
			in:    devisdomain.SurfaceRecord{Room: "A", WallPerimeter: 99, WallArea: 99, CeilingHeight: 2.5},
			field: devisdomain.SurfaceGroundArea, value: 20,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 20, WallPerimeter: 18.14, WallArea: 45.36, CeilingHeight: 2.5},
		},
		{
			name:  "ground area adopts default height",
			in:    devisdomain.SurfaceRecord{Room: "A"},
			field: devisdomain.SurfaceGroundArea, value: 20,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 20, WallPerimeter: 18.14, WallArea: 45.36, CeilingHeight: 2.5},
		},
		{
			name:  "zero ground area clears walls",
			in:    devisdomain.SurfaceRecord{Room: "A", GroundArea: 20, WallPerimeter: 18.14, WallArea: 45.36, CeilingHeight: 2.5},
			field: devisdomain.SurfaceGroundArea, value: 0,
			want: devisdomain.SurfaceRecord{Room: "A", CeilingHeight: 2.5},
		},
		{
			name:  "height recomputes from ground area",
			in:    devisdomain.SurfaceRecord{Room: "A", GroundArea: 20, WallPerimeter: 18.14, WallArea: 45.36, CeilingHeight: 2.5},
			field: devisdomain.SurfaceCeilingHeight, value: 3,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 20, WallPerimeter: 18.14, WallArea: 54.43, CeilingHeight: 3},
		},
		{
			name:  "height without ground area uses perimeter",
			in:    devisdomain.SurfaceRecord{Room: "A", WallPerimeter: 10, WallArea: 25, CeilingHeight: 2.5},
			field: devisdomain.SurfaceCeilingHeight, value: 3,
			want: devisdomain.SurfaceRecord{Room: "A", WallPerimeter: 10, WallArea: 30, CeilingHeight: 3},
		},
		{
			name:  "perimeter keeps a known ground area",
			in:    devisdomain.SurfaceRecord{Room: "A", GroundArea: 15, CeilingHeight: 2.5},
			field: devisdomain.SurfaceWallPerimeter, value: 12,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 15, WallPerimeter: 12, WallArea: 30, CeilingHeight: 2.5},
		},
		{
			name:  "perimeter fills unset ground area",
			in:    devisdomain.SurfaceRecord{Room: "A"},
			field: devisdomain.SurfaceWallPerimeter, value: 12,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 8.75, WallPerimeter: 12, WallArea: 30, CeilingHeight: 2.5},
		},
		{
			name:  "wall area fills only unset fields",
			in:    devisdomain.SurfaceRecord{Room: "A", GroundArea: 15, CeilingHeight: 2.5},
			field: devisdomain.SurfaceWallArea, value: 30,
			want: devisdomain.SurfaceRecord{Room: "A", GroundArea: 15, WallPerimeter: 12, WallArea: 30, CeilingHeight: 2.5},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applySurfaceEdit(tc.in, tc.field, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStore_AddCatalogItem(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)

	item, ack, err := store.AddCatalogItem(context.Background(), devisdomain.CatalogSelection{
		LotName:         "peinture",
		SubcategoryName: "Murs",
		ItemName:        "Peinture murale",
		OptionLabel:     "Acrylique mate 2 couches",
		Quantity:        45.36,
		Rooms:           []string{"Cuisine"},
	})
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, devisdomain.ItemKindCatalog, item.Kind)
	assert.Equal(t, 22.0, item.UnitPriceExclTax)
	assert.Equal(t, "m²", item.Unit)
	require.NotNil(t, item.TaxRatePercent)
	assert.Equal(t, 10.0, *item.TaxRatePercent)
	assert.Equal(t, []devisdomain.Room{{Name: "Cuisine", Selected: true, Count: 1}}, item.Rooms)
	assert.Len(t, store.Get().SelectedItems, 1)

	// Démolition options carry no rate: the quote default applies.
	item, _, err = store.AddCatalogItem(context.Background(), devisdomain.CatalogSelection{
		LotName: "Démolition", SubcategoryName: "Dépose", ItemName: "Dépose de revêtement de sol", OptionLabel: "Moquette",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, item.Quantity)
	assert.Equal(t, 20.0, *item.TaxRatePercent)

	_, _, err = store.AddCatalogItem(context.Background(), devisdomain.CatalogSelection{LotName: "Toiture"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	_, _, err = store.AddCatalogItem(context.Background(), devisdomain.CatalogSelection{
		LotName: "Peinture", SubcategoryName: "Murs", ItemName: "Peinture murale", OptionLabel: "Acrylique mate 2 couches",
		Rooms: []string{"Garage"},
	})
	assert.ErrorIs(t, err, devisdomain.ErrRoomNotSelected)
	require.NoError(t, store.Drain(context.Background()))
}

func TestStore_AddCustomItemValidation(t *testing.T) {
	store := newTestStore(t, new(repositoryMock), nil)

	cases := []struct {
		name string
		req  devisdomain.CustomItemRequest
		err  error
	}{
		{"missing label", devisdomain.CustomItemRequest{Quantity: 1}, devisdomain.ErrEmptyLabel},
		{"negative quantity", devisdomain.CustomItemRequest{Label: "Pose", Quantity: -1}, devisdomain.ErrInvalidQuantity},
		{"negative price", devisdomain.CustomItemRequest{Label: "Pose", Quantity: 1, UnitPriceExclTax: -5}, devisdomain.ErrInvalidPrice},
		{"numeric unit", devisdomain.CustomItemRequest{Label: "Pose", Quantity: 1, CustomUnit: "12"}, devisdomain.ErrInvalidCustomUnit},
		{"long unit", devisdomain.CustomItemRequest{Label: "Pose", Quantity: 1, CustomUnit: strings.Repeat("m", 33)}, devisdomain.ErrInvalidCustomUnit},
		{"bad custom rate", devisdomain.CustomItemRequest{Label: "Pose", Quantity: 1, TaxRate: "custom", CustomTaxRate: "dix"}, pricing.ErrInvalidCustomTaxRate},
		{"lot header without lot", devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindLotHeader}, devisdomain.ErrEmptyLotName},
		{"text without label", devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindText}, devisdomain.ErrEmptyLabel},
		{"catalog kind", devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindCatalog, Label: "x"}, devisdomain.ErrInvalidItemKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ack, err := store.AddCustomItem(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.err)
			assert.Nil(t, ack)
		})
	}
	assert.Empty(t, store.Get().SelectedItems)
}

func TestStore_AddCustomItemVariants(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	ctx := context.Background()

	prestation, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{
		Label: "Pose de crédence", Quantity: 2, UnitPriceExclTax: 120,
		TaxRate: "autre", CustomTaxRate: "8,5 %", CustomUnit: "ml",
	})
	require.NoError(t, err)
	assert.Equal(t, devisdomain.ItemKindPrestation, prestation.Kind)
	assert.Equal(t, 8.5, *prestation.TaxRatePercent)
	assert.Equal(t, "ml", prestation.DisplayUnit())

	gifted, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{
		Label: "Nettoyage de fin de chantier", Quantity: 1, UnitPriceExclTax: 150, TaxRate: "10", IsGifted: true,
	})
	require.NoError(t, err)
	assert.True(t, gifted.IsGifted)
	assert.Zero(t, gifted.UnitPriceExclTax)
	assert.Equal(t, 150.0, *gifted.OriginalPrice)

	header, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindLotHeader, LotName: "Menuiserie", UnitPriceExclTax: 40})
	require.NoError(t, err)
	assert.Equal(t, "Menuiserie", header.Label)
	assert.Zero(t, header.UnitPriceExclTax)

	text, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindText, Label: "Accès par l'escalier"})
	require.NoError(t, err)
	assert.Nil(t, text.TaxRatePercent)

	unset, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{Label: "Divers", Quantity: 1, UnitPriceExclTax: 10})
	require.NoError(t, err)
	assert.Equal(t, 20.0, *unset.TaxRatePercent)
	assert.Equal(t, "u", unset.Unit)

	require.NoError(t, store.Drain(ctx))
	assert.Len(t, store.Get().SelectedItems, 5)
}

func TestStore_GiftToggleRoundTrip(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	ctx := context.Background()

	item, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{
		Label: "Peinture", Quantity: 3, UnitPriceExclTax: 50, TaxRate: "10",
	})
	require.NoError(t, err)

	totals := store.Totals()
	assert.InDelta(t, 150, totals.TotalExclTax, 1e-9)
	assert.InDelta(t, 15, totals.TaxAmount, 1e-9)
	assert.InDelta(t, 165, totals.TotalInclTax, 1e-9)

	gifted, _, err := store.SetItemGifted(ctx, item.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 50.0, *gifted.OriginalPrice)
	totals = store.Totals()
	assert.Zero(t, totals.TotalExclTax)
	assert.Zero(t, totals.TotalInclTax)
	assert.InDelta(t, 150, totals.Lines[0].PreGiftTotalExclTax, 1e-9)

	desc := "Deux couches"
	_, _, err = store.UpdateItem(ctx, devisdomain.UpdateItemRequest{ID: item.ID, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, 50.0, *store.Get().SelectedItems[0].OriginalPrice)

	restored, _, err := store.SetItemGifted(ctx, item.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 50.0, restored.UnitPriceExclTax)
	assert.InDelta(t, 165, store.Totals().TotalInclTax, 1e-9)

	require.NoError(t, store.Drain(ctx))
}

func TestStore_UpdateAndRemoveItem(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	ctx := context.Background()

	item, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{Label: "Pose", Quantity: 1, UnitPriceExclTax: 10})
	require.NoError(t, err)

	qty, price, rate := 4.0, 12.5, "5.5"
	rooms := []string{"Salon"}
	updated, _, err := store.UpdateItem(ctx, devisdomain.UpdateItemRequest{
		ID: item.ID, Quantity: &qty, UnitPriceExclTax: &price, TaxRate: &rate, Rooms: &rooms,
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, updated.Quantity)
	assert.Equal(t, 12.5, updated.UnitPriceExclTax)
	assert.Equal(t, 5.5, *updated.TaxRatePercent)
	assert.Equal(t, "Salon", updated.Rooms[0].Name)

	empty := " "
	_, _, err = store.UpdateItem(ctx, devisdomain.UpdateItemRequest{ID: item.ID, Label: &empty})
	assert.ErrorIs(t, err, devisdomain.ErrEmptyLabel)
	_, _, err = store.UpdateItem(ctx, devisdomain.UpdateItemRequest{ID: "missing"})
	assert.ErrorIs(t, err, devisdomain.ErrItemNotFound)

	ack, err := store.RemoveItem(ctx, item.ID)
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))
	assert.Empty(t, store.Get().SelectedItems)

	_, err = store.RemoveItem(ctx, item.ID)
	assert.ErrorIs(t, err, devisdomain.ErrItemNotFound)
}

func TestStore_ConcurrentEditsKeepEveryItem(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	ctx := context.Background()

	const workers = 64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{
				Label: fmt.Sprintf("Prestation %d", i), Quantity: 1, UnitPriceExclTax: 10,
			})
			assert.NoError(t, err)
			_, _, err = store.EditSurface(ctx, "Cuisine", devisdomain.SurfaceGroundArea, float64(i+1))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	require.NoError(t, store.Drain(ctx))

	cfg := store.Get()
	assert.Len(t, cfg.SelectedItems, workers)
	assert.Len(t, cfg.SurfaceData, 1)
	assert.InDelta(t, 10*workers, store.Totals().TotalExclTax, 1e-9)
}

func TestStore_SetItemGiftedRejectsUnpricedLines(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)

	text, _, err := store.AddCustomItem(context.Background(), devisdomain.CustomItemRequest{Kind: devisdomain.ItemKindText, Label: "Note"})
	require.NoError(t, err)
	_, _, err = store.SetItemGifted(context.Background(), text.ID, true)
	assert.ErrorIs(t, err, devisdomain.ErrInvalidItemKind)
	require.NoError(t, store.Drain(context.Background()))
}

func TestStore_SetItemImage(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, "q1", devisdomain.FieldSelectedItems, mock.Anything, mock.Anything).Return(nil)
	uploader := new(uploaderMock)
	store := newTestStore(t, repo, uploader)
	ctx := context.Background()

	item, _, err := store.AddCustomItem(ctx, devisdomain.CustomItemRequest{Label: "Crédence", Quantity: 1, UnitPriceExclTax: 10})
	require.NoError(t, err)

	uploader.On("Upload", mock.Anything, mock.Anything, "credence.jpg").Return("https://cdn.example/credence.jpg", nil).Once()
	updated, ack, err := store.SetItemImage(ctx, item.ID, strings.NewReader("jpeg"), "credence.jpg")
	require.NoError(t, err)
	require.NoError(t, waitAck(t, ack))
	assert.Equal(t, "https://cdn.example/credence.jpg", updated.CustomImage)

	uploader.On("Upload", mock.Anything, mock.Anything, "broken.jpg").Return("", errors.New("413")).Once()
	kept, ack, err := store.SetItemImage(ctx, item.ID, strings.NewReader("jpeg"), "broken.jpg")
	assert.ErrorIs(t, err, devisdomain.ErrUploadFailed)
	assert.Nil(t, ack)
	assert.Equal(t, "https://cdn.example/credence.jpg", kept.CustomImage)
	assert.Equal(t, "https://cdn.example/credence.jpg", store.Get().SelectedItems[0].CustomImage)

	_, _, err = store.SetItemImage(ctx, "missing", strings.NewReader(""), "x.jpg")
	assert.ErrorIs(t, err, devisdomain.ErrItemNotFound)
	uploader.AssertExpectations(t)
}

func TestStore_TotalsIncludeAreasOfSelectedRooms(t *testing.T) {
	repo := new(repositoryMock)
	repo.On("UpdateField", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	store := newTestStore(t, repo, nil)
	ctx := context.Background()

	_, _, err := store.EditSurface(ctx, "Cuisine", devisdomain.SurfaceGroundArea, 20)
	require.NoError(t, err)
	_, _, err = store.EditSurface(ctx, "Salon", devisdomain.SurfaceGroundArea, 10)
	require.NoError(t, err)
	require.NoError(t, store.Drain(ctx))

	totals := store.Totals()
	assert.InDelta(t, 30, totals.TotalGroundArea, 1e-9)
	assert.Greater(t, totals.TotalWallArea, 45.36)
	assert.Empty(t, totals.TaxBreakdown)
}
