package service

import (
	"encoding/json"
	"testing"

	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalogRooms = []string{"Cuisine", "Salon", "WC"}

func TestNormalizeRooms_NamesEqualRecords(t *testing.T) {
	fromNames := NormalizeRooms(devisdomain.RoomNames("Kitchen", "Bath"))
	fromRecords := NormalizeRooms(devisdomain.RoomRecords(
		devisdomain.Room{Name: "Kitchen", Selected: false, Count: 1},
		devisdomain.Room{Name: "Bath", Selected: false, Count: 1},
	))
	assert.Equal(t, fromRecords, fromNames)
	assert.Equal(t, []devisdomain.Room{
		{Name: "Kitchen", Count: 1},
		{Name: "Bath", Count: 1},
	}, fromNames)
}

func TestNormalizeRooms_Canonicalizes(t *testing.T) {
	got := NormalizeRooms(devisdomain.RoomRecords(
		devisdomain.Room{Name: "  Salon ", Selected: true, Count: 0},
		devisdomain.Room{Name: ""},
		devisdomain.Room{Name: "Salon", Count: 3},
		devisdomain.Room{Name: "Chambre", Count: 2},
	))
	assert.Equal(t, []devisdomain.Room{
		{Name: "Salon", Selected: true, Count: 1},
		{Name: "Chambre", Count: 2},
	}, got)
}

func TestNormalizeRooms_Idempotent(t *testing.T) {
	inputs := []devisdomain.RoomList{
		devisdomain.RoomNames("Cuisine", " WC", "Cuisine"),
		devisdomain.RoomRecords(devisdomain.Room{Name: "Salon", Selected: true, Count: -2}),
		devisdomain.ParseRoomList(json.RawMessage(`["Cuisine", {"name":"WC","selected":true,"count":2}]`)),
	}
	for _, in := range inputs {
		once := NormalizeRooms(in)
		twice := NormalizeRooms(devisdomain.RoomRecords(once...))
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeRooms_OtherShapesAreEmpty(t *testing.T) {
	assert.Empty(t, NormalizeRooms(devisdomain.RoomList{Kind: devisdomain.RoomListAbsent}))
	assert.Empty(t, NormalizeRooms(devisdomain.RoomList{Kind: devisdomain.RoomListUnknown}))
}

func TestNormalizeSelectedAsRooms_FlattensItemEmbedded(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"a","rooms":["Salon", {"name":"Cuisine","selected":false,"count":1}]},
		{"id":"b","rooms":[{"name":"Cuisine","selected":true,"count":2}]},
		{"id":"c","rooms":[]}
	]`)
	list := devisdomain.ParseRoomList(raw)
	require.Equal(t, devisdomain.RoomListItemEmbedded, list.Kind)

	got := NormalizeSelectedAsRooms(list, testCatalogRooms)
	assert.Equal(t, []devisdomain.Room{
		{Name: "Salon", Selected: true, Count: 1},
		{Name: "Cuisine", Selected: true, Count: 2},
		{Name: "WC", Count: 1},
	}, got)
}

func TestNormalizeSelectedAsRooms_FallsBackToCatalog(t *testing.T) {
	want := []devisdomain.Room{
		{Name: "Cuisine", Count: 1},
		{Name: "Salon", Count: 1},
		{Name: "WC", Count: 1},
	}
	for _, raw := range []string{``, `null`, `[]`, `{"not":"a list"}`, `[1,2,3]`} {
		got := NormalizeSelectedAsRooms(devisdomain.ParseRoomList(json.RawMessage(raw)), testCatalogRooms)
		assert.Equal(t, want, got, raw)
	}
}

func TestNormalizeSelectedAsRooms_RecordsPassThrough(t *testing.T) {
	list := devisdomain.RoomRecords(devisdomain.Room{Name: "Bureau", Selected: true, Count: 1})
	got := NormalizeSelectedAsRooms(list, testCatalogRooms)
	assert.Equal(t, []devisdomain.Room{{Name: "Bureau", Selected: true, Count: 1}}, got)
}

func TestNormalizeSurfaces(t *testing.T) {
	raw := json.RawMessage(`[
		{"room":"Salon","groundArea":"12,5","wallPerimeter":-3,"wallArea":null,"ceilingHeight":0},
		{"room":"","groundArea":10},
		{"room":"Cuisine","groundArea":9},
		{"room":"Cuisine","groundArea":11,"ceilingHeight":2.7}
	]`)
	got := normalizeSurfaces(raw)
	assert.Equal(t, []devisdomain.SurfaceRecord{
		{Room: "Salon", GroundArea: 12.5, CeilingHeight: 2.5},
		{Room: "Cuisine", GroundArea: 11, CeilingHeight: 2.7},
	}, got)

	assert.Empty(t, normalizeSurfaces(json.RawMessage(`"nope"`)))
}

func TestNormalizeItems(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"x","label":"Peinture","quantity":"3","unitPriceExclTax":"50","taxRatePercent":"10","rooms":["Salon"]},
		{"id":"x","kind":"lot_header","label":"Plomberie","unitPriceExclTax":99},
		{"label":"Offert","unitPriceExclTax":40,"isGifted":true,"quantity":-1},
		{"kind":"mystery","label":"Sans quantité","unitPriceExclTax":5}
	]`)
	items := normalizeItems(raw)
	require.Len(t, items, 4)

	assert.Equal(t, "x", items[0].ID)
	assert.Equal(t, devisdomain.ItemKindCatalog, items[0].Kind)
	assert.Equal(t, 3.0, items[0].Quantity)
	assert.Equal(t, 50.0, items[0].UnitPriceExclTax)
	require.NotNil(t, items[0].TaxRatePercent)
	assert.Equal(t, 10.0, *items[0].TaxRatePercent)
	assert.Equal(t, []devisdomain.Room{{Name: "Salon", Selected: true, Count: 1}}, items[0].Rooms)

	assert.NotEqual(t, "x", items[1].ID)
	assert.NotEmpty(t, items[1].ID)
	assert.Equal(t, devisdomain.ItemKindLotHeader, items[1].Kind)
	assert.Zero(t, items[1].UnitPriceExclTax)

	assert.True(t, items[2].IsGifted)
	assert.Zero(t, items[2].UnitPriceExclTax)
	require.NotNil(t, items[2].OriginalPrice)
	assert.Equal(t, 40.0, *items[2].OriginalPrice)
	assert.Zero(t, items[2].Quantity)

	assert.Equal(t, devisdomain.ItemKindCatalog, items[3].Kind)
	assert.Equal(t, 1.0, items[3].Quantity)
	assert.Nil(t, items[3].TaxRatePercent)
}

func TestNormalizeStored_LegacyItemEmbeddedRooms(t *testing.T) {
	stored := devisdomain.StoredConfiguration{
		ID:            "42",
		Status:        "bogus",
		SelectedItems: json.RawMessage(`[{"id":"a","label":"Carrelage","quantity":2,"unitPriceExclTax":10,"rooms":["Cuisine"]}]`),
	}
	cfg := normalizeStored(stored, testCatalogRooms)

	assert.Equal(t, devisdomain.StatusDraft, cfg.Status)
	assert.Equal(t, 20.0, cfg.DefaultTaxRatePercent)
	assert.Equal(t, []devisdomain.Room{
		{Name: "Cuisine", Selected: true, Count: 1},
		{Name: "Salon", Count: 1},
		{Name: "WC", Count: 1},
	}, cfg.Pieces)
	assert.Empty(t, cfg.SurfaceData)
	require.Len(t, cfg.SelectedItems, 1)
}

func TestNormalizeStored_PiecesWin(t *testing.T) {
	rate := 5.5
	stored := devisdomain.StoredConfiguration{
		ID:                    "42",
		Status:                devisdomain.StatusSent,
		DefaultTaxRatePercent: &rate,
		Pieces:                json.RawMessage(`["Salon","Bureau"]`),
		SelectedItems:         json.RawMessage(`[{"id":"a","rooms":["Cuisine"]}]`),
	}
	cfg := normalizeStored(stored, testCatalogRooms)

	assert.Equal(t, devisdomain.StatusSent, cfg.Status)
	assert.Equal(t, 5.5, cfg.DefaultTaxRatePercent)
	assert.Equal(t, []devisdomain.Room{{Name: "Salon", Count: 1}, {Name: "Bureau", Count: 1}}, cfg.Pieces)
}
