package services

import (
	"context"
	"testing"

	"store-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyMaterial(t *testing.T) {
	svc, _ := newTestServices(t, Options{})

	tests := []struct {
		description string
		want        string
		ok          bool
	}{
		{"Custom Assembly, Red finish", FallbackMaterial, true},
		{"Mild STEEL bracket", "Steel Plate", true},
		{"Aluminium enclosure", "Aluminum Sheet", true},
		{"Plastic cover", "Plastic Raw Material", true},
		{"Hex bolt M8", "Fasteners", true},
		{"Bronze bushing", "Bearings", true},
		{"Control wire harness", "Electrical Components", true},
		// first rule wins
		{"Steel screw kit", "Steel Plate", true},
		{"   ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got, ok := svc.Requirements.ClassifyMaterial(tt.description)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveOperations(t *testing.T) {
	svc, _ := newTestServices(t, Options{})

	tests := []struct {
		name  string
		lines []models.LineItem
		want  []string
	}{
		{
			name:  "no keyword",
			lines: []models.LineItem{{Description: "Custom Assembly, Red finish", Qty: 1}},
			want:  []string{"Production", "Quality Check", "Packaging"},
		},
		{
			name:  "fabrication",
			lines: []models.LineItem{{Description: "steel frame fabrication", Qty: 1}},
			want:  []string{"Cutting", "Welding", "Grinding", "Painting", "Packaging"},
		},
		{
			name:  "keywords are case sensitive",
			lines: []models.LineItem{{Description: "Precision Fabrication", Qty: 1}},
			want:  []string{"Production", "Quality Check", "Packaging"},
		},
		{
			name: "union keeps first appearance",
			lines: []models.LineItem{
				{Description: "panel fabrication", Qty: 1},
				{Description: "precision shaft", Qty: 1},
				{Description: "sub assembly", Qty: 1},
			},
			want: []string{
				"Cutting", "Welding", "Grinding", "Painting", "Packaging",
				"CNC Machining", "Drilling", "Finishing", "Quality Check", "Assembly", "Testing",
			},
		},
		{
			name:  "blank lines contribute nothing",
			lines: []models.LineItem{{Description: "", Qty: 4}},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Requirements.DeriveOperations(tt.lines))
		})
	}
}

func TestDerive_FastenersAgainstSeed(t *testing.T) {
	svc, _ := newSeededServices(t)
	ctx := context.Background()

	covered, err := svc.Requirements.Derive(ctx, []models.LineItem{{Description: "M6 fastener set", Qty: 2}})
	require.NoError(t, err)
	require.Len(t, covered.Requirements, 1)
	req := covered.Requirements[0]
	assert.Equal(t, "Fasteners", req.MaterialType)
	assert.Equal(t, 2.0, req.RequiredQty)
	assert.Equal(t, 25.0, req.AvailableQty)
	assert.Equal(t, "FST-M6", req.StockCode)
	assert.Equal(t, 50.0, req.MinStockLevel)
	assert.True(t, req.StockAvailable)
	assert.False(t, req.NeedsReorder)
	assert.False(t, covered.HasMaterialRequest)

	short, err := svc.Requirements.Derive(ctx, []models.LineItem{{Description: "M6 fastener set", Qty: 100}})
	require.NoError(t, err)
	require.Len(t, short.Requirements, 1)
	assert.False(t, short.Requirements[0].StockAvailable)
	assert.True(t, short.Requirements[0].NeedsReorder)
	assert.Equal(t, 75.0, short.Requirements[0].Shortfall())
	assert.True(t, short.HasMaterialRequest)
}

func TestDerive_AggregatesPerMaterial(t *testing.T) {
	svc, _ := newSeededServices(t)

	result, err := svc.Requirements.Derive(context.Background(), []models.LineItem{
		{Description: "", Qty: 3},
		{Description: "steel rod", Qty: 0},
		{Description: "Steel rod", Qty: 4},
		{Description: "Custom Assembly, Red finish", Qty: 5},
		{Description: "steel sheet", Qty: 6},
	})
	require.NoError(t, err)

	require.Len(t, result.Requirements, 2)

	steel := result.Requirements[0]
	assert.Equal(t, "Steel Plate", steel.MaterialType)
	assert.Equal(t, 10.0, steel.RequiredQty)
	assert.Equal(t, "Steel rod; steel sheet", steel.Description)
	assert.Equal(t, "kg", steel.Unit)
	assert.True(t, steel.StockAvailable)

	raw := result.Requirements[1]
	assert.Equal(t, FallbackMaterial, raw.MaterialType)
	assert.Equal(t, 0.0, raw.AvailableQty)
	assert.Equal(t, "units", raw.Unit)
	assert.False(t, raw.StockAvailable)
	assert.Empty(t, raw.StockCode)

	assert.True(t, result.HasMaterialRequest)
	assert.Equal(t, []models.MaterialRequirement{raw}, result.Shortfalls())
}

func TestDerive_DoesNotWriteStock(t *testing.T) {
	svc, store := newSeededServices(t)
	before := stockByCode(t, store, "FST-M6")

	_, err := svc.Requirements.Derive(context.Background(), []models.LineItem{{Description: "bolts", Qty: 1000}})
	require.NoError(t, err)

	after := stockByCode(t, store, "FST-M6")
	assert.Equal(t, before.CurrentStock, after.CurrentStock)
	assert.Equal(t, before.Revision, after.Revision)
}
