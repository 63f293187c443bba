package models

// MaterialRequirement is computed per material type from an order's line items.
// It is a snapshot: AvailableQty is the stock at derivation time.
type MaterialRequirement struct {
	MaterialType   string  `json:"material_type"`
	Description    string  `json:"description"`
	RequiredQty    float64 `json:"required_qty"`
	AvailableQty   float64 `json:"available_qty"`
	Unit           string  `json:"unit"`
	StockAvailable bool    `json:"stock_available"`
	NeedsReorder   bool    `json:"needs_reorder"`
	MinStockLevel  float64 `json:"min_stock_level"`
	StockCode      string  `json:"stock_code,omitempty"`
}

// Shortfall is requiredQty - availableQty, floored at zero
func (m MaterialRequirement) Shortfall() float64 {
	if d := m.RequiredQty - m.AvailableQty; d > 0 {
		return d
	}
	return 0
}

// RequirementResult is the output of a derivation run
type RequirementResult struct {
	Requirements       []MaterialRequirement `json:"requirements"`
	RequiredOperations []string              `json:"required_operations"`
	HasMaterialRequest bool                  `json:"has_material_request"`
}

// Shortfalls returns the requirements that stock cannot cover
func (r *RequirementResult) Shortfalls() []MaterialRequirement {
	var out []MaterialRequirement
	for _, req := range r.Requirements {
		if !req.StockAvailable {
			out = append(out, req)
		}
	}
	return out
}
