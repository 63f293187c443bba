package services

import (
	"context"
	"fmt"
	"strings"

	"store-service/internal/models"
	"store-service/internal/repository"

	"go.uber.org/zap"
)

// MaterialRule maps a description to a material type when any keyword is a
// substring of the lower-cased description.
type MaterialRule struct {
	Keywords []string
	Material string
	Unit     string
}

// OperationRule adds Operations when any keyword appears verbatim in the description
type OperationRule struct {
	Keywords   []string
	Operations []string
}

// FallbackMaterial is the type of any non-empty description no rule matches
const FallbackMaterial = "Raw Material"

// MaterialRules is evaluated in order; the first match wins
var MaterialRules = []MaterialRule{
	{Keywords: []string{"steel"}, Material: "Steel Plate", Unit: "kg"},
	{Keywords: []string{"aluminum", "aluminium"}, Material: "Aluminum Sheet", Unit: "sheets"},
	{Keywords: []string{"plastic"}, Material: "Plastic Raw Material", Unit: "kg"},
	{Keywords: []string{"fastener", "bolt", "screw"}, Material: "Fasteners", Unit: "pcs"},
	{Keywords: []string{"bearing", "bushing"}, Material: "Bearings", Unit: "pcs"},
	{Keywords: []string{"electrical", "wire"}, Material: "Electrical Components", Unit: "pcs"},
}

// OperationRules keywords are matched case-sensitively
var OperationRules = []OperationRule{
	{Keywords: []string{"assembly"}, Operations: []string{"Cutting", "Assembly", "Testing", "Packaging"}},
	{Keywords: []string{"fabrication"}, Operations: []string{"Cutting", "Welding", "Grinding", "Painting", "Packaging"}},
	{Keywords: []string{"machined", "precision"}, Operations: []string{"CNC Machining", "Drilling", "Finishing", "Quality Check", "Packaging"}},
}

// DefaultOperations apply to a line item no operation rule matches
var DefaultOperations = []string{"Production", "Quality Check", "Packaging"}

const fallbackUnit = "units"

// RequirementDeriver turns order line items into material requirements and the
// operations the work order needs. It reads stock but never writes.
type RequirementDeriver interface {
	Derive(ctx context.Context, lineItems []models.LineItem) (*models.RequirementResult, error)
	// ClassifyMaterial returns the material type of description, false when it is blank
	ClassifyMaterial(description string) (string, bool)
	DeriveOperations(lineItems []models.LineItem) []string
}

type requirementDeriver struct {
	stock          repository.StockRepository
	materialRules  []MaterialRule
	operationRules []OperationRule
	logger         *zap.Logger
}

func NewRequirementDeriver(stock repository.StockRepository, logger *zap.Logger) RequirementDeriver {
	return NewRequirementDeriverWithRules(stock, MaterialRules, OperationRules, logger)
}

// NewRequirementDeriverWithRules builds a deriver over custom rule tables
func NewRequirementDeriverWithRules(stock repository.StockRepository, materials []MaterialRule, operations []OperationRule, logger *zap.Logger) RequirementDeriver {
	return &requirementDeriver{
		stock:          stock,
		materialRules:  materials,
		operationRules: operations,
		logger:         logger,
	}
}

func (d *requirementDeriver) ClassifyMaterial(description string) (string, bool) {
	rule, ok := d.matchMaterial(description)
	if !ok {
		return "", false
	}
	return rule.Material, true
}

func (d *requirementDeriver) matchMaterial(description string) (MaterialRule, bool) {
	text := strings.ToLower(strings.TrimSpace(description))
	if text == "" {
		return MaterialRule{}, false
	}
	for _, rule := range d.materialRules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule, true
			}
		}
	}
	return MaterialRule{Material: FallbackMaterial, Unit: fallbackUnit}, true
}

func (d *requirementDeriver) DeriveOperations(lineItems []models.LineItem) []string {
	seen := make(map[string]bool)
	var operations []string
	add := func(ops []string) {
		for _, op := range ops {
			if !seen[op] {
				seen[op] = true
				operations = append(operations, op)
			}
		}
	}

	for _, li := range lineItems {
		if strings.TrimSpace(li.Description) == "" {
			continue
		}
		matched := false
		for _, rule := range d.operationRules {
			if containsAny(li.Description, rule.Keywords) {
				add(rule.Operations)
				matched = true
			}
		}
		if !matched {
			add(DefaultOperations)
		}
	}
	return operations
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// aggregate sums positive quantities per material type in order of first appearance
type aggregate struct {
	material     string
	descriptions []string
	qty          float64
	unit         string
}

func (d *requirementDeriver) Derive(ctx context.Context, lineItems []models.LineItem) (*models.RequirementResult, error) {
	logger := d.logger.With(
		zap.String("operation", "derive_requirements"),
		zap.Int("line_items", len(lineItems)),
	)

	var order []string
	byMaterial := make(map[string]*aggregate)
	for _, li := range lineItems {
		rule, ok := d.matchMaterial(li.Description)
		if !ok {
			logger.Debug("Line item skipped: empty description")
			continue
		}
		if !isFinite(li.Qty) || li.Qty <= 0 {
			logger.Debug("Line item skipped: non-positive quantity",
				zap.String("description", li.Description),
				zap.Float64("qty", li.Qty))
			continue
		}

		agg, exists := byMaterial[rule.Material]
		if !exists {
			agg = &aggregate{material: rule.Material, unit: rule.Unit}
			byMaterial[rule.Material] = agg
			order = append(order, rule.Material)
		}
		agg.qty += li.Qty
		agg.descriptions = append(agg.descriptions, strings.TrimSpace(li.Description))
	}

	items, err := d.stock.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock for derivation: %w", err)
	}
	// List is ordered by code, so the first item per material wins deterministically
	stockByMaterial := make(map[string]*models.StockItem, len(items))
	for _, item := range items {
		if _, exists := stockByMaterial[item.Material]; !exists {
			stockByMaterial[item.Material] = item
		}
	}

	result := &models.RequirementResult{
		Requirements:       make([]models.MaterialRequirement, 0, len(order)),
		RequiredOperations: d.DeriveOperations(lineItems),
	}
	for _, material := range order {
		agg := byMaterial[material]
		req := models.MaterialRequirement{
			MaterialType: material,
			Description:  strings.Join(agg.descriptions, "; "),
			RequiredQty:  agg.qty,
			Unit:         agg.unit,
		}
		if item, ok := stockByMaterial[material]; ok {
			req.AvailableQty = item.CurrentStock
			req.MinStockLevel = item.MinStock
			req.StockCode = item.Code
			if item.Unit != "" {
				req.Unit = item.Unit
			}
			req.NeedsReorder = item.CurrentStock < agg.qty
		}
		req.StockAvailable = req.AvailableQty >= req.RequiredQty
		if !req.StockAvailable {
			result.HasMaterialRequest = true
		}
		result.Requirements = append(result.Requirements, req)
	}

	logger.Info("Requirements derived",
		zap.Int("requirements", len(result.Requirements)),
		zap.Strings("operations", result.RequiredOperations),
		zap.Bool("has_material_request", result.HasMaterialRequest))

	return result, nil
}
