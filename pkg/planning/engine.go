package planning

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"texhub/internal/domain"
)

// Конфигурация движка пересчета
type EngineConfig struct {
	Catalog Catalog
	Logger  *zap.Logger
}

// Engine recomputes the derived fields of a dyeing plan and its chemical
// line items. Every method takes a snapshot by value and returns a full
// replacement; the engine itself holds no mutable state.
type Engine struct {
	config EngineConfig
}

// NewEngine создает новый движок
func NewEngine(config EngineConfig) (*Engine, error) {
	if config.Logger == nil {
		logger, _ := zap.NewProduction()
		config.Logger = logger
	}

	if config.Catalog.statusLevels == nil {
		config.Catalog = DefaultCatalog()
	}

	return &Engine{config: config}, nil
}

// Recompute normalizes every derived field of a plan: total water, each line
// item's quantity chain, the cost total and the scheduled end time. Fields
// whose prerequisites are missing keep their last value.
func (e *Engine) Recompute(plan domain.DyeingPlan) domain.DyeingPlan {
	plan.TotalWater = TotalWater(plan.FabricWeight, plan.LiquorRatio)

	items := make([]domain.ChemicalRequirement, len(plan.ChemicalRequirements))
	for i, item := range plan.ChemicalRequirements {
		items[i] = e.DeriveQuantity(item, plan.FabricWeight, plan.TotalWater)
	}
	plan.ChemicalRequirements = items
	plan.EstimatedCost = AggregateCost(items)

	if end, ok := DeriveEndTime(plan.PlanDate, plan.ScheduledStartTime, plan.EstimatedDuration); ok {
		plan.ScheduledEndTime = end
	}

	e.config.Logger.Debug("plan recomputed",
		zap.String("plan_id", plan.ID),
		zap.Float64("total_water", plan.TotalWater),
		zap.Float64("estimated_cost", plan.EstimatedCost),
		zap.Int("items", len(items)),
	)

	return plan
}

// parseNumber coerces raw form input to a number; empty or malformed input
// counts as zero.
func parseNumber(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return v
}

// parseOptional distinguishes "no value" from zero: empty or malformed input
// reports ok=false.
func parseOptional(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
