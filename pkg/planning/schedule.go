package planning

import (
	"time"

	"texhub/internal/domain"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	instantLayout = "2006-01-02T15:04"
)

// TotalWater is the plan's liquor volume in liters.
func TotalWater(fabricWeight, liquorRatio float64) float64 {
	return fabricWeight * liquorRatio
}

// DeriveEndTime combines the plan date with the HH:MM start time, adds the
// estimated duration in hours and formats the result back to HH:MM. Crossing
// midnight wraps to the next day's time of day; the date portion is
// deliberately discarded, so an end of "01:00" does not say which day it
// falls on. ok is false when a prerequisite is missing or unparseable.
func DeriveEndTime(planDate, startTime string, durationHours float64) (string, bool) {
	if startTime == "" || durationHours <= 0 {
		return "", false
	}

	start, err := time.Parse(instantLayout, planDate+"T"+startTime)
	if err != nil {
		return "", false
	}

	end := start.Add(time.Duration(durationHours*3_600_000) * time.Millisecond)
	return end.Format(timeLayout), true
}

// PlanField names an editable plan field the engine derives from.
type PlanField string

const (
	PlanFabricWeight       PlanField = "fabric_weight"
	PlanLiquorRatio        PlanField = "liquor_ratio"
	PlanScheduledStartTime PlanField = "scheduled_start_time"
	PlanEstimatedDuration  PlanField = "estimated_duration"
)

// ApplyPlanEdit applies one raw form edit and recomputes the fields that
// hang off it: fabric weight and liquor ratio drive total water, start time
// and duration drive the scheduled end time. The two derivations are
// independent and never touch each other's fields.
func (e *Engine) ApplyPlanEdit(plan domain.DyeingPlan, field PlanField, raw string) domain.DyeingPlan {
	switch field {
	case PlanFabricWeight:
		plan.FabricWeight = parseNumber(raw)
		plan.TotalWater = TotalWater(plan.FabricWeight, plan.LiquorRatio)

	case PlanLiquorRatio:
		plan.LiquorRatio = parseNumber(raw)
		plan.TotalWater = TotalWater(plan.FabricWeight, plan.LiquorRatio)

	case PlanScheduledStartTime:
		plan.ScheduledStartTime = raw
		if end, ok := DeriveEndTime(plan.PlanDate, plan.ScheduledStartTime, plan.EstimatedDuration); ok {
			plan.ScheduledEndTime = end
		}

	case PlanEstimatedDuration:
		plan.EstimatedDuration = parseNumber(raw)
		if end, ok := DeriveEndTime(plan.PlanDate, plan.ScheduledStartTime, plan.EstimatedDuration); ok {
			plan.ScheduledEndTime = end
		}
	}

	return plan
}
