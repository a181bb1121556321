package planning

import (
	"testing"

	"texhub/internal/domain"
)

func TestTotalWater(t *testing.T) {
	if got := TotalWater(100, 8); !floatEq(got, 800) {
		t.Errorf("TotalWater(100, 8) = %v, want 800", got)
	}
	if got := TotalWater(0, 8); got != 0 {
		t.Errorf("TotalWater(0, 8) = %v, want 0", got)
	}
}

func TestDeriveEndTime(t *testing.T) {
	cases := []struct {
		name     string
		date     string
		start    string
		duration float64
		want     string
		ok       bool
	}{
		{"same day", "2026-08-31", "08:00", 8, "16:00", true},
		{"fractional hours", "2026-08-31", "08:00", 7.5, "15:30", true},
		{"midnight wrap", "2026-08-31", "20:00", 8, "04:00", true},
		{"exactly midnight", "2026-08-31", "16:00", 8, "00:00", true},
		{"no start time", "2026-08-31", "", 8, "", false},
		{"zero duration", "2026-08-31", "08:00", 0, "", false},
		{"negative duration", "2026-08-31", "08:00", -1, "", false},
		{"bad date", "", "08:00", 8, "", false},
	}

	for _, tc := range cases {
		got, ok := DeriveEndTime(tc.date, tc.start, tc.duration)
		if ok != tc.ok || got != tc.want {
			t.Errorf("%s: DeriveEndTime(%q, %q, %v) = (%q, %v), want (%q, %v)",
				tc.name, tc.date, tc.start, tc.duration, got, ok, tc.want, tc.ok)
		}
	}
}

func TestApplyPlanEdit_FabricWeightDrivesTotalWater(t *testing.T) {
	engine := newTestEngine(t)

	plan := domain.DyeingPlan{PlanDate: "2026-08-31", LiquorRatio: 8}
	plan = engine.ApplyPlanEdit(plan, PlanFabricWeight, "100")

	if !floatEq(plan.FabricWeight, 100) {
		t.Errorf("fabric weight = %v, want 100", plan.FabricWeight)
	}
	if !floatEq(plan.TotalWater, 800) {
		t.Errorf("total water = %v, want 800", plan.TotalWater)
	}
	if plan.ScheduledEndTime != "" {
		t.Errorf("end time = %q, fabric edit must not touch schedule fields", plan.ScheduledEndTime)
	}
}

func TestApplyPlanEdit_LiquorRatioUsesPreEditWeight(t *testing.T) {
	engine := newTestEngine(t)

	plan := domain.DyeingPlan{PlanDate: "2026-08-31", FabricWeight: 100, LiquorRatio: 8, TotalWater: 800}
	plan = engine.ApplyPlanEdit(plan, PlanLiquorRatio, "10")

	if !floatEq(plan.TotalWater, 1000) {
		t.Errorf("total water = %v, want 1000", plan.TotalWater)
	}
}

func TestApplyPlanEdit_StartTimeDerivesEndTime(t *testing.T) {
	engine := newTestEngine(t)

	plan := domain.DyeingPlan{PlanDate: "2026-08-31", EstimatedDuration: 8}
	plan = engine.ApplyPlanEdit(plan, PlanScheduledStartTime, "08:00")

	if plan.ScheduledEndTime != "16:00" {
		t.Errorf("end time = %q, want 16:00", plan.ScheduledEndTime)
	}
	if plan.TotalWater != 0 {
		t.Errorf("total water = %v, schedule edit must not touch recipe fields", plan.TotalWater)
	}
}

func TestApplyPlanEdit_DurationMissingStartRetainsEndTime(t *testing.T) {
	engine := newTestEngine(t)

	plan := domain.DyeingPlan{PlanDate: "2026-08-31", ScheduledEndTime: "16:00"}
	plan = engine.ApplyPlanEdit(plan, PlanEstimatedDuration, "8")

	if plan.ScheduledEndTime != "16:00" {
		t.Errorf("end time = %q, want 16:00 retained without a start time", plan.ScheduledEndTime)
	}
}

func TestRecompute_NormalizesWholePlan(t *testing.T) {
	engine := newTestEngine(t)

	dosing := 2.0
	shade := 2.0
	plan := domain.DyeingPlan{
		ID:                 "DP260831ABCD",
		PlanDate:           "2026-08-31",
		FabricWeight:       500,
		LiquorRatio:        8,
		ScheduledStartTime: "20:00",
		EstimatedDuration:  8,
		ChemicalRequirements: []domain.ChemicalRequirement{
			{ID: "c1", Dosing: &dosing, AvailableStock: 3, UnitPrice: 120},
			{ID: "c2", Shade: &shade, AvailableStock: 4, UnitPrice: 50},
		},
	}

	plan = engine.Recompute(plan)

	if !floatEq(plan.TotalWater, 4000) {
		t.Fatalf("total water = %v, want 4000", plan.TotalWater)
	}
	// c1: 2 g/l * 4000 L / 1000 = 8 kg, shortfall 5, cost 600
	if !floatEq(plan.ChemicalRequirements[0].RequiredQuantity, 8) {
		t.Errorf("item c1 required = %v, want 8", plan.ChemicalRequirements[0].RequiredQuantity)
	}
	// c2: 2% of 500 kg = 10 kg, shortfall 6, cost 300
	if !floatEq(plan.ChemicalRequirements[1].RequiredQuantity, 10) {
		t.Errorf("item c2 required = %v, want 10", plan.ChemicalRequirements[1].RequiredQuantity)
	}
	if !floatEq(plan.EstimatedCost, 900) {
		t.Errorf("estimated cost = %v, want 900", plan.EstimatedCost)
	}
	if plan.ScheduledEndTime != "04:00" {
		t.Errorf("end time = %q, want 04:00 (midnight wrap)", plan.ScheduledEndTime)
	}
}

func TestRecompute_DoesNotAliasInputItems(t *testing.T) {
	engine := newTestEngine(t)

	dosing := 2.0
	original := []domain.ChemicalRequirement{{ID: "c1", Dosing: &dosing}}
	plan := domain.DyeingPlan{
		PlanDate:             "2026-08-31",
		FabricWeight:         500,
		LiquorRatio:          8,
		ChemicalRequirements: original,
	}

	engine.Recompute(plan)

	if original[0].RequiredQuantity != 0 {
		t.Errorf("input snapshot mutated: required = %v", original[0].RequiredQuantity)
	}
}
