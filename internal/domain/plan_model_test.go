package domain

import (
	"regexp"
	"testing"
	"time"
)

func TestGeneratePlanID(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	id := GeneratePlanID(now)
	if matched := regexp.MustCompile(`^DP260831[A-Z0-9]{4}$`).MatchString(id); !matched {
		t.Errorf("plan id = %q, want DP260831 plus four alphanumerics", id)
	}
}

func TestNewDyeingPlan_Defaults(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)

	plan := NewDyeingPlan(now, "user-1", "operator")

	if plan.PlanDate != "2026-08-31" {
		t.Errorf("plan date = %q, want today", plan.PlanDate)
	}
	if plan.Status != PlanStatusDraft {
		t.Errorf("status = %q, want draft", plan.Status)
	}
	if plan.Priority != PriorityMedium {
		t.Errorf("priority = %q, want medium", plan.Priority)
	}
	if plan.LiquorRatio != 8 {
		t.Errorf("liquor ratio = %v, want 8", plan.LiquorRatio)
	}
	if plan.EstimatedDuration != 8 {
		t.Errorf("estimated duration = %v, want 8", plan.EstimatedDuration)
	}
	if plan.DyeingMethod != "Reactive Exhaust" || plan.DyeingType != "Fresh Dyeing" {
		t.Errorf("dyeing method/type = %q/%q", plan.DyeingMethod, plan.DyeingType)
	}
	if plan.ChemicalRequirements == nil || plan.QualityChecks == nil {
		t.Error("line item lists must start empty, not nil")
	}
	if plan.UserID != "user-1" || plan.CreatedBy != "operator" {
		t.Errorf("ownership = %q/%q", plan.UserID, plan.CreatedBy)
	}
}
