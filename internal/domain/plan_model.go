package domain

import (
	"fmt"
	"math/rand"
	"time"
)

type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusScheduled  PlanStatus = "scheduled"
	PlanStatusInProgress PlanStatus = "in-progress"
	PlanStatusCompleted  PlanStatus = "completed"
	PlanStatusCancelled  PlanStatus = "cancelled"
)

type PlanPriority string

const (
	PriorityLow    PlanPriority = "low"
	PriorityMedium PlanPriority = "medium"
	PriorityHigh   PlanPriority = "high"
	PriorityUrgent PlanPriority = "urgent"
)

// DyeingPlan is one production job document. Derived fields (total_water,
// scheduled_end_time, estimated_cost and the per-item derived values) are
// owned by the planning engine and recomputed on every edit.
type DyeingPlan struct {
	ID       string       `gorethink:"id,omitempty" json:"id"`
	PlanName string       `gorethink:"plan_name" json:"plan_name"`
	PlanDate string       `gorethink:"plan_date" json:"plan_date"` // YYYY-MM-DD
	Status   PlanStatus   `gorethink:"status" json:"status"`
	Priority PlanPriority `gorethink:"priority" json:"priority"`

	// Customer & order
	CustomerName string `gorethink:"customer_name" json:"customer_name"`
	OrderNumber  string `gorethink:"order_number" json:"order_number"`
	DeliveryDate string `gorethink:"delivery_date" json:"delivery_date"`

	// Fabric
	FabricType   string  `gorethink:"fabric_type" json:"fabric_type"`
	FabricWeight float64 `gorethink:"fabric_weight" json:"fabric_weight"` // kg
	FabricWidth  string  `gorethink:"fabric_width,omitempty" json:"fabric_width,omitempty"`
	GSM          string  `gorethink:"gsm,omitempty" json:"gsm,omitempty"`

	// Dyeing recipe
	Color        string  `gorethink:"color" json:"color"`
	ColorCode    string  `gorethink:"color_code,omitempty" json:"color_code,omitempty"`
	DyeingMethod string  `gorethink:"dyeing_method" json:"dyeing_method"`
	DyeingType   string  `gorethink:"dyeing_type" json:"dyeing_type"`
	LiquorRatio  float64 `gorethink:"liquor_ratio" json:"liquor_ratio"`
	TotalWater   float64 `gorethink:"total_water" json:"total_water"` // liters, derived

	// Machine & resources
	MachineNo         string   `gorethink:"machine_no" json:"machine_no"`
	MachineCapacity   float64  `gorethink:"machine_capacity" json:"machine_capacity"`
	EstimatedDuration float64  `gorethink:"estimated_duration" json:"estimated_duration"` // hours
	ActualDuration    *float64 `gorethink:"actual_duration,omitempty" json:"actual_duration,omitempty"`

	ChemicalRequirements []ChemicalRequirement `gorethink:"chemical_requirements" json:"chemical_requirements"`

	// Scheduling
	ScheduledStartTime string `gorethink:"scheduled_start_time" json:"scheduled_start_time"` // HH:MM
	ScheduledEndTime   string `gorethink:"scheduled_end_time" json:"scheduled_end_time"`     // HH:MM, derived
	ActualStartTime    string `gorethink:"actual_start_time,omitempty" json:"actual_start_time,omitempty"`
	ActualEndTime      string `gorethink:"actual_end_time,omitempty" json:"actual_end_time,omitempty"`

	// Quality & testing
	LabDipNo      string         `gorethink:"lab_dip_no,omitempty" json:"lab_dip_no,omitempty"`
	QualityChecks []QualityCheck `gorethink:"quality_checks" json:"quality_checks"`

	// Cost
	EstimatedCost float64  `gorethink:"estimated_cost" json:"estimated_cost"` // derived
	ActualCost    *float64 `gorethink:"actual_cost,omitempty" json:"actual_cost,omitempty"`

	SpecialInstructions string `gorethink:"special_instructions,omitempty" json:"special_instructions,omitempty"`
	Notes               string `gorethink:"notes,omitempty" json:"notes,omitempty"`

	// Tracking
	CreatedBy  string    `gorethink:"created_by" json:"created_by"`
	AssignedTo string    `gorethink:"assigned_to,omitempty" json:"assigned_to,omitempty"`
	CreatedAt  time.Time `gorethink:"created_at" json:"created_at"`
	UpdatedAt  time.Time `gorethink:"updated_at" json:"updated_at"`
	UserID     string    `gorethink:"user_id" json:"user_id"`
}

// ChemicalRequirement is one recipe line item. Dosing and Shade are mutually
// exclusive: the engine clears one when the other is set. nil means unset,
// which is distinct from zero and re-enables the other field in the UI.
type ChemicalRequirement struct {
	ID               string   `gorethink:"id" json:"id"`
	ChemicalName     string   `gorethink:"chemical_name" json:"chemical_name"`
	Dosing           *float64 `gorethink:"dosing,omitempty" json:"dosing,omitempty"` // g/l
	Shade            *float64 `gorethink:"shade,omitempty" json:"shade,omitempty"`   // % of fabric weight
	RequiredQuantity float64  `gorethink:"required_quantity" json:"required_quantity"` // kg, derived
	AvailableStock   float64  `gorethink:"available_stock" json:"available_stock"`     // kg
	NeedToPurchase   float64  `gorethink:"need_to_purchase" json:"need_to_purchase"`   // kg, derived
	UnitPrice        float64  `gorethink:"unit_price" json:"unit_price"`
	TotalCost        float64  `gorethink:"total_cost" json:"total_cost"` // derived
	Supplier         string   `gorethink:"supplier,omitempty" json:"supplier,omitempty"`
	Notes            string   `gorethink:"notes,omitempty" json:"notes,omitempty"`
}

type CheckStatus string

const (
	CheckStatusPending CheckStatus = "pending"
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusFailed  CheckStatus = "failed"
)

type QualityCheck struct {
	ID            string      `gorethink:"id" json:"id"`
	CheckType     string      `gorethink:"check_type" json:"check_type"` // pre-dyeing, during-dyeing, post-dyeing
	Parameter     string      `gorethink:"parameter" json:"parameter"`
	ExpectedValue string      `gorethink:"expected_value" json:"expected_value"`
	ActualValue   string      `gorethink:"actual_value,omitempty" json:"actual_value,omitempty"`
	Status        CheckStatus `gorethink:"status" json:"status"`
	CheckedBy     string      `gorethink:"checked_by,omitempty" json:"checked_by,omitempty"`
	CheckDate     string      `gorethink:"check_date,omitempty" json:"check_date,omitempty"`
	Notes         string      `gorethink:"notes,omitempty" json:"notes,omitempty"`
}

// PlanSnapshot is an immutable copy of a plan taken after a recompute pass.
// History and read views consume snapshots, never the live document.
type PlanSnapshot struct {
	ID        string     `gorethink:"id,omitempty" json:"id"`
	PlanID    string     `gorethink:"plan_id" json:"plan_id"`
	Plan      DyeingPlan `gorethink:"plan" json:"plan"`
	CreatedAt time.Time  `gorethink:"created_at" json:"created_at"`
}

type CreatePlanRequest struct {
	PlanName     string `json:"plan_name" validate:"required"`
	CustomerName string `json:"customer_name"`
	OrderNumber  string `json:"order_number"`
	UserID       string `json:"user_id" validate:"required"`
	CreatedBy    string `json:"created_by"`
}

const planIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePlanID builds a plan identifier of the form DP + yymmdd + four
// random alphanumeric characters, e.g. DP260831X4K9.
func GeneratePlanID(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = planIDAlphabet[rand.Intn(len(planIDAlphabet))]
	}
	return fmt.Sprintf("DP%s%s", now.Format("060102"), suffix)
}

// NewDyeingPlan returns a plan populated with the standard defaults for a
// freshly opened form.
func NewDyeingPlan(now time.Time, userID, createdBy string) *DyeingPlan {
	return &DyeingPlan{
		ID:                   GeneratePlanID(now),
		PlanDate:             now.Format("2006-01-02"),
		Status:               PlanStatusDraft,
		Priority:             PriorityMedium,
		DyeingMethod:         "Reactive Exhaust",
		DyeingType:           "Fresh Dyeing",
		LiquorRatio:          8,
		EstimatedDuration:    8,
		ChemicalRequirements: []ChemicalRequirement{},
		QualityChecks:        []QualityCheck{},
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
		UserID:               userID,
	}
}
