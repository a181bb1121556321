package domain

type MachineStatus string

const (
	MachineStatusAvailable   MachineStatus = "available"
	MachineStatusOccupied    MachineStatus = "occupied"
	MachineStatusMaintenance MachineStatus = "maintenance"
	MachineStatusBreakdown   MachineStatus = "breakdown"
)

// MachineSchedule is a production machine's availability record. Scheduled
// slots are owned by the machine document; the occupancy resolver treats them
// as read-only and assumes slots on one machine do not overlap.
type MachineSchedule struct {
	ID                  string                `gorethink:"id,omitempty" json:"id"`
	MachineNo           string                `gorethink:"machine_no" json:"machine_no"`
	MachineType         string                `gorethink:"machine_type" json:"machine_type"`
	Capacity            float64               `gorethink:"capacity" json:"capacity"` // kg
	Status              MachineStatus         `gorethink:"status" json:"status"`
	CurrentPlan         string                `gorethink:"current_plan,omitempty" json:"current_plan,omitempty"`
	ScheduledPlans      []ScheduledSlot       `gorethink:"scheduled_plans" json:"scheduled_plans"`
	MaintenanceSchedule []MaintenanceSchedule `gorethink:"maintenance_schedule,omitempty" json:"maintenance_schedule,omitempty"`
}

// ScheduledSlot is one occupancy interval on a machine, tied to a plan.
type ScheduledSlot struct {
	PlanID    string       `gorethink:"plan_id" json:"plan_id"`
	PlanName  string       `gorethink:"plan_name" json:"plan_name"`
	StartTime string       `gorethink:"start_time" json:"start_time"` // HH:MM
	EndTime   string       `gorethink:"end_time" json:"end_time"`     // HH:MM
	Color     string       `gorethink:"color" json:"color"`
	Priority  PlanPriority `gorethink:"priority" json:"priority"`
}

type MaintenanceSchedule struct {
	ID                string  `gorethink:"id" json:"id"`
	Type              string  `gorethink:"type" json:"type"` // routine, repair, calibration
	ScheduledDate     string  `gorethink:"scheduled_date" json:"scheduled_date"`
	EstimatedDuration float64 `gorethink:"estimated_duration" json:"estimated_duration"`
	Description       string  `gorethink:"description" json:"description"`
	Status            string  `gorethink:"status" json:"status"` // scheduled, in-progress, completed
}

type CreateMachineRequest struct {
	MachineNo   string  `json:"machine_no" validate:"required"`
	MachineType string  `json:"machine_type" validate:"required"`
	Capacity    float64 `json:"capacity" validate:"gte=0"`
}

// DefaultMachines seeds an empty installation with the standard machine park.
func DefaultMachines() []MachineSchedule {
	return []MachineSchedule{
		{
			MachineNo:      "JET-001",
			MachineType:    "Jet Dyeing Machine",
			Capacity:       500,
			Status:         MachineStatusAvailable,
			ScheduledPlans: []ScheduledSlot{},
		},
		{
			MachineNo:   "JET-002",
			MachineType: "Jet Dyeing Machine",
			Capacity:    750,
			Status:      MachineStatusOccupied,
			ScheduledPlans: []ScheduledSlot{
				{
					PlanID:    "plan1",
					PlanName:  "Cotton Red Batch",
					StartTime: "08:00",
					EndTime:   "16:00",
					Color:     "#EF4444",
					Priority:  PriorityHigh,
				},
			},
		},
		{
			MachineNo:      "JIG-001",
			MachineType:    "Jigger",
			Capacity:       300,
			Status:         MachineStatusMaintenance,
			ScheduledPlans: []ScheduledSlot{},
		},
	}
}
