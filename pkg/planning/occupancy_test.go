package planning

import (
	"testing"

	"texhub/internal/domain"
)

func daySlots() []domain.ScheduledSlot {
	return []domain.ScheduledSlot{
		{
			PlanID:    "plan1",
			PlanName:  "Cotton Red Batch",
			StartTime: "08:00",
			EndTime:   "16:00",
			Priority:  domain.PriorityHigh,
		},
	}
}

func TestResolveOccupancy_HalfOpenInterval(t *testing.T) {
	slots := daySlots()

	cases := []struct {
		timeOfDay string
		want      bool
	}{
		{"08:00", true},  // inclusive start
		{"12:00", true},
		{"15:59", true},
		{"16:00", false}, // exclusive end
		{"07:59", false},
		{"23:00", false},
	}

	for _, tc := range cases {
		slot, ok := ResolveOccupancy(slots, "2026-08-31", tc.timeOfDay)
		if ok != tc.want {
			t.Errorf("ResolveOccupancy at %s = %v, want %v", tc.timeOfDay, ok, tc.want)
		}
		if ok && slot.PlanID != "plan1" {
			t.Errorf("ResolveOccupancy at %s returned plan %q", tc.timeOfDay, slot.PlanID)
		}
	}
}

func TestResolveOccupancy_NoSlots(t *testing.T) {
	if _, ok := ResolveOccupancy(nil, "2026-08-31", "12:00"); ok {
		t.Error("ResolveOccupancy with no slots reported a match")
	}
}

func TestResolveOccupancy_FirstMatchWins(t *testing.T) {
	slots := []domain.ScheduledSlot{
		{PlanID: "first", StartTime: "08:00", EndTime: "12:00"},
		{PlanID: "second", StartTime: "10:00", EndTime: "14:00"},
	}

	slot, ok := ResolveOccupancy(slots, "2026-08-31", "11:00")
	if !ok || slot.PlanID != "first" {
		t.Errorf("ResolveOccupancy = (%q, %v), want first slot in stored order", slot.PlanID, ok)
	}
}

func TestResolveOccupancy_BadQueryTime(t *testing.T) {
	if _, ok := ResolveOccupancy(daySlots(), "2026-08-31", "noon"); ok {
		t.Error("ResolveOccupancy accepted an unparseable query time")
	}
}

func TestHourlyTicks(t *testing.T) {
	ticks := HourlyTicks()
	if len(ticks) != 24 {
		t.Fatalf("len(ticks) = %d, want 24", len(ticks))
	}
	if ticks[0] != "00:00" || ticks[9] != "09:00" || ticks[23] != "23:00" {
		t.Errorf("ticks = %v, want zero-padded hours", ticks)
	}
}

func TestBuildGrid(t *testing.T) {
	machines := []domain.MachineSchedule{
		{
			ID:             "m1",
			MachineNo:      "JET-002",
			Status:         domain.MachineStatusOccupied,
			ScheduledPlans: daySlots(),
		},
		{
			ID:        "m2",
			MachineNo: "JIG-001",
			Status:    domain.MachineStatusMaintenance,
		},
	}

	rows := BuildGrid(machines, "2026-08-31", DefaultCatalog())
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}

	jet := rows[0]
	if jet.StatusLevel != LevelInfo {
		t.Errorf("JET-002 status level = %q, want info", jet.StatusLevel)
	}
	if len(jet.Cells) != 24 {
		t.Fatalf("len(cells) = %d, want 24", len(jet.Cells))
	}

	// 08:00 tick falls inside the slot, 16:00 does not.
	at8 := jet.Cells[8]
	if at8.Slot == nil || at8.Slot.PlanID != "plan1" {
		t.Errorf("cell 08:00 slot = %v, want plan1", at8.Slot)
	}
	if at8.Salience != SalienceHigh {
		t.Errorf("cell 08:00 salience = %v, want high", at8.Salience)
	}
	at16 := jet.Cells[16]
	if at16.Slot != nil {
		t.Errorf("cell 16:00 slot = %v, want none (exclusive end)", at16.Slot)
	}
	if at16.Level != LevelInfo {
		t.Errorf("cell 16:00 level = %q, want machine status fallback", at16.Level)
	}

	jig := rows[1]
	if jig.StatusLevel != LevelWarning {
		t.Errorf("JIG-001 status level = %q, want warning", jig.StatusLevel)
	}
	for _, cell := range jig.Cells {
		if cell.Slot != nil {
			t.Fatalf("JIG-001 cell %s has a slot, want none", cell.Tick)
		}
	}
}

func TestCatalogDefaults(t *testing.T) {
	cat := DefaultCatalog()

	if got := cat.StatusLevel(domain.MachineStatusBreakdown); got != LevelCritical {
		t.Errorf("breakdown level = %q, want critical", got)
	}
	if got := cat.StatusLevel(domain.MachineStatus("retooling")); got != LevelNeutral {
		t.Errorf("unknown status level = %q, want neutral default", got)
	}
	if got := cat.PrioritySalience(domain.PriorityUrgent); got != SalienceMost {
		t.Errorf("urgent salience = %v, want most", got)
	}
	if got := cat.PrioritySalience(domain.PlanPriority("whenever")); got != SalienceLeast {
		t.Errorf("unknown priority salience = %v, want least default", got)
	}
}
