package planning

import (
	"fmt"
	"time"

	"texhub/internal/domain"
)

// ResolveOccupancy returns the first slot whose [start, end) interval,
// combined with the query date, contains the query instant. The interval is
// half-open: a slot 08:00-16:00 contains 08:00 and 15:59 but not 16:00.
// ok is false when no slot matches or the query is unparseable; callers fall
// back to the machine's own status.
func ResolveOccupancy(slots []domain.ScheduledSlot, date, timeOfDay string) (domain.ScheduledSlot, bool) {
	query, err := time.Parse(instantLayout, date+"T"+timeOfDay)
	if err != nil {
		return domain.ScheduledSlot{}, false
	}

	for _, slot := range slots {
		start, err := time.Parse(instantLayout, date+"T"+slot.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(instantLayout, date+"T"+slot.EndTime)
		if err != nil {
			continue
		}
		if !query.Before(start) && query.Before(end) {
			return slot, true
		}
	}

	return domain.ScheduledSlot{}, false
}

// HourlyTicks lists the 24 grid columns of the schedule view, 00:00..23:00.
func HourlyTicks() []string {
	ticks := make([]string, 24)
	for hour := 0; hour < 24; hour++ {
		ticks[hour] = fmt.Sprintf("%02d:00", hour)
	}
	return ticks
}

// GridCell is one (machine, tick) cell of the occupancy grid. Slot is nil
// when the machine is free at that tick; Level then reflects the machine's
// own status, and Salience how strongly an occupying slot should render.
type GridCell struct {
	Tick     string                `json:"tick"`
	Slot     *domain.ScheduledSlot `json:"slot,omitempty"`
	Level    StatusLevel           `json:"level"`
	Salience Salience              `json:"salience"`
}

// MachineRow is one machine's row of the occupancy grid.
type MachineRow struct {
	Machine     domain.MachineSchedule `json:"machine"`
	StatusLevel StatusLevel            `json:"status_level"`
	Cells       []GridCell             `json:"cells"`
}

// BuildGrid resolves occupancy for every (machine, hourly tick) pair on the
// given date. The scan is linear per cell; machines carry single-digit slot
// counts so nothing smarter is needed.
func BuildGrid(machines []domain.MachineSchedule, date string, catalog Catalog) []MachineRow {
	ticks := HourlyTicks()
	rows := make([]MachineRow, len(machines))

	for i, machine := range machines {
		row := MachineRow{
			Machine:     machine,
			StatusLevel: catalog.StatusLevel(machine.Status),
			Cells:       make([]GridCell, len(ticks)),
		}

		for j, tick := range ticks {
			cell := GridCell{
				Tick:     tick,
				Level:    catalog.StatusLevel(machine.Status),
				Salience: SalienceLeast,
			}
			if slot, ok := ResolveOccupancy(machine.ScheduledPlans, date, tick); ok {
				s := slot
				cell.Slot = &s
				cell.Salience = catalog.PrioritySalience(slot.Priority)
			}
			row.Cells[j] = cell
		}

		rows[i] = row
	}

	return rows
}
