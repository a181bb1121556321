package planning

import "texhub/internal/domain"

// StatusLevel classifies a machine status for rendering.
type StatusLevel string

const (
	LevelNeutral  StatusLevel = "neutral"
	LevelInfo     StatusLevel = "info"
	LevelWarning  StatusLevel = "warning"
	LevelCritical StatusLevel = "critical"
)

// Salience ranks slot priorities by how strongly they should be rendered.
// Higher is more salient.
type Salience int

const (
	SalienceLeast Salience = iota
	SalienceMedium
	SalienceHigh
	SalienceMost
)

// Catalog is the process-wide immutable configuration of enumerations the
// planner works with: the recipe/machine vocabularies and the two fixed
// display mappings. Built once at startup and passed in explicitly.
type Catalog struct {
	DyeingMethods []string
	DyeingTypes   []string
	MachineTypes  []string

	statusLevels     map[domain.MachineStatus]StatusLevel
	prioritySalience map[domain.PlanPriority]Salience
}

// DefaultCatalog returns the standard dyehouse vocabulary.
func DefaultCatalog() Catalog {
	return Catalog{
		DyeingMethods: []string{
			"Reactive Pad-Batch",
			"Reactive Exhaust",
			"Disperse Dyeing",
			"Acid Dyeing",
			"Direct Dyeing",
			"Vat Dyeing",
			"Pigment Dyeing",
			"Cold Pad-Batch",
			"Hot Brand",
			"Continuous Dyeing",
		},
		DyeingTypes: []string{
			"Fresh Dyeing",
			"Reprocess",
			"Shade Matching",
			"Bulk Production",
			"Sample Development",
			"Color Correction",
		},
		MachineTypes: []string{
			"Jet Dyeing Machine",
			"Jigger",
			"Winch",
			"Beam Dyeing",
			"Package Dyeing",
			"Hank Dyeing",
			"Continuous Range",
			"Pad-Batch",
		},
		statusLevels: map[domain.MachineStatus]StatusLevel{
			domain.MachineStatusAvailable:   LevelNeutral,
			domain.MachineStatusOccupied:    LevelInfo,
			domain.MachineStatusMaintenance: LevelWarning,
			domain.MachineStatusBreakdown:   LevelCritical,
		},
		prioritySalience: map[domain.PlanPriority]Salience{
			domain.PriorityUrgent: SalienceMost,
			domain.PriorityHigh:   SalienceHigh,
			domain.PriorityMedium: SalienceMedium,
			domain.PriorityLow:    SalienceLeast,
		},
	}
}

// StatusLevel maps a machine status to its display level. Unrecognized
// statuses fall back to neutral.
func (c Catalog) StatusLevel(status domain.MachineStatus) StatusLevel {
	if level, ok := c.statusLevels[status]; ok {
		return level
	}
	return LevelNeutral
}

// PrioritySalience maps a slot priority to its display rank. Unrecognized
// priorities fall back to the least salient rank.
func (c Catalog) PrioritySalience(priority domain.PlanPriority) Salience {
	if s, ok := c.prioritySalience[priority]; ok {
		return s
	}
	return SalienceLeast
}
