package planning

import (
	"testing"

	"texhub/internal/domain"
)

func TestLineCost(t *testing.T) {
	if got := LineCost(5, 120); !floatEq(got, 600) {
		t.Errorf("LineCost(5, 120) = %v, want 600", got)
	}
	if got := LineCost(0, 120); got != 0 {
		t.Errorf("LineCost(0, 120) = %v, want 0", got)
	}
	// Decimal multiplication keeps fractional prices exact.
	if got := LineCost(3, 0.1); !floatEq(got, 0.3) {
		t.Errorf("LineCost(3, 0.1) = %v, want 0.3", got)
	}
}

func TestAggregateCost(t *testing.T) {
	items := []domain.ChemicalRequirement{
		{ID: "a", TotalCost: 600},
		{ID: "b", TotalCost: 0},
		{ID: "c", TotalCost: 250},
	}

	if got := AggregateCost(items); !floatEq(got, 850) {
		t.Errorf("AggregateCost = %v, want 850", got)
	}
}

func TestAggregateCost_PermutationInvariant(t *testing.T) {
	base := []domain.ChemicalRequirement{
		{ID: "a", TotalCost: 600.12},
		{ID: "b", TotalCost: 0.03},
		{ID: "c", TotalCost: 250.85},
		{ID: "d", TotalCost: 19.99},
	}
	want := AggregateCost(base)

	permutations := [][]int{
		{3, 2, 1, 0},
		{1, 3, 0, 2},
		{2, 0, 3, 1},
	}
	for _, perm := range permutations {
		reordered := make([]domain.ChemicalRequirement, len(base))
		for i, j := range perm {
			reordered[i] = base[j]
		}
		if got := AggregateCost(reordered); got != want {
			t.Errorf("AggregateCost after reorder %v = %v, want %v", perm, got, want)
		}
	}
}

func TestAggregateCost_Empty(t *testing.T) {
	if got := AggregateCost(nil); got != 0 {
		t.Errorf("AggregateCost(nil) = %v, want 0", got)
	}
}
