package planning

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"texhub/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestApplyItemEdit_DosingDerivesQuantity(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1", ChemicalName: "Soda Ash"}
	item = engine.ApplyItemEdit(item, ItemDosing, "2", 500, 4000)

	if item.Dosing == nil || *item.Dosing != 2 {
		t.Fatalf("dosing = %v, want 2", item.Dosing)
	}
	if item.Shade != nil {
		t.Errorf("shade = %v, want unset", *item.Shade)
	}
	// 2 g/l * 4000 L / 1000 = 8 kg
	if !floatEq(item.RequiredQuantity, 8) {
		t.Errorf("required quantity = %v, want 8", item.RequiredQuantity)
	}
}

func TestApplyItemEdit_ShadeDerivesQuantity(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1", ChemicalName: "Reactive Red"}
	item = engine.ApplyItemEdit(item, ItemShade, "2", 500, 4000)

	if item.Shade == nil || *item.Shade != 2 {
		t.Fatalf("shade = %v, want 2", item.Shade)
	}
	if item.Dosing != nil {
		t.Errorf("dosing = %v, want unset", *item.Dosing)
	}
	// 2% of 500 kg = 10 kg
	if !floatEq(item.RequiredQuantity, 10) {
		t.Errorf("required quantity = %v, want 10", item.RequiredQuantity)
	}
}

func TestApplyItemEdit_DosingAndShadeAreMutuallyExclusive(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1"}
	item = engine.ApplyItemEdit(item, ItemDosing, "3", 500, 4000)
	item = engine.ApplyItemEdit(item, ItemShade, "1.5", 500, 4000)

	if item.Dosing != nil {
		t.Errorf("dosing = %v after shade edit, want unset", *item.Dosing)
	}
	if item.Shade == nil || *item.Shade != 1.5 {
		t.Fatalf("shade = %v, want 1.5", item.Shade)
	}

	item = engine.ApplyItemEdit(item, ItemDosing, "3", 500, 4000)
	if item.Shade != nil {
		t.Errorf("shade = %v after dosing edit, want unset", *item.Shade)
	}
	if item.Dosing == nil || *item.Dosing != 3 {
		t.Fatalf("dosing = %v, want 3", item.Dosing)
	}
}

func TestApplyItemEdit_EmptyInputUnsetsDosing(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1"}
	item = engine.ApplyItemEdit(item, ItemDosing, "2", 500, 4000)
	item = engine.ApplyItemEdit(item, ItemDosing, "", 500, 4000)

	if item.Dosing != nil {
		t.Errorf("dosing = %v after clearing, want unset", *item.Dosing)
	}
	// Unset is not zero: the previously derived quantity survives.
	if !floatEq(item.RequiredQuantity, 8) {
		t.Errorf("required quantity = %v after clearing, want 8 retained", item.RequiredQuantity)
	}
}

func TestApplyItemEdit_ZeroDosingRetainsQuantity(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1"}
	item = engine.ApplyItemEdit(item, ItemDosing, "2", 500, 4000)
	item = engine.ApplyItemEdit(item, ItemDosing, "0", 500, 4000)

	if item.Dosing == nil || *item.Dosing != 0 {
		t.Fatalf("dosing = %v, want 0", item.Dosing)
	}
	if !floatEq(item.RequiredQuantity, 8) {
		t.Errorf("required quantity = %v, want 8 retained on zero dosing", item.RequiredQuantity)
	}
}

func TestApplyItemEdit_MissingTotalWaterSkipsDerivation(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1", RequiredQuantity: 5}
	item = engine.ApplyItemEdit(item, ItemDosing, "2", 500, 0)

	if item.Dosing == nil || *item.Dosing != 2 {
		t.Fatalf("dosing = %v, want 2", item.Dosing)
	}
	if !floatEq(item.RequiredQuantity, 5) {
		t.Errorf("required quantity = %v, want 5 retained without total water", item.RequiredQuantity)
	}
}

func TestApplyItemEdit_ManualQuantityOverrideWins(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1"}
	item = engine.ApplyItemEdit(item, ItemDosing, "2", 500, 4000)
	item = engine.ApplyItemEdit(item, ItemRequiredQuantity, "12.5", 500, 4000)

	if !floatEq(item.RequiredQuantity, 12.5) {
		t.Errorf("required quantity = %v, want 12.5 (manual override)", item.RequiredQuantity)
	}
	// The dosing basis is untouched by a direct quantity edit.
	if item.Dosing == nil || *item.Dosing != 2 {
		t.Errorf("dosing = %v, want 2 retained", item.Dosing)
	}
}

func TestApplyItemEdit_InvalidNumericInputCoercesToZero(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1", AvailableStock: 7}
	item = engine.ApplyItemEdit(item, ItemAvailableStock, "abc", 500, 4000)

	if item.AvailableStock != 0 {
		t.Errorf("available stock = %v, want 0 for invalid input", item.AvailableStock)
	}
}

func TestApplyItemEdit_NeedToPurchase(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1"}
	item = engine.ApplyItemEdit(item, ItemRequiredQuantity, "8", 0, 0)
	item = engine.ApplyItemEdit(item, ItemAvailableStock, "3", 0, 0)
	if !floatEq(item.NeedToPurchase, 5) {
		t.Errorf("need to purchase = %v, want 5", item.NeedToPurchase)
	}

	item = engine.ApplyItemEdit(item, ItemAvailableStock, "11", 0, 0)
	if item.NeedToPurchase != 0 {
		t.Errorf("need to purchase = %v, want 0 when stock covers demand", item.NeedToPurchase)
	}
}

func TestApplyItemEdit_RecomputesCostOnUnrelatedEdit(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{
		ID:               "c1",
		RequiredQuantity: 8,
		AvailableStock:   3,
		UnitPrice:        120,
	}
	item = engine.ApplyItemEdit(item, ItemSupplier, "Acme Chemicals", 0, 0)

	if !floatEq(item.NeedToPurchase, 5) {
		t.Errorf("need to purchase = %v, want 5", item.NeedToPurchase)
	}
	if !floatEq(item.TotalCost, 600) {
		t.Errorf("total cost = %v, want 600", item.TotalCost)
	}
	if item.Supplier != "Acme Chemicals" {
		t.Errorf("supplier = %q", item.Supplier)
	}
}

func TestDeriveQuantity_FromDosing(t *testing.T) {
	engine := newTestEngine(t)

	d := 2.0
	item := domain.ChemicalRequirement{ID: "c1", Dosing: &d, AvailableStock: 3, UnitPrice: 120}
	item = engine.DeriveQuantity(item, 500, 4000)

	if !floatEq(item.RequiredQuantity, 8) {
		t.Errorf("required quantity = %v, want 8", item.RequiredQuantity)
	}
	if !floatEq(item.NeedToPurchase, 5) {
		t.Errorf("need to purchase = %v, want 5", item.NeedToPurchase)
	}
	if !floatEq(item.TotalCost, 600) {
		t.Errorf("total cost = %v, want 600", item.TotalCost)
	}
}

func TestDeriveQuantity_BothFieldsSetDosingWins(t *testing.T) {
	engine := newTestEngine(t)

	d, s := 2.0, 5.0
	item := domain.ChemicalRequirement{ID: "c1", Dosing: &d, Shade: &s}
	item = engine.DeriveQuantity(item, 500, 4000)

	if item.Shade != nil {
		t.Errorf("shade = %v, want cleared when both fields arrive set", *item.Shade)
	}
	if !floatEq(item.RequiredQuantity, 8) {
		t.Errorf("required quantity = %v, want 8 (dosing basis)", item.RequiredQuantity)
	}
}

func TestDeriveQuantity_NoBasisRetainsQuantity(t *testing.T) {
	engine := newTestEngine(t)

	item := domain.ChemicalRequirement{ID: "c1", RequiredQuantity: 4.5}
	item = engine.DeriveQuantity(item, 500, 4000)

	if !floatEq(item.RequiredQuantity, 4.5) {
		t.Errorf("required quantity = %v, want 4.5 retained", item.RequiredQuantity)
	}
}
