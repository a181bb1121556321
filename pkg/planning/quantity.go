package planning

import (
	"go.uber.org/zap"

	"texhub/internal/domain"
)

// Basis says which of the two mutually exclusive dosing inputs a line item
// currently carries.
type Basis int

const (
	BasisNone   Basis = iota // neither field set
	BasisDosing              // g/l of liquor
	BasisShade               // % of fabric weight
)

// Dosage is the tagged form of the dosing/shade pair. The stored document
// keeps two nullable fields for the wire shape, but the engine only ever
// manipulates this variant, so both fields are always assigned from a single
// case and can never be set at once.
type Dosage struct {
	basis Basis
	value float64
}

func NoDosage() Dosage          { return Dosage{} }
func DosingOf(v float64) Dosage { return Dosage{basis: BasisDosing, value: v} }
func ShadeOf(v float64) Dosage  { return Dosage{basis: BasisShade, value: v} }
func (d Dosage) Basis() Basis   { return d.basis }
func (d Dosage) Value() float64 { return d.value }

// dosageOf reads the variant back out of a stored item. If a hand-edited
// document carries both fields, dosing wins and the write-back clears shade.
func dosageOf(item domain.ChemicalRequirement) Dosage {
	if item.Dosing != nil {
		return DosingOf(*item.Dosing)
	}
	if item.Shade != nil {
		return ShadeOf(*item.Shade)
	}
	return NoDosage()
}

// writeTo assigns both stored fields from the variant.
func (d Dosage) writeTo(item *domain.ChemicalRequirement) {
	item.Dosing = nil
	item.Shade = nil
	switch d.basis {
	case BasisDosing:
		v := d.value
		item.Dosing = &v
	case BasisShade:
		v := d.value
		item.Shade = &v
	}
}

// ItemField names an editable field of a chemical line item.
type ItemField string

const (
	ItemChemicalName     ItemField = "chemical_name"
	ItemDosing           ItemField = "dosing"
	ItemShade            ItemField = "shade"
	ItemRequiredQuantity ItemField = "required_quantity"
	ItemAvailableStock   ItemField = "available_stock"
	ItemUnitPrice        ItemField = "unit_price"
	ItemSupplier         ItemField = "supplier"
	ItemNotes            ItemField = "notes"
)

// ApplyItemEdit applies one raw form edit to a line item and recomputes the
// dependent fields. Dosing and shade clear each other; empty or malformed
// input unsets them. Direct edits to the quantity fields are stored verbatim
// (manual override wins over a previously derived value).
//
// A zero dosing or shade does not re-derive the required quantity: the
// previously derived value is retained and the quantity field stays directly
// editable.
func (e *Engine) ApplyItemEdit(item domain.ChemicalRequirement, field ItemField, raw string, fabricWeight, totalWater float64) domain.ChemicalRequirement {
	switch field {
	case ItemDosing:
		if d, ok := parseOptional(raw); ok {
			DosingOf(d).writeTo(&item)
			if d != 0 && totalWater != 0 {
				item.RequiredQuantity = d * totalWater / 1000 // g/l * L -> kg
			}
		} else {
			NoDosage().writeTo(&item)
		}

	case ItemShade:
		if s, ok := parseOptional(raw); ok {
			ShadeOf(s).writeTo(&item)
			if s != 0 && fabricWeight != 0 {
				item.RequiredQuantity = (s / 100) * fabricWeight
			}
		} else {
			NoDosage().writeTo(&item)
		}

	case ItemRequiredQuantity:
		item.RequiredQuantity = parseNumber(raw)

	case ItemAvailableStock:
		item.AvailableStock = parseNumber(raw)

	case ItemUnitPrice:
		item.UnitPrice = parseNumber(raw)

	case ItemChemicalName:
		item.ChemicalName = raw

	case ItemSupplier:
		item.Supplier = raw

	case ItemNotes:
		item.Notes = raw

	default:
		e.config.Logger.Warn("unknown item field ignored", zap.String("field", string(field)))
	}

	item.NeedToPurchase = needToPurchase(item.RequiredQuantity, item.AvailableStock)
	item.TotalCost = LineCost(item.NeedToPurchase, item.UnitPrice)
	return item
}

// DeriveQuantity re-derives a line item's quantity chain from its dosing
// basis and the owning plan's fabric weight and total water. When the basis
// or its prerequisite is missing the stored quantity is retained.
func (e *Engine) DeriveQuantity(item domain.ChemicalRequirement, fabricWeight, totalWater float64) domain.ChemicalRequirement {
	d := dosageOf(item)
	d.writeTo(&item) // enforce exclusivity on documents edited out of band

	switch d.Basis() {
	case BasisDosing:
		if d.Value() != 0 && totalWater != 0 {
			item.RequiredQuantity = d.Value() * totalWater / 1000
		}
	case BasisShade:
		if d.Value() != 0 && fabricWeight != 0 {
			item.RequiredQuantity = (d.Value() / 100) * fabricWeight
		}
	}

	item.NeedToPurchase = needToPurchase(item.RequiredQuantity, item.AvailableStock)
	item.TotalCost = LineCost(item.NeedToPurchase, item.UnitPrice)
	return item
}

// needToPurchase is the shortfall between required and available, floored at
// zero.
func needToPurchase(required, available float64) float64 {
	if diff := required - available; diff > 0 {
		return diff
	}
	return 0
}
