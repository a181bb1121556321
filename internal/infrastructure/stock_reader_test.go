package infrastructure

import (
	"testing"

	"go.uber.org/zap"
)

func TestReadSheet(t *testing.T) {
	reader := NewStockSheetReader(zap.NewNop())

	content := "Chemical\tStock\tPrice\tSupplier\n" +
		"Soda Ash\t120.5\t35\tAcme Chemicals\n" +
		"Reactive Red\t3\t120\n" +
		"\n" +
		"Broken Line\tmany\t1\n" +
		"Levelling Agent\t-4\t60\tAcme Chemicals\n"

	lines, err := reader.ReadSheet(content)
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3 (header and broken line skipped)", len(lines))
	}

	if lines[0].ChemicalName != "Soda Ash" || lines[0].AvailableStock != 120.5 || lines[0].UnitPrice != 35 {
		t.Errorf("line 0 = %+v", lines[0])
	}
	if lines[0].Supplier != "Acme Chemicals" {
		t.Errorf("line 0 supplier = %q", lines[0].Supplier)
	}
	if lines[1].Supplier != "" {
		t.Errorf("line 1 supplier = %q, want empty", lines[1].Supplier)
	}
	// Negative stock clamps to zero instead of poisoning the shortfall math.
	if lines[2].AvailableStock != 0 {
		t.Errorf("line 2 stock = %v, want 0", lines[2].AvailableStock)
	}
}

func TestReadSheet_Empty(t *testing.T) {
	reader := NewStockSheetReader(zap.NewNop())

	if _, err := reader.ReadSheet(""); err != ErrInvalidFileFormat {
		t.Errorf("ReadSheet(\"\") err = %v, want ErrInvalidFileFormat", err)
	}
	if _, err := reader.ReadSheet("Chemical\tStock\tPrice\n"); err != ErrInvalidFileFormat {
		t.Errorf("header-only sheet err = %v, want ErrInvalidFileFormat", err)
	}
}
