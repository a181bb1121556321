package infrastructure

import (
	"bufio"
	"errors"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var ErrInvalidFileFormat = errors.New("invalid file format")

// StockLine is one row of a chemical stock sheet: the store's current stock
// level and unit price for one chemical.
type StockLine struct {
	ChemicalName   string  `gorethink:"chemical_name" json:"chemical_name"`
	AvailableStock float64 `gorethink:"available_stock" json:"available_stock"` // kg
	UnitPrice      float64 `gorethink:"unit_price" json:"unit_price"`
	Supplier       string  `gorethink:"supplier,omitempty" json:"supplier,omitempty"`
}

// StockSheetReader parses tab-separated stock sheets exported from the
// chemical store: one line per chemical, columns name, stock (kg), unit
// price and optionally supplier. A header line is detected and skipped.
type StockSheetReader struct {
	logger *zap.Logger
}

func NewStockSheetReader(logger *zap.Logger) *StockSheetReader {
	return &StockSheetReader{logger: logger}
}

// ReadSheet parses the sheet from string content. Malformed lines are logged
// and skipped rather than failing the whole import.
func (r *StockSheetReader) ReadSheet(content string) ([]StockLine, error) {
	if content == "" {
		return nil, ErrInvalidFileFormat
	}

	var lines []StockLine
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 3 {
			r.logger.Warn("stock sheet line skipped, too few columns",
				zap.Int("line", lineNo), zap.Int("columns", len(fields)))
			continue
		}

		stock, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			if lineNo == 1 {
				// Строка заголовка
				continue
			}
			r.logger.Warn("stock sheet line skipped, bad stock value",
				zap.Int("line", lineNo), zap.String("value", fields[1]))
			continue
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			r.logger.Warn("stock sheet line skipped, bad price value",
				zap.Int("line", lineNo), zap.String("value", fields[2]))
			continue
		}

		if stock < 0 {
			r.logger.Warn("negative stock value clamped to zero",
				zap.Int("line", lineNo), zap.Float64("value", stock))
			stock = 0
		}

		line := StockLine{
			ChemicalName:   strings.TrimSpace(fields[0]),
			AvailableStock: stock,
			UnitPrice:      price,
		}
		if len(fields) > 3 {
			line.Supplier = strings.TrimSpace(fields[3])
		}
		if line.ChemicalName == "" {
			r.logger.Warn("stock sheet line skipped, empty chemical name", zap.Int("line", lineNo))
			continue
		}

		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(lines) == 0 {
		return nil, ErrInvalidFileFormat
	}

	return lines, nil
}

// ReadSheetFromFile reads a sheet from disk.
func (r *StockSheetReader) ReadSheetFromFile(filename string) ([]StockLine, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return r.ReadSheet(string(content))
}
