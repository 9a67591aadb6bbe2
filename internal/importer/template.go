package importer

// template.go generates the downloadable import template workbook.

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheet     = "Products"
	instructionsSheet = "Instructions"
)

// TemplateHeaders is the documented header row of the import template.
var TemplateHeaders = []string{
	"name", "sku", "category", "subcategory", "price", "discount_price", "coupon_applicable",
	"1_layer_price", "2_layer_price", "3_layer_price",
	"metal", "metal_purity", "stone", "stone_type", "weight", "stone_weight", "metal_weight",
	"size", "color", "clarity", "certification", "images", "tags", "stock", "in_stock", "is_active",
}

// templateSample is the single example row, aligned with TemplateHeaders.
var templateSample = []any{
	"Gold Layered Necklace", "NK-GOLD-001", "Necklaces", "Gold", 15000, 13500, "yes",
	5000, 9000, 13000,
	"Gold", "22K", "Diamond", "Round", 25.5, 1.2, 24.3,
	"18 inch", "Yellow", "VS1", "BIS Hallmark",
	"https://example.com/images/nk-gold-001-1.jpg,https://example.com/images/nk-gold-001-2.jpg",
	"gold,layered,festive", 10, "yes", "yes",
}

// WriteTemplate writes the import template workbook to w: the header row with
// one sample row on the first sheet and an instructions sheet describing
// the accepted header aliases.
func WriteTemplate(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if len(templateSample) != len(TemplateHeaders) {
		return fmt.Errorf("template sample has %d values for %d headers", len(templateSample), len(TemplateHeaders))
	}

	for i, header := range TemplateHeaders {
		headerCell, err := cellName(i+1, 1)
		if err != nil {
			return err
		}
		sampleCell, err := cellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(templateSheet, headerCell, header); err != nil {
			return fmt.Errorf("write header %s: %w", header, err)
		}
		if err := f.SetCellValue(templateSheet, sampleCell, templateSample[i]); err != nil {
			return fmt.Errorf("write sample %s: %w", header, err)
		}
	}

	lastCell, err := cellName(len(TemplateHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(templateSheet, "A1", lastCell, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(TemplateHeaders))
	if err != nil {
		return fmt.Errorf("last column: %w", err)
	}
	if err := f.SetColWidth(templateSheet, "A", lastCol, 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	if err := writeInstructions(f, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func writeInstructions(f *excelize.File, headerStyle int) error {
	if _, err := f.NewSheet(instructionsSheet); err != nil {
		return fmt.Errorf("instructions sheet: %w", err)
	}

	lines := [][]any{
		{"Product Import Instructions"},
		{},
		{"Fill one product per row on the " + templateSheet + " sheet. Header spelling is flexible: any alias below is accepted, case and spacing do not matter."},
		{"Necklace layer prices go in columns named like 1_layer_price .. 5_layer_price. Empty or zero prices are skipped."},
		{"Boolean columns accept true, yes, 1 or active. in_stock and is_active default to yes when the column is missing."},
		{"Lists (images, tags, coupons) are comma-separated."},
		{},
		{"Field", "Required", "Accepted headers"},
	}
	tableHeaderRow := len(lines)

	for _, info := range Fields() {
		required := "Optional"
		if info.Required {
			required = "Required"
		}
		lines = append(lines, []any{string(info.Field), required, strings.Join(info.Aliases, ", ")})
	}

	for i, line := range lines {
		cell, err := cellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(instructionsSheet, cell, &line); err != nil {
			return fmt.Errorf("instructions row %d: %w", i+1, err)
		}
	}

	if err := f.SetCellStyle(instructionsSheet, fmt.Sprintf("A%d", tableHeaderRow), fmt.Sprintf("C%d", tableHeaderRow), headerStyle); err != nil {
		return fmt.Errorf("style instructions: %w", err)
	}
	for _, cw := range instructionWidths {
		if err := f.SetColWidth(instructionsSheet, cw.col, cw.col, cw.width); err != nil {
			return fmt.Errorf("instructions column %s width: %w", cw.col, err)
		}
	}
	return nil
}

var instructionWidths = []struct {
	col   string
	width float64
}{
	{"A", 22},
	{"B", 12},
	{"C", 80},
}

func cellName(col, row int) (string, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", fmt.Errorf("cell (%d, %d): %w", col, row, err)
	}
	return name, nil
}
