package importer

// sheet.go decodes the first worksheet of an uploaded workbook into SourceRows.
// .xlsx goes through excelize and legacy .xls through a BIFF reader; both
// feed the same row builder.

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// allowedExtensions are the spreadsheet extensions accepted for import.
var allowedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
}

// CheckExtension rejects file names without a spreadsheet extension.
func CheckExtension(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: %q (expected .xlsx or .xls)", ErrUnsupportedFile, fileName)
	}
	return nil
}

// Sheet is a decoded worksheet.
type Sheet struct {
	Name    string
	Headers []string // non-blank header texts in column order
	Rows    []SourceRow
}

// ReadUpload decodes the first worksheet of an uploaded file, picking the
// decoder from the extension of fileName.
func ReadUpload(fileName string, r io.Reader) (*Sheet, error) {
	if strings.EqualFold(filepath.Ext(fileName), ".xls") {
		return ReadLegacySheet(r)
	}
	return ReadSheet(r)
}

// ReadSheet decodes the first worksheet of an .xlsx workbook. Cells are read
// raw so numeric formatting never leaks into values.
func ReadSheet(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadableFile, name, err)
	}
	return buildSheet(name, rows)
}

// ReadLegacySheet decodes the first worksheet of a BIFF (.xls) workbook.
func ReadLegacySheet(r io.Reader) (sheet *Sheet, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	// The BIFF reader indexes record data without bounds checks.
	defer func() {
		if p := recover(); p != nil {
			sheet, err = nil, fmt.Errorf("%w: %v", ErrUnreadableFile, p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrUnreadableFile)
	}

	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrEmptyFile)
	}

	rows := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			cells[col] = row.Col(col)
		}
		rows = append(rows, cells)
	}
	return buildSheet(ws.Name, rows)
}

// buildSheet turns decoded rows into a Sheet. Row 1 holds the headers. Empty
// cells and cells under a blank header are omitted, and rows with no
// remaining cells are skipped. Line numbers are spreadsheet lines.
func buildSheet(name string, rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrEmptyFile, name)
	}

	headerRow := rows[0]
	sheet := &Sheet{Name: name}
	for _, h := range headerRow {
		if strings.TrimSpace(h) != "" {
			sheet.Headers = append(sheet.Headers, h)
		}
	}

	for i, raw := range rows[1:] {
		row := SourceRow{Line: i + 2}
		for col, v := range raw {
			if col >= len(headerRow) || v == "" {
				continue
			}
			header := headerRow[col]
			if strings.TrimSpace(header) == "" {
				continue
			}
			row.Cells = append(row.Cells, Cell{Header: header, Value: StringValue(v)})
		}
		if len(row.Cells) > 0 {
			sheet.Rows = append(sheet.Rows, row)
		}
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no data rows", ErrEmptyFile, name)
	}
	return sheet, nil
}
