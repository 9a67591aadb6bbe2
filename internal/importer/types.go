package importer

// types.go defines the row and result shapes that flow through the pipeline.

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// Kind identifies the primitive held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
)

// Value is a raw spreadsheet cell. The zero Value is empty.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	List []string
}

func StringValue(s string) Value  { return Value{Kind: KindString, Str: s} }
func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func BoolValue(b bool) Value      { return Value{Kind: KindBool, Bool: b} }

func ListValue(items ...string) Value {
	return Value{Kind: KindList, List: items}
}

// IsEmpty reports whether the cell carries no value. Whitespace-only
// strings are not empty here; callers trim when the rule asks for it.
func (v Value) IsEmpty() bool {
	return v.Kind == KindEmpty
}

// Text renders the value as a string. Numbers use the shortest
// representation so 1500 stays "1500" and 0.5 stays "0.5".
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindList:
		return strings.Join(v.List, ",")
	default:
		return ""
	}
}

// Cell is one (header, value) pair of a SourceRow.
type Cell struct {
	Header string
	Value  Value
}

// SourceRow is one decoded spreadsheet row with its raw headers in column order.
// Line is the spreadsheet line number (the header row is line 1).
type SourceRow struct {
	Line  int
	Cells []Cell
}

// NormalizedRow maps canonical fields to raw values.
type NormalizedRow map[Field]Value

// Has reports whether the field was supplied.
func (n NormalizedRow) Has(f Field) bool {
	_, ok := n[f]
	return ok
}

// Text returns the trimmed textual form of a field, or "" when absent.
func (n NormalizedRow) Text(f Field) string {
	return strings.TrimSpace(n[f].Text())
}

// RowError describes one rejected row.
type RowError struct {
	Row         int      `json:"row"`
	ProductName string   `json:"productName"`
	SKU         string   `json:"sku"`
	Errors      []string `json:"errors"`
}

// ImportResult is the partitioned outcome of one validation pass.
type ImportResult struct {
	ValidProducts   []catalog.ProductDraft `json:"validProducts"`
	DuplicateErrors []RowError             `json:"duplicateErrors"`
	TotalRows       int                    `json:"totalRows"`
}

// Upload is a spreadsheet handed to the importer.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Options controls a single run.
type Options struct {
	// DryRun validates without submitting to the backend.
	DryRun bool
}

// Report is everything a caller needs to render the outcome of a run.
type Report struct {
	ImportID     string              `json:"importId"`
	FileName     string              `json:"fileName"`
	DryRun       bool                `json:"dryRun"`
	TotalRows    int                 `json:"totalRows"`
	ValidCount   int                 `json:"validCount"`
	InvalidCount int                 `json:"invalidCount"`
	Result       ImportResult        `json:"result"`
	Submission   *catalog.BulkResult `json:"submission,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	StartedAt    time.Time           `json:"startedAt"`
	DurationMS   int64               `json:"durationMs"`
}
