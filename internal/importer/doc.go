// Package importer provides the bulk product import pipeline.
//
// An import turns an uploaded spreadsheet into product drafts for the catalog
// backend. The package holds all import logic independent of the HTTP layer
// and can be driven by web handlers or tests alike.
//
// # Pipeline
//
// A run proceeds in a fixed order:
//
//  1. The file extension is checked (.xlsx or .xls only)
//  2. Categories, subcategories and existing products are fetched concurrently
//     and frozen into a [Snapshot]
//  3. The first sheet is decoded into [SourceRow] values, header row first.
//     .xlsx files go through excelize and legacy .xls files through a BIFF
//     reader
//  4. Every row is validated in file order by a [RowValidator]
//  5. Valid drafts are submitted to the backend in one bulk request
//
// Step 5 is skipped for dry runs and when no row is valid.
//
// # Header Normalization
//
// Spreadsheet headers are free-form. [NormalizeFieldName] lower-cases a header,
// splits it on any Unicode space, joins the words with "_" and looks the result up in a
// static alias table, so "Product Name", "product_name" and "PRODUCT NAME" all
// map to [FieldName]. Unknown headers are ignored.
//
// When two headers map to the same field the [HeaderConflictPolicy] decides:
// the last non-empty cell wins, a warning is added to the [Report], or the
// file is rejected with [ErrHeaderConflict].
//
// # Error Handling
//
// Row problems are data: they are collected as [RowError] values in the
// [ImportResult] and never abort a run. File and network problems are
// returned as errors wrapping one of the package sentinels, and [MapError]
// turns them into coded user messages:
//
//   - FILE001-FILE006: File errors (size, type, decode, empty, header conflicts)
//   - REF001-REF003: Reference data errors
//   - IMP001-IMP003: Import run errors (busy, cancelled, timeout)
package importer
