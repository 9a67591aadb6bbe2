package importer

// orchestrator.go drives one upload from file to report.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
	"github.com/JonMunkholm/catalog-import/internal/logging"
)

// ReferenceSource lists the reference data a run validates against.
type ReferenceSource interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListSubcategories(ctx context.Context) ([]catalog.Subcategory, error)
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// Submitter creates validated products in one batch.
type Submitter interface {
	BulkCreateProducts(ctx context.Context, products []catalog.ProductDraft) (*catalog.BulkResult, error)
}

// Backend is everything the importer needs from the catalog backend.
type Backend interface {
	ReferenceSource
	Submitter
}

// Config holds importer settings.
type Config struct {
	HeaderConflict HeaderConflictPolicy
	MaxConcurrent  int
	MaxWait        time.Duration
	// Timeout bounds a whole run, reference fetch and submission included.
	// Zero means no limit beyond the caller's context.
	Timeout time.Duration
}

// Importer runs imports against a catalog backend.
type Importer struct {
	backend Backend
	policy  HeaderConflictPolicy
	timeout time.Duration
	limiter *ImportLimiter
}

// New creates an importer. An empty header policy means ConflictLastWins.
func New(backend Backend, cfg Config) *Importer {
	policy := cfg.HeaderConflict
	if policy == "" {
		policy = ConflictLastWins
	}
	return &Importer{
		backend: backend,
		policy:  policy,
		timeout: cfg.Timeout,
		limiter: NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
	}
}

// Limiter exposes the run limiter for status reporting and shutdown draining.
func (im *Importer) Limiter() *ImportLimiter {
	return im.limiter
}

// LoadReferences fetches categories, subcategories and existing products
// concurrently. Any single failure fails the whole load.
func (im *Importer) LoadReferences(ctx context.Context) (*Snapshot, error) {
	var (
		categories    []catalog.Category
		subcategories []catalog.Subcategory
		products      []catalog.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if categories, err = im.backend.ListCategories(gctx); err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if subcategories, err = im.backend.ListSubcategories(gctx); err != nil {
			return fmt.Errorf("subcategories: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = im.backend.ListProducts(gctx); err != nil {
			return fmt.Errorf("products: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceFetch, err)
	}
	return NewSnapshot(categories, subcategories, products), nil
}

// Validate runs every row through a fresh RowValidator in order. It depends
// only on rows and snapshot, so repeating it yields an identical result.
// Rows without a line number are numbered as if decoded from a sheet with a
// single header row and no blank rows.
func Validate(rows []SourceRow, snapshot *Snapshot) ImportResult {
	rv := NewRowValidator(snapshot)
	batch := NewBatch()

	result := ImportResult{
		ValidProducts:   []catalog.ProductDraft{},
		DuplicateErrors: []RowError{},
		TotalRows:       len(rows),
	}

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 2
		}
		draft, rowErr := rv.Validate(row, line, batch)
		if rowErr != nil {
			result.DuplicateErrors = append(result.DuplicateErrors, *rowErr)
			continue
		}
		result.ValidProducts = append(result.ValidProducts, *draft)
	}
	return result
}

// Run executes one import: extension check, reference load, decode,
// validation and, unless opts.DryRun is set, bulk submission of valid rows.
// File, reference and capacity problems are returned as errors; row problems
// are part of the report.
func (im *Importer) Run(ctx context.Context, up Upload, opts Options) (*Report, error) {
	if err := CheckExtension(up.FileName); err != nil {
		return nil, err
	}
	if up.Body == nil {
		return nil, ErrNoFile
	}

	if err := im.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer im.limiter.Release()

	if im.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, im.timeout)
		defer cancel()
	}

	report := &Report{
		ImportID:  uuid.NewString(),
		FileName:  up.FileName,
		DryRun:    opts.DryRun,
		StartedAt: time.Now(),
	}
	logger := logging.WithFields(ctx,
		"import_id", report.ImportID,
		"file", up.FileName,
		"dry_run", opts.DryRun,
	)
	logger.Info("import started")

	snapshot, err := im.LoadReferences(ctx)
	if err != nil {
		logger.Error("reference load failed", "error", err)
		return nil, err
	}
	stats := snapshot.Stats()
	logger.Info("reference data loaded",
		"categories", stats.Categories,
		"subcategories", stats.Subcategories,
		"existing_skus", stats.ExistingSKUs,
	)

	sheet, err := ReadUpload(up.FileName, up.Body)
	if err != nil {
		logger.Warn("spreadsheet rejected", "error", err)
		return nil, err
	}
	logger.Info("spreadsheet decoded", "sheet", sheet.Name, "rows", len(sheet.Rows), "columns", len(sheet.Headers))

	warnings, err := im.checkHeaders(sheet.Headers)
	if err != nil {
		logger.Warn("spreadsheet rejected", "error", err)
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("header conflict", "detail", w)
	}
	report.Warnings = warnings

	report.Result = Validate(sheet.Rows, snapshot)
	report.Warnings = append(report.Warnings, slugWarnings(report.Result.ValidProducts)...)
	report.TotalRows = report.Result.TotalRows
	report.ValidCount = len(report.Result.ValidProducts)
	report.InvalidCount = len(report.Result.DuplicateErrors)
	logger.Info("rows validated",
		"total", report.TotalRows,
		"valid", report.ValidCount,
		"invalid", report.InvalidCount,
	)

	if !opts.DryRun && report.ValidCount > 0 {
		report.Submission = im.submit(ctx, logger, report.Result.ValidProducts)
	}

	report.DurationMS = time.Since(report.StartedAt).Milliseconds()
	logger.Info("import finished", "duration_ms", report.DurationMS)
	return report, nil
}

// slugWarnings flags accepted products whose name has no [a-z0-9]
// characters and therefore an empty slug.
func slugWarnings(products []catalog.ProductDraft) []string {
	var warnings []string
	for _, p := range products {
		if p.Slug == "" {
			warnings = append(warnings, fmt.Sprintf("SKU %q: name %q produces an empty URL slug", p.SKU, p.Name))
		}
	}
	return warnings
}

// checkHeaders applies the header conflict policy to the header row.
func (im *Importer) checkHeaders(headers []string) ([]string, error) {
	conflicts := FindHeaderConflicts(headers)
	if len(conflicts) == 0 || im.policy == ConflictLastWins {
		return nil, nil
	}

	details := make([]string, len(conflicts))
	for i, c := range conflicts {
		details[i] = c.String()
	}

	if im.policy == ConflictReject {
		return nil, fmt.Errorf("%w: %s", ErrHeaderConflict, strings.Join(details, "; "))
	}

	warnings := make([]string, len(details))
	for i, d := range details {
		warnings[i] = d + "; the last non-empty value in each row is used"
	}
	return warnings, nil
}

// submit sends the drafts in one request. A transport or HTTP failure is
// reported as every product having failed.
func (im *Importer) submit(ctx context.Context, logger *slog.Logger, products []catalog.ProductDraft) *catalog.BulkResult {
	res, err := im.backend.BulkCreateProducts(ctx, products)
	if err != nil {
		logger.Error("bulk submission failed", "error", err, "products", len(products))
		return &catalog.BulkResult{
			SuccessCount: 0,
			FailedCount:  len(products),
			Errors:       []catalog.BulkError{{Error: err.Error()}},
		}
	}
	if res == nil {
		res = &catalog.BulkResult{}
	}
	if res.Errors == nil {
		res.Errors = []catalog.BulkError{}
	}
	logger.Info("bulk submission completed",
		"success", res.SuccessCount,
		"failed", res.FailedCount,
	)
	return res
}
