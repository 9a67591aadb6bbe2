package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// fakeBackend is an in-memory catalog backend.
type fakeBackend struct {
	categories    []catalog.Category
	subcategories []catalog.Subcategory
	products      []catalog.Product

	categoriesErr error
	productsErr   error
	submitErr     error
	submitResult  *catalog.BulkResult
	block         chan struct{} // when set, ListCategories waits on it

	mu        sync.Mutex
	submitted [][]catalog.ProductDraft
}

func newFakeBackend() *fakeBackend {
	s := testSnapshot()
	return &fakeBackend{
		categories:    s.categories,
		subcategories: s.subcategories,
		products:      []catalog.Product{{SKU: "EXIST-001"}},
	}
}

func (b *fakeBackend) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if b.block != nil {
		select {
		case <-b.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return b.categories, b.categoriesErr
}

func (b *fakeBackend) ListSubcategories(ctx context.Context) ([]catalog.Subcategory, error) {
	return b.subcategories, nil
}

func (b *fakeBackend) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return b.products, b.productsErr
}

func (b *fakeBackend) BulkCreateProducts(ctx context.Context, products []catalog.ProductDraft) (*catalog.BulkResult, error) {
	b.mu.Lock()
	b.submitted = append(b.submitted, products)
	b.mu.Unlock()

	if b.submitErr != nil {
		return nil, b.submitErr
	}
	if b.submitResult != nil {
		return b.submitResult, nil
	}
	return &catalog.BulkResult{SuccessCount: len(products)}, nil
}

func (b *fakeBackend) submissions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submitted)
}

// threeRowSheet has one valid row, one without a SKU and one with an unknown category.
func threeRowSheet(t *testing.T) []byte {
	t.Helper()
	return buildWorkbook(t, [][]any{
		{"Name", "SKU", "Category", "Price"},
		{"Gold Chain", "GC-1", "Necklaces", 1500},
		{"Silver Chain", nil, "Necklaces", 900},
		{"Ruby Ring", "RR-1", "Rings", 2500},
	})
}

func TestImporter_EndToEnd(t *testing.T) {
	backend := newFakeBackend()
	im := New(backend, Config{})

	report, err := im.Run(context.Background(), Upload{
		FileName: "products.xlsx",
		Body:     bytes.NewReader(threeRowSheet(t)),
	}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.TotalRows != 3 || report.Result.TotalRows != 3 {
		t.Errorf("totalRows = %d/%d, want 3", report.TotalRows, report.Result.TotalRows)
	}
	if report.ValidCount != 1 || len(report.Result.ValidProducts) != 1 {
		t.Fatalf("valid = %d, want 1", report.ValidCount)
	}
	if report.InvalidCount != 2 || len(report.Result.DuplicateErrors) != 2 {
		t.Fatalf("invalid = %d, want 2", report.InvalidCount)
	}

	wantErrors := []RowError{
		{Row: 3, ProductName: "Silver Chain", SKU: "", Errors: []string{"SKU is required"}},
		{Row: 4, ProductName: "Ruby Ring", SKU: "RR-1", Errors: []string{"Category 'Rings' not found"}},
	}
	if !reflect.DeepEqual(report.Result.DuplicateErrors, wantErrors) {
		t.Errorf("row errors = %+v, want %+v", report.Result.DuplicateErrors, wantErrors)
	}

	if report.Submission == nil || report.Submission.SuccessCount != 1 {
		t.Errorf("submission = %+v, want one success", report.Submission)
	}
	if backend.submissions() != 1 {
		t.Errorf("submissions = %d, want 1", backend.submissions())
	}
	if report.ImportID == "" || report.FileName != "products.xlsx" {
		t.Errorf("report identity = %q/%q", report.ImportID, report.FileName)
	}
	if got := im.Limiter().Status().Active; got != 0 {
		t.Errorf("active imports after run = %d, want 0", got)
	}
}

func TestImporter_DryRunDoesNotSubmit(t *testing.T) {
	backend := newFakeBackend()
	im := New(backend, Config{})

	report, err := im.Run(context.Background(), Upload{
		FileName: "products.XLSX",
		Body:     bytes.NewReader(threeRowSheet(t)),
	}, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Submission != nil {
		t.Errorf("dry run submission = %+v, want nil", report.Submission)
	}
	if backend.submissions() != 0 {
		t.Errorf("dry run submitted %d batches", backend.submissions())
	}
	if !report.DryRun || report.ValidCount != 1 {
		t.Errorf("dry run report = %+v", report)
	}
}

func TestImporter_LegacyWorkbook(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "products.xls"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	report, err := New(newFakeBackend(), Config{}).Run(context.Background(), Upload{
		FileName: "products.xls",
		Body:     bytes.NewReader(data),
	}, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.TotalRows != 2 || report.ValidCount != 2 {
		t.Errorf("rows = %d valid = %d, want 2/2: %+v", report.TotalRows, report.ValidCount, report.Result.DuplicateErrors)
	}
}

func TestImporter_NothingValidSkipsSubmission(t *testing.T) {
	backend := newFakeBackend()
	im := New(backend, Config{})

	data := buildWorkbook(t, [][]any{
		{"Name", "SKU", "Category"},
		{"Old Chain", "exist-001", "Necklaces"},
	})
	report, err := im.Run(context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Submission != nil || backend.submissions() != 0 {
		t.Errorf("no valid rows should mean no submission: %+v", report.Submission)
	}
	if got := report.Result.DuplicateErrors[0].Errors; !reflect.DeepEqual(got, []string{`SKU "exist-001" already exists in database`}) {
		t.Errorf("errors = %q", got)
	}
}

func TestImporter_SubmissionFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.submitErr = errors.New("dial tcp 127.0.0.1:5000: connection refused")
	im := New(backend, Config{})

	data := buildWorkbook(t, [][]any{
		{"Name", "SKU", "Category"},
		{"Chain A", "A-1", "Necklaces"},
		{"Chain B", "B-1", "Necklaces"},
	})
	report, err := im.Run(context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := &catalog.BulkResult{
		SuccessCount: 0,
		FailedCount:  2,
		Errors:       []catalog.BulkError{{Error: "dial tcp 127.0.0.1:5000: connection refused"}},
	}
	if !reflect.DeepEqual(report.Submission, want) {
		t.Errorf("submission = %+v, want %+v", report.Submission, want)
	}
}

func TestImporter_BackendReportedErrorsPassThrough(t *testing.T) {
	backend := newFakeBackend()
	backend.submitResult = &catalog.BulkResult{
		SuccessCount: 0,
		FailedCount:  1,
		Errors:       []catalog.BulkError{{Product: []byte(`{"sku":"A-1"}`), Error: "slug taken"}},
	}
	im := New(backend, Config{})

	data := buildWorkbook(t, [][]any{{"Name", "SKU", "Category"}, {"Chain A", "A-1", "Necklaces"}})
	report, err := im.Run(context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Submission.FailedCount != 1 || report.Submission.Errors[0].Error != "slug taken" {
		t.Errorf("submission = %+v", report.Submission)
	}
	if len(report.Result.DuplicateErrors) != 0 {
		t.Errorf("backend errors must not mix with row errors: %+v", report.Result.DuplicateErrors)
	}
}

func TestImporter_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr error
	}{
		{"csv rejected before parse", Upload{FileName: "p.csv", Body: strings.NewReader("x")}, ErrUnsupportedFile},
		{"no body", Upload{FileName: "p.xlsx"}, ErrNoFile},
		{"garbage bytes", Upload{FileName: "p.xlsx", Body: strings.NewReader("not a zip")}, ErrUnreadableFile},
		{"truncated xls", Upload{FileName: "p.xls", Body: bytes.NewReader([]byte{0xD0, 0xCF, 0x11, 0xE0})}, ErrUnreadableFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			_, err := New(backend, Config{}).Run(context.Background(), tt.upload, Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if backend.submissions() != 0 {
				t.Error("file errors must not submit")
			}
		})
	}
}

func TestImporter_ReferenceFetchFailure(t *testing.T) {
	backend := newFakeBackend()
	backend.productsErr = errors.New("backend returned 500")

	_, err := New(backend, Config{}).Run(context.Background(), Upload{
		FileName: "p.xlsx",
		Body:     bytes.NewReader(threeRowSheet(t)),
	}, Options{})

	if !errors.Is(err, ErrReferenceFetch) {
		t.Fatalf("Run() error = %v, want ErrReferenceFetch", err)
	}
	if !strings.Contains(err.Error(), "products: backend returned 500") {
		t.Errorf("error should name the failing list: %v", err)
	}
	if backend.submissions() != 0 {
		t.Error("reference failure must not submit")
	}
}

func TestImporter_HeaderConflictPolicies(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Name", "SKU", "Category", "Title"},
		{"Old Name", "A-1", "Necklaces", "New Name"},
	})

	t.Run("last-wins", func(t *testing.T) {
		report, err := New(newFakeBackend(), Config{HeaderConflict: ConflictLastWins}).Run(
			context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := report.Result.ValidProducts[0].Name; got != "New Name" {
			t.Errorf("name = %q, want %q", got, "New Name")
		}
		if len(report.Warnings) != 0 {
			t.Errorf("warnings = %q, want none", report.Warnings)
		}
	})

	t.Run("warn", func(t *testing.T) {
		report, err := New(newFakeBackend(), Config{HeaderConflict: ConflictWarn}).Run(
			context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got := report.Result.ValidProducts[0].Name; got != "New Name" {
			t.Errorf("name = %q, want %q", got, "New Name")
		}
		if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], `"Name", "Title"`) {
			t.Errorf("warnings = %q", report.Warnings)
		}
	})

	t.Run("reject", func(t *testing.T) {
		_, err := New(newFakeBackend(), Config{HeaderConflict: ConflictReject}).Run(
			context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
		if !errors.Is(err, ErrHeaderConflict) {
			t.Fatalf("Run() error = %v, want ErrHeaderConflict", err)
		}
		if !strings.Contains(err.Error(), "map to name") {
			t.Errorf("error should name the field: %v", err)
		}
	})
}

func TestImporter_TooManyImports(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	im := New(backend, Config{MaxConcurrent: 1, MaxWait: 50 * time.Millisecond})

	data := threeRowSheet(t)
	firstDone := make(chan error, 1)
	go func() {
		_, err := im.Run(context.Background(), Upload{FileName: "a.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
		firstDone <- err
	}()

	// Wait until the first run holds the only slot.
	deadline := time.Now().Add(time.Second)
	for im.Limiter().Status().Active == 0 {
		if time.Now().After(deadline) {
			t.Fatal("first run never acquired a slot")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, err := im.Run(context.Background(), Upload{FileName: "b.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("second Run() error = %v, want ErrTooManyImports", err)
	}

	close(backend.block)
	if err := <-firstDone; err != nil {
		t.Errorf("first Run() error = %v", err)
	}
}

func TestImporter_Timeout(t *testing.T) {
	backend := newFakeBackend()
	backend.block = make(chan struct{})
	defer close(backend.block)

	im := New(backend, Config{Timeout: 20 * time.Millisecond})
	_, err := im.Run(context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(threeRowSheet(t))}, Options{})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if !errors.Is(err, ErrReferenceFetch) {
		t.Errorf("Run() error should wrap ErrReferenceFetch: %v", err)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	sheet, err := ReadSheet(bytes.NewReader(threeRowSheet(t)))
	if err != nil {
		t.Fatalf("ReadSheet() error = %v", err)
	}
	snapshot := testSnapshot()

	first := Validate(sheet.Rows, snapshot)
	second := Validate(sheet.Rows, snapshot)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("validation is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestValidate_CaseInsensitiveBatchDuplicate(t *testing.T) {
	rows := []SourceRow{
		row(0, "Name", "Chain", "SKU", "ABC-1", "Category", "Necklaces"),
		row(0, "Name", "Chain 2", "SKU", "abc-1", "Category", "Necklaces"),
	}

	result := Validate(rows, testSnapshot())
	if len(result.ValidProducts) != 1 || len(result.DuplicateErrors) != 1 {
		t.Fatalf("result = %+v", result)
	}
	want := `SKU "abc-1" duplicated in Excel (first appeared in row 2)`
	if got := result.DuplicateErrors[0]; got.Row != 3 || got.Errors[0] != want {
		t.Errorf("duplicate error = %+v, want row 3 with %q", got, want)
	}
}

func TestValidate_BlankNameNeverProducesDraft(t *testing.T) {
	for _, name := range []string{"", "   ", "\t"} {
		rows := []SourceRow{row(2, "Name", name, "SKU", "A-1", "Category", "Necklaces")}
		result := Validate(rows, testSnapshot())
		if len(result.ValidProducts) != 0 {
			t.Errorf("name %q produced a draft", name)
		}
		if got := result.DuplicateErrors[0].Errors; got[0] != "Name is required" {
			t.Errorf("name %q errors = %q", name, got)
		}
	}

	// Absent name column.
	result := Validate([]SourceRow{row(2, "SKU", "A-1", "Category", "Necklaces")}, testSnapshot())
	if len(result.ValidProducts) != 0 || result.DuplicateErrors[0].Errors[0] != "Name is required" {
		t.Errorf("absent name result = %+v", result)
	}
}

func TestValidate_EmptyInput(t *testing.T) {
	result := Validate(nil, testSnapshot())
	if result.TotalRows != 0 || result.ValidProducts == nil || result.DuplicateErrors == nil {
		t.Errorf("empty result = %+v", result)
	}
}

func TestImporter_EmptySlugWarning(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Name", "SKU", "Category"},
		{"सोने का हार", "HI-1", "Necklaces"},
		{"Gold Chain", "GC-1", "Necklaces"},
	})

	report, err := New(newFakeBackend(), Config{}).Run(
		context.Background(), Upload{FileName: "p.xlsx", Body: bytes.NewReader(data)}, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.ValidCount != 2 {
		t.Fatalf("valid = %d, want 2", report.ValidCount)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], `SKU "HI-1"`) {
		t.Errorf("warnings = %q, want one for HI-1", report.Warnings)
	}
}
