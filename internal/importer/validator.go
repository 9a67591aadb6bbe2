package importer

// validator.go provides row-level validation of decoded spreadsheet rows.
//
// Every rule is evaluated independently so a rejected row lists all of its
// problems at once. A row is all-or-nothing: any error means no draft.

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// Batch tracks the first line that claimed each SKU within one run.
// It is owned by a single validation loop and is not safe for concurrent use.
type Batch struct {
	firstSeen map[string]int
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{firstSeen: make(map[string]int)}
}

// FirstLine returns the line that first registered sku, ignoring case.
func (b *Batch) FirstLine(sku string) (int, bool) {
	line, ok := b.firstSeen[skuKey(sku)]
	return line, ok
}

func (b *Batch) register(sku string, line int) {
	b.firstSeen[skuKey(sku)] = line
}

// draftValidate is shared by every run; validator caches struct metadata and
// is safe for concurrent use.
var draftValidate = validator.New()

// RowValidator checks rows against a reference snapshot.
type RowValidator struct {
	snapshot *Snapshot
	validate *validator.Validate
}

// NewRowValidator creates a validator bound to one snapshot.
func NewRowValidator(snapshot *Snapshot) *RowValidator {
	return &RowValidator{
		snapshot: snapshot,
		validate: draftValidate,
	}
}

// Validate produces either a draft or a RowError for row. line is the
// spreadsheet line used in messages. As a side effect the row's SKU is
// registered in batch when it is present, new to the catalog and new to the
// batch, even if other rules fail.
func (v *RowValidator) Validate(row SourceRow, line int, batch *Batch) (*catalog.ProductDraft, *RowError) {
	n := NormalizeRow(row)

	name := n.Text(FieldName)
	sku := n.Text(FieldSKU)
	categoryInput := n.Text(FieldCategorySlug)
	subcategoryInput := n.Text(FieldSubCategorySlug)

	var errs []string

	if name == "" {
		errs = append(errs, "Name is required")
	}

	if sku == "" {
		errs = append(errs, "SKU is required")
	} else if v.snapshot.SKUExists(sku) {
		errs = append(errs, fmt.Sprintf("SKU \"%s\" already exists in database", sku))
	} else if first, ok := batch.FirstLine(sku); ok {
		errs = append(errs, fmt.Sprintf("SKU \"%s\" duplicated in Excel (first appeared in row %d)", sku, first))
	} else {
		batch.register(sku, line)
	}

	var categorySlug string
	if categoryInput == "" {
		errs = append(errs, "Category is required")
	} else if slug, ok := v.snapshot.FindCategorySlug(categoryInput); ok {
		categorySlug = slug
	} else {
		errs = append(errs, fmt.Sprintf("Category '%s' not found", categoryInput))
	}

	var subCategorySlug string
	if subcategoryInput != "" {
		if slug, ok := v.snapshot.FindSubcategorySlug(subcategoryInput, categorySlug); ok {
			subCategorySlug = slug
		} else {
			errs = append(errs, fmt.Sprintf("Subcategory '%s' not found or doesn't belong to the category", subcategoryInput))
		}
	}

	if len(errs) > 0 {
		return nil, &RowError{Row: line, ProductName: name, SKU: sku, Errors: errs}
	}

	draft := buildDraft(row, n, name, sku, categorySlug, subCategorySlug)
	if err := v.validate.Struct(draft); err != nil {
		return nil, &RowError{Row: line, ProductName: name, SKU: sku, Errors: draftMessages(err)}
	}
	return draft, nil
}

// buildDraft assembles a draft from a row that passed every rule.
// couponApplicable defaults to false when absent while inStock and isActive
// default to true.
func buildDraft(row SourceRow, n NormalizedRow, name, sku, categorySlug, subCategorySlug string) *catalog.ProductDraft {
	return &catalog.ProductDraft{
		Name:            name,
		Slug:            Slugify(name),
		SKU:             sku,
		CategorySlug:    categorySlug,
		SubCategorySlug: subCategorySlug,
		Pricing: catalog.Pricing{
			BasePrice:        ParseNumber(n[FieldBasePrice]),
			DiscountedPrice:  ParseNumber(n[FieldDiscountedPrice]),
			CouponApplicable: ParseBoolean(n[FieldCouponApplicable]),
			CouponList:       ParseArray(n[FieldCouponList]),
		},
		NecklaceLayers: ParseNecklaceLayers(row),
		Details: catalog.Details{
			Metal:         n.Text(FieldMetal),
			MetalPurity:   n.Text(FieldMetalPurity),
			Stone:         n.Text(FieldStone),
			StoneType:     n.Text(FieldStoneType),
			Weight:        ParseNumber(n[FieldWeight]),
			StoneWeight:   ParseNumber(n[FieldStoneWeight]),
			MetalWeight:   ParseNumber(n[FieldMetalWeight]),
			Size:          n.Text(FieldSize),
			Color:         n.Text(FieldColor),
			Clarity:       n.Text(FieldClarity),
			Certification: n.Text(FieldCertification),
		},
		Images: ParseArray(n[FieldImages]),
		Tags:   ParseArray(n[FieldTags]),
		Inventory: catalog.Inventory{
			Stock:   ParseNumber(n[FieldStock]),
			InStock: boolOrTrue(n, FieldInStock),
		},
		IsActive: boolOrTrue(n, FieldIsActive),
	}
}

func boolOrTrue(n NormalizedRow, f Field) bool {
	if !n.Has(f) {
		return true
	}
	return ParseBoolean(n[f])
}

// draftMessages turns struct validation failures into row messages.
func draftMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
	}
	return msgs
}
