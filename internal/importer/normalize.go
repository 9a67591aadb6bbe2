package importer

// normalize.go maps free-form spreadsheet headers onto canonical product fields.

import (
	"fmt"
	"strings"
)

// Field is a canonical product field name.
type Field string

const (
	FieldName             Field = "name"
	FieldSKU              Field = "sku"
	FieldCategorySlug     Field = "categorySlug"
	FieldSubCategorySlug  Field = "subCategorySlug"
	FieldBasePrice        Field = "basePrice"
	FieldDiscountedPrice  Field = "discountedPrice"
	FieldCouponApplicable Field = "couponApplicable"
	FieldCouponList       Field = "couponList"
	FieldMetal            Field = "metal"
	FieldMetalPurity      Field = "metalPurity"
	FieldStone            Field = "stone"
	FieldStoneType        Field = "stoneType"
	FieldWeight           Field = "weight"
	FieldStoneWeight      Field = "stoneWeight"
	FieldMetalWeight      Field = "metalWeight"
	FieldSize             Field = "size"
	FieldColor            Field = "color"
	FieldClarity          Field = "clarity"
	FieldCertification    Field = "certification"
	FieldImages           Field = "images"
	FieldTags             Field = "tags"
	FieldStock            Field = "stock"
	FieldInStock          Field = "inStock"
	FieldIsActive         Field = "isActive"
)

// FieldInfo describes one canonical field and the header spellings it accepts.
type FieldInfo struct {
	Field    Field    `json:"field"`
	Aliases  []string `json:"aliases"`
	Required bool     `json:"required"`
}

// fieldTable is the static alias table in display order.
// Aliases are stored in normalized form (lower-case, underscores).
var fieldTable = []FieldInfo{
	{Field: FieldName, Required: true, Aliases: []string{"name", "product_name", "productname", "title", "product_title"}},
	{Field: FieldSKU, Required: true, Aliases: []string{"sku", "product_sku", "sku_code", "code", "product_code"}},
	{Field: FieldCategorySlug, Required: true, Aliases: []string{"category", "category_name", "categoryslug", "category_slug", "cat"}},
	{Field: FieldSubCategorySlug, Aliases: []string{"subcategory", "sub_category", "subcategory_name", "sub_category_name", "subcategoryslug", "subcategory_slug"}},
	{Field: FieldBasePrice, Aliases: []string{"price", "base_price", "baseprice", "mrp", "regular_price"}},
	{Field: FieldDiscountedPrice, Aliases: []string{"discount_price", "discounted_price", "discountedprice", "sale_price", "offer_price"}},
	{Field: FieldCouponApplicable, Aliases: []string{"coupon_applicable", "couponapplicable", "coupon"}},
	{Field: FieldCouponList, Aliases: []string{"coupons", "coupon_list", "coupon_codes"}},
	{Field: FieldMetal, Aliases: []string{"metal", "metal_type"}},
	{Field: FieldMetalPurity, Aliases: []string{"metal_purity", "purity", "metalpurity", "karat"}},
	{Field: FieldStone, Aliases: []string{"stone"}},
	{Field: FieldStoneType, Aliases: []string{"stone_type", "stonetype"}},
	{Field: FieldWeight, Aliases: []string{"weight", "gross_weight", "total_weight"}},
	{Field: FieldStoneWeight, Aliases: []string{"stone_weight", "stoneweight"}},
	{Field: FieldMetalWeight, Aliases: []string{"metal_weight", "metalweight", "net_weight"}},
	{Field: FieldSize, Aliases: []string{"size"}},
	{Field: FieldColor, Aliases: []string{"color", "colour"}},
	{Field: FieldClarity, Aliases: []string{"clarity"}},
	{Field: FieldCertification, Aliases: []string{"certification", "certificate", "cert"}},
	{Field: FieldImages, Aliases: []string{"images", "image", "image_urls", "image_url", "imageurls", "photos"}},
	{Field: FieldTags, Aliases: []string{"tags", "tag", "keywords"}},
	{Field: FieldStock, Aliases: []string{"stock", "quantity", "qty", "stock_quantity", "inventory"}},
	{Field: FieldInStock, Aliases: []string{"in_stock", "instock", "available", "availability"}},
	{Field: FieldIsActive, Aliases: []string{"is_active", "isactive", "active", "status"}},
}

// aliasIndex is the reverse lookup of fieldTable.
var aliasIndex = buildAliasIndex(fieldTable)

func buildAliasIndex(table []FieldInfo) map[string]Field {
	idx := make(map[string]Field)
	for _, info := range table {
		for _, alias := range info.Aliases {
			if existing, ok := idx[alias]; ok {
				panic(fmt.Sprintf("importer: alias %q claimed by both %s and %s", alias, existing, info.Field))
			}
			idx[alias] = info.Field
		}
	}
	return idx
}

// normalizeHeader lower-cases h and joins its whitespace-separated words
// with "_". Any Unicode space counts, so NBSP from Excel headers is handled.
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

// NormalizeFieldName returns the canonical field for a raw header.
// The match is exact after normalization; ok is false for unknown headers.
func NormalizeFieldName(header string) (Field, bool) {
	f, ok := aliasIndex[normalizeHeader(header)]
	return f, ok
}

// Fields returns the canonical field catalogue with accepted aliases.
func Fields() []FieldInfo {
	out := make([]FieldInfo, len(fieldTable))
	for i, info := range fieldTable {
		info.Aliases = append([]string(nil), info.Aliases...)
		out[i] = info
	}
	return out
}

// NormalizeRow builds the NormalizedRow for a SourceRow. Cells are applied in
// column order, so a later header mapping to the same field overwrites an
// earlier one. Unknown headers are dropped.
func NormalizeRow(row SourceRow) NormalizedRow {
	n := make(NormalizedRow, len(row.Cells))
	for _, c := range row.Cells {
		if f, ok := NormalizeFieldName(c.Header); ok {
			n[f] = c.Value
		}
	}
	return n
}

// HeaderConflictPolicy decides what happens when several headers map to one field.
type HeaderConflictPolicy string

const (
	// ConflictLastWins keeps the last non-empty cell silently.
	ConflictLastWins HeaderConflictPolicy = "last-wins"
	// ConflictWarn keeps the last non-empty cell and reports a warning.
	ConflictWarn HeaderConflictPolicy = "warn"
	// ConflictReject refuses the file.
	ConflictReject HeaderConflictPolicy = "reject"
)

// ParseHeaderConflictPolicy parses a policy name. Empty means ConflictLastWins.
func ParseHeaderConflictPolicy(s string) (HeaderConflictPolicy, error) {
	switch p := HeaderConflictPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ConflictLastWins, nil
	case ConflictLastWins, ConflictWarn, ConflictReject:
		return p, nil
	default:
		return "", fmt.Errorf("unknown header conflict policy %q", s)
	}
}

// HeaderConflict lists the raw headers that all map to Field, in column order.
type HeaderConflict struct {
	Field   Field
	Headers []string
}

func (c HeaderConflict) String() string {
	quoted := make([]string, len(c.Headers))
	for i, h := range c.Headers {
		quoted[i] = fmt.Sprintf("%q", h)
	}
	return fmt.Sprintf("columns %s all map to %s", strings.Join(quoted, ", "), c.Field)
}

// FindHeaderConflicts reports every canonical field claimed by more than one
// header. Results follow the column order of each field's first header.
func FindHeaderConflicts(headers []string) []HeaderConflict {
	byField := make(map[Field][]string)
	var order []Field
	for _, h := range headers {
		f, ok := NormalizeFieldName(h)
		if !ok {
			continue
		}
		if _, seen := byField[f]; !seen {
			order = append(order, f)
		}
		byField[f] = append(byField[f], h)
	}

	var conflicts []HeaderConflict
	for _, f := range order {
		if hs := byField[f]; len(hs) > 1 {
			conflicts = append(conflicts, HeaderConflict{Field: f, Headers: hs})
		}
	}
	return conflicts
}
