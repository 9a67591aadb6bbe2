// Package catalog holds the storefront catalog records exchanged with the
// catalog backend: reference entities read before an import and the product
// drafts submitted after it.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a backend record identifier. Backends in the wild answer with either
// JSON strings or numbers, so both decode into the same textual form.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("catalog id: %w", err)
		}
		if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
			return fmt.Errorf("catalog id %q: %w", n, err)
		}
		*id = ID(n.String())
		return nil
	}
}

// Category is a top-level catalog category.
type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Subcategory belongs to exactly one category, referenced by slug.
type Subcategory struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	CategorySlug string `json:"categorySlug"`
}

// Product is an existing catalog product. Only the SKU matters to imports.
type Product struct {
	ID   ID     `json:"id,omitempty"`
	SKU  string `json:"sku"`
	Name string `json:"name,omitempty"`
}

// Pricing is the price block of a product.
type Pricing struct {
	BasePrice        float64  `json:"basePrice"`
	DiscountedPrice  float64  `json:"discountedPrice"`
	CouponApplicable bool     `json:"couponApplicable"`
	CouponList       []string `json:"couponList"`
}

// NecklaceLayer is the price of one layered variant, e.g. "2-layer".
type NecklaceLayer struct {
	Layer string  `json:"layer"`
	Price float64 `json:"price"`
}

// Details holds the free-form jewellery attributes.
type Details struct {
	Metal         string  `json:"metal"`
	MetalPurity   string  `json:"metalPurity"`
	Stone         string  `json:"stone"`
	StoneType     string  `json:"stoneType"`
	Weight        float64 `json:"weight"`
	StoneWeight   float64 `json:"stoneWeight"`
	MetalWeight   float64 `json:"metalWeight"`
	Size          string  `json:"size"`
	Color         string  `json:"color"`
	Clarity       string  `json:"clarity"`
	Certification string  `json:"certification"`
}

// Inventory is the stock block of a product.
type Inventory struct {
	Stock   float64 `json:"stock"`
	InStock bool    `json:"inStock"`
}

// ProductDraft is a validated product ready for bulk creation.
// Required fields and resolved references are never empty.
type ProductDraft struct {
	Name            string          `json:"name" validate:"required"`
	Slug            string          `json:"slug"`
	SKU             string          `json:"sku" validate:"required"`
	CategorySlug    string          `json:"categorySlug" validate:"required"`
	SubCategorySlug string          `json:"subCategorySlug"`
	Pricing         Pricing         `json:"pricing"`
	NecklaceLayers  []NecklaceLayer `json:"necklaceLayers"`
	Details         Details         `json:"details"`
	Images          []string        `json:"images"`
	Tags            []string        `json:"tags"`
	Inventory       Inventory       `json:"inventory"`
	IsActive        bool            `json:"isActive"`
}

// BulkError is one backend-reported failure from a bulk create.
// Product is passed through untouched since its shape is backend-defined.
type BulkError struct {
	Product json.RawMessage `json:"product,omitempty"`
	Error   string          `json:"error"`
}

// BulkResult is the backend's answer to POST /products/bulk.
type BulkResult struct {
	SuccessCount    int             `json:"successCount"`
	FailedCount     int             `json:"failedCount"`
	Errors          []BulkError     `json:"errors"`
	CreatedProducts json.RawMessage `json:"createdProducts,omitempty"`
}
