package importer

// resolver.go holds the per-run reference snapshot and name-to-slug resolution.

import (
	"strings"

	"github.com/JonMunkholm/catalog-import/internal/catalog"
)

// Snapshot is the immutable reference data for one import run.
// It is built once, before validation, and shared read-only by every row.
type Snapshot struct {
	categories    []catalog.Category
	subcategories []catalog.Subcategory
	existingSKUs  map[string]struct{}
}

// NewSnapshot copies the reference lists and indexes existing SKUs by their
// lower-cased, trimmed form. Products without a SKU are ignored.
func NewSnapshot(categories []catalog.Category, subcategories []catalog.Subcategory, products []catalog.Product) *Snapshot {
	s := &Snapshot{
		categories:    append([]catalog.Category(nil), categories...),
		subcategories: append([]catalog.Subcategory(nil), subcategories...),
		existingSKUs:  make(map[string]struct{}, len(products)),
	}
	for _, p := range products {
		if key := skuKey(p.SKU); key != "" {
			s.existingSKUs[key] = struct{}{}
		}
	}
	return s
}

func skuKey(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

// matchesRef reports whether input names the reference by display name or slug.
// input must already be trimmed and lower-cased.
func matchesRef(input, name, slug string) bool {
	return strings.ToLower(strings.TrimSpace(name)) == input ||
		strings.ToLower(strings.TrimSpace(slug)) == input
}

// FindCategorySlug resolves a category name or slug, case-insensitively.
func (s *Snapshot) FindCategorySlug(name string) (string, bool) {
	input := strings.ToLower(strings.TrimSpace(name))
	if input == "" {
		return "", false
	}
	for _, c := range s.categories {
		if matchesRef(input, c.Name, c.Slug) {
			return c.Slug, true
		}
	}
	return "", false
}

// FindSubcategorySlug resolves a subcategory name or slug. When categorySlug
// is non-empty only subcategories of that category are considered.
func (s *Snapshot) FindSubcategorySlug(name, categorySlug string) (string, bool) {
	input := strings.ToLower(strings.TrimSpace(name))
	if input == "" {
		return "", false
	}
	for _, sc := range s.subcategories {
		if categorySlug != "" && sc.CategorySlug != categorySlug {
			continue
		}
		if matchesRef(input, sc.Name, sc.Slug) {
			return sc.Slug, true
		}
	}
	return "", false
}

// SKUExists reports whether the SKU is already in the catalog, ignoring case.
func (s *Snapshot) SKUExists(sku string) bool {
	_, ok := s.existingSKUs[skuKey(sku)]
	return ok
}

// SnapshotStats summarizes a snapshot for logging.
type SnapshotStats struct {
	Categories    int
	Subcategories int
	ExistingSKUs  int
}

func (s *Snapshot) Stats() SnapshotStats {
	return SnapshotStats{
		Categories:    len(s.categories),
		Subcategories: len(s.subcategories),
		ExistingSKUs:  len(s.existingSKUs),
	}
}
