package catalogimport

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
)

const (
	maxNameLength = 200
	maxSKULength  = 64
)

// Validate checks required fields, value ranges, in-file uniqueness of slugs
// and SKUs, and that category references resolve within the file. References
// to categories that only exist in the database are checked at import time.
func Validate(doc *Document, maxErrors int) *ErrorCollection {
	errs := NewErrorCollection(maxErrors)
	categorySlugs := make(map[string]string)
	productSlugs := make(map[string]string)
	skus := make(map[string]string)

	for i, c := range doc.Categories {
		item := fmt.Sprintf("categories[%d]", i)
		name := strings.TrimSpace(c.Name)
		if name == "" {
			errs.AddRequired(item, "name")
			continue
		}
		if len(name) > 100 {
			errs.AddLength(item, "name", 100)
		}
		slug := CategorySlug(c)
		if first, ok := categorySlugs[slug]; ok {
			errs.AddDuplicate(item, "slug", slug, first)
			continue
		}
		categorySlugs[slug] = item
	}
	for i, c := range doc.Categories {
		if c.Parent == "" {
			continue
		}
		parent := catalog.Slugify(c.Parent)
		if _, ok := categorySlugs[parent]; !ok {
			errs.AddReference(fmt.Sprintf("categories[%d]", i), "parent", c.Parent, "category")
		}
		if parent == CategorySlug(c) {
			errs.AddRange(fmt.Sprintf("categories[%d]", i), "parent", "category cannot be its own parent", c.Parent)
		}
	}

	for i, p := range doc.Products {
		item := fmt.Sprintf("products[%d]", i)
		name := strings.TrimSpace(p.Name)
		if name == "" {
			errs.AddRequired(item, "name")
		} else {
			if len(name) > maxNameLength {
				errs.AddLength(item, "name", maxNameLength)
			}
			slug := ProductSlug(p)
			if first, ok := productSlugs[slug]; ok {
				errs.AddDuplicate(item, "slug", slug, first)
			} else {
				productSlugs[slug] = item
			}
		}
		if p.Publish && len(p.Variants) == 0 {
			errs.AddRange(item, "publish", "a published product needs at least one variant", "true")
		}
		for j, v := range p.Variants {
			validateVariant(errs, fmt.Sprintf("%s.variants[%d]", item, j), v, skus)
		}
	}
	return errs
}

func validateVariant(errs *ErrorCollection, item string, v VariantEntry, skus map[string]string) {
	sku := NormalizeSKU(v.SKU)
	switch {
	case sku == "":
		errs.AddRequired(item, "sku")
	case len(sku) > maxSKULength:
		errs.AddLength(item, "sku", maxSKULength)
	default:
		if first, ok := skus[sku]; ok {
			errs.AddDuplicate(item, "sku", sku, first)
		} else {
			skus[sku] = item
		}
	}

	if strings.TrimSpace(v.Price) == "" {
		errs.AddRequired(item, "price")
	} else if price, err := decimal.NewFromString(strings.TrimSpace(v.Price)); err != nil {
		errs.AddType(item, "price", "decimal", v.Price)
	} else if price.IsNegative() {
		errs.AddRange(item, "price", "price cannot be negative", v.Price)
	}

	if v.Stock != nil && *v.Stock < 0 {
		errs.AddRange(item, "stock", "stock cannot be negative", fmt.Sprint(*v.Stock))
	}
}

// CategorySlug returns the slug a category entry is stored under
func CategorySlug(c CategoryEntry) string {
	if c.Slug != "" {
		return catalog.Slugify(c.Slug)
	}
	return catalog.Slugify(c.Name)
}

// ProductSlug returns the slug a product entry is stored under
func ProductSlug(p ProductEntry) string {
	if p.Slug != "" {
		return catalog.Slugify(p.Slug)
	}
	return catalog.Slugify(p.Name)
}

// NormalizeSKU uppercases and trims a SKU the way variants store it
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
