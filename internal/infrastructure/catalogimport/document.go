// Package catalogimport reads the YAML catalog file used to bulk load
// categories, products and variants.
package catalogimport

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultMaxFileSize caps the catalog file (10MB)
const DefaultMaxFileSize int64 = 10 << 20

// Document is the root of a catalog file:
//
//	categories:
//	  - name: Shirts
//	    slug: shirts
//	products:
//	  - name: Linen Shirt
//	    category: shirts
//	    publish: true
//	    variants:
//	      - sku: SHIRT-M
//	        price: "25.00"
//	        stock: 10
type Document struct {
	Categories []CategoryEntry `yaml:"categories"`
	Products   []ProductEntry  `yaml:"products"`
}

// CategoryEntry is a category upserted by slug
type CategoryEntry struct {
	Name        string `yaml:"name"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
	Parent      string `yaml:"parent"`
	SortOrder   int    `yaml:"sort_order"`
}

// ProductEntry is a product upserted by slug
type ProductEntry struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Category    string         `yaml:"category"`
	Publish     bool           `yaml:"publish"`
	Images      []string       `yaml:"images"`
	Variants    []VariantEntry `yaml:"variants"`
}

// VariantEntry is a variant upserted by SKU. Stock, when given, is the
// absolute level to set.
type VariantEntry struct {
	SKU    string `yaml:"sku"`
	Name   string `yaml:"name"`
	Price  string `yaml:"price"`
	Stock  *int   `yaml:"stock"`
	Active *bool  `yaml:"active"`
}

// PriceDecimal parses Price. Validate guarantees it succeeds on valid documents.
func (v VariantEntry) PriceDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(v.Price)
	return d
}

// Parse reads, decodes and validates a catalog document. Unknown keys are
// rejected so typos do not silently drop data.
func Parse(r io.Reader, maxSize int64) (*Document, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("catalogimport: read: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, ErrFileTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("catalogimport: %s: %w", ErrCodeImportInvalidFile, err)
	}

	if errs := Validate(&doc, 100); errs.HasErrors() {
		return nil, &ValidationError{Errors: errs}
	}
	return &doc, nil
}
