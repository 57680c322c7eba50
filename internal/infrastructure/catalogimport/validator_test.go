package catalogimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func codes(ec *ErrorCollection) []string {
	out := make([]string, 0, len(ec.Errors()))
	for _, e := range ec.Errors() {
		out = append(out, e.Code+" "+e.Item+"."+e.Field)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want []string
	}{
		{
			name: "valid",
			doc: Document{
				Categories: []CategoryEntry{{Name: "Shirts"}},
				Products: []ProductEntry{{Name: "Shirt", Category: "shirts", Variants: []VariantEntry{
					{SKU: "S-1", Price: "1.00", Stock: intPtr(0)},
				}}},
			},
		},
		{
			name: "missing names",
			doc: Document{
				Categories: []CategoryEntry{{Slug: "x"}},
				Products:   []ProductEntry{{Slug: "y"}},
			},
			want: []string{
				ErrCodeImportRequiredField + " categories[0].name",
				ErrCodeImportRequiredField + " products[0].name",
			},
		},
		{
			name: "duplicate slugs after normalization",
			doc: Document{
				Categories: []CategoryEntry{{Name: "Tops"}, {Name: "TOPS!"}},
				Products:   []ProductEntry{{Name: "A", Slug: "same"}, {Name: "B", Slug: "Same"}},
			},
			want: []string{
				ErrCodeImportDuplicateInFile + " categories[1].slug",
				ErrCodeImportDuplicateInFile + " products[1].slug",
			},
		},
		{
			name: "duplicate sku across products",
			doc: Document{Products: []ProductEntry{
				{Name: "A", Variants: []VariantEntry{{SKU: "dup", Price: "1"}}},
				{Name: "B", Variants: []VariantEntry{{SKU: " DUP ", Price: "1"}}},
			}},
			want: []string{ErrCodeImportDuplicateInFile + " products[1].variants[0].sku"},
		},
		{
			name: "variant fields",
			doc: Document{Products: []ProductEntry{{Name: "A", Variants: []VariantEntry{
				{Price: "1"},
				{SKU: "B", Price: "-1"},
				{SKU: "C"},
				{SKU: "D", Price: "1", Stock: intPtr(-2)},
			}}}},
			want: []string{
				ErrCodeImportRequiredField + " products[0].variants[0].sku",
				ErrCodeImportInvalidRange + " products[0].variants[1].price",
				ErrCodeImportRequiredField + " products[0].variants[2].price",
				ErrCodeImportInvalidRange + " products[0].variants[3].stock",
			},
		},
		{
			name: "unknown and self parent",
			doc: Document{Categories: []CategoryEntry{
				{Name: "A", Parent: "missing"},
				{Name: "B", Parent: "b"},
			}},
			want: []string{
				ErrCodeImportReferenceNotFound + " categories[0].parent",
				ErrCodeImportInvalidRange + " categories[1].parent",
			},
		},
		{
			name: "publish without variants",
			doc:  Document{Products: []ProductEntry{{Name: "A", Publish: true}}},
			want: []string{ErrCodeImportInvalidRange + " products[0].publish"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(&tt.doc, 50)
			if len(tt.want) == 0 {
				require.False(t, errs.HasErrors(), errs.String())
				return
			}
			assert.Equal(t, tt.want, codes(errs))
		})
	}
}

func TestValidate_ProductCategoryMayLiveInDatabase(t *testing.T) {
	doc := Document{Products: []ProductEntry{{Name: "A", Category: "existing-in-db"}}}
	assert.False(t, Validate(&doc, 10).HasErrors())
}
