package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"invalid value returns DESC", "INVALID", "DESC"},
		{"sql injection attempt returns DESC", "ASC; DROP TABLE orders;--", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns default", "", "created_at"},
		{"valid field returns field", "total", "total"},
		{"invalid field returns default", "password_hash", "created_at"},
		{"sql injection attempt returns default", "id; DROP TABLE orders;--", "created_at"},
		{"case sensitive", "TOTAL", "created_at"},
		{"whitespace around valid field returns field", "  number  ", "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, OrderSortFields, "created_at"))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"CommonSortFields":   CommonSortFields,
		"ProductSortFields":  ProductSortFields,
		"CustomerSortFields": CustomerSortFields,
		"OrderSortFields":    OrderSortFields,
		"OrphanSortFields":   OrphanSortFields,
		"EmailSortFields":    EmailSortFields,
		"StaffSortFields":    StaffSortFields,
	}

	for name, fields := range whitelists {
		t.Run(name, func(t *testing.T) {
			assert.True(t, fields["id"])
			assert.True(t, fields["created_at"])
			assert.False(t, fields["password_hash"])
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%linen shirt%", likePattern("  Linen SHIRT "))
}
