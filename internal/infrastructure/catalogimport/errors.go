package catalogimport

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	ErrCodeImportInvalidFile       = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportRequiredField     = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType       = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidLength     = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange      = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportDuplicateInFile   = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeImportReferenceNotFound = "ERR_IMPORT_REFERENCE_NOT_FOUND"
)

// Common import errors
var (
	ErrEmptyFile    = errors.New("catalog file is empty")
	ErrFileTooLarge = errors.New("catalog file exceeds maximum allowed size")
)

// ItemError points at one field of one entry, e.g. products[2].variants[0].sku
type ItemError struct {
	Item    string `json:"item"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e ItemError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s.%s: %s", e.Item, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Item, e.Message)
}

// ErrorCollection keeps the first maxErrors errors and counts the rest
type ErrorCollection struct {
	errors     []ItemError
	maxErrors  int
	totalCount int
}

// NewErrorCollection creates a collection with a maximum error limit
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]ItemError, 0, min(maxErrors, 16)),
		maxErrors: maxErrors,
	}
}

// Add adds an error to the collection
func (ec *ErrorCollection) Add(err ItemError) {
	ec.totalCount++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddRequired adds a required field error
func (ec *ErrorCollection) AddRequired(item, field string) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportRequiredField,
		Message: fmt.Sprintf("field '%s' is required", field)})
}

// AddType adds a type validation error
func (ec *ErrorCollection) AddType(item, field, expected, value string) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportInvalidType,
		Message: fmt.Sprintf("expected %s", expected), Value: value})
}

// AddLength adds a maximum length error
func (ec *ErrorCollection) AddLength(item, field string, maxLen int) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportInvalidLength,
		Message: fmt.Sprintf("length must be at most %d", maxLen)})
}

// AddRange adds a range error
func (ec *ErrorCollection) AddRange(item, field, message, value string) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportInvalidRange, Message: message, Value: value})
}

// AddDuplicate adds a duplicate-in-file error
func (ec *ErrorCollection) AddDuplicate(item, field, value, firstSeen string) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportDuplicateInFile,
		Message: fmt.Sprintf("duplicate value '%s' (first seen at %s)", value, firstSeen), Value: value})
}

// AddReference adds a reference not found error
func (ec *ErrorCollection) AddReference(item, field, value, refType string) {
	ec.Add(ItemError{Item: item, Field: field, Code: ErrCodeImportReferenceNotFound,
		Message: fmt.Sprintf("%s '%s' not found", refType, value), Value: value})
}

// Errors returns the collected errors
func (ec *ErrorCollection) Errors() []ItemError {
	return ec.errors
}

// TotalCount returns the number of errors including those not kept
func (ec *ErrorCollection) TotalCount() int {
	return ec.totalCount
}

// HasErrors returns true if any error was added
func (ec *ErrorCollection) HasErrors() bool {
	return ec.totalCount > 0
}

// IsTruncated returns true if some errors were dropped due to the limit
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.totalCount > ec.maxErrors
}

// String returns a multi-line report of all kept errors
func (ec *ErrorCollection) String() string {
	if !ec.HasErrors() {
		return "no errors"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.totalCount)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.maxErrors)
	}
	sb.WriteString(":\n")
	for _, err := range ec.errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// ValidationError is returned by Parse when the document fails validation
type ValidationError struct {
	Errors *ErrorCollection
}

func (e *ValidationError) Error() string {
	return "catalog file is invalid: " + e.Errors.String()
}
