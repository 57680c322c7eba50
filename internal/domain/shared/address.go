package shared

import (
	"regexp"
	"strings"
)

// Address is a postal address value object
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether no field is set
func (a Address) IsZero() bool {
	return a == Address{}
}

// Validate checks the fields required to ship a parcel
func (a Address) Validate() error {
	switch {
	case strings.TrimSpace(a.Name) == "":
		return ErrInvalidInput.Withf("address name is required")
	case strings.TrimSpace(a.Line1) == "":
		return ErrInvalidInput.Withf("address line1 is required")
	case strings.TrimSpace(a.City) == "":
		return ErrInvalidInput.Withf("address city is required")
	case strings.TrimSpace(a.PostalCode) == "":
		return ErrInvalidInput.Withf("address postal code is required")
	case len(strings.TrimSpace(a.Country)) != 2:
		return ErrInvalidInput.Withf("address country must be an ISO 3166-1 alpha-2 code")
	}
	return nil
}

// Normalize trims whitespace and uppercases the country code
func (a Address) Normalize() Address {
	a.Name = strings.TrimSpace(a.Name)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.Region = strings.TrimSpace(a.Region)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// NormalizeEmail lowercases and validates an email address
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidInput.Withf("email cannot be empty")
	}
	if len(email) > 200 {
		return "", ErrInvalidInput.Withf("email cannot exceed 200 characters")
	}
	if !emailRegex.MatchString(email) {
		return "", ErrInvalidInput.Withf("invalid email format")
	}
	return email, nil
}
