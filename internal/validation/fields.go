// Package validation holds the stateless field checks applied to user input
// before it reaches a service or the database.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ariefcatur/go-grocery-orders/internal/apperr"
	"github.com/shopspring/decimal"
)

const (
	maxNameLen        = 100
	maxEmailLen       = 100
	minPasswordLen    = 8
	maxAddressLen     = 500
	maxProductNameLen = 100
	maxCategoryLen    = 50
	maxDescriptionLen = 1000
	maxSearchTermLen  = 100
	maxPriceScale     = 2

	passwordSpecials = "@$!%*?&"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,100}$`)
)

// HasText reports whether s contains at least one non-whitespace rune.
func HasText(s string) bool { return strings.TrimSpace(s) != "" }

func length(s string) int { return utf8.RuneCountInString(s) }

func CustomerName(name string) error {
	if !HasText(name) {
		return apperr.Validation("Customer name is required")
	}
	if length(name) > maxNameLen {
		return apperr.Validation("Customer name must not exceed 100 characters")
	}
	if !namePattern.MatchString(strings.TrimSpace(name)) {
		return apperr.Validation("Customer name must contain only letters and spaces")
	}
	return nil
}

func Email(email string) error {
	if !HasText(email) {
		return apperr.Validation("Email is required")
	}
	if length(email) > maxEmailLen {
		return apperr.Validation("Email must not exceed 100 characters")
	}
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return apperr.Validation("Email format is invalid")
	}
	return nil
}

// Password requires at least eight characters drawn from letters, digits and
// @$!%*?&, with one of each class present.
func Password(password string) error {
	if !HasText(password) {
		return apperr.Validation("Password is required")
	}
	if length(password) < minPasswordLen {
		return apperr.Validation("Password must be at least 8 characters long")
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			return errPasswordStrength
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return errPasswordStrength
		}
	}
	if !lower || !upper || !digit || !special {
		return errPasswordStrength
	}
	return nil
}

var errPasswordStrength = apperr.Validation(
	"Password must contain at least one uppercase letter, one lowercase letter, one digit, and one special character")

func ContactNumber(number string) error {
	if !HasText(number) {
		return apperr.Validation("Contact number is required")
	}
	if !phonePattern.MatchString(strings.TrimSpace(number)) {
		return apperr.Validation("Contact number must be exactly 10 digits")
	}
	return nil
}

func Address(address string) error {
	if !HasText(address) {
		return apperr.Validation("Address is required")
	}
	if length(address) > maxAddressLen {
		return apperr.Validation("Address must not exceed 500 characters")
	}
	return nil
}

func ProductName(name string) error {
	if !HasText(name) {
		return apperr.Validation("Product name is required")
	}
	if length(name) > maxProductNameLen {
		return apperr.Validation("Product name must not exceed 100 characters")
	}
	return nil
}

// Price rejects a missing, non-positive or over-precise amount. Scale is
// judged on the literal, so 5.000 fails even though it equals 5.
func Price(price *decimal.Decimal) error {
	if price == nil {
		return apperr.Validation("Price is required")
	}
	if !price.IsPositive() {
		return apperr.Validation("Price must be greater than 0")
	}
	if -price.Exponent() > maxPriceScale {
		return apperr.Validation("Price can have at most 2 decimal places")
	}
	return nil
}

func Quantity(quantity *int) error {
	if quantity == nil {
		return apperr.Validation("Quantity is required")
	}
	if *quantity < 0 {
		return apperr.Validation("Quantity cannot be negative")
	}
	return nil
}

func Category(category string) error {
	if length(category) > maxCategoryLen {
		return apperr.Validation("Category must not exceed 50 characters")
	}
	return nil
}

func Description(description string) error {
	if length(description) > maxDescriptionLen {
		return apperr.Validation("Description must not exceed 1000 characters")
	}
	return nil
}

func SearchTerm(term string) error {
	if !HasText(term) {
		return apperr.Validation("Search term cannot be empty")
	}
	if length(term) > maxSearchTermLen {
		return apperr.Validation("Search term must not exceed 100 characters")
	}
	return GuardInjection(term, "Search Term")
}
