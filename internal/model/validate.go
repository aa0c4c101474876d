package model

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxNameLen is the backend's limit for product and category names.
const maxNameLen = 100

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

func (e *ValidationError) add(field, msg string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) result() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *ValidationError) checkName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		e.add("name", "is required")
	} else if len([]rune(name)) > maxNameLen {
		e.add("name", fmt.Sprintf("must be %d characters or fewer", maxNameLen))
	}
}

// ValidateCategory checks a category before it is sent.
func ValidateCategory(in *CategoryInput) error {
	var ve ValidationError
	ve.checkName(in.Name)
	return ve.result()
}

// ValidateProduct checks a product before it is sent.
func ValidateProduct(in *ProductInput) error {
	var ve ValidationError
	ve.checkName(in.Name)
	if in.Category <= 0 {
		ve.add("category", "is required")
	}
	if in.Quantity < 0 {
		ve.add("quantity", fmt.Sprintf("must not be negative, got %d", in.Quantity))
	}
	if in.UnitPrice.IsNegative() {
		ve.add("unit_price", "must not be negative")
	} else if in.UnitPrice.Exponent() < -2 && !in.UnitPrice.Equal(in.UnitPrice.Round(2)) {
		ve.add("unit_price", "must have at most 2 decimal places")
	} else if in.UnitPrice.GreaterThanOrEqual(decimal.New(1, 8)) {
		ve.add("unit_price", "must be less than 100000000")
	}
	return ve.result()
}

// ValidateStock checks a stock movement before it is sent.
func ValidateStock(in *StockInput) error {
	var ve ValidationError
	if in.Product <= 0 {
		ve.add("product", "is required")
	}
	if in.QuantityChanged <= 0 {
		ve.add("quantity_changed", fmt.Sprintf("must be positive, got %d", in.QuantityChanged))
	}
	if !in.Type.IsValid() {
		ve.add("type", fmt.Sprintf("invalid value %q", in.Type))
	}
	return ve.result()
}

// ValidateRegistration checks a sign-up form.
func ValidateRegistration(in *Registration) error {
	var ve ValidationError
	if strings.TrimSpace(in.Username) == "" {
		ve.add("username", "is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		ve.add("email", "must be a valid email address")
	}
	if in.Password == "" {
		ve.add("password", "is required")
	}
	return ve.result()
}

// ValidateResetConfirm checks the reset token format and new password.
func ValidateResetConfirm(in *PasswordResetConfirm) error {
	var ve ValidationError
	if _, err := uuid.Parse(strings.TrimSpace(in.Token)); err != nil {
		ve.add("token", "must be the UUID from the reset email")
	}
	if in.NewPassword == "" {
		ve.add("new_password", "is required")
	}
	return ve.result()
}
