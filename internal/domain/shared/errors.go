// Package shared holds the error taxonomy common to every marketplace domain.
package shared

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound        = NewDomainError("NOT_FOUND", "Resource not found")
	ErrUnauthorized    = NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrTokenInvalid    = NewDomainError("TOKEN_INVALID", "Invalid token")
	ErrTokenExpired    = NewDomainError("TOKEN_EXPIRED", "Token has expired")
	ErrForbidden       = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrAlreadyReviewed = NewDomainError("ALREADY_REVIEWED", "You have already reviewed this product")
	ErrDuplicateEmail  = NewDomainError("DUPLICATE_EMAIL", "An account with this email already exists")
	ErrStockChanged    = NewDomainError("STOCK_CHANGED", "Stock changed since it was read; reload the product and try again")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails schema rules.
type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// NewValidationError builds a ValidationError with a single message and optional field errors.
func NewValidationError(message string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}

// FromValidator converts validator/v10 errors into a ValidationError.
// Any other error is wrapped as a message-only ValidationError.
func FromValidator(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(err.Error())
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: describeField(fe),
		})
	}
	return NewValidationError("validation failed", fields...)
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s failed the %s rule", fe.Field(), fe.Tag())
	}
}

// InsufficientStockError reports a product that cannot cover the requested quantity.
type InsufficientStockError struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductUnavailableError reports a cart line whose product no longer exists.
type ProductUnavailableError struct {
	ProductID string `json:"product_id"`
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is no longer available", e.ProductID)
}

// Conflicts flattens a (possibly joined or wrapped) error tree and returns every
// stock-related conflict in it, in order.
func Conflicts(err error) []error {
	if err == nil {
		return nil
	}

	var out []error
	var walk func(error)
	walk = func(e error) {
		switch v := e.(type) {
		case *InsufficientStockError, *ProductUnavailableError:
			out = append(out, v)
			return
		case interface{ Unwrap() []error }:
			for _, inner := range v.Unwrap() {
				walk(inner)
			}
			return
		}
		if inner := errors.Unwrap(e); inner != nil {
			walk(inner)
		}
	}
	walk(err)
	return out
}
