package service

import (
	"errors"
	"strings"

	"osld-portal/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrAppealExists       = errors.New("an appeal for this deadline has already been filed")
	ErrStorageUnavailable = errors.New("document storage is unavailable")
)

// FieldError describes one invalid input field
type FieldError = validator.FieldError

// ValidationError is returned before any remote call when input is rejected
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func invalid(field, message string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// validate runs struct tag validation and converts the result
func validate(input any) error {
	err := validator.ValidateStruct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.Errors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: fieldErrs}
	}
	return err
}
