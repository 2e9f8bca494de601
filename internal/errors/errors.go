// Package errors provides the typed errors surfaced by the Basis core.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// BasisError is the base interface for all Basis errors
type BasisError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of BasisError
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
	Details    string `json:"details,omitempty"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// EntityNotFoundError is raised when requested entity ids do not resolve in
// the metadata store. A caller mistake, never retried internally.
type EntityNotFoundError struct {
	BaseError
}

func NewEntityNotFoundError(detail string) *EntityNotFoundError {
	return &EntityNotFoundError{
		BaseError: BaseError{
			Message:    detail,
			StatusCode: http.StatusNotFound,
			ErrorCode:  "ENTITY_NOT_FOUND",
		},
	}
}

// NoValidEntitiesError is raised when every entity in a compile batch is
// ineligible (e.g. not published).
type NoValidEntitiesError struct {
	BaseError
}

func NewNoValidEntitiesError() *NoValidEntitiesError {
	return &NoValidEntitiesError{
		BaseError: BaseError{
			Message:    "no valid entities to compile",
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  "NO_VALID_ENTITIES",
		},
	}
}

// GenerationError represents invalid metadata preventing source generation.
// Generation never produces partial source.
type GenerationError struct {
	BaseError
	PropertyName string
}

func NewGenerationError(propertyName, message string) *GenerationError {
	return &GenerationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "GENERATION_ERROR",
		},
		PropertyName: propertyName,
	}
}

// TypeNotLoadedError is raised when instantiation or introspection is
// requested for a type never compiled into the registry.
type TypeNotLoadedError struct {
	BaseError
	FullTypeName string
}

func NewTypeNotLoadedError(fullTypeName string) *TypeNotLoadedError {
	return &TypeNotLoadedError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("entity type not loaded: %s", fullTypeName),
			StatusCode: http.StatusConflict,
			ErrorCode:  "TYPE_NOT_LOADED",
		},
		FullTypeName: fullTypeName,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	BaseError
	Field string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Field: field,
	}
}

// PermissionDeniedError represents a permission denied error
type PermissionDeniedError struct {
	BaseError
	Action   string
	Resource string
}

func NewPermissionDeniedError(action, resource string) *PermissionDeniedError {
	return &PermissionDeniedError{
		BaseError: BaseError{
			Message:    "permission denied",
			StatusCode: http.StatusForbidden,
			ErrorCode:  "PERMISSION_DENIED",
		},
		Action:   action,
		Resource: resource,
	}
}

// UnauthorizedError represents an authentication error
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// InternalError represents an internal server error
type InternalError struct {
	BaseError
	OriginalError error
}

func NewInternalError(original error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
		},
		OriginalError: original,
	}
}

func (e *InternalError) Unwrap() error {
	return e.OriginalError
}

// IsEntityNotFound reports whether err is an EntityNotFoundError.
func IsEntityNotFound(err error) bool {
	var target *EntityNotFoundError
	return errors.As(err, &target)
}

// IsNoValidEntities reports whether err is a NoValidEntitiesError.
func IsNoValidEntities(err error) bool {
	var target *NoValidEntitiesError
	return errors.As(err, &target)
}

// IsGenerationError reports whether err is a GenerationError.
func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}

// IsTypeNotLoaded reports whether err is a TypeNotLoadedError.
func IsTypeNotLoaded(err error) bool {
	var target *TypeNotLoadedError
	return errors.As(err, &target)
}

// ToHTTPError converts any error to an appropriate HTTP response
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	var be BasisError
	if errors.As(err, &be) {
		return be.HTTPStatus(), map[string]interface{}{
			"error":   be.Code(),
			"message": be.Error(),
		}
	}

	return http.StatusInternalServerError, map[string]interface{}{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}
