package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending approval")
	ErrLockedOut          = errors.New("account temporarily locked")
)

var (
	ErrInternProfileRequired   = fmt.Errorf("%w: intern profile required", ErrValidation)
	ErrEmployerProfileRequired = fmt.Errorf("%w: employer profile required", ErrValidation)
	ErrPostInactive            = fmt.Errorf("%w: internship post is closed", ErrValidation)
	ErrAlreadyApplied          = fmt.Errorf("%w: already applied to this post", ErrConflict)
	ErrInvalidTransition       = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrInvalidToken            = fmt.Errorf("%w: invalid or expired token", ErrValidation)
	ErrDuplicateEmail          = fmt.Errorf("%w: email already registered", ErrConflict)
)

// ValidationError 带字段级错误信息，errors.Is(err, ErrValidation) 为真
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, msg string) *ValidationError {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
	return e
}

// OrNil 没有字段错误时返回 nil
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid 单字段校验失败的快捷方式
func Invalid(field, msg string) error {
	return NewValidationError().Add(field, msg)
}
