package domain

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrPermissionDeny = errors.New("permission denied")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNetwork        = errors.New("network failure")
	ErrServer         = errors.New("server error")
	ErrInvalidToken   = errors.New("invalid token")
	ErrNoSession      = errors.New("no authenticated session")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindAuth       ErrorKind = "auth"
	KindNotFound   ErrorKind = "not_found"
	KindNetwork    ErrorKind = "network"
	KindServer     ErrorKind = "server"
)

// CallError is the outcome of a failed gateway call.
type CallError struct {
	Op      string
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *CallError) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *CallError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrInvalidInput
	case KindAuth:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindNetwork:
		return ErrNetwork
	default:
		return ErrServer
	}
}

// KindOf classifies any error the portal produces.
func KindOf(err error) ErrorKind {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var ve ValidationErrors
	switch {
	case errors.As(err, &ve), errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNoSession), errors.Is(err, ErrInvalidToken):
		return KindAuth
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	}
	return KindServer
}

// ValidationErrors maps a form field to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	b.WriteString("validation failed:")
	for i, f := range v.Fields() {
		if i > 0 {
			b.WriteString(";")
		}
		b.WriteString(" " + f + ": " + v[f])
	}
	return b.String()
}

// Fields returns the failing fields in form order, unknown fields last.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for _, f := range FormFieldOrder {
		if _, ok := v[f]; ok {
			fields = append(fields, f)
		}
	}
	var extra []string
	for f := range v {
		if !slices.Contains(fields, f) {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	return append(fields, extra...)
}

func (v ValidationErrors) Unwrap() error { return ErrInvalidInput }

// FormFieldOrder is the order fields appear on the signup form.
var FormFieldOrder = []string{"name", "dob", "gender", "caste", "mobile", "password", "otp", "newPassword", "comment", "reason", "title", "subtitle", "image", "file"}
