// Package errors provides structured error types for the weft composition
// engine. Errors carry a kind, a stable code, and optional template/component
// context so callers can distinguish fatal configuration problems from
// failures the builder recovers into inline markers.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind categorizes engine errors.
type ErrorKind string

const (
	KindTemplate ErrorKind = "template"
	KindConfig   ErrorKind = "config"
	KindIO       ErrorKind = "io"
	KindNetwork  ErrorKind = "network"
	KindBuild    ErrorKind = "build"
	KindInternal ErrorKind = "internal"
)

// Stable error codes used across the engine.
const (
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeInvalidReference = "INVALID_REFERENCE"
	CodeComponentMissing = "COMPONENT_MISSING"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeDescriptorParse  = "DESCRIPTOR_PARSE"
)

// WeftError is a structured error with engine context.
type WeftError struct {
	Kind        ErrorKind
	Code        string
	Message     string
	Cause       error
	Component   string
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *WeftError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *WeftError) Unwrap() error {
	return e.Cause
}

// Is matches errors by kind and code.
func (e *WeftError) Is(target error) bool {
	var t *WeftError
	if errors.As(target, &t) {
		return e.Kind == t.Kind && e.Code == t.Code
	}

	return false
}

// WithComponent attaches component context.
func (e *WeftError) WithComponent(component string) *WeftError {
	e.Component = component

	return e
}

// WithPath attaches file or template path context.
func (e *WeftError) WithPath(path string) *WeftError {
	e.Path = path

	return e
}

// NewTemplateNotFoundError reports a missing top-level template file. This is
// the only failure a build propagates for an otherwise valid descriptor tree.
func NewTemplateNotFoundError(path string, cause error) *WeftError {
	return &WeftError{
		Kind:        KindTemplate,
		Code:        CodeTemplateNotFound,
		Message:     "template not found",
		Path:        path,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInvalidReferenceError reports a descriptor component entry whose shape
// cannot be resolved into a path, group/name pair, or URL. The offending
// descriptor key is recorded as the component.
func NewInvalidReferenceError(name string, detail string) *WeftError {
	return &WeftError{
		Kind:        KindConfig,
		Code:        CodeInvalidReference,
		Message:     fmt.Sprintf("invalid component reference: %s", detail),
		Component:   name,
		Recoverable: false,
	}
}

// NewComponentMissingError reports a local component file that does not exist.
func NewComponentMissingError(name, path string) *WeftError {
	return &WeftError{
		Kind:        KindBuild,
		Code:        CodeComponentMissing,
		Message:     "component file not found",
		Component:   name,
		Path:        path,
		Recoverable: true,
	}
}

// NewFetchError reports a failed remote fetch.
func NewFetchError(url string, cause error) *WeftError {
	return &WeftError{
		Kind:        KindNetwork,
		Code:        CodeFetchFailed,
		Message:     "fetching " + url,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewDescriptorParseError reports a malformed descriptor file. Loaders degrade
// this to the empty descriptor after logging.
func NewDescriptorParseError(path string, cause error) *WeftError {
	return &WeftError{
		Kind:        KindConfig,
		Code:        CodeDescriptorParse,
		Message:     "parsing descriptor",
		Path:        path,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewBuildError wraps an arbitrary failure during component composition.
func NewBuildError(component, message string, cause error) *WeftError {
	return &WeftError{
		Kind:        KindBuild,
		Code:        "BUILD_FAILED",
		Message:     message,
		Component:   component,
		Cause:       cause,
		Recoverable: true,
	}
}

// IsTemplateNotFound reports whether err is a missing-template error.
func IsTemplateNotFound(err error) bool {
	var we *WeftError
	return errors.As(err, &we) && we.Code == CodeTemplateNotFound
}

// IsInvalidReference reports whether err is an invalid-reference error.
func IsInvalidReference(err error) bool {
	var we *WeftError
	return errors.As(err, &we) && we.Code == CodeInvalidReference
}

// IsRecoverable reports whether the builder may degrade err to an inline
// marker instead of aborting the build.
func IsRecoverable(err error) bool {
	var we *WeftError
	if errors.As(err, &we) {
		return we.Recoverable
	}

	return true
}
