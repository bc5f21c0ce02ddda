// Copyright 2019 James Cote
// All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package avatax

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Code identifies the specific reason for an error.  Codes are stable
// and grouped by kind: 1xx caller misuse, 2xx validation, 3xx response
// interpretation, 4xx remote request and 5xx connectivity.
type Code int

// Caller misuse codes
const (
	CodeBadArgs        Code = 101 // required argument missing or of the wrong shape
	CodeBadCoordinates Code = 102 // latitude/longitude not a finite number in range
	CodeNilEntity      Code = 103 // nil *Document, *Line, *Address or *TaxOverride
	CodeNotApplicable  Code = 104 // success predicate called on a response without ResultCode
)

// Validation codes
const (
	CodeInvalidField       Code = 201 // unknown key in strict construction
	CodeBadDate            Code = 202
	CodeBadNumber          Code = 203
	CodeBadInt             Code = 204
	CodeBadBool            Code = 205
	CodeBadString          Code = 206
	CodeTooLong            Code = 207
	CodeBadEnum            Code = 208
	CodeRequired           Code = 209 // conditionally required field is missing
	CodeBadNested          Code = 210
	CodeMissingDocType     Code = 211
	CodeNoAddresses        Code = 212
	CodeNoLines            Code = 213
	CodeOriginNeeded       Code = 214
	CodeDestinationNeeded  Code = 215
	CodeUnknownAddressCode Code = 216
	CodeHasFromAddress     Code = 217
	CodeHasToAddress       Code = 218
	CodeHasOverride        Code = 219
	CodeCommitted          Code = 220
	CodeBadCancelCode      Code = 221
)

// Remote and connectivity codes
const (
	CodeRemoteRequest Code = 401
	CodeUnreachable   Code = 501
)

// Kind returns the error kind name for the code.
func (c Code) Kind() string {
	switch {
	case c >= 100 && c < 200:
		return "caller misuse"
	case c >= 200 && c < 300:
		return "validation"
	case c >= 400 && c < 500:
		return "remote request"
	case c >= 500 && c < 600:
		return "connectivity"
	}
	return "unknown"
}

// CallerMisuseError reports a programming error in the calling
// application such as a missing argument.
type CallerMisuseError struct {
	Code    Code
	Message string
}

func (e *CallerMisuseError) Error() string {
	return fmt.Sprintf("avatax: %s (%d)", e.Message, e.Code)
}

// ErrorCode returns the error's code.
func (e *CallerMisuseError) ErrorCode() Code {
	return e.Code
}

func misuse(code Code, format string, args ...interface{}) error {
	return &CallerMisuseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationError is returned when a field fails cleaning or an entity
// fails structural validation.  Field names the offending field when
// one applies; for line level errors it includes the line number.
type ValidationError struct {
	Code    Code
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("avatax: %s (%d)", e.Message, e.Code)
	}
	return fmt.Sprintf("avatax: %s: %s (%d)", e.Field, e.Message, e.Code)
}

// ErrorCode returns the error's code.
func (e *ValidationError) ErrorCode() Code {
	return e.Code
}

func invalid(code Code, field, format string, args ...interface{}) error {
	return &ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrorDetail is a single (source, message) pair taken from the
// Messages of a failed response.
type ErrorDetail struct {
	Source  string `json:"source"`
	Summary string `json:"summary"`
}

// String formats the detail as source: summary
func (ed ErrorDetail) String() string {
	if ed.Source == "" {
		return ed.Summary
	}
	return ed.Source + ": " + ed.Summary
}

// RemoteRequestError describes a rejection by the tax service.  It is
// never returned as an error by Service operations; it is attached to the
// typed response (see BaseResponse.Err) so callers may inspect the
// response uniformly.
type RemoteRequestError struct {
	StatusCode int
	Details    []ErrorDetail
}

func (e *RemoteRequestError) Error() string {
	var msgs = make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		msgs = append(msgs, d.String())
	}
	if e.StatusCode == 0 {
		return fmt.Sprintf("avatax: request failed: %s", strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("avatax: request failed with status %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

// ErrorCode returns CodeRemoteRequest
func (e *RemoteRequestError) ErrorCode() Code {
	return CodeRemoteRequest
}

// ConnectivityError is returned when the service could not be reached or
// the call timed out.  No response exists to interpret.
type ConnectivityError struct {
	Cause error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("avatax: service unreachable: %v", e.Cause)
}

// Unwrap returns the underlying transport error
func (e *ConnectivityError) Unwrap() error {
	return e.Cause
}

// ErrorCode returns CodeUnreachable
func (e *ConnectivityError) ErrorCode() Code {
	return CodeUnreachable
}

type coder interface {
	ErrorCode() Code
}

// CodeOf returns the Code of the first avatax error in err's chain or
// zero if none is found.
func CodeOf(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.ErrorCode()
	}
	return 0
}
