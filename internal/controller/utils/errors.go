// MIT License
//
// Copyright (c) 2025 Advanced Micro Devices, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package controllerutils

import (
	"context"
	"errors"
	"net"
	"net/http"
	"syscall"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ErrorKind tells the reconciler whether retrying can resolve an error.
type ErrorKind int

const (
	// ErrorKindTemporary errors are retried with backoff.
	ErrorKindTemporary ErrorKind = iota
	// ErrorKindPermanent errors are recorded and not retried.
	ErrorKindPermanent
)

// String returns the human-readable name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindPermanent:
		return "Permanent"
	default:
		return "Temporary"
	}
}

// ReconcileError is a classified error raised by reconcile steps.
type ReconcileError interface {
	error
	Kind() ErrorKind
	Reason() string
	UserMessage() string
}

type reconcileError struct {
	err     error
	kind    ErrorKind
	reason  string
	message string
}

// Error returns a formatted error message combining the reason and user message.
func (e *reconcileError) Error() string {
	if e.reason != "" && e.message != "" {
		return e.reason + ": " + e.message
	}
	if e.reason != "" {
		return e.reason
	}
	if e.message != "" {
		return e.message
	}
	if e.err != nil {
		return e.err.Error()
	}
	return "unknown error"
}

func (e *reconcileError) Unwrap() error {
	return e.err
}

func (e *reconcileError) Kind() ErrorKind {
	return e.kind
}

func (e *reconcileError) Reason() string {
	return e.reason
}

func (e *reconcileError) UserMessage() string {
	return e.message
}

// NewPermanentError creates an error for situations retrying cannot fix,
// such as a topic definition the cluster rejects.
func NewPermanentError(reason, message string, cause error) ReconcileError {
	return &reconcileError{
		err:     cause,
		kind:    ErrorKindPermanent,
		reason:  reason,
		message: message,
	}
}

// NewTemporaryError creates an error for transient failures, such as an unreachable API server.
func NewTemporaryError(reason, message string, cause error) ReconcileError {
	return &reconcileError{
		err:     cause,
		kind:    ErrorKindTemporary,
		reason:  reason,
		message: message,
	}
}

// IsPermanent reports whether err classifies as permanent.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).Kind() == ErrorKindPermanent
}

// HTTPStatusError is implemented by client errors that carry an HTTP status code.
type HTTPStatusError interface {
	error
	StatusCode() int
}

// ClassifyError inspects a raw error and classifies it as a ReconcileError.
// Errors that are already classified are returned as-is. Anything not known to be
// permanent is treated as temporary.
//
// This is the single place where error classification happens.
func ClassifyError(err error) ReconcileError {
	if err == nil {
		return nil
	}

	var re ReconcileError
	if errors.As(err, &re) {
		return re
	}

	// Kubernetes API errors
	if statusErr := apierrors.APIStatus(nil); errors.As(err, &statusErr) {
		switch {
		case apierrors.IsInvalid(err):
			return NewPermanentError("Invalid", err.Error(), err)
		case apierrors.IsBadRequest(err):
			return NewPermanentError("BadRequest", err.Error(), err)
		case apierrors.IsMethodNotSupported(err):
			return NewPermanentError("MethodNotSupported", err.Error(), err)
		case apierrors.IsRequestEntityTooLargeError(err):
			return NewPermanentError("RequestEntityTooLarge", err.Error(), err)
		case apierrors.IsNotFound(err):
			return NewTemporaryError("NotFound", err.Error(), err)
		case apierrors.IsConflict(err):
			return NewTemporaryError("Conflict", err.Error(), err)
		case apierrors.IsServerTimeout(err), apierrors.IsTimeout(err):
			return NewTemporaryError("Timeout", err.Error(), err)
		case apierrors.IsTooManyRequests(err):
			return NewTemporaryError("RateLimited", err.Error(), err)
		default:
			return NewTemporaryError("APIError", err.Error(), err)
		}
	}

	// Registry and other HTTP clients
	var httpErr HTTPStatusError
	if errors.As(err, &httpErr) {
		return classifyHTTPStatus(httpErr.StatusCode(), err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return NewTemporaryError("Canceled", err.Error(), err)
	}

	// Network-level errors
	if errors.Is(err, syscall.ECONNREFUSED) {
		return NewTemporaryError("ConnectionRefused", err.Error(), err)
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return NewTemporaryError("ConnectionReset", err.Error(), err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewTemporaryError("DNSFailure", "DNS resolution failed for "+dnsErr.Name, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return NewTemporaryError("NetworkError", "Network operation failed: "+opErr.Op, err)
	}

	return &reconcileError{
		err:     err,
		kind:    ErrorKindTemporary,
		message: err.Error(),
	}
}

func classifyHTTPStatus(code int, err error) ReconcileError {
	switch {
	case code == http.StatusNotFound,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code == http.StatusTooManyRequests:
		return NewTemporaryError(http.StatusText(code), err.Error(), err)
	case code >= 400 && code < 500:
		return NewPermanentError(http.StatusText(code), err.Error(), err)
	default:
		return NewTemporaryError(http.StatusText(code), err.Error(), err)
	}
}
