// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/z5labs/items"
)

// ProblemDetail represents an RFC 7807 Problem Details error response.
//
// Embed this struct in your custom error types to add extension fields.
//
//	type OutOfStockError struct {
//	    rest.ProblemDetail
//	    ItemID int64 `json:"item_id"`
//	}
//
// Reference: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	// Defaults to "about:blank" when the problem has no specific type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`

	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
// Returns the Detail field if present, otherwise returns the Title.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

type problemDetailMarker interface {
	statusCode() int
}

func (p ProblemDetail) statusCode() int {
	return p.Status
}

// FieldError locates a single invalid part of a request.
//
// Loc is the path to the offending value, starting with where in the
// request it was found, e.g. ["body", "price"] or ["path", "item_id"].
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned when a request is well formed HTTP but its
// body or parameters are not acceptable. It is rendered as a 422 problem
// document with an "errors" extension listing every [FieldError].
type ValidationError struct {
	ProblemDetail

	Errors []FieldError `json:"errors"`
}

func newValidationError(errs ...FieldError) ValidationError {
	return ValidationError{
		ProblemDetail: ProblemDetail{
			Type:   "about:blank",
			Title:  "Unprocessable Entity",
			Status: http.StatusUnprocessableEntity,
			Detail: "Request validation failed",
		},
		Errors: errs,
	}
}

// ProblemDetailsErrorHandler is an [ErrorHandler] that returns RFC 7807
// Problem Details responses.
//
// Errors are detected in three tiers:
//  1. Errors embedding [ProblemDetail] are marshaled as is, extension fields included.
//  2. Errors implementing [HttpResponseWriter] are converted using their message as the detail.
//  3. Any other error becomes a 500 whose detail never includes the error message.
//
// Errors are logged before the response is written; 5xx at error level
// and everything else at warn.
type ProblemDetailsErrorHandler struct {
	defaultType string
	log         *slog.Logger
}

// ProblemDetailsOption configures a [ProblemDetailsErrorHandler].
type ProblemDetailsOption func(*ProblemDetailsErrorHandler)

// WithDefaultType sets the type URI used for errors that don't specify one.
// Defaults to "about:blank".
func WithDefaultType(uri string) ProblemDetailsOption {
	return func(h *ProblemDetailsErrorHandler) {
		h.defaultType = uri
	}
}

// NewProblemDetailsErrorHandler creates a new [ProblemDetailsErrorHandler].
func NewProblemDetailsErrorHandler(opts ...ProblemDetailsOption) *ProblemDetailsErrorHandler {
	h := &ProblemDetailsErrorHandler{
		defaultType: "about:blank",
		log:         items.Logger("github.com/z5labs/items/rest"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnError implements the [ErrorHandler] interface.
func (h *ProblemDetailsErrorHandler) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	if pd, ok := err.(problemDetailMarker); ok {
		h.logError(ctx, pd.statusCode(), err)
		h.write(ctx, w, pd.statusCode(), err)
		return
	}

	var pd ProblemDetail
	if _, ok := err.(HttpResponseWriter); ok {
		pd = h.fromHttpResponseWriter(err)
	} else {
		pd = ProblemDetail{
			Type:   h.defaultType,
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "An internal server error occurred.",
		}
	}

	h.logError(ctx, pd.Status, err)
	h.write(ctx, w, pd.Status, pd)
}

func (h *ProblemDetailsErrorHandler) logError(ctx context.Context, status int, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.log.Log(ctx, level, "sending error response", slog.Int("status", status), slog.Any("error", err))
}

func (h *ProblemDetailsErrorHandler) write(ctx context.Context, w http.ResponseWriter, status int, v any) {
	err := writeProblem(w, status, v)
	if err == nil {
		return
	}
	h.log.ErrorContext(ctx, "failed to encode problem details", slog.Any("error", err))
}

func (h *ProblemDetailsErrorHandler) fromHttpResponseWriter(err error) ProblemDetail {
	pd := ProblemDetail{
		Type:   h.defaultType,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: "An internal server error occurred.",
	}

	var badRequest BadRequestError
	if !errors.As(err, &badRequest) {
		return pd
	}

	pd.Title = "Bad Request"
	pd.Status = http.StatusBadRequest
	pd.Detail = "Bad Request"
	if badRequest.Cause != nil {
		pd.Detail = badRequest.Cause.Error()
	}

	var missingParam MissingRequiredParameterError
	if errors.As(badRequest.Cause, &missingParam) {
		pd.Title = "Missing Required Parameter"
	}
	return pd
}

func writeProblem(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
