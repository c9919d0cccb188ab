// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"

	"github.com/swaggest/openapi-go/openapi3"
)

// Producer returns a response value without consuming a request value.
type Producer[T any] interface {
	Produce(context.Context) (*T, error)
}

// ProducerFunc is an adapter to allow the use of ordinary functions
// as [Producer]s.
type ProducerFunc[T any] func(context.Context) (*T, error)

// Produce implements the [Producer] interface.
func (f ProducerFunc[T]) Produce(ctx context.Context) (*T, error) {
	return f(ctx)
}

// ProducerHandler is a [Handler] that does not consume a request body.
//
// This is a very handy helper for implementing HTTP GET endpoints.
type ProducerHandler[T any] struct {
	p Producer[T]
}

// Handle implements the [Handler] interface.
func (h *ProducerHandler[T]) Handle(ctx context.Context, req *EmptyRequest) (*T, error) {
	return h.p.Produce(ctx)
}

// EmptyRequest is a [TypedRequest] for operations without a request body.
type EmptyRequest struct{}

// ReadRequest implements the [RequestReader] interface.
func (*EmptyRequest) ReadRequest(ctx context.Context, r *http.Request) error {
	return nil
}

// Spec implements the [TypedRequest] interface.
func (*EmptyRequest) Spec() (*openapi3.RequestBodyOrRef, error) {
	return nil, nil
}

// NoContent is a [TypedResponse] which only writes 204 No Content.
type NoContent struct{}

// WriteResponse implements the [ResponseWriter] interface.
func (*NoContent) WriteResponse(ctx context.Context, w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Spec implements the [TypedResponse] interface.
func (*NoContent) Spec() (int, openapi3.ResponseOrRef, error) {
	return http.StatusNoContent, openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Description: "No Content",
		},
	}, nil
}
