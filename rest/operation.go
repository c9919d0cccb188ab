// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// OperationOptions holds configuration for an operation registered with [Operation].
type OperationOptions struct {
	id         string
	summary    string
	tags       []string
	returns    []int
	parameters []openapi3.ParameterOrRef
	transforms []func(*http.Request) (*http.Request, error)
	errHandler ErrorHandler
}

// OperationOption configures an operation created by [Operation].
type OperationOption func(*OperationOptions)

// OnError configures a custom [ErrorHandler] for an operation.
// If not specified, operations use a [ProblemDetailsErrorHandler].
func OnError(eh ErrorHandler) OperationOption {
	return func(oo *OperationOptions) {
		oo.errHandler = eh
	}
}

// OperationID sets the operationId of the operation.
func OperationID(id string) OperationOption {
	return func(oo *OperationOptions) {
		oo.id = id
	}
}

// Summary sets a short summary of what the operation does.
func Summary(s string) OperationOption {
	return func(oo *OperationOptions) {
		oo.summary = s
	}
}

// Tags groups the operation in the OpenAPI document.
func Tags(tags ...string) OperationOption {
	return func(oo *OperationOptions) {
		oo.tags = append(oo.tags, tags...)
	}
}

// Returns documents an additional status code the operation may respond
// with. The response body is documented as a problem document.
func Returns(status int) OperationOption {
	return func(oo *OperationOptions) {
		oo.returns = append(oo.returns, status)
	}
}

// Handler represents a RPC style implementation of the core
// logic for your [http.Handler].
type Handler[Req, Resp any] interface {
	Handle(context.Context, *Req) (*Resp, error)
}

// HandlerFunc is an adapter to allow the use of ordinary functions
// as [Handler]s.
type HandlerFunc[Req, Resp any] func(context.Context, *Req) (*Resp, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req *Req) (*Resp, error) {
	return f(ctx, req)
}

// RequestReader is meant to be implemented by any type which knows how
// unmarshal itself from a [http.Request].
type RequestReader[T any] interface {
	*T

	ReadRequest(context.Context, *http.Request) error
}

// TypedRequest is a [RequestReader] which also provides a OpenAPI 3.0
// spec for itself. A nil spec means the request has no body.
type TypedRequest[T any] interface {
	RequestReader[T]

	Spec() (*openapi3.RequestBodyOrRef, error)
}

// ResponseWriter is meant to be implemented by any type which knows how
// to marshal itself into a HTTP response.
type ResponseWriter[T any] interface {
	*T

	WriteResponse(context.Context, http.ResponseWriter) error
}

// TypedResponse is a [ResponseWriter] which also provides a OpenAPI 3.0
// spec for itself.
type TypedResponse[T any] interface {
	ResponseWriter[T]

	Spec() (int, openapi3.ResponseOrRef, error)
}

type operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]] struct {
	tracer     trace.Tracer
	errHandler ErrorHandler
	transforms []func(*http.Request) (*http.Request, error)
	handler    Handler[I, O]
}

// Operation registers a [Handler] with an [Api] for the given method and path.
// The OpenAPI description of the operation is derived from the request
// and response types of the handler.
//
//	rest.Operation(
//	    http.MethodGet,
//	    rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer()),
//	    rest.ProduceJson(h),
//	    rest.Returns(http.StatusNotFound),
//	)
func Operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]](method string, path Path, h Handler[I, O], opts ...OperationOption) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		var paramOpts []OperationOption
		for _, p := range path.params() {
			paramOpts = append(paramOpts, pathParamOption(p.name, p.opts...))
		}

		oo := &OperationOptions{
			errHandler: NewProblemDetailsErrorHandler(),
		}
		for _, opt := range append(paramOpts, opts...) {
			opt(oo)
		}

		var req Req
		requestBodySpec, err := req.Spec()
		if err != nil {
			panic(err)
		}

		var resp Resp
		status, respSpec, err := resp.Spec()
		if err != nil {
			panic(err)
		}

		responses := map[string]openapi3.ResponseOrRef{
			strconv.Itoa(status): respSpec,
		}

		returns := oo.returns
		if requestBodySpec != nil || len(oo.parameters) > 0 {
			returns = append(returns, http.StatusUnprocessableEntity)
		}
		for _, code := range returns {
			problemSpec, err := problemResponseSpec(code)
			if err != nil {
				panic(err)
			}
			responses[strconv.Itoa(code)] = problemSpec
		}

		op := openapi3.Operation{
			Tags:        oo.tags,
			RequestBody: requestBodySpec,
			Responses: openapi3.Responses{
				MapOfResponseOrRefValues: responses,
			},
			Parameters: oo.parameters,
		}
		if oo.summary != "" {
			op.Summary = ptr.Ref(oo.summary)
		}
		if oo.id != "" {
			op.ID = ptr.Ref(oo.id)
		}

		endpoint := path.String()

		err = ao.def.AddOperation(method, endpoint, op)
		if err != nil {
			panic(err)
		}

		ao.mux.Method(method, endpoint, otelhttp.WithRouteTag(endpoint, &operation[I, O, Req, Resp]{
			tracer:     otel.Tracer("github.com/z5labs/items/rest"),
			errHandler: oo.errHandler,
			transforms: oo.transforms,
			handler:    h,
		}))
	})
}

func problemResponseSpec(status int) (openapi3.ResponseOrRef, error) {
	var v any = ProblemDetail{}
	if status == http.StatusUnprocessableEntity {
		v = ValidationError{}
	}

	schema, err := jsonSchemaOf(v)
	if err != nil {
		return openapi3.ResponseOrRef{}, err
	}

	return openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Description: http.StatusText(status),
			Content: map[string]openapi3.MediaType{
				"application/problem+json": {
					Schema: schema,
				},
			},
		},
	}, nil
}

func (o *operation[I, O, Req, Resp]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var err error
	defer func() {
		if err == nil {
			return
		}

		o.errHandler.OnError(r.Context(), w, err)
	}()
	defer try.Recover(&err)

	for _, transform := range o.transforms {
		var tr *http.Request
		tr, err = transform(r)
		if err != nil {
			return
		}
		r = tr
	}

	ctx := r.Context()

	req, err := o.readRequest(ctx, r)
	if err != nil {
		return
	}

	resp, err := o.handle(ctx, &req)
	if err != nil {
		return
	}

	err = o.writeResponse(ctx, w, resp)
}

func (o *operation[I, O, Req, Resp]) readRequest(ctx context.Context, r *http.Request) (I, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.readRequest")
	defer span.End()

	var req I
	err := Req(&req).ReadRequest(spanCtx, r)
	if err != nil {
		span.RecordError(err)
		return req, err
	}

	return req, nil
}

func (o *operation[I, O, Req, Resp]) handle(ctx context.Context, req *I) (*O, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.handle")
	defer span.End()

	resp, err := o.handler.Handle(spanCtx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return resp, nil
}

func (o *operation[I, O, Req, Resp]) writeResponse(ctx context.Context, w http.ResponseWriter, resp *O) error {
	spanCtx, span := o.tracer.Start(ctx, "operation.writeResponse")
	defer span.End()

	return Resp(resp).WriteResponse(spanCtx, w)
}
