// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
	"github.com/z5labs/sdk-go/try"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		default:
			return name
		}
	})
	return v
}

func jsonSchemaOf(v any) (*openapi3.SchemaOrRef, error) {
	var reflector jsonschema.Reflector

	jsonSchema, err := reflector.Reflect(v, jsonschema.InlineRefs)
	if err != nil {
		return nil, err
	}

	var schemaOrRef openapi3.SchemaOrRef
	schemaOrRef.FromJSONSchema(jsonSchema.ToSchemaOrBool())
	return &schemaOrRef, nil
}

// ReturnJsonHandler wraps a [Handler] so its response is written as JSON
// with a 200 status code.
type ReturnJsonHandler[Req, Resp any] struct {
	inner Handler[Req, Resp]
}

// ReturnJson initializes a [ReturnJsonHandler].
func ReturnJson[Req, Resp any](h Handler[Req, Resp]) *ReturnJsonHandler[Req, Resp] {
	return &ReturnJsonHandler[Req, Resp]{
		inner: h,
	}
}

// Handle implements the [Handler] interface.
func (h *ReturnJsonHandler[Req, Resp]) Handle(ctx context.Context, req *Req) (*JsonResponse[Resp], error) {
	resp, err := h.inner.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return &JsonResponse[Resp]{
		inner: resp,
	}, nil
}

// JsonResponse is a [TypedResponse] which writes T as a JSON body
// with a 200 status code.
type JsonResponse[T any] struct {
	inner *T
}

// Spec implements the [TypedResponse] interface.
func (*JsonResponse[T]) Spec() (int, openapi3.ResponseOrRef, error) {
	return jsonResponseSpec[T](http.StatusOK, "OK")
}

// WriteResponse implements the [ResponseWriter] interface.
func (jr *JsonResponse[T]) WriteResponse(ctx context.Context, w http.ResponseWriter) error {
	return writeJson(w, http.StatusOK, jr.inner)
}

// ReturnCreatedJsonHandler wraps a [Handler] so its response is written
// as JSON with a 201 status code.
type ReturnCreatedJsonHandler[Req, Resp any] struct {
	inner Handler[Req, Resp]
}

// ReturnCreatedJson initializes a [ReturnCreatedJsonHandler].
func ReturnCreatedJson[Req, Resp any](h Handler[Req, Resp]) *ReturnCreatedJsonHandler[Req, Resp] {
	return &ReturnCreatedJsonHandler[Req, Resp]{
		inner: h,
	}
}

// Handle implements the [Handler] interface.
func (h *ReturnCreatedJsonHandler[Req, Resp]) Handle(ctx context.Context, req *Req) (*CreatedJsonResponse[Resp], error) {
	resp, err := h.inner.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	return &CreatedJsonResponse[Resp]{
		inner: resp,
	}, nil
}

// CreatedJsonResponse is a [TypedResponse] which writes T as a JSON body
// with a 201 status code.
type CreatedJsonResponse[T any] struct {
	inner *T
}

// Spec implements the [TypedResponse] interface.
func (*CreatedJsonResponse[T]) Spec() (int, openapi3.ResponseOrRef, error) {
	return jsonResponseSpec[T](http.StatusCreated, "Created")
}

// WriteResponse implements the [ResponseWriter] interface.
func (jr *CreatedJsonResponse[T]) WriteResponse(ctx context.Context, w http.ResponseWriter) error {
	return writeJson(w, http.StatusCreated, jr.inner)
}

func jsonResponseSpec[T any](status int, description string) (int, openapi3.ResponseOrRef, error) {
	var t T
	schema, err := jsonSchemaOf(t)
	if err != nil {
		return 0, openapi3.ResponseOrRef{}, err
	}

	spec := &openapi3.Response{
		Description: description,
		Content: map[string]openapi3.MediaType{
			"application/json": {
				Schema: schema,
			},
		},
	}

	return status, openapi3.ResponseOrRef{
		Response: spec,
	}, nil
}

func writeJson(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// ConsumeJsonHandler wraps a [Handler] so its request is read from a
// JSON body.
type ConsumeJsonHandler[Req, Resp any] struct {
	inner Handler[Req, Resp]
}

// ConsumeJson initializes a [ConsumeJsonHandler].
func ConsumeJson[Req, Resp any](h Handler[Req, Resp]) *ConsumeJsonHandler[Req, Resp] {
	return &ConsumeJsonHandler[Req, Resp]{
		inner: h,
	}
}

// Handle implements the [Handler] interface.
func (h *ConsumeJsonHandler[Req, Resp]) Handle(ctx context.Context, req *JsonRequest[Req]) (*Resp, error) {
	return h.inner.Handle(ctx, &req.inner)
}

// JsonRequest is a [TypedRequest] which decodes a JSON body into T and
// then validates it using `validate` struct tags.
//
// A missing Content-Type is read as JSON. A body in any media type other
// than application/json or application/*+json, a body which cannot be
// decoded into T, or one which fails validation, is rejected with a
// [ValidationError].
type JsonRequest[T any] struct {
	inner T
}

// Spec implements the [TypedRequest] interface.
func (*JsonRequest[T]) Spec() (*openapi3.RequestBodyOrRef, error) {
	var t T
	schema, err := jsonSchemaOf(t)
	if err != nil {
		return nil, err
	}

	spec := &openapi3.RequestBody{
		Required: ptr.Ref(true),
		Content: map[string]openapi3.MediaType{
			"application/json": {
				Schema: schema,
			},
		},
	}

	return &openapi3.RequestBodyOrRef{
		RequestBody: spec,
	}, nil
}

// ReadRequest implements the [RequestReader] interface.
func (jr *JsonRequest[T]) ReadRequest(ctx context.Context, r *http.Request) (err error) {
	defer try.Close(&err, r.Body)

	contentType := r.Header.Get("Content-Type")
	if !isJsonMediaType(contentType) {
		return newValidationError(FieldError{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: "model_attributes_type",
		})
	}

	dec := json.NewDecoder(r.Body)
	err = dec.Decode(&jr.inner)
	if err != nil {
		return decodeError(err)
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return newValidationError(FieldError{
			Loc:  []string{"body"},
			Msg:  "JSON decode error: unexpected data after top-level value",
			Type: "json_invalid",
		})
	}

	return validateBody(ctx, &jr.inner)
}

func isJsonMediaType(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

func decodeError(err error) ValidationError {
	if errors.Is(err, io.EOF) {
		return newValidationError(FieldError{
			Loc:  []string{"body"},
			Msg:  "Field required",
			Type: "missing",
		})
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		loc := []string{"body"}
		if typeErr.Field != "" {
			loc = append(loc, strings.Split(typeErr.Field, ".")...)
		}
		return newValidationError(FieldError{
			Loc:  loc,
			Msg:  fmt.Sprintf("Input should be a valid %s", typeErr.Type),
			Type: "type_error",
		})
	}

	return newValidationError(FieldError{
		Loc:  []string{"body"},
		Msg:  fmt.Sprintf("JSON decode error: %s", err),
		Type: "json_invalid",
	})
}

func validateBody(ctx context.Context, v any) error {
	err := validate.StructCtx(ctx, v)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		// v is not a struct so there are no tags to check
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return newValidationError(errs...)
}

func fieldError(fe validator.FieldError) FieldError {
	loc := []string{"body"}

	// Namespace is prefixed by the struct type name
	ns := strings.Split(fe.Namespace(), ".")
	if len(ns) > 1 {
		loc = append(loc, ns[1:]...)
	} else {
		loc = append(loc, fe.Field())
	}

	if fe.Tag() == "required" {
		return FieldError{
			Loc:  loc,
			Msg:  "Field required",
			Type: "missing",
		}
	}

	msg := fmt.Sprintf("Field failed the %q check", fe.Tag())
	if fe.Param() != "" {
		msg = fmt.Sprintf("Field failed the %q check with %s", fe.Tag(), fe.Param())
	}
	return FieldError{
		Loc:  loc,
		Msg:  msg,
		Type: fe.Tag(),
	}
}

// ProduceJson creates a handler that returns JSON without consuming a request body.
//
//	p := rest.ProducerFunc[Response](func(ctx context.Context) (*Response, error) {
//	    return &Response{Message: "hello"}, nil
//	})
//	handler := rest.ProduceJson(p)
func ProduceJson[T any](p Producer[T]) *ReturnJsonHandler[EmptyRequest, T] {
	inner := &ProducerHandler[T]{
		p: p,
	}
	return ReturnJson[EmptyRequest, T](inner)
}

// HandleJson creates a handler that both consumes and produces JSON.
func HandleJson[Req, Resp any](h Handler[Req, Resp]) *ConsumeJsonHandler[Req, JsonResponse[Resp]] {
	return ConsumeJson[Req, JsonResponse[Resp]](ReturnJson(h))
}

// CreateJson is [HandleJson] for operations which create a resource and
// respond with 201 Created.
func CreateJson[Req, Resp any](h Handler[Req, Resp]) *ConsumeJsonHandler[Req, CreatedJsonResponse[Resp]] {
	return ConsumeJson[Req, CreatedJsonResponse[Resp]](ReturnCreatedJson(h))
}
