// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

type paramCtxKey string

type int64ParamCtxKey string

// PathParamValue returns the raw value of the named path parameter.
func PathParamValue(ctx context.Context, name string) string {
	s, _ := ctx.Value(paramCtxKey(name)).(string)
	return s
}

// Int64PathParamValue returns the parsed value of a path parameter
// declared with [Integer].
func Int64PathParamValue(ctx context.Context, name string) int64 {
	n, _ := ctx.Value(int64ParamCtxKey(name)).(int64)
	return n
}

// ParameterOptions holds the OpenAPI definition of a parameter along with
// the operation it belongs to, so options can register request transforms.
type ParameterOptions struct {
	operationOptions *OperationOptions
	def              *openapi3.Parameter
}

// ParameterOption configures a path parameter.
type ParameterOption func(*ParameterOptions)

func pathParamOption(name string, opts ...ParameterOption) OperationOption {
	return func(oo *OperationOptions) {
		oo.transforms = append(oo.transforms, func(r *http.Request) (*http.Request, error) {
			ctx := context.WithValue(r.Context(), paramCtxKey(name), chi.URLParam(r, name))
			return r.WithContext(ctx), nil
		})

		po := &ParameterOptions{
			operationOptions: oo,
			def: &openapi3.Parameter{
				Name: name,
				In:   openapi3.ParameterInPath,
				// path parameters are always required in OpenAPI
				Required: ptr.Ref(true),
			},
		}
		for _, opt := range opts {
			opt(po)
		}

		oo.parameters = append(oo.parameters, openapi3.ParameterOrRef{
			Parameter: po.def,
		})
	}
}

// MissingRequiredParameterError is returned when a required parameter is
// empty. It is wrapped in a [BadRequestError].
type MissingRequiredParameterError struct {
	Parameter string
	In        string
}

func (e MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("missing required request parameter in %s: %s", e.In, e.Parameter)
}

// Required rejects requests where the parameter is empty with a 400.
func Required() ParameterOption {
	return func(po *ParameterOptions) {
		name := po.def.Name
		in := string(po.def.In)

		po.operationOptions.transforms = append(
			po.operationOptions.transforms,
			func(r *http.Request) (*http.Request, error) {
				if PathParamValue(r.Context(), name) != "" {
					return r, nil
				}
				return nil, BadRequestError{
					Cause: MissingRequiredParameterError{
						Parameter: name,
						In:        in,
					},
				}
			},
		)
	}
}

// Integer documents the parameter as a 64 bit integer and parses it,
// rejecting anything else with a 422 [ValidationError]. The parsed value
// is available through [Int64PathParamValue].
func Integer() ParameterOption {
	return func(po *ParameterOptions) {
		name := po.def.Name
		in := string(po.def.In)

		po.def.Schema = &openapi3.SchemaOrRef{
			Schema: &openapi3.Schema{
				Type:   ptr.Ref(openapi3.SchemaTypeInteger),
				Format: ptr.Ref("int64"),
			},
		}

		po.operationOptions.transforms = append(
			po.operationOptions.transforms,
			func(r *http.Request) (*http.Request, error) {
				n, err := strconv.ParseInt(PathParamValue(r.Context(), name), 10, 64)
				if err != nil {
					return nil, newValidationError(FieldError{
						Loc:  []string{in, name},
						Msg:  "Input should be a valid integer, unable to parse string as an integer",
						Type: "int_parsing",
					})
				}

				ctx := context.WithValue(r.Context(), int64ParamCtxKey(name), n)
				return r.WithContext(ctx), nil
			},
		)
	}
}
