// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest provides a small framework for OpenAPI described JSON APIs.
//
// # Overview
//
// An [Api] is a chi router paired with an OpenAPI 3 document. Operations are
// registered with [Operation], which takes a typed [Handler] and derives both
// the route and its OpenAPI description from the handler's request and
// response types.
//
// Every Api serves:
//   - the OpenAPI document at GET /openapi.json
//   - liveness and readiness probes at GET /health/liveness and GET /health/readiness
//   - RFC 7807 problem documents for unknown routes and unsupported methods
//   - a 307 redirect to the slash terminated form of a path, when only that form is routed
//
// # Request Decoding
//
// [JsonRequest] decodes the body and then validates it with
// github.com/go-playground/validator using `validate` struct tags. Any decoding
// or validation failure becomes a 422 [ValidationError] listing each offending
// location, before the handler is ever called.
//
// # Path Parameters
//
// Path parameters are declared on the [Path] and read back from the request
// context:
//
//	rest.Operation(
//	    http.MethodGet,
//	    rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer()),
//	    rest.ProduceJson(h),
//	)
//
//	id := rest.Int64PathParamValue(ctx, "item_id")
//
// # Errors
//
// Handlers return errors which are rendered by the operation's [ErrorHandler].
// The default, [ProblemDetailsErrorHandler], writes application/problem+json
// bodies. Errors embedding [ProblemDetail] are written as is, including any
// extension fields.
package rest
