// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/z5labs/items"
	"github.com/z5labs/items/health"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
)

// ApiOptions holds configuration values used when constructing an [Api].
type ApiOptions struct {
	mux *chi.Mux
	def *openapi3.Spec
	log *slog.Logger
}

// ApiOption is an interface for configuring an [Api].
//
// Common implementations include:
//   - [Operation] - registers HTTP operations
//   - [Readiness] - configures the readiness probe
//   - [Liveness] - configures the liveness probe
//   - [Metrics] - serves metrics at GET /metrics
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(mo *ApiOptions) {
	f(mo)
}

// Readiness configures the readiness probe at GET /health/readiness.
// The probe responds with 200 when m is healthy and 503 otherwise.
//
// See [Liveness, Readiness, and Startup Probes] for more details.
//
// [Liveness, Readiness, and Startup Probes]: https://kubernetes.io/docs/concepts/configuration/liveness-readiness-startup-probes/
func Readiness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/health/readiness", healthHandler(ao.log, m))
	})
}

// Liveness configures the liveness probe at GET /health/liveness.
// The probe responds with 200 when m is healthy and 503 otherwise.
func Liveness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/health/liveness", healthHandler(ao.log, m))
	})
}

// Metrics serves h at GET /metrics.
func Metrics(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.mux.Method(http.MethodGet, "/metrics", h)
	})
}

func healthHandler(log *slog.Logger, m health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if healthy && err == nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		if err != nil {
			log.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		}

		_ = writeProblem(w, http.StatusServiceUnavailable, ProblemDetail{
			Type:   "about:blank",
			Title:  "Service Unavailable",
			Status: http.StatusServiceUnavailable,
			Detail: "Service Unavailable",
		})
	}
}

// Api is an OpenAPI-compliant [http.Handler] that serves as the foundation
// for building REST APIs.
//
// # Standard Features
//
// Every Api automatically provides:
//   - OpenAPI 3.0 schema available at GET /openapi.json
//   - Default liveness probe at GET /health/liveness (returns 200 OK)
//   - Default readiness probe at GET /health/readiness (returns 200 OK)
//   - 404 Not Found and 405 Method Not Allowed problem documents
//   - 307 redirects between /foo and /foo/ when only the other is routed
type Api struct {
	router *chi.Mux
}

// NewApi creates a new [Api] with the specified title and version.
//
//	api := rest.NewApi(
//	    "Items API",
//	    "v1.0.0",
//	    rest.Operation(http.MethodGet, rest.BasePath("/items/"), listItems),
//	    rest.Readiness(monitor),
//	)
func NewApi(title, version string, opts ...ApiOption) *Api {
	ao := &ApiOptions{
		mux: chi.NewMux(),
		def: &openapi3.Spec{
			Openapi: "3.0.3",
			Info: openapi3.Info{
				Title:   title,
				Version: version,
			},
		},
		log: items.Logger("github.com/z5labs/items/rest"),
	}

	ok := health.MonitorFunc(alwaysHealthy)
	Liveness(ok).ApplyApiOption(ao)
	Readiness(ok).ApplyApiOption(ao)

	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	ao.mux.NotFound(notFound(ao.mux))
	ao.mux.MethodNotAllowed(methodNotAllowed)

	ao.mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)
		err := enc.Encode(ao.def)
		if err == nil {
			return
		}
		ao.log.ErrorContext(
			r.Context(),
			"failed to encode openapi schema to json",
			slog.Any("error", err),
		)
	})

	return &Api{
		router: ao.mux,
	}
}

// ServeHTTP implements the [http.Handler] interface.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(w, req)
}

func alwaysHealthy(context.Context) (bool, error) {
	return true, nil
}

func notFound(mux *chi.Mux) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if path, ok := redirectPath(mux, r); ok {
			u := *r.URL
			u.Path = path
			u.RawPath = ""
			http.Redirect(w, r, u.RequestURI(), http.StatusTemporaryRedirect)
			return
		}

		_ = writeProblem(w, http.StatusNotFound, ProblemDetail{
			Type:   "about:blank",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Not Found",
		})
	}
}

// redirectPath toggles the trailing slash of the request path and reports
// whether the result is routed.
func redirectPath(mux *chi.Mux, r *http.Request) (string, bool) {
	path := r.URL.Path + "/"
	if strings.HasSuffix(r.URL.Path, "/") {
		path = strings.TrimSuffix(r.URL.Path, "/")
	}
	if path == "" {
		return "", false
	}
	return path, mux.Match(chi.NewRouteContext(), r.Method, path)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = writeProblem(w, http.StatusMethodNotAllowed, ProblemDetail{
		Type:   "about:blank",
		Title:  "Method Not Allowed",
		Status: http.StatusMethodNotAllowed,
		Detail: "Method Not Allowed",
	})
}
