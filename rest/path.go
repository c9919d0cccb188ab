// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import "strings"

// PathElement is a component of a URL path.
type PathElement interface {
	pathElement() string
}

// PathSegment is a static component of a URL path.
type PathSegment string

func (s PathSegment) pathElement() string {
	return string(s)
}

type pathParam struct {
	name string
	opts []ParameterOption
}

func (p pathParam) pathElement() string {
	return "{" + p.name + "}"
}

// Path is a URL path built from static segments and parameters.
type Path []PathElement

// BasePath starts a new [Path]. A trailing slash is kept, so
// BasePath("/items/") and BasePath("/items") are different routes.
func BasePath(s string) Path {
	return Path{PathSegment(s)}
}

// Segment appends a static segment.
func (p Path) Segment(s string) Path {
	return append(p, PathSegment(s))
}

// Param appends a path parameter.
//
//	rest.BasePath("/items/").Param("item_id", rest.Required(), rest.Integer())
//	// Results in: /items/{item_id}
func (p Path) Param(name string, opts ...ParameterOption) Path {
	return append(p, pathParam{name: name, opts: opts})
}

// String joins the elements with exactly one slash between each.
func (p Path) String() string {
	var sb strings.Builder
	for _, el := range p {
		s := el.pathElement()

		cur := sb.String()
		switch {
		case cur == "":
		case strings.HasSuffix(cur, "/") && strings.HasPrefix(s, "/"):
			s = s[1:]
		case !strings.HasSuffix(cur, "/") && !strings.HasPrefix(s, "/"):
			sb.WriteByte('/')
		}
		sb.WriteString(s)
	}

	out := sb.String()
	if !strings.HasPrefix(out, "/") {
		out = "/" + out
	}
	return out
}

func (p Path) params() []pathParam {
	var params []pathParam
	for _, el := range p {
		pp, ok := el.(pathParam)
		if !ok {
			continue
		}
		params = append(params, pp)
	}
	return params
}
