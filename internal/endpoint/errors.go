// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"net/http"

	"github.com/z5labs/items/rest"
)

// NotFoundError is returned when no item has the requested id.
type NotFoundError struct {
	rest.ProblemDetail

	ItemID int64 `json:"item_id"`
}

func newNotFoundError(id int64) NotFoundError {
	return NotFoundError{
		ProblemDetail: rest.ProblemDetail{
			Type:   "about:blank",
			Title:  "Not Found",
			Status: http.StatusNotFound,
			Detail: "Item not found",
		},
		ItemID: id,
	}
}

// ConflictError is returned when creating an item whose id is taken.
type ConflictError struct {
	rest.ProblemDetail

	ItemID int64 `json:"item_id"`
}

func newConflictError(id int64) ConflictError {
	return ConflictError{
		ProblemDetail: rest.ProblemDetail{
			Type:   "about:blank",
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "Item with this ID already exists",
		},
		ItemID: id,
	}
}
