// Dashfeed - SaaS Metrics Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashfeed

// Package validation validates widget query parameters with
// go-playground/validator v10.
//
// A single validator instance is built lazily and shared. On top of the
// built-in tags it registers:
//
//   - isodate: a YYYY-MM-DD calendar date
//   - metricname: an analytics metric, optionally ga:-qualified
//   - DateRange struct rule: from and to are set together and from <= to
//
// Field names in messages come from the `query` struct tag, so a client sees
// the parameter it actually sent:
//
//	type pagesQuery struct {
//	    validation.DateRange
//	    Days int `query:"days" validate:"omitempty,min=1,max=90"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
