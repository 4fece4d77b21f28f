// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package blocks is the display block engine: it decides which configured
// blocks appear on a page, resolves each one into content, renders it, and
// manages the block registry for the back office.
package blocks

import (
	"errors"
	"sort"
	"unicode"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	ErrNotFound        = errors.New("block not found")
	ErrNameRequired    = errors.New("block name is required")
	ErrInvalidPosition = errors.New("unknown block position")
	ErrInvalidType     = errors.New("unknown block type")
	ErrInvalidTarget   = errors.New("unknown target page")
	ErrUnknownCategory = errors.New("source refers to a category that does not exist")
	ErrUnknownType     = errors.New("no renderer for block type")
)

// ValidationError carries per-field problems found while saving a block.
// errors.Is matches any sentinel reported for a field.
type ValidationError struct {
	Fields validation.Errors
}

func (e *ValidationError) Error() string {
	return e.Fields.Error()
}

// Unwrap exposes the individual field errors in field-name order.
func (e *ValidationError) Unwrap() []error {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := make([]error, 0, len(keys))
	for _, k := range keys {
		errs = append(errs, e.Fields[k])
	}
	return errs
}

// Messages returns a field → message map for form display.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for k, err := range e.Fields {
		msg := err.Error()
		if r, size := utf8.DecodeRuneInString(msg); size > 0 {
			msg = string(unicode.ToUpper(r)) + msg[size:]
		}
		out[k] = msg
	}
	return out
}
