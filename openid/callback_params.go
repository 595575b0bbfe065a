// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrCanceled is returned (alongside ErrMalformedCallback) when the user
// declined the login at the provider.
var ErrCanceled = errors.New("login canceled")

// fieldNameRe is the shape of a field name allowed in openid.signed
var fieldNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// CallbackParams are the openid.* fields the provider sent back with the
// user's browser.  Field names are stored without the "openid." prefix.
// Nothing in it has been verified.
type CallbackParams struct {
	fields map[string]string
	signed []string
}

// ParseCallback extracts the openid.* fields from a callback's query
// parameters.  It only checks their shape:
//   - openid.signed must be present with a single value
//   - openid.sig and openid.assoc_handle must be present
//   - every openid.* field must have a single value
//   - every name in openid.signed must be a field name present in the callback
//
// Any failure is an ErrMalformedCallback.  When the provider reports the user
// canceled, the error also matches ErrCanceled.
func ParseCallback(q url.Values) (*CallbackParams, error) {
	const op = "openid.ParseCallback"
	fields := make(map[string]string, len(q))
	for k, vals := range q {
		if !strings.HasPrefix(k, paramPrefix) {
			continue
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("%s: %s has %d values: %w", op, k, len(vals), ErrMalformedCallback)
		}
		fields[strings.TrimPrefix(k, paramPrefix)] = vals[0]
	}

	rawSigned, ok := fields["signed"]
	if !ok {
		switch fields["mode"] {
		case ModeCancel:
			return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedCallback, ErrCanceled)
		case ModeError:
			return nil, fmt.Errorf("%s: provider returned an error response: %w", op, ErrMalformedCallback)
		}
		return nil, fmt.Errorf("%s: openid.signed is missing: %w", op, ErrMalformedCallback)
	}
	if rawSigned == "" {
		return nil, fmt.Errorf("%s: openid.signed is empty: %w", op, ErrMalformedCallback)
	}
	for _, required := range []string{"sig", "assoc_handle"} {
		if fields[required] == "" {
			return nil, fmt.Errorf("%s: openid.%s is missing: %w", op, required, ErrMalformedCallback)
		}
	}

	signed := strings.Split(rawSigned, ",")
	for _, name := range signed {
		if !fieldNameRe.MatchString(name) {
			return nil, fmt.Errorf("%s: openid.signed names an invalid field %q: %w", op, name, ErrMalformedCallback)
		}
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%s: signed field openid.%s is missing: %w", op, name, ErrMalformedCallback)
		}
	}
	return &CallbackParams{
		fields: fields,
		signed: signed,
	}, nil
}

// Get returns the value of the openid.<name> field.
func (c *CallbackParams) Get(name string) (string, bool) {
	v, ok := c.fields[name]
	return v, ok
}

// Signed returns a copy of the field names listed in openid.signed.
func (c *CallbackParams) Signed() []string {
	return append([]string(nil), c.signed...)
}

func (c *CallbackParams) Mode() string      { return c.fields["mode"] }
func (c *CallbackParams) ClaimedID() string { return c.fields["claimed_id"] }
func (c *CallbackParams) ReturnTo() string  { return c.fields["return_to"] }
