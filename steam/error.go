// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"errors"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilParameter     = errors.New("nil parameter")

	// ErrMissingIdentifier means no steamid was given to resolve.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrProfileFetch is any failure talking to the Web API: the network,
	// a non-200 status, the rate limiter or a body that can't be decoded.
	ErrProfileFetch = errors.New("profile fetch failed")

	// ErrProfileNotFound means the Web API answered but had no player for
	// the steamid.
	ErrProfileNotFound = errors.New("profile not found")
)
