// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"errors"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidCACert     = errors.New("invalid CA certificate")
	ErrIdGeneratorFailed = errors.New("id generation failed")

	// ErrMalformedCallback means the callback parameters don't have the
	// shape of an OpenID 2.0 positive assertion.  Nothing was verified.
	ErrMalformedCallback = errors.New("malformed callback")

	// ErrVerification is a transport failure during check_authentication
	// (network, timeout, cancellation, provider unavailable).  It says nothing
	// about the assertion itself.
	ErrVerification = errors.New("verification failed")

	// ErrInvalidAssertion means the provider rejected the assertion or no
	// usable identifier could be extracted from it.  The login must be
	// aborted.
	ErrInvalidAssertion = errors.New("invalid assertion")
)

// IsRetryable reports whether err is a transport failure that a host may
// choose to retry by restarting the login.  Semantic rejections are never
// retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrVerification) && !errors.Is(err, ErrInvalidAssertion)
}
