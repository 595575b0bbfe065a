// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/cap-steam/openid"
)

// Assertion creates a handler for the provider's redirect back to return_to.
// It verifies the assertion and resolves the user's profile using the
// request's context, so a client that goes away cancels both.
//
// The SuccessResponseFunc is used to create a response when the login is
// successful. The ErrorResponseFunc is used to create a response when it
// fails.
//
// Supported options:
//   - WithMetrics
//   - WithLogger
func Assertion(p AssertionProvider, sFn SuccessResponseFunc, eFn ErrorResponseFunc, opt ...openid.Option) (http.HandlerFunc, error) {
	const op = "callback.Assertion"
	switch {
	case p == nil:
		return nil, fmt.Errorf("%s: provider is nil: %w", op, openid.ErrNilParameter)
	case sFn == nil:
		return nil, fmt.Errorf("%s: success response func is nil: %w", op, openid.ErrNilParameter)
	case eFn == nil:
		return nil, fmt.Errorf("%s: error response func is nil: %w", op, openid.ErrNilParameter)
	}
	opts := getHandlerOpts(opt...)
	logger := opts.withLogger

	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		fail := func(err error) {
			err = fmt.Errorf("%s: %w", op, err)
			opts.withMetrics.RecordLogin(err, time.Since(start))
			logger.Warn("login failed", "error", err, "retryable", openid.IsRetryable(err))
			eFn(err, w, req)
		}

		if err := req.ParseForm(); err != nil {
			fail(fmt.Errorf("unable to parse request: %s: %w", err, openid.ErrMalformedCallback))
			return
		}
		cp, err := openid.ParseCallback(req.Form)
		if err != nil {
			fail(err)
			return
		}
		c, err := p.VerifyAssertion(req.Context(), cp)
		if err != nil {
			fail(err)
			return
		}
		id, err := p.ResolveProfile(req.Context(), c)
		if err != nil {
			fail(err)
			return
		}
		opts.withMetrics.RecordLogin(nil, time.Since(start))
		logger.Info("login succeeded", "id", id.ID)
		sFn(id, c, w, req)
	}, nil
}
