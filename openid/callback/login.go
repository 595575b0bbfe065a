// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-steam/openid"
)

// Login creates a handler which redirects the user's browser to the
// provider.
//
// Supported options:
//   - WithReturnToQuery
//   - WithErrorResponse
//   - WithMetrics
//   - WithLogger
func Login(p AssertionProvider, opt ...openid.Option) (http.HandlerFunc, error) {
	const op = "callback.Login"
	if p == nil {
		return nil, fmt.Errorf("%s: provider is nil: %w", op, openid.ErrNilParameter)
	}
	opts := getHandlerOpts(opt...)
	eFn := opts.withErrorFunc
	if eFn == nil {
		eFn = func(_ error, w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return func(w http.ResponseWriter, req *http.Request) {
		var authOpts []openid.Option
		if opts.withReturnToQuery != nil {
			q, err := opts.withReturnToQuery(w, req)
			if err != nil {
				opts.withLogger.Error("unable to build return_to query", "error", err)
				eFn(fmt.Errorf("%s: %w", op, err), w, req)
				return
			}
			authOpts = append(authOpts, openid.WithReturnToQuery(q))
		}
		authURL, err := p.AuthURL(req.Context(), authOpts...)
		if err != nil {
			opts.withLogger.Error("unable to build auth URL", "error", err)
			eFn(fmt.Errorf("%s: %w", op, err), w, req)
			return
		}
		opts.withMetrics.RecordRedirect()
		http.Redirect(w, req, authURL, http.StatusFound)
	}, nil
}
