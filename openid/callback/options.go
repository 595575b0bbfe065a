// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/cap-steam/metrics"
	"github.com/hashicorp/cap-steam/openid"
)

// ReturnToQueryFunc returns the query parameters Login adds to the return_to
// URL of a login attempt.  It may set cookies with the ResponseWriter.
type ReturnToQueryFunc func(w http.ResponseWriter, req *http.Request) (url.Values, error)

type handlerOptions struct {
	withMetrics       *metrics.Collector
	withLogger        hclog.Logger
	withReturnToQuery ReturnToQueryFunc
	withErrorFunc     ErrorResponseFunc
}

func handlerDefaults() handlerOptions {
	return handlerOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

func getHandlerOpts(opt ...openid.Option) handlerOptions {
	opts := handlerDefaults()
	openid.ApplyOpts(&opts, opt...)
	return opts
}

// WithMetrics provides an optional collector for login outcomes.
func WithMetrics(c *metrics.Collector) openid.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withMetrics = c
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) openid.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithReturnToQuery provides an optional func which Login uses to correlate
// the return_to URL with the login attempt.
func WithReturnToQuery(fn ReturnToQueryFunc) openid.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withReturnToQuery = fn
		}
	}
}

// WithErrorResponse provides an optional ErrorResponseFunc for Login.  By
// default Login responds with a 500.
func WithErrorResponse(fn ErrorResponseFunc) openid.Option {
	return func(o interface{}) {
		if o, ok := o.(*handlerOptions); ok {
			o.withErrorFunc = fn
		}
	}
}
