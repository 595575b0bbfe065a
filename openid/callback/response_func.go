// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/cap-steam/openid"
)

// SuccessResponseFunc is used by Assertion to create a http response when
// the login is successful.
//
// The identity is the user's resolved profile and the credential holds the
// verified identifier plus locally generated tokens.  The function should
// use the http.ResponseWriter to send back whatever content (headers, html,
// JSON, a redirect to the app, etc) it wishes; typically it creates the
// host's session first.
type SuccessResponseFunc func(id *openid.Identity, c *openid.Credential, w http.ResponseWriter, req *http.Request)

// ErrorResponseFunc is used by Assertion and Login to create a http response
// when they fail.  The error can be inspected with errors.Is against the
// openid and steam sentinel errors (openid.IsRetryable is handy too).  No
// session must be created.
type ErrorResponseFunc func(err error, w http.ResponseWriter, req *http.Request)
