// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
)

const (
	// NamespaceOpenID2 is the openid.ns value of every OpenID 2.0 message.
	NamespaceOpenID2 = "http://specs.openid.net/auth/2.0"

	// IdentifierSelect lets the provider choose the identifier at login time.
	IdentifierSelect = "http://specs.openid.net/auth/2.0/identifier_select"

	ModeCheckIDSetup        = "checkid_setup"
	ModeCheckAuthentication = "check_authentication"
	ModeIDRes               = "id_res"
	ModeCancel              = "cancel"
	ModeError               = "error"

	paramPrefix = "openid."
)

// AuthRequest is the set of openid.* parameters used to send a user's browser
// to the provider.  It's immutable once built and should be created fresh
// for every login attempt.
type AuthRequest struct {
	endpoint string
	params   url.Values
}

// NewAuthRequest builds the checkid_setup request for the provider endpoint.
// The returnTo is where the provider will send the user's browser with its
// assertion and the realm is what the user is asked to trust.
//
// Supported options:
//   - WithReturnToQuery
func NewAuthRequest(endpoint, returnTo, realm string, opt ...Option) (*AuthRequest, error) {
	const op = "openid.NewAuthRequest"
	switch {
	case endpoint == "":
		return nil, fmt.Errorf("%s: endpoint is empty: %w", op, ErrInvalidParameter)
	case returnTo == "":
		return nil, fmt.Errorf("%s: return_to is empty: %w", op, ErrInvalidParameter)
	case realm == "":
		return nil, fmt.Errorf("%s: realm is empty: %w", op, ErrInvalidParameter)
	}
	opts := getAuthRequestOpts(opt...)
	if len(opts.withReturnToQuery) > 0 {
		u, err := url.Parse(returnTo)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to parse return_to: %s: %w", op, err, ErrInvalidParameter)
		}
		q := u.Query()
		for k, vals := range opts.withReturnToQuery {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
		returnTo = u.String()
	}
	return &AuthRequest{
		endpoint: endpoint,
		params: url.Values{
			paramPrefix + "ns":         {NamespaceOpenID2},
			paramPrefix + "mode":       {ModeCheckIDSetup},
			paramPrefix + "return_to":  {returnTo},
			paramPrefix + "realm":      {realm},
			paramPrefix + "identity":   {IdentifierSelect},
			paramPrefix + "claimed_id": {IdentifierSelect},
		},
	}, nil
}

// Endpoint returns the provider endpoint of the request.
func (r *AuthRequest) Endpoint() string { return r.endpoint }

// Params returns a copy of the request's openid.* parameters.
func (r *AuthRequest) Params() url.Values {
	cp := make(url.Values, len(r.params))
	for k, v := range r.params {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// URL returns the URL to redirect the user's browser to.  Any query the
// endpoint already carries is preserved.
func (r *AuthRequest) URL() (string, error) {
	const op = "openid.(AuthRequest).URL"
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: unable to parse endpoint: %s: %w", op, err, ErrInvalidParameter)
	}
	q := u.Query()
	for k, v := range r.params {
		q[k] = append([]string(nil), v...)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const formPostScript = `document.getElementById("openid-form").submit();`

// formPostScriptHash is the CSP hash of the inline script which submits the
// form.
var formPostScriptHash = func() string {
	sum := sha256.Sum256([]byte(formPostScript))
	return "sha256-" + base64.StdEncoding.EncodeToString(sum[:])
}()

var formPostTmpl = template.Must(template.New("openid-form-post").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Signing in</title></head>
<body>
<form id="openid-form" method="post" action="{{.Endpoint}}">
{{- range .Fields}}
<input type="hidden" id="{{.Name}}" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue</button></noscript>
</form>
<script>` + formPostScript + `</script>
</body>
</html>
`))

type formField struct {
	Name  string
	Value string
}

// FormPost renders an HTML document which posts the request to the provider
// as soon as it's loaded.  It's an alternative to URL() for requests that
// would make an overly long redirect URL.  See WriteFormPostHeader.
func (r *AuthRequest) FormPost() ([]byte, error) {
	const op = "openid.(AuthRequest).FormPost"
	names := make([]string, 0, len(r.params))
	for k := range r.params {
		names = append(names, k)
	}
	sort.Strings(names)
	fields := make([]formField, 0, len(names))
	for _, n := range names {
		fields = append(fields, formField{Name: n, Value: r.params.Get(n)})
	}
	var buf bytes.Buffer
	if err := formPostTmpl.Execute(&buf, struct {
		Endpoint string
		Fields   []formField
	}{r.endpoint, fields}); err != nil {
		return nil, fmt.Errorf("%s: unable to render form: %w", op, err)
	}
	return buf.Bytes(), nil
}

// WriteFormPostHeader sets the headers a FormPost response needs.
func WriteFormPostHeader(w http.ResponseWriter) {
	w.Header().Set("Content-Security-Policy", fmt.Sprintf("script-src '%s'", formPostScriptHash))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
}

// authRequestOptions is the set of available options for NewAuthRequest
type authRequestOptions struct {
	withReturnToQuery url.Values
}

func authRequestDefaults() authRequestOptions {
	return authRequestOptions{}
}

func getAuthRequestOpts(opt ...Option) authRequestOptions {
	opts := authRequestDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithReturnToQuery provides optional query parameters appended to the
// return_to URL.  OpenID 2.0 has no state parameter, so this is how a host
// correlates the callback with the login attempt it started.
func WithReturnToQuery(q url.Values) Option {
	return func(o interface{}) {
		if o, ok := o.(*authRequestOptions); ok {
			o.withReturnToQuery = q
		}
	}
}
