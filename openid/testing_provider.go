// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProviderPath is the path of the TestProvider's OpenID endpoint.
const TestProviderPath = "/openid/login"

// TestIdentifier is the identifier a TestProvider asserts by default.
const TestIdentifier = "76561197960287930"

// testSignedFields is what Steam lists in openid.signed
const testSignedFields = "signed,op_endpoint,claimed_id,identity,return_to,response_nonce,assoc_handle"

// TestProvider is a local server that plays the part of Steam's OpenID
// provider, which makes writing tests much easier. It supports:
//   - checkid_setup: redirects the browser back to return_to with a signed
//     positive assertion (or a cancel response, see SetCancel)
//   - check_authentication: verifies the assertion's signature and rejects
//     replayed response nonces
type TestProvider struct {
	httpServer *httptest.Server
	caCert     string
	secret     []byte

	mu                   sync.Mutex
	identifier           string
	claimedIDHost        string
	cancel               bool
	verificationBody     string
	verificationStatus   int
	verificationDelay    time.Duration
	verificationCount    int
	lastVerification     url.Values
	lastAcceptLanguage   string
	usedNonces           map[string]bool
	disableNonceTracking bool

	t *testing.T
}

// StartTestProvider creates a disposable TLS TestProvider which is stopped
// when the test completes.
func StartTestProvider(t *testing.T) *TestProvider {
	t.Helper()
	require := require.New(t)

	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(err)

	p := &TestProvider{
		secret:        secret,
		identifier:    TestIdentifier,
		claimedIDHost: SteamClaimedIDHost,
		usedNonces:    map[string]bool{},
		t:             t,
	}
	p.httpServer = httptest.NewUnstartedServer(p)
	p.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	p.httpServer.StartTLS()
	t.Cleanup(p.httpServer.Close)

	var buf bytes.Buffer
	err = pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: p.httpServer.Certificate().Raw})
	require.NoError(err)
	p.caCert = buf.String()
	return p
}

// Stop stops the running TestProvider.
func (p *TestProvider) Stop() {
	p.httpServer.Close()
}

// Addr returns the current base URL for the test provider's running webserver.
func (p *TestProvider) Addr() string { return p.httpServer.URL }

// Endpoint returns the test provider's OpenID endpoint.
func (p *TestProvider) Endpoint() string { return p.httpServer.URL + TestProviderPath }

// CACert returns the pem-encoded CA certificate used by the test provider's
// HTTPS server.
func (p *TestProvider) CACert() string { return p.caCert }

// HTTPClient returns an http client which trusts the test provider and
// doesn't follow redirects, like a browser that's been told to stop.
func (p *TestProvider) HTTPClient() *http.Client {
	c := p.httpServer.Client()
	c.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// SetIdentifier configures the identifier (the digits of the claimed_id)
// the provider asserts.
func (p *TestProvider) SetIdentifier(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identifier = id
}

// SetClaimedIDHost configures the host used in asserted claimed_ids.
func (p *TestProvider) SetClaimedIDHost(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.claimedIDHost = host
}

// SetCancel makes checkid_setup respond as if the user declined the login.
func (p *TestProvider) SetCancel(cancel bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel = cancel
}

// SetVerificationResponse overrides the body and status of every
// check_authentication response.  An empty body restores the default
// behavior of verifying the signature.
func (p *TestProvider) SetVerificationResponse(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verificationStatus = status
	p.verificationBody = body
}

// SetVerificationDelay delays every check_authentication response.
func (p *TestProvider) SetVerificationDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verificationDelay = d
}

// DisableNonceTracking allows the same assertion to be verified more than
// once.
func (p *TestProvider) DisableNonceTracking() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disableNonceTracking = true
}

// VerificationCount returns how many check_authentication requests were
// received.
func (p *TestProvider) VerificationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verificationCount
}

// LastVerificationRequest returns a copy of the form of the last
// check_authentication request, and its Accept-Language header.
func (p *TestProvider) LastVerificationRequest() (url.Values, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := url.Values{}
	for k, v := range p.lastVerification {
		cp[k] = append([]string(nil), v...)
	}
	return cp, p.lastAcceptLanguage
}

// ClaimedID returns the claimed_id the test provider asserts for id.
func (p *TestProvider) ClaimedID(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.claimedID(id)
}

func (p *TestProvider) claimedID(id string) string {
	return fmt.Sprintf("https://%s/openid/id/%s", p.claimedIDHost, id)
}

// SignedAssertion returns the query parameters of a positive assertion for
// returnTo, as the provider would redirect the browser with them.
func (p *TestProvider) SignedAssertion(returnTo string) url.Values {
	p.t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signedAssertion(returnTo)
}

func (p *TestProvider) signedAssertion(returnTo string) url.Values {
	nonce := make([]byte, 8)
	_, err := rand.Read(nonce)
	require.NoError(p.t, err)

	claimedID := p.claimedID(p.identifier)
	fields := map[string]string{
		"ns":             NamespaceOpenID2,
		"mode":           ModeIDRes,
		"op_endpoint":    p.Endpoint(),
		"claimed_id":     claimedID,
		"identity":       claimedID,
		"return_to":      returnTo,
		"response_nonce": time.Now().UTC().Format(time.RFC3339) + hex.EncodeToString(nonce),
		"assoc_handle":   "1234567890",
		"signed":         testSignedFields,
	}
	fields["sig"] = p.sign(fields, strings.Split(testSignedFields, ","))

	q := url.Values{}
	for k, v := range fields {
		q.Set(paramPrefix+k, v)
	}
	return q
}

// sign computes the signature of the signed fields in key-value form
// encoding.
func (p *TestProvider) sign(fields map[string]string, signed []string) string {
	var kv strings.Builder
	for _, name := range signed {
		kv.WriteString(name)
		kv.WriteString(":")
		kv.WriteString(fields[name])
		kv.WriteString("\n")
	}
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(kv.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ServeHTTP implements the test provider's http.Handler.
func (p *TestProvider) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != TestProviderPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch req.Method {
	case http.MethodGet:
		p.checkIDSetup(w, req)
	case http.MethodPost:
		p.checkAuthentication(w, req)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (p *TestProvider) checkIDSetup(w http.ResponseWriter, req *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	qv := req.URL.Query()
	switch {
	case qv.Get("openid.ns") != NamespaceOpenID2,
		qv.Get("openid.mode") != ModeCheckIDSetup,
		qv.Get("openid.identity") != IdentifierSelect,
		qv.Get("openid.claimed_id") != IdentifierSelect,
		qv.Get("openid.realm") == "":
		http.Error(w, "invalid checkid_setup request", http.StatusBadRequest)
		return
	}
	returnTo := qv.Get("openid.return_to")
	if returnTo == "" || !withinRealm(returnTo, qv.Get("openid.realm")) {
		http.Error(w, "return_to is not within realm", http.StatusBadRequest)
		return
	}

	var assertion url.Values
	if p.cancel {
		assertion = url.Values{
			"openid.ns":   {NamespaceOpenID2},
			"openid.mode": {ModeCancel},
		}
	} else {
		assertion = p.signedAssertion(returnTo)
	}
	u, err := url.Parse(returnTo)
	if err != nil {
		http.Error(w, "invalid return_to", http.StatusBadRequest)
		return
	}
	q := u.Query()
	for k, v := range assertion {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, req, u.String(), http.StatusFound)
}

func (p *TestProvider) checkAuthentication(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.verificationCount++
	p.lastVerification = req.PostForm
	p.lastAcceptLanguage = req.Header.Get("Accept-Language")
	delay := p.verificationDelay
	status, body := p.verificationStatus, p.verificationBody
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-req.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if body != "" {
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
		return
	}

	valid := p.isValid(req.PostForm)
	_, _ = fmt.Fprintf(w, "ns:%s\nis_valid:%t\n", NamespaceOpenID2, valid)
}

func (p *TestProvider) isValid(form url.Values) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if form.Get("openid.mode") != ModeCheckAuthentication {
		return false
	}
	signed := strings.Split(form.Get("openid.signed"), ",")
	fields := map[string]string{}
	for _, name := range signed {
		fields[name] = form.Get(paramPrefix + name)
	}
	want := p.sign(fields, signed)
	if !hmac.Equal([]byte(want), []byte(form.Get("openid.sig"))) {
		return false
	}
	nonce := form.Get("openid.response_nonce")
	if !p.disableNonceTracking {
		if p.usedNonces[nonce] {
			return false
		}
		p.usedNonces[nonce] = true
	}
	return true
}
