// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hashicorp/cap-steam/openid"
	"github.com/hashicorp/cap-steam/steam"
)

const (
	testRealm    = "https://app.example"
	testReturnTo = "https://app.example/api/callback"
)

func testSteamProvider(t *testing.T, tp *openid.TestProvider, api *steam.TestWebAPI) *steam.Provider {
	t.Helper()
	oc, err := openid.NewConfig(testReturnTo, testRealm,
		openid.WithEndpoint(tp.Endpoint()),
		openid.WithProviderCA(tp.CACert()),
	)
	require.NoError(t, err)
	sc, err := steam.NewConfig(steam.TestAPIKey, steam.WithWebAPIURL(api.Addr()), steam.WithProviderCA(api.CACert()))
	require.NoError(t, err)
	p, err := steam.NewProvider(oc, sc)
	require.NoError(t, err)
	return p
}

func testSuccessFn(id *openid.Identity, c *openid.Credential, w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Identity *openid.Identity `json:"identity"`
		Token    string           `json:"token"`
	}{id, string(c.AccessToken())})
}

func contextWithCancel(req *http.Request) (context.Context, context.CancelFunc) {
	return context.WithCancel(req.Context())
}

// testErrorRecorder records the error passed to its ErrorResponseFunc.
type testErrorRecorder struct {
	err error
}

func (r *testErrorRecorder) fn(err error, w http.ResponseWriter, _ *http.Request) {
	r.err = err
	w.WriteHeader(http.StatusUnauthorized)
}

// testAssertionProvider is an AssertionProvider whose every step returns
// the request context's error, if any.
type testAssertionProvider struct {
	authURL string
}

func (p *testAssertionProvider) AuthURL(ctx context.Context, _ ...openid.Option) (string, error) {
	return p.authURL, ctx.Err()
}

func (p *testAssertionProvider) VerifyAssertion(ctx context.Context, _ *openid.CallbackParams) (*openid.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return openid.NewCredential(openid.TestIdentifier)
}

func (p *testAssertionProvider) ResolveProfile(ctx context.Context, c *openid.Credential) (*openid.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &openid.Identity{ID: c.Identifier()}, nil
}
