// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp/cap-steam/metrics"
	"github.com/hashicorp/cap-steam/openid"
	"github.com/hashicorp/cap-steam/steam"
)

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("redirects", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		tp := openid.StartTestProvider(t)
		api := steam.StartTestWebAPI(t)
		reg := prometheus.NewRegistry()
		h, err := Login(testSteamProvider(t, tp, api),
			WithMetrics(metrics.NewCollector(reg)),
			WithReturnToQuery(func(w http.ResponseWriter, _ *http.Request) (url.Values, error) {
				http.SetCookie(w, &http.Cookie{Name: "attempt", Value: "a1"})
				return url.Values{"attempt": {"a1"}}, nil
			}),
		)
		require.NoError(err)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(http.StatusFound, w.Code)

		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(err)
		assert.Equal(tp.Endpoint(), loc.Scheme+"://"+loc.Host+loc.Path)
		assert.Equal(testReturnTo+"?attempt=a1", loc.Query().Get("openid.return_to"))
		assert.Equal(testRealm, loc.Query().Get("openid.realm"))
		assert.Contains(w.Header().Get("Set-Cookie"), "attempt=a1")

		mfs, err := reg.Gather()
		require.NoError(err)
		var redirects float64
		for _, mf := range mfs {
			if mf.GetName() == "steam_login_redirects_total" {
				redirects = mf.GetMetric()[0].GetCounter().GetValue()
			}
		}
		assert.Equal(float64(1), redirects)
	})
	t.Run("return-to-query-error", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		rec := &testErrorRecorder{}
		h, err := Login(&testAssertionProvider{authURL: "https://op.example/login"},
			WithErrorResponse(rec.fn),
			WithReturnToQuery(func(http.ResponseWriter, *http.Request) (url.Values, error) {
				return nil, errors.New("no attempt store")
			}),
		)
		require.NoError(err)

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(http.StatusUnauthorized, w.Code)
		require.Error(rec.err)
		assert.Contains(rec.err.Error(), "no attempt store")
	})
	t.Run("auth-url-error", func(t *testing.T) {
		h, err := Login(&testAssertionProvider{})
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/login", nil)
		ctx, cancel := contextWithCancel(req)
		cancel()
		h(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
	t.Run("nil-provider", func(t *testing.T) {
		_, err := Login(nil)
		assert.ErrorIs(t, err, openid.ErrNilParameter)
	})
}
