// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package http

import (
	"bytes"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw}))
	caPEM := buf.String()

	tests := []struct {
		name      string
		caPEM     string
		timeout   time.Duration
		wantErr   bool
		wantIsErr error
	}{
		{name: "valid-ca", caPEM: caPEM, timeout: time.Second},
		{name: "system-ca", timeout: time.Second},
		{name: "bad-ca", caPEM: "not a pem", timeout: time.Second, wantErr: true, wantIsErr: ErrInvalidCertificatePem},
		{name: "zero-timeout", caPEM: caPEM, wantErr: true, wantIsErr: ErrInvalidTimeout},
		{name: "negative-timeout", timeout: -time.Second, wantErr: true, wantIsErr: ErrInvalidTimeout},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewClient(tt.caPEM, tt.timeout)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			assert.Equal(tt.timeout, got.Timeout)
		})
	}
	t.Run("trusts-provided-ca", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewClient(caPEM, time.Second)
		require.NoError(err)
		resp, err := c.Get(srv.URL)
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusOK, resp.StatusCode)
	})
	t.Run("does-not-follow-redirects", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://example.com", http.StatusFound)
		}))
		defer redirector.Close()
		c, err := NewClient("", time.Second)
		require.NoError(err)
		resp, err := c.Get(redirector.URL)
		require.NoError(err)
		defer resp.Body.Close()
		assert.Equal(http.StatusFound, resp.StatusCode)
	})
}
