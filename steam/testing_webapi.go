// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"bytes"
	"encoding/json"
	"encoding/pem"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAPIKey is the only key a TestWebAPI accepts.
const TestAPIKey APIKey = "test-web-api-key"

// TestWebAPI is a local server that plays the part of the Steam Web API's
// GetPlayerSummaries.  It answers with the players added with SetPlayer and
// rejects any key other than TestAPIKey with a 403, as Steam does.
type TestWebAPI struct {
	httpServer *httptest.Server
	caCert     string

	mu           sync.Mutex
	players      map[string]PlayerSummary
	status       int
	body         string
	requestCount int
	lastQuery    url.Values
}

// StartTestWebAPI creates a disposable TLS TestWebAPI which is stopped when
// the test completes.
func StartTestWebAPI(t *testing.T) *TestWebAPI {
	t.Helper()
	a := &TestWebAPI{
		players: map[string]PlayerSummary{},
	}
	a.httpServer = httptest.NewUnstartedServer(a)
	a.httpServer.Config.ErrorLog = log.New(io.Discard, "", 0)
	a.httpServer.StartTLS()
	t.Cleanup(a.httpServer.Close)

	var buf bytes.Buffer
	err := pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: a.httpServer.Certificate().Raw})
	require.NoError(t, err)
	a.caCert = buf.String()
	return a
}

// Stop stops the running TestWebAPI.
func (a *TestWebAPI) Stop() { a.httpServer.Close() }

// Addr returns the base URL of the TestWebAPI.
func (a *TestWebAPI) Addr() string { return a.httpServer.URL }

// CACert returns the pem-encoded CA certificate of the TestWebAPI.
func (a *TestWebAPI) CACert() string { return a.caCert }

// SetPlayer adds (or replaces) a player.
func (a *TestWebAPI) SetPlayer(p PlayerSummary) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.players[p.SteamID] = p
}

// SetResponse overrides the status and body of every response.  An empty
// body restores the default behavior.
func (a *TestWebAPI) SetResponse(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
	a.body = body
}

// RequestCount returns how many requests were received.
func (a *TestWebAPI) RequestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requestCount
}

// LastQuery returns a copy of the query of the last request.
func (a *TestWebAPI) LastQuery() url.Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := url.Values{}
	for k, v := range a.lastQuery {
		cp[k] = append([]string(nil), v...)
	}
	return cp
}

// ServeHTTP implements the TestWebAPI's http.Handler.
func (a *TestWebAPI) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.URL.Path != playerSummariesPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.requestCount++
	a.lastQuery = req.URL.Query()

	if a.body != "" {
		status := a.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, a.body)
		return
	}
	if APIKey(a.lastQuery.Get("key")) != TestAPIKey {
		http.Error(w, "<html><body><h1>Forbidden</h1></body></html>", http.StatusForbidden)
		return
	}

	var resp playerSummariesResponse
	resp.Response.Players = []PlayerSummary{}
	for _, id := range strings.Split(a.lastQuery.Get("steamids"), ",") {
		if p, ok := a.players[id]; ok {
			resp.Response.Players = append(resp.Response.Players, p)
		}
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	_ = json.NewEncoder(w).Encode(resp)
}
