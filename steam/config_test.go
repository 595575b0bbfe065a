// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	logger := hclog.New(&hclog.LoggerOptions{Name: "test"})
	limiter := rate.NewLimiter(rate.Every(time.Second), 5)
	tests := []struct {
		name      string
		apiKey    APIKey
		opt       []Option
		want      *Config
		wantErr   bool
		wantIsErr error
	}{
		{
			name:   "defaults",
			apiKey: TestAPIKey,
			want: &Config{
				APIKey:    TestAPIKey,
				WebAPIURL: DefaultWebAPIURL,
				Timeout:   DefaultTimeout,
			},
		},
		{
			name:   "all-options",
			apiKey: TestAPIKey,
			opt: []Option{
				WithWebAPIURL("http://localhost:8080"),
				WithTimeout(time.Second),
				WithProviderCA("ca"),
				WithRateLimiter(limiter),
				WithLogger(logger),
			},
			want: &Config{
				APIKey:      TestAPIKey,
				WebAPIURL:   "http://localhost:8080",
				Timeout:     time.Second,
				ProviderCA:  "ca",
				RateLimiter: limiter,
				Logger:      logger,
			},
		},
		{name: "empty-key", wantErr: true, wantIsErr: ErrInvalidParameter},
		{name: "bad-url", apiKey: TestAPIKey, opt: []Option{WithWebAPIURL("ftp://steam")}, wantErr: true, wantIsErr: ErrInvalidParameter},
		{name: "no-host", apiKey: TestAPIKey, opt: []Option{WithWebAPIURL("https://")}, wantErr: true, wantIsErr: ErrInvalidParameter},
		{name: "zero-timeout", apiKey: TestAPIKey, opt: []Option{WithTimeout(0)}, wantErr: true, wantIsErr: ErrInvalidParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert, require := assert.New(t), require.New(t)
			got, err := NewConfig(tt.apiKey, tt.opt...)
			if tt.wantErr {
				require.Error(err)
				assert.ErrorIs(err, tt.wantIsErr)
				return
			}
			require.NoError(err)
			if tt.want.Logger == nil {
				assert.NotNil(got.Logger)
				got.Logger = nil
			}
			assert.Equal(tt.want, got)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	t.Run("nil", func(t *testing.T) {
		var c *Config
		assert.ErrorIs(t, c.Validate(), ErrNilParameter)
	})
	t.Run("reports-every-problem", func(t *testing.T) {
		err := (&Config{}).Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api key is empty")
		assert.Contains(t, err.Error(), "web api URL")
		assert.Contains(t, err.Error(), "timeout")
	})
}

func TestAPIKey_redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c, err := NewConfig("super-secret")
	require.NoError(err)

	assert.Equal(RedactedAPIKey, c.APIKey.String())
	assert.NotContains(fmt.Sprintf("%s %v", c.APIKey, c.APIKey), "super-secret")
	b, err := json.Marshal(c.APIKey)
	require.NoError(err)
	assert.Equal(`"[REDACTED: api_key]"`, string(b))
}
