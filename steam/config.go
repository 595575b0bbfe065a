// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	sdkHttp "github.com/hashicorp/cap-steam/sdk/http"
)

const (
	// DefaultWebAPIURL is the base URL of the Steam Web API.
	DefaultWebAPIURL = "https://api.steampowered.com"

	// DefaultTimeout bounds every Web API request.
	DefaultTimeout = 5 * time.Second

	playerSummariesPath = "/ISteamUser/GetPlayerSummaries/v0002/"
)

// APIKey is a Steam Web API key.
type APIKey string

// RedactedAPIKey is the redacted string or json for a Web API key.
const RedactedAPIKey = "[REDACTED: api_key]"

// String will redact the key
func (k APIKey) String() string {
	return RedactedAPIKey
}

// MarshalJSON will redact the key
func (k APIKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAPIKey)
}

// Config represents the configuration for resolving Steam profiles.
type Config struct {
	// APIKey is the Steam Web API key. (required)
	APIKey APIKey

	// WebAPIURL is the base URL of the Web API.
	WebAPIURL string

	// Timeout bounds each Web API request.
	Timeout time.Duration

	// ProviderCA is an optional CA cert to use when sending requests to the
	// Web API.
	ProviderCA string

	// RateLimiter is optional.  When set, every request waits for it, which
	// keeps a busy host within the Web API's daily quota.
	RateLimiter *rate.Limiter

	// Logger is an optional logger. Defaults to a null logger.
	Logger hclog.Logger
}

// NewConfig composes a new config for the Steam Web API.
//
// Supported options:
//   - WithWebAPIURL
//   - WithTimeout
//   - WithProviderCA
//   - WithRateLimiter
//   - WithLogger
func NewConfig(apiKey APIKey, opt ...Option) (*Config, error) {
	const op = "steam.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		APIKey:      apiKey,
		WebAPIURL:   opts.withWebAPIURL,
		Timeout:     opts.withTimeout,
		ProviderCA:  opts.withProviderCA,
		RateLimiter: opts.withRateLimiter,
		Logger:      opts.withLogger,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid web api config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration.  Every problem found is reported.
func (c *Config) Validate() error {
	const op = "steam.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if c.APIKey == "" {
		result = multierror.Append(result, fmt.Errorf("api key is empty: %w", ErrInvalidParameter))
	}
	if u, err := url.Parse(c.WebAPIURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("web api URL %q is not an http(s) URL: %w", c.WebAPIURL, ErrInvalidParameter))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout %s not greater than zero: %w", c.Timeout, ErrInvalidParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HttpClient creates a new http client for the configured Web API.
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "steam.(Config).HttpClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidParameter)
		}
		return nil, fmt.Errorf("%s: could not get an http client: %w", op, err)
	}
	return client, nil
}

func (c *Config) logger() hclog.Logger {
	if c.Logger == nil {
		return hclog.NewNullLogger()
	}
	return c.Logger
}

// configOptions is the set of available options
type configOptions struct {
	withWebAPIURL   string
	withTimeout     time.Duration
	withProviderCA  string
	withRateLimiter *rate.Limiter
	withLogger      hclog.Logger
}

func configDefaults() configOptions {
	return configOptions{
		withWebAPIURL: DefaultWebAPIURL,
		withTimeout:   DefaultTimeout,
		withLogger:    hclog.NewNullLogger(),
	}
}

func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithWebAPIURL provides an optional Web API base URL.
func WithWebAPIURL(u string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withWebAPIURL = u
		}
	}
}

// WithTimeout provides an optional timeout for Web API requests.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithProviderCA provides an optional CA cert for the Web API.
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithRateLimiter provides an optional limiter shared by every Web API
// request.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withRateLimiter = l
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
