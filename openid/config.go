// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/language"

	sdkHttp "github.com/hashicorp/cap-steam/sdk/http"
)

const (
	// SteamEndpoint is Steam's OpenID 2.0 provider endpoint.  It serves both
	// checkid_setup (browser) and check_authentication (back channel).
	SteamEndpoint = "https://steamcommunity.com/openid/login"

	// SteamClaimedIDHost is the host of every claimed_id Steam asserts.
	SteamClaimedIDHost = "steamcommunity.com"

	// DefaultTimeout bounds every request made to the provider.
	DefaultTimeout = 5 * time.Second
)

// DefaultLanguage is sent as the Accept-Language of check_authentication
// requests.
var DefaultLanguage = language.English

// Config represents the configuration for an OpenID 2.0 relying party using
// the indirect (identifier select) flow.
type Config struct {
	// Endpoint is the provider's OpenID endpoint URL. (required)
	Endpoint string

	// ReturnTo is the relying party URL the provider redirects the user's
	// browser to with its assertion. It must be within the Realm. (required)
	ReturnTo string

	// Realm is the URL pattern the user is asked to trust; typically the
	// base URL of the relying party. (required)
	Realm string

	// ClaimedIDHost is the host every asserted claimed_id must use.
	ClaimedIDHost string

	// Timeout bounds each request to the provider.
	Timeout time.Duration

	// ProviderCA is an optional CA cert to use when sending requests to the provider.
	ProviderCA string

	// Language is sent as the Accept-Language of verification requests.
	Language language.Tag

	// Logger is an optional logger. Defaults to a null logger.
	Logger hclog.Logger
}

// NewConfig composes a new config for Steam's OpenID provider.
//
// Supported options:
//   - WithEndpoint
//   - WithClaimedIDHost
//   - WithTimeout
//   - WithProviderCA
//   - WithLanguage
//   - WithLogger
func NewConfig(returnTo, realm string, opt ...Option) (*Config, error) {
	const op = "openid.NewConfig"
	opts := getConfigOpts(opt...)
	c := &Config{
		Endpoint:      opts.withEndpoint,
		ReturnTo:      returnTo,
		Realm:         realm,
		ClaimedIDHost: opts.withClaimedIDHost,
		Timeout:       opts.withTimeout,
		ProviderCA:    opts.withProviderCA,
		Language:      opts.withLanguage,
		Logger:        opts.withLogger,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid provider config: %w", op, err)
	}
	return c, nil
}

// Validate the configuration.  Every problem found is reported, not just the
// first one.  It doesn't verify the Endpoint is reachable.
func (c *Config) Validate() error {
	const op = "openid.(Config).Validate"
	if c == nil {
		return fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	var result *multierror.Error
	if err := validateHTTPURL("endpoint", c.Endpoint); err != nil {
		result = multierror.Append(result, err)
	}
	returnToErr := validateHTTPURL("return_to", c.ReturnTo)
	if returnToErr != nil {
		result = multierror.Append(result, returnToErr)
	}
	realmErr := validateHTTPURL("realm", c.Realm)
	if realmErr != nil {
		result = multierror.Append(result, realmErr)
	}
	if returnToErr == nil && realmErr == nil && !withinRealm(c.ReturnTo, c.Realm) {
		result = multierror.Append(result, fmt.Errorf("return_to %q is not within realm %q: %w", c.ReturnTo, c.Realm, ErrInvalidParameter))
	}
	if c.ClaimedIDHost == "" {
		result = multierror.Append(result, fmt.Errorf("claimed_id host is empty: %w", ErrInvalidParameter))
	}
	if c.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("timeout %s not greater than zero: %w", c.Timeout, ErrInvalidParameter))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HttpClient is a helper function that creates a new http client for the
// provider configured
func (c *Config) HttpClient() (*http.Client, error) {
	const op = "openid.(Config).HttpClient"
	client, err := sdkHttp.NewClient(c.ProviderCA, c.Timeout)
	if err != nil {
		if errors.Is(err, sdkHttp.ErrInvalidCertificatePem) {
			return nil, fmt.Errorf("%s: could not parse CA PEM value: %w", op, ErrInvalidCACert)
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

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s URL is empty: %w", name, ErrInvalidParameter)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s URL %q is invalid: %s: %w", name, raw, err, ErrInvalidParameter)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("%s URL %q scheme is not http or https: %w", name, raw, ErrInvalidParameter)
	}
	if u.Host == "" {
		return fmt.Errorf("%s URL %q has no host: %w", name, raw, ErrInvalidParameter)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%s URL %q must not contain a fragment: %w", name, raw, ErrInvalidParameter)
	}
	return nil
}

// withinRealm implements the OpenID 2.0 realm match (section 9.2) minus
// wildcard domains: same scheme and host, and the return_to path is at or
// below the realm path.
func withinRealm(returnTo, realm string) bool {
	rt, err := url.Parse(returnTo)
	if err != nil {
		return false
	}
	rl, err := url.Parse(realm)
	if err != nil {
		return false
	}
	if !strings.EqualFold(rt.Scheme, rl.Scheme) || !strings.EqualFold(rt.Host, rl.Host) {
		return false
	}
	realmPath := strings.TrimSuffix(rl.Path, "/")
	return rt.Path == realmPath || strings.HasPrefix(rt.Path, realmPath+"/")
}

// configOptions is the set of available options
type configOptions struct {
	withEndpoint      string
	withClaimedIDHost string
	withTimeout       time.Duration
	withProviderCA    string
	withLanguage      language.Tag
	withLogger        hclog.Logger
}

// configDefaults is a handy way to get the defaults at runtime and
// during unit tests.
func configDefaults() configOptions {
	return configOptions{
		withEndpoint:      SteamEndpoint,
		withClaimedIDHost: SteamClaimedIDHost,
		withTimeout:       DefaultTimeout,
		withLanguage:      DefaultLanguage,
		withLogger:        hclog.NewNullLogger(),
	}
}

// getConfigOpts gets the defaults and applies the opt overrides passed
// in.
func getConfigOpts(opt ...Option) configOptions {
	opts := configDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithEndpoint provides an optional provider endpoint, which is handy for
// testing or for other providers speaking the same dialect.
func WithEndpoint(endpoint string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withEndpoint = endpoint
		}
	}
}

// WithClaimedIDHost provides an optional host asserted claimed_ids must use.
func WithClaimedIDHost(host string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withClaimedIDHost = host
		}
	}
}

// WithTimeout provides an optional timeout for requests to the provider.
func WithTimeout(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withTimeout = d
		}
	}
}

// WithProviderCA provides an optional CA cert for the provider's config
func WithProviderCA(cert string) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withProviderCA = cert
		}
	}
}

// WithLanguage provides an optional language for verification requests.
func WithLanguage(tag language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*configOptions); ok {
			o.withLanguage = tag
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
