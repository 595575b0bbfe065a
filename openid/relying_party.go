// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// maxVerificationBody caps how much of a check_authentication response is
// read.  Real responses are a few lines of key:value pairs.
const maxVerificationBody = 64 * 1024

var (
	isValidTrueRe  = regexp.MustCompile(`(?i)is_valid\s*:\s*true`)
	isValidFalseRe = regexp.MustCompile(`(?i)is_valid\s*:\s*false`)
)

// Reason describes why a VerificationResult is invalid.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonCanceled          Reason = "canceled"
	ReasonProviderError     Reason = "provider_error"
	ReasonUnexpectedMode    Reason = "unexpected_mode"
	ReasonReturnToMismatch  Reason = "return_to_mismatch"
	ReasonProviderRejected  Reason = "provider_rejected"
	ReasonClaimedIDMismatch Reason = "claimed_id_mismatch"
)

// VerificationResult is the outcome of verifying an assertion.  Identifier
// is only set when Valid is true, and is always a 17-25 digit string.
type VerificationResult struct {
	Valid      bool
	Identifier string
	Reason     Reason
}

// RelyingParty verifies OpenID 2.0 assertions using the indirect
// (identifier select) flow.  It's safe for concurrent use; the only state it
// shares between logins is its pooled http client.
type RelyingParty struct {
	config      *Config
	client      *http.Client
	returnTo    *url.URL
	claimedIDRe *regexp.Regexp
}

// NewRelyingParty creates a RelyingParty from the config.  No requests are
// made to the provider.
func NewRelyingParty(c *Config) (*RelyingParty, error) {
	const op = "openid.NewRelyingParty"
	if c == nil {
		return nil, fmt.Errorf("%s: config is nil: %w", op, ErrNilParameter)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: config is invalid: %w", op, err)
	}
	client, err := c.HttpClient()
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create http client: %w", op, err)
	}
	returnTo, err := url.Parse(c.ReturnTo)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to parse return_to: %s: %w", op, err, ErrInvalidParameter)
	}
	return &RelyingParty{
		config:      c,
		client:      client,
		returnTo:    returnTo,
		claimedIDRe: regexp.MustCompile(`^https://` + regexp.QuoteMeta(c.ClaimedIDHost) + `/openid/id/([0-9]{17,25})$`),
	}, nil
}

// Config returns the relying party's config.
func (rp *RelyingParty) Config() *Config { return rp.config }

// AuthRequest builds a new checkid_setup request for the configured
// endpoint, return_to and realm.  Supports the WithReturnToQuery option.
func (rp *RelyingParty) AuthRequest(opt ...Option) (*AuthRequest, error) {
	return NewAuthRequest(rp.config.Endpoint, rp.config.ReturnTo, rp.config.Realm, opt...)
}

// AuthURL will generate a URL the caller can use to send the user's browser
// to the provider.  Supports the WithReturnToQuery option.
func (rp *RelyingParty) AuthURL(_ context.Context, opt ...Option) (string, error) {
	const op = "openid.(RelyingParty).AuthURL"
	r, err := rp.AuthRequest(opt...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	u, err := r.URL()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// Verify checks the assertion in the callback with the provider
// (check_authentication) and extracts the identifier it vouches for.
//
// A rejected assertion is not an error: it returns an invalid result with a
// Reason.  Errors are only returned when the provider couldn't be asked
// (ErrVerification), in which case the ctx error, if any, is also wrapped.
// Verify never retries.
func (rp *RelyingParty) Verify(ctx context.Context, cp *CallbackParams) (*VerificationResult, error) {
	const op = "openid.(RelyingParty).Verify"
	if cp == nil {
		return nil, fmt.Errorf("%s: callback params are nil: %w", op, ErrNilParameter)
	}
	logger := rp.config.logger()

	switch cp.Mode() {
	case ModeIDRes:
	case ModeCancel:
		logger.Warn("assertion rejected", "reason", ReasonCanceled)
		return &VerificationResult{Reason: ReasonCanceled}, nil
	case ModeError:
		logger.Warn("assertion rejected", "reason", ReasonProviderError)
		return &VerificationResult{Reason: ReasonProviderError}, nil
	default:
		logger.Warn("assertion rejected", "reason", ReasonUnexpectedMode, "mode", cp.Mode())
		return &VerificationResult{Reason: ReasonUnexpectedMode}, nil
	}
	if !rp.matchesReturnTo(cp.ReturnTo()) {
		logger.Warn("assertion rejected", "reason", ReasonReturnToMismatch)
		return &VerificationResult{Reason: ReasonReturnToMismatch}, nil
	}

	form := verificationRequest(cp)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rp.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create check_authentication request: %s: %w", op, err, ErrInvalidParameter)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rp.config.Language != language.Und {
		req.Header.Set("Accept-Language", rp.config.Language.String())
	}

	logger.Debug("verifying assertion", "endpoint", rp.config.Endpoint, "signed", len(cp.signed))
	resp, err := rp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: check_authentication request failed: %w: %w", op, ErrVerification, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%s: provider responded with status %d: %w", op, resp.StatusCode, ErrVerification)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVerificationBody))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read check_authentication response: %w: %w", op, ErrVerification, err)
	}

	if !isValidTrueRe.Match(body) || isValidFalseRe.Match(body) {
		logger.Warn("assertion rejected", "reason", ReasonProviderRejected, "status", resp.StatusCode)
		return &VerificationResult{Reason: ReasonProviderRejected}, nil
	}
	identifier, ok := rp.extractIdentifier(cp.ClaimedID())
	if !ok {
		logger.Warn("assertion rejected", "reason", ReasonClaimedIDMismatch)
		return &VerificationResult{Reason: ReasonClaimedIDMismatch}, nil
	}
	return &VerificationResult{
		Valid:      true,
		Identifier: identifier,
	}, nil
}

// Exchange verifies the assertion and, when it's valid, creates a
// Credential for the verified identifier.  An invalid assertion is returned
// as ErrInvalidAssertion: the host must abort the login and not create a
// session.
func (rp *RelyingParty) Exchange(ctx context.Context, cp *CallbackParams) (*Credential, error) {
	const op = "openid.(RelyingParty).Exchange"
	result, err := rp.Verify(ctx, cp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%s: %s: %w", op, result.Reason, ErrInvalidAssertion)
	}
	c, err := NewCredential(result.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// verificationRequest builds the check_authentication form.  Only fields
// named in openid.signed are copied, each looked up by its exact name in the
// callback's fields; openid.mode is always check_authentication.
func verificationRequest(cp *CallbackParams) url.Values {
	form := url.Values{
		paramPrefix + "assoc_handle": {cp.fields["assoc_handle"]},
		paramPrefix + "signed":       {cp.fields["signed"]},
		paramPrefix + "sig":          {cp.fields["sig"]},
		paramPrefix + "ns":           {NamespaceOpenID2},
	}
	for _, name := range cp.signed {
		v, ok := cp.fields[name]
		if !ok {
			continue
		}
		form.Set(paramPrefix+name, v)
	}
	form.Set(paramPrefix+"mode", ModeCheckAuthentication)
	return form
}

// extractIdentifier returns the digits of a claimed_id of the form
// https://<claimed id host>/openid/id/<17-25 digits>.
func (rp *RelyingParty) extractIdentifier(claimedID string) (string, bool) {
	m := rp.claimedIDRe.FindStringSubmatch(claimedID)
	if len(m) != 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// matchesReturnTo reports whether the asserted return_to has the configured
// scheme, host and path.  The query may differ (see WithReturnToQuery).
func (rp *RelyingParty) matchesReturnTo(asserted string) bool {
	u, err := url.Parse(asserted)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, rp.returnTo.Scheme) &&
		strings.EqualFold(u.Host, rp.returnTo.Host) &&
		u.Path == rp.returnTo.Path
}
