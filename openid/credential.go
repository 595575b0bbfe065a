// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// SessionToken is a locally generated session correlator.
type SessionToken string

// RedactedSessionToken is the redacted string or json for a session token
const RedactedSessionToken = "[REDACTED: session_token]"

// String will redact the token
func (t SessionToken) String() string {
	return RedactedSessionToken
}

// MarshalJSON will redact the token
func (t SessionToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedSessionToken)
}

// AccessToken is a locally generated, opaque access token.
type AccessToken string

// RedactedAccessToken is the redacted string or json for an access token
const RedactedAccessToken = "[REDACTED: access_token]"

// String will redact the token
func (t AccessToken) String() string {
	return RedactedAccessToken
}

// MarshalJSON will redact the token
func (t AccessToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedAccessToken)
}

// Credential is what a successful assertion verification yields: the
// verified identifier and two random tokens.  OpenID 2.0 providers never
// issue tokens; these exist only for hosts that expect token-shaped values.
// They carry no provider semantics and must never be sent to the provider.
type Credential struct {
	sessionToken SessionToken
	accessToken  AccessToken
	identifier   string
}

// NewCredential creates a Credential for the verified identifier with two
// independently generated tokens.
func NewCredential(identifier string) (*Credential, error) {
	const op = "openid.NewCredential"
	if identifier == "" {
		return nil, fmt.Errorf("%s: identifier is empty: %w", op, ErrInvalidParameter)
	}
	st, err := NewId("st")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate session token: %w", op, err)
	}
	at, err := NewId("at")
	if err != nil {
		return nil, fmt.Errorf("%s: unable to generate access token: %w", op, err)
	}
	return &Credential{
		sessionToken: SessionToken(st),
		accessToken:  AccessToken(at),
		identifier:   identifier,
	}, nil
}

func (c *Credential) SessionToken() SessionToken { return c.sessionToken }
func (c *Credential) AccessToken() AccessToken   { return c.accessToken }

// Identifier is the provider scoped identifier the provider vouched for.
func (c *Credential) Identifier() string { return c.identifier }

// Token returns the credential as an oauth2.Token.  The session token and
// identifier are available via Extra("session_token") and Extra("id").
func (c *Credential) Token() *oauth2.Token {
	t := &oauth2.Token{
		AccessToken: string(c.accessToken),
	}
	return t.WithExtra(map[string]interface{}{
		"session_token": string(c.sessionToken),
		"id":            c.identifier,
	})
}

// StaticTokenSource returns a TokenSource which always returns the
// credential's Token.
func (c *Credential) StaticTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(c.Token())
}
