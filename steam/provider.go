// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/cap-steam/openid"
)

// Provider is Steam as an assertion based login provider: it sends users to
// Steam, verifies what Steam asserts about them and resolves their profile.
// It's safe for concurrent use.
type Provider struct {
	rp       *openid.RelyingParty
	resolver *Resolver
}

// NewProvider creates a Provider.  The openid config says where Steam sends
// users back to; the steam config how their profiles are resolved.
func NewProvider(oc *openid.Config, sc *Config) (*Provider, error) {
	const op = "steam.NewProvider"
	if oc == nil {
		return nil, fmt.Errorf("%s: openid config is nil: %w", op, ErrNilParameter)
	}
	rp, err := openid.NewRelyingParty(oc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r, err := NewResolver(sc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Provider{
		rp:       rp,
		resolver: r,
	}, nil
}

// RelyingParty returns the provider's relying party.
func (p *Provider) RelyingParty() *openid.RelyingParty { return p.rp }

// Resolver returns the provider's profile resolver.
func (p *Provider) Resolver() *Resolver { return p.resolver }

// AuthURL returns the URL to send the user's browser to.  Supports the
// openid.WithReturnToQuery option.
func (p *Provider) AuthURL(ctx context.Context, opt ...openid.Option) (string, error) {
	const op = "steam.(Provider).AuthURL"
	u, err := p.rp.AuthURL(ctx, opt...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// VerifyAssertion asks Steam to confirm the callback's assertion and returns
// a credential for the steamid it vouches for.
func (p *Provider) VerifyAssertion(ctx context.Context, cp *openid.CallbackParams) (*openid.Credential, error) {
	const op = "steam.(Provider).VerifyAssertion"
	c, err := p.rp.Exchange(ctx, cp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ResolveProfile fetches the profile of the credential's steamid and maps
// it to an identity.
func (p *Provider) ResolveProfile(ctx context.Context, c *openid.Credential) (*openid.Identity, error) {
	const op = "steam.(Provider).ResolveProfile"
	if c == nil {
		return nil, fmt.Errorf("%s: credential is nil: %w", op, ErrNilParameter)
	}
	summary, err := p.resolver.FetchProfile(ctx, c.Identifier())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id := MapIdentity(summary)
	return &id, nil
}

// Login handles a whole callback: it parses the query, verifies the
// assertion and resolves the profile, in that order.  Nothing is returned
// unless every step succeeds.
func (p *Provider) Login(ctx context.Context, q url.Values) (*openid.Identity, *openid.Credential, error) {
	const op = "steam.(Provider).Login"
	cp, err := openid.ParseCallback(q)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	c, err := p.VerifyAssertion(ctx, cp)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := p.ResolveProfile(ctx, c)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return id, c, nil
}
