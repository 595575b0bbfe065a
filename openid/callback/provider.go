// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"

	"github.com/hashicorp/cap-steam/openid"
)

// AssertionProvider is a login provider that vouches for an identifier in a
// signed assertion instead of issuing tokens.  steam.Provider implements it.
type AssertionProvider interface {
	AuthURL(ctx context.Context, opt ...openid.Option) (string, error)
	VerifyAssertion(ctx context.Context, cp *openid.CallbackParams) (*openid.Credential, error)
	ResolveProfile(ctx context.Context, c *openid.Credential) (*openid.Identity, error)
}
