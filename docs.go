// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// capsteam provides packages which log users in with Steam: an OpenID 2.0
// relying party (openid), the Steam profile resolver (steam) and http
// handlers which tie them together (openid/callback).
//
// See examples/steamlogin for a runnable app.
package capsteam
