// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"github.com/hashicorp/cap-steam/openid"
)

// MapIdentity converts a player summary into the identity handed to the
// host.  The image is the largest avatar Steam returned.
func MapIdentity(p *PlayerSummary) openid.Identity {
	if p == nil {
		return openid.Identity{}
	}
	img := p.AvatarFull
	if img == "" {
		img = p.AvatarMedium
	}
	if img == "" {
		img = p.Avatar
	}
	return openid.Identity{
		ID:          p.SteamID,
		DisplayName: p.PersonaName,
		ImageURL:    img,
	}
}
