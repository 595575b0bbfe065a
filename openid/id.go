// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"fmt"

	"github.com/hashicorp/cap-steam/sdk/id"
)

// NewId generates a random ID with an optional prefix.  The ID generated is
// suitable for the opaque tokens of a Credential.
func NewId(optionalPrefix string) (string, error) {
	const op = "openid.NewId"
	id, err := id.New(optionalPrefix)
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, err, ErrIdGeneratorFailed)
	}
	return id, nil
}
