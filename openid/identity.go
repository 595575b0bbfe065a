// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

// Identity is the canonical record of an authenticated user handed to the
// host.  It's built once per successful login and never modified.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ImageURL    string `json:"imageUrl"`
}
