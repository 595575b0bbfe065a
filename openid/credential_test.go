// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredential(t *testing.T) {
	t.Parallel()
	t.Run("valid", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		c, err := NewCredential("76561197960287930")
		require.NoError(err)
		assert.Equal("76561197960287930", c.Identifier())
		assert.True(strings.HasPrefix(string(c.SessionToken()), "st_"))
		assert.True(strings.HasPrefix(string(c.AccessToken()), "at_"))
		assert.NotEqual(string(c.SessionToken()), string(c.AccessToken()))
	})
	t.Run("empty-identifier", func(t *testing.T) {
		_, err := NewCredential("")
		assert.ErrorIs(t, err, ErrInvalidParameter)
	})
	t.Run("unique", func(t *testing.T) {
		assert, require := assert.New(t), require.New(t)
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			c, err := NewCredential("76561197960287930")
			require.NoError(err)
			for _, tk := range []string{string(c.SessionToken()), string(c.AccessToken())} {
				assert.False(seen[tk], "duplicate token")
				seen[tk] = true
			}
		}
	})
}

func TestCredential_redacted(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c, err := NewCredential("76561197960287930")
	require.NoError(err)

	assert.Equal(RedactedSessionToken, c.SessionToken().String())
	assert.Equal(RedactedAccessToken, fmt.Sprintf("%s", c.AccessToken()))

	b, err := json.Marshal(struct {
		S SessionToken
		A AccessToken
	}{c.SessionToken(), c.AccessToken()})
	require.NoError(err)
	assert.JSONEq(`{"S":"[REDACTED: session_token]","A":"[REDACTED: access_token]"}`, string(b))
}

func TestCredential_Token(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	c, err := NewCredential("76561197960287930")
	require.NoError(err)

	tk := c.Token()
	assert.Equal(string(c.AccessToken()), tk.AccessToken)
	assert.Equal(string(c.SessionToken()), tk.Extra("session_token"))
	assert.Equal("76561197960287930", tk.Extra("id"))
	assert.True(tk.Valid())

	fromSource, err := c.StaticTokenSource().Token()
	require.NoError(err)
	assert.Equal(tk.AccessToken, fromSource.AccessToken)
}

func TestIdentity_json(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(Identity{ID: "76561197960287930", DisplayName: "Gabe", ImageURL: "https://avatars.example/full.jpg"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"76561197960287930","displayName":"Gabe","imageUrl":"https://avatars.example/full.jpg"}`, string(b))
}
