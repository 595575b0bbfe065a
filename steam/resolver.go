// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxProfileBody caps how much of a GetPlayerSummaries response is read.
const maxProfileBody = 1 << 20

// PlayerSummary is a player as returned by the Web API's GetPlayerSummaries.
// Only the public fields are listed.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	CommunityVisibilityState int    `json:"communityvisibilitystate"`
	ProfileState             int    `json:"profilestate"`
	PersonaName              string `json:"personaname"`
	LastLogoff               int64  `json:"lastlogoff"`
	ProfileURL               string `json:"profileurl"`
	Avatar                   string `json:"avatar"`
	AvatarMedium             string `json:"avatarmedium"`
	AvatarFull               string `json:"avatarfull"`
	PersonaState             int    `json:"personastate,omitempty"`
	RealName                 string `json:"realname,omitempty"`
	LocCountryCode           string `json:"loccountrycode,omitempty"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []PlayerSummary `json:"players"`
	} `json:"response"`
}

// Resolver resolves verified steamids into profiles.  It's safe for
// concurrent use and never caches a profile.
type Resolver struct {
	config   *Config
	client   *http.Client
	endpoint string
}

// NewResolver creates a Resolver from the config.
func NewResolver(c *Config) (*Resolver, error) {
	const op = "steam.NewResolver"
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
	return &Resolver{
		config:   c,
		client:   client,
		endpoint: strings.TrimSuffix(c.WebAPIURL, "/") + playerSummariesPath,
	}, nil
}

// FetchProfile gets the player summary of the steamid.  The steamid should
// come from a verified assertion.
func (r *Resolver) FetchProfile(ctx context.Context, steamID string) (*PlayerSummary, error) {
	const op = "steam.(Resolver).FetchProfile"
	if steamID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingIdentifier)
	}
	logger := r.config.logger()

	if r.config.RateLimiter != nil {
		if err := r.config.RateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s: rate limited: %w: %w", op, ErrProfileFetch, err)
		}
	}

	q := url.Values{}
	q.Set("key", string(r.config.APIKey))
	q.Set("steamids", steamID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %s: %w", op, stripURL(err), ErrInvalidParameter)
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("fetching player summary", "steamid", steamID)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w: %w", op, ErrProfileFetch, stripURL(err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: web api responded with status %d: %w", op, resp.StatusCode, ErrProfileFetch)
	}

	var body playerSummariesResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: unable to decode response: %s: %w", op, err, ErrProfileFetch)
	}
	for i := range body.Response.Players {
		if body.Response.Players[i].SteamID == steamID {
			p := body.Response.Players[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%s: no player %s: %w", op, steamID, ErrProfileNotFound)
}

// stripURL drops the request URL from transport errors since its query
// carries the API key.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
