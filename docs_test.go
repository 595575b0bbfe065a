// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package capsteam_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/cap-steam/openid"
	"github.com/hashicorp/cap-steam/steam"
)

func Example_steam() {
	ctx := context.Background()

	// Create the configs: where Steam sends users back to, and the Web API
	// key used to resolve their profiles.
	oc, err := openid.NewConfig("https://your-app.example/callback", "https://your-app.example")
	if err != nil {
		// handle error
	}
	sc, err := steam.NewConfig("your_web_api_key")
	if err != nil {
		// handle error
	}

	// Create a provider
	p, err := steam.NewProvider(oc, sc)
	if err != nil {
		// handle error
	}

	// Create an auth URL
	authURL, err := p.AuthURL(ctx)
	if err != nil {
		// handle error
	}
	fmt.Println("open url to kick-off authentication: ", authURL)

	// Create a http.Handler for Steam's redirect back to the app
	callbackHandler := func(w http.ResponseWriter, r *http.Request) {
		// Verify the assertion with Steam and resolve the user's profile.
		id, c, err := p.Login(r.Context(), r.URL.Query())
		switch {
		case errors.Is(err, openid.ErrCanceled):
			// the user declined
		case openid.IsRetryable(err):
			// steam couldn't be reached
		case err != nil:
			// handle error, don't create a session
		}
		// create a session for c.Identifier()
		_ = c

		idData, err := json.MarshalIndent(id, "", "    ")
		if err != nil {
			// handle error
		}
		_, _ = w.Write(idData)
	}
	http.HandleFunc("/callback", callbackHandler)
}
