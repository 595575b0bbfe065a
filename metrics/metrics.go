// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package metrics collects prometheus metrics about Steam logins.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hashicorp/cap-steam/openid"
	"github.com/hashicorp/cap-steam/steam"
)

// Outcome is how a login ended.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeCanceled          Outcome = "canceled"
	OutcomeMalformed         Outcome = "malformed"
	OutcomeInvalidAssertion  Outcome = "invalid_assertion"
	OutcomeVerificationError Outcome = "verification_error"
	OutcomeProfileNotFound   Outcome = "profile_not_found"
	OutcomeProfileError      Outcome = "profile_error"
	OutcomeError             Outcome = "error"
)

// OutcomeOf classifies the error a login ended with.  A nil error is a
// success.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, openid.ErrCanceled):
		return OutcomeCanceled
	case errors.Is(err, openid.ErrMalformedCallback):
		return OutcomeMalformed
	case errors.Is(err, openid.ErrInvalidAssertion):
		return OutcomeInvalidAssertion
	case errors.Is(err, openid.ErrVerification):
		return OutcomeVerificationError
	case errors.Is(err, steam.ErrProfileNotFound):
		return OutcomeProfileNotFound
	case errors.Is(err, steam.ErrProfileFetch):
		return OutcomeProfileError
	default:
		return OutcomeError
	}
}

// Collector records login metrics.  A nil *Collector records nothing.
type Collector struct {
	logins       *prometheus.CounterVec
	loginLatency prometheus.Histogram
	redirects    prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "steam_logins_total",
			Help: "Steam login callbacks handled, by outcome.",
		}, []string{"outcome"}),
		loginLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "steam_login_duration_seconds",
			Help:    "Time spent verifying an assertion and resolving the profile.",
			Buckets: prometheus.DefBuckets,
		}),
		redirects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "steam_login_redirects_total",
			Help: "Users sent to Steam to log in.",
		}),
	}
	reg.MustRegister(
		c.logins,
		c.loginLatency,
		c.redirects,
	)
	return c
}

// RecordRedirect records a user being sent to Steam.
func (c *Collector) RecordRedirect() {
	if c == nil {
		return
	}
	c.redirects.Inc()
}

// RecordLogin records the outcome and latency of a login callback.
func (c *Collector) RecordLogin(err error, d time.Duration) {
	if c == nil {
		return
	}
	c.logins.WithLabelValues(string(OutcomeOf(err))).Inc()
	c.loginLatency.Observe(d.Seconds())
}

// Handler returns the http.Handler prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
