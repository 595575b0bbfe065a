// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package openid

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil"},
		{name: "verification", err: fmt.Errorf("op: %w", ErrVerification), want: true},
		{name: "verification-ctx", err: fmt.Errorf("op: %w: %w", ErrVerification, context.DeadlineExceeded), want: true},
		{name: "invalid-assertion", err: fmt.Errorf("op: %w", ErrInvalidAssertion)},
		{name: "malformed", err: fmt.Errorf("op: %w", ErrMalformedCallback)},
		{name: "both", err: fmt.Errorf("op: %w: %w", ErrVerification, ErrInvalidAssertion)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestNewId(t *testing.T) {
	t.Parallel()
	got, err := NewId("st")
	assert.NoError(t, err)
	assert.Len(t, got, len("st_")+36)
}
