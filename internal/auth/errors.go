// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
)

// ErrNoSession indicates no session exists for the given handle, or an
// OAuth callback arrived without an established provider session.
var ErrNoSession = errors.New("auth: no session")

// ErrUnknownProvider indicates a sign-in request named a provider that
// is not configured.
var ErrUnknownProvider = errors.New("auth: unknown provider")

// AuthError wraps an identity-provider failure. It is returned to the
// caller as a value; nothing in this package panics across the service
// boundary.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
