// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Token is the provider-issued credential set for one session.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Identity is what the provider asserts about the signed-in user.
type Identity struct {
	UserID    string
	Email     string
	Name      string
	AvatarURL string
}

// Provider is the identity-provider surface the session service
// consumes: authorization-code flow with PKCE, token refresh, and
// sign-out. Tests substitute a fake.
type Provider interface {
	Name() string

	// AuthURL returns the consent-flow URL for the given state and
	// PKCE S256 challenge.
	AuthURL(state, challenge string) string

	// Exchange trades the authorization code for tokens and resolves
	// the user's identity from the ID token.
	Exchange(ctx context.Context, code, verifier string) (*Token, *Identity, error)

	// Refresh obtains a fresh access token.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)

	// SignOut invalidates the provider-side session, best effort.
	SignOut(ctx context.Context, accessToken string) error
}

// OAuthProvider implements Provider over a standard OAuth2 endpoint
// pair with OIDC-style ID tokens.
type OAuthProvider struct {
	name string
	cfg  *oauth2.Config
}

// NewOAuthProvider builds a provider from endpoint configuration.
func NewOAuthProvider(name, clientID, clientSecret, authURL, tokenURL, redirectURL string, scopes []string) *OAuthProvider {
	return &OAuthProvider{
		name: name,
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
			RedirectURL:  redirectURL,
			Scopes:       scopes,
		},
	}
}

// Name returns the provider's configured name.
func (p *OAuthProvider) Name() string { return p.name }

// AuthURL returns the provider consent URL carrying the PKCE challenge.
func (p *OAuthProvider) AuthURL(state, challenge string) string {
	return p.cfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange trades the code for tokens and extracts the identity claims
// from the ID token. The token response arrives over the provider's TLS
// channel, so the claims are read without local signature verification.
func (p *OAuthProvider) Exchange(ctx context.Context, code, verifier string) (*Token, *Identity, error) {
	tok, err := p.cfg.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("code exchange: %w", err)
	}

	identity := &Identity{}
	if raw, ok := tok.Extra("id_token").(string); ok && raw != "" {
		claims := jwt.MapClaims{}
		parser := jwt.NewParser()
		if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
			return nil, nil, fmt.Errorf("parsing id token: %w", err)
		}
		identity.UserID, _ = claims["sub"].(string)
		identity.Email, _ = claims["email"].(string)
		identity.Name, _ = claims["name"].(string)
		identity.AvatarURL, _ = claims["picture"].(string)
	}
	if identity.UserID == "" {
		return nil, nil, fmt.Errorf("token response carried no subject")
	}

	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}, identity, nil
}

// Refresh obtains a fresh access token from the refresh token.
func (p *OAuthProvider) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	src := p.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh: %w", err)
	}

	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}
	return out, nil
}

// SignOut is a no-op for plain OAuth2 endpoints; providers with a
// revocation endpoint get their own implementation.
func (p *OAuthProvider) SignOut(_ context.Context, _ string) error {
	return nil
}

// newPKCEVerifier generates a PKCE code verifier and its S256 challenge.
func newPKCEVerifier() (verifier, challenge string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generating pkce verifier: %w", err)
	}
	verifier = base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(sum[:])
	return verifier, challenge, nil
}
