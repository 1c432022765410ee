// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Profile roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile represents the local profile row provisioned for each
// authenticated user. The identity itself lives with the OAuth provider;
// this row carries the role and display data the application needs.
type Profile struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAdmin returns true if the profile carries the admin role.
func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// IsComplete returns true if the profile has the fields the UI needs to
// render an account without prompting the user.
func (p *Profile) IsComplete() bool {
	return p.Email != "" && p.DisplayName != ""
}
