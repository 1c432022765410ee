// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain entities stored in the database.
package model

import (
	"database/sql"
	"strings"
	"time"
)

// Content statuses shared by all publishable entities.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// Project represents a portfolio project.
type Project struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	Tags      string    `json:"tags"` // comma separated
	Year      int       `json:"year"`
	Featured  bool      `json:"featured"`
	Status    string    `json:"status"`
	SortOrder int       `json:"sort_order"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the project is publicly visible.
func (p *Project) IsPublished() bool {
	return p.Status == StatusPublished
}

// TagList splits the comma-separated tags field.
func (p *Project) TagList() []string {
	return splitTags(p.Tags)
}

// Service represents a service offering shown on the site.
type Service struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Summary   string    `json:"summary"`
	Body      string    `json:"body"`
	Icon      string    `json:"icon"`
	Priority  int       `json:"priority"`
	Featured  bool      `json:"featured"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the service is publicly visible.
func (s *Service) IsPublished() bool {
	return s.Status == StatusPublished
}

// Article represents a blog article.
type Article struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Excerpt     string       `json:"excerpt"`
	Body        string       `json:"body"` // markdown source
	Category    string       `json:"category"`
	Tags        string       `json:"tags"` // comma separated
	Featured    bool         `json:"featured"`
	Status      string       `json:"status"`
	PublishedAt sql.NullTime `json:"published_at,omitempty"`
	ViewCount   int64        `json:"view_count"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsPublished returns true if the article is publicly visible.
func (a *Article) IsPublished() bool {
	return a.Status == StatusPublished
}

// TagList splits the comma-separated tags field.
func (a *Article) TagList() []string {
	return splitTags(a.Tags)
}

// Inquiry statuses.
const (
	InquiryStatusNew      = "new"
	InquiryStatusRead     = "read"
	InquiryStatusReplied  = "replied"
	InquiryStatusArchived = "archived"
)

// Inquiry represents a contact-form submission.
type Inquiry struct {
	ID        int64     `json:"id"`
	Reference string    `json:"reference"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Testimonial represents a client testimonial.
type Testimonial struct {
	ID        int64     `json:"id"`
	Author    string    `json:"author"`
	Role      string    `json:"role"`
	Company   string    `json:"company"`
	Quote     string    `json:"quote"`
	Rating    int       `json:"rating"`
	Featured  bool      `json:"featured"`
	Status    string    `json:"status"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublished returns true if the testimonial is publicly visible.
func (t *Testimonial) IsPublished() bool {
	return t.Status == StatusPublished
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
