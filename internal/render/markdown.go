// Copyright (c) 2026 Folio Labs
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render converts stored markdown into HTML that is safe to ship
// to the frontend, and sanitizes free-form visitor input.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements from rendered markdown while
// keeping the tags user-generated content legitimately needs.
var htmlSanitizer = bluemonday.UGCPolicy()

// inputSanitizer strips all markup. Used for plain-text form fields.
var inputSanitizer = bluemonday.StrictPolicy()

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Markdown converts markdown source to sanitized HTML.
func Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// PlainText strips all HTML from a free-form input field and trims
// surrounding whitespace.
func PlainText(s string) string {
	return strings.TrimSpace(inputSanitizer.Sanitize(s))
}
