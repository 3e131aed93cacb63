// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL- and filename-friendly slugs from arbitrary
// strings. Category slugs and rule download filenames are built with it.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// separators become a single hyphen.
	separators = regexp.MustCompile(`[\s_./]+`)
	// nonAlphanumeric matches anything that isn't a letter, digit or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a slug from the given string. Accents are folded to
// their base letter and any other non-ASCII character is dropped.
// Example: "Next.js Full-Stack Guide" → "next-js-full-stack-guide"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(fold(s)))
	result = separators.ReplaceAllString(result, "-")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Filename returns a download filename for title with the given extension,
// falling back to fallback when title has no usable characters.
func Filename(title, fallback, ext string) string {
	base := Generate(title)
	if base == "" {
		base = fallback
	}
	return base + ext
}

// fold strips combining marks after canonical decomposition, so "é" becomes "e".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
