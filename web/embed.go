// Package web provides embedded static assets (CSS, JS) for the public
// site. They are served at /static/ by the router.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree: the site stylesheet and
// the search autocomplete script.
//
//go:embed all:static
var StaticFS embed.FS
