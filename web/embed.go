// Package web provides the embedded static assets of the portal: the
// public site stylesheet and the back office CSS. In development the admin
// templates load Tailwind from the CDN; release builds compile admin.css
// from input.css before embedding.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree, served at /static/.
//
//go:embed all:static
var StaticFS embed.FS
