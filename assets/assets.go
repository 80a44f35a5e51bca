package assets

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css).
//
//go:embed static/*
var StaticFS embed.FS
