package ui

import "embed"

// assets holds the embedded static UI files.
//
//go:embed assets
var assets embed.FS
