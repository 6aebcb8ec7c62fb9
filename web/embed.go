// Package web embeds the fallback hub status page served when no board build
// is configured.
package web

import "embed"

// Assets contains the status page under build/.
//
//go:embed all:build
var Assets embed.FS
