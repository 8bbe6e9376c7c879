// Package migrations embeds the goose SQL migrations for the proxy registry.
package migrations

import "embed"

// FS holds every migration file, rooted at the package directory.
//
//go:embed *.sql
var FS embed.FS
