// Package appfs embeds the files the binaries need at runtime:
// database migrations, email and portal templates, static assets.
package appfs

import "embed"

//go:embed migrations all:templates assets static
var FS embed.FS
