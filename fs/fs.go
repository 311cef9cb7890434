// Package appfs exposes build-time embedded assets (DB migrations).
package appfs

import "embed"

//go:embed migrations/*.sql
var FS embed.FS
