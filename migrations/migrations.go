// Package migrations embeds the history store schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
