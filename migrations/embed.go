// Package migrations embebe el schema SQL para el CLI y los tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
