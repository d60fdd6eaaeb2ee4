// Package migrations holds the ordered bootstrap steps: the schema as goose
// SQL files and the administrator seed as a Go step.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
