// Package migrations содержит goose-миграции, вшитые в бинарь.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
