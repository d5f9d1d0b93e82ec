// Package migrations содержит SQL-миграции хранилища PostgreSQL.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
