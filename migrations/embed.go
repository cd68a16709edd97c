package migrations

import "embed"

// FS bundles the postgres schema migrations.
//
//go:embed *.sql
var FS embed.FS
