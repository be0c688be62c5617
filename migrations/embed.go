// Package migrations embeds the SQL migration files so the server and the
// integration tests can apply them through the goose programmatic API.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time. The server
// applies them at startup and the repo tests apply them in TestMain, so no
// filesystem path is needed at runtime.
//
//go:embed *.sql
var FS embed.FS
