// Package migration carries the SQL scripts for the alarm database schema.
package migration

import "embed"

//go:embed *.sql
var Scripts embed.FS
