// Package mirrordb holds all migrations for the mirror database
package mirrordb

import "github.com/uptrace/bun/migrate"

// Migrations is the registry the numbered migration files attach to
var Migrations = migrate.NewMigrations()
