package migrations

import "embed"

// FS holds the SQL migrations applied at startup through the iofs source
// driver.
//
//go:embed *.sql
var FS embed.FS

// Version is the schema version the service expects to run against.
const Version = 1
